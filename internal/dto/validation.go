package dto

import "github.com/go-playground/validator/v10"

// RegisterValidators 注册结构体级校验规则
func RegisterValidators(v *validator.Validate) {
	v.RegisterStructValidation(batchWindowValidation, BatchRequest{})
}

// batchWindowValidation 批次开始时间必须早于结束时间
func batchWindowValidation(sl validator.StructLevel) {
	b := sl.Current().Interface().(BatchRequest)
	if b.StartDate.IsZero() || b.EndDate.IsZero() {
		return
	}
	if !b.StartDate.Before(b.EndDate) {
		sl.ReportError(b.EndDate, "EndDate", "end_date", "gtfield", "StartDate")
	}
}
