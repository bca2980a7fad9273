package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/Nisha0202/lms-backend/internal/service"
	"github.com/Nisha0202/lms-backend/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportEnrollments 导出全部报名记录
// GET /api/enrollments/admin/export
func (h *ExportHandler) ExportEnrollments(c *gin.Context) {
	buf, filename, err := h.exportSvc.ExportEnrollments(c.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrExportGenerateFail) {
			_ = c.Error(err)
		}
		response.InternalError(c)
		return
	}

	response.Attachment(c, filename, xlsxContentType, buf.Bytes())
}
