package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/Nisha0202/lms-backend/internal/repository"
)

// ── 导出模块业务错误 ──

var ErrExportGenerateFail = errors.New("生成 Excel 文件失败")

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportEnrollments 导出全部报名记录为 Excel
	ExportEnrollments(ctx context.Context) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger, now: time.Now}
}

var enrollmentExportHeaders = []string{"学生姓名", "邮箱", "课程", "批次", "进度(%)", "支付状态", "报名时间"}

// ═══════════════════════════════════════════════════════════
// ExportEnrollments 导出报名记录为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：单个 Sheet "报名记录"，第 1 行为表头，按报名时间倒序

func (s *exportService) ExportEnrollments(ctx context.Context) (*bytes.Buffer, string, error) {
	enrollments, err := s.repo.Enrollment.ListAll(ctx)
	if err != nil {
		s.logger.Error("查询报名记录失败", zap.Error(err))
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "报名记录"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	// 删除默认 Sheet1
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "B", 24)
	f.SetColWidth(sheetName, "C", "C", 32)
	f.SetColWidth(sheetName, "D", "D", 16)
	f.SetColWidth(sheetName, "E", "F", 12)
	f.SetColWidth(sheetName, "G", "G", 22)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 表头
	for i, h := range enrollmentExportHeaders {
		f.SetCellValue(sheetName, cell(colName(i), 1), h)
	}
	f.SetCellStyle(sheetName, "A1", cell(colName(len(enrollmentExportHeaders)-1), 1), headerStyle)

	// 数据行
	for i := range enrollments {
		item := toAdminEnrollmentItem(&enrollments[i])
		row := i + 2
		f.SetCellValue(sheetName, cell("A", row), item.StudentName)
		f.SetCellValue(sheetName, cell("B", row), item.StudentEmail)
		f.SetCellValue(sheetName, cell("C", row), item.CourseTitle)
		f.SetCellValue(sheetName, cell("D", row), item.BatchName)
		f.SetCellValue(sheetName, cell("E", row), item.Progress)
		f.SetCellValue(sheetName, cell("F", row), item.PaymentStatus)
		f.SetCellValue(sheetName, cell("G", row), enrollments[i].CreatedAt.UTC().Format("2006-01-02 15:04"))
	}

	// 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("enrollments_%s.xlsx", s.now().Format("20060102"))
	return buf, filename, nil
}

// colName 0-based 列号转 Excel 列名
func colName(i int) string {
	name, _ := excelize.ColumnNumberToName(i + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
