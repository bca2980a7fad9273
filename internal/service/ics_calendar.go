package service

import (
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/Nisha0202/lms-backend/internal/model"
)

const icsProductID = "-//Course Hub//LMS Backend//EN"

// buildBatchCalendar 生成包含批次学习窗口的 iCalendar 文件
// 事件 UID 由报名记录 ID 派生，重复下载导入日历时会覆盖而不是重复
func buildBatchCalendar(e *model.Enrollment, course *model.Course, batch *model.Batch, clientURL string, stamp time.Time) []byte {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(icsProductID)
	cal.SetXWRCalName(course.Title)

	event := cal.AddEvent(fmt.Sprintf("enrollment-%s@lms-backend", e.EnrollmentID))
	event.SetDtStampTime(stamp.UTC())
	event.SetStartAt(batch.StartDate.UTC())
	event.SetEndAt(batch.EndDate.UTC())
	event.SetSummary(fmt.Sprintf("%s（%s）", course.Title, batch.Name))
	event.SetDescription(fmt.Sprintf("课程访问窗口：%s 至 %s",
		batch.StartDate.UTC().Format("2006-01-02"), batch.EndDate.UTC().Format("2006-01-02")))
	if clientURL != "" {
		event.SetURL(strings.TrimRight(clientURL, "/") + "/learn/" + course.CourseID)
	}

	return []byte(cal.Serialize())
}
