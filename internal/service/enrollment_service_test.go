package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Nisha0202/lms-backend/internal/dto"
	"github.com/Nisha0202/lms-backend/internal/model"
)

func setupTestEnrollmentService() (EnrollmentService, *testRepos, *recordingMailer) {
	repo, r := newTestRepos()
	m := &recordingMailer{}
	svc := NewEnrollmentService(repo, m, "http://localhost:3000", zap.NewNop())
	return svc, r, m
}

// ════════════════════════════════════════════
// Enroll
// ════════════════════════════════════════════

func TestEnroll_Success(t *testing.T) {
	svc, r, m := setupTestEnrollmentService()
	student := createTestStudent(r, "alice")
	course, batch := createTestCourse(r, 2, 3)

	resp, err := svc.Enroll(context.Background(), student.UserID, &dto.EnrollRequest{
		CourseID: course.CourseID,
		BatchID:  batch.BatchID,
	})
	if err != nil {
		t.Fatalf("期望成功，实际错误: %v", err)
	}
	if resp.PaymentStatus != model.PaymentCompleted {
		t.Errorf("期望 payment_status=completed，实际 %s", resp.PaymentStatus)
	}
	if resp.Progress != 0 || len(resp.CompletedLessons) != 0 {
		t.Errorf("新报名进度应为 0 且无完成课时，实际 %d / %v", resp.Progress, resp.CompletedLessons)
	}

	stored, _ := r.enrollment.GetByStudentAndCourse(context.Background(), student.UserID, course.CourseID)
	if stored == nil || stored.PaymentStatus != model.PaymentCompleted {
		t.Error("存储中的报名记录应为已支付")
	}
	if len(m.sent) != 1 || m.sent[0].ToAddress != student.Email || m.sent[0].BatchName != "Batch 1" {
		t.Errorf("期望发送 1 封确认邮件，实际 %+v", m.sent)
	}
}

func TestEnroll_AlreadyEnrolled(t *testing.T) {
	svc, r, _ := setupTestEnrollmentService()
	student := createTestStudent(r, "alice")
	course, batch := createTestCourse(r, 5, 0)
	req := &dto.EnrollRequest{CourseID: course.CourseID, BatchID: batch.BatchID}

	if _, err := svc.Enroll(context.Background(), student.UserID, req); err != nil {
		t.Fatalf("首次报名失败: %v", err)
	}
	_, err := svc.Enroll(context.Background(), student.UserID, req)
	if !errors.Is(err, ErrAlreadyEnrolled) {
		t.Errorf("期望 ErrAlreadyEnrolled，实际 %v", err)
	}
	if n, _ := r.enrollment.Count(context.Background()); n != 1 {
		t.Errorf("期望仅 1 条报名记录，实际 %d", n)
	}
}

func TestEnroll_DuplicateKeyMapsToAlreadyEnrolled(t *testing.T) {
	svc, r, _ := setupTestEnrollmentService()
	student := createTestStudent(r, "alice")
	course, batch := createTestCourse(r, 5, 0)

	// 并发写入由唯一约束兜底
	r.enrollment.createErr = gorm.ErrDuplicatedKey
	_, err := svc.Enroll(context.Background(), student.UserID, &dto.EnrollRequest{
		CourseID: course.CourseID,
		BatchID:  batch.BatchID,
	})
	if !errors.Is(err, ErrAlreadyEnrolled) {
		t.Errorf("期望 ErrAlreadyEnrolled，实际 %v", err)
	}
}

func TestEnroll_SeatLimit(t *testing.T) {
	svc, r, _ := setupTestEnrollmentService()
	const seats = 3
	course, batch := createTestCourse(r, seats, 0)

	for i := 0; i < seats; i++ {
		s := createTestStudent(r, "student"+string(rune('a'+i)))
		if _, err := svc.Enroll(context.Background(), s.UserID, &dto.EnrollRequest{CourseID: course.CourseID, BatchID: batch.BatchID}); err != nil {
			t.Fatalf("第 %d 个报名应成功，实际 %v", i+1, err)
		}
	}

	late := createTestStudent(r, "late")
	_, err := svc.Enroll(context.Background(), late.UserID, &dto.EnrollRequest{CourseID: course.CourseID, BatchID: batch.BatchID})
	if !errors.Is(err, ErrBatchFull) {
		t.Errorf("期望 ErrBatchFull，实际 %v", err)
	}
	if n, _ := r.enrollment.CountByBatch(context.Background(), course.CourseID, batch.BatchID); n != seats {
		t.Errorf("批次报名数应为 %d，实际 %d", seats, n)
	}
}

func TestEnroll_NotFound(t *testing.T) {
	svc, r, _ := setupTestEnrollmentService()
	student := createTestStudent(r, "alice")
	course, _ := createTestCourse(r, 5, 0)

	tests := []struct {
		name string
		req  *dto.EnrollRequest
		want error
	}{
		{"课程不存在", &dto.EnrollRequest{CourseID: "missing", BatchID: "b"}, ErrCourseNotFound},
		{"批次不存在", &dto.EnrollRequest{CourseID: course.CourseID, BatchID: "missing"}, ErrBatchNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Enroll(context.Background(), student.UserID, tt.req)
			if !errors.Is(err, tt.want) {
				t.Errorf("期望 %v，实际 %v", tt.want, err)
			}
		})
	}
	if n, _ := r.enrollment.Count(context.Background()); n != 0 {
		t.Errorf("失败的报名不应留下记录，实际 %d 条", n)
	}
}

func TestEnroll_MailFailureDoesNotFail(t *testing.T) {
	svc, r, m := setupTestEnrollmentService()
	m.err = errors.New("smtp down")
	student := createTestStudent(r, "alice")
	course, batch := createTestCourse(r, 5, 0)

	if _, err := svc.Enroll(context.Background(), student.UserID, &dto.EnrollRequest{CourseID: course.CourseID, BatchID: batch.BatchID}); err != nil {
		t.Errorf("邮件失败不应影响报名，实际 %v", err)
	}
}

// 单座批次：A 报名成功，B 报名失败；A 在窗口内可访问，过期后不可访问
func TestEnroll_SingleSeatScenario(t *testing.T) {
	repo, r := newTestRepos()
	enrollSvc := NewEnrollmentService(repo, nil, "", zap.NewNop())
	learnSvc := NewLearningService(repo, zap.NewNop()).(*learningService)

	a := createTestStudent(r, "a")
	b := createTestStudent(r, "b")
	course, batch := createTestCourse(r, 1, 1)
	req := &dto.EnrollRequest{CourseID: course.CourseID, BatchID: batch.BatchID}

	resp, err := enrollSvc.Enroll(context.Background(), a.UserID, req)
	if err != nil || resp.PaymentStatus != model.PaymentCompleted {
		t.Fatalf("A 报名应成功且已支付，实际 %v / %+v", err, resp)
	}
	if _, err := enrollSvc.Enroll(context.Background(), b.UserID, req); !errors.Is(err, ErrBatchFull) {
		t.Errorf("B 期望 ErrBatchFull，实际 %v", err)
	}

	learnSvc.now = fixedClock(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	if _, err := learnSvc.GetCourseContent(context.Background(), a.UserID, course.CourseID); err != nil {
		t.Errorf("窗口内访问应成功，实际 %v", err)
	}

	learnSvc.now = fixedClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	if _, err := learnSvc.GetCourseContent(context.Background(), a.UserID, course.CourseID); !errors.Is(err, ErrAccessExpired) {
		t.Errorf("期望 ErrAccessExpired，实际 %v", err)
	}
}

// ════════════════════════════════════════════
// MyCourses / AdminList / Stats
// ════════════════════════════════════════════

func TestMyCourses_UnknownBatch(t *testing.T) {
	svc, r, _ := setupTestEnrollmentService()
	student := createTestStudent(r, "alice")
	course, batch := createTestCourse(r, 5, 0)
	if _, err := svc.Enroll(context.Background(), student.UserID, &dto.EnrollRequest{CourseID: course.CourseID, BatchID: batch.BatchID}); err != nil {
		t.Fatalf("报名失败: %v", err)
	}

	// mock 的 ListByStudent 不预加载课程，手动补齐
	withCourse := func() {
		c, _ := r.course.GetByID(context.Background(), course.CourseID)
		for _, e := range r.enrollment.enrollments {
			e.Course = c
		}
	}

	withCourse()
	items, err := svc.MyCourses(context.Background(), student.UserID)
	if err != nil || len(items) != 1 {
		t.Fatalf("期望 1 条记录，实际 %d / %v", len(items), err)
	}
	if items[0].BatchName != "Batch 1" || items[0].BatchStartDate == nil {
		t.Errorf("期望批次名 Batch 1 且带开始时间，实际 %+v", items[0])
	}

	r.course.removeBatch(course.CourseID, batch.BatchID)
	withCourse()
	items, _ = svc.MyCourses(context.Background(), student.UserID)
	if items[0].BatchName != UnknownBatchName {
		t.Errorf("批次删除后期望 %q，实际 %q", UnknownBatchName, items[0].BatchName)
	}
	if items[0].BatchStartDate != nil {
		t.Error("批次删除后不应返回开始时间")
	}
}

func TestAdminList_Pagination(t *testing.T) {
	svc, r, _ := setupTestEnrollmentService()
	course, batch := createTestCourse(r, 10, 0)
	for _, name := range []string{"a", "b", "c"} {
		s := createTestStudent(r, name)
		_, _ = svc.Enroll(context.Background(), s.UserID, &dto.EnrollRequest{CourseID: course.CourseID, BatchID: batch.BatchID})
	}

	req := &dto.AdminEnrollmentListRequest{}
	req.Page, req.Limit = 1, 2
	items, total, err := svc.AdminList(context.Background(), req)
	if err != nil {
		t.Fatalf("期望成功，实际 %v", err)
	}
	if total != 3 || len(items) != 2 {
		t.Errorf("期望 total=3 本页 2 条，实际 total=%d len=%d", total, len(items))
	}
	// 未预加载课程时批次名回退为 Unknown Batch
	if items[0].BatchName != UnknownBatchName {
		t.Errorf("期望 %q，实际 %q", UnknownBatchName, items[0].BatchName)
	}
}

func TestStats(t *testing.T) {
	repo, r := newTestRepos()
	svc := NewEnrollmentService(repo, nil, "", zap.NewNop()).(*enrollmentService)
	course, batch := createTestCourse(r, 10, 0)
	_, _ = createTestCourse(r, 10, 0)

	for _, name := range []string{"a", "b"} {
		s := createTestStudent(r, name)
		_, _ = svc.Enroll(context.Background(), s.UserID, &dto.EnrollRequest{CourseID: course.CourseID, BatchID: batch.BatchID})
	}
	// 一条上月的报名
	for _, e := range r.enrollment.enrollments {
		e.CreatedAt = time.Now().AddDate(0, -2, 0)
		break
	}

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("期望成功，实际 %v", err)
	}
	if stats.TotalCourses != 2 || stats.TotalStudents != 2 || stats.TotalEnrollments != 2 {
		t.Errorf("统计不符: %+v", stats)
	}
	if stats.EnrollmentsThisMonth != 1 {
		t.Errorf("期望本月报名 1，实际 %d", stats.EnrollmentsThisMonth)
	}
}

// ════════════════════════════════════════════
// Calendar
// ════════════════════════════════════════════

func TestCalendar(t *testing.T) {
	svc, r, _ := setupTestEnrollmentService()
	student := createTestStudent(r, "alice")
	course, batch := createTestCourse(r, 5, 0)
	resp, _ := svc.Enroll(context.Background(), student.UserID, &dto.EnrollRequest{CourseID: course.CourseID, BatchID: batch.BatchID})

	c, _ := r.course.GetByID(context.Background(), course.CourseID)
	r.enrollment.enrollments[resp.ID].Course = c

	data, filename, err := svc.Calendar(context.Background(), student.UserID, resp.ID)
	if err != nil {
		t.Fatalf("期望成功，实际 %v", err)
	}
	if filename != "course-"+course.CourseID+".ics" {
		t.Errorf("文件名不符: %s", filename)
	}

	cal, err := ics.ParseCalendar(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("解析 iCalendar 失败: %v", err)
	}
	events := cal.Events()
	if len(events) != 1 {
		t.Fatalf("期望 1 个事件，实际 %d", len(events))
	}
	start, err := events[0].GetStartAt()
	if err != nil || !start.Equal(testStart) {
		t.Errorf("期望开始时间 %v，实际 %v (%v)", testStart, start, err)
	}
	end, err := events[0].GetEndAt()
	if err != nil || !end.Equal(testEnd) {
		t.Errorf("期望结束时间 %v，实际 %v (%v)", testEnd, end, err)
	}
}

func TestCalendar_OtherStudent(t *testing.T) {
	svc, r, _ := setupTestEnrollmentService()
	student := createTestStudent(r, "alice")
	other := createTestStudent(r, "bob")
	course, batch := createTestCourse(r, 5, 0)
	resp, _ := svc.Enroll(context.Background(), student.UserID, &dto.EnrollRequest{CourseID: course.CourseID, BatchID: batch.BatchID})

	if _, _, err := svc.Calendar(context.Background(), other.UserID, resp.ID); !errors.Is(err, ErrEnrollmentNotFound) {
		t.Errorf("期望 ErrEnrollmentNotFound，实际 %v", err)
	}
	if _, _, err := svc.Calendar(context.Background(), student.UserID, "missing"); !errors.Is(err, ErrEnrollmentNotFound) {
		t.Errorf("期望 ErrEnrollmentNotFound，实际 %v", err)
	}
}
