package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/Nisha0202/lms-backend/internal/model"
	"github.com/Nisha0202/lms-backend/internal/repository"
	pkgerrors "github.com/Nisha0202/lms-backend/pkg/errors"
	"github.com/Nisha0202/lms-backend/pkg/mailer"
	"github.com/Nisha0202/lms-backend/pkg/payment"
)

// testRepos 持有各 mock 仓储，便于测试直接读写内部状态
type testRepos struct {
	user       *mockUserRepo
	course     *mockCourseRepo
	lesson     *mockLessonRepo
	enrollment *mockEnrollmentRepo
	quiz       *mockQuizResultRepo
	assignment *mockAssignmentRepo
	checkout   *mockCheckoutRepo
}

func newTestRepos() (*repository.Repository, *testRepos) {
	r := &testRepos{
		user:       newMockUserRepo(),
		lesson:     newMockLessonRepo(),
		enrollment: newMockEnrollmentRepo(),
		quiz:       newMockQuizResultRepo(),
		assignment: newMockAssignmentRepo(),
		checkout:   newMockCheckoutRepo(),
	}
	r.course = newMockCourseRepo(r.lesson)
	// db 为空，InTx 直接执行回调
	return &repository.Repository{
		User:       r.user,
		Course:     r.course,
		Lesson:     r.lesson,
		Enrollment: r.enrollment,
		QuizResult: r.quiz,
		Assignment: r.assignment,
		Checkout:   r.checkout,
	}, r
}

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User // key: user_id
	seq   int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, user.Email) {
			return gorm.ErrDuplicatedKey
		}
	}
	if user.UserID == "" {
		m.seq++
		user.UserID = fmt.Sprintf("user-%d", m.seq)
	}
	user.CreatedAt = time.Now()
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) SetBanned(_ context.Context, id string, banned bool) error {
	u, ok := m.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.IsBanned = banned
	return nil
}

func (m *mockUserRepo) ListNonAdmin(_ context.Context, offset, limit int) ([]model.User, int64, error) {
	var all []model.User
	for _, u := range m.users {
		if u.Role != model.RoleAdmin {
			all = append(all, *u)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].UserID < all[j].UserID })
	total := int64(len(all))
	return paginate(all, offset, limit), total, nil
}

// ── Mock CourseRepository ──

type mockCourseRepo struct {
	courses map[string]*model.Course
	lessons *mockLessonRepo
	order   map[string][]string // course_id → 有序 lesson_id
	seq     int
	err     error // 非空时所有读操作返回该错误
}

func newMockCourseRepo(lessons *mockLessonRepo) *mockCourseRepo {
	return &mockCourseRepo{
		courses: make(map[string]*model.Course),
		lessons: lessons,
		order:   make(map[string][]string),
	}
}

func (m *mockCourseRepo) Create(_ context.Context, course *model.Course) error {
	m.seq++
	if course.CourseID == "" {
		course.CourseID = fmt.Sprintf("course-%d", m.seq)
	}
	for i := range course.Batches {
		if course.Batches[i].BatchID == "" {
			course.Batches[i].BatchID = fmt.Sprintf("%s-batch-%d", course.CourseID, i+1)
		}
		course.Batches[i].CourseID = course.CourseID
	}
	course.CreatedAt = time.Now()
	stored := *course
	stored.Batches = append([]model.Batch(nil), course.Batches...)
	stored.Lessons = nil
	m.courses[course.CourseID] = &stored
	return nil
}

func (m *mockCourseRepo) GetByID(_ context.Context, id string) (*model.Course, error) {
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.courses[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *c
	out.Batches = append([]model.Batch(nil), c.Batches...)
	out.Lessons = nil
	for _, lid := range m.order[id] {
		if l, ok := m.lessons.lessons[lid]; ok {
			out.Lessons = append(out.Lessons, *l)
		}
	}
	return &out, nil
}

func (m *mockCourseRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.Course, error) {
	return m.GetByID(ctx, id)
}

func (m *mockCourseRepo) List(_ context.Context, filter repository.CourseFilter, offset, limit int) ([]model.Course, int64, error) {
	var all []model.Course
	for _, c := range m.courses {
		if filter.Search != "" && !strings.Contains(strings.ToLower(c.Title), strings.ToLower(filter.Search)) {
			continue
		}
		if filter.Category != "" && c.Category != filter.Category {
			continue
		}
		if len(filter.Tags) > 0 && !anyTag(c.Tags, filter.Tags) {
			continue
		}
		all = append(all, *c)
	}
	switch filter.Sort {
	case "price":
		sort.Slice(all, func(i, j int) bool { return all[i].Price < all[j].Price })
	case "-price":
		sort.Slice(all, func(i, j int) bool { return all[i].Price > all[j].Price })
	default:
		sort.Slice(all, func(i, j int) bool { return all[i].Title < all[j].Title })
	}
	total := int64(len(all))
	return paginate(all, offset, limit), total, nil
}

func anyTag(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}

func (m *mockCourseRepo) Update(_ context.Context, course *model.Course) error {
	c, ok := m.courses[course.CourseID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.Title = course.Title
	c.Thumbnail = course.Thumbnail
	c.Description = course.Description
	c.Price = course.Price
	c.Category = course.Category
	c.Tags = course.Tags
	return nil
}

func (m *mockCourseRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.courses[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.courses, id)
	delete(m.order, id)
	return nil
}

func (m *mockCourseRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.courses)), nil
}

func (m *mockCourseRepo) AddBatch(_ context.Context, batch *model.Batch) error {
	c, ok := m.courses[batch.CourseID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if batch.BatchID == "" {
		batch.BatchID = fmt.Sprintf("%s-batch-%d", batch.CourseID, len(c.Batches)+1)
	}
	c.Batches = append(c.Batches, *batch)
	return nil
}

func (m *mockCourseRepo) AppendLesson(_ context.Context, courseID, lessonID string) error {
	if _, ok := m.courses[courseID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.order[courseID] = append(m.order[courseID], lessonID)
	return nil
}

// removeBatch 模拟管理员在报名后删除批次
func (m *mockCourseRepo) removeBatch(courseID, batchID string) {
	c := m.courses[courseID]
	kept := c.Batches[:0]
	for _, b := range c.Batches {
		if b.BatchID != batchID {
			kept = append(kept, b)
		}
	}
	c.Batches = kept
}

// ── Mock LessonRepository ──

type mockLessonRepo struct {
	lessons map[string]*model.Lesson
	seq     int
}

func newMockLessonRepo() *mockLessonRepo {
	return &mockLessonRepo{lessons: make(map[string]*model.Lesson)}
}

func (m *mockLessonRepo) Create(_ context.Context, lesson *model.Lesson) error {
	if lesson.LessonID == "" {
		m.seq++
		lesson.LessonID = fmt.Sprintf("lesson-%d", m.seq)
	}
	m.lessons[lesson.LessonID] = lesson
	return nil
}

func (m *mockLessonRepo) GetByID(_ context.Context, id string) (*model.Lesson, error) {
	if l, ok := m.lessons[id]; ok {
		return l, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock EnrollmentRepository ──
// 存取均为副本，使乐观锁行为与数据库一致

type mockEnrollmentRepo struct {
	mu          sync.Mutex
	enrollments map[string]*model.Enrollment
	seq         int
	createErr   error
	// beforeCreate 在唯一性检查前执行一次，用于模拟并发写入
	beforeCreate func(m *mockEnrollmentRepo)
	// conflicts 为正时 UpdateProgress 先模拟并发修改并返回版本冲突
	conflicts int
}

func newMockEnrollmentRepo() *mockEnrollmentRepo {
	return &mockEnrollmentRepo{enrollments: make(map[string]*model.Enrollment)}
}

func cloneEnrollment(e *model.Enrollment) *model.Enrollment {
	out := *e
	out.CompletedLessons = append([]string{}, e.CompletedLessons...)
	return &out
}

func (m *mockEnrollmentRepo) Create(_ context.Context, enrollment *model.Enrollment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if hook := m.beforeCreate; hook != nil {
		m.beforeCreate = nil
		hook(m)
	}
	for _, e := range m.enrollments {
		if e.StudentID == enrollment.StudentID && e.CourseID == enrollment.CourseID {
			return gorm.ErrDuplicatedKey
		}
	}
	m.seq++
	enrollment.EnrollmentID = fmt.Sprintf("enr-%d", m.seq)
	enrollment.Version = 1
	enrollment.CreatedAt = time.Now()
	if enrollment.PaymentStatus == "" {
		enrollment.PaymentStatus = model.PaymentPending
	}
	m.enrollments[enrollment.EnrollmentID] = cloneEnrollment(enrollment)
	return nil
}

func (m *mockEnrollmentRepo) GetByID(_ context.Context, id string) (*model.Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.enrollments[id]; ok {
		return cloneEnrollment(e), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEnrollmentRepo) GetByStudentAndCourse(_ context.Context, studentID, courseID string) (*model.Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.enrollments {
		if e.StudentID == studentID && e.CourseID == courseID {
			return cloneEnrollment(e), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEnrollmentRepo) CountByBatch(_ context.Context, courseID, batchID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, e := range m.enrollments {
		if e.CourseID == courseID && e.BatchID == batchID {
			n++
		}
	}
	return n, nil
}

func (m *mockEnrollmentRepo) UpdatePaymentStatus(_ context.Context, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.enrollments[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	e.PaymentStatus = status
	return nil
}

func (m *mockEnrollmentRepo) UpdateProgress(_ context.Context, enrollment *model.Enrollment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.enrollments[enrollment.EnrollmentID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if m.conflicts > 0 {
		m.conflicts--
		stored.Version++
	}
	if stored.Version != enrollment.Version {
		return pkgerrors.ErrOptimisticLock
	}
	enrollment.Version++
	m.enrollments[enrollment.EnrollmentID] = cloneEnrollment(enrollment)
	return nil
}

func (m *mockEnrollmentRepo) ListByStudent(_ context.Context, studentID string) ([]model.Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Enrollment
	for _, e := range m.enrollments {
		if e.StudentID == studentID {
			out = append(out, *cloneEnrollment(e))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EnrollmentID < out[j].EnrollmentID })
	return out, nil
}

func (m *mockEnrollmentRepo) List(ctx context.Context, offset, limit int) ([]model.Enrollment, int64, error) {
	all, _ := m.ListAll(ctx)
	total := int64(len(all))
	return paginate(all, offset, limit), total, nil
}

func (m *mockEnrollmentRepo) ListAll(_ context.Context) ([]model.Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Enrollment
	for _, e := range m.enrollments {
		out = append(out, *cloneEnrollment(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EnrollmentID < out[j].EnrollmentID })
	return out, nil
}

func (m *mockEnrollmentRepo) Count(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.enrollments)), nil
}

func (m *mockEnrollmentRepo) CountDistinctStudents(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[string]bool)
	for _, e := range m.enrollments {
		seen[e.StudentID] = true
	}
	return int64(len(seen)), nil
}

func (m *mockEnrollmentRepo) CountSince(_ context.Context, since time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, e := range m.enrollments {
		if !e.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

// ── Mock QuizResultRepository ──

type mockQuizResultRepo struct {
	results map[string]*model.QuizResult // key: result_id
	upserts int
	seq     int
}

func newMockQuizResultRepo() *mockQuizResultRepo {
	return &mockQuizResultRepo{results: make(map[string]*model.QuizResult)}
}

func (m *mockQuizResultRepo) UpsertPending(_ context.Context, studentID, lessonID string) error {
	m.upserts++
	for _, r := range m.results {
		if r.StudentID == studentID && r.LessonID == lessonID {
			r.UpdatedAt = time.Now()
			return nil
		}
	}
	m.seq++
	id := fmt.Sprintf("quiz-%d", m.seq)
	m.results[id] = &model.QuizResult{ResultID: id, StudentID: studentID, LessonID: lessonID}
	return nil
}

func (m *mockQuizResultRepo) GetByID(_ context.Context, id string) (*model.QuizResult, error) {
	if r, ok := m.results[id]; ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockQuizResultRepo) RecordScore(_ context.Context, id string, score int, feedback *string) error {
	r, ok := m.results[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	r.Score = &score
	r.Feedback = feedback
	return nil
}

func (m *mockQuizResultRepo) ListByStudent(_ context.Context, studentID string) ([]model.QuizResult, error) {
	var out []model.QuizResult
	for _, r := range m.results {
		if r.StudentID == studentID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *mockQuizResultRepo) List(_ context.Context) ([]model.QuizResult, error) {
	var out []model.QuizResult
	for _, r := range m.results {
		out = append(out, *r)
	}
	return out, nil
}

// ── Mock AssignmentRepository ──

type mockAssignmentRepo struct {
	submissions map[string]*model.AssignmentSubmission
	seq         int
}

func newMockAssignmentRepo() *mockAssignmentRepo {
	return &mockAssignmentRepo{submissions: make(map[string]*model.AssignmentSubmission)}
}

func (m *mockAssignmentRepo) Create(_ context.Context, submission *model.AssignmentSubmission) error {
	for _, s := range m.submissions {
		if s.StudentID == submission.StudentID && s.LessonID == submission.LessonID {
			return gorm.ErrDuplicatedKey
		}
	}
	m.seq++
	submission.SubmissionID = fmt.Sprintf("sub-%d", m.seq)
	stored := *submission
	m.submissions[submission.SubmissionID] = &stored
	return nil
}

func (m *mockAssignmentRepo) GetByID(_ context.Context, id string) (*model.AssignmentSubmission, error) {
	if s, ok := m.submissions[id]; ok {
		out := *s
		return &out, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAssignmentRepo) Grade(_ context.Context, id string, grade int, feedback *string) error {
	s, ok := m.submissions[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.Grade = &grade
	s.Feedback = feedback
	return nil
}

func (m *mockAssignmentRepo) ListByStudent(_ context.Context, studentID string) ([]model.AssignmentSubmission, error) {
	var out []model.AssignmentSubmission
	for _, s := range m.submissions {
		if s.StudentID == studentID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *mockAssignmentRepo) List(_ context.Context, pendingOnly bool) ([]model.AssignmentSubmission, error) {
	var out []model.AssignmentSubmission
	for _, s := range m.submissions {
		if pendingOnly && s.Grade != nil {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

// ── Mock CheckoutRepository ──

type mockCheckoutRepo struct {
	sessions map[string]*model.CheckoutSession
}

func newMockCheckoutRepo() *mockCheckoutRepo {
	return &mockCheckoutRepo{sessions: make(map[string]*model.CheckoutSession)}
}

func (m *mockCheckoutRepo) Create(_ context.Context, session *model.CheckoutSession) error {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	stored := *session
	m.sessions[session.SessionID] = &stored
	return nil
}

func (m *mockCheckoutRepo) GetByID(_ context.Context, id string) (*model.CheckoutSession, error) {
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCheckoutRepo) MarkCompleted(_ context.Context, id string, at time.Time) error {
	if s, ok := m.sessions[id]; ok && s.Status != model.CheckoutCompleted {
		s.Status = model.CheckoutCompleted
		s.CompletedAt = &at
	}
	return nil
}

func (m *mockCheckoutRepo) ExpireBefore(_ context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for _, s := range m.sessions {
		if s.Status == model.CheckoutPending && s.CreatedAt.Before(cutoff) {
			s.Status = model.CheckoutExpired
			n++
		}
	}
	return n, nil
}

// ── 外部依赖 fake ──

// fakeGateway 可控制支付状态与元数据的支付网关
type fakeGateway struct {
	checkouts map[string]*payment.Checkout
	requests  []*payment.CheckoutRequest
	err       error
	seq       int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{checkouts: make(map[string]*payment.Checkout)}
}

func (g *fakeGateway) CreateCheckout(_ context.Context, req *payment.CheckoutRequest) (*payment.Checkout, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.requests = append(g.requests, req)
	g.seq++
	id := fmt.Sprintf("cs_test_%d", g.seq)
	c := &payment.Checkout{
		ID:       id,
		URL:      "https://checkout.example.com/" + id,
		Metadata: req.Metadata,
	}
	g.checkouts[id] = c
	return c, nil
}

func (g *fakeGateway) GetCheckout(_ context.Context, id string) (*payment.Checkout, error) {
	if g.err != nil {
		return nil, g.err
	}
	c, ok := g.checkouts[id]
	if !ok {
		return nil, payment.ErrCheckoutNotFound
	}
	return c, nil
}

// put 直接登记一个网关会话
func (g *fakeGateway) put(id string, paid bool, meta map[string]string) {
	g.checkouts[id] = &payment.Checkout{ID: id, Paid: paid, Metadata: meta}
}

type fakeLocker struct {
	held     map[string]bool
	acquired int
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: make(map[string]bool)}
}

func (l *fakeLocker) AcquireLock(_ context.Context, name string, _ time.Duration) (func(), error) {
	if l.held[name] {
		return nil, pkgerrors.ErrLockNotAcquired
	}
	l.held[name] = true
	l.acquired++
	return func() { delete(l.held, name) }, nil
}

type fakeBlacklist struct {
	tokens map[string]time.Duration
}

func (b *fakeBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	if b.tokens == nil {
		b.tokens = make(map[string]time.Duration)
	}
	b.tokens[jti] = ttl
	return nil
}

type recordingMailer struct {
	sent []mailer.EnrollmentMail
	err  error
}

func (m *recordingMailer) SendEnrollmentConfirmation(_ context.Context, mail *mailer.EnrollmentMail) error {
	m.sent = append(m.sent, *mail)
	return m.err
}

// ── 测试数据 ──

var (
	testStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	testEnd   = time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
)

func createTestStudent(r *testRepos, name string) *model.User {
	u := &model.User{Name: name, Email: strings.ToLower(name) + "@example.com", Role: model.RoleStudent}
	_ = r.user.Create(context.Background(), u)
	return u
}

// createTestCourse 创建带单个批次的课程，lessons 为课时数
func createTestCourse(r *testRepos, seatLimit, lessons int) (*model.Course, *model.Batch) {
	ctx := context.Background()
	c := &model.Course{
		Title:    "Go 入门",
		Price:    49.99,
		Category: "programming",
		Batches: []model.Batch{{
			Name:      "Batch 1",
			StartDate: testStart,
			EndDate:   testEnd,
			SeatLimit: seatLimit,
		}},
	}
	_ = r.course.Create(ctx, c)
	for i := 0; i < lessons; i++ {
		l := &model.Lesson{Title: fmt.Sprintf("第 %d 课", i+1), VideoURL: "https://video.example.com/v"}
		_ = r.lesson.Create(ctx, l)
		_ = r.course.AppendLesson(ctx, c.CourseID, l.LessonID)
	}
	stored, _ := r.course.GetByID(ctx, c.CourseID)
	return stored, &stored.Batches[0]
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// ── 辅助 ──

func paginate[T any](all []T, offset, limit int) []T {
	if offset >= len(all) {
		return []T{}
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end]
}
