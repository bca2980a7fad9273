package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Nisha0202/lms-backend/internal/dto"
	"github.com/Nisha0202/lms-backend/internal/model"
	"github.com/Nisha0202/lms-backend/internal/repository"
)

// ── 测评模块业务错误 ──

var (
	ErrAlreadySubmitted   = errors.New("该课时作业已提交")
	ErrSubmissionNotFound = errors.New("作业提交不存在")
	ErrQuizResultNotFound = errors.New("测验记录不存在")
	ErrLessonNoAssignment = errors.New("该课时没有作业")
)

// AssessmentService 作业与测验业务接口
type AssessmentService interface {
	// SubmitAssignment 同一课时只允许提交一次
	SubmitAssignment(ctx context.Context, studentID string, req *dto.SubmitAssignmentRequest) (*dto.SubmissionResponse, error)
	MyGrades(ctx context.Context, studentID string) (*dto.MyGradesResponse, error)
	GradeAssignment(ctx context.Context, submissionID string, req *dto.GradeRequest) (*dto.SubmissionResponse, error)
	RecordQuizScore(ctx context.Context, resultID string, req *dto.GradeRequest) (*dto.QuizResultResponse, error)
	ListSubmissions(ctx context.Context, req *dto.SubmissionListRequest) ([]dto.SubmissionResponse, error)
	ListQuizResults(ctx context.Context) ([]dto.QuizResultResponse, error)
}

type assessmentService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewAssessmentService 创建 AssessmentService 实例
func NewAssessmentService(repo *repository.Repository, logger *zap.Logger) AssessmentService {
	return &assessmentService{repo: repo, logger: logger}
}

func (s *assessmentService) SubmitAssignment(ctx context.Context, studentID string, req *dto.SubmitAssignmentRequest) (*dto.SubmissionResponse, error) {
	lesson, err := s.repo.Lesson.GetByID(ctx, req.LessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLessonNotFound
		}
		s.logger.Error("查询课时失败", zap.String("lesson_id", req.LessonID), zap.Error(err))
		return nil, err
	}
	if strings.TrimSpace(lesson.AssignmentText) == "" {
		return nil, ErrLessonNoAssignment
	}

	submission := &model.AssignmentSubmission{
		StudentID: studentID,
		LessonID:  req.LessonID,
		DriveLink: req.DriveLink,
	}
	if err := s.repo.Assignment.Create(ctx, submission); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadySubmitted
		}
		s.logger.Error("提交作业失败", zap.String("lesson_id", req.LessonID), zap.Error(err))
		return nil, err
	}
	submission.Lesson = lesson

	resp := toSubmissionResponse(submission)
	return &resp, nil
}

func (s *assessmentService) MyGrades(ctx context.Context, studentID string) (*dto.MyGradesResponse, error) {
	submissions, err := s.repo.Assignment.ListByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("查询作业成绩失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}
	quizzes, err := s.repo.QuizResult.ListByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("查询测验成绩失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	resp := &dto.MyGradesResponse{
		Assignments: make([]dto.SubmissionResponse, 0, len(submissions)),
		Quizzes:     make([]dto.QuizResultResponse, 0, len(quizzes)),
	}
	for i := range submissions {
		resp.Assignments = append(resp.Assignments, toSubmissionResponse(&submissions[i]))
	}
	for i := range quizzes {
		resp.Quizzes = append(resp.Quizzes, toQuizResultResponse(&quizzes[i]))
	}
	return resp, nil
}

func (s *assessmentService) GradeAssignment(ctx context.Context, submissionID string, req *dto.GradeRequest) (*dto.SubmissionResponse, error) {
	feedback := optionalText(req.Feedback)
	if err := s.repo.Assignment.Grade(ctx, submissionID, *req.Score, feedback); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubmissionNotFound
		}
		s.logger.Error("作业评分失败", zap.String("submission_id", submissionID), zap.Error(err))
		return nil, err
	}

	submission, err := s.repo.Assignment.GetByID(ctx, submissionID)
	if err != nil {
		s.logger.Error("查询作业提交失败", zap.String("submission_id", submissionID), zap.Error(err))
		return nil, err
	}
	resp := toSubmissionResponse(submission)
	return &resp, nil
}

func (s *assessmentService) RecordQuizScore(ctx context.Context, resultID string, req *dto.GradeRequest) (*dto.QuizResultResponse, error) {
	feedback := optionalText(req.Feedback)
	if err := s.repo.QuizResult.RecordScore(ctx, resultID, *req.Score, feedback); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuizResultNotFound
		}
		s.logger.Error("测验记分失败", zap.String("result_id", resultID), zap.Error(err))
		return nil, err
	}

	result, err := s.repo.QuizResult.GetByID(ctx, resultID)
	if err != nil {
		s.logger.Error("查询测验记录失败", zap.String("result_id", resultID), zap.Error(err))
		return nil, err
	}
	resp := toQuizResultResponse(result)
	return &resp, nil
}

// ListSubmissions status=pending 时仅返回未评分的提交
func (s *assessmentService) ListSubmissions(ctx context.Context, req *dto.SubmissionListRequest) ([]dto.SubmissionResponse, error) {
	submissions, err := s.repo.Assignment.List(ctx, req.Status == "pending")
	if err != nil {
		s.logger.Error("查询作业列表失败", zap.Error(err))
		return nil, err
	}
	list := make([]dto.SubmissionResponse, 0, len(submissions))
	for i := range submissions {
		list = append(list, toSubmissionResponse(&submissions[i]))
	}
	return list, nil
}

func (s *assessmentService) ListQuizResults(ctx context.Context) ([]dto.QuizResultResponse, error) {
	results, err := s.repo.QuizResult.List(ctx)
	if err != nil {
		s.logger.Error("查询测验列表失败", zap.Error(err))
		return nil, err
	}
	list := make([]dto.QuizResultResponse, 0, len(results))
	for i := range results {
		list = append(list, toQuizResultResponse(&results[i]))
	}
	return list, nil
}

func optionalText(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func toSubmissionResponse(sub *model.AssignmentSubmission) dto.SubmissionResponse {
	resp := dto.SubmissionResponse{
		ID:          sub.SubmissionID,
		StudentID:   sub.StudentID,
		LessonID:    sub.LessonID,
		DriveLink:   sub.DriveLink,
		Grade:       sub.Grade,
		Feedback:    sub.Feedback,
		SubmittedAt: sub.CreatedAt.Format(time.RFC3339),
	}
	if sub.Student != nil {
		resp.StudentName = sub.Student.Name
		resp.StudentEmail = sub.Student.Email
	}
	if sub.Lesson != nil {
		resp.LessonTitle = sub.Lesson.Title
	}
	return resp
}

func toQuizResultResponse(r *model.QuizResult) dto.QuizResultResponse {
	resp := dto.QuizResultResponse{
		ID:        r.ResultID,
		StudentID: r.StudentID,
		LessonID:  r.LessonID,
		Score:     r.Score,
		Feedback:  r.Feedback,
		UpdatedAt: r.UpdatedAt.Format(time.RFC3339),
	}
	if r.Student != nil {
		resp.StudentName = r.Student.Name
		resp.StudentEmail = r.Student.Email
	}
	if r.Lesson != nil {
		resp.LessonTitle = r.Lesson.Title
	}
	return resp
}
