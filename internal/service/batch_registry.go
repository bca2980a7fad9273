package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/Nisha0202/lms-backend/internal/model"
)

// UnknownBatchName 批次已被删除时展示的名称
const UnknownBatchName = "Unknown Batch"

// ── 访问窗口错误 ──

var (
	ErrNotStartedYet = errors.New("课程尚未开始")
	ErrAccessExpired = errors.New("课程访问已过期")
)

// AccessWindowError 访问时间窗口校验失败，携带用于展示的边界时间
type AccessWindowError struct {
	Err      error // ErrNotStartedYet | ErrAccessExpired
	Boundary time.Time
}

func (e *AccessWindowError) Error() string {
	return fmt.Sprintf("%s（%s）", e.Err.Error(), e.Boundary.Format("2006-01-02"))
}

func (e *AccessWindowError) Unwrap() error { return e.Err }

// BatchRegistry 课程批次的只读视图
type BatchRegistry struct {
	batches []model.Batch
}

// NewBatchRegistry 从已加载的课程构造批次视图，course 为空时视为没有任何批次
func NewBatchRegistry(course *model.Course) *BatchRegistry {
	if course == nil {
		return &BatchRegistry{}
	}
	return &BatchRegistry{batches: course.Batches}
}

// Find 按 ID 查找批次
func (r *BatchRegistry) Find(batchID string) (*model.Batch, bool) {
	for i := range r.batches {
		if r.batches[i].BatchID == batchID {
			return &r.batches[i], true
		}
	}
	return nil, false
}

// Name 批次名称，找不到时返回 UnknownBatchName
func (r *BatchRegistry) Name(batchID string) string {
	if b, ok := r.Find(batchID); ok {
		return b.Name
	}
	return UnknownBatchName
}

// SeatsLeft 剩余座位数，不小于 0
func SeatsLeft(batch *model.Batch, used int64) int64 {
	left := int64(batch.SeatLimit) - used
	if left < 0 {
		return 0
	}
	return left
}

// CheckWindow 校验 now 是否位于 [StartDate, EndDate] 闭区间内
func CheckWindow(batch *model.Batch, now time.Time) error {
	if now.Before(batch.StartDate) {
		return &AccessWindowError{Err: ErrNotStartedYet, Boundary: batch.StartDate}
	}
	if now.After(batch.EndDate) {
		return &AccessWindowError{Err: ErrAccessExpired, Boundary: batch.EndDate}
	}
	return nil
}
