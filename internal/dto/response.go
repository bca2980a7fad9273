package dto

import (
	"time"

	"github.com/Nisha0202/lms-backend/internal/model"
)

// ── 用户模块响应 ──

// UserResponse 用户信息响应（脱敏）
type UserResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	IsBanned  bool   `json:"is_banned"`
	CreatedAt string `json:"created_at"`
}

// NewUserResponse 从模型构造响应
func NewUserResponse(u *model.User) UserResponse {
	return UserResponse{
		ID:        u.UserID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
		IsBanned:  u.IsBanned,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
}

// ── 分页请求 ──

// PaginationRequest 通用分页参数
type PaginationRequest struct {
	Page  int `form:"page"  binding:"omitempty,min=1"`
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// GetPage 获取页码（含默认值）
func (p *PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetLimit 获取每页数量（含默认值）
func (p *PaginationRequest) GetLimit() int {
	if p.Limit <= 0 {
		return 10
	}
	return p.Limit
}

// GetOffset 计算偏移量
func (p *PaginationRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetLimit()
}
