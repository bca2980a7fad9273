package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Nisha0202/lms-backend/internal/dto"
	"github.com/Nisha0202/lms-backend/internal/repository"
)

// ── 用户模块业务错误 ──

var ErrCannotBanAdmin = errors.New("不能封禁管理员")

// UserService 用户管理业务接口
type UserService interface {
	List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserResponse, int64, error)
	ToggleBan(ctx context.Context, id string) (*dto.BanResponse, error)
}

type userService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger}
}

// List 非管理员用户，按注册时间倒序
func (s *userService) List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserResponse, int64, error) {
	users, total, err := s.repo.User.ListNonAdmin(ctx, req.GetOffset(), req.GetLimit())
	if err != nil {
		s.logger.Error("查询用户列表失败", zap.Error(err))
		return nil, 0, err
	}

	list := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		list = append(list, dto.NewUserResponse(&users[i]))
	}
	return list, total, nil
}

func (s *userService) ToggleBan(ctx context.Context, id string) (*dto.BanResponse, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if user.Role.IsAdmin() {
		return nil, ErrCannotBanAdmin
	}

	banned := !user.IsBanned
	if err := s.repo.User.SetBanned(ctx, id, banned); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("更新封禁状态失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("用户封禁状态已更新", zap.String("id", id), zap.Bool("is_banned", banned))
	return &dto.BanResponse{ID: id, IsBanned: banned}, nil
}
