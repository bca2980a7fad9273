package dto

// ── 用户模块 DTO ──

// UserListRequest 用户列表查询参数
type UserListRequest struct {
	PaginationRequest
}

// BanResponse 封禁状态切换结果
type BanResponse struct {
	ID       string `json:"id"`
	IsBanned bool   `json:"is_banned"`
}
