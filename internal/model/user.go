package model

// User 用户表，对应 users
type User struct {
	UserID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Name         string `gorm:"type:varchar(100);not null"                     json:"name"`
	Email        string `gorm:"type:varchar(255);not null"                     json:"email"`
	PasswordHash string `gorm:"type:varchar(255);not null"                     json:"-"`
	Role         Role   `gorm:"type:varchar(20);not null;default:'student'"    json:"role"`
	IsBanned     bool   `gorm:"not null;default:false"                         json:"is_banned"`
	BaseModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }
