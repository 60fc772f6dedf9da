package models

import (
	"time"

	"gorm.io/gorm"
)

// User 表示系統中的用戶，可能是食物提供者或慈善機構
type User struct {
	gorm.Model           // 內嵌 gorm.Model，提供 ID、CreatedAt、UpdatedAt 和 DeletedAt 字段
	Username   string    `gorm:"uniqueIndex;not null" json:"username"` // 用戶名，必須唯一
	Password   string    `gorm:"not null" json:"-"`                    // 密碼，json 序列化時會被忽略
	Email      string    `json:"email"`                                // 通知信箱
	Role       UserRole  `gorm:"not null" json:"role"`                 // 用戶角色
	IsOnline   bool      `gorm:"default:false" json:"is_online"`       // 在線狀態，由 PresenceTracker 定期回寫
	LastSeen   time.Time `json:"last_seen"`                            // 最後上線時間
}

// UserRole 定義用戶角色的類型
type UserRole string

const (
	RoleProvider UserRole = "provider" // 食物提供者角色
	RoleCharity  UserRole = "charity"  // 慈善機構角色
)
