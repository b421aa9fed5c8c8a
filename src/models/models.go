package models

import (
	"time"

	"gorm.io/datatypes"
)

// User 注册用户
type User struct {
	ID           uint   `gorm:"primaryKey"`
	FullName     string `gorm:"not null"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"` // bcrypt哈希，绝不保存明文
	Phone        string // 可选
	Gender       string
	CreatedAt    time.Time
}

// DetectionRecord 检测历史记录，每次调用检测脚本保存一条
type DetectionRecord struct {
	ID            uint   `gorm:"primaryKey"`
	TraceID       string `gorm:"index"`
	MediaPath     string
	ZonesPath     string
	AnnotatedPath string
	Success       bool
	Message       string
	Meta          datatypes.JSON // 检测脚本输出的原始meta
	CreatedAt     time.Time
}
