package model

import "time"

// Notification 站内通知，仅为生命周期变化的附带效果
type Notification struct {
	ID        string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string     `json:"-" gorm:"type:varchar(64);not null;index:idx_notification_user"`
	Title     string     `json:"title" gorm:"type:varchar(200);not null"`
	Body      string     `json:"body" gorm:"type:text;not null"`
	CreatedAt time.Time  `json:"created_at" gorm:"index"`
	ReadAt    *time.Time `json:"read_at"`
}

func (Notification) TableName() string { return "notifications" }
