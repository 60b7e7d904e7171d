package model

import "time"

// VoteReceipt 记录带幂等键的切换结果；同一键重放时返回记录的结果而不是再次翻转
type VoteReceipt struct {
	VoterID   string    `gorm:"primaryKey;type:varchar(64)"`
	RequestID string    `gorm:"primaryKey;type:varchar(128)"`
	WorkID    string    `gorm:"type:varchar(36);not null"`
	IsVoted   bool      `gorm:"not null"`
	CreatedAt time.Time `gorm:"index"`
}

func (VoteReceipt) TableName() string { return "vote_receipts" }
