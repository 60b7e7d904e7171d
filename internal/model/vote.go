package model

import "time"

// Vote 选票：行存在即代表已投，只有创建与删除，没有更新
type Vote struct {
	ID      string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	VoterID string `json:"voter_id" gorm:"type:varchar(64);not null;uniqueIndex:ux_vote_pair"`
	WorkID  string `json:"work_id" gorm:"type:varchar(36);not null;uniqueIndex:ux_vote_pair;index:idx_vote_work"`
	// 复合唯一键，同一投票人对同一作品至多一行
	// ux_vote_pair = (voter_id, work_id)
	CreatedAt time.Time `json:"created_at"`
}

func (Vote) TableName() string { return "votes" }
