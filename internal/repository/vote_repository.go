package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/gin-contest/internal/model"
)

// 并发插入抢先时重新尝试的上限
const maxFlipAttempts = 4

type VoteRepository interface {
	// Toggle 翻转 (voter, work) 的投票状态，返回翻转后是否已投
	Toggle(ctx context.Context, voterID, workID string) (bool, error)
	// ToggleOnce 带幂等键的翻转；replayed 表示返回的是此前记录的结果
	ToggleOnce(ctx context.Context, voterID, workID, requestID string) (isVoted, replayed bool, err error)
	Exists(ctx context.Context, voterID, workID string) (bool, error)
	CountByWork(ctx context.Context, workID string) (int64, error)
	CountByWorks(ctx context.Context, workIDs []string) (map[string]int64, error)
	VotedWorks(ctx context.Context, voterID string, workIDs []string) (map[string]bool, error)
}

type voteRepository struct {
	db *gorm.DB
}

func NewVoteRepository(db *gorm.DB) VoteRepository { return &voteRepository{db: db} }

// flip 先删后插：删到行即为撤票；否则插入，插入被并发请求抢先（DO NOTHING 影响 0 行）
// 说明此刻行已存在，回到删除分支。每次调用恰好落地一次翻转。
func flip(tx *gorm.DB, voterID, workID string) (bool, error) {
	for attempt := 0; attempt < maxFlipAttempts; attempt++ {
		del := tx.Where("voter_id = ? AND work_id = ?", voterID, workID).Delete(&model.Vote{})
		if del.Error != nil {
			return false, del.Error
		}
		if del.RowsAffected > 0 {
			return false, nil
		}

		v := &model.Vote{ID: uuid.New().String(), VoterID: voterID, WorkID: workID}
		ins := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(v)
		if ins.Error != nil {
			return false, ins.Error
		}
		if ins.RowsAffected > 0 {
			return true, nil
		}
	}
	return false, ErrToggleContention
}

func (r *voteRepository) Toggle(ctx context.Context, voterID, workID string) (bool, error) {
	return flip(r.db.WithContext(ctx), voterID, workID)
}

func (r *voteRepository) ToggleOnce(ctx context.Context, voterID, workID, requestID string) (bool, bool, error) {
	var (
		isVoted  bool
		replayed bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rc model.VoteReceipt
		err := tx.Where("voter_id = ? AND request_id = ?", voterID, requestID).First(&rc).Error
		if err == nil {
			if rc.WorkID != workID {
				return ErrReceiptMismatch
			}
			isVoted, replayed = rc.IsVoted, true
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if isVoted, err = flip(tx, voterID, workID); err != nil {
			return err
		}
		return tx.Create(&model.VoteReceipt{
			VoterID:   voterID,
			RequestID: requestID,
			WorkID:    workID,
			IsVoted:   isVoted,
		}).Error
	})
	if err == nil || !IsDuplicate(err) {
		return isVoted, replayed, err
	}

	// 同键的并发请求先提交了回执，本事务已回滚：以对方结果为准
	var rc model.VoteReceipt
	if lookupErr := r.db.WithContext(ctx).
		Where("voter_id = ? AND request_id = ?", voterID, requestID).
		First(&rc).Error; lookupErr != nil {
		return false, false, err
	}
	if rc.WorkID != workID {
		return false, false, ErrReceiptMismatch
	}
	return rc.IsVoted, true, nil
}

func (r *voteRepository) Exists(ctx context.Context, voterID, workID string) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.Vote{}).
		Where("voter_id = ? AND work_id = ?", voterID, workID).
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

// CountByWork 票数永远由选票行现算
func (r *voteRepository) CountByWork(ctx context.Context, workID string) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.Vote{}).Where("work_id = ?", workID).Count(&cnt).Error
	return cnt, err
}

func (r *voteRepository) CountByWorks(ctx context.Context, workIDs []string) (map[string]int64, error) {
	res := make(map[string]int64, len(workIDs))
	if len(workIDs) == 0 {
		return res, nil
	}
	var rows []struct {
		WorkID string
		Cnt    int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.Vote{}).
		Select("work_id, COUNT(*) AS cnt").
		Where("work_id IN ?", workIDs).
		Group("work_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		res[row.WorkID] = row.Cnt
	}
	return res, nil
}

func (r *voteRepository) VotedWorks(ctx context.Context, voterID string, workIDs []string) (map[string]bool, error) {
	res := make(map[string]bool, len(workIDs))
	if voterID == "" || len(workIDs) == 0 {
		return res, nil
	}
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.Vote{}).
		Where("voter_id = ? AND work_id IN ?", voterID, workIDs).
		Pluck("work_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		res[id] = true
	}
	return res, nil
}
