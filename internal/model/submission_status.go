package model

// SubmissionStatus 审核状态
type SubmissionStatus string

const (
	StatusPending  SubmissionStatus = "pending"
	StatusApproved SubmissionStatus = "approved"
	StatusRejected SubmissionStatus = "rejected"
)

func (s SubmissionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Trigger 状态变化的触发方
type Trigger int

const (
	TriggerOwnerEdit Trigger = iota + 1
	TriggerReview
)

type transition struct {
	from SubmissionStatus
	to   SubmissionStatus
}

// 审核只能从 pending 出发；作者编辑总是回到 pending
// approved 与 rejected 之间不能直接互转
var transitions = map[Trigger]map[transition]bool{
	TriggerReview: {
		{StatusPending, StatusApproved}: true,
		{StatusPending, StatusRejected}: true,
	},
	TriggerOwnerEdit: {
		{StatusPending, StatusPending}:  true,
		{StatusApproved, StatusPending}: true,
		{StatusRejected, StatusPending}: true,
	},
}

// CanTransition 判断给定触发方能否把状态从 from 改为 to
func CanTransition(from, to SubmissionStatus, by Trigger) bool {
	return transitions[by][transition{from, to}]
}
