package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/gin-contest/internal/deadline"
	"github.com/d60-Lab/gin-contest/internal/model"
	"github.com/d60-Lab/gin-contest/internal/repository"
	"github.com/d60-Lab/gin-contest/internal/testutil"
)

type fixture struct {
	db       *gorm.DB
	subs     repository.SubmissionRepository
	votes    repository.VoteRepository
	notes    repository.NotificationRepository
	clock    time.Time
	gate     *deadline.Gate
	notifier NotificationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	f := &fixture{
		db:    db,
		subs:  repository.NewSubmissionRepository(db),
		votes: repository.NewVoteRepository(db),
		notes: repository.NewNotificationRepository(db),
		clock: time.Now(),
	}
	f.gate = &deadline.Gate{Deadline: f.clock.Add(24 * time.Hour), Now: func() time.Time { return f.clock }}
	f.notifier = NewNotificationService(f.notes, nil)
	return f
}

// closeContest 把时钟拨到截止时刻
func (f *fixture) closeContest() { f.clock = f.gate.Deadline }

func (f *fixture) submissions() SubmissionService {
	return NewSubmissionService(f.subs, f.votes, f.notifier, f.gate, nil)
}

func (f *fixture) voting() VoteService {
	return NewVoteService(f.votes, f.subs, f.gate, nil)
}

func validFields() SubmissionFields {
	return SubmissionFields{
		Title:       "Useful Tool",
		AuthorName:  "Ann",
		Description: "a tool that helps",
		DemoURL:     "https://demo.example.com",
	}
}

// approve 直接走仓储，模拟外部审核
func (f *fixture) approve(t *testing.T, id string) {
	t.Helper()
	note := "looks good"
	if err := f.subs.UpdateReview(context.Background(), id, model.StatusPending, model.StatusApproved, "reviewer", &note, time.Now()); err != nil {
		t.Fatalf("approve: %v", err)
	}
}

type failingNotificationRepo struct{}

func (failingNotificationRepo) Create(context.Context, *model.Notification) error {
	return errors.New("notifications table is on fire")
}

func (failingNotificationRepo) ListByUser(context.Context, string, int) ([]*model.Notification, error) {
	return nil, errors.New("down")
}

func (failingNotificationRepo) MarkRead(context.Context, string, string) (*model.Notification, error) {
	return nil, errors.New("down")
}
