package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gorm.io/gorm"

	"github.com/d60-Lab/gin-contest/internal/deadline"
	"github.com/d60-Lab/gin-contest/internal/identity"
	"github.com/d60-Lab/gin-contest/internal/model"
	"github.com/d60-Lab/gin-contest/internal/repository"
	"github.com/d60-Lab/gin-contest/internal/service"
	"github.com/d60-Lab/gin-contest/pkg/database"
)

func newVoteBenchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "votebench",
		Short: "并发投票压测：N 个投票人对同一作品切换，校验计数并输出延迟分位",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := database.InitDB(cfg)
			if err != nil {
				return err
			}
			return voteBench(cmd.Context(), db, benchOptions{
				N:      flagOrEnv(cmd.Flags(), "n", "N"),
				Conc:   flagOrEnv(cmd.Flags(), "conc", "CONC"),
				Rounds: flagOrEnv(cmd.Flags(), "rounds", "ROUNDS"),
			})
		},
	}
	cmd.Flags().Int("n", 2000, "投票人数量（环境变量 N）")
	cmd.Flags().Int("conc", 8, "并发数（环境变量 CONC）")
	cmd.Flags().Int("rounds", 1, "每个投票人切换次数（环境变量 ROUNDS）")
	return cmd
}

// flagOrEnv 显式 flag 优先，其次环境变量，最后默认值
func flagOrEnv(fs *pflag.FlagSet, name, env string) int {
	v, _ := fs.GetInt(name)
	if fs.Changed(name) {
		return v
	}
	if s := os.Getenv(env); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return v
}

type benchOptions struct {
	N, Conc, Rounds int
}

func voteBench(ctx context.Context, db *gorm.DB, opt benchOptions) error {
	subRepo := repository.NewSubmissionRepository(db)
	voteRepo := repository.NewVoteRepository(db)
	// 压测不受截止时间影响
	gate := deadline.NewGate(time.Now().Add(24 * time.Hour))
	votes := service.NewVoteService(voteRepo, subRepo, gate, nil)

	work := &model.Submission{
		ID:          uuid.NewString(),
		OwnerID:     "bench-" + uuid.NewString(),
		Title:       "votebench",
		AuthorName:  "bench",
		Description: "votebench seed work",
		DemoURL:     "https://example.com",
		Status:      model.StatusApproved,
	}
	if err := subRepo.Create(ctx, work); err != nil {
		return fmt.Errorf("seed work: %w", err)
	}

	workers := opt.Conc
	if workers > opt.N {
		workers = opt.N
	}
	feed := make(chan int, opt.N)
	for i := 0; i < opt.N; i++ {
		feed <- i
	}
	close(feed)

	latCh := make(chan time.Duration, opt.N*opt.Rounds)
	var failed atomic.Int64
	done := make(chan struct{}, workers)

	t0 := time.Now()
	for w := 0; w < workers; w++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for i := range feed {
				voter := identity.UserID(fmt.Sprintf("voter-%d", i))
				for r := 0; r < opt.Rounds; r++ {
					st := time.Now()
					if _, err := votes.Toggle(ctx, voter, work.ID, ""); err != nil {
						failed.Add(1)
						continue
					}
					latCh <- time.Since(st)
				}
			}
		}()
	}
	for w := 0; w < workers; w++ {
		<-done
	}
	close(latCh)
	total := time.Since(t0)

	lat := make([]time.Duration, 0, opt.N*opt.Rounds)
	for d := range latCh {
		lat = append(lat, d)
	}

	got, err := voteRepo.CountByWork(ctx, work.ID)
	if err != nil {
		return fmt.Errorf("count votes: %w", err)
	}
	want := int64(0)
	if opt.Rounds%2 == 1 {
		want = int64(opt.N)
	}

	q0 := time.Now()
	if _, err := voteRepo.CountByWorks(ctx, []string{work.ID}); err != nil {
		return fmt.Errorf("gallery counts: %w", err)
	}
	countDur := time.Since(q0)

	ops := opt.N * opt.Rounds
	fmt.Printf("N=%d, CONC=%d, ROUNDS=%d\n", opt.N, workers, opt.Rounds)
	fmt.Printf("Toggle total: %v, per op: %v, p50: %v, p95: %v, p99: %v, failed: %d\n",
		total, total/time.Duration(max(ops, 1)), pct(lat, 0.50), pct(lat, 0.95), pct(lat, 0.99), failed.Load())
	fmt.Printf("Gallery count query latency: %v\n", countDur)
	fmt.Printf("Vote rows: %d (expected %d)\n", got, want)
	if failed.Load() == 0 && got != want {
		return fmt.Errorf("vote count mismatch: got %d, want %d", got, want)
	}
	return nil
}

// pct 分位数，p 取 0~1
func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	xs := append([]time.Duration(nil), vs...)
	sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
	k := int(math.Ceil(p*float64(len(xs)))) - 1
	if k < 0 {
		k = 0
	}
	if k >= len(xs) {
		k = len(xs) - 1
	}
	return xs[k]
}
