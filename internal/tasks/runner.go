package tasks

import (
	"context"
	"log"
	"time"

	"github.com/LamGC/Auto-Musician/internal/store"
)

type entry struct {
	task     Task
	interval time.Duration
}

// Runner executes registered tasks on fixed intervals against every
// stored account. Each task gets its own goroutine; one task's schedule
// never delays another's.
type Runner struct {
	accounts store.Store
	entries  []entry
}

func NewRunner(accounts store.Store) *Runner {
	return &Runner{accounts: accounts}
}

// Register adds a task to the schedule. Must be called before Start.
func (r *Runner) Register(task Task, interval time.Duration) {
	r.entries = append(r.entries, entry{task: task, interval: interval})
}

// Start launches the task loops and blocks until ctx is cancelled. Every
// task runs once immediately and then on its interval.
func (r *Runner) Start(ctx context.Context) {
	for _, e := range r.entries {
		go r.loop(ctx, e)
	}
	<-ctx.Done()
	log.Println("Task runner stopped")
}

func (r *Runner) loop(ctx context.Context, e entry) {
	log.Printf("Task %s scheduled every %s", e.task.Name(), e.interval)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	r.runAll(ctx, e.task)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.runAll(ctx, e.task)
		}
	}
}

// runAll applies a task to every stored account. A failure for one account
// is logged and the rest still run.
func (r *Runner) runAll(ctx context.Context, task Task) {
	accounts, err := r.accounts.All()
	if err != nil {
		log.Printf("[%s] account listing failed: %v", task.Name(), err)
		return
	}
	for _, account := range accounts {
		if ctx.Err() != nil {
			return
		}
		if err := task.Run(ctx, account); err != nil {
			log.Printf("[%s] user %d: %v", task.Name(), account.UserID, err)
		}
	}
}
