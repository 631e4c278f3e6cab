package performance

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/errors"
)

// Task is one independent unit of chunk-level work.
type Task struct {
	ID  int
	Run func(ctx context.Context) error
}

// TaskOutcome is the terminal state of one task.
type TaskOutcome struct {
	TaskID int
	Err    error
}

// ExecutionReport is returned by the executor after draining all scheduled
// work. Unscheduled lists tasks abandoned by a deadline or cancellation;
// they are never silently dropped.
type ExecutionReport struct {
	Outcomes    []TaskOutcome
	Unscheduled []int
}

// Executor dispatches independent tasks across a bounded worker set. A
// panicking or failing task never cancels or corrupts its siblings; in-flight
// tasks run to completion on cancellation while pending tasks are abandoned
// and reported.
type Executor struct {
	workers int
	logger  *zap.Logger
}

// NewExecutor creates an executor with the given worker bound.
func NewExecutor(workers int, logger *zap.Logger) *Executor {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		workers: workers,
		logger:  logger.With(zap.String("component", "executor")),
	}
}

// Execute runs tasks with bounded parallelism and collects every outcome.
// Completion order is unspecified.
func (e *Executor) Execute(ctx context.Context, tasks []Task) *ExecutionReport {
	report := &ExecutionReport{}
	if len(tasks) == 0 {
		return report
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, e.workers)
	)

	for _, task := range tasks {
		select {
		case <-ctx.Done():
			report.Unscheduled = append(report.Unscheduled, task.ID)
			continue
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(t Task) {
			defer wg.Done()
			defer func() { <-sem }()

			err := e.runIsolated(ctx, t)
			mu.Lock()
			report.Outcomes = append(report.Outcomes, TaskOutcome{TaskID: t.ID, Err: err})
			mu.Unlock()
		}(task)
	}

	wg.Wait()

	if len(report.Unscheduled) > 0 {
		e.logger.Warn("execution budget exhausted before all tasks were scheduled",
			zap.Int("unscheduled", len(report.Unscheduled)))
	}
	return report
}

// runIsolated converts a panic into a task failure so one bad task cannot
// take down the run.
func (e *Executor) runIsolated(ctx context.Context, t Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(errors.KindPermanent, fmt.Sprintf("task panicked: %v", r)).
				WithDetail("task_id", t.ID)
			e.logger.Error("task panicked", zap.Int("task_id", t.ID), zap.Any("panic", r))
		}
	}()
	return t.Run(ctx)
}
