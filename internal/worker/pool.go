// Package worker runs tile rendering tasks on a fixed number of goroutines.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/MeKo-Tech/perlin2d/internal/tile"
)

// Generator renders and stores one tile. pipeline.Generator satisfies it.
type Generator interface {
	Generate(ctx context.Context, coords tile.Coords, force bool, suffix string) (path string, err error)
}

// Task is a single tile to render.
type Task struct {
	Coords tile.Coords
	Force  bool
	Suffix string
}

// Result is the outcome of one Task.
type Result struct {
	Task    Task
	Path    string
	Err     error
	Elapsed time.Duration
}

// ProgressFunc is called after each task completes.
type ProgressFunc func(completed, total, failed int)

// Config configures the worker pool.
type Config struct {
	Workers    int
	Generator  Generator
	OnProgress ProgressFunc
}

// Pool renders tiles in parallel.
type Pool struct {
	generator  Generator
	onProgress ProgressFunc
	workers    int
}

// New creates a pool. Workers below one are raised to one.
func New(cfg Config) *Pool {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	return &Pool{
		workers:    workers,
		generator:  cfg.Generator,
		onProgress: cfg.OnProgress,
	}
}

// Run executes all tasks and blocks until each has a result. Results are in
// task order. Once ctx is cancelled, tasks that have not started yet are
// reported with ctx.Err() without calling the generator.
func (p *Pool) Run(ctx context.Context, tasks []Task) []Result {
	if len(tasks) == 0 {
		return nil
	}

	results := make([]Result, len(tasks))
	indexes := make(chan int)

	var (
		mu        sync.Mutex
		completed int
		failed    int
	)
	record := func(i int, r Result) {
		results[i] = r
		mu.Lock()
		completed++
		if r.Err != nil {
			failed++
		}
		c, f := completed, failed
		if p.onProgress != nil {
			p.onProgress(c, len(tasks), f)
		}
		mu.Unlock()
	}

	workers := p.workers
	if workers > len(tasks) {
		workers = len(tasks)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				record(i, p.run(ctx, tasks[i]))
			}
		}()
	}

	next := 0
feed:
	for ; next < len(tasks); next++ {
		select {
		case indexes <- next:
		case <-ctx.Done():
			break feed
		}
	}
	close(indexes)
	wg.Wait()

	for i := next; i < len(tasks); i++ {
		record(i, Result{Task: tasks[i], Err: ctx.Err()})
	}
	return results
}

func (p *Pool) run(ctx context.Context, task Task) Result {
	if err := ctx.Err(); err != nil {
		return Result{Task: task, Err: err}
	}
	start := time.Now()
	path, err := p.generator.Generate(ctx, task.Coords, task.Force, task.Suffix)
	return Result{
		Task:    task,
		Path:    path,
		Err:     err,
		Elapsed: time.Since(start),
	}
}

// Failed returns the results that carry an error.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}
