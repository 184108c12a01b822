package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fentz26/mcphub/internal/logging"
)

// ErrJobRunning is returned by RunNow when the job is already running.
var ErrJobRunning = errors.New("job is already running")

// ErrUnknownJob is returned by RunNow for a name that was never added.
var ErrUnknownJob = errors.New("unknown job")

// Job is a named task run on an interval.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// JobStatus is the outcome of a job's most recent run.
type JobStatus struct {
	Name     string        `json:"name"`
	Interval time.Duration `json:"interval"`
	Running  bool          `json:"running"`
	LastRun  time.Time     `json:"lastRun,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
	Runs     int           `json:"runs"`
	LastErr  string        `json:"lastError,omitempty"`
}

// Scheduler runs jobs on their intervals, one run per job at a time.
type Scheduler struct {
	jobs []Job

	mu     sync.Mutex
	status map[string]*JobStatus

	// Control
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a scheduler for jobs. Jobs with a zero interval only run
// through RunNow.
func New(jobs ...Job) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	status := make(map[string]*JobStatus, len(jobs))
	for _, j := range jobs {
		status[j.Name] = &JobStatus{Name: j.Name, Interval: j.Interval}
	}
	return &Scheduler{
		jobs:   jobs,
		status: status,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start launches one loop per scheduled job.
func (sch *Scheduler) Start() {
	started := 0
	for _, j := range sch.jobs {
		if j.Interval <= 0 {
			continue
		}
		sch.wg.Add(1)
		go sch.loop(j)
		started++
	}
	logging.Info("Scheduler", "Scheduler started with %d jobs", started)
}

// Stop cancels running jobs and waits for every loop to exit.
func (sch *Scheduler) Stop() {
	sch.cancel()
	sch.wg.Wait()
	logging.Info("Scheduler", "Scheduler stopped")
}

func (sch *Scheduler) loop(j Job) {
	defer sch.wg.Done()

	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-sch.ctx.Done():
			return
		case <-ticker.C:
			if err := sch.run(j); err != nil && !errors.Is(err, ErrJobRunning) {
				logging.Error("Scheduler", err, "Job %s failed", j.Name)
			}
		}
	}
}

// RunNow runs the named job immediately and waits for it.
func (sch *Scheduler) RunNow(name string) error {
	for _, j := range sch.jobs {
		if j.Name == name {
			return sch.run(j)
		}
	}
	return fmt.Errorf("%s: %w", name, ErrUnknownJob)
}

func (sch *Scheduler) run(j Job) error {
	sch.mu.Lock()
	st := sch.status[j.Name]
	if st.Running {
		sch.mu.Unlock()
		logging.Debug("Scheduler", "Skipping %s, previous run still in progress", j.Name)
		return ErrJobRunning
	}
	st.Running = true
	sch.mu.Unlock()

	start := time.Now()
	err := j.Run(sch.ctx)

	sch.mu.Lock()
	st.Running = false
	st.LastRun = start
	st.Duration = time.Since(start)
	st.Runs++
	st.LastErr = ""
	if err != nil {
		st.LastErr = err.Error()
	}
	sch.mu.Unlock()
	return err
}

// Stats returns the status of every job in the order they were added.
func (sch *Scheduler) Stats() []JobStatus {
	sch.mu.Lock()
	defer sch.mu.Unlock()

	out := make([]JobStatus, 0, len(sch.jobs))
	for _, j := range sch.jobs {
		out = append(out, *sch.status[j.Name])
	}
	return out
}
