package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	JobImportSweep = "import_session_sweep"
	JobStoreGauges = "store_gauges"
)

// RunFunc performs one job run. The returned details are logged.
type RunFunc func(context.Context) (any, error)

// Service runs queued jobs on a single worker; the cron scheduler only
// enqueues, so runs of one job never overlap. A full queue drops the run with
// a warning.
type Service struct {
	queue chan job
	cron  *cron.Cron
	wg    sync.WaitGroup
}

type job struct {
	Type string
	Run  RunFunc
}

func New(queueSize int) *Service {
	if queueSize <= 0 {
		queueSize = 16
	}
	return &Service{queue: make(chan job, queueSize), cron: cron.New()}
}

// Every registers a periodic job. Non-positive intervals are ignored and
// intervals are rounded to whole seconds, one second at least.
func (s *Service) Every(jobType string, interval time.Duration, run RunFunc) {
	if interval <= 0 {
		return
	}
	s.cron.Schedule(cron.Every(interval), cron.FuncJob(func() {
		s.Enqueue(jobType, run)
	}))
}

// Start launches the worker and the scheduler. Both stop when ctx is done;
// Wait blocks until they have.
func (s *Service) Start(ctx context.Context) {
	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		s.worker(ctx)
	}()
	s.cron.Start()
	go func() {
		defer s.wg.Done()
		<-ctx.Done()
		<-s.cron.Stop().Done()
	}()
}

func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) Enqueue(jobType string, run RunFunc) {
	select {
	case s.queue <- job{Type: jobType, Run: run}:
	default:
		slog.Warn("job queue full", "jobType", jobType)
	}
}

func (s *Service) RunNow(ctx context.Context, jobType string, run RunFunc) (any, error) {
	return s.runJob(ctx, job{Type: jobType, Run: run})
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	start := time.Now()
	details, err := j.Run(ctx)
	status := "completed"
	if err != nil {
		status = "failed"
	}
	slog.Debug("job run", "jobType", j.Type, "status", status, "details", details, "durationMs", time.Since(start).Milliseconds())
	return details, err
}
