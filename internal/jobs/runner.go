// Package jobs: периодические фоновые задачи.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/tutor-platform/internal/ctxutil"
	"github.com/Spok95/tutor-platform/internal/observability"
)

type Job func(ctx context.Context) error

type Runner struct {
	ctx context.Context
	log *zap.Logger
	wg  sync.WaitGroup
}

func New(ctx context.Context, log *zap.Logger) *Runner { return &Runner{ctx: ctx, log: log} }

// Every запускает fn каждые interval до отмены контекста раннера.
func (r *Runner) Every(interval time.Duration, name string, fn Job) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-r.ctx.Done():
				return
			case <-t.C:
				_ = r.RunOnce(name, fn)
			}
		}
	}()
}

// RunOnce: один прогон с метриками; паника превращается в ошибку и уходит в Sentry.
func (r *Runner) RunOnce(name string, fn Job) (err error) {
	ctx := ctxutil.WithOp(r.ctx, "job."+name)
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic in job %s: %v", name, rec)
			observability.CaptureErrCtx(ctx, err)
		}
		if err != nil {
			jobErrors.WithLabelValues(name).Inc()
			r.log.Error("job failed", zap.String("job", name), zap.Error(err))
		}
		jobRuns.WithLabelValues(name).Inc()
		jobDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}()
	return fn(ctx)
}

// Wait ждёт остановки всех циклов после отмены контекста.
func (r *Runner) Wait() { r.wg.Wait() }
