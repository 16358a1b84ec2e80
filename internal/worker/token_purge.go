// Package worker runs periodic maintenance jobs next to the HTTP server.
package worker

import (
    "context"
    "fmt"
    "time"

    "github.com/go-co-op/gocron/v2"
    "github.com/sirupsen/logrus"
)

// Purger deletes refresh tokens that have expired or been revoked.
type Purger interface {
    PurgeExpiredTokens(ctx context.Context) (int64, error)
}

// TokenPurge removes dead refresh tokens every Interval.
type TokenPurge struct {
    purger   Purger
    interval time.Duration
    sched    gocron.Scheduler
}

func NewTokenPurge(p Purger, interval time.Duration) *TokenPurge {
    if interval <= 0 {
        interval = time.Hour
    }
    return &TokenPurge{purger: p, interval: interval}
}

// Start schedules the job and returns immediately. Runs never overlap; a
// run still in progress when the next one is due pushes it back.
func (w *TokenPurge) Start(ctx context.Context) error {
    s, err := gocron.NewScheduler()
    if err != nil {
        return fmt.Errorf("token purge: scheduler: %w", err)
    }
    _, err = s.NewJob(
        gocron.DurationJob(w.interval),
        gocron.NewTask(w.run, ctx),
        gocron.WithName("purge-refresh-tokens"),
        gocron.WithSingletonMode(gocron.LimitModeReschedule),
    )
    if err != nil {
        _ = s.Shutdown()
        return fmt.Errorf("token purge: job: %w", err)
    }
    s.Start()
    w.sched = s
    logrus.WithField("interval", w.interval).Info("token purge scheduled")
    return nil
}

// Stop waits for a running purge to finish.
func (w *TokenPurge) Stop() error {
    if w.sched == nil {
        return nil
    }
    return w.sched.Shutdown()
}

func (w *TokenPurge) run(ctx context.Context) {
    ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
    defer cancel()

    n, err := w.purger.PurgeExpiredTokens(ctx)
    if err != nil {
        logrus.WithError(err).Warn("token purge failed")
        return
    }
    if n > 0 {
        logrus.WithField("deleted", n).Info("purged refresh tokens")
    }
}
