package icon

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Refresher reloads the icon on a cron schedule and publishes it to a Holder.
type Refresher struct {
	loader  *Loader
	holder  *Holder
	timeout time.Duration
	logger  *zap.Logger
	cron    *cron.Cron
}

// NewRefresher returns a Refresher. timeout bounds each scheduled load.
func NewRefresher(loader *Loader, holder *Holder, timeout time.Duration, logger *zap.Logger) *Refresher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Refresher{
		loader:  loader,
		holder:  holder,
		timeout: timeout,
		logger:  logger,
		cron:    cron.New(),
	}
}

// Refresh loads the icon once and publishes it. A placeholder does not replace
// a real icon that is already being served.
func (r *Refresher) Refresh(ctx context.Context) Icon {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	next := r.loader.Load(ctx)
	if !r.holder.Update(next) {
		r.logger.Info("icon refresh failed, keeping current icon")
	}
	return r.holder.Get()
}

// Start schedules Refresh with a standard cron spec ("0 * * * *", "@hourly",
// "@every 30m"). Call Stop during shutdown.
func (r *Refresher) Start(spec string) error {
	if _, err := r.cron.AddFunc(spec, func() { r.Refresh(context.Background()) }); err != nil {
		return fmt.Errorf("schedule icon refresh %q: %w", spec, err)
	}
	r.cron.Start()
	r.logger.Info("icon refresh scheduled", zap.String("spec", spec))
	return nil
}

// Stop halts the schedule and waits for a running refresh to finish or ctx to end.
func (r *Refresher) Stop(ctx context.Context) {
	done := r.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}
