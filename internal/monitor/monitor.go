// Package monitor periodically checks that the LLM server is reachable.
package monitor

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_model_lister.go -package=mocks ragchat/internal/monitor ModelLister

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"ragchat/internal/llm"
	"ragchat/internal/session"
)

// ModelLister lists the models the LLM server offers.
type ModelLister interface {
	ListModels(ctx context.Context) ([]llm.ModelDescriptor, error)
}

// ServerCheck records server reachability and the model list on a schedule.
type ServerCheck struct {
	lister   ModelLister
	session  *session.Session
	interval time.Duration
	timeout  time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

// NewServerCheck creates a check that runs every interval.
func NewServerCheck(lister ModelLister, sess *session.Session, interval time.Duration) *ServerCheck {
	return &ServerCheck{
		lister:   lister,
		session:  sess,
		interval: interval,
		timeout:  interval,
		now:      time.Now,
		logger:   slog.Default().With("component", "server_check"),
	}
}

// RunOnce lists models and updates the session. Only status transitions are logged.
func (c *ServerCheck) RunOnce(ctx context.Context) session.Status {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	models, err := c.lister.ListModels(ctx)
	status := session.StatusOnline
	if err != nil {
		status = session.StatusOffline
	} else {
		names := make([]string, 0, len(models))
		for _, m := range models {
			names = append(names, m.Name)
		}
		c.session.SetModels(names)
	}

	prev := c.session.SetStatus(status, c.now())
	if prev != status {
		if err != nil {
			c.logger.WarnContext(ctx, "llm server went offline", "previous", prev, "error", err)
		} else {
			c.logger.InfoContext(ctx, "llm server is online", "previous", prev, "models", len(models))
		}
	}
	return status
}

// Start runs the check immediately and then on the schedule until ctx is cancelled.
func (c *ServerCheck) Start(ctx context.Context) error {
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(fmt.Sprintf("@every %s", c.interval), func() { c.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule server check: %w", err)
	}

	c.RunOnce(ctx)
	scheduler.Start()
	c.logger.InfoContext(ctx, "server check started", "interval", c.interval)

	<-ctx.Done()
	<-scheduler.Stop().Done()
	return nil
}
