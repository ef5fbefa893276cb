// Package daemon wires the configured wiki and runs its long-lived
// surfaces: the HTTP API, the import directory watcher, NATS notifications
// and the audit retention job.
package daemon

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"git.home.luguber.info/inful/autopage/internal/foundation/errors"
	"git.home.luguber.info/inful/autopage/internal/hooks"
	"git.home.luguber.info/inful/autopage/internal/logfields"
	"git.home.luguber.info/inful/autopage/internal/metrics"
	"git.home.luguber.info/inful/autopage/internal/notify"
	"git.home.luguber.info/inful/autopage/internal/retry"
	"git.home.luguber.info/inful/autopage/internal/server/httpserver"
	"git.home.luguber.info/inful/autopage/internal/watch"
)

// Status represents the current state of the daemon
type Status string

const (
	StatusStopped  Status = "stopped"
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	StatusStopping Status = "stopping"
	StatusError    Status = "error"
)

const shutdownTimeout = 10 * time.Second

// Daemon represents the main daemon service
type Daemon struct {
	rt        *Runtime
	logger    *slog.Logger
	status    atomic.Value // Status
	startTime time.Time
	mu        sync.Mutex
	cancel    context.CancelFunc

	server    *httpserver.Server
	scheduler *Scheduler
	watcher   *watch.Watcher
	notifier  atomic.Pointer[notify.NATSPublisher]
	workers   WorkerGroup
}

// New creates a daemon around an opened Runtime. The caller still owns rt.
func New(rt *Runtime) (*Daemon, error) {
	if rt == nil || rt.Engine == nil {
		return nil, errors.ConfigError("daemon requires an opened runtime").Build()
	}
	d := &Daemon{rt: rt, logger: rt.Logger, workers: WorkerGroup{logger: rt.Logger}}
	d.status.Store(StatusStopped)
	rt.Bus.Subscribe(hooks.EventPageAutoCreated, d.forwardCreated)
	return d, nil
}

// forwardCreated hands PageAutoCreated events to NATS while a notifier is connected.
func (d *Daemon) forwardCreated(ctx context.Context, e hooks.Event) error {
	n := d.notifier.Load()
	if n == nil {
		return nil
	}
	return n.HandleEvent(ctx, e)
}

// Run starts the daemon, blocks until ctx is done and then stops it.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return d.Stop(stopCtx)
}

// Start brings up every configured surface. On failure, whatever was
// already started is stopped again.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.GetStatus() != StatusStopped {
		return errors.RuntimeError("daemon already started").Build()
	}
	d.status.Store(StatusStarting)
	d.startTime = time.Now()

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	d.cancel = cancel

	if err := d.startLocked(runCtx); err != nil {
		d.status.Store(StatusError)
		stopCtx, stopCancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer stopCancel()
		_ = d.stopLocked(stopCtx)
		d.status.Store(StatusStopped)
		return err
	}
	d.status.Store(StatusRunning)
	d.logger.Info("Daemon started", slog.String("addr", d.Addr().String()))
	return nil
}

func (d *Daemon) startLocked(ctx context.Context) error {
	cfg := d.rt.Config

	if cfg.Notify.Enabled() {
		n, err := notify.Connect(cfg.Notify.NATSURL, cfg.Notify.Subject, retry.FromConfig(cfg.Notify.Retry), d.logger)
		if err != nil {
			return err
		}
		d.notifier.Store(n)
	}

	opts := httpserver.Options{
		Addr:       cfg.Server.Addr,
		Wiki:       d.rt.Engine,
		Events:     d.rt.Events,
		Provenance: d.rt.Provenance,
		Logger:     d.logger,
	}
	if d.rt.Registry != nil {
		opts.Metrics = metrics.HTTPHandler(d.rt.Registry)
		opts.MetricsPath = cfg.Monitoring.Metrics.Path
	}
	srv, err := httpserver.New(opts)
	if err != nil {
		return err
	}
	if err := srv.Start(ctx); err != nil {
		return err
	}
	d.server = srv

	sched, err := NewScheduler(d.logger)
	if err != nil {
		return err
	}
	if _, err := sched.ScheduleRetention(ctx, d.rt.Events, cfg.Events.RetentionDuration(), cfg.Events.PruneIntervalDuration()); err != nil {
		_ = sched.Stop()
		return err
	}
	sched.Start()
	d.scheduler = sched

	if cfg.Watch.Dir != "" {
		report, err := watch.ImportDir(ctx, d.rt.Engine, cfg.Watch.Dir, d.logger)
		if err != nil {
			return err
		}
		d.logger.Info("Imported page sources",
			logfields.Path(cfg.Watch.Dir),
			slog.Int("saved", len(report.Saved)),
			slog.Int("auto_created", len(report.AutoCreated)),
			slog.Int("failed", len(report.Failed)))

		w, err := watch.NewWatcher(cfg.Watch.Dir, d.rt.Engine, cfg.Watch.DebounceDuration(), d.logger)
		if err != nil {
			return err
		}
		d.watcher = w
		d.workers.Go("watcher", func() error { return w.Run(ctx) })
	}
	return nil
}

// Stop shuts every surface down. The Runtime stays open.
func (d *Daemon) Stop(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.GetStatus() != StatusRunning {
		return nil
	}
	d.status.Store(StatusStopping)
	err := d.stopLocked(ctx)
	d.status.Store(StatusStopped)
	d.logger.Info("Daemon stopped", slog.Duration("uptime", time.Since(d.startTime)))
	return err
}

func (d *Daemon) stopLocked(ctx context.Context) error {
	var errs []error
	if d.server != nil {
		errs = append(errs, d.server.Stop(ctx))
		d.server = nil
	}
	if d.scheduler != nil {
		errs = append(errs, d.scheduler.Stop())
		d.scheduler = nil
	}
	if d.cancel != nil {
		d.cancel()
	}
	errs = append(errs, d.workers.StopAndWait(ctx))
	d.workers = WorkerGroup{logger: d.logger}
	d.watcher = nil
	if n := d.notifier.Swap(nil); n != nil {
		n.Close()
	}
	return stderrors.Join(errs...)
}

// GetStatus returns the current lifecycle state.
func (d *Daemon) GetStatus() Status {
	s, _ := d.status.Load().(Status)
	return s
}

// GetStartTime returns when the daemon was last started.
func (d *Daemon) GetStartTime() time.Time {
	return d.startTime
}

// Addr returns the HTTP listen address, or nil when not running.
func (d *Daemon) Addr() net.Addr {
	if d.server == nil {
		return nil
	}
	return d.server.Addr()
}
