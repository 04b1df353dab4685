package source

import (
	"context"
	"sync"

	"github.com/robfig/cron/v3"

	appLog "monthcal/internal/log"
	"monthcal/internal/model"
)

// Sink receives a freshly loaded event set. *store.Store satisfies it.
type Sink interface {
	Replace(events []model.Event)
}

// Watcher re-reads the source on a cron schedule and pushes it into the
// sink only when the payload changed, so in-memory edits survive reloads
// of an untouched file.
type Watcher struct {
	loader *Loader
	loc    string
	sink   Sink

	mu          sync.Mutex
	fingerprint string
}

// NewWatcher returns a Watcher for loc. Call Sync once before Start to
// seed the sink.
func NewWatcher(loader *Loader, loc string, sink Sink) *Watcher {
	return &Watcher{loader: loader, loc: loc, sink: sink}
}

// Sync loads the source and replaces the sink contents if the payload
// differs from the last one seen. It reports whether a replace happened.
func (w *Watcher) Sync(ctx context.Context) (bool, error) {
	res, err := w.loader.Load(ctx, w.loc)
	if err != nil {
		return false, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if res.Fingerprint == w.fingerprint {
		return false, nil
	}
	w.fingerprint = res.Fingerprint
	w.sink.Replace(res.Events)
	appLog.Info("event source loaded", "source", redactSource(w.loc), "event_count", len(res.Events))
	return true, nil
}

// Start schedules Sync with the given cron spec and returns the running
// scheduler. Stop it with Stop(); the context bounds every reload.
func (w *Watcher) Start(ctx context.Context, spec string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if _, err := w.Sync(ctx); err != nil {
			appLog.Error("event source reload failed", err, "source", redactSource(w.loc))
		}
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	appLog.Info("event source reload scheduled", "cron", spec)
	return c, nil
}

func redactSource(loc string) string {
	if isRemote(loc) {
		return redactURL(loc)
	}
	return loc
}
