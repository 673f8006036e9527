// Package monitor follows the session logs on disk and keeps a live,
// read-only view of every session's replayed state. New records are
// published to a topic that the API server streams to websocket clients.
// The monitor never writes events; trackers in other processes own the
// logs and the monitor only tails them
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/kode4food/caravan"
	"github.com/kode4food/caravan/topic"

	"github.com/kode4food/waypost/internal/eventlog"
	"github.com/kode4food/waypost/pkg/api"
	"github.com/kode4food/waypost/pkg/catalog"
	"github.com/kode4food/waypost/pkg/events"
	"github.com/kode4food/waypost/pkg/log"
)

type (
	// Monitor tails every session log under a store's root, folding new
	// records into per-session views and publishing them as Updates
	Monitor struct {
		store    *eventlog.Store
		reg      *catalog.Registry
		topic    topic.Topic[*Update]
		prod     topic.Producer[*Update]
		watcher  *fsnotify.Watcher
		views    map[api.SessionID]*view
		pending  map[string]*time.Timer
		stop     chan struct{}
		debounce time.Duration
		mu       sync.RWMutex
		pmu      sync.Mutex
		wg       sync.WaitGroup
		stopOnce sync.Once
	}

	// Update pairs a newly observed record with the instance state after
	// folding it in
	Update struct {
		Event    *api.Event        `json:"event"`
		Instance *api.FlowInstance `json:"instance,omitempty"`
		Session  api.SessionID     `json:"session_id"`
	}

	// Option configures a Monitor
	Option func(*Monitor)

	view struct {
		state  *events.SessionState
		offset int64
	}
)

// DefaultDebounce coalesces the watcher's change bursts per file
const DefaultDebounce = 250 * time.Millisecond

var ErrWatchRoot = errors.New("failed to watch logs root")

// New creates a Monitor over a store and the registry used to evaluate
// completion
func New(
	store *eventlog.Store, reg *catalog.Registry, opts ...Option,
) *Monitor {
	t := caravan.NewTopic[*Update]()
	m := &Monitor{
		store:    store,
		reg:      reg,
		topic:    t,
		prod:     t.NewProducer(),
		views:    map[api.SessionID]*view{},
		pending:  map[string]*time.Timer{},
		stop:     make(chan struct{}),
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// WithDebounce sets how long file changes coalesce before a re-read
func WithDebounce(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.debounce = d
		}
	}
}

// Start scans the existing logs and begins watching the root for changes
func (m *Monitor) Start(ctx context.Context) error {
	if err := os.MkdirAll(m.store.Root(), 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrWatchRoot, err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWatchRoot, err)
	}
	if err := w.Add(m.store.Root()); err != nil {
		_ = w.Close()
		return fmt.Errorf("%w: %w", ErrWatchRoot, err)
	}
	m.watcher = w

	sessions, err := m.store.Sessions(ctx)
	if err != nil {
		slog.Warn("Initial session scan failed", log.Error(err))
	}
	for _, session := range sessions {
		m.refresh(ctx, session)
	}

	m.wg.Go(func() {
		m.run(ctx)
	})
	slog.Info("Monitoring session logs",
		log.Path(m.store.Root()),
		log.Count(len(sessions)))
	return nil
}

// Stop halts watching and closes the update topic
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)
		if m.watcher != nil {
			_ = m.watcher.Close()
		}
	})
	m.wg.Wait()

	m.pmu.Lock()
	for _, t := range m.pending {
		t.Stop()
	}
	clear(m.pending)
	m.pmu.Unlock()

	m.prod.Close()
}

// NewConsumer subscribes to the monitor's update feed. Each consumer
// receives every update published after it subscribes and must be closed
// when done
func (m *Monitor) NewConsumer() topic.Consumer[*Update] {
	return m.topic.NewConsumer()
}

func (m *Monitor) run(ctx context.Context) {
	for {
		select {
		case <-m.stop:
			return
		case ev, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !strings.HasSuffix(ev.Name, eventlog.LogExt) {
				continue
			}
			m.debounceFile(ctx, ev.Name)
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("Log watcher error", log.Error(err))
		}
	}
}

// debounceFile coalesces change bursts for one file into a single re-read
func (m *Monitor) debounceFile(ctx context.Context, name string) {
	m.pmu.Lock()
	defer m.pmu.Unlock()
	if t, ok := m.pending[name]; ok {
		t.Stop()
	}
	m.pending[name] = time.AfterFunc(m.debounce, func() {
		m.pmu.Lock()
		delete(m.pending, name)
		m.pmu.Unlock()
		select {
		case <-m.stop:
		default:
			m.refresh(ctx, sessionFromPath(name))
		}
	})
}

// refresh folds any new complete records of a session into its view and
// publishes them. Truncated or replaced files rebuild the view from the top
func (m *Monitor) refresh(ctx context.Context, session api.SessionID) {
	m.mu.Lock()
	v, ok := m.views[session]
	if !ok {
		v = &view{state: events.NewSessionState()}
		m.views[session] = v
	}
	if size := m.store.Size(session); size < v.offset {
		slog.Warn("Session log shrank, rebuilding view",
			log.SessionID(session))
		v.state = events.NewSessionState()
		v.offset = 0
	}

	evs, next, err := m.store.ReadSessionFrom(ctx, session, v.offset)
	if err != nil {
		slog.Warn("Failed to tail session log",
			log.SessionID(session),
			log.Error(err))
	}
	v.offset = next

	updates := make([]*Update, 0, len(evs))
	for _, ev := range evs {
		v.state.Apply(ev)
		up := &Update{Session: session, Event: ev}
		if inst, ok := v.state.Get(ev.InstanceID); ok {
			up.Instance = m.snapshot(inst)
		}
		updates = append(updates, up)
	}
	m.mu.Unlock()

	for _, up := range updates {
		select {
		case <-m.stop:
			return
		default:
		}
		m.prod.Send() <- up
	}
}

// snapshot deep-copies an instance and settles its completion flag
func (m *Monitor) snapshot(inst *api.FlowInstance) *api.FlowInstance {
	res := inst.Clone()
	def, _ := m.reg.Get(res.FlowID)
	res.Complete = res.IsComplete(def)
	return res
}

// Sessions returns the IDs of every session the monitor has seen, sorted
func (m *Monitor) Sessions() []api.SessionID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]api.SessionID, 0, len(m.views))
	for id := range m.views {
		res = append(res, id)
	}
	slices.Sort(res)
	return res
}

// SessionFlows returns snapshots of a session's instances in discovery
// order. Unknown sessions yield nothing
func (m *Monitor) SessionFlows(session api.SessionID) []*api.FlowInstance {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.views[session]
	if !ok {
		return nil
	}
	res := make([]*api.FlowInstance, 0, v.state.Len())
	for _, inst := range v.state.All() {
		res = append(res, m.snapshot(inst))
	}
	return res
}

// Flow returns a snapshot of one instance in a session
func (m *Monitor) Flow(
	session api.SessionID, id api.InstanceID,
) (*api.FlowInstance, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.views[session]
	if !ok {
		return nil, false
	}
	inst, ok := v.state.Get(id)
	if !ok {
		return nil, false
	}
	return m.snapshot(inst), true
}

func sessionFromPath(name string) api.SessionID {
	base := filepath.Base(name)
	return api.SessionID(strings.TrimSuffix(base, eventlog.LogExt))
}
