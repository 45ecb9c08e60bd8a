package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/survey/internal/logging"
	"github.com/aretw0/survey/pkg/domain"
	"github.com/aretw0/survey/pkg/ports"
	"github.com/google/uuid"
)

// DefaultLockTTL bounds how long a distributed session lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access, ensuring safe concurrent operations.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	store ports.StateStore
	nav   ports.Navigator

	mu    sync.Mutex            // guards locks
	locks map[string]*lockEntry // active per-session locks

	locker  ports.DistributedLocker
	lockTTL time.Duration
	hooks   domain.Hooks
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithHooks registers observers for the events of applied commands.
func WithHooks(hooks domain.Hooks) Option {
	return func(m *Manager) {
		m.hooks = hooks
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a session manager over a store and a navigation core.
func NewManager(store ports.StateStore, nav ports.Navigator, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		nav:     nav,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller must lock entry.mu and call release after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// Navigator returns the navigation core sessions are validated and advanced with.
func (m *Manager) Navigator() ports.Navigator {
	return m.nav
}

// Store returns the underlying state store.
func (m *Manager) Store() ports.StateStore {
	return m.store
}

// Start creates a session at the graph entry node. An empty sessionID gets a random UUID.
// An existing session with the same id is returned as is.
func (m *Manager) Start(ctx context.Context, sessionID string) (string, *domain.State, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	var state *domain.State
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		state, err = m.load(ctx, sessionID)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrSessionNotFound) {
			return fmt.Errorf("failed to check session existence: %w", err)
		}

		state = m.nav.Start()
		if err := m.store.Save(ctx, sessionID, domain.NewSnapshot(state)); err != nil {
			return fmt.Errorf("failed to initialize session: %w", err)
		}
		m.logger.Debug("session started", "session_id", sessionID, "node", state.CurrentNodeID)
		return nil
	})
	if err != nil {
		return "", nil, err
	}
	return sessionID, state, nil
}

// Load retrieves a session and validates it against the graph.
func (m *Manager) Load(ctx context.Context, sessionID string) (*domain.State, error) {
	var state *domain.State
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		state, err = m.load(ctx, sessionID)
		return err
	})
	return state, err
}

func (m *Manager) load(ctx context.Context, sessionID string) (*domain.State, error) {
	snap, err := m.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	state, err := m.nav.Restore(snap)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	return state, nil
}

// Save persists the session state.
func (m *Manager) Save(ctx context.Context, sessionID string, state *domain.State) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Save(ctx, sessionID, domain.NewSnapshot(state))
	})
}

// Apply loads the session, runs cmd and saves the new state in one locked cycle.
// Rejected commands leave the stored session untouched.
func (m *Manager) Apply(ctx context.Context, sessionID string, cmd domain.Command) (*domain.State, domain.Result, error) {
	var (
		state *domain.State
		res   domain.Result
	)
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		current, err := m.load(ctx, sessionID)
		if err != nil {
			return err
		}

		next, r, applyErr := m.nav.Apply(current, cmd)
		state, res = next, r
		if applyErr != nil {
			m.emit(r.Events)
			return applyErr
		}

		if err := m.store.Save(ctx, sessionID, domain.NewSnapshot(next)); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		m.logger.Debug("command applied",
			"session_id", sessionID,
			"kind", cmd.Kind,
			"node", next.CurrentNodeID,
			"pending", len(next.Pending),
		)
		m.emit(r.Events)
		return nil
	})
	return state, res, err
}

func (m *Manager) emit(events []domain.Event) {
	if m.hooks.OnEvent == nil {
		return
	}
	for _, ev := range events {
		m.hooks.OnEvent(ev)
	}
}

// Delete removes the session from the store.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Delete(ctx, sessionID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// WithLock executes fn while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
