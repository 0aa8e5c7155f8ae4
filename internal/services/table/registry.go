package table

import (
	"log/slog"
	"sync"

	"github.com/cardroomhq/cardroom/internal/dependencies/random"
	"github.com/cardroomhq/cardroom/internal/model"
)

// Registry owns the table id -> session map. Sessions are created on first
// join and released after a grace window once the last player disconnects,
// so a quick reconnect finds the table still running.
type Registry struct {
	deps   Dependencies
	random random.Random
	cfg    RegistryConfig
	logger *slog.Logger

	mu         sync.Mutex
	sessions   map[model.TableID]*Session
	releaseGen map[model.TableID]int
}

// NewRegistry creates a new session registry
func NewRegistry(deps Dependencies, random random.Random, cfg RegistryConfig) *Registry {
	return &Registry{
		deps:       deps,
		random:     random,
		cfg:        cfg,
		logger:     deps.Logger.With(slog.String("component", "table_registry")),
		sessions:   make(map[model.TableID]*Session),
		releaseGen: make(map[model.TableID]int),
	}
}

// GetOrCreate returns the session for a table id, creating it if absent.
// Idempotent; a lookup also cancels any pending release of the table.
func (r *Registry) GetOrCreate(tableID model.TableID, variant model.Variant) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sess, ok := r.sessions[tableID]; ok {
		// A lookup supersedes any in-flight release
		r.releaseGen[tableID]++
		return sess
	}
	return r.createLocked(tableID, variant, model.VisibilityPrivate)
}

// Get returns an existing session or nil
func (r *Registry) Get(tableID model.TableID) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[tableID]
}

// Create makes a fresh table with a generated id
func (r *Registry) Create(variant model.Variant, visibility model.Visibility) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	for {
		id := model.TableID(r.random.String(r.cfg.IDLength, r.cfg.IDAlphabet))
		if _, taken := r.sessions[id]; !taken {
			return r.createLocked(id, variant, visibility)
		}
	}
}

// FindOrCreatePublic returns a public table of the variant with an open
// seat, creating one when every existing table is full
func (r *Registry) FindOrCreatePublic(variant model.Variant) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, sess := range r.sessions {
		if sess.Variant != variant || sess.Visibility != model.VisibilityPublic {
			continue
		}
		info := sess.Info()
		if info.Seated < info.MaxSeats {
			return sess
		}
	}

	for {
		id := model.TableID(r.random.String(r.cfg.IDLength, r.cfg.IDAlphabet))
		if _, taken := r.sessions[id]; !taken {
			return r.createLocked(id, variant, model.VisibilityPublic)
		}
	}
}

// Tables returns occupancy info for every live session
func (r *Registry) Tables() []Info {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, sess := range r.sessions {
		sessions = append(sessions, sess)
	}
	r.mu.Unlock()

	infos := make([]Info, 0, len(sessions))
	for _, sess := range sessions {
		infos = append(infos, sess.Info())
	}
	return infos
}

// CloseAll shuts down every session, for server shutdown
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for id, sess := range r.sessions {
		sessions = append(sessions, sess)
		delete(r.sessions, id)
		delete(r.releaseGen, id)
	}
	r.mu.Unlock()

	for _, sess := range sessions {
		sess.Close()
	}
}

func (r *Registry) createLocked(tableID model.TableID, variant model.Variant, visibility model.Visibility) *Session {
	sess := NewSession(tableID, variant, visibility, DefaultConfig(variant), r.deps, func() {
		// Runs on the session's goroutine; the grace timer gets its own
		go r.scheduleRelease(tableID)
	})
	r.sessions[tableID] = sess
	r.logger.Info("table created",
		slog.String("table_id", string(tableID)),
		slog.String("variant", string(variant)),
		slog.String("visibility", string(visibility)),
	)
	return sess
}

// scheduleRelease arms the grace timer for an empty table. A reconnect
// before expiry either bumps the generation or repopulates the table;
// either way the release is abandoned.
func (r *Registry) scheduleRelease(tableID model.TableID) {
	r.mu.Lock()
	r.releaseGen[tableID]++
	gen := r.releaseGen[tableID]
	r.mu.Unlock()

	<-r.deps.Clock.After(r.cfg.GraceWindow)

	r.mu.Lock()
	if r.releaseGen[tableID] != gen {
		r.mu.Unlock()
		return
	}
	sess, ok := r.sessions[tableID]
	if !ok {
		r.mu.Unlock()
		return
	}
	info := sess.Info()
	if info.Connected > 0 {
		r.mu.Unlock()
		return
	}
	if info.PendingPayouts > 0 {
		// The session is still retrying queued settlement credits against
		// an unavailable ledger. Closing it now would destroy money the
		// players are owed, so hold the table for another grace window.
		r.mu.Unlock()
		r.logger.Warn("table release deferred, payouts outstanding",
			slog.String("table_id", string(tableID)),
			slog.Int("pending_payouts", info.PendingPayouts),
		)
		r.scheduleRelease(tableID)
		return
	}
	delete(r.sessions, tableID)
	delete(r.releaseGen, tableID)
	r.mu.Unlock()

	sess.Close()
	r.logger.Info("table released", slog.String("table_id", string(tableID)))
}
