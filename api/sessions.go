/*
sessions.go - Per-job edit sessions and the idle-session janitor

PURPOSE:
  The grid edits one job at a time through a plan.EditSession. This
  file owns the live sessions: one per job, created lazily from the
  store, serialized per job, and reaped when abandoned.

DESIGN:
  - SessionRegistry maps job IDs to live sessions. Acquire loads the
    job and schedule from the store on first use; every commit the
    session makes is persisted through the registry's callback, so a
    dropped session never loses committed state.
  - Access runs through Do(), which holds a per-job mutex for the
    duration of the callback. Two requests editing the same job line
    up; requests for different jobs don't contend.
  - SessionJanitor runs a background goroutine with a configurable
    check interval and drops sessions idle past the TTL. An abandoned
    confirmation would otherwise hold the job's single-edit slot
    forever; reaping it discards the pending value, which is exactly
    what Cancel would have done.

USAGE:
  registry := NewSessionRegistry(store)
  janitor := NewSessionJanitor(registry)
  janitor.Start()
  // ... later
  janitor.Stop()

SEE ALSO:
  - plan/session.go: EditSession semantics
  - handlers.go: HTTP entry points calling Do()
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/shopfloor/planboard/plan"
)

// =============================================================================
// SESSION REGISTRY
// =============================================================================

// SessionRegistry holds the live edit session for each job.
type SessionRegistry struct {
	store plan.Store

	mu       sync.Mutex
	sessions map[plan.JobID]*sessionEntry
}

type sessionEntry struct {
	mu       sync.Mutex
	session  *plan.EditSession
	lastUsed time.Time
}

// NewSessionRegistry creates a registry backed by the given store.
func NewSessionRegistry(store plan.Store) *SessionRegistry {
	return &SessionRegistry{
		store:    store,
		sessions: make(map[plan.JobID]*sessionEntry),
	}
}

// Do runs fn against the job's session, creating the session from the
// store on first use. Calls for the same job are serialized; the
// session is single-threaded by contract.
func (r *SessionRegistry) Do(ctx context.Context, id plan.JobID, fn func(*plan.EditSession) error) error {
	entry, err := r.acquire(ctx, id)
	if err != nil {
		return err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return fn(entry.session)
}

func (r *SessionRegistry) acquire(ctx context.Context, id plan.JobID) (*sessionEntry, error) {
	r.mu.Lock()
	if entry, ok := r.sessions[id]; ok {
		entry.lastUsed = time.Now()
		r.mu.Unlock()
		return entry, nil
	}
	r.mu.Unlock()

	// Load outside the registry lock; store calls can be slow.
	job, err := r.store.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	sched, err := r.store.GetSchedule(ctx, id)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Another request may have won the race while we loaded.
	if entry, ok := r.sessions[id]; ok {
		entry.lastUsed = time.Now()
		return entry, nil
	}

	session := plan.NewEditSession(*job, *sched, r.persist(id))
	entry := &sessionEntry{session: session, lastUsed: time.Now()}
	r.sessions[id] = entry
	return entry, nil
}

// persist returns the commit callback wired into a job's session.
// Schedule first, then the history entry; the session rolls back its
// in-memory state if either write fails.
func (r *SessionRegistry) persist(id plan.JobID) plan.CommitFunc {
	return func(sched plan.Schedule, rec plan.EditRecord) error {
		ctx := context.Background()
		if err := r.store.SaveSchedule(ctx, sched); err != nil {
			return err
		}
		return r.store.AppendEdit(ctx, rec)
	}
}

// Release drops a job's session. Committed state is already in the
// store; anything pending is discarded.
func (r *SessionRegistry) Release(id plan.JobID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// ReleaseAll drops every session, e.g. when a scenario reseeds the
// database underneath them.
func (r *SessionRegistry) ReleaseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = make(map[plan.JobID]*sessionEntry)
}

// ReleaseIdle drops sessions untouched for longer than ttl and
// returns their job IDs. Sessions mid-request are skipped and picked
// up on the next sweep.
func (r *SessionRegistry) ReleaseIdle(ttl time.Duration) []plan.JobID {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().Add(-ttl)
	var dropped []plan.JobID
	for id, entry := range r.sessions {
		if entry.lastUsed.After(cutoff) {
			continue
		}
		if !entry.mu.TryLock() {
			continue
		}
		entry.mu.Unlock()
		delete(r.sessions, id)
		dropped = append(dropped, id)
	}
	return dropped
}

// Len returns the number of live sessions.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// =============================================================================
// SESSION JANITOR
// =============================================================================

// SessionJanitor reaps idle edit sessions in the background.
type SessionJanitor struct {
	Registry      *SessionRegistry
	CheckInterval time.Duration
	TTL           time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewSessionJanitor creates a janitor with default timing.
func NewSessionJanitor(registry *SessionRegistry) *SessionJanitor {
	return &SessionJanitor{
		Registry:      registry,
		CheckInterval: 1 * time.Minute,
		TTL:           15 * time.Minute,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the reaper goroutine.
func (j *SessionJanitor) Start() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.Enabled {
		log.Println("[Janitor] Disabled, not starting")
		return
	}

	j.ticker = time.NewTicker(j.CheckInterval)
	j.wg.Add(1)

	go j.run()

	log.Printf("[Janitor] Started: check every %v, session TTL %v", j.CheckInterval, j.TTL)
}

// Stop stops the reaper goroutine.
func (j *SessionJanitor) Stop() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.ticker != nil {
		j.ticker.Stop()
		close(j.stop)
		j.wg.Wait()
		log.Println("[Janitor] Stopped")
	}
}

func (j *SessionJanitor) run() {
	defer j.wg.Done()

	for {
		select {
		case <-j.ticker.C:
			j.sweep()
		case <-j.stop:
			return
		}
	}
}

func (j *SessionJanitor) sweep() {
	dropped := j.Registry.ReleaseIdle(j.TTL)
	if len(dropped) > 0 {
		log.Printf("[Janitor] Reaped %d idle session(s): %v", len(dropped), dropped)
	}
}

// SweepNow triggers an immediate sweep (for testing/admin).
func (j *SessionJanitor) SweepNow() {
	j.sweep()
}
