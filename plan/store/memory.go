// Package store provides plan.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/shopfloor/planboard/plan"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	jobs      map[plan.JobID]plan.Job
	schedules map[plan.JobID]plan.Schedule
	edits     map[plan.JobID][]plan.EditRecord
	nextEdit  int64
}

func NewMemory() *Memory {
	return &Memory{
		jobs:      make(map[plan.JobID]plan.Job),
		schedules: make(map[plan.JobID]plan.Schedule),
		edits:     make(map[plan.JobID][]plan.EditRecord),
		nextEdit:  1,
	}
}

func (m *Memory) SaveJob(_ context.Context, job plan.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.ID] = job
	return nil
}

func (m *Memory) GetJob(_ context.Context, id plan.JobID) (*plan.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, ok := m.jobs[id]
	if !ok {
		return nil, plan.ErrJobNotFound
	}
	return &job, nil
}

func (m *Memory) ListJobs(_ context.Context) ([]plan.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]plan.Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		out = append(out, job)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Memory) DeleteJob(_ context.Context, id plan.JobID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.jobs[id]; !ok {
		return plan.ErrJobNotFound
	}
	delete(m.jobs, id)
	delete(m.schedules, id)
	delete(m.edits, id)
	return nil
}

func (m *Memory) SaveSchedule(_ context.Context, s plan.Schedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schedules[s.JobID] = s.Clone()
	return nil
}

func (m *Memory) GetSchedule(_ context.Context, id plan.JobID) (*plan.Schedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.schedules[id]
	if !ok {
		return nil, plan.ErrScheduleNotFound
	}
	out := s.Clone()
	return &out, nil
}

// AppendEdit is append-only: records only ever gain neighbors.
func (m *Memory) AppendEdit(_ context.Context, rec plan.EditRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec.ID = m.nextEdit
	m.nextEdit++
	m.edits[rec.JobID] = append(m.edits[rec.JobID], rec)
	return nil
}

func (m *Memory) ListEdits(_ context.Context, id plan.JobID) ([]plan.EditRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]plan.EditRecord, len(m.edits[id]))
	copy(out, m.edits[id])
	return out, nil
}

// Reset wipes everything. Demo scenario loading only.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.jobs = make(map[plan.JobID]plan.Job)
	m.schedules = make(map[plan.JobID]plan.Schedule)
	m.edits = make(map[plan.JobID][]plan.EditRecord)
	m.nextEdit = 1
	return nil
}
