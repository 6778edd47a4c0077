// Package store holds the per-session application state: the current
// user, the user list and the report list, mutated only through a
// closed set of actions. Dispatch is serialized, so reducers never run
// concurrently; remote change events and HTTP handlers both funnel
// through the same Dispatch path.
package store

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sitrack/sitrack-gin/internal/model"
	"github.com/sitrack/sitrack-gin/internal/progress"
	"github.com/sitrack/sitrack-gin/internal/repository"
)

// Store is the session state container. Construct it with New and pass
// it by reference; it is not a process-wide singleton.
type Store struct {
	mu    sync.Mutex
	state State
	slot  repository.SnapshotRepository
	log   *logrus.Logger
	now   func() time.Time
}

// Option tweaks store construction.
type Option func(*Store)

// WithClock replaces the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithInitialState skips slot loading and starts from the given state.
func WithInitialState(state State) Option {
	return func(s *Store) { s.state = state.Clone() }
}

// New creates a store initialized from the durable slot. An absent or
// unreadable snapshot falls back to the hardcoded seed state. The slot
// may be nil, in which case the store is memory-only.
func New(slot repository.SnapshotRepository, log *logrus.Logger, opts ...Option) *Store {
	if log == nil {
		log = logrus.StandardLogger()
	}

	s := &Store{
		slot:  slot,
		log:   log,
		now:   time.Now,
		state: loadInitialState(slot, log),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func loadInitialState(slot repository.SnapshotRepository, log *logrus.Logger) State {
	if slot == nil {
		return Seed()
	}

	data, err := slot.Read(model.SnapshotKey)
	if err != nil {
		log.WithError(err).Debug("no saved session snapshot, using seed state")
		return Seed()
	}

	var saved persistedState
	if err := json.Unmarshal(data, &saved); err != nil {
		log.WithError(err).Warn("saved session snapshot unreadable, using seed state")
		return Seed()
	}

	state := State{
		Users:           saved.Users,
		Reports:         saved.Reports,
		CurrentUser:     saved.CurrentUser,
		IsAuthenticated: saved.IsAuthenticated,
		// Connection and sync fields always start cold.
		IsConnected:  false,
		LastSyncTime: nil,
	}
	if state.Users == nil {
		state.Users = []model.User{}
	}
	if state.Reports == nil {
		state.Reports = []model.Report{}
	}
	return state
}

// Dispatch applies one action. It is synchronous and total: a
// structurally valid action never fails, and the resulting state is
// persisted to the slot best-effort before Dispatch returns.
func (s *Store) Dispatch(action Action) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = s.reduce(s.state, action)
	s.persist()
}

// State returns a copy of the current state with every report's
// derived fields freshly recomputed. Remote syncs can deliver stale
// progress/status values, so derivation happens on the read path too.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.state.Clone()
	for i := range out.Reports {
		progress.Derive(&out.Reports[i])
	}
	return out
}

// FindReport returns the report with the given id, derived fields
// refreshed, or nil.
func (s *Store) FindReport(id string) *model.Report {
	state := s.State()
	for i := range state.Reports {
		if state.Reports[i].ID == id {
			return &state.Reports[i]
		}
	}
	return nil
}

func (s *Store) reduce(state State, action Action) State {
	next := state.Clone()

	switch a := action.(type) {
	case Login:
		user := a.User
		next.CurrentUser = &user
		next.IsAuthenticated = true

	case Logout:
		next.CurrentUser = nil
		next.IsAuthenticated = false

	case AddUser:
		next.Users = upsertUser(next.Users, a.User)

	case UpdateUser:
		for i := range next.Users {
			if next.Users[i].ID == a.User.ID {
				next.Users[i] = a.User
			}
		}

	case DeleteUser:
		users := next.Users[:0]
		for _, u := range next.Users {
			if u.ID != a.ID {
				users = append(users, u)
			}
		}
		next.Users = users

	case AddReport:
		report := cloneReport(a.Report)
		progress.Derive(&report)
		next.Reports = append(next.Reports, report)

	case UpdateReport:
		updated := cloneReport(a.Report)
		progress.Derive(&updated)
		for i := range next.Reports {
			if next.Reports[i].ID == updated.ID {
				next.Reports[i] = updated
			}
		}

	case DeleteReport:
		reports := next.Reports[:0]
		for _, r := range next.Reports {
			if r.ID != a.ID {
				reports = append(reports, r)
			}
		}
		next.Reports = reports

	case RequestRevision:
		next = s.reduceRequestRevision(next, a)

	case SetConnectionStatus:
		next.IsConnected = a.Connected

	case UpdateSyncTime:
		now := s.now()
		next.LastSyncTime = &now

	case SyncReportFromRemote:
		synced := cloneReport(a.Report)
		progress.Derive(&synced)
		found := false
		for i := range next.Reports {
			if next.Reports[i].ID == synced.ID {
				next.Reports[i] = synced
				found = true
			}
		}
		if !found {
			next.Reports = append(next.Reports, synced)
		}
		now := s.now()
		next.LastSyncTime = &now

	case SyncTaskFromRemote:
		// A report we have never seen is left alone: no phantom
		// reports from out-of-order events.
		for i := range next.Reports {
			if next.Reports[i].ID != a.ReportID {
				continue
			}
			for j := range next.Reports[i].Assignments {
				if next.Reports[i].Assignments[j].ID == a.Assignment.ID {
					next.Reports[i].Assignments[j] = a.Assignment
				}
			}
			progress.Derive(&next.Reports[i])
		}
		now := s.now()
		next.LastSyncTime = &now

	default:
		s.log.WithField("action", fmt.Sprintf("%T", action)).Warn("unknown action ignored")
	}

	return next
}

func (s *Store) reduceRequestRevision(state State, a RequestRevision) State {
	now := s.now()

	for i := range state.Reports {
		if state.Reports[i].ID != a.ReportID {
			continue
		}
		report := &state.Reports[i]

		for j := range report.Assignments {
			if report.Assignments[j].StaffName != a.StaffName {
				continue
			}
			report.Assignments[j].Status = model.AssignmentRevisionRequested
			report.Assignments[j].RevisionNotes = a.RevisionNotes
			report.Assignments[j].RevisionRequestedAt = &now
		}

		actor := "Koordinator"
		if state.CurrentUser != nil {
			actor = state.CurrentUser.DisplayName()
		}
		report.Workflow = append(report.Workflow, model.WorkflowEntry{
			ID:        uuid.New().String(),
			ReportID:  report.ID,
			Action:    "Revisi diminta untuk " + a.StaffName,
			User:      actor,
			Timestamp: now,
			Status:    "completed",
		})

		progress.Derive(report)
	}

	return state
}

func upsertUser(users []model.User, user model.User) []model.User {
	for i := range users {
		if users[i].ID == user.ID {
			users[i] = user
			return users
		}
	}
	return append(users, user)
}

// persist writes the restricted snapshot. Failures are logged, never
// raised: the in-memory state stays authoritative for the session.
func (s *Store) persist() {
	if s.slot == nil {
		return
	}

	snapshot := persistedState{
		Users:           s.state.Users,
		Reports:         s.state.Reports,
		CurrentUser:     s.state.CurrentUser,
		IsAuthenticated: s.state.IsAuthenticated,
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		s.log.WithError(err).Warn("failed to encode session snapshot")
		return
	}
	if err := s.slot.Write(model.SnapshotKey, data); err != nil {
		s.log.WithError(err).Warn("failed to persist session snapshot")
	}
}
