package state

import (
	"context"
	"slices"

	"github.com/tgienger/issues/internal/models"
)

// PendingToggle is returned by BeginToggle and carries what reconciliation
// needs once the backend answers
type PendingToggle struct {
	ID   string
	Done bool

	revision uint64
}

// BeginToggle flips the done flag of an issue immediately and returns the
// pending toggle. ok is false when the issue is not loaded.
func (s *Store) BeginToggle(id string) (PendingToggle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.IndexFunc(s.issues, func(issue models.Issue) bool { return issue.ID == id })
	if i < 0 {
		s.log.WithField("id", id).Error("toggle: issue not found")
		return PendingToggle{}, false
	}

	s.issues[i].Done = !s.issues[i].Done
	s.revisions[id]++
	return PendingToggle{ID: id, Done: s.issues[i].Done, revision: s.revisions[id]}, true
}

// SubmitToggle sends the new done value to the backend without touching state
func (s *Store) SubmitToggle(ctx context.Context, p PendingToggle) *models.IssueEcho {
	done := p.Done
	return s.backend.UpdateIssue(ctx, p.ID, models.IssueUpdate{Done: &done})
}

// FinishToggle reconciles a toggle with the backend's answer. A record is
// overlaid onto the local issue; a nil record keeps the optimistic value and
// raises a warning. Answers to superseded toggles, or for issues deleted in
// the meantime, are dropped.
func (s *Store) FinishToggle(p PendingToggle, echo *models.IssueEcho) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.IndexFunc(s.issues, func(issue models.Issue) bool { return issue.ID == p.ID })
	if i < 0 {
		s.log.WithField("id", p.ID).Debug("toggle: issue removed before reconciliation")
		return
	}
	if s.revisions[p.ID] != p.revision {
		s.log.WithField("id", p.ID).Debug("toggle: discarding stale response")
		return
	}

	if echo == nil {
		s.log.WithField("id", p.ID).Warn("toggle: backend unavailable, keeping local change")
		s.alert = &Alert{Kind: AlertWarning, Message: MsgToggleLocalOnly}
		return
	}

	merged := s.issues[i].Overlay(*echo)
	merged.ID = p.ID
	s.issues[i] = merged
}

// ToggleIssue runs a complete toggle: optimistic flip, backend update and
// reconciliation. It returns false when the issue is not loaded.
func (s *Store) ToggleIssue(ctx context.Context, id string) bool {
	p, ok := s.BeginToggle(id)
	if !ok {
		return false
	}
	s.FinishToggle(p, s.SubmitToggle(ctx, p))
	return true
}
