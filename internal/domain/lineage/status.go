package lineage

import (
	"fmt"
	"strings"
)

// BusinessStatus is the canonical status shared by every entity type.
// Per-type raw status fields are mapped into this set by a StatusResolver;
// the canonical status is always derived, never stored.
type BusinessStatus string

const (
	StatusDraft           BusinessStatus = "DRAFT"
	StatusSubmitted       BusinessStatus = "SUBMITTED"
	StatusPendingApproval BusinessStatus = "PENDING_APPROVAL"
	StatusApproved        BusinessStatus = "APPROVED"
	StatusRejected        BusinessStatus = "REJECTED"
	StatusSettled         BusinessStatus = "SETTLED"
	StatusReversed        BusinessStatus = "REVERSED"
	StatusCancelled       BusinessStatus = "CANCELLED"
)

// transitionTable is the single source of truth for legal status
// transitions. No entity type may override it.
var transitionTable = map[BusinessStatus][]BusinessStatus{
	StatusDraft:           {StatusSubmitted, StatusCancelled},
	StatusSubmitted:       {StatusPendingApproval, StatusDraft, StatusCancelled},
	StatusPendingApproval: {StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved:        {StatusSettled, StatusReversed},
	StatusRejected:        {StatusDraft, StatusCancelled},
	StatusSettled:         {StatusReversed},
	StatusReversed:        {},
	StatusCancelled:       {},
}

// IsValid checks if the status is a valid BusinessStatus
func (s BusinessStatus) IsValid() bool {
	_, ok := transitionTable[s]
	return ok
}

// String returns the string representation of BusinessStatus
func (s BusinessStatus) String() string {
	return string(s)
}

// IsTerminal reports whether the status has no outgoing transitions
func (s BusinessStatus) IsTerminal() bool {
	targets, ok := transitionTable[s]
	return ok && len(targets) == 0
}

// CanTransitionTo checks if the status can transition to the target status
func (s BusinessStatus) CanTransitionTo(target BusinessStatus) bool {
	for _, allowed := range transitionTable[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// AvailableTransitions returns the legal next states for a status. The
// returned slice is a copy; callers may mutate it freely.
func AvailableTransitions(status BusinessStatus) []BusinessStatus {
	targets := transitionTable[status]
	out := make([]BusinessStatus, len(targets))
	copy(out, targets)
	return out
}

// AllStatuses returns every member of the canonical status set
func AllStatuses() []BusinessStatus {
	return []BusinessStatus{
		StatusDraft,
		StatusSubmitted,
		StatusPendingApproval,
		StatusApproved,
		StatusRejected,
		StatusSettled,
		StatusReversed,
		StatusCancelled,
	}
}

// TransitionResult describes the outcome of a proposed status transition
type TransitionResult struct {
	Success bool           `json:"success"`
	From    BusinessStatus `json:"from"`
	To      BusinessStatus `json:"to"`
	Message string         `json:"message"`
	Reason  string         `json:"reason,omitempty"`
}

// Transition validates a proposed transition without performing it:
// committing the new status into the owning entity is the caller's
// responsibility. A transition to the current status succeeds as a no-op;
// an illegal transition fails with a message listing the legal next states.
func Transition(from, to BusinessStatus, reason string) TransitionResult {
	result := TransitionResult{From: from, To: to, Reason: reason}

	if !from.IsValid() || !to.IsValid() {
		result.Message = "unknown business status"
		return result
	}
	if from == to {
		result.Success = true
		result.Message = "status unchanged"
		return result
	}
	if !from.CanTransitionTo(to) {
		result.Message = fmt.Sprintf("cannot transition from %s to %s; legal next states: %s",
			from, to, formatStatuses(AvailableTransitions(from)))
		return result
	}

	result.Success = true
	result.Message = fmt.Sprintf("transitioned from %s to %s", from, to)
	return result
}

func formatStatuses(statuses []BusinessStatus) string {
	if len(statuses) == 0 {
		return "(none - terminal state)"
	}
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// Action is a business operation gated by the current canonical status
type Action string

const (
	ActionEdit    Action = "edit"
	ActionSubmit  Action = "submit"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionSettle  Action = "settle"
	ActionReverse Action = "reverse"
	ActionCancel  Action = "cancel"
)

// IsValid checks if the action is a known Action
func (a Action) IsValid() bool {
	switch a {
	case ActionEdit, ActionSubmit, ActionApprove, ActionReject,
		ActionSettle, ActionReverse, ActionCancel:
		return true
	}
	return false
}

// AllActions returns every gated business action
func AllActions() []Action {
	return []Action{
		ActionEdit, ActionSubmit, ActionApprove, ActionReject,
		ActionSettle, ActionReverse, ActionCancel,
	}
}

// CanPerformAction reports whether a business action is allowed for the
// current status. Actions are a convenience view layered on the
// transition table; cancel in particular follows the table, so it is not
// available from APPROVED even though APPROVED is not terminal.
func CanPerformAction(status BusinessStatus, action Action) bool {
	switch action {
	case ActionEdit, ActionSubmit:
		return status == StatusDraft || status == StatusRejected
	case ActionApprove, ActionReject:
		return status == StatusPendingApproval
	case ActionSettle:
		return status == StatusApproved
	case ActionReverse:
		return status == StatusApproved || status == StatusSettled
	case ActionCancel:
		return status.CanTransitionTo(StatusCancelled)
	}
	return false
}
