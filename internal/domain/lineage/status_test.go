package lineage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// legalTransitions mirrors the canonical table; the grid test below
// enumerates all 64 pairs against it.
var legalTransitions = map[BusinessStatus]map[BusinessStatus]bool{
	StatusDraft:           {StatusSubmitted: true, StatusCancelled: true},
	StatusSubmitted:       {StatusPendingApproval: true, StatusDraft: true, StatusCancelled: true},
	StatusPendingApproval: {StatusApproved: true, StatusRejected: true, StatusCancelled: true},
	StatusApproved:        {StatusSettled: true, StatusReversed: true},
	StatusRejected:        {StatusDraft: true, StatusCancelled: true},
	StatusSettled:         {StatusReversed: true},
	StatusReversed:        {},
	StatusCancelled:       {},
}

func TestBusinessStatus_IsValid(t *testing.T) {
	for _, status := range AllStatuses() {
		assert.True(t, status.IsValid(), "status %s", status)
	}
	assert.False(t, BusinessStatus("PAID").IsValid())
	assert.False(t, BusinessStatus("").IsValid())
}

func TestBusinessStatus_CanTransitionTo_FullGrid(t *testing.T) {
	statuses := AllStatuses()
	require.Len(t, statuses, 8)

	for _, from := range statuses {
		for _, to := range statuses {
			want := legalTransitions[from][to]
			assert.Equal(t, want, from.CanTransitionTo(to),
				"transition %s -> %s", from, to)
		}
	}
}

func TestBusinessStatus_Terminal(t *testing.T) {
	assert.True(t, StatusReversed.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.Empty(t, AvailableTransitions(StatusReversed))
	assert.Empty(t, AvailableTransitions(StatusCancelled))

	assert.False(t, StatusSettled.IsTerminal())
	assert.Equal(t, []BusinessStatus{StatusReversed}, AvailableTransitions(StatusSettled))
}

func TestAvailableTransitions_ReturnsCopy(t *testing.T) {
	first := AvailableTransitions(StatusDraft)
	require.NotEmpty(t, first)
	first[0] = StatusReversed

	second := AvailableTransitions(StatusDraft)
	assert.Equal(t, StatusSubmitted, second[0])
}

func TestTransition(t *testing.T) {
	tests := []struct {
		name        string
		from        BusinessStatus
		to          BusinessStatus
		wantSuccess bool
		wantMessage string
	}{
		{"legal", StatusDraft, StatusSubmitted, true, "transitioned from DRAFT to SUBMITTED"},
		{"noop", StatusApproved, StatusApproved, true, "status unchanged"},
		{"terminal noop", StatusCancelled, StatusCancelled, true, "status unchanged"},
		{"illegal", StatusDraft, StatusSettled, false, "cannot transition from DRAFT to SETTLED; legal next states: SUBMITTED, CANCELLED"},
		{"from terminal", StatusReversed, StatusDraft, false, "cannot transition from REVERSED to DRAFT; legal next states: (none - terminal state)"},
		{"unknown from", BusinessStatus("PAID"), StatusDraft, false, "unknown business status"},
		{"unknown to", StatusDraft, BusinessStatus("PAID"), false, "unknown business status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Transition(tt.from, tt.to, "")
			assert.Equal(t, tt.wantSuccess, result.Success)
			assert.Equal(t, tt.wantMessage, result.Message)
			assert.Equal(t, tt.from, result.From)
			assert.Equal(t, tt.to, result.To)
		})
	}
}

func TestTransition_CarriesReason(t *testing.T) {
	result := Transition(StatusPendingApproval, StatusRejected, "missing receipts")
	assert.True(t, result.Success)
	assert.Equal(t, "missing receipts", result.Reason)
}

func TestCanPerformAction(t *testing.T) {
	tests := []struct {
		status  BusinessStatus
		action  Action
		allowed bool
	}{
		{StatusDraft, ActionEdit, true},
		{StatusDraft, ActionSubmit, true},
		{StatusRejected, ActionEdit, true},
		{StatusRejected, ActionSubmit, true},
		{StatusSubmitted, ActionEdit, false},
		{StatusApproved, ActionEdit, false},

		{StatusPendingApproval, ActionApprove, true},
		{StatusPendingApproval, ActionReject, true},
		{StatusDraft, ActionApprove, false},
		{StatusApproved, ActionApprove, false},

		{StatusApproved, ActionSettle, true},
		{StatusSettled, ActionSettle, false},

		{StatusApproved, ActionReverse, true},
		{StatusSettled, ActionReverse, true},
		{StatusDraft, ActionReverse, false},

		{StatusDraft, ActionCancel, true},
		{StatusSubmitted, ActionCancel, true},
		{StatusPendingApproval, ActionCancel, true},
		{StatusRejected, ActionCancel, true},
		// Cancel follows the transition table: APPROVED has no edge to
		// CANCELLED, and terminal states allow nothing.
		{StatusApproved, ActionCancel, false},
		{StatusSettled, ActionCancel, false},
		{StatusReversed, ActionCancel, false},
		{StatusCancelled, ActionCancel, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status)+"_"+string(tt.action), func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanPerformAction(tt.status, tt.action))
		})
	}
}

func TestCanPerformAction_UnknownAction(t *testing.T) {
	assert.False(t, CanPerformAction(StatusDraft, Action("archive")))
	assert.False(t, Action("archive").IsValid())
	assert.True(t, ActionSettle.IsValid())
}
