package models

import (
	"testing"
)

func TestIsValidMilestoneTransition(t *testing.T) {
	tests := []struct {
		from     string
		to       string
		expected bool
	}{
		// Forward path
		{MilestoneStatusPending, MilestoneStatusInProgress, true},
		{MilestoneStatusPending, MilestoneStatusCompleted, true},
		{MilestoneStatusInProgress, MilestoneStatusCompleted, true},

		// Overdue from the sweep
		{MilestoneStatusPending, MilestoneStatusOverdue, true},
		{MilestoneStatusInProgress, MilestoneStatusOverdue, true},

		// Overdue work can still resume and finish
		{MilestoneStatusOverdue, MilestoneStatusInProgress, true},
		{MilestoneStatusOverdue, MilestoneStatusCompleted, true},

		// Completed never reverts
		{MilestoneStatusCompleted, MilestoneStatusPending, false},
		{MilestoneStatusCompleted, MilestoneStatusInProgress, false},
		{MilestoneStatusCompleted, MilestoneStatusOverdue, false},

		// No backward movement
		{MilestoneStatusInProgress, MilestoneStatusPending, false},
		{MilestoneStatusOverdue, MilestoneStatusPending, false},

		{"nonexistent", MilestoneStatusPending, false},
		{MilestoneStatusPending, "nonexistent", false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			result := IsValidMilestoneTransition(tt.from, tt.to)
			if result != tt.expected {
				t.Errorf("IsValidMilestoneTransition(%q, %q) = %v, want %v", tt.from, tt.to, result, tt.expected)
			}
		})
	}
}

func TestIsUserSettableMilestoneStatus(t *testing.T) {
	if !IsUserSettableMilestoneStatus(MilestoneStatusInProgress) {
		t.Error("in_progress should be user-settable")
	}
	if !IsUserSettableMilestoneStatus(MilestoneStatusCompleted) {
		t.Error("completed should be user-settable")
	}
	if IsUserSettableMilestoneStatus(MilestoneStatusOverdue) {
		t.Error("overdue is sweep-only, not user-settable")
	}
	if IsUserSettableMilestoneStatus(MilestoneStatusPending) {
		t.Error("pending is the initial status, not a user target")
	}
}

func TestCompletionPercent(t *testing.T) {
	tests := []struct {
		name      string
		completed int
		total     int
		expected  string
	}{
		{"no milestones", 0, 0, "0"},
		{"none done", 0, 4, "0"},
		{"half done", 2, 4, "50"},
		{"all done", 4, 4, "100"},
		{"one third", 1, 3, "33.33"},
		{"two thirds", 2, 3, "66.67"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CompletionPercent(tt.completed, tt.total)
			if got.String() != tt.expected {
				t.Errorf("CompletionPercent(%d, %d) = %s, want %s", tt.completed, tt.total, got, tt.expected)
			}
		})
	}
}
