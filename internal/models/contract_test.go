package models

import "testing"

func TestIsValidContractTransition(t *testing.T) {
	tests := []struct {
		from     string
		to       string
		expected bool
	}{
		{ContractStatusActive, ContractStatusCompleted, true},
		{ContractStatusActive, ContractStatusCancelled, true},
		{ContractStatusCompleted, ContractStatusActive, false},
		{ContractStatusCompleted, ContractStatusCancelled, false},
		{ContractStatusCancelled, ContractStatusActive, false},
		{"nonexistent", ContractStatusCompleted, false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			if got := IsValidContractTransition(tt.from, tt.to); got != tt.expected {
				t.Errorf("IsValidContractTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.expected)
			}
		})
	}
}

func TestIsValidBidTransition(t *testing.T) {
	tests := []struct {
		from     string
		to       string
		expected bool
	}{
		{BidStatusPending, BidStatusAccepted, true},
		{BidStatusPending, BidStatusRejected, true},
		{BidStatusPending, BidStatusWithdrawn, true},
		{BidStatusAccepted, BidStatusRejected, false},
		{BidStatusRejected, BidStatusPending, false},
		{BidStatusWithdrawn, BidStatusAccepted, false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			if got := IsValidBidTransition(tt.from, tt.to); got != tt.expected {
				t.Errorf("IsValidBidTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.expected)
			}
		})
	}
}

func TestIsValidProjectTransition(t *testing.T) {
	tests := []struct {
		from     string
		to       string
		expected bool
	}{
		{ProjectStatusOpen, ProjectStatusInProgress, true},
		{ProjectStatusOpen, ProjectStatusCancelled, true},
		{ProjectStatusInProgress, ProjectStatusCompleted, true},
		{ProjectStatusInProgress, ProjectStatusCancelled, false},
		{ProjectStatusOpen, ProjectStatusCompleted, false},
		{ProjectStatusCompleted, ProjectStatusOpen, false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			if got := IsValidProjectTransition(tt.from, tt.to); got != tt.expected {
				t.Errorf("IsValidProjectTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.expected)
			}
		})
	}
}
