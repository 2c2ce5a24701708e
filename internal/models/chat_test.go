package models

import (
	"testing"

	"github.com/google/uuid"
)

func TestIsValidChatTransition(t *testing.T) {
	tests := []struct {
		from     string
		to       string
		expected bool
	}{
		// Happy path
		{ChatStatusActive, ChatStatusCompleted, true},
		{ChatStatusActive, ChatStatusArchived, true},
		{ChatStatusActive, ChatStatusClosed, true},
		{ChatStatusCompleted, ChatStatusArchived, true},

		// Terminal states stay terminal
		{ChatStatusClosed, ChatStatusActive, false},
		{ChatStatusClosed, ChatStatusArchived, false},
		{ChatStatusArchived, ChatStatusActive, false},
		{ChatStatusArchived, ChatStatusClosed, false},
		{ChatStatusCompleted, ChatStatusActive, false},
		{ChatStatusCompleted, ChatStatusClosed, false},

		// Unknown statuses
		{"nonexistent", ChatStatusActive, false},
		{ChatStatusActive, "nonexistent", false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			result := IsValidChatTransition(tt.from, tt.to)
			if result != tt.expected {
				t.Errorf("IsValidChatTransition(%q, %q) = %v, want %v", tt.from, tt.to, result, tt.expected)
			}
		})
	}
}

func TestAllChatStatusesHaveTransitionEntry(t *testing.T) {
	allStatuses := []string{ChatStatusActive, ChatStatusCompleted, ChatStatusArchived, ChatStatusClosed}
	for _, status := range allStatuses {
		if _, ok := ValidChatTransitions[status]; !ok {
			t.Errorf("status %q missing from ValidChatTransitions map", status)
		}
	}
}

func TestChatRoomIsParticipant(t *testing.T) {
	client := uuid.New()
	freelancer := uuid.New()
	stranger := uuid.New()

	room := ChatRoom{ClientID: client, FreelancerID: freelancer}

	if !room.IsParticipant(client) {
		t.Error("client should be a participant")
	}
	if !room.IsParticipant(freelancer) {
		t.Error("freelancer should be a participant")
	}
	if room.IsParticipant(stranger) {
		t.Error("stranger should not be a participant")
	}
}

func TestChatRoomSenderTypeFor(t *testing.T) {
	client := uuid.New()
	freelancer := uuid.New()
	room := ChatRoom{ClientID: client, FreelancerID: freelancer}

	if got := room.SenderTypeFor(client); got != SenderClient {
		t.Errorf("SenderTypeFor(client) = %q, want %q", got, SenderClient)
	}
	if got := room.SenderTypeFor(freelancer); got != SenderFreelancer {
		t.Errorf("SenderTypeFor(freelancer) = %q, want %q", got, SenderFreelancer)
	}
}
