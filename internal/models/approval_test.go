package models

import (
	"testing"
	"time"
)

func TestApprovalIsActiveAt(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	tests := []struct {
		name      string
		status    string
		expiresAt *time.Time
		expected  bool
	}{
		{"active without expiry", ApprovalStatusActive, nil, true},
		{"active not yet expired", ApprovalStatusActive, &future, true},
		{"active but expired", ApprovalStatusActive, &past, false},
		{"expires exactly now", ApprovalStatusActive, &now, false},
		{"revoked", ApprovalStatusRevoked, nil, false},
		{"expired status", ApprovalStatusExpired, &future, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Approval{Status: tt.status, ExpiresAt: tt.expiresAt}
			if got := a.IsActiveAt(now); got != tt.expected {
				t.Errorf("IsActiveAt() = %v, want %v", got, tt.expected)
			}
		})
	}
}
