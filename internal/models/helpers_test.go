package models

import (
	"testing"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

func TestRepoStatusTerminal(t *testing.T) {
	tests := []struct {
		status RepoStatus
		want   bool
	}{
		{RepoStatusInProgress, false},
		{RepoStatusCompleted, true},
		{RepoStatusFailed, true},
		{"", false},
	}
	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.want {
			t.Errorf("RepoStatus(%q).Terminal() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestRecordIDString(t *testing.T) {
	id := surrealmodels.RecordID{Table: "repository", ID: "abc123"}
	s, err := RecordIDString(id)
	if err != nil {
		t.Fatalf("RecordIDString failed: %v", err)
	}
	if s != "abc123" {
		t.Errorf("expected abc123, got %q", s)
	}
}

func TestRecordIDStringNonString(t *testing.T) {
	id := surrealmodels.RecordID{Table: "repository", ID: 42}
	if _, err := RecordIDString(id); err == nil {
		t.Error("expected error for non-string ID")
	}
}

func TestMustRecordIDStringPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for non-string ID")
		}
	}()
	MustRecordIDString(surrealmodels.RecordID{Table: "repository", ID: 42})
}
