package ps

import (
	"testing"

	"github.com/nickyhof/matview/core"
)

func TestRefreshStateRoundTrip(t *testing.T) {
	p := newTestPersistence(t)
	name := core.NewQualifiedObjectName("cat", "sch", "mv")

	if _, ok, err := p.ReadRefreshState(name); ok || err != nil {
		t.Fatalf("Expected no refresh state, got %v, %v", ok, err)
	}

	created, err := p.CreateMaterializedView(name, testDefinition("SELECT 1"), testIdentity)
	if err != nil {
		t.Fatalf("Failed to create view: %v", err)
	}

	txn, state, err := p.WriteRefreshState(name, testIdentity)
	if err != nil {
		t.Fatalf("WriteRefreshState failed: %v", err)
	}
	if state.BaseTransaction != created.Id {
		t.Errorf("Expected base %s, got %s", created.Id, state.BaseTransaction)
	}
	if p.LatestTransaction().Id != txn.Id {
		t.Errorf("Expected refresh commit at HEAD")
	}

	stored, ok, err := p.ReadRefreshState(name)
	if err != nil || !ok {
		t.Fatalf("ReadRefreshState failed: %v, %v", ok, err)
	}
	if stored.BaseTransaction != created.Id || stored.RefreshedBy != "test <test@test.com>" {
		t.Errorf("Unexpected refresh state %+v", stored)
	}
}

func TestWriteRefreshStateOnEmptyRepository(t *testing.T) {
	p := newTestPersistence(t)

	if _, _, err := p.WriteRefreshState(core.NewQualifiedObjectName("cat", "sch", "mv"), testIdentity); err == nil {
		t.Error("Expected error refreshing in an empty repository")
	}
}

func TestChangedPathsSince(t *testing.T) {
	p := newTestPersistence(t)
	name := core.NewQualifiedObjectName("cat", "sch", "mv")

	if _, err := p.CreateMaterializedView(name, testDefinition("SELECT 1"), testIdentity); err != nil {
		t.Fatalf("Failed to create view: %v", err)
	}
	_, state, err := p.WriteRefreshState(name, testIdentity)
	if err != nil {
		t.Fatalf("WriteRefreshState failed: %v", err)
	}

	changed, err := p.ChangedPathsSince(state.BaseTransaction)
	if err != nil {
		t.Fatalf("ChangedPathsSince failed: %v", err)
	}
	if len(changed) != 1 || !IsRefreshStatePath(changed[0]) {
		t.Errorf("Expected only the refresh state to change, got %v", changed)
	}

	other := core.NewQualifiedObjectName("cat", "sch", "other")
	if _, err := p.CreateMaterializedView(other, testDefinition("SELECT 2"), testIdentity); err != nil {
		t.Fatalf("Failed to create second view: %v", err)
	}

	changed, err = p.ChangedPathsSince(state.BaseTransaction)
	if err != nil {
		t.Fatalf("ChangedPathsSince failed: %v", err)
	}
	if len(changed) != 2 {
		t.Errorf("Expected refresh state and new view, got %v", changed)
	}
}

func TestIsRefreshStatePath(t *testing.T) {
	tests := map[string]bool{
		".matview/cat/sch/mv.refresh.json": true,
		".matview/cat/sch/mv.json":         false,
		"other/mv.refresh.json":            false,
	}
	for filePath, expected := range tests {
		if IsRefreshStatePath(filePath) != expected {
			t.Errorf("IsRefreshStatePath(%s): expected %t", filePath, expected)
		}
	}
}

func TestLatestTransactionTracksHead(t *testing.T) {
	p := newTestPersistence(t)

	first, err := p.WriteFileDirect("a", []byte("1"), testIdentity, "one")
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}
	second, err := p.WriteFileDirect("b", []byte("2"), testIdentity, "two")
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}

	latest := p.LatestTransaction()
	if latest.Id != second.Id || latest.Id == first.Id {
		t.Errorf("Expected HEAD %s, got %s", second.Id, latest.Id)
	}
	if latest.Author != "test <test@test.com>" {
		t.Errorf("Unexpected author %q", latest.Author)
	}
}
