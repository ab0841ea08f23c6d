// Package testutil provides recording mocks of the access control and
// metadata interfaces for tests across the module.
package testutil

import (
	"context"
	"sync"

	"github.com/nickyhof/matview/access"
	"github.com/nickyhof/matview/core"
	"github.com/nickyhof/matview/metadata"
	"github.com/nickyhof/matview/session"
)

// Recorder collects call names in order. Mocks sharing a Recorder give a
// single ordering across collaborators.
type Recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *Recorder) record(call string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
}

// Calls returns the recorded calls in order.
func (r *Recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// === Access Control Mock ===

// MockAccessControl implements access.AccessControl. Unset functions allow
// the request.
type MockAccessControl struct {
	Recorder *Recorder

	CheckCanDeleteFromTableFn        func(ctx context.Context, sc access.SecurityContext, name core.QualifiedObjectName) error
	CheckCanInsertIntoTableFn        func(ctx context.Context, sc access.SecurityContext, name core.QualifiedObjectName) error
	CheckCanCreateMaterializedViewFn func(ctx context.Context, sc access.SecurityContext, name core.QualifiedObjectName) error
	CheckCanDropMaterializedViewFn   func(ctx context.Context, sc access.SecurityContext, name core.QualifiedObjectName) error
	CheckCanShowMaterializedViewsFn  func(ctx context.Context, sc access.SecurityContext, catalog, schema string) error
}

var _ access.AccessControl = (*MockAccessControl)(nil)

func (m *MockAccessControl) record(call string) {
	if m.Recorder != nil {
		m.Recorder.record(call)
	}
}

func (m *MockAccessControl) CheckCanDeleteFromTable(ctx context.Context, sc access.SecurityContext, name core.QualifiedObjectName) error {
	m.record("CheckCanDeleteFromTable " + name.String())
	if m.CheckCanDeleteFromTableFn != nil {
		return m.CheckCanDeleteFromTableFn(ctx, sc, name)
	}
	return nil
}

func (m *MockAccessControl) CheckCanInsertIntoTable(ctx context.Context, sc access.SecurityContext, name core.QualifiedObjectName) error {
	m.record("CheckCanInsertIntoTable " + name.String())
	if m.CheckCanInsertIntoTableFn != nil {
		return m.CheckCanInsertIntoTableFn(ctx, sc, name)
	}
	return nil
}

func (m *MockAccessControl) CheckCanCreateMaterializedView(ctx context.Context, sc access.SecurityContext, name core.QualifiedObjectName) error {
	m.record("CheckCanCreateMaterializedView " + name.String())
	if m.CheckCanCreateMaterializedViewFn != nil {
		return m.CheckCanCreateMaterializedViewFn(ctx, sc, name)
	}
	return nil
}

func (m *MockAccessControl) CheckCanDropMaterializedView(ctx context.Context, sc access.SecurityContext, name core.QualifiedObjectName) error {
	m.record("CheckCanDropMaterializedView " + name.String())
	if m.CheckCanDropMaterializedViewFn != nil {
		return m.CheckCanDropMaterializedViewFn(ctx, sc, name)
	}
	return nil
}

func (m *MockAccessControl) CheckCanShowMaterializedViews(ctx context.Context, sc access.SecurityContext, catalog, schema string) error {
	m.record("CheckCanShowMaterializedViews " + catalog + "." + schema)
	if m.CheckCanShowMaterializedViewsFn != nil {
		return m.CheckCanShowMaterializedViewsFn(ctx, sc, catalog, schema)
	}
	return nil
}

// === Metadata Mock ===

// MockMetadata implements metadata.Metadata. Calling a method whose
// function is unset panics.
type MockMetadata struct {
	Recorder *Recorder

	RefreshMaterializedViewFn      func(ctx context.Context, s *session.Session, name core.QualifiedObjectName) ([]string, error)
	GetMaterializedViewFn          func(ctx context.Context, s *session.Session, name core.QualifiedObjectName) (*core.MaterializedViewDefinition, error)
	GetMaterializedViewFreshnessFn func(ctx context.Context, s *session.Session, name core.QualifiedObjectName) (core.MaterializedViewFreshness, error)
	CreateMaterializedViewFn       func(ctx context.Context, s *session.Session, name core.QualifiedObjectName, definition *core.MaterializedViewDefinition, ignoreExisting bool) error
	DropMaterializedViewFn         func(ctx context.Context, s *session.Session, name core.QualifiedObjectName) error
	ListMaterializedViewsFn        func(ctx context.Context, s *session.Session, catalog, schema string) ([]core.QualifiedObjectName, error)
	MarkRefreshedFn                func(ctx context.Context, s *session.Session, name core.QualifiedObjectName) error
}

var _ metadata.Metadata = (*MockMetadata)(nil)

func (m *MockMetadata) record(call string) {
	if m.Recorder != nil {
		m.Recorder.record(call)
	}
}

func (m *MockMetadata) RefreshMaterializedView(ctx context.Context, s *session.Session, name core.QualifiedObjectName) ([]string, error) {
	m.record("RefreshMaterializedView " + name.String())
	if m.RefreshMaterializedViewFn != nil {
		return m.RefreshMaterializedViewFn(ctx, s, name)
	}
	panic("unexpected call to MockMetadata.RefreshMaterializedView")
}

func (m *MockMetadata) GetMaterializedView(ctx context.Context, s *session.Session, name core.QualifiedObjectName) (*core.MaterializedViewDefinition, error) {
	m.record("GetMaterializedView " + name.String())
	if m.GetMaterializedViewFn != nil {
		return m.GetMaterializedViewFn(ctx, s, name)
	}
	panic("unexpected call to MockMetadata.GetMaterializedView")
}

func (m *MockMetadata) GetMaterializedViewFreshness(ctx context.Context, s *session.Session, name core.QualifiedObjectName) (core.MaterializedViewFreshness, error) {
	m.record("GetMaterializedViewFreshness " + name.String())
	if m.GetMaterializedViewFreshnessFn != nil {
		return m.GetMaterializedViewFreshnessFn(ctx, s, name)
	}
	panic("unexpected call to MockMetadata.GetMaterializedViewFreshness")
}

func (m *MockMetadata) CreateMaterializedView(ctx context.Context, s *session.Session, name core.QualifiedObjectName, definition *core.MaterializedViewDefinition, ignoreExisting bool) error {
	m.record("CreateMaterializedView " + name.String())
	if m.CreateMaterializedViewFn != nil {
		return m.CreateMaterializedViewFn(ctx, s, name, definition, ignoreExisting)
	}
	panic("unexpected call to MockMetadata.CreateMaterializedView")
}

func (m *MockMetadata) DropMaterializedView(ctx context.Context, s *session.Session, name core.QualifiedObjectName) error {
	m.record("DropMaterializedView " + name.String())
	if m.DropMaterializedViewFn != nil {
		return m.DropMaterializedViewFn(ctx, s, name)
	}
	panic("unexpected call to MockMetadata.DropMaterializedView")
}

func (m *MockMetadata) ListMaterializedViews(ctx context.Context, s *session.Session, catalog, schema string) ([]core.QualifiedObjectName, error) {
	m.record("ListMaterializedViews " + catalog + "." + schema)
	if m.ListMaterializedViewsFn != nil {
		return m.ListMaterializedViewsFn(ctx, s, catalog, schema)
	}
	panic("unexpected call to MockMetadata.ListMaterializedViews")
}

func (m *MockMetadata) MarkRefreshed(ctx context.Context, s *session.Session, name core.QualifiedObjectName) error {
	m.record("MarkRefreshed " + name.String())
	if m.MarkRefreshedFn != nil {
		return m.MarkRefreshedFn(ctx, s, name)
	}
	panic("unexpected call to MockMetadata.MarkRefreshed")
}
