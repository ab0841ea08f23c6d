package core

import (
	"encoding/json"
	"fmt"
)

// MaterializedViewFreshness reports whether a materialized view's stored
// content matches its defining query. When the connector can describe the
// stale subset as a filter, it is carried as the incremental refresh
// predicate.
//
// The type is a comparable value: == and map keys compare both fields,
// including the predicate of a fresh view.
type MaterializedViewFreshness struct {
	fresh        bool
	predicate    string
	hasPredicate bool
}

func NewMaterializedViewFreshness(isFresh bool, incrementalRefreshPredicate *string) MaterializedViewFreshness {
	freshness := MaterializedViewFreshness{fresh: isFresh}
	if incrementalRefreshPredicate != nil {
		freshness.predicate = *incrementalRefreshPredicate
		freshness.hasPredicate = true
	}
	return freshness
}

func (f MaterializedViewFreshness) IsFresh() bool {
	return f.fresh
}

func (f MaterializedViewFreshness) IncrementalRefreshPredicate() (string, bool) {
	return f.predicate, f.hasPredicate
}

func (f MaterializedViewFreshness) Equal(other MaterializedViewFreshness) bool {
	return f == other
}

func (f MaterializedViewFreshness) String() string {
	predicate := "<none>"
	if f.hasPredicate {
		predicate = f.predicate
	}
	return fmt.Sprintf("MaterializedViewFreshness{isFresh=%t, incrementalRefreshPredicate=%s}", f.fresh, predicate)
}

type freshnessRecord struct {
	IsFresh                     bool    `json:"isFresh"`
	IncrementalRefreshPredicate *string `json:"incrementalRefreshPredicate,omitempty"`
}

func (f MaterializedViewFreshness) MarshalJSON() ([]byte, error) {
	record := freshnessRecord{IsFresh: f.fresh}
	if f.hasPredicate {
		record.IncrementalRefreshPredicate = &f.predicate
	}
	return json.Marshal(record)
}

func (f *MaterializedViewFreshness) UnmarshalJSON(data []byte) error {
	var record freshnessRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return err
	}
	*f = NewMaterializedViewFreshness(record.IsFresh, record.IncrementalRefreshPredicate)
	return nil
}
