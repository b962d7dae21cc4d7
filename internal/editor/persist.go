package editor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tordrt/erdcanvas/internal/layout"
	"github.com/tordrt/erdcanvas/internal/schema"
	"github.com/tordrt/erdcanvas/internal/store"
)

// Record is the persisted editor state
type Record struct {
	Schema    *schema.Schema `json:"schema"`
	Positions *layout.Layout `json:"positions"`
}

// Save writes the schema and layout to the store
func (e *Editor) Save(ctx context.Context) error {
	if e.store == nil {
		return nil
	}
	data, err := json.Marshal(Record{Schema: e.schema, Positions: e.layout})
	if err != nil {
		return fmt.Errorf("failed to encode editor state: %w", err)
	}
	if err := e.store.Set(ctx, e.key, data); err != nil {
		return fmt.Errorf("failed to save editor state: %w", err)
	}
	return nil
}

// Load replaces the state with the saved record. It reports false, keeping
// the current state, when nothing is saved or the saved data is unusable;
// only store failures are returned as errors.
func (e *Editor) Load(ctx context.Context) (bool, error) {
	if e.store == nil {
		return false, nil
	}
	data, err := e.store.Get(ctx, e.key)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load editor state: %w", err)
	}

	rec, err := DecodeRecord(data)
	if err != nil {
		e.logger.Printf("warning: failed to load saved schema data: %v", err)
		return false, nil
	}

	e.schema = rec.Schema
	e.layout = rec.Positions
	e.selected = ""
	e.cancelDrag()
	e.history.Reset()
	e.redraw()
	return true, nil
}

// DecodeRecord parses a saved record, rejects schemas with missing, empty or
// duplicate tables, normalizes the schema and brings the layout in line with it
func DecodeRecord(data []byte) (Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("failed to parse record: %w", err)
	}
	if rec.Schema == nil {
		return Record{}, fmt.Errorf("record has no schema")
	}
	if err := rec.Schema.CheckTables(); err != nil {
		return Record{}, fmt.Errorf("invalid schema: %w", err)
	}
	rec.Schema.Normalize()
	if rec.Positions == nil {
		rec.Positions = layout.New()
	}
	rec.Positions.Sync(rec.Schema)
	return rec, nil
}
