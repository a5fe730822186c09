// Package leavetype maps provider leave-type ids to the organization's
// absence categories.
package leavetype

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrMalformedReference is returned when the reference file is missing,
// empty or unparsable. Computations depending on it must not proceed.
var ErrMalformedReference = errors.New("malformed leave-type reference data")

const (
	Vacation = "Urlaub"
	Illness  = "Krankheit"
	Office   = "Office"
)

type entry struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// Catalog is an immutable id to category mapping.
type Catalog struct {
	types map[string]string
}

// Parse reads the JSON reference format: [{"id": "...", "type": "Urlaub"}].
func Parse(data []byte) (*Catalog, error) {
	var entries []entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedReference, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no leave types defined", ErrMalformedReference)
	}

	types := make(map[string]string, len(entries))
	for i, e := range entries {
		if e.ID == "" || e.Type == "" {
			return nil, fmt.Errorf("%w: entry %d lacks id or type", ErrMalformedReference, i)
		}
		types[e.ID] = e.Type
	}
	return &Catalog{types: types}, nil
}

// Category returns the category for a leave-type id.
func (c *Catalog) Category(id string) (string, bool) {
	t, ok := c.types[id]
	return t, ok
}

// Is reports whether id belongs to one of the given categories.
func (c *Catalog) Is(id string, categories map[string]bool) bool {
	t, ok := c.types[id]
	return ok && categories[t]
}

// Source loads a catalog. Implementations re-read their backing data on
// every call so edits take effect without a restart.
type Source interface {
	Load() (*Catalog, error)
}

// File is a Source backed by a JSON file on disk.
type File string

func (f File) Load() (*Catalog, error) {
	data, err := os.ReadFile(string(f))
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrMalformedReference, string(f), err)
	}
	return Parse(data)
}

// Static is a Source that always returns the same catalog.
type Static map[string]string

func (s Static) Load() (*Catalog, error) {
	if len(s) == 0 {
		return nil, fmt.Errorf("%w: no leave types defined", ErrMalformedReference)
	}
	types := make(map[string]string, len(s))
	for id, t := range s {
		types[id] = t
	}
	return &Catalog{types: types}, nil
}

// Set builds a lookup set from category names.
func Set(categories ...string) map[string]bool {
	set := make(map[string]bool, len(categories))
	for _, c := range categories {
		set[c] = true
	}
	return set
}
