// Package history remembers recently typed addresses per form field.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"fleetconsole/internal/domain"
	"fleetconsole/internal/storage"
	"fleetconsole/internal/utils"
)

const (
	MaxEntries = 10
	keyPrefix  = "addressHistory:"
)

type Store struct {
	backend storage.Store
	mu      sync.Mutex
}

func New(backend storage.Store) *Store {
	return &Store{backend: backend}
}

func normalizeField(field string) (string, error) {
	field = utils.FoldKey(field)
	if field == "" || strings.ContainsAny(field, ": ") {
		return "", domain.ValidationError{Field: "field", Msg: "invalid address field"}
	}
	return field, nil
}

// List returns the entries for field, most recent first.
func (s *Store) List(ctx context.Context, field string) ([]string, error) {
	field, err := normalizeField(field)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, field)
}

func (s *Store) load(ctx context.Context, field string) ([]string, error) {
	raw, ok, err := s.backend.Get(ctx, keyPrefix+field)
	if err != nil {
		return nil, fmt.Errorf("load address history: %w", err)
	}
	out := []string{}
	if !ok {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		// unreadable history is dropped rather than blocking input
		return []string{}, nil
	}
	return out, nil
}

// Save moves value to the front of field's history, dropping duplicates
// (case-insensitive) and evicting beyond MaxEntries.
func (s *Store) Save(ctx context.Context, field, value string) ([]string, error) {
	field, err := normalizeField(field)
	if err != nil {
		return nil, err
	}
	value = utils.NormalizeSpace(value)
	if value == "" {
		return nil, domain.ValidationError{Field: "value", Msg: "address is required"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.load(ctx, field)
	if err != nil {
		return nil, err
	}
	next := make([]string, 0, MaxEntries)
	next = append(next, value)
	for _, v := range cur {
		if len(next) == MaxEntries {
			break
		}
		if utils.FoldKey(v) == utils.FoldKey(value) {
			continue
		}
		next = append(next, v)
	}

	raw, err := json.Marshal(next)
	if err != nil {
		return nil, err
	}
	if err := s.backend.SetMany(ctx, map[string]string{keyPrefix + field: string(raw)}); err != nil {
		return nil, fmt.Errorf("save address history: %w", err)
	}
	return next, nil
}

func (s *Store) Clear(ctx context.Context, field string) error {
	field, err := normalizeField(field)
	if err != nil {
		return err
	}
	return s.backend.Delete(ctx, keyPrefix+field)
}
