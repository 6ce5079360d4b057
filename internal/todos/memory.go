package todos

import (
	"context"
	"sort"
	"sync"
	"time"
)

type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]*Todo
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[int64]*Todo)}
}

func (s *MemoryStore) Create(_ context.Context, userID int64, title string, description *string) (*Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	now := time.Now().UTC()
	t := &Todo{
		ID:          s.nextID,
		Title:       title,
		Description: cloneString(description),
		UserID:      userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.byID[t.ID] = t
	return clone(t), nil
}

func (s *MemoryStore) List(_ context.Context, userID int64) ([]Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Todo, 0)
	for _, t := range s.byID {
		if t.UserID == userID {
			out = append(out, *clone(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) Get(_ context.Context, userID, id int64) (*Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.byID[id]
	if !ok || t.UserID != userID {
		return nil, ErrNotFound
	}
	return clone(t), nil
}

func (s *MemoryStore) Update(_ context.Context, userID, id int64, p Patch) (*Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.byID[id]
	if !ok || t.UserID != userID {
		return nil, ErrNotFound
	}
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = cloneString(p.Description)
	}
	if p.IsCompleted != nil {
		t.IsCompleted = *p.IsCompleted
	}
	t.UpdatedAt = time.Now().UTC()
	return clone(t), nil
}

func (s *MemoryStore) Delete(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.byID[id]
	if !ok || t.UserID != userID {
		return ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

func clone(t *Todo) *Todo {
	cp := *t
	cp.Description = cloneString(t.Description)
	return &cp
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
