package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/errors"
	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/models"
)

// MemoryObjectStore is an in-memory ObjectStore for tests and benchmarks.
type MemoryObjectStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryObjectStore creates an empty in-memory object store.
func NewMemoryObjectStore() *MemoryObjectStore {
	return &MemoryObjectStore{objects: make(map[string][]byte)}
}

func (s *MemoryObjectStore) Read(_ context.Context, reference string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[reference]
	if !ok {
		return nil, errors.New(errors.KindPermanent, "object not found").
			WithDetail("reference", reference)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (s *MemoryObjectStore) Write(_ context.Context, reference string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]byte, len(data))
	copy(stored, data)
	s.objects[reference] = stored
	return nil
}

// Len returns the number of stored objects.
func (s *MemoryObjectStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// References returns all stored references, sorted.
func (s *MemoryObjectStore) References() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	refs := make([]string, 0, len(s.objects))
	for ref := range s.objects {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs
}

// MemoryDeadLetterStore is an in-memory DeadLetterStore for tests.
type MemoryDeadLetterStore struct {
	mu      sync.Mutex
	records map[string]models.ErrorRecord
	order   []string
}

// NewMemoryDeadLetterStore creates an empty in-memory dead-letter store.
func NewMemoryDeadLetterStore() *MemoryDeadLetterStore {
	return &MemoryDeadLetterStore{records: make(map[string]models.ErrorRecord)}
}

func (s *MemoryDeadLetterStore) Enqueue(_ context.Context, rec models.ErrorRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[rec.ID]; !exists {
		s.order = append(s.order, rec.ID)
	}
	s.records[rec.ID] = rec
	return nil
}

func (s *MemoryDeadLetterStore) Dequeue(_ context.Context, max int) ([]models.ErrorRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ErrorRecord, 0, max)
	for _, id := range s.order {
		if len(out) >= max {
			break
		}
		if rec, ok := s.records[id]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *MemoryDeadLetterStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryDeadLetterStore) Update(_ context.Context, rec models.ErrorRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rec.ID]; !ok {
		return errors.New(errors.KindPermanent, "dead-letter record not found").
			WithDetail("id", rec.ID)
	}
	s.records[rec.ID] = rec
	return nil
}

// Len returns the number of stored records.
func (s *MemoryDeadLetterStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
