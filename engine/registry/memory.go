package registry

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/kashf-sd/kashf/engine/domain"
	"github.com/kashf-sd/kashf/pkg/fn"
	"github.com/kashf-sd/kashf/pkg/repo"
)

// MemoryStore is an in-process Store with the same uniqueness rules as
// Neo4jStore. Safe for concurrent use.
type MemoryStore struct {
	mu        sync.RWMutex
	byID      map[string]domain.FoundVehicle
	byChassis map[string]string
	order     []string
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:      make(map[string]domain.FoundVehicle),
		byChassis: make(map[string]string),
	}
}

var _ Store = (*MemoryStore)(nil)

func (m *MemoryStore) Insert(_ context.Context, v domain.FoundVehicle) error {
	v = withID(v)
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[v.ID]; ok {
		return fmt.Errorf("registry insert: %w: id %s", domain.ErrAlreadyExists, v.ID)
	}
	if v.ChassisDigits != "" {
		if _, ok := m.byChassis[v.ChassisDigits]; ok {
			return fmt.Errorf("registry insert: %w: chassis %s", domain.ErrAlreadyExists, v.ChassisDigits)
		}
		m.byChassis[v.ChassisDigits] = v.ID
	}
	m.byID[v.ID] = v
	m.order = append(m.order, v.ID)
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (domain.FoundVehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.byID[id]
	if !ok {
		return domain.FoundVehicle{}, fmt.Errorf("registry get: %w: %s", domain.ErrNotFound, id)
	}
	return v, nil
}

// Search returns the newest uploads first, like Neo4jStore.
func (m *MemoryStore) Search(_ context.Context, q domain.SearchQuery) ([]domain.FoundVehicle, error) {
	q = q.Normalized()
	if q.Chassis == "" && q.Plate == "" {
		return nil, domain.NewValidationError("query", "", domain.ErrEmptyQuery)
	}

	m.mu.RLock()
	var out []domain.FoundVehicle
	for _, id := range m.order {
		v := m.byID[id]
		chassisHit := q.Chassis != "" && v.ChassisDigits != "" && strings.Contains(v.ChassisDigits, q.Chassis)
		plateHit := q.Plate != "" && v.PlateDigits == q.Plate
		if chassisHit || plateHit {
			out = append(out, v)
		}
	}
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].UploadedAt.After(out[j].UploadedAt) })
	return out, nil
}

func (m *MemoryStore) Recent(_ context.Context, page repo.ListOpts) ([]domain.FoundVehicle, error) {
	limit := page.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	m.mu.RLock()
	all := make([]domain.FoundVehicle, 0, len(m.order))
	for i := len(m.order) - 1; i >= 0; i-- {
		all = append(all, m.byID[m.order[i]])
	}
	m.mu.RUnlock()

	sort.SliceStable(all, func(i, j int) bool { return all[i].UploadedAt.After(all[j].UploadedAt) })
	if page.Offset >= len(all) {
		return []domain.FoundVehicle{}, nil
	}
	return fn.Take(all[max(page.Offset, 0):], limit), nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.byID[id]
	if !ok {
		return fmt.Errorf("registry delete: %w: %s", domain.ErrNotFound, id)
	}
	delete(m.byID, id)
	if v.ChassisDigits != "" {
		delete(m.byChassis, v.ChassisDigits)
	}
	m.order = slices.DeleteFunc(m.order, func(o string) bool { return o == id })
	return nil
}

func (m *MemoryStore) Count(context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byID), nil
}
