package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/celerix-dev/celerix-apiforge/pkg/schema"
)

// MemStore is a thread-safe in-memory RecordStore with optional write-through persistence.
// When a persister is attached, a write is applied in memory only after its snapshot reached disk.
type MemStore struct {
	mu sync.RWMutex
	// Structure: [userID][apiName]record
	data      map[string]map[string]schema.UserAPIRecord
	persister *Persistence
	logger    *zap.Logger
}

// NewMemStore initializes a store.
// It accepts existing data (from LoadAll) and a persister, which may be nil.
func NewMemStore(initialData map[string]map[string]schema.UserAPIRecord, p *Persistence, logger *zap.Logger) *MemStore {
	if initialData == nil {
		initialData = make(map[string]map[string]schema.UserAPIRecord)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemStore{
		data:      initialData,
		persister: p,
		logger:    logger.With(zap.String("component", "MemStore")),
	}
}

// Close releases the store. Writes are already on disk when Save and Delete return.
func (m *MemStore) Close() error {
	return nil
}

func (m *MemStore) Save(ctx context.Context, apiName string, rec schema.UserAPIRecord) error {
	if err := CheckRecord(apiName, rec); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.copyUserData(rec.UserID)
	next[apiName] = rec
	if err := m.persist(rec.UserID, next); err != nil {
		return err
	}
	m.data[rec.UserID] = next
	return nil
}

func (m *MemStore) Get(ctx context.Context, userID, apiName string) (schema.UserAPIRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	apis, ok := m.data[userID]
	if !ok {
		return schema.UserAPIRecord{}, ErrUserNotFound
	}
	rec, ok := apis[apiName]
	if !ok {
		return schema.UserAPIRecord{}, ErrAPINotFound
	}
	return rec, nil
}

func (m *MemStore) GetResource(ctx context.Context, userID, apiName, resource string) (schema.ResourceSchema, error) {
	rec, err := m.Get(ctx, userID, apiName)
	if err != nil {
		return schema.ResourceSchema{}, err
	}
	return ResourceOf(rec, apiName, resource)
}

func (m *MemStore) Delete(ctx context.Context, userID, apiName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	apis, ok := m.data[userID]
	if !ok {
		return ErrUserNotFound
	}
	if _, ok := apis[apiName]; !ok {
		return ErrAPINotFound
	}

	next := m.copyUserData(userID)
	delete(next, apiName)
	if err := m.persist(userID, next); err != nil {
		return err
	}
	if len(next) == 0 {
		delete(m.data, userID)
	} else {
		m.data[userID] = next
	}
	return nil
}

func (m *MemStore) ListUsers(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]string, 0, len(m.data))
	for id := range m.data {
		list = append(list, id)
	}
	sort.Strings(list)
	return list, nil
}

func (m *MemStore) ListAPIs(ctx context.Context, userID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	apis, ok := m.data[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	list := make([]string, 0, len(apis))
	for name := range apis {
		list = append(list, name)
	}
	sort.Strings(list)
	return list, nil
}

// copyUserData copies the user's record map. Records themselves are immutable values.
// It MUST be called while holding m.mu.
func (m *MemStore) copyUserData(userID string) map[string]schema.UserAPIRecord {
	original := m.data[userID]
	userCopy := make(map[string]schema.UserAPIRecord, len(original)+1)
	for name, rec := range original {
		userCopy[name] = rec
	}
	return userCopy
}

// persist writes the user's next snapshot. Holding m.mu keeps snapshots of one user in write order.
func (m *MemStore) persist(userID string, snapshot map[string]schema.UserAPIRecord) error {
	if m.persister == nil {
		return nil
	}
	if err := m.persister.SaveUser(userID, snapshot); err != nil {
		m.logger.Error("Failed to persist user records", zap.String("userId", userID), zap.Error(err))
		return fmt.Errorf("failed to persist records of user %s: %w", userID, err)
	}
	return nil
}
