package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/Loyalty-lt/sdk-go/pkg/model"
	"github.com/Loyalty-lt/sdk-go/pkg/storage"
)

type shopStore struct {
	store  map[int]model.Shop
	nextID int
	sync.RWMutex
}

func newShopStore() *shopStore {
	return &shopStore{
		store:  make(map[int]model.Shop),
		nextID: 1,
	}
}

func (s *shopStore) FetchAll() ([]model.Shop, error) {
	s.RLock()
	defer s.RUnlock()

	models := make([]model.Shop, 0, len(s.store))
	for _, m := range s.store {
		models = append(models, m)
	}
	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })

	return models, nil
}

func (s *shopStore) FindByID(id int) (*model.Shop, error) {
	s.RLock()
	defer s.RUnlock()
	if m, ok := s.store[id]; ok {
		return &m, nil
	}

	return nil, storage.ErrNotFound
}

func (s *shopStore) Create(m *model.Shop) error {
	s.Lock()
	defer s.Unlock()

	m.ID = s.getNextID()
	m.CreatedAt = time.Now().Round(time.Second).UTC()
	m.UpdatedAt = m.CreatedAt

	s.store[m.ID] = *m

	return nil
}

func (s *shopStore) getNextID() int {
	id := s.nextID
	s.nextID++
	return id
}
