package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/Loyalty-lt/sdk-go/pkg/model"
	"github.com/Loyalty-lt/sdk-go/pkg/storage"
)

type offerStore struct {
	store  map[int]model.Offer
	nextID int
	sync.RWMutex
}

func newOfferStore() *offerStore {
	return &offerStore{
		store:  make(map[int]model.Offer),
		nextID: 1,
	}
}

func (s *offerStore) FetchAll() ([]model.Offer, error) {
	s.RLock()
	defer s.RUnlock()

	models := make([]model.Offer, 0, len(s.store))
	for _, m := range s.store {
		models = append(models, m)
	}
	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })

	return models, nil
}

func (s *offerStore) FindByID(id int) (*model.Offer, error) {
	s.RLock()
	defer s.RUnlock()
	if m, ok := s.store[id]; ok {
		return &m, nil
	}

	return nil, storage.ErrNotFound
}

func (s *offerStore) Create(m *model.Offer) error {
	s.Lock()
	defer s.Unlock()

	m.ID = s.getNextID()
	m.CreatedAt = time.Now().Round(time.Second).UTC()
	m.UpdatedAt = m.CreatedAt

	s.store[m.ID] = *m

	return nil
}

func (s *offerStore) Update(m *model.Offer) error {
	s.Lock()
	defer s.Unlock()

	existing, ok := s.store[m.ID]
	if !ok {
		return storage.ErrNotFound
	}

	m.CreatedAt = existing.CreatedAt
	m.UpdatedAt = time.Now().Round(time.Second).UTC()
	s.store[m.ID] = *m

	return nil
}

func (s *offerStore) Delete(id int) error {
	s.Lock()
	defer s.Unlock()

	if _, ok := s.store[id]; !ok {
		return storage.ErrNotFound
	}

	delete(s.store, id)

	return nil
}

func (s *offerStore) getNextID() int {
	id := s.nextID
	s.nextID++
	return id
}
