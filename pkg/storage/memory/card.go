package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/Loyalty-lt/sdk-go/pkg/model"
	"github.com/Loyalty-lt/sdk-go/pkg/storage"
)

type cardStore struct {
	store  map[int]model.LoyaltyCard
	nextID int
	sync.RWMutex
}

func newCardStore() *cardStore {
	return &cardStore{
		store:  make(map[int]model.LoyaltyCard),
		nextID: 1,
	}
}

func (s *cardStore) FetchAll() ([]model.LoyaltyCard, error) {
	s.RLock()
	defer s.RUnlock()

	models := make([]model.LoyaltyCard, 0, len(s.store))
	for _, m := range s.store {
		models = append(models, m)
	}
	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })

	return models, nil
}

func (s *cardStore) FindByID(id int) (*model.LoyaltyCard, error) {
	s.RLock()
	defer s.RUnlock()
	if m, ok := s.store[id]; ok {
		return &m, nil
	}

	return nil, storage.ErrNotFound
}

func (s *cardStore) FindByNumber(number string) (*model.LoyaltyCard, error) {
	s.RLock()
	defer s.RUnlock()

	for _, m := range s.store {
		if m.CardNumber == number {
			return &m, nil
		}
	}

	return nil, storage.ErrNotFound
}

func (s *cardStore) Create(m *model.LoyaltyCard) error {
	s.Lock()
	defer s.Unlock()

	m.ID = s.getNextID()
	if m.CardType == "" {
		m.CardType = "standard"
	}
	m.IsActive = true
	m.CreatedAt = time.Now().Round(time.Second).UTC()
	m.UpdatedAt = m.CreatedAt

	s.store[m.ID] = *m

	return nil
}

func (s *cardStore) AdjustBalance(id, delta int) (*model.LoyaltyCard, error) {
	s.Lock()
	defer s.Unlock()

	m, ok := s.store[id]
	if !ok {
		return nil, storage.ErrNotFound
	}

	if m.PointsBalance+delta < 0 {
		return nil, storage.ErrInsufficientFunds
	}

	m.PointsBalance += delta
	m.UpdatedAt = time.Now().Round(time.Second).UTC()
	s.store[id] = m

	return &m, nil
}

func (s *cardStore) getNextID() int {
	id := s.nextID
	s.nextID++
	return id
}
