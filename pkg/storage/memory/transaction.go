package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/Loyalty-lt/sdk-go/pkg/model"
)

type transactionStore struct {
	store  map[int]model.PointsTransaction
	nextID int
	sync.RWMutex
}

func newTransactionStore() *transactionStore {
	return &transactionStore{
		store:  make(map[int]model.PointsTransaction),
		nextID: 1,
	}
}

func (s *transactionStore) FetchAll() ([]model.PointsTransaction, error) {
	s.RLock()
	defer s.RUnlock()

	models := make([]model.PointsTransaction, 0, len(s.store))
	for _, m := range s.store {
		models = append(models, m)
	}
	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })

	return models, nil
}

func (s *transactionStore) FetchByCard(cardID int) ([]model.PointsTransaction, error) {
	s.RLock()
	defer s.RUnlock()

	models := make([]model.PointsTransaction, 0)
	for _, m := range s.store {
		if m.LoyaltyCardID == cardID {
			models = append(models, m)
		}
	}
	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })

	return models, nil
}

func (s *transactionStore) Create(m *model.PointsTransaction) error {
	s.Lock()
	defer s.Unlock()

	m.ID = s.getNextID()
	m.CreatedAt = time.Now().Round(time.Second).UTC()

	s.store[m.ID] = *m

	return nil
}

func (s *transactionStore) getNextID() int {
	id := s.nextID
	s.nextID++
	return id
}
