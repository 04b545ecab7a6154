// Package memory is the storage backend used when the sandbox runs without
// a database. Everything is lost on restart.
package memory

import "github.com/Loyalty-lt/sdk-go/pkg/storage"

type store struct {
	shops        *shopStore
	cards        *cardStore
	offers       *offerStore
	transactions *transactionStore
}

// NewStore creates a new in-memory based Storage interface.
func NewStore() storage.Interface {
	return &store{
		shops:        newShopStore(),
		cards:        newCardStore(),
		offers:       newOfferStore(),
		transactions: newTransactionStore(),
	}
}

func (s *store) Shops() storage.ShopStore {
	return s.shops
}

func (s *store) Cards() storage.CardStore {
	return s.cards
}

func (s *store) Offers() storage.OfferStore {
	return s.offers
}

func (s *store) Transactions() storage.TransactionStore {
	return s.transactions
}
