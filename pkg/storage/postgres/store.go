// Package postgres is the storage backend the sandbox uses when a database
// URL is configured.
package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/Loyalty-lt/sdk-go/pkg/storage"
)

type store struct {
	shops        *shopStore
	cards        *cardStore
	offers       *offerStore
	transactions *transactionStore
}

// NewStore creates a new PostgreSQL based Storage interface.
func NewStore(db *sqlx.DB) storage.Interface {
	return &store{
		shops:        newShopStore(db),
		cards:        newCardStore(db),
		offers:       newOfferStore(db),
		transactions: newTransactionStore(db),
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
