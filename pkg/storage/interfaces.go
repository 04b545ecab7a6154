package storage

import "github.com/Loyalty-lt/sdk-go/pkg/model"

// Interface is implemented by the storage backends of the sandbox server.
type Interface interface {
	Shops() ShopStore
	Cards() CardStore
	Offers() OfferStore
	Transactions() TransactionStore
}

// ShopStore is responsible for managing the Shop model.
type ShopStore interface {
	FetchAll() ([]model.Shop, error)
	FindByID(id int) (*model.Shop, error)
	Create(m *model.Shop) error
}

// CardStore is responsible for managing the LoyaltyCard model.
type CardStore interface {
	FetchAll() ([]model.LoyaltyCard, error)
	FindByID(id int) (*model.LoyaltyCard, error)
	FindByNumber(number string) (*model.LoyaltyCard, error)
	Create(m *model.LoyaltyCard) error
	AdjustBalance(id, delta int) (*model.LoyaltyCard, error)
}

// OfferStore is responsible for managing the Offer model.
type OfferStore interface {
	FetchAll() ([]model.Offer, error)
	FindByID(id int) (*model.Offer, error)
	Create(m *model.Offer) error
	Update(m *model.Offer) error
	Delete(id int) error
}

// TransactionStore is responsible for managing the PointsTransaction model.
type TransactionStore interface {
	FetchAll() ([]model.PointsTransaction, error)
	FetchByCard(cardID int) ([]model.PointsTransaction, error)
	Create(m *model.PointsTransaction) error
}
