package sandbox

import (
	"github.com/pkg/errors"

	"github.com/Loyalty-lt/sdk-go/pkg/model"
	"github.com/Loyalty-lt/sdk-go/pkg/storage"
)

// Seed loads a small demo dataset so the sandbox is usable right after
// start. Safe to skip when a persistent database already carries data.
func Seed(store storage.Interface) error {
	shop := model.Shop{
		Name:      "Sandbox Shop Vilnius",
		Address:   "Gedimino pr. 1, Vilnius",
		IsActive:  true,
		PartnerID: 1,
	}
	if err := store.Shops().Create(&shop); err != nil {
		return errors.Wrap(err, "failed to seed shop")
	}

	cards := []model.LoyaltyCard{
		{UserID: 1, CardNumber: "LT-0001", BrandName: "Sandbox", PointsBalance: 500},
		{UserID: 2, CardNumber: "LT-0002", BrandName: "Sandbox", PointsBalance: 40},
	}
	for i := range cards {
		if err := store.Cards().Create(&cards[i]); err != nil {
			return errors.Wrap(err, "failed to seed card")
		}
	}

	offer := model.Offer{
		Title:        "Welcome bonus",
		Description:  "Earn double points on the first purchase",
		Type:         model.OfferPointsMultiplier,
		PointsEarned: 100,
		IsActive:     true,
		IsFeatured:   true,
	}
	if err := store.Offers().Create(&offer); err != nil {
		return errors.Wrap(err, "failed to seed offer")
	}

	return nil
}
