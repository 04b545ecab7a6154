package sandbox

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Loyalty-lt/sdk-go/pkg/model"
	"github.com/Loyalty-lt/sdk-go/pkg/storage"
)

func (s *Server) handleValidateCredentials(c echo.Context) error {
	return respond(c, http.StatusOK, map[string]interface{}{
		"valid":        true,
		"partner_id":   1,
		"partner_name": "Sandbox Partner",
		"scope":        "shop",
	})
}

func (s *Server) handleHealth(c echo.Context) error {
	return respond(c, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.cfg.BuildVersion,
	})
}

func (s *Server) handleSendAppLink(c echo.Context) error {
	req := struct {
		Phone        string `json:"phone"`
		ShopID       int    `json:"shop_id"`
		CustomerName string `json:"customer_name"`
		Language     string `json:"language"`
	}{}
	if err := c.Bind(&req); err != nil || req.Phone == "" {
		return fail(c, http.StatusBadRequest, "BAD_REQUEST", "phone number required")
	}
	if req.Language == "" {
		req.Language = "lt"
	}

	// The sandbox does not send SMS; accepting the request is enough for
	// the client side.
	return respond(c, http.StatusOK, map[string]interface{}{
		"sent_to":       req.Phone,
		"shop_id":       req.ShopID,
		"customer_name": req.CustomerName,
		"language":      req.Language,
	})
}

// sandboxCategories mirrors the category taxonomy of the hosted platform.
// The sandbox dataset is too small to derive them from stored offers.
var sandboxCategories = []string{"food", "beauty", "entertainment", "fuel", "retail"}

func (s *Server) handleFetchCategories(c echo.Context) error {
	return respond(c, http.StatusOK, sandboxCategories)
}

func (s *Server) handleFetchShops(c echo.Context) error {
	shops, err := s.store.Shops().FetchAll()
	if err != nil {
		return failStorage(c, err)
	}
	return respondPaged(c, shops, len(shops))
}

func (s *Server) handleGetShop(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return fail(c, http.StatusBadRequest, "BAD_REQUEST", "shop id must be numeric")
	}

	shop, err := s.store.Shops().FindByID(id)
	if err != nil {
		return failStorage(c, err)
	}
	return respond(c, http.StatusOK, shop)
}

func (s *Server) handleFetchCards(c echo.Context) error {
	cards, err := s.store.Cards().FetchAll()
	if err != nil {
		return failStorage(c, err)
	}

	if param := c.QueryParam("user_id"); param != "" {
		userID, err := strconv.Atoi(param)
		if err != nil {
			return fail(c, http.StatusBadRequest, "BAD_REQUEST", "user_id must be numeric")
		}
		filtered := make([]model.LoyaltyCard, 0)
		for _, card := range cards {
			if card.UserID == userID {
				filtered = append(filtered, card)
			}
		}
		cards = filtered
	}

	return respondPaged(c, cards, len(cards))
}

func (s *Server) handleGetCard(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return fail(c, http.StatusBadRequest, "BAD_REQUEST", "card id must be numeric")
	}

	card, err := s.store.Cards().FindByID(id)
	if err != nil {
		return failStorage(c, err)
	}
	return respond(c, http.StatusOK, card)
}

func (s *Server) handleGetCardByNumber(c echo.Context) error {
	card, err := s.store.Cards().FindByNumber(c.Param("number"))
	if err != nil {
		return failStorage(c, err)
	}
	return respond(c, http.StatusOK, card)
}

// handleGetCardInfo resolves a card by whichever lookup key the query
// carries, trying card_id, card_number and user_id in that order.
func (s *Server) handleGetCardInfo(c echo.Context) error {
	if param := c.QueryParam("card_id"); param != "" {
		id, err := strconv.Atoi(param)
		if err != nil {
			return fail(c, http.StatusBadRequest, "BAD_REQUEST", "card_id must be numeric")
		}
		card, err := s.store.Cards().FindByID(id)
		if err != nil {
			return failStorage(c, err)
		}
		return respond(c, http.StatusOK, card)
	}

	if number := c.QueryParam("card_number"); number != "" {
		card, err := s.store.Cards().FindByNumber(number)
		if err != nil {
			return failStorage(c, err)
		}
		return respond(c, http.StatusOK, card)
	}

	if param := c.QueryParam("user_id"); param != "" {
		userID, err := strconv.Atoi(param)
		if err != nil {
			return fail(c, http.StatusBadRequest, "BAD_REQUEST", "user_id must be numeric")
		}
		cards, err := s.store.Cards().FetchAll()
		if err != nil {
			return failStorage(c, err)
		}
		for _, card := range cards {
			if card.UserID == userID {
				return respond(c, http.StatusOK, card)
			}
		}
		return failStorage(c, storage.ErrNotFound)
	}

	return fail(c, http.StatusBadRequest, "BAD_REQUEST", "card_id, card_number or user_id required")
}

func (s *Server) handleGetBalance(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return fail(c, http.StatusBadRequest, "BAD_REQUEST", "card id must be numeric")
	}

	card, err := s.store.Cards().FindByID(id)
	if err != nil {
		return failStorage(c, err)
	}

	txs, err := s.store.Transactions().FetchByCard(id)
	if err != nil {
		return failStorage(c, err)
	}

	total := 0
	for _, tx := range txs {
		if tx.Type == model.TransactionEarned {
			total += tx.Points
		}
	}

	return respond(c, http.StatusOK, model.PointsBalance{
		TotalPoints:       total,
		AvailablePoints:   card.PointsBalance,
		TransactionsCount: len(txs),
	})
}

func (s *Server) handleFetchOffers(c echo.Context) error {
	offers, err := s.store.Offers().FetchAll()
	if err != nil {
		return failStorage(c, err)
	}
	return respondPaged(c, offers, len(offers))
}

func (s *Server) handleGetOffer(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return fail(c, http.StatusBadRequest, "BAD_REQUEST", "offer id must be numeric")
	}

	offer, err := s.store.Offers().FindByID(id)
	if err != nil {
		return failStorage(c, err)
	}
	return respond(c, http.StatusOK, offer)
}

func (s *Server) handleCreateOffer(c echo.Context) error {
	offer := model.Offer{}
	if err := c.Bind(&offer); err != nil {
		return fail(c, http.StatusBadRequest, "BAD_REQUEST", "malformed request body")
	}
	if offer.Title == "" {
		return fail(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "offer title required")
	}

	if err := s.store.Offers().Create(&offer); err != nil {
		return failStorage(c, err)
	}
	return respond(c, http.StatusCreated, offer)
}

func (s *Server) handleUpdateOffer(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return fail(c, http.StatusBadRequest, "BAD_REQUEST", "offer id must be numeric")
	}

	offer := model.Offer{}
	if err := c.Bind(&offer); err != nil {
		return fail(c, http.StatusBadRequest, "BAD_REQUEST", "malformed request body")
	}
	offer.ID = id

	if err := s.store.Offers().Update(&offer); err != nil {
		return failStorage(c, err)
	}
	return respond(c, http.StatusOK, offer)
}

func (s *Server) handleDeleteOffer(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return fail(c, http.StatusBadRequest, "BAD_REQUEST", "offer id must be numeric")
	}

	if err := s.store.Offers().Delete(id); err != nil {
		return failStorage(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type pointsRequest struct {
	LoyaltyCardID int     `json:"loyalty_card_id"`
	Points        int     `json:"points"`
	Amount        float64 `json:"amount"`
	Description   string  `json:"description"`
	ReferenceID   string  `json:"reference_id"`
	ShopID        int     `json:"shop_id"`
}

func (s *Server) handleAwardPoints(c echo.Context) error {
	return s.bookPoints(c, model.TransactionEarned)
}

func (s *Server) handleRedeemPoints(c echo.Context) error {
	return s.bookPoints(c, model.TransactionRedeemed)
}

func (s *Server) bookPoints(c echo.Context, kind model.TransactionType) error {
	req := pointsRequest{}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "BAD_REQUEST", "malformed request body")
	}
	if req.Points <= 0 {
		return fail(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "points must be positive")
	}

	delta := req.Points
	if kind == model.TransactionRedeemed {
		delta = -req.Points
	}

	if _, err := s.store.Cards().AdjustBalance(req.LoyaltyCardID, delta); err != nil {
		return failStorage(c, err)
	}

	tx := model.PointsTransaction{
		LoyaltyCardID: req.LoyaltyCardID,
		Points:        delta,
		Type:          kind,
		Amount:        req.Amount,
		Description:   req.Description,
		ReferenceID:   req.ReferenceID,
		ShopID:        req.ShopID,
	}
	if err := s.store.Transactions().Create(&tx); err != nil {
		return failStorage(c, err)
	}

	return respond(c, http.StatusCreated, tx)
}

func (s *Server) handleFetchTransactions(c echo.Context) error {
	var (
		txs []model.PointsTransaction
		err error
	)

	if param := c.QueryParam("loyalty_card_id"); param != "" {
		cardID, convErr := strconv.Atoi(param)
		if convErr != nil {
			return fail(c, http.StatusBadRequest, "BAD_REQUEST", "loyalty_card_id must be numeric")
		}
		txs, err = s.store.Transactions().FetchByCard(cardID)
	} else {
		txs, err = s.store.Transactions().FetchAll()
	}
	if err != nil {
		return failStorage(c, err)
	}

	return respondPaged(c, txs, len(txs))
}
