package postgres

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/Loyalty-lt/sdk-go/pkg/model"
	"github.com/Loyalty-lt/sdk-go/pkg/storage"
)

type cardStore struct {
	db *sqlx.DB
}

func newCardStore(db *sqlx.DB) *cardStore {
	return &cardStore{db: db}
}

func (s *cardStore) FetchAll() ([]model.LoyaltyCard, error) {
	cards := make([]model.LoyaltyCard, 0)
	query := "SELECT * FROM loyalty_cards ORDER BY id"
	if err := s.db.Select(&cards, query); err != nil {
		return nil, errors.Wrap(err, "failed to fetch all cards")
	}

	return cards, nil
}

func (s *cardStore) FindByID(id int) (*model.LoyaltyCard, error) {
	m := model.LoyaltyCard{}
	query := "SELECT * FROM loyalty_cards WHERE id=$1"
	if err := s.db.Get(&m, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, storage.ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to find card")
	}

	return &m, nil
}

func (s *cardStore) FindByNumber(number string) (*model.LoyaltyCard, error) {
	m := model.LoyaltyCard{}
	query := "SELECT * FROM loyalty_cards WHERE card_number=$1"
	if err := s.db.Get(&m, query, number); err != nil {
		if err == sql.ErrNoRows {
			return nil, storage.ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to find card by number")
	}

	return &m, nil
}

func (s *cardStore) Create(m *model.LoyaltyCard) error {
	if m.CardType == "" {
		m.CardType = "standard"
	}
	m.IsActive = true
	m.CreatedAt = time.Now().Round(time.Second).UTC()
	m.UpdatedAt = m.CreatedAt

	query := `INSERT INTO loyalty_cards
		(user_id, card_number, card_type, brand_name, points_balance, expires_at, is_active, is_third_party, qr_code, barcode, created_at, updated_at)
		VALUES (:user_id, :card_number, :card_type, :brand_name, :points_balance, :expires_at, :is_active, :is_third_party, :qr_code, :barcode, :created_at, :updated_at)
		RETURNING id`
	rows, err := s.db.NamedQuery(query, m)
	if err != nil {
		return errors.Wrap(err, "failed to create card")
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&m.ID); err != nil {
			return errors.Wrap(err, "failed to read card id")
		}
	}

	return nil
}

// AdjustBalance books the delta atomically. The balance guard lives in the
// query so two concurrent redemptions cannot overdraw the card.
func (s *cardStore) AdjustBalance(id, delta int) (*model.LoyaltyCard, error) {
	m := model.LoyaltyCard{}
	query := `UPDATE loyalty_cards
		SET points_balance = points_balance + $1, updated_at = $2
		WHERE id = $3 AND points_balance + $1 >= 0
		RETURNING *`
	err := s.db.Get(&m, query, delta, time.Now().Round(time.Second).UTC(), id)
	if err == nil {
		return &m, nil
	}
	if err != sql.ErrNoRows {
		return nil, errors.Wrap(err, "failed to adjust card balance")
	}

	// No row updated: either the card is unknown or the guard rejected
	// the delta.
	if _, err := s.FindByID(id); err != nil {
		return nil, err
	}

	return nil, storage.ErrInsufficientFunds
}
