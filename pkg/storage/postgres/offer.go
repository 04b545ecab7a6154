package postgres

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/Loyalty-lt/sdk-go/pkg/model"
	"github.com/Loyalty-lt/sdk-go/pkg/storage"
)

type offerStore struct {
	db *sqlx.DB
}

func newOfferStore(db *sqlx.DB) *offerStore {
	return &offerStore{db: db}
}

func (s *offerStore) FetchAll() ([]model.Offer, error) {
	offers := make([]model.Offer, 0)
	query := "SELECT * FROM offers ORDER BY id"
	if err := s.db.Select(&offers, query); err != nil {
		return nil, errors.Wrap(err, "failed to fetch all offers")
	}

	return offers, nil
}

func (s *offerStore) FindByID(id int) (*model.Offer, error) {
	m := model.Offer{}
	query := "SELECT * FROM offers WHERE id=$1"
	if err := s.db.Get(&m, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, storage.ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to find offer")
	}

	return &m, nil
}

func (s *offerStore) Create(m *model.Offer) error {
	m.CreatedAt = time.Now().Round(time.Second).UTC()
	m.UpdatedAt = m.CreatedAt

	query := `INSERT INTO offers
		(title, description, type, discount_percentage, discount_amount, points_required, points_earned, promo_code, starts_at, ends_at, is_active, is_featured, created_at, updated_at)
		VALUES (:title, :description, :type, :discount_percentage, :discount_amount, :points_required, :points_earned, :promo_code, :starts_at, :ends_at, :is_active, :is_featured, :created_at, :updated_at)
		RETURNING id`
	rows, err := s.db.NamedQuery(query, m)
	if err != nil {
		return errors.Wrap(err, "failed to create offer")
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&m.ID); err != nil {
			return errors.Wrap(err, "failed to read offer id")
		}
	}

	return nil
}

func (s *offerStore) Update(m *model.Offer) error {
	m.UpdatedAt = time.Now().Round(time.Second).UTC()

	query := `UPDATE offers SET
		title=:title, description=:description, type=:type,
		discount_percentage=:discount_percentage, discount_amount=:discount_amount,
		points_required=:points_required, points_earned=:points_earned,
		promo_code=:promo_code, starts_at=:starts_at, ends_at=:ends_at,
		is_active=:is_active, is_featured=:is_featured, updated_at=:updated_at
		WHERE id=:id`
	res, err := s.db.NamedExec(query, m)
	if err != nil {
		return errors.Wrap(err, "failed to update offer")
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (s *offerStore) Delete(id int) error {
	res, err := s.db.Exec("DELETE FROM offers WHERE id=$1", id)
	if err != nil {
		return errors.Wrap(err, "failed to delete offer")
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.ErrNotFound
	}

	return nil
}
