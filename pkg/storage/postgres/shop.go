package postgres

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/Loyalty-lt/sdk-go/pkg/model"
	"github.com/Loyalty-lt/sdk-go/pkg/storage"
)

type shopStore struct {
	db *sqlx.DB
}

func newShopStore(db *sqlx.DB) *shopStore {
	return &shopStore{db: db}
}

func (s *shopStore) FetchAll() ([]model.Shop, error) {
	shops := make([]model.Shop, 0)
	query := "SELECT * FROM shops ORDER BY id"
	if err := s.db.Select(&shops, query); err != nil {
		return nil, errors.Wrap(err, "failed to fetch all shops")
	}

	return shops, nil
}

func (s *shopStore) FindByID(id int) (*model.Shop, error) {
	m := model.Shop{}
	query := "SELECT * FROM shops WHERE id=$1"
	if err := s.db.Get(&m, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, storage.ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to find shop")
	}

	return &m, nil
}

func (s *shopStore) Create(m *model.Shop) error {
	m.CreatedAt = time.Now().Round(time.Second).UTC()
	m.UpdatedAt = m.CreatedAt

	query := `INSERT INTO shops
		(name, address, phone, email, website, description, opening_hours, is_active, partner_id, created_at, updated_at)
		VALUES (:name, :address, :phone, :email, :website, :description, :opening_hours, :is_active, :partner_id, :created_at, :updated_at)
		RETURNING id`
	rows, err := s.db.NamedQuery(query, m)
	if err != nil {
		return errors.Wrap(err, "failed to create shop")
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&m.ID); err != nil {
			return errors.Wrap(err, "failed to read shop id")
		}
	}

	return nil
}
