package postgres

import (
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/Loyalty-lt/sdk-go/pkg/model"
)

type transactionStore struct {
	db *sqlx.DB
}

func newTransactionStore(db *sqlx.DB) *transactionStore {
	return &transactionStore{db: db}
}

func (s *transactionStore) FetchAll() ([]model.PointsTransaction, error) {
	txs := make([]model.PointsTransaction, 0)
	query := "SELECT * FROM points_transactions ORDER BY id"
	if err := s.db.Select(&txs, query); err != nil {
		return nil, errors.Wrap(err, "failed to fetch all transactions")
	}

	return txs, nil
}

func (s *transactionStore) FetchByCard(cardID int) ([]model.PointsTransaction, error) {
	txs := make([]model.PointsTransaction, 0)
	query := "SELECT * FROM points_transactions WHERE loyalty_card_id=$1 ORDER BY id"
	if err := s.db.Select(&txs, query, cardID); err != nil {
		return nil, errors.Wrap(err, "failed to fetch card transactions")
	}

	return txs, nil
}

func (s *transactionStore) Create(m *model.PointsTransaction) error {
	m.CreatedAt = time.Now().Round(time.Second).UTC()

	query := `INSERT INTO points_transactions
		(loyalty_card_id, points, type, amount, description, reference_id, shop_id, created_at)
		VALUES (:loyalty_card_id, :points, :type, :amount, :description, :reference_id, :shop_id, :created_at)
		RETURNING id`
	rows, err := s.db.NamedQuery(query, m)
	if err != nil {
		return errors.Wrap(err, "failed to create transaction")
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&m.ID); err != nil {
			return errors.Wrap(err, "failed to read transaction id")
		}
	}

	return nil
}
