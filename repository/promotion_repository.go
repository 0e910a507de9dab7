package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"sushiDelivery/models"
)

// PromotionRepository reads and edits the promotion catalog.
type PromotionRepository struct {
	db *sql.DB
}

func NewPromotionRepository(db *sql.DB) *PromotionRepository {
	return &PromotionRepository{db: db}
}

// List returns the catalog ordered by id.
func (r *PromotionRepository) List(ctx context.Context) ([]models.Promotion, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, description, original_price, price, prep_minutes, popular FROM promotions ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Promotion
	for rows.Next() {
		var p models.Promotion
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.OriginalPrice, &p.Price, &p.PrepMinutes, &p.Popular); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetByID returns nil, nil when the promotion does not exist.
func (r *PromotionRepository) GetByID(ctx context.Context, id int64) (*models.Promotion, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var p models.Promotion
	err := r.db.QueryRowContext(ctx, `SELECT id, name, description, original_price, price, prep_minutes, popular FROM promotions WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.Description, &p.OriginalPrice, &p.Price, &p.PrepMinutes, &p.Popular)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// UpdatePrice changes the catalog price. Existing orders keep their snapshot.
func (r *PromotionRepository) UpdatePrice(ctx context.Context, id int64, price int64) error {
	if price < 0 {
		return errors.New("price cannot be negative")
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `UPDATE promotions SET price = ? WHERE id = ?`, price, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
