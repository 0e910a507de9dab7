package repository

import (
	"context"

	"sushiDelivery/models"
)

// OrderRepositoryI defines persistence for Order entities.
type OrderRepositoryI interface {
	Save(ctx context.Context, o *models.Order) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	List(ctx context.Context) ([]*models.Order, error)
}

// CustomerRepositoryI defines operations on the customer address book.
type CustomerRepositoryI interface {
	Upsert(ctx context.Context, c models.Customer) error
	GetByPhone(ctx context.Context, phone string) (*models.Customer, error)
	Search(ctx context.Context, query string, limit int) ([]models.Customer, error)
}

// PromotionRepositoryI defines operations on the promotion catalog.
type PromotionRepositoryI interface {
	List(ctx context.Context) ([]models.Promotion, error)
	GetByID(ctx context.Context, id int64) (*models.Promotion, error)
	UpdatePrice(ctx context.Context, id int64, price int64) error
}

var (
	_ OrderRepositoryI     = (*OrderRepository)(nil)
	_ CustomerRepositoryI  = (*CustomerRepository)(nil)
	_ PromotionRepositoryI = (*PromotionRepository)(nil)
)
