package models

// Promotion is a sellable catalog entry. Prices are whole Chilean pesos.
type Promotion struct {
	ID            int64  `db:"id" json:"id"`
	Name          string `db:"name" json:"name"`
	Description   string `db:"description" json:"description"`
	OriginalPrice int64  `db:"original_price" json:"original_price"`
	Price         int64  `db:"price" json:"price"`
	PrepMinutes   int    `db:"prep_minutes" json:"prep_minutes"`
	Popular       bool   `db:"popular" json:"popular"`
}
