package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"sushiDelivery/models"
)

// CustomerRepository stores the prefill address book keyed by normalized phone.
type CustomerRepository struct {
	db *sql.DB
}

func NewCustomerRepository(db *sql.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

const customerColumns = `phone_key, name, phone, street, number, sector, city, references_note, lat, lng, updated_at`

// Upsert inserts the customer or overwrites the existing record with the same phone key.
func (r *CustomerRepository) Upsert(ctx context.Context, c models.Customer) error {
	if c.PhoneKey == "" {
		c.PhoneKey = models.NormalizePhone(c.Phone)
	}
	if c.PhoneKey == "" {
		return errors.New("customer phone is empty")
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = time.Now()
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.db.ExecContext(ctx, `INSERT INTO customers (`+customerColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?)
ON CONFLICT(phone_key) DO UPDATE SET
  name = excluded.name, phone = excluded.phone, street = excluded.street, number = excluded.number,
  sector = excluded.sector, city = excluded.city, references_note = excluded.references_note,
  lat = excluded.lat, lng = excluded.lng, updated_at = excluded.updated_at`,
		c.PhoneKey, c.Name, c.Phone, c.Street, c.Number, c.Sector, c.City, c.References, c.Lat, c.Lng, formatTime(c.UpdatedAt))
	return err
}

// GetByPhone looks a customer up by any spelling of their phone number.
func (r *CustomerRepository) GetByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	c, err := scanCustomer(r.db.QueryRowContext(ctx, `SELECT `+customerColumns+` FROM customers WHERE phone_key = ?`, models.NormalizePhone(phone)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

// Search matches a case-insensitive name substring or a phone substring
// (spaces and dashes ignored). An empty query returns the most recent customers.
func (r *CustomerRepository) Search(ctx context.Context, query string, limit int) ([]models.Customer, error) {
	if limit <= 0 {
		limit = 10
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	q := strings.ToLower(strings.TrimSpace(query))
	var rows *sql.Rows
	var err error
	if q == "" {
		rows, err = r.db.QueryContext(ctx, `SELECT `+customerColumns+` FROM customers ORDER BY updated_at DESC LIMIT ?`, limit)
	} else {
		phone := models.NormalizePhone(q)
		rows, err = r.db.QueryContext(ctx, `SELECT `+customerColumns+` FROM customers
WHERE instr(lower(name), ?) > 0 OR (? <> '' AND instr(phone_key, ?) > 0)
ORDER BY updated_at DESC LIMIT ?`, q, phone, phone, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func scanCustomer(s rowScanner) (*models.Customer, error) {
	var c models.Customer
	var updated string
	if err := s.Scan(&c.PhoneKey, &c.Name, &c.Phone, &c.Street, &c.Number, &c.Sector, &c.City, &c.References, &c.Lat, &c.Lng, &updated); err != nil {
		return nil, err
	}
	t, err := parseTime(updated)
	if err != nil {
		return nil, err
	}
	c.UpdatedAt = t
	return &c, nil
}
