package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"sushiDelivery/models"
)

// OrderRepository persists orders and their frozen cart lines.
type OrderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new OrderRepository.
func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderColumns = `id, customer_name, phone, street, number, sector, city, references_note, total,
lat, lng, precision, matched_number, maps_url, waze_url, status, estimated_prep_minutes,
payment_status, payment_method, due_method, created_at, created_by, pack_until, packed, paid_at,
route_distance_m, route_duration_s, straight_line_m`

// Save inserts the order or updates its mutable fields. Lines are written
// only on first insert; an existing order keeps the lines it was created with.
func (r *OrderRepository) Save(ctx context.Context, o *models.Order) error {
	if o == nil {
		return errors.New("order is nil")
	}
	if o.ID == "" {
		return errors.New("order id is empty")
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	var routeDist, routeDur sql.NullFloat64
	if o.Route != nil {
		routeDist = sql.NullFloat64{Float64: o.Route.DistanceMeters, Valid: true}
		routeDur = sql.NullFloat64{Float64: o.Route.DurationSeconds, Valid: true}
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO orders (`+orderColumns+`)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
ON CONFLICT(id) DO UPDATE SET
  status = excluded.status,
  payment_status = excluded.payment_status,
  paid_at = excluded.paid_at,
  pack_until = excluded.pack_until,
  packed = excluded.packed`,
		o.ID, o.Customer.Name, o.Customer.Phone, o.Customer.Street, o.Customer.Number, o.Customer.Sector,
		o.Customer.City, o.Customer.References, o.Total,
		o.Location.Lat, o.Location.Lng, string(o.Location.Precision), o.Location.MatchedNumber,
		o.MapsURL, o.WazeURL, string(o.Status), o.EstimatedPrepMinutes,
		string(o.PaymentStatus), string(o.PaymentMethod), string(o.DueMethod),
		formatTime(o.CreatedAt), string(o.CreatedBy), nullTime(o.PackUntil), o.Packed, nullTime(o.PaidAt),
		routeDist, routeDur, o.StraightLineMeters); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("upsert order %s: %w", o.ID, err)
	}

	var existing int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM order_lines WHERE order_id = ?`, o.ID).Scan(&existing); err != nil {
		_ = tx.Rollback()
		return err
	}
	if existing == 0 {
		for i, l := range o.Lines {
			p := l.Promotion
			if _, err := tx.ExecContext(ctx, `INSERT INTO order_lines (order_id, position, promotion_id, name, description, original_price, unit_price, prep_minutes, quantity) VALUES (?,?,?,?,?,?,?,?,?)`,
				o.ID, i, p.ID, p.Name, p.Description, p.OriginalPrice, p.Price, p.PrepMinutes, l.Quantity); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("insert line %d of order %s: %w", i, o.ID, err)
			}
		}
	}
	return tx.Commit()
}

// GetByID fetches an order with its lines. Returns nil, nil when absent.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	lines, err := r.linesFor(ctx, `WHERE order_id = ?`, id)
	if err != nil {
		return nil, err
	}
	o.Lines = lines[o.ID]
	return o, nil
}

// List returns every order, newest first.
func (r *OrderRepository) List(ctx context.Context) ([]*models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	var out []*models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	// Lines are loaded after the order cursor is closed; the pool holds one connection.
	lines, err := r.linesFor(ctx, "")
	if err != nil {
		return nil, err
	}
	for _, o := range out {
		o.Lines = lines[o.ID]
	}
	return out, nil
}

func (r *OrderRepository) linesFor(ctx context.Context, where string, args ...any) (map[string][]models.CartLine, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT order_id, promotion_id, name, description, original_price, unit_price, prep_minutes, quantity FROM order_lines `+where+` ORDER BY order_id, position`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string][]models.CartLine{}
	for rows.Next() {
		var orderID string
		var l models.CartLine
		if err := rows.Scan(&orderID, &l.Promotion.ID, &l.Promotion.Name, &l.Promotion.Description, &l.Promotion.OriginalPrice, &l.Promotion.Price, &l.Promotion.PrepMinutes, &l.Quantity); err != nil {
			return nil, err
		}
		out[orderID] = append(out[orderID], l)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(s rowScanner) (*models.Order, error) {
	var o models.Order
	var precision, status, paymentStatus, paymentMethod, dueMethod, createdAt, createdBy string
	var packUntil, paidAt sql.NullString
	var routeDist, routeDur sql.NullFloat64
	err := s.Scan(&o.ID, &o.Customer.Name, &o.Customer.Phone, &o.Customer.Street, &o.Customer.Number, &o.Customer.Sector,
		&o.Customer.City, &o.Customer.References, &o.Total,
		&o.Location.Lat, &o.Location.Lng, &precision, &o.Location.MatchedNumber,
		&o.MapsURL, &o.WazeURL, &status, &o.EstimatedPrepMinutes,
		&paymentStatus, &paymentMethod, &dueMethod, &createdAt, &createdBy, &packUntil, &o.Packed, &paidAt,
		&routeDist, &routeDur, &o.StraightLineMeters)
	if err != nil {
		return nil, err
	}
	o.Location.Precision = models.Precision(precision)
	o.Status = models.OrderStatus(status)
	o.PaymentStatus = models.PaymentStatus(paymentStatus)
	o.PaymentMethod = models.PaymentMethod(paymentMethod)
	o.DueMethod = models.PaymentMethod(dueMethod)
	o.CreatedBy = models.Role(createdBy)
	if o.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("order %s created_at: %w", o.ID, err)
	}
	if o.PackUntil, err = timePtr(packUntil); err != nil {
		return nil, fmt.Errorf("order %s pack_until: %w", o.ID, err)
	}
	if o.PaidAt, err = timePtr(paidAt); err != nil {
		return nil, fmt.Errorf("order %s paid_at: %w", o.ID, err)
	}
	if routeDist.Valid && routeDur.Valid {
		o.Route = &models.RouteMeta{DistanceMeters: routeDist.Float64, DurationSeconds: routeDur.Float64}
	}
	return &o, nil
}
