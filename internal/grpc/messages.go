package grpcserver

import (
	"sushiDelivery/internal/lifecycle"
	"sushiDelivery/internal/routing"
	"sushiDelivery/models"
)

type ResolveAddressRequest struct {
	Address models.Address `json:"address"`
}

type LocationResponse struct {
	Found    bool                     `json:"found"`
	Location *models.ResolvedLocation `json:"location,omitempty"`
}

type PlacePinRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type PreviewRouteRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type PreviewRouteResponse struct {
	Origin             string         `json:"origin"`
	Found              bool           `json:"found"`
	Route              *routing.Route `json:"route,omitempty"`
	DistanceKm         float64        `json:"distance_km"` // route distance, or straight line when no route
	StraightLineMeters float64        `json:"straight_line_meters"`
	MapsURL            string         `json:"maps_url"`
	WazeURL            string         `json:"waze_url"`
}

type ListPromotionsResponse struct {
	Promotions []models.Promotion `json:"promotions"`
}

type UpdatePromotionPriceRequest struct {
	PromotionID int64 `json:"promotion_id"`
	Price       int64 `json:"price"`
}

type SearchCustomersRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type SearchCustomersResponse struct {
	Customers []models.Customer `json:"customers"`
}

// CartItem references a catalog promotion; prices come from the catalog.
type CartItem struct {
	PromotionID int64 `json:"promotion_id"`
	Quantity    int   `json:"quantity"`
}

type CreateOrderRequest struct {
	Customer      models.CustomerInfo      `json:"customer"`
	Items         []CartItem               `json:"items"`
	Location      *models.ResolvedLocation `json:"location"`
	PaymentMethod models.PaymentMethod     `json:"payment_method"`
	PaymentStatus models.PaymentStatus     `json:"payment_status"`
	DueMethod     models.PaymentMethod     `json:"due_method,omitempty"`
}

type OrderRequest struct {
	OrderID string `json:"order_id"`
}

type TransitionRequest struct {
	OrderID string             `json:"order_id"`
	To      models.OrderStatus `json:"to"`
}

type OrderResponse struct {
	Order *models.Order `json:"order"`
}

type ListOrdersResponse struct {
	Orders []*models.Order `json:"orders"`
}

type DashboardResponse struct {
	Dashboard lifecycle.Dashboard `json:"dashboard"`
}
