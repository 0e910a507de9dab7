package grpcserver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"

	"sushiDelivery/internal/auth"
	"sushiDelivery/internal/geo"
	"sushiDelivery/internal/geocode"
	"sushiDelivery/internal/lifecycle"
	"sushiDelivery/internal/routing"
	"sushiDelivery/models"
	"sushiDelivery/repository"
)

// OrderServer bundles dependencies and implements OrderService.
type OrderServer struct {
	Store      *lifecycle.Store
	Resolver   geocode.AddressResolver
	Routes     routing.Provider
	Promotions repository.PromotionRepositoryI
	Customers  repository.CustomerRepositoryI
	Origin     geo.Point
	OriginName string
	Log        logrus.FieldLogger
}

var _ OrderServiceServer = (*OrderServer)(nil)

const defaultCustomerSearchLimit = 10

// toStatus maps lifecycle outcomes to gRPC status codes.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	var ve *lifecycle.ValidationError
	switch {
	case errors.As(err, &ve):
		return status.Error(codes.InvalidArgument, ve.Error())
	case errors.Is(err, lifecycle.ErrOrderNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, lifecycle.ErrWrongRole):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, lifecycle.ErrInvalidTransition), errors.Is(err, lifecycle.ErrPaymentDue):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	}
	return status.Errorf(codes.Internal, "%v", err)
}

func (s *OrderServer) ResolveAddress(ctx context.Context, req *ResolveAddressRequest) (*LocationResponse, error) {
	if _, err := auth.RequireRole(ctx, models.RoleCashier); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "address is required")
	}
	loc, err := s.Resolver.Resolve(ctx, req.Address)
	if err != nil {
		return nil, toStatus(err)
	}
	return &LocationResponse{Found: loc != nil, Location: loc}, nil
}

func (s *OrderServer) PlacePin(ctx context.Context, req *PlacePinRequest) (*LocationResponse, error) {
	if _, err := auth.RequireRole(ctx, models.RoleCashier); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "coordinates are required")
	}
	loc, err := geocode.ManualPlacement(req.Lat, req.Lng)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return &LocationResponse{Found: true, Location: loc}, nil
}

func (s *OrderServer) PreviewRoute(ctx context.Context, req *PreviewRouteRequest) (*PreviewRouteResponse, error) {
	if _, err := auth.RequireRole(ctx); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "destination is required")
	}
	dest := geo.Point{Lat: req.Lat, Lng: req.Lng}
	if !dest.Valid() {
		return nil, status.Error(codes.InvalidArgument, "invalid destination")
	}
	straight := geo.HaversineMeters(s.Origin, dest)
	resp := &PreviewRouteResponse{
		Origin:             s.OriginName,
		DistanceKm:         geo.MetersToKm(straight),
		StraightLineMeters: straight,
		MapsURL:            geo.MapsDirectionsURL(s.Origin, dest),
		WazeURL:            geo.WazeURL(dest),
	}
	if s.Routes == nil {
		return resp, nil
	}
	route, err := s.Routes.Route(ctx, s.Origin, dest)
	if err != nil {
		// A missing route is shown as absent, never as a failed call.
		s.Log.WithError(err).Warn("route preview failed")
		return resp, nil
	}
	if route != nil {
		resp.Found = true
		resp.Route = route
		resp.DistanceKm = geo.MetersToKm(route.DistanceMeters)
	}
	return resp, nil
}

func (s *OrderServer) ListPromotions(ctx context.Context, _ *emptypb.Empty) (*ListPromotionsResponse, error) {
	if _, err := auth.RequireRole(ctx); err != nil {
		return nil, err
	}
	list, err := s.Promotions.List(ctx)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "list promotions: %v", err)
	}
	return &ListPromotionsResponse{Promotions: list}, nil
}

func (s *OrderServer) UpdatePromotionPrice(ctx context.Context, req *UpdatePromotionPriceRequest) (*emptypb.Empty, error) {
	if _, err := auth.RequireRole(ctx, models.RoleCashier); err != nil {
		return nil, err
	}
	if req == nil || req.PromotionID == 0 {
		return nil, status.Error(codes.InvalidArgument, "promotion_id is required")
	}
	if req.Price < 0 {
		return nil, status.Error(codes.InvalidArgument, "price must not be negative")
	}
	if err := s.Promotions.UpdatePrice(ctx, req.PromotionID, req.Price); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.Error(codes.NotFound, "promotion not found")
		}
		return nil, status.Errorf(codes.Internal, "update price: %v", err)
	}
	return &emptypb.Empty{}, nil
}

func (s *OrderServer) SearchCustomers(ctx context.Context, req *SearchCustomersRequest) (*SearchCustomersResponse, error) {
	if _, err := auth.RequireRole(ctx, models.RoleCashier); err != nil {
		return nil, err
	}
	limit := defaultCustomerSearchLimit
	q := ""
	if req != nil {
		q = req.Query
		if req.Limit > 0 {
			limit = req.Limit
		}
	}
	list, err := s.Customers.Search(ctx, q, limit)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "search customers: %v", err)
	}
	return &SearchCustomersResponse{Customers: list}, nil
}

// cartLines prices the requested items from the current catalog.
// Repeated promotion IDs are merged into one line; every item needs a
// positive quantity.
func (s *OrderServer) cartLines(ctx context.Context, items []CartItem) ([]models.CartLine, error) {
	var cart models.Cart
	qty := map[int64]int{}
	for _, it := range items {
		if it.Quantity < 1 {
			return nil, status.Errorf(codes.InvalidArgument, "promotion %d has quantity %d", it.PromotionID, it.Quantity)
		}
		if _, seen := qty[it.PromotionID]; !seen {
			p, err := s.Promotions.GetByID(ctx, it.PromotionID)
			if err != nil {
				return nil, status.Errorf(codes.Internal, "get promotion: %v", err)
			}
			if p == nil {
				return nil, status.Errorf(codes.InvalidArgument, "unknown promotion %d", it.PromotionID)
			}
			cart.Add(*p)
		}
		qty[it.PromotionID] += it.Quantity
		cart.SetQuantity(it.PromotionID, qty[it.PromotionID])
	}
	return cart.Snapshot(), nil
}

func (s *OrderServer) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*OrderResponse, error) {
	p, err := auth.RequireRole(ctx, models.RoleCashier)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "order is required")
	}
	lines, err := s.cartLines(ctx, req.Items)
	if err != nil {
		return nil, err
	}
	o, err := s.Store.CreateOrder(ctx, p.Role, lifecycle.NewOrder{
		Customer:      req.Customer,
		Lines:         lines,
		Location:      req.Location,
		PaymentMethod: req.PaymentMethod,
		PaymentStatus: req.PaymentStatus,
		DueMethod:     req.DueMethod,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return &OrderResponse{Order: o}, nil
}

func (s *OrderServer) ListOrders(ctx context.Context, _ *emptypb.Empty) (*ListOrdersResponse, error) {
	p, err := auth.RequireRole(ctx)
	if err != nil {
		return nil, err
	}
	return &ListOrdersResponse{Orders: s.Store.ListForRole(p.Role)}, nil
}

func (s *OrderServer) Transition(ctx context.Context, req *TransitionRequest) (*OrderResponse, error) {
	p, err := auth.RequireRole(ctx)
	if err != nil {
		return nil, err
	}
	if req == nil || req.OrderID == "" {
		return nil, status.Error(codes.InvalidArgument, "order_id is required")
	}
	if !req.To.Valid() {
		return nil, status.Error(codes.InvalidArgument, fmt.Sprintf("unknown status %q", req.To))
	}
	o, err := s.Store.Transition(ctx, p.Role, req.OrderID, req.To)
	if err != nil {
		return nil, toStatus(err)
	}
	return &OrderResponse{Order: o}, nil
}

func (s *OrderServer) GetOrder(ctx context.Context, req *OrderRequest) (*OrderResponse, error) {
	if _, err := auth.RequirePrincipal(ctx); err != nil {
		return nil, err
	}
	if req == nil || req.OrderID == "" {
		return nil, status.Error(codes.InvalidArgument, "order_id is required")
	}
	o, ok := s.Store.Get(req.OrderID)
	if !ok {
		return nil, status.Errorf(codes.NotFound, "order %s not found", req.OrderID)
	}
	return &OrderResponse{Order: o}, nil
}

func (s *OrderServer) ConfirmPayment(ctx context.Context, req *OrderRequest) (*OrderResponse, error) {
	p, err := auth.RequireRole(ctx, models.RoleCashier, models.RoleDelivery)
	if err != nil {
		return nil, err
	}
	if req == nil || req.OrderID == "" {
		return nil, status.Error(codes.InvalidArgument, "order_id is required")
	}
	o, err := s.Store.ConfirmPayment(ctx, p.Role, req.OrderID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &OrderResponse{Order: o}, nil
}

func (s *OrderServer) Dashboard(ctx context.Context, _ *emptypb.Empty) (*DashboardResponse, error) {
	if _, err := auth.RequireRole(ctx, models.RoleCashier); err != nil {
		return nil, err
	}
	return &DashboardResponse{Dashboard: s.Store.Dashboard()}, nil
}

// WatchOrders streams store events until the client goes away.
func (s *OrderServer) WatchOrders(_ *emptypb.Empty, stream OrderService_WatchOrdersServer) error {
	ctx := stream.Context()
	p, err := auth.RequireRole(ctx)
	if err != nil {
		return err
	}
	events, cancel := s.Store.Subscribe(32)
	defer cancel()
	log := s.Log.WithFields(logrus.Fields{"principal": p.Name, "role": p.Role})
	log.Info("order watcher connected")
	for {
		select {
		case <-ctx.Done():
			log.Info("order watcher disconnected")
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := stream.Send(&ev); err != nil {
				return err
			}
		}
	}
}
