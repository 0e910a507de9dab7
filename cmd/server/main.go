package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"sushiDelivery/internal/auth"
	"sushiDelivery/internal/config"
	"sushiDelivery/internal/db"
	"sushiDelivery/internal/geo"
	"sushiDelivery/internal/geocode"
	grpcserver "sushiDelivery/internal/grpc"
	"sushiDelivery/internal/httpapi"
	"sushiDelivery/internal/lifecycle"
	"sushiDelivery/internal/logging"
	"sushiDelivery/internal/routing"
	"sushiDelivery/models"
	"sushiDelivery/repository"
)

func main() {
	issueRole := flag.String("issue-token", "", "print a token for the given role (cashier, cook, delivery) and exit")
	issueName := flag.String("name", "", "principal name for -issue-token")
	issueTTL := flag.Duration("ttl", 0, "token lifetime for -issue-token, 0 for none")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadWithDefaults()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if *issueRole != "" {
		role, ok := models.ParseRole(*issueRole)
		if !ok {
			log.Fatalf("unknown role %q", *issueRole)
		}
		name := *issueName
		if name == "" {
			name = string(role)
		}
		tok, err := auth.IssueToken(cfg.Auth.JWTSecret, name, role, *issueTTL)
		if err != nil {
			log.Fatalf("issue token: %v", err)
		}
		fmt.Println(tok)
		return
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format)
	logger.WithField("config", cfg.String()).Info("configuration loaded")

	// Open DB
	d, err := db.Open(cfg.Database.Path)
	if err != nil {
		logger.WithError(err).Fatal("open db")
	}
	defer func() {
		if err := d.Close(); err != nil {
			logger.WithError(err).Warn("close db")
		}
	}()

	orders := repository.NewOrderRepository(d)
	customers := repository.NewCustomerRepository(d)
	promotions := repository.NewPromotionRepository(d)

	box, err := geo.ParseViewbox(cfg.Geocoder.Viewbox)
	if err != nil {
		logger.WithError(err).Fatal("parse geocoder viewbox")
	}

	var cache geocode.Cache
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		cache = geocode.NewRedisCache(rdb, cfg.Geocoder.CacheTTL)
		logger.WithField("addr", cfg.Redis.Addr).Info("geocode cache enabled")
	}

	nominatim := geocode.NewNominatimClient(cfg.Geocoder.URL, cfg.Geocoder.UserAgent, box, cfg.Geocoder.Timeout, logger)
	resolver := geocode.NewResolver(nominatim, geocode.ResolverConfig{
		Box:         box,
		DefaultCity: cfg.Shop.DefaultCity,
		Timeout:     cfg.Geocoder.Resolve,
		Cache:       cache,
	}, logger)
	routes := routing.NewOSRMClient(cfg.Routing.URL, cfg.Routing.Timeout, logger)

	origin := geo.Point{Lat: cfg.Shop.OriginLat, Lng: cfg.Shop.OriginLng}
	logger.WithFields(logrus.Fields{"origin": cfg.Shop.OriginName, "lat": origin.Lat, "lng": origin.Lng}).Info("shop origin")
	store := lifecycle.NewStore(orders, customers, routes, lifecycle.Config{
		Origin:       origin,
		PackDuration: cfg.Shop.PackDuration,
		TickInterval: cfg.Shop.TickInterval,
		RouteTimeout: cfg.Routing.Timeout,
	}, nil, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := store.Load(ctx); err != nil {
		logger.WithError(err).Fatal("load orders")
	}
	go func() {
		if err := store.Run(ctx); err != nil && ctx.Err() == nil {
			logger.WithError(err).Error("packing timer stopped")
		}
	}()

	// Start gRPC
	shutdownGRPC, err := grpcserver.StartGRPC(cfg, &grpcserver.OrderServer{
		Store:      store,
		Resolver:   resolver,
		Routes:     routes,
		Promotions: promotions,
		Customers:  customers,
		Origin:     origin,
		OriginName: cfg.Shop.OriginName,
		Log:        logger,
	}, logger)
	if err != nil {
		logger.WithError(err).Fatal("start grpc")
	}

	shutdownHTTP := httpapi.StartHTTP(cfg.HTTP.Address, httpapi.NewRouter(&httpapi.Handler{
		Store:    store,
		Resolver: resolver,
		Secret:   cfg.Auth.JWTSecret,
		Debounce: cfg.Geocoder.Debounce,
		Log:      logger,
	}), logger)

	// Wait for signal
	<-ctx.Done()
	logger.Info("shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownHTTP(sctx); err != nil {
		logger.WithError(err).Warn("http shutdown")
	}
	if err := shutdownGRPC(sctx); err != nil {
		logger.WithError(err).Warn("grpc shutdown")
	}
}
