// Package httpapi exposes the order boards over HTTP and a websocket feed.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"sushiDelivery/internal/geocode"
	"sushiDelivery/internal/lifecycle"
	"sushiDelivery/models"
)

// Handler serves the HTTP API.
type Handler struct {
	Store    *lifecycle.Store
	Resolver geocode.AddressResolver
	Secret   string
	Debounce time.Duration
	Log      logrus.FieldLogger
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(h.Log))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authed := AuthMiddleware(h.Secret, h.Log)
	api := r.Group("/api", authed)
	{
		api.GET("/orders", h.listOrders)
		api.GET("/orders/:id", h.getOrder)
		api.POST("/orders/:id/transition", h.transition)
		api.POST("/orders/:id/payment", RequireRole(models.RoleCashier, models.RoleDelivery), h.confirmPayment)
		api.GET("/dashboard", RequireRole(models.RoleCashier), h.dashboard)
	}
	r.GET("/ws", authed, h.websocket)
	return r
}

func (h *Handler) listOrders(c *gin.Context) {
	p := principal(c)
	successResponse(c, http.StatusOK, "orders", h.Store.ListForRole(p.Role))
}

func (h *Handler) getOrder(c *gin.Context) {
	o, ok := h.Store.Get(c.Param("id"))
	if !ok {
		errorResponse(c, http.StatusNotFound, "order not found")
		return
	}
	successResponse(c, http.StatusOK, "order", o)
}

type transitionBody struct {
	To models.OrderStatus `json:"to" binding:"required"`
}

func (h *Handler) transition(c *gin.Context) {
	var body transitionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	if !body.To.Valid() {
		errorResponse(c, http.StatusBadRequest, "unknown status "+string(body.To))
		return
	}
	o, err := h.Store.Transition(c.Request.Context(), principal(c).Role, c.Param("id"), body.To)
	if err != nil {
		errorResponse(c, statusFor(err), err.Error())
		return
	}
	successResponse(c, http.StatusOK, "status updated", o)
}

func (h *Handler) confirmPayment(c *gin.Context) {
	o, err := h.Store.ConfirmPayment(c.Request.Context(), principal(c).Role, c.Param("id"))
	if err != nil {
		errorResponse(c, statusFor(err), err.Error())
		return
	}
	successResponse(c, http.StatusOK, "payment confirmed", o)
}

func (h *Handler) dashboard(c *gin.Context) {
	successResponse(c, http.StatusOK, "dashboard", h.Store.Dashboard())
}

// StartHTTP serves handler on addr and returns a shutdown function.
func StartHTTP(addr string, handler http.Handler, log logrus.FieldLogger) func(context.Context) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("http server stopped")
		}
	}()
	log.WithField("address", addr).Info("http server listening")
	return srv.Shutdown
}
