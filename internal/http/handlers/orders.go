package handlers

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"shopflow-tracking/internal/domain"
	"shopflow-tracking/internal/logx"
	"shopflow-tracking/internal/schedule"
)

// OrderHandler serves HTTP endpoints for order tracking.
type OrderHandler struct {
	logger   logx.Logger
	uc       orderUsecase
	clock    schedule.Clock
	upgrader websocket.Upgrader
}

// NewOrderHandler wires an order usecase into HTTP handlers.
func NewOrderHandler(logger logx.Logger, uc orderUsecase, clock schedule.Clock) *OrderHandler {
	if logger == nil {
		logger = logx.Nop()
	}
	return &OrderHandler{
		logger: logger,
		uc:     uc,
		clock:  clock,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Create handles POST /orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	o, err := h.uc.CreateOrder(r.Context(), req.toModel())
	if err != nil {
		writeServiceError(h.logger, w, r, err)
		return
	}
	w.Header().Set("Location", "/orders/"+o.ID)
	writeJSON(h.logger, w, r, http.StatusCreated, modelToResponse(*o, h.clock.Now()))
}

// List handles GET /orders with an optional user_id filter.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		list []domain.Order
		err  error
	)
	if userID := strings.TrimSpace(r.URL.Query().Get("user_id")); userID != "" {
		list, err = h.uc.GetOrdersByUserID(r.Context(), userID)
	} else {
		list, err = h.uc.GetAllOrders(r.Context())
	}
	if err != nil {
		writeServiceError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, modelsToResponse(list, h.clock.Now()))
}

// GetByID handles GET /orders/{id}.
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r)
	if err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}

	o, err := h.uc.GetOrderByID(r.Context(), id)
	if err != nil {
		writeServiceError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, modelToResponse(*o, h.clock.Now()))
}

// UpdateStatus handles PATCH /orders/{id}/status.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r)
	if err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}
	var req statusRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	o, err := h.uc.UpdateOrderStatus(r.Context(), id, req.toModel())
	if err != nil {
		writeServiceError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, modelToResponse(*o, h.clock.Now()))
}

// AssignRider handles PUT /orders/{id}/rider.
func (h *OrderHandler) AssignRider(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r)
	if err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}
	var req riderDTO
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	o, err := h.uc.AssignRider(r.Context(), id, req.toModel())
	if err != nil {
		writeServiceError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, modelToResponse(*o, h.clock.Now()))
}

// StartExpressDelivery handles POST /orders/{id}/express-delivery. The body
// is optional; without it the default rider and promise window are used.
func (h *OrderHandler) StartExpressDelivery(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r)
	if err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}
	var req expressDeliveryRequest
	if hasBody(r) {
		if ok := decodeJSON(h.logger, w, r, &req); !ok {
			return
		}
	}

	var rider *domain.Rider
	if req.Rider != nil {
		m := req.Rider.toModel()
		rider = &m
	}

	o, err := h.uc.StartExpressDelivery(r.Context(), id, rider, req.PromisedMinutes)
	if err != nil {
		writeServiceError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, modelToResponse(*o, h.clock.Now()))
}

// UpdateLocation handles POST /orders/{id}/location, a rider GPS fix.
func (h *OrderHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r)
	if err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}
	var req locationRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	o, err := h.uc.UpdateOrderLocation(r.Context(), id, *req.Lat, *req.Lng)
	if err != nil {
		writeServiceError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, modelToResponse(*o, h.clock.Now()))
}
