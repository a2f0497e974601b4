package transport

import (
	"errors"
	"math"
	"net/http"

	"watermelon-stand/internal/checkout"
	"watermelon-stand/internal/domain"
	"watermelon-stand/internal/middleware"
	"watermelon-stand/internal/repository"
	"watermelon-stand/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AddItemRequest represents the add-to-cart request payload
type AddItemRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
}

// SetQuantityRequest represents the quantity update payload. The quantity is
// a JSON number so free-form input survives the trip; it is rounded to the
// nearest whole unit on receipt.
type SetQuantityRequest struct {
	Quantity float64 `json:"quantity"`
}

// CheckoutRequest represents the order submission payload
type CheckoutRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Address       string `json:"address"`
	PaymentMethod string `json:"paymentMethod"`
}

// CheckoutStateResponse represents the pipeline state and preserved form data
type CheckoutStateResponse struct {
	State         checkout.State         `json:"state"`
	Details       domain.CustomerDetails `json:"details"`
	PaymentMethod domain.PaymentMethod   `json:"paymentMethod"`
}

// CartHandler handles the shopper's cart and checkout surface
type CartHandler struct {
	catalog service.CatalogService
	orders  service.OrderService
	logger  *zap.Logger
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(catalog service.CatalogService, orders service.OrderService, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		catalog: catalog,
		orders:  orders,
		logger:  logger,
	}
}

// RegisterRoutes registers the cart and checkout routes
func (h *CartHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/cart", func(r chi.Router) {
		r.Get("/", h.GetCart)
		r.Post("/items", h.AddItem)
		r.Put("/items/{productID}", h.SetQuantity)
		r.Delete("/items/{productID}", h.RemoveItem)
	})

	r.Route("/api/checkout", func(r chi.Router) {
		r.Get("/", h.GetCheckoutState)
		r.Post("/begin", h.BeginCheckout)
		r.Post("/", h.SubmitCheckout)
	})
}

// GetCart returns the current cart snapshot
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusInternalServerError, "session not established")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, sess.CartSnapshot())
}

// AddItem adds one unit of a product to the cart, freezing its current price
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusInternalServerError, "session not established")
		return
	}

	var req AddItemRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	product, err := h.catalog.Get(r.Context(), productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Failed to load product for cart", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to add item")
		return
	}

	sess.AddToCart(product)
	middleware.RespondWithJSON(w, http.StatusOK, sess.CartSnapshot())
}

// SetQuantity replaces a line's quantity. Zero or less removes the line.
func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusInternalServerError, "session not established")
		return
	}

	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	var req SetQuantityRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess.SetCartQuantity(productID, int(math.Round(req.Quantity)))
	middleware.RespondWithJSON(w, http.StatusOK, sess.CartSnapshot())
}

// RemoveItem drops a line from the cart
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusInternalServerError, "session not established")
		return
	}

	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	sess.RemoveFromCart(productID)
	middleware.RespondWithJSON(w, http.StatusOK, sess.CartSnapshot())
}

// GetCheckoutState returns the pipeline state with any preserved form data
func (h *CartHandler) GetCheckoutState(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusInternalServerError, "session not established")
		return
	}

	state, details, payment := sess.CheckoutState()
	middleware.RespondWithJSON(w, http.StatusOK, CheckoutStateResponse{
		State:         state,
		Details:       details,
		PaymentMethod: payment,
	})
}

// BeginCheckout moves the session into collecting shipping details
func (h *CartHandler) BeginCheckout(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusInternalServerError, "session not established")
		return
	}

	if err := sess.BeginCheckout(); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "cart is empty")
		return
	}

	state, details, payment := sess.CheckoutState()
	middleware.RespondWithJSON(w, http.StatusOK, CheckoutStateResponse{
		State:         state,
		Details:       details,
		PaymentMethod: payment,
	})
}

// SubmitCheckout validates the shipping form and places the order. On
// rejection the entered data survives in the pipeline for the next attempt.
func (h *CartHandler) SubmitCheckout(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusInternalServerError, "session not established")
		return
	}

	var req CheckoutRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	details := domain.CustomerDetails{
		Name:    req.Name,
		Email:   req.Email,
		Address: req.Address,
	}

	order, err := sess.SubmitCheckout(r.Context(), details, domain.PaymentMethod(req.PaymentMethod), h.orders)
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrNotCollecting), errors.Is(err, checkout.ErrSubmitInFlight):
			middleware.RespondWithError(w, http.StatusConflict, "checkout is not accepting a submission")
		case errors.Is(err, checkout.ErrEmptyCart), errors.Is(err, checkout.ErrInvalidPayment):
			middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		default:
			state, _, _ := sess.CheckoutState()
			if state == checkout.StateFailed {
				h.logger.Error("Order placement failed", zap.Error(err), zap.String("uid", sess.UID()))
				middleware.RespondWithError(w, http.StatusInternalServerError, "failed to place order")
				return
			}
			middleware.RespondWithError(w, http.StatusBadRequest, "please fill out all shipping fields")
		}
		return
	}

	h.logger.Info("Order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("uid", sess.UID()))
	middleware.RespondWithJSON(w, http.StatusCreated, order)
}
