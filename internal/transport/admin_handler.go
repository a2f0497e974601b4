package transport

import (
	"errors"
	"fmt"
	"net/http"

	"watermelon-stand/internal/domain"
	"watermelon-stand/internal/live"
	"watermelon-stand/internal/middleware"
	"watermelon-stand/internal/repository"
	"watermelon-stand/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateProductRequest represents the product creation payload
type CreateProductRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description" validate:"required"`
	Price       float64 `json:"price" validate:"gte=0"`
	Stock       int     `json:"stock" validate:"gte=0"`
	ImageURL    string  `json:"imageUrl"`
}

// UpdateStatusRequest represents the order status update payload
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// DeleteProductResponse confirms which product was removed
type DeleteProductResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AdminHandler handles the operator console: product management and order
// fulfilment. Every route here sits behind the operator gate.
type AdminHandler struct {
	catalog    service.CatalogService
	orders     service.OrderService
	ordersFeed *live.Feed
	logger     *zap.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(catalog service.CatalogService, orders service.OrderService, ordersFeed *live.Feed, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		catalog:    catalog,
		orders:     orders,
		ordersFeed: ordersFeed,
		logger:     logger,
	}
}

// RegisterRoutes registers the operator routes behind the supplied gate
func (h *AdminHandler) RegisterRoutes(r chi.Router, operatorOnly func(http.Handler) http.Handler) {
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(operatorOnly)

		r.Route("/products", func(r chi.Router) {
			r.Post("/", h.CreateProduct)
			r.Put("/{id}", h.UpdateProduct)
			r.Delete("/{id}", h.DeleteProduct)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.ListOrders)
			r.Get("/stream", h.StreamOrders)
			r.Get("/{id}", h.GetOrder)
			r.Put("/{id}/status", h.UpdateOrderStatus)
		})
	})
}

// CreateProduct adds a product to the catalog
func (h *AdminHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSession(r.Context())

	var req CreateProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product := &domain.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		ImageURL:    req.ImageURL,
	}

	if err := h.catalog.Create(r.Context(), product); err != nil {
		if sess != nil {
			sess.NotifyError("Failed to add product.")
		}
		if errors.Is(err, service.ErrInvalidProduct) {
			middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("Failed to create product", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create product")
		return
	}

	if sess != nil {
		sess.NotifySuccess("Product added successfully!")
	}
	h.logger.Info("Product created", zap.String("product_id", product.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// UpdateProduct merges a partial update into an existing product. Fields
// absent from the payload keep their stored values.
func (h *AdminHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSession(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	var patch domain.ProductPatch
	if err := middleware.DecodeAndValidate(r, &patch); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.catalog.Merge(r.Context(), id, patch)
	if err != nil {
		if sess != nil {
			sess.NotifyError("Failed to update product.")
		}
		switch {
		case errors.Is(err, service.ErrInvalidProduct):
			middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, repository.ErrProductNotFound):
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
		default:
			h.logger.Error("Failed to update product", zap.Error(err), zap.String("product_id", id.String()))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update product")
		}
		return
	}

	if sess != nil {
		sess.NotifySuccess("Product updated successfully!")
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// DeleteProduct removes a product. The request must carry confirmed=true;
// without it the delete is refused so a stray click cannot destroy a record.
func (h *AdminHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSession(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	confirmed := r.URL.Query().Get("confirmed") == "true"

	name, err := h.catalog.Delete(r.Context(), id, confirmed)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDeleteNotConfirmed):
			middleware.RespondWithError(w, http.StatusConflict, "delete must be confirmed")
		case errors.Is(err, repository.ErrProductNotFound):
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
		default:
			if sess != nil {
				sess.NotifyError("Failed to delete product.")
			}
			h.logger.Error("Failed to delete product", zap.Error(err), zap.String("product_id", id.String()))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete product")
		}
		return
	}

	if sess != nil {
		sess.NotifySuccess(fmt.Sprintf("Product %q deleted successfully.", name))
	}
	h.logger.Info("Product deleted", zap.String("product_id", id.String()), zap.String("name", name))
	middleware.RespondWithJSON(w, http.StatusOK, DeleteProductResponse{ID: id.String(), Name: name})
}

// ListOrders returns every order, newest first
func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list orders", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to load orders")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, orders)
}

// GetOrder returns a single order with its full line detail
func (h *AdminHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	order, err := h.orders.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "order not found")
			return
		}
		h.logger.Error("Failed to get order", zap.Error(err), zap.String("order_id", id.String()))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to load order")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, order)
}

// UpdateOrderStatus moves an order to a new fulfilment status
func (h *AdminHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSession(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	var req UpdateStatusRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.orders.UpdateStatus(r.Context(), id, domain.OrderStatus(req.Status)); err != nil {
		if sess != nil {
			sess.NotifyError("Failed to update order status.")
		}
		switch {
		case errors.Is(err, repository.ErrInvalidStatus):
			middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, repository.ErrOrderNotFound):
			middleware.RespondWithError(w, http.StatusNotFound, "order not found")
		default:
			h.logger.Error("Failed to update order status", zap.Error(err), zap.String("order_id", id.String()))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update order status")
		}
		return
	}

	order, err := h.orders.Get(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to reload order after status update", zap.Error(err), zap.String("order_id", id.String()))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to load order")
		return
	}

	if sess != nil {
		sess.NotifySuccess(fmt.Sprintf("Order status updated to %s", order.Status))
	}
	middleware.RespondWithJSON(w, http.StatusOK, order)
}

// StreamOrders pushes the full order list over SSE whenever orders change
func (h *AdminHandler) StreamOrders(w http.ResponseWriter, r *http.Request) {
	streamFeed(w, r, h.ordersFeed, h.logger)
}
