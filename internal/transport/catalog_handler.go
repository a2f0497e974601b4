package transport

import (
	"errors"
	"net/http"

	"watermelon-stand/internal/live"
	"watermelon-stand/internal/middleware"
	"watermelon-stand/internal/repository"
	"watermelon-stand/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CatalogHandler handles the public, read-only product surface.
type CatalogHandler struct {
	catalog service.CatalogService
	feed    *live.Feed
	logger  *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(catalog service.CatalogService, feed *live.Feed, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalog: catalog,
		feed:    feed,
		logger:  logger,
	}
}

// RegisterRoutes registers the public catalog routes
func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Get("/stream", h.StreamProducts)
		r.Get("/{id}", h.GetProduct)
	})
}

// ListProducts returns the current catalog snapshot
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to load products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, products)
}

// GetProduct returns a single product by ID
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	product, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Failed to get product", zap.Error(err), zap.String("product_id", id.String()))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to load product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// StreamProducts pushes catalog snapshots over SSE whenever the catalog changes
func (h *CatalogHandler) StreamProducts(w http.ResponseWriter, r *http.Request) {
	streamFeed(w, r, h.feed, h.logger)
}
