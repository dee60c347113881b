package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"
)

type Catalog interface {
	ListProducts(ctx context.Context, search domain.Search) ([]*domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	ListCarriers(ctx context.Context) ([]domain.Carrier, error)
	ListHeaders(ctx context.Context) ([]domain.Header, error)
}

type HomeResponse struct {
	Products []*domain.Product `json:"products"`
	Headers  []domain.Header   `json:"headers"`
}

type CatalogHandler struct {
	catalog Catalog
	timeout time.Duration
}

func NewCatalogHandler(catalog Catalog, timeout time.Duration) *CatalogHandler {
	return &CatalogHandler{
		catalog: catalog,
		timeout: timeout,
	}
}

// GET /api/v1/home
func (h *CatalogHandler) Home(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	resp := HomeResponse{Products: []*domain.Product{}, Headers: []domain.Header{}}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		products, err := h.catalog.ListProducts(gctx, domain.Search{BestOnly: true})
		if products != nil {
			resp.Products = products
		}
		return err
	})
	g.Go(func() error {
		headers, err := h.catalog.ListHeaders(gctx)
		if headers != nil {
			resp.Headers = headers
		}
		return err
	})
	if err := g.Wait(); err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// GET /api/v1/products?q=&category=
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	query := r.URL.Query()
	search := domain.Search{Query: strings.TrimSpace(query.Get("q"))}
	for _, raw := range query["category"] {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			respondError(w, http.StatusBadRequest, "invalid_category", "category must be a positive integer")
			return
		}
		search.CategoryIDs = append(search.CategoryIDs, id)
	}

	products, err := h.catalog.ListProducts(ctx, search)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if products == nil {
		products = []*domain.Product{}
	}

	respondJSON(w, http.StatusOK, products)
}

// GET /api/v1/products/{product_id}
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	product, err := h.catalog.GetProduct(ctx, productID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, product)
}

// GET /api/v1/categories
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	categories, err := h.catalog.ListCategories(ctx)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if categories == nil {
		categories = []domain.Category{}
	}

	respondJSON(w, http.StatusOK, categories)
}

// GET /api/v1/carriers
func (h *CatalogHandler) ListCarriers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	carriers, err := h.catalog.ListCarriers(ctx)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if carriers == nil {
		carriers = []domain.Carrier{}
	}

	respondJSON(w, http.StatusOK, carriers)
}

func productIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	return int64Param(w, r, "product_id")
}

func int64Param(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := chi.URLParam(r, name)
	if raw == "" {
		respondError(w, http.StatusBadRequest, "missing_"+name, name+" is required")
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_"+name, name+" must be a positive integer")
		return 0, false
	}
	return id, true
}
