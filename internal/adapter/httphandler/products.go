package httphandler

import (
	"log/slog"
	"net/http"

	"github.com/niksmo/storefront/internal/core/port"
)

// Mock catalog.
//
// GET    /v1/products        (200 OK)
// GET    /v1/products/{id}   (200 OK, 404 Not found)
// PUT    /v1/products/{id}   JSON product (200 OK, 400 Bad request)
// DELETE /v1/products/{id}   (204 No content, 404 Not found)

type ProductsHandler struct {
	service port.CatalogService
}

func RegisterProducts(mux *http.ServeMux, s port.CatalogService) {
	h := ProductsHandler{s}
	mux.HandleFunc("GET /v1/products", h.GetProducts)
	mux.HandleFunc("GET /v1/products/{id}", h.GetProduct)
	mux.HandleFunc("PUT /v1/products/{id}", h.PutProduct)
	mux.HandleFunc("DELETE /v1/products/{id}", h.DeleteProduct)
}

func (h ProductsHandler) GetProducts(w http.ResponseWriter, r *http.Request) {
	const op = "ProductsHandler.GetProducts"
	log := slog.With("op", op)

	ps, err := h.service.Products(r.Context())
	if err != nil {
		writeServiceError(w, err, log)
		return
	}

	res := make([]Product, len(ps))
	for i, p := range ps {
		res[i] = productFromDomain(p)
	}
	writeJSON(w, http.StatusOK, res, log)
}

func (h ProductsHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	const op = "ProductsHandler.GetProduct"
	log := slog.With("op", op)

	p, err := h.service.Product(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err, log)
		return
	}
	writeJSON(w, http.StatusOK, productFromDomain(p), log)
}

func (h ProductsHandler) PutProduct(w http.ResponseWriter, r *http.Request) {
	const op = "ProductsHandler.PutProduct"
	log := slog.With("op", op)

	var req Product
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), log)
		log.Warn("failed to parse JSON", "err", err)
		return
	}

	id := r.PathValue("id")
	if req.ProductID == "" {
		req.ProductID = id
	}
	if req.ProductID != id {
		writeError(w, http.StatusBadRequest, "product_id does not match path", log)
		return
	}

	p, err := h.service.UpdateProduct(r.Context(), req.toDomain())
	if err != nil {
		writeServiceError(w, err, log)
		return
	}
	writeJSON(w, http.StatusOK, productFromDomain(p), log)
	log.Info("product updated", "productID", p.ProductID)
}

func (h ProductsHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	const op = "ProductsHandler.DeleteProduct"
	log := slog.With("op", op)

	id := r.PathValue("id")
	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		writeServiceError(w, err, log)
		return
	}
	w.WriteHeader(http.StatusNoContent)
	log.Info("product deleted", "productID", id)
}
