package httphandler

import (
	"log/slog"
	"net/http"

	"github.com/niksmo/storefront/internal/core/port"
)

// Cart of the request session.
//
// GET    /v1/cart                       (200 OK)
// POST   /v1/cart/items                 JSON {"product_id", "quantity"} (200 OK, 400, 404)
// PATCH  /v1/cart/items/{productID}     JSON {"quantity"} (200 OK, 400)
// DELETE /v1/cart/items/{productID}     (200 OK)
// DELETE /v1/cart                       (200 OK)
// POST   /v1/cart/toggle                (200 OK)
// PUT    /v1/cart/coupon                JSON {"code"} (200 OK, 400)
// DELETE /v1/cart/coupon                (200 OK)
// DELETE /v1/session                    (204 No content)

type CartHandler struct {
	service port.CartService
}

func RegisterCart(mux *http.ServeMux, s port.CartService) {
	h := CartHandler{s}
	mux.HandleFunc("GET /v1/cart", h.GetCart)
	mux.HandleFunc("POST /v1/cart/items", h.PostItem)
	mux.HandleFunc("PATCH /v1/cart/items/{productID}", h.PatchItem)
	mux.HandleFunc("DELETE /v1/cart/items/{productID}", h.DeleteItem)
	mux.HandleFunc("DELETE /v1/cart", h.DeleteCart)
	mux.HandleFunc("POST /v1/cart/toggle", h.PostToggle)
	mux.HandleFunc("PUT /v1/cart/coupon", h.PutCoupon)
	mux.HandleFunc("DELETE /v1/cart/coupon", h.DeleteCoupon)
	mux.HandleFunc("DELETE /v1/session", h.DeleteSession)
}

func (h CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.GetCart"
	log := slog.With("op", op)

	state, err := h.service.Cart(r.Context(), SessionID(r.Context()))
	if err != nil {
		writeServiceError(w, err, log)
		return
	}
	writeJSON(w, http.StatusOK, cartFromDomain(state), log)
}

func (h CartHandler) PostItem(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.PostItem"
	log := slog.With("op", op)

	var req AddItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), log)
		log.Warn("failed to parse JSON", "err", err)
		return
	}
	if req.ProductID == "" {
		writeError(w, http.StatusBadRequest, "product_id is required", log)
		return
	}

	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	sid := SessionID(r.Context())
	state, err := h.service.AddItem(r.Context(), sid, req.ProductID, quantity)
	if err != nil {
		writeServiceError(w, err, log)
		return
	}
	writeJSON(w, http.StatusOK, cartFromDomain(state), log)
	log.Info("item added", "productID", req.ProductID, "quantity", quantity)
}

func (h CartHandler) PatchItem(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.PatchItem"
	log := slog.With("op", op)

	var req UpdateQuantityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), log)
		log.Warn("failed to parse JSON", "err", err)
		return
	}
	if req.Quantity == nil {
		writeError(w, http.StatusBadRequest, "quantity is required", log)
		return
	}

	sid := SessionID(r.Context())
	productID := r.PathValue("productID")
	state, err := h.service.UpdateQuantity(r.Context(), sid, productID, *req.Quantity)
	if err != nil {
		writeServiceError(w, err, log)
		return
	}
	writeJSON(w, http.StatusOK, cartFromDomain(state), log)
}

func (h CartHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.DeleteItem"
	log := slog.With("op", op)

	sid := SessionID(r.Context())
	state, err := h.service.RemoveItem(r.Context(), sid, r.PathValue("productID"))
	if err != nil {
		writeServiceError(w, err, log)
		return
	}
	writeJSON(w, http.StatusOK, cartFromDomain(state), log)
}

func (h CartHandler) DeleteCart(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.DeleteCart"
	log := slog.With("op", op)

	state, err := h.service.ClearCart(r.Context(), SessionID(r.Context()))
	if err != nil {
		writeServiceError(w, err, log)
		return
	}
	writeJSON(w, http.StatusOK, cartFromDomain(state), log)
}

func (h CartHandler) PostToggle(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.PostToggle"
	log := slog.With("op", op)

	state, err := h.service.ToggleCart(r.Context(), SessionID(r.Context()))
	if err != nil {
		writeServiceError(w, err, log)
		return
	}
	writeJSON(w, http.StatusOK, cartFromDomain(state), log)
}

func (h CartHandler) PutCoupon(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.PutCoupon"
	log := slog.With("op", op)

	var req CouponRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), log)
		log.Warn("failed to parse JSON", "err", err)
		return
	}

	state, err := h.service.ApplyCoupon(r.Context(), SessionID(r.Context()), req.Code)
	if err != nil {
		writeServiceError(w, err, log)
		return
	}
	writeJSON(w, http.StatusOK, cartFromDomain(state), log)
}

func (h CartHandler) DeleteCoupon(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.DeleteCoupon"
	log := slog.With("op", op)

	state, err := h.service.RemoveCoupon(r.Context(), SessionID(r.Context()))
	if err != nil {
		writeServiceError(w, err, log)
		return
	}
	writeJSON(w, http.StatusOK, cartFromDomain(state), log)
}

func (h CartHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.DeleteSession"
	log := slog.With("op", op)

	if err := h.service.EndSession(r.Context(), SessionID(r.Context())); err != nil {
		writeServiceError(w, err, log)
		return
	}
	expireSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}
