package rest

import (
	"encoding/json"
	"net/http"
	"storefront-service/internal/contextkeys"
	"storefront-service/internal/core/port"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// GetWishlist обрабатывает GET /api/v1/wishlist
func (h *StorefrontHandler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "GetWishlist"})

	userID, ok := userIDFromRequest(r)
	if !ok {
		logger.Error("Invalid or missing user ID in context", nil, nil)
		WriteJSONError(w, http.StatusUnauthorized, "Invalid user ID in context")
		return
	}

	ids, err := h.wishlist.List(r.Context(), userID.String())
	if err != nil {
		logger.Error("Get wishlist use case failed", err, port.Fields{"user_id": userID})
		WriteJSONError(w, statusForError(err, http.StatusInternalServerError), "Failed to retrieve wishlist")
		return
	}

	RespondWithJSON(w, http.StatusOK, WishlistResponse{ProductIDs: ids})
}

// AddToWishlist обрабатывает POST /api/v1/wishlist
func (h *StorefrontHandler) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "AddToWishlist"})

	userID, ok := userIDFromRequest(r)
	if !ok {
		logger.Error("Invalid or missing user ID in context", nil, nil)
		WriteJSONError(w, http.StatusUnauthorized, "Invalid user ID in context")
		return
	}

	var reqDTO WishlistAddRequest
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		logger.Warn("Failed to decode request body for add to wishlist", port.Fields{"error": err.Error()})
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if reqDTO.ProductID <= 0 {
		WriteJSONError(w, http.StatusBadRequest, "Invalid product_id")
		return
	}

	handlerLogger := logger.WithFields(port.Fields{"user_id": userID, "product_id": reqDTO.ProductID})
	if err := h.wishlist.Add(r.Context(), userID.String(), reqDTO.ProductID); err != nil {
		handlerLogger.Error("Add to wishlist use case failed", err, nil)
		WriteJSONError(w, statusForError(err, http.StatusInternalServerError), "Failed to add to wishlist")
		return
	}

	handlerLogger.Info("Successfully added product to wishlist", nil)
	w.WriteHeader(http.StatusCreated)
}

// RemoveFromWishlist обрабатывает DELETE /api/v1/wishlist/{productID}
func (h *StorefrontHandler) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "RemoveFromWishlist"})

	userID, ok := userIDFromRequest(r)
	if !ok {
		logger.Error("Invalid or missing user ID in context", nil, nil)
		WriteJSONError(w, http.StatusUnauthorized, "Invalid user ID in context")
		return
	}

	productIDStr := chi.URLParam(r, "productID")
	productID, err := strconv.Atoi(productIDStr)
	if err != nil {
		logger.Warn("Invalid productID in URL", port.Fields{"provided_id": productIDStr})
		WriteJSONError(w, http.StatusBadRequest, "Invalid productID in URL")
		return
	}

	handlerLogger := logger.WithFields(port.Fields{"user_id": userID, "product_id": productID})
	if err := h.wishlist.Remove(r.Context(), userID.String(), productID); err != nil {
		handlerLogger.Error("Remove from wishlist use case failed", err, nil)
		WriteJSONError(w, statusForError(err, http.StatusInternalServerError), "Failed to remove from wishlist")
		return
	}

	handlerLogger.Info("Successfully removed product from wishlist", nil)
	w.WriteHeader(http.StatusNoContent)
}
