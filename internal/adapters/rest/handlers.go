package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"storefront-service/internal/contextkeys"
	"storefront-service/internal/core/domain"
	"storefront-service/internal/core/port"
	"storefront-service/internal/core/port/usecases_port"
	"storefront-service/internal/core/usecase"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// StorefrontHandler - обработчики REST API витрины.
type StorefrontHandler struct {
	sessions usecases_port.SessionRegistryPort
	visits   usecases_port.RecordVisitUseCasePort
	wishlist usecases_port.WishlistUseCasePort
}

// NewStorefrontHandler - конструктор.
func NewStorefrontHandler(sessions usecases_port.SessionRegistryPort,
	visits usecases_port.RecordVisitUseCasePort,
	wishlist usecases_port.WishlistUseCasePort) *StorefrontHandler {
	return &StorefrontHandler{
		sessions: sessions,
		visits:   visits,
		wishlist: wishlist,
	}
}

// Health обрабатывает GET /api/v1/health
func (h *StorefrontHandler) Health(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// SessionMiddleware находит сессию по {sessionID} и кладет её в контекст запроса.
func (h *StorefrontHandler) SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := contextkeys.LoggerFromContext(r.Context())

		sessionIDStr := chi.URLParam(r, "sessionID")
		sessionID, err := uuid.Parse(sessionIDStr)
		if err != nil {
			logger.Warn("Invalid sessionID in URL", port.Fields{"provided_id": sessionIDStr})
			WriteJSONError(w, http.StatusBadRequest, "Invalid sessionID in URL")
			return
		}

		session, err := h.sessions.Get(sessionID)
		if err != nil {
			logger.Warn("Session lookup failed", port.Fields{"session_id": sessionID, "error": err.Error()})
			WriteJSONError(w, statusForError(err, http.StatusInternalServerError), "Session not found")
			return
		}

		ctx := contextkeys.ContextWithLogger(r.Context(), logger.WithFields(port.Fields{"session_id": sessionID}))
		ctx = context.WithValue(ctx, sessionKey, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFromRequest(r *http.Request) *usecase.StorefrontSession {
	session, _ := r.Context().Value(sessionKey).(*usecase.StorefrontSession)
	return session
}

// CreateSession обрабатывает POST /api/v1/sessions
func (h *StorefrontHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "CreateSession"})

	var userID string
	if id, ok := userIDFromRequest(r); ok {
		userID = id.String()
	}

	session := h.sessions.Create(r.Context(), userID)
	logger.Info("Session opened", port.Fields{"session_id": session.ID, "user_id": userID})

	RespondWithJSON(w, http.StatusCreated, SessionResponse{
		ID:        session.ID.String(),
		UserID:    session.UserID,
		CreatedAt: session.CreatedAt,
	})
}

// CloseSession обрабатывает DELETE /api/v1/sessions/{sessionID}
func (h *StorefrontHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "CloseSession"})
	session := sessionFromRequest(r)

	if err := h.sessions.Close(session.ID); err != nil {
		logger.Warn("Failed to close session", port.Fields{"error": err.Error()})
		WriteJSONError(w, statusForError(err, http.StatusInternalServerError), "Failed to close session")
		return
	}

	logger.Info("Session closed", nil)
	w.WriteHeader(http.StatusNoContent)
}

// GetFilters обрабатывает GET /api/v1/sessions/{sessionID}/filters
func (h *StorefrontHandler) GetFilters(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, filtersResponse(sessionFromRequest(r)))
}

// ToggleFilter обрабатывает POST /api/v1/sessions/{sessionID}/filters/toggle
func (h *StorefrontHandler) ToggleFilter(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "ToggleFilter"})
	session := sessionFromRequest(r)

	var reqDTO ToggleFilterRequest
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		logger.Warn("Failed to decode request body for toggle filter", port.Fields{"error": err.Error()})
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	filterType := domain.FilterType(reqDTO.Type)
	if _, isParent := filterType.ChildType(); !isParent {
		if _, isChild := filterType.ParentType(); !isChild {
			logger.Warn("Unsupported filter type for toggle", port.Fields{"filter_type": reqDTO.Type})
			WriteJSONError(w, http.StatusBadRequest, "Unsupported filter type")
			return
		}
	}

	if _, err := session.ToggleFilter(r.Context(), filterType, reqDTO.ID); err != nil {
		logger.Error("Toggle filter failed", err, nil)
		WriteJSONError(w, statusForError(err, http.StatusInternalServerError), "Failed to toggle filter")
		return
	}

	RespondWithJSON(w, http.StatusOK, filtersResponse(session))
}

// SetPriceRange обрабатывает PUT /api/v1/sessions/{sessionID}/filters/price
func (h *StorefrontHandler) SetPriceRange(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "SetPriceRange"})
	session := sessionFromRequest(r)

	var reqDTO PriceRangeRequest
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		logger.Warn("Failed to decode request body for price range", port.Fields{"error": err.Error()})
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if reqDTO.Min != nil && reqDTO.Max != nil && *reqDTO.Min > *reqDTO.Max {
		WriteJSONError(w, http.StatusBadRequest, "min must not exceed max")
		return
	}

	session.SetPriceRange(reqDTO.Min, reqDTO.Max)
	RespondWithJSON(w, http.StatusOK, filtersResponse(session))
}

// RemoveFilter обрабатывает DELETE /api/v1/sessions/{sessionID}/filters/{filterID}
func (h *StorefrontHandler) RemoveFilter(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "RemoveFilter"})
	session := sessionFromRequest(r)

	filterIDStr := chi.URLParam(r, "filterID")
	filterID, err := strconv.Atoi(filterIDStr)
	if err != nil {
		logger.Warn("Invalid filterID in URL", port.Fields{"provided_id": filterIDStr})
		WriteJSONError(w, http.StatusBadRequest, "Invalid filterID in URL")
		return
	}

	session.RemoveFilter(filterID)
	RespondWithJSON(w, http.StatusOK, filtersResponse(session))
}

// ClearFilters обрабатывает DELETE /api/v1/sessions/{sessionID}/filters
func (h *StorefrontHandler) ClearFilters(w http.ResponseWriter, r *http.Request) {
	session := sessionFromRequest(r)
	session.ClearFilters()
	RespondWithJSON(w, http.StatusOK, filtersResponse(session))
}

// SetSearch обрабатывает PUT /api/v1/sessions/{sessionID}/search
func (h *StorefrontHandler) SetSearch(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "SetSearch"})

	var reqDTO SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		logger.Warn("Failed to decode request body for search", port.Fields{"error": err.Error()})
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session := sessionFromRequest(r)
	session.SetSearch(strings.TrimSpace(reqDTO.Query))
	RespondWithJSON(w, http.StatusAccepted, toProductListResponse(session.Products.Snapshot()))
}

// SetCategory обрабатывает PUT /api/v1/sessions/{sessionID}/category
func (h *StorefrontHandler) SetCategory(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "SetCategory"})

	var reqDTO CategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		logger.Warn("Failed to decode request body for category", port.Fields{"error": err.Error()})
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session := sessionFromRequest(r)
	session.SetCategory(reqDTO.Slug)
	RespondWithJSON(w, http.StatusAccepted, toProductListResponse(session.Products.Snapshot()))
}

// GetProducts обрабатывает GET /api/v1/sessions/{sessionID}/products
func (h *StorefrontHandler) GetProducts(w http.ResponseWriter, r *http.Request) {
	session := sessionFromRequest(r)
	RespondWithJSON(w, http.StatusOK, toProductListResponse(session.Products.Snapshot()))
}

// FetchProducts обрабатывает POST /api/v1/sessions/{sessionID}/products/fetch.
// Запрос выполняется сразу и отменяет отложенный; ошибка каталога попадает в поле error ответа.
func (h *StorefrontHandler) FetchProducts(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "FetchProducts"})
	session := sessionFromRequest(r)

	var reqDTO FetchProductsRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
			logger.Warn("Failed to decode request body for fetch products", port.Fields{"error": err.Error()})
			WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}
	if reqDTO.OrderBy == "" {
		reqDTO.OrderBy = session.Products.OrderBy()
	}
	if reqDTO.Page <= 0 {
		reqDTO.Page = 1
	}

	session.FetchPage(r.Context(), reqDTO.OrderBy, reqDTO.Page)
	RespondWithJSON(w, http.StatusOK, toProductListResponse(session.Products.Snapshot()))
}

// RecordVisit обрабатывает POST /api/v1/visits. Отправка идет в фоне, ответ - 202.
func (h *StorefrontHandler) RecordVisit(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "RecordVisit"})

	var reqDTO VisitRequest
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		logger.Warn("Failed to decode request body for visit", port.Fields{"error": err.Error()})
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if reqDTO.ItemID <= 0 || strings.TrimSpace(reqDTO.ItemType) == "" {
		logger.Warn("Invalid visit payload", port.Fields{"item_id": reqDTO.ItemID, "item_type": reqDTO.ItemType})
		WriteJSONError(w, http.StatusBadRequest, "item_id and item_type are required")
		return
	}

	h.visits.Execute(r.Context(), reqDTO.ItemID, reqDTO.ItemType)
	w.WriteHeader(http.StatusAccepted)
}

func filtersResponse(session *usecase.StorefrontSession) FiltersResponse {
	return FiltersResponse{
		Filters:       toFilterEntriesResponse(session.Filters.Filters()),
		Subcategories: toFacetItemsResponse(session.Filters.Subcategories()),
		Sublocations:  toFacetItemsResponse(session.Filters.Sublocations()),
	}
}
