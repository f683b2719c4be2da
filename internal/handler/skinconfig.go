package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"skinchanger-api/internal/middleware"
	"skinchanger-api/internal/service"
	"skinchanger-api/pkg/apierror"
	"skinchanger-api/pkg/response"

	"github.com/go-chi/chi/v5"
)

// SkinConfigHandler handles skin configuration HTTP requests. Every
// operation is scoped to the account behind the verified token.
type SkinConfigHandler struct {
	configService *service.SkinConfigService
}

// NewSkinConfigHandler creates a new skin configuration handler.
func NewSkinConfigHandler(configService *service.SkinConfigService) *SkinConfigHandler {
	return &SkinConfigHandler{configService: configService}
}

// List handles GET /api/config
func (h *SkinConfigHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	configs, err := h.configService.List(r.Context(), claims.AccountID)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, configs)
}

// Get handles GET /api/config/{id}
func (h *SkinConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.Error(w, apierror.BadRequest("invalid configuration id"))
		return
	}

	config, err := h.configService.Get(r.Context(), claims.AccountID, id)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, config)
}

// UpsertResponse reports the row written and whether it was created.
type UpsertResponse struct {
	ID      int64 `json:"id"`
	Created bool  `json:"created"`
}

// Upsert handles POST /api/config
func (h *SkinConfigHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	var in service.SkinConfigInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	id, created, err := h.configService.Upsert(r.Context(), claims.AccountID, in)
	if err != nil {
		response.Error(w, err)
		return
	}

	if created {
		response.Created(w, UpsertResponse{ID: id, Created: true})
		return
	}
	response.OK(w, UpsertResponse{ID: id, Created: false})
}

// Delete handles DELETE /api/config/{id}
func (h *SkinConfigHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.Error(w, apierror.BadRequest("invalid configuration id"))
		return
	}

	if err := h.configService.Delete(r.Context(), claims.AccountID, id); err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, map[string]string{"status": "deleted"})
}

// DeleteAll handles DELETE /api/config
func (h *SkinConfigHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	count, err := h.configService.DeleteAll(r.Context(), claims.AccountID)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, map[string]int64{"deleted_count": count})
}
