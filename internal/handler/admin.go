package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"skinchanger-api/internal/service"
	"skinchanger-api/pkg/apierror"
	"skinchanger-api/pkg/response"

	"github.com/go-chi/chi/v5"
)

// AdminHandler handles administrator HTTP requests. All routes sit behind
// the admin gate, which re-reads the role from the store per request.
type AdminHandler struct {
	accountService *service.AccountService
	licenseService *service.LicenseService
	statsService   *service.StatsService
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(
	accountService *service.AccountService,
	licenseService *service.LicenseService,
	statsService *service.StatsService,
) *AdminHandler {
	return &AdminHandler{
		accountService: accountService,
		licenseService: licenseService,
		statsService:   statsService,
	}
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// ListUsers handles GET /api/admin/users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.accountService.List(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, users)
}

// GetUser handles GET /api/admin/users/{id}
func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.Error(w, apierror.BadRequest("invalid user id"))
		return
	}

	user, err := h.accountService.Get(r.Context(), id)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, user)
}

// StatusRequest represents the request body for a status change.
type StatusRequest struct {
	IsActive bool `json:"is_active"`
}

// UpdateUserStatus handles PATCH /api/admin/users/{id}/status
func (h *AdminHandler) UpdateUserStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.Error(w, apierror.BadRequest("invalid user id"))
		return
	}

	var req StatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	if err := h.accountService.SetActive(r.Context(), id, req.IsActive); err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, map[string]string{"status": "updated"})
}

// AssignLicenseRequest represents the request body for license assignment.
type AssignLicenseRequest struct {
	LicenseKey string `json:"license_key"`
}

// AssignLicense handles POST /api/admin/users/{id}/assign-license
func (h *AdminHandler) AssignLicense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.Error(w, apierror.BadRequest("invalid user id"))
		return
	}

	var req AssignLicenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	if err := h.licenseService.Assign(r.Context(), req.LicenseKey, id); err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, map[string]string{"status": "assigned"})
}

// DeleteUser handles DELETE /api/admin/users/{id}
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.Error(w, apierror.BadRequest("invalid user id"))
		return
	}

	if err := h.accountService.Delete(r.Context(), id); err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, map[string]string{"status": "deleted"})
}

// ListLicenses handles GET /api/admin/licenses
func (h *AdminHandler) ListLicenses(w http.ResponseWriter, r *http.Request) {
	licenses, err := h.licenseService.List(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, licenses)
}

// GenerateLicensesRequest represents the request body for key generation.
type GenerateLicensesRequest struct {
	Count       int    `json:"count"`
	ExpiresDays int    `json:"expires_days"`
	Notes       string `json:"notes"`
}

// GenerateLicenses handles POST /api/admin/licenses/generate
func (h *AdminHandler) GenerateLicenses(w http.ResponseWriter, r *http.Request) {
	// An empty body means "one key, no expiry, no notes".
	req := GenerateLicensesRequest{Count: 1}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	keys, err := h.licenseService.Generate(r.Context(), req.Count, req.ExpiresDays, req.Notes)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Created(w, map[string]interface{}{"keys": keys})
}

// DeleteLicense handles DELETE /api/admin/licenses/{id}
func (h *AdminHandler) DeleteLicense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.Error(w, apierror.BadRequest("invalid license id"))
		return
	}

	if err := h.licenseService.Delete(r.Context(), id); err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, map[string]string{"status": "deleted"})
}

// GetStats handles GET /api/admin/stats
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.statsService.Get(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, stats)
}
