package handler

import (
	"encoding/json"
	"net/http"

	"skinchanger-api/internal/middleware"
	"skinchanger-api/internal/model"
	"skinchanger-api/internal/service"
	"skinchanger-api/pkg/apierror"
	"skinchanger-api/pkg/response"
)

// AuthHandler handles authentication-related HTTP requests.
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterRequest represents the request body for registration.
type RegisterRequest struct {
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	LicenseKey string `json:"license_key"`
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SessionResponse represents the response for register and login.
type SessionResponse struct {
	Token   string             `json:"token"`
	Account *model.AccountView `json:"account"`
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	token, account, err := h.authService.Register(r.Context(), req.Username, req.Email, req.Password, req.LicenseKey)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.Created(w, SessionResponse{Token: token, Account: account})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	token, account, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, SessionResponse{Token: token, Account: account})
}

// VerifyResponse represents the response for token verification.
type VerifyResponse struct {
	Valid     bool   `json:"valid"`
	AccountID int64  `json:"account_id"`
	Username  string `json:"username"`
}

// Verify handles GET /api/auth/verify. The route sits behind the session
// gate, so reaching it means the token already verified.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	response.OK(w, VerifyResponse{
		Valid:     true,
		AccountID: claims.AccountID,
		Username:  claims.Username,
	})
}

// APITokenResponse represents the response for API token generation.
type APITokenResponse struct {
	APIToken  string `json:"api_token"`
	ExpiresIn int64  `json:"expires_in"`
}

// GenerateAPIToken handles POST /api/auth/generate-api-token
func (h *AuthHandler) GenerateAPIToken(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	token, ttl, err := h.authService.MintAPIToken(r.Context(), claims)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, APITokenResponse{
		APIToken:  token,
		ExpiresIn: int64(ttl.Seconds()),
	})
}
