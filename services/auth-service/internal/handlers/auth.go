package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/md-rashed-zaman/clinicslots/libs/auth"
	"github.com/md-rashed-zaman/clinicslots/libs/httpx"
	"github.com/md-rashed-zaman/clinicslots/services/auth-service/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

type AdminStore interface {
	GetByEmail(ctx context.Context, email string) (storage.Admin, error)
	GetByID(ctx context.Context, id string) (storage.Admin, error)
	TouchLogin(ctx context.Context, id string, at time.Time) error
}

type AuthHandler struct {
	admins   AdminStore
	secret   string
	tokenTTL time.Duration
	logger   *slog.Logger
	validate *validator.Validate
	now      func() time.Time
}

func NewAuthHandler(admins AdminStore, secret string, tokenTTL time.Duration, logger *slog.Logger) *AuthHandler {
	if tokenTTL <= 0 {
		tokenTTL = 8 * time.Hour
	}
	return &AuthHandler{
		admins:   admins,
		secret:   secret,
		tokenTTL: tokenTTL,
		logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
	}
}

func (h *AuthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/auth/login", h.Login)
	mux.HandleFunc("/api/v1/auth/me", h.Me)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type meResponse struct {
	AdminID string `json:"admin_id"`
	Email   string `json:"email"`
	Role    string `json:"role"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !httpx.AllowMethods(w, r, http.MethodPost) {
		return
	}
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "InvalidBody", err.Error())
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := h.validate.Struct(req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "MissingFields", "email and password required")
		return
	}

	admin, err := h.admins.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httpx.WriteError(w, http.StatusUnauthorized, "InvalidCredentials", "invalid credentials")
			return
		}
		h.logger.Error("admin lookup failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "StorageUnavailable", "internal error")
		return
	}
	if err := VerifyPassword(admin.PasswordHash, req.Password); err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "InvalidCredentials", "invalid credentials")
		return
	}

	now := h.now()
	claims := auth.NewClaims(admin.ID, admin.Email, admin.Role, now, h.tokenTTL)
	token, err := auth.SignHS256(claims, h.secret)
	if err != nil {
		h.logger.Error("token signing failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "TokenUnavailable", "internal error")
		return
	}
	if err := h.admins.TouchLogin(r.Context(), admin.ID, now); err != nil {
		h.logger.Warn("last login not recorded", "err", err, "admin_id", admin.ID)
	}
	h.logger.Info("admin logged in", "admin_id", admin.ID)
	httpx.WriteJSON(w, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   claims.ExpiresAt.Time,
	})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	if !httpx.AllowMethods(w, r, http.MethodGet) {
		return
	}
	token, ok := auth.BearerToken(r.Header.Get("Authorization"))
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "MissingToken", "missing or invalid Authorization header")
		return
	}
	claims, err := auth.ParseAndVerifyHS256(token, h.secret)
	if err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "InvalidToken", "invalid token")
		return
	}
	admin, err := h.admins.GetByID(r.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httpx.WriteError(w, http.StatusUnauthorized, "InvalidToken", "admin no longer exists")
			return
		}
		h.logger.Error("admin lookup failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "StorageUnavailable", "internal error")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, meResponse{AdminID: admin.ID, Email: admin.Email, Role: admin.Role})
}

func HashPassword(raw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func VerifyPassword(hash string, raw string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw))
}
