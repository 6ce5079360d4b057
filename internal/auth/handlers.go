package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"todochat/internal/respond"
)

const minPasswordLength = 8

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type credentialsBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func RegisterHandler(users UserStore, secret []byte, ttl time.Duration, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body credentialsBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			respond.Detail(w, http.StatusBadRequest, "invalid json")
			return
		}
		email := normalizeEmail(body.Email)
		if email == "" || !strings.Contains(email, "@") {
			respond.Detail(w, http.StatusBadRequest, "a valid email is required")
			return
		}
		if len(body.Password) < minPasswordLength {
			respond.Detail(w, http.StatusBadRequest, "password must be at least 8 characters")
			return
		}

		hash, err := HashPassword(body.Password)
		if err != nil {
			logger.Error("hash password", zap.Error(err))
			respond.Detail(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		u, err := users.CreateUser(r.Context(), email, hash)
		if errors.Is(err, ErrEmailTaken) {
			respond.Detail(w, http.StatusBadRequest, "Email already registered")
			return
		}
		if err != nil {
			logger.Error("create user", zap.Error(err))
			respond.Detail(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		token, err := GenerateToken(secret, u.ID, ttl)
		if err != nil {
			logger.Error("sign token", zap.Error(err))
			respond.Detail(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		respond.JSON(w, http.StatusCreated, tokenResponse{AccessToken: token, TokenType: "bearer"})
	}
}

func LoginHandler(users UserStore, secret []byte, ttl time.Duration, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body credentialsBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			respond.Detail(w, http.StatusBadRequest, "invalid json")
			return
		}

		u, err := users.UserByEmail(r.Context(), normalizeEmail(body.Email))
		if err != nil && !errors.Is(err, ErrUserNotFound) {
			logger.Error("lookup user", zap.Error(err))
			respond.Detail(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		if u == nil || !CheckPassword(u.PasswordHash, body.Password) {
			respond.Detail(w, http.StatusUnauthorized, "Incorrect email or password")
			return
		}

		token, err := GenerateToken(secret, u.ID, ttl)
		if err != nil {
			logger.Error("sign token", zap.Error(err))
			respond.Detail(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		respond.JSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
	}
}

func MeHandler(users UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := UserIDFromContext(r.Context())
		if !ok {
			respond.Detail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		u, err := users.UserByID(r.Context(), uid)
		if err != nil {
			respond.Detail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		respond.JSON(w, http.StatusOK, u)
	}
}

// Register mounts the account routes on mux.
func Register(mux *http.ServeMux, users UserStore, secret []byte, ttl time.Duration, logger *zap.Logger) {
	logger = logger.Named("auth")
	mux.HandleFunc("POST /api/auth/register", RegisterHandler(users, secret, ttl, logger))
	mux.HandleFunc("POST /api/auth/login", LoginHandler(users, secret, ttl, logger))
	mux.HandleFunc("GET /api/auth/me", New(secret).Wrap(MeHandler(users)))
}
