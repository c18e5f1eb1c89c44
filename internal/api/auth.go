package api

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"sarthi/internal/logger"
)

const tokenIssuer = "sarthi"

// ErrInvalidCredentials is returned by Login for a wrong username or password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthConfig configures admin login.
type AuthConfig struct {
	Username string
	// Password empty disables login.
	Password string
	// Secret signs tokens; empty means a random per-process secret.
	Secret   []byte
	TokenTTL time.Duration
	// Required false lets every request through the admin middleware.
	Required bool
	Logger   *zap.Logger
}

// Auth issues and checks HS256 admin tokens.
type Auth struct {
	username string
	password string
	secret   []byte
	ttl      time.Duration
	required bool
	now      func() time.Time
	log      *zap.Logger
}

// NewAuth creates the admin authenticator.
func NewAuth(cfg AuthConfig) (*Auth, error) {
	log := logger.OrNop(cfg.Logger)
	secret := cfg.Secret
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, err
		}
		log.Warn("no jwt secret configured, tokens will not survive a restart")
	}
	if cfg.Password == "" {
		log.Warn("no admin password configured, login is disabled")
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Auth{
		username: cfg.Username,
		password: cfg.Password,
		secret:   secret,
		ttl:      ttl,
		required: cfg.Required,
		now:      time.Now,
		log:      log,
	}, nil
}

// Login checks the credentials and returns a signed token.
func (a *Auth) Login(username, password string) (string, error) {
	if a.password == "" ||
		subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) != 1 ||
		subtle.ConstantTimeCompare([]byte(password), []byte(a.password)) != 1 {
		return "", ErrInvalidCredentials
	}
	now := a.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
	})
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// Verify parses a token and returns the subject it was issued to.
func (a *Auth) Verify(raw string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleLogin handles POST /admin/login.
func (a *Auth) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}
	token, err := a.Login(req.Username, req.Password)
	if err != nil {
		a.log.Warn("admin login rejected", zap.String("username", req.Username), zap.String("remote_addr", r.RemoteAddr))
		sendError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	a.log.Info("admin logged in", zap.String("username", req.Username))
	sendJSON(w, http.StatusOK, map[string]string{"message": "Login successful", "token": token})
}

// Middleware rejects requests without a valid bearer token.
func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.required || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			sendError(w, http.StatusUnauthorized, "missing token")
			return
		}
		if _, err := a.Verify(strings.TrimSpace(raw)); err != nil {
			a.log.Warn("invalid admin token", zap.String("remote_addr", r.RemoteAddr), zap.Error(err))
			sendError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}
