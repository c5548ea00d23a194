package auth

import (
	"crypto/subtle"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aura-webinar/workshops/pkg/response"
	"github.com/aura-webinar/workshops/pkg/utils"
)

// Account is one configured admin login. PasswordHash is bcrypt.
type Account struct {
	Username     string
	PasswordHash string
	Role         string
}

// LoginRequest is the body for POST /admin/login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is the login response with JWT.
type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
	Username  string `json:"username"`
	Role      string `json:"role"`
}

// Handler handles admin auth HTTP endpoints.
type Handler struct {
	accounts []Account
	jwt      *JWTService
	logger   *zap.Logger
}

// NewHandler creates an auth handler. Accounts without a password hash are ignored.
func NewHandler(accounts []Account, jwt *JWTService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	var usable []Account
	for _, a := range accounts {
		if a.Username == "" || a.PasswordHash == "" {
			continue
		}
		if !utils.IsBcryptHash(a.PasswordHash) {
			logger.Warn("password hash is not bcrypt, account disabled", zap.String("username", a.Username))
			continue
		}
		usable = append(usable, a)
	}
	if len(usable) == 0 {
		logger.Warn("no admin accounts configured, admin login disabled")
	}
	return &Handler{accounts: usable, jwt: jwt, logger: logger}
}

// Login handles POST /admin/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	acct, ok := h.lookup(req.Username)
	if !ok || !utils.CheckPassword(req.Password, acct.PasswordHash) {
		h.logger.Warn("admin login failed", zap.String("username", req.Username), zap.String("client_ip", c.ClientIP()))
		response.Unauthorized(c, "invalid credentials")
		return
	}

	token, expiresAt, err := h.jwt.Generate(acct.Username, acct.Role)
	if err != nil {
		h.logger.Error("generate token failed", zap.Error(err))
		response.Internal(c, "failed to generate token")
		return
	}
	h.logger.Info("admin login", zap.String("username", acct.Username), zap.String("role", acct.Role))
	response.OK(c, TokenResponse{
		Token:     token,
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
		Username:  acct.Username,
		Role:      acct.Role,
	})
}

func (h *Handler) lookup(username string) (Account, bool) {
	for _, a := range h.accounts {
		if subtle.ConstantTimeCompare([]byte(a.Username), []byte(username)) == 1 {
			return a, true
		}
	}
	return Account{}, false
}
