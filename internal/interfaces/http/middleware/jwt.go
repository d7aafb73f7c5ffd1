package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopledger/backend/internal/infrastructure/auth"
	"github.com/shopledger/backend/internal/infrastructure/logger"
	"github.com/shopledger/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// JWT context keys
const (
	JWTClaimsKey  = "jwt_claims"
	JWTUserIDKey  = "user_id"
	JWTShopIDKey  = "shop_id"
	JWTRoleKey    = "role"
	JWTRawToken   = "jwt_raw_token"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// TokenValidator validates a raw access token
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// JWTConfig holds configuration for the JWT middleware
type JWTConfig struct {
	Validator TokenValidator
	// Revocations is optional; without it logout only discards the token client-side
	Revocations auth.RevocationStore
	Logger      *zap.Logger
}

// JWTAuth requires a valid, unrevoked Bearer token and stores the caller's
// user id, shop id and role on the context
func JWTAuth(cfg JWTConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		header := c.GetHeader(AuthHeaderKey)
		if header == "" {
			abortAuth(c, log, nil, "Missing authorization header")
			return
		}
		if !strings.HasPrefix(header, BearerPrefix) {
			abortAuth(c, log, auth.ErrInvalidToken, "Invalid authorization header format")
			return
		}
		raw := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
		if raw == "" {
			abortAuth(c, log, nil, "Missing token")
			return
		}

		claims, err := cfg.Validator.Validate(raw)
		if err != nil {
			abortAuth(c, log, err, "Token validation failed")
			return
		}

		if cfg.Revocations != nil {
			revoked, err := cfg.Revocations.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				// Fail open: an unreachable revocation store must not lock every cashier out
				log.Error("Failed to check token revocation", zap.String("jti", claims.ID), zap.Error(err))
			} else if revoked {
				abortAuth(c, log, auth.ErrTokenRevoked, "Token has been revoked")
				return
			}
		}

		userID, _ := claims.UserUUID()
		shopID, _ := claims.ShopUUID()
		c.Set(JWTClaimsKey, claims)
		c.Set(JWTRawToken, raw)
		c.Set(JWTUserIDKey, userID.String())
		c.Set(JWTShopIDKey, shopID.String())
		c.Set(JWTRoleKey, string(claims.Role))

		ctx := c.Request.Context()
		reqLog := logger.FromContext(ctx)
		ctx, reqLog = logger.WithUserID(ctx, reqLog, claims.UserID)
		ctx, reqLog = logger.WithShopID(ctx, reqLog, claims.ShopID)
		ctx = logger.WithContext(ctx, reqLog)
		c.Request = c.Request.WithContext(ctx)
		c.Set(logger.GinLoggerKey, reqLog)

		c.Next()
	}
}

func abortAuth(c *gin.Context, log *zap.Logger, err error, reason string) {
	log.Warn("JWT authentication failed",
		zap.String("reason", reason),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err))

	code, message := shared.CodeUnauthorized, "Authentication required"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code, message = dto.CodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrTokenRevoked):
		code, message = dto.CodeTokenRevoked, "Token has been revoked"
	case errors.Is(err, auth.ErrTokenNotYetValid):
		code, message = dto.CodeTokenInvalid, "Token is not yet valid"
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrInvalidClaims),
		errors.Is(err, auth.ErrMissingShopID), errors.Is(err, auth.ErrMissingUserID), errors.Is(err, auth.ErrInvalidRole):
		code, message = dto.CodeTokenInvalid, "Invalid token"
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(code, message, GetRequestID(c)))
}

// RequireRoles lets the request through only for the listed roles.
// It must run after JWTAuth.
func RequireRoles(roles ...auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponse(shared.CodeUnauthorized, "Authentication required", GetRequestID(c)))
			return
		}
		if !claims.HasRole(roles...) {
			c.AbortWithStatusJSON(http.StatusForbidden,
				dto.NewErrorResponse(shared.CodeForbidden, "Role "+string(claims.Role)+" may not perform this action", GetRequestID(c)))
			return
		}
		c.Next()
	}
}

// GetClaims returns the validated claims, or nil
func GetClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(JWTClaimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// GetRawToken returns the bearer token string JWTAuth accepted
func GetRawToken(c *gin.Context) string {
	return c.GetString(JWTRawToken)
}

// GetShopID returns the caller's shop
func GetShopID(c *gin.Context) (uuid.UUID, bool) {
	return parseContextUUID(c, JWTShopIDKey)
}

// GetUserID returns the caller's user id
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	return parseContextUUID(c, JWTUserIDKey)
}

func parseContextUUID(c *gin.Context, key string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.GetString(key))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}
