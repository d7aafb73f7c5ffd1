package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/infrastructure/auth"
	"github.com/shopledger/backend/internal/infrastructure/config"
	"github.com/shopledger/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthHandler_LogoutRevokesToken(t *testing.T) {
	svc := auth.NewJWTService(config.JWTConfig{Secret: "handler-test-secret-32-characters!", AccessTokenExpiration: time.Hour})
	store := auth.NewInMemoryRevocationStore()
	h := NewAuthHandler(store)

	r := gin.New()
	protected := r.Group("", middleware.RequestID(), middleware.JWTAuth(middleware.JWTConfig{Validator: svc, Revocations: store}))
	protected.POST("/auth/logout", h.Logout)
	protected.GET("/me", func(c *gin.Context) { c.Status(http.StatusOK) })

	tok, err := svc.Generate(auth.GenerateTokenInput{UserID: uuid.New(), ShopID: uuid.New(), Role: auth.RoleCashier})
	require.NoError(t, err)

	call := func(method, path string) int {
		req := httpRequest(method, path)
		req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
		w := serve(r, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, call(http.MethodGet, "/me"))
	assert.Equal(t, http.StatusOK, call(http.MethodPost, "/auth/logout"))
	assert.Equal(t, http.StatusUnauthorized, call(http.MethodGet, "/me"))

	claims, err := svc.Validate(tok.AccessToken)
	require.NoError(t, err)
	revoked, err := store.IsRevoked(context.Background(), claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestAuthHandler_LogoutWithoutClaims(t *testing.T) {
	h := NewAuthHandler(nil)
	r := gin.New()
	r.POST("/auth/logout", h.Logout)

	w := doJSON(r, http.MethodPost, "/auth/logout", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
