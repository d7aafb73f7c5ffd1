package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopledger/backend/internal/infrastructure/auth"
	"github.com/shopledger/backend/internal/interfaces/http/dto"
	"github.com/shopledger/backend/internal/interfaces/http/middleware"
)

// LogoutResponse reports the revoked token
type LogoutResponse struct {
	Revoked   bool      `json:"revoked"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AuthHandler handles token lifecycle endpoints
type AuthHandler struct {
	BaseHandler
	revocations auth.RevocationStore
	now         func() time.Time
}

// NewAuthHandler creates a new AuthHandler. A nil store makes logout a
// client-side operation only.
func NewAuthHandler(revocations auth.RevocationStore) *AuthHandler {
	return &AuthHandler{revocations: revocations, now: time.Now}
}

// Logout godoc
// @Summary      Revoke the presented access token
// @Tags         auth
// @Produce      json
// @Success      200 {object} dto.Response{data=LogoutResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized,
			dto.NewErrorResponse(shared.CodeUnauthorized, "Authentication required", middleware.GetRequestID(c)))
		return
	}

	resp := LogoutResponse{ExpiresAt: claims.ExpiresAtTime()}
	if h.revocations != nil {
		if err := auth.RevokeClaims(c.Request.Context(), h.revocations, claims, h.now()); err != nil {
			h.HandleError(c, err)
			return
		}
		resp.Revoked = true
	}
	h.Success(c, resp)
}
