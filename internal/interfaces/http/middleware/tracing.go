package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracing starts a server span per request through otelgin
func Tracing(serviceName string, enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return otelgin.Middleware(serviceName)
}

// SpanErrorMarker tags the span with the request id and marks 5xx
// responses as failed. It must run after Tracing.
func SpanErrorMarker() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			if id := GetRequestID(c); id != "" {
				span.SetAttributes(attribute.String("request_id", id))
			}
		}

		c.Next()

		if !span.IsRecording() {
			return
		}
		status := c.Writer.Status()
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
		if code := c.GetString(ErrorCodeKey); code != "" {
			span.SetAttributes(attribute.String("error.code", code))
		}
	}
}

// ErrorCodeKey holds the envelope error code a handler answered with
const ErrorCodeKey = "error_code"

// TracingAttributeInjector adds the caller's shop, user and role to the
// current span. It must run after JWTAuth.
func TracingAttributeInjector() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			if shopID := c.GetString(JWTShopIDKey); shopID != "" {
				span.SetAttributes(attribute.String("shop_id", shopID))
			}
			if userID := c.GetString(JWTUserIDKey); userID != "" {
				span.SetAttributes(attribute.String("user_id", userID))
			}
			if role := c.GetString(JWTRoleKey); role != "" {
				span.SetAttributes(attribute.String("role", role))
			}
		}
		c.Next()
	}
}
