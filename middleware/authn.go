package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.pilab.hu/shadow-auth/domain"
	serrors "go.pilab.hu/shadow-auth/errors"
	"go.pilab.hu/shadow-auth/services"
)

// PrincipalKey is the gin context key holding the authenticated *domain.Principal.
const PrincipalKey = "auth-principal"

var errMalformedAuthHeader = errors.New("invalid authorization header format: expected Bearer token")

// BearerAuthenticator validates the access token in the Authorization header.
//
// Requests without the header continue anonymously so public routes keep working; a
// malformed header or a token that fails validation aborts the request.
func BearerAuthenticator(validator services.AccessTokenValidator) gin.HandlerFunc {
	tracer := otel.Tracer("go.pilab.hu/shadow-auth/middleware")

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		ctx, span := tracer.Start(c.Request.Context(), "BearerAuthenticator")
		defer span.End()

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			span.RecordError(errMalformedAuthHeader)
			abortWithError(c, serrors.TokenInvalid(errMalformedAuthHeader))
			return
		}

		principal, err := validator.ValidateAccess(ctx, strings.TrimSpace(parts[1]))
		if err != nil {
			span.RecordError(err)
			abortWithError(c, err)
			return
		}
		span.SetAttributes(attribute.String("auth.role", principal.Role.String()))

		c.Set(PrincipalKey, principal)
		c.Request = c.Request.WithContext(domain.WithPrincipal(c.Request.Context(), principal))
		c.Next()
	}
}

// RequireAuthenticated rejects anonymous requests with 401.
func RequireAuthenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := PrincipalFrom(c); !ok {
			abortWithError(c, serrors.Unauthenticated())
			return
		}
		c.Next()
	}
}

// RequireRole rejects anonymous requests with 401 and callers holding another role with 403.
func RequireRole(role domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := PrincipalFrom(c)
		if !ok {
			abortWithError(c, serrors.Unauthenticated())
			return
		}
		if principal.Role != role {
			abortWithError(c, serrors.AccessDenied())
			return
		}
		c.Next()
	}
}

// PrincipalFrom returns the principal set by BearerAuthenticator.
func PrincipalFrom(c *gin.Context) (*domain.Principal, bool) {
	v, ok := c.Get(PrincipalKey)
	if !ok {
		return nil, false
	}
	principal, ok := v.(*domain.Principal)
	return principal, ok && principal != nil
}

func abortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
