package middleware

import (
	"github.com/gin-gonic/gin"
	serrors "go.pilab.hu/shadow-auth/errors"
)

// ErrorResponse is the body written for every failed request.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// ErrorTranslator turns the last error recorded on the gin context into a JSON response.
// It must be registered before every other handler that records errors. Errors outside
// the taxonomy are answered as temporarily_unavailable so internals never leak.
func ErrorTranslator() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		last := c.Errors.Last()
		if last == nil || c.Writer.Written() {
			return
		}

		authErr, ok := serrors.As(last.Err)
		if !ok {
			authErr = serrors.Unavailable(last.Err)
		}

		c.JSON(serrors.HTTPStatus(authErr), ErrorResponse{
			Error:            authErr.Code,
			ErrorDescription: authErr.Description,
		})
	}
}
