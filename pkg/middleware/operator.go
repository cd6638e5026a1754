package middleware

import (
	"net/http"
	"strings"

	"github.com/jordanlanch/leadtriage/pkg/auth"
	"github.com/jordanlanch/leadtriage/pkg/models"
	"github.com/labstack/echo/v4"
)

// OperatorContextKey holds the authenticated operator in the echo context
const OperatorContextKey = "operator"

// OperatorAuth requires a bearer JWT signed with secret
func OperatorAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
					Error:   "missing_token",
					Message: "Authorization header is required",
				})
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
					Error:   "invalid_token_format",
					Message: "Authorization header must be 'Bearer {token}'",
				})
			}

			claims, err := auth.ValidateJWT(parts[1], secret)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
					Error:   "invalid_token",
					Message: err.Error(),
				})
			}

			c.Set(OperatorContextKey, claims.Operator)
			return next(c)
		}
	}
}

// Operator returns the authenticated operator, empty when auth is disabled
func Operator(c echo.Context) string {
	op, _ := c.Get(OperatorContextKey).(string)
	return op
}
