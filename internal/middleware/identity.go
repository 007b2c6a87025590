package middleware

import (
	"fmt"

	"github.com/labstack/echo/v4"
)

// currentUserID renders the "user_id" context value (set by JWTAuth)
// as a string for rate-limit key building. Unauthenticated requests
// map to "anon" so guests share one bucket per IP.
func currentUserID(c echo.Context) string {
	v := c.Get("user_id")
	if v == nil {
		return "anon"
	}
	switch t := v.(type) {
	case string:
		if t != "" {
			return t
		}
	case float64:
		return fmt.Sprintf("%.0f", t)
	case uint64:
		return fmt.Sprintf("%d", t)
	}
	return "anon"
}
