package middleware

// identity.go defines helper functions shared across middleware files. Currently
// it provides a user ID extraction function that reads the user_id value the
// JWT middleware stored in the Echo context. JWT numeric claims come back as
// float64 after parsing, so both string and numeric forms are handled. When no
// user is authenticated, "anon" is returned.

import (
    "strconv"

    "github.com/labstack/echo/v4"
)

// currentUserID extracts a user identifier from the Echo context as a string
// suitable for rate-limit keys and logs. It returns "anon" when no user is
// authenticated.
func currentUserID(c echo.Context) string {
    switch v := c.Get("user_id").(type) {
    case string:
        if v != "" {
            return v
        }
    case uint64:
        return strconv.FormatUint(v, 10)
    case int64:
        return strconv.FormatInt(v, 10)
    case int:
        return strconv.Itoa(v)
    case float64:
        return strconv.FormatUint(uint64(v), 10)
    }
    return "anon"
}
