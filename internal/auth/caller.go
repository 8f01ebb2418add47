package auth

import (
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/fathurrizqi/tokolaptop/internal/apperrors"
	"github.com/fathurrizqi/tokolaptop/internal/models"
)

const contextKey = "caller"

// Caller is the authenticated identity threaded explicitly into every
// service call. There is no ambient current-user lookup anywhere else.
type Caller struct {
	ID   uint
	Role string
}

func (c Caller) IsAdmin() bool {
	return c.Role == models.RoleAdmin
}

func SetCaller(c echo.Context, caller Caller) {
	c.Set(contextKey, caller)
}

func CallerFrom(c echo.Context) (Caller, error) {
	caller, ok := c.Get(contextKey).(Caller)
	if !ok {
		return Caller{}, fmt.Errorf("%w: missing authenticated caller", apperrors.ErrUnauthorized)
	}
	return caller, nil
}
