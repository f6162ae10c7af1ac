package http

import (
	"github.com/labstack/echo/v4"

	xutil "FxBias/pkg/util"
)

// DateParam reads an optional date query parameter and normalizes it to a
// UTC date key. ok is false when the value is present but unparseable.
func DateParam(c echo.Context, name string) (key string, ok bool) {
	raw := c.QueryParam(name)
	if raw == "" {
		return "", true
	}
	return xutil.ParseDateKey(raw)
}
