package pagination

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Params holds pagination parameters from request
type Params struct {
	Limit  int
	Offset int
}

// DefaultParams returns pagination params with defaults applied
// defaultLimit: default items per page, maxLimit: maximum allowed limit
func DefaultParams(limit, offset, defaultLimit, maxLimit int) Params {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return Params{
		Limit:  limit,
		Offset: offset,
	}
}

// FromQuery reads limit and offset query parameters; missing values take
// the defaults, non-numeric values are an error
func FromQuery(c *gin.Context, defaultLimit, maxLimit int) (Params, error) {
	limit, err := intQuery(c, "limit")
	if err != nil {
		return Params{}, err
	}

	offset, err := intQuery(c, "offset")
	if err != nil {
		return Params{}, err
	}

	return DefaultParams(limit, offset, defaultLimit, maxLimit), nil
}

func intQuery(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}

	return value, nil
}
