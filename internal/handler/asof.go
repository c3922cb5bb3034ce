package handler

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/flow-api/internal/clock"
)

// AsOf resolves the evaluation time for a request. An explicit ?at=RFC3339
// query parameter wins; otherwise the simulated clinic clock is the
// reference.
func AsOf(c *gin.Context, clk *clock.SimClock) (time.Time, error) {
	raw := c.Query("at")
	if raw == "" {
		return clk.Now(), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid 'at' parameter, expected RFC3339: %v", err)
	}
	return t, nil
}
