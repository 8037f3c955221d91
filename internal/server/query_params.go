package server

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

var errInvalidID = errors.New("invalid_id")

func parseID(value string) (int64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, errInvalidID
	}
	parsed, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil || parsed <= 0 {
		return 0, errInvalidID
	}
	return parsed, nil
}

// pathID parses the :id path parameter and aborts the request when it is
// not a positive integer.
func pathID(c *gin.Context) (int64, bool) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return 0, false
	}
	return id, true
}
