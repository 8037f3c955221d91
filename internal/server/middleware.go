package server

import (
	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/apotek/internal/observability/context"
)

// actingUser returns the caller supplied X-Acting-User value. An empty
// string lets the services fall back to the system user.
func actingUser(c *gin.Context) string {
	return obscontext.ActingUserFromContext(c.Request.Context())
}
