// Package samples serves model files, annotation JSON and recordings
// straight from the samples root.
package samples

import (
	"mime"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/killallgit/study-api/api/types"
)

// Content types for model formats the platform table does not know
var modelTypes = map[string]string{
	".stl":    "model/stl",
	".ply":    "application/ply",
	".splat":  "application/octet-stream",
	".ksplat": "application/octet-stream",
	".webm":   "video/webm",
}

func init() {
	for ext, typ := range modelTypes {
		_ = mime.AddExtensionType(ext, typ)
	}
}

// RegisterRoutes mounts the samples root read-only. Directory listings are
// disabled and lock files or dot entries are never served.
func RegisterRoutes(group *gin.RouterGroup, deps *types.Dependencies) {
	group.Use(hideInternalFiles())
	group.StaticFS("/", gin.Dir(deps.Store.SamplesDir(), false))
}

func hideInternalFiles() gin.HandlerFunc {
	return func(c *gin.Context) {
		p := c.Request.URL.Path
		if strings.HasSuffix(p, ".lock") || strings.Contains(p, "/.") {
			types.SendNotFound(c, "File not found")
			c.Abort()
			return
		}
		c.Next()
	}
}
