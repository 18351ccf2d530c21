package version

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/killallgit/study-api/api/types"
)

// Version is reported by /version. The cmd package overrides it from build flags.
var Version = "1.0.0"

// Get handles version requests
// @Summary      Service version
// @Tags         version
// @Produce      json
// @Success      200 {object} types.VersionResponse
// @Router       /version [get]
func Get() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, types.VersionResponse{
			Name:        "Study Sync API",
			Version:     Version,
			Description: "Study, annotation and video ledger sync service for the 3D model viewer",
			Status:      "running",
		})
	}
}
