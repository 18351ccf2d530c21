package studies

import (
	"github.com/gin-gonic/gin"

	"github.com/killallgit/study-api/api/types"
)

// RegisterRoutes registers study routes under /api/studies
func RegisterRoutes(router *gin.RouterGroup, deps *types.Dependencies) {
	router.GET("", ListStudies(deps))
	router.GET("/:id", GetStudy(deps))
	router.POST("/:id/annotations", SaveAnnotations(deps))
	router.POST("/:id/videos", AppendVideo(deps))
	router.GET("/:id/activity", ListActivity(deps))
}
