package studies

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/killallgit/study-api/api/types"
	"github.com/killallgit/study-api/internal/models"
)

// ListStudies lists every study under the samples root
// @Summary      List studies
// @Description  Scan the samples directory and report each study with its model count. Missing study structure is created on the fly.
// @Tags         studies
// @Produce      json
// @Success      200 {array} models.StudySummary "Studies"
// @Failure      500 {object} types.ErrorResponse "Samples directory unreadable"
// @Router       /api/studies [get]
func ListStudies(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := deps.Store.ListStudies(c.Request.Context())
		if deps.Metrics != nil {
			deps.Metrics.ObserveStudyRead("list", err)
		}
		if err != nil {
			types.SendError(c, deps.Log(), err, "Failed to list studies")
			return
		}

		types.SendSuccess(c, list)
	}
}

// GetStudy returns one study with models, annotations and videos
// @Summary      Get study
// @Description  Model urls are built from the scheme and host the request used, so LAN clients receive reachable addresses.
// @Tags         studies
// @Produce      json
// @Param        id path string true "Study ID" example(case-001)
// @Success      200 {object} models.Study "Study detail"
// @Failure      400 {object} types.ErrorResponse "Invalid study id"
// @Failure      404 {object} types.ErrorResponse "Study not found"
// @Failure      500 {object} types.ErrorResponse "Internal server error"
// @Router       /api/studies/{id} [get]
func GetStudy(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		study, err := deps.Store.GetStudy(c.Request.Context(), c.Param("id"), deps.BaseURL(c))
		if deps.Metrics != nil {
			deps.Metrics.ObserveStudyRead("get", err)
		}
		if err != nil {
			types.SendError(c, deps.Log(), err, "Failed to load study")
			return
		}

		types.SendSuccess(c, study)
	}
}

// SaveAnnotations replaces the annotation file of one model
// @Summary      Save annotations for a model
// @Description  Overwrites the model's annotation file with exactly the given array. Last writer wins.
// @Tags         studies
// @Accept       json
// @Produce      json
// @Param        id path string true "Study ID" example(case-001)
// @Param        request body types.SaveAnnotationsRequest true "Model id and its complete annotation list"
// @Success      200 {object} types.SuccessResponse
// @Failure      400 {object} types.ErrorResponse "Missing modelId or invalid body"
// @Failure      404 {object} types.ErrorResponse "Study or model not found"
// @Failure      500 {object} types.ErrorResponse "Internal server error"
// @Router       /api/studies/{id}/annotations [post]
func SaveAnnotations(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.SaveAnnotationsRequest
		if !types.BindJSONOrError(c, &req) {
			return
		}

		studyID := c.Param("id")
		err := deps.Store.SaveAnnotations(c.Request.Context(), studyID, req.ModelID, req.Annotations)
		if deps.Metrics != nil {
			deps.Metrics.ObserveAnnotationSave(len(req.Annotations), err)
		}
		if err != nil {
			types.SendError(c, deps.Log(), err, "Failed to save annotations")
			return
		}

		if deps.Activity != nil {
			if err := deps.Activity.RecordAnnotationsSaved(c.Request.Context(), studyID, req.ModelID, len(req.Annotations), c.ClientIP()); err != nil {
				deps.Log().Warn("failed to record activity", zap.String("study", studyID), zap.Error(err))
			}
		}

		types.SendOK(c)
	}
}

// AppendVideo adds a recording reference to the study's video ledger
// @Summary      Append video reference
// @Description  Appends the descriptor with a server timestamp. Extra fields are stored verbatim.
// @Tags         studies
// @Accept       json
// @Produce      json
// @Param        id path string true "Study ID" example(case-001)
// @Param        video body models.Video true "Video descriptor (name, url, ...)"
// @Success      200 {object} types.SuccessResponse
// @Failure      400 {object} types.ErrorResponse "Missing name or invalid body"
// @Failure      404 {object} types.ErrorResponse "Study not found"
// @Failure      500 {object} types.ErrorResponse "Internal server error"
// @Router       /api/studies/{id}/videos [post]
func AppendVideo(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		var video models.Video
		if !types.BindJSONOrError(c, &video) {
			return
		}

		studyID := c.Param("id")
		stored, count, err := deps.Store.AppendVideo(c.Request.Context(), studyID, video)
		if deps.Metrics != nil {
			deps.Metrics.ObserveVideoAppend(err)
		}
		if err != nil {
			types.SendError(c, deps.Log(), err, "Failed to save video")
			return
		}

		if deps.Activity != nil {
			if err := deps.Activity.RecordVideoAppended(c.Request.Context(), studyID, stored.Name, count, c.ClientIP()); err != nil {
				deps.Log().Warn("failed to record activity", zap.String("study", studyID), zap.Error(err))
			}
		}

		types.SendOK(c)
	}
}

// ListActivity returns recent sync events of a study
// @Summary      List study activity
// @Description  Recent annotation saves and video appends, newest first
// @Tags         studies
// @Produce      json
// @Param        id path string true "Study ID" example(case-001)
// @Param        limit query int false "Maximum entries (default 50, max 500)"
// @Success      200 {array} models.Activity
// @Failure      400 {object} types.ErrorResponse "Invalid limit"
// @Failure      404 {object} types.ErrorResponse "Study not found"
// @Failure      503 {object} types.ErrorResponse "Activity log disabled"
// @Router       /api/studies/{id}/activity [get]
func ListActivity(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		if deps.Activity == nil {
			c.JSON(http.StatusServiceUnavailable, types.ErrorResponse{Error: "Activity log is disabled"})
			return
		}

		limit, ok := types.ParseLimitQuery(c, "limit")
		if !ok {
			return
		}

		studyID := c.Param("id")
		if err := deps.Store.EnsureStructure(c.Request.Context(), studyID); err != nil {
			types.SendError(c, deps.Log(), err, "Failed to load study")
			return
		}

		entries, err := deps.Activity.ListByStudy(c.Request.Context(), studyID, limit)
		if err != nil {
			types.SendError(c, deps.Log(), err, "Failed to load activity")
			return
		}

		types.SendSuccess(c, entries)
	}
}
