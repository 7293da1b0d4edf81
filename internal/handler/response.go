package handler

import (
	"github.com/gin-gonic/gin"

	apperrors "studytracker/internal/errors"
)

// writeError renders {"error": {"code", "message", "details?"}} with the
// error's status. A nil error is reported as a 500.
func writeError(c *gin.Context, apiErr *apperrors.APIError) {
	if apiErr == nil {
		apiErr = apperrors.Internal("")
	}
	c.JSON(apiErr.Status, gin.H{"error": apiErr})
}

func writeInvalidJSON(c *gin.Context) {
	writeError(c, apperrors.BadRequest("invalid_json", "invalid request body"))
}
