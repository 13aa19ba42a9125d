package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pediforte/registration-api/internal/middleware"
	appErrors "github.com/pediforte/registration-api/pkg/errors"
)

// studentIDParam parses the :id path segment. Non-numeric ids cannot match a student.
func studentIDParam(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	return id, nil
}

func adminIDFromContext(c *gin.Context) *int64 {
	admin := middleware.CurrentAdmin(c)
	if admin == nil {
		return nil
	}
	id := admin.ID
	return &id
}

func message(text string) gin.H {
	return gin.H{"message": text}
}
