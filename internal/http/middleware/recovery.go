package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"campuskit.app/institution-service/internal/http/dto"
)

// Recovery converts panics into a 500 response instead of killing the process.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				slog.ErrorContext(c.Request.Context(), "panic recovered",
					"panic", r,
					"path", c.Request.URL.Path,
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError,
					dto.Err(dto.CodePersistenceError, "internal server error"))
			}
		}()
		c.Next()
	}
}
