package router

import (
	"github.com/gin-gonic/gin"

	"campuskit.app/institution-service/internal/http/handler"
)

func InstitutionRouter(rg *gin.RouterGroup, h *handler.InstitutionHandler) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/active", h.ListActive)
	rg.GET("/inactive", h.ListInactive)
	rg.GET("/:id", h.GetByID)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
	rg.POST("/:id/restore", h.Restore)

	classrooms := rg.Group("/:id/classrooms")
	{
		classrooms.POST("", h.AddClassroom)
		classrooms.PUT("/:classroomId", h.UpdateClassroom)
		classrooms.DELETE("/:classroomId", h.RemoveClassroom)
	}
}
