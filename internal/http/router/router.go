package router

import (
	"github.com/gin-gonic/gin"

	"campuskit.app/institution-service/internal/http/handler"
	"campuskit.app/institution-service/internal/service"
)

func SetupRoutes(router *gin.Engine, services *service.Services) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		instHandler := handler.NewInstitutionHandler(services.Institutions())
		InstitutionRouter(v1.Group("/institutions"), instHandler)
	}
}
