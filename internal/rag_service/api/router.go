package api

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all routes of the RAG service.
func RegisterRoutes(router *gin.Engine, a *API) {
	v1 := router.Group("/api/v1")
	{
		v1.POST("/documents", a.UploadDocumentsHandler)
		v1.GET("/documents", a.ListDocumentsHandler)
		v1.POST("/query", a.QueryHandler)
		v1.POST("/chat", a.ChatHandler)
	}

	router.GET("/healthz", a.HealthHandler)
}
