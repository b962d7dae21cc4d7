package server

import (
	"github.com/gin-gonic/gin"

	"github.com/tordrt/erdcanvas/internal/formatter"
)

func (s *Server) registerRoutes(api *gin.RouterGroup) {
	api.GET("/schema", s.getSchema)
	api.GET("/state", s.getState)
	api.GET("/scene", s.getScene)
	api.GET("/canvas.png", s.getCanvas)
	for _, format := range []string{formatter.FormatSQL, formatter.FormatJSON, formatter.FormatMarkdown, formatter.FormatText} {
		api.GET("/export"+formatter.Extension(format), s.export(format))
	}

	api.POST("/pointer", s.pointer)
	api.POST("/keys", s.keys)
	api.PUT("/viewport", s.viewport)
	api.POST("/select", s.selectTable)

	api.POST("/undo", s.undo)
	api.POST("/redo", s.redo)
	api.POST("/save", s.save)
	api.POST("/load", s.load)
	api.POST("/clear", s.clear)

	tables := api.Group("/tables")
	{
		tables.POST("", s.addTable)
		tables.PUT("/:name", s.renameTable)
		tables.DELETE("/:name", s.deleteTable)

		tables.POST("/:name/columns", s.addColumn)
		tables.PUT("/:name/columns/:index", s.updateColumn)
		tables.DELETE("/:name/columns/:index", s.deleteColumn)

		tables.POST("/:name/primary-key", s.togglePrimaryKey)
		tables.POST("/:name/constraints", s.toggleConstraint)

		tables.POST("/:name/relationships", s.addRelationship)
		tables.PUT("/:name/relationships/:index", s.updateRelationship)
		tables.DELETE("/:name/relationships/:index", s.deleteRelationship)
	}
}
