package ui

import (
	"io/fs"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// setupMiddleware serves the embedded stylesheet and keeps generated
// artifacts out of browser caches
func (s *Server) setupMiddleware() {
	s.router.Use(noStoreArtifacts())

	staticFS, err := fs.Sub(embeddedFiles, "static")
	if err != nil {
		log.Printf("[Static] Error creating static filesystem: %v", err)
		return
	}
	s.router.StaticFS("/static", http.FS(staticFS))
}

// noStoreArtifacts marks run artifacts as uncacheable since retention may
// remove a run while a page still links to it
func noStoreArtifacts() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.FullPath() == artifactRoute {
			c.Header("Cache-Control", "no-store")
		}
		c.Next()
	}
}
