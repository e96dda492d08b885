package ui

import (
	"bytes"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// templateFuncs formats numbers the way the results page shows them
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"f2": func(v float64) string { return fmt.Sprintf("%.2f", v) },
		"f4": func(v float64) string { return fmt.Sprintf("%.4f", v) },
		"pct": func(v float64) string {
			return fmt.Sprintf("%.1f%%", v*100)
		},
		"ms": func(d time.Duration) string {
			return fmt.Sprintf("%.0fms", float64(d.Nanoseconds())/1e6)
		},
	}
}

func (s *Server) initTemplates() error {
	templates, err := template.New("").Funcs(templateFuncs()).ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		log.Printf("[TemplateInit] Error parsing templates: %v", err)
		return fmt.Errorf("failed to parse templates: %w", err)
	}
	s.templates = templates

	about, err := renderMarkdownFile(embeddedFiles, "templates/about.md")
	if err != nil {
		return fmt.Errorf("failed to render methodology note: %w", err)
	}
	s.about = about

	log.Printf("[TemplateInit] Parsed templates: %s", s.templates.DefinedTemplates())
	return nil
}

// renderTemplate executes into a buffer first so a template failure still
// produces a clean 500 instead of a half-written page
func (s *Server) renderTemplate(c *gin.Context, status int, templateName string, data interface{}) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, templateName, data); err != nil {
		log.Printf("Template error for %s: %v", templateName, err)
		log.Printf("Template data type: %T", data)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}
