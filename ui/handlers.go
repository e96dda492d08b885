package ui

import (
	"context"
	"html/template"
	"log"
	"net/http"
	"path/filepath"

	"regsim/app"
	"regsim/domain/simulation"
	"regsim/internal/errors"

	"github.com/gin-gonic/gin"
)

// pageData is the view model of index.html
type pageData struct {
	Form       formValues
	Limits     simulation.Limits
	About      template.HTML
	Error      string
	ErrorField string

	Result      *simulation.Result
	Plot1       string
	Plot2       string
	WorkbookURL string
}

// artifactFiles lists the files a run directory may serve
var artifactFiles = map[string]bool{
	app.ScatterFile:   true,
	app.HistogramFile: true,
	app.WorkbookFile:  true,
}

func (s *Server) newPageData(form formValues) *pageData {
	return &pageData{
		Form:   form,
		Limits: s.service.Limits(),
		About:  s.about,
	}
}

// handleIndex renders the empty form
func (s *Server) handleIndex(c *gin.Context) {
	s.renderTemplate(c, http.StatusOK, "index.html", s.newPageData(defaultForm()))
}

// handleSimulate parses the form, runs the simulation and renders the results
func (s *Server) handleSimulate(c *gin.Context) {
	form := readForm(c.PostForm)
	data := s.newPageData(form)

	out, err := s.run(c, form)
	if err != nil {
		log.Printf("[handleSimulate] Run rejected: %v", err)
		data.Error = err.Error()
		data.ErrorField = errors.GetField(err)
		s.renderTemplate(c, errors.HTTPStatus(err), "index.html", data)
		return
	}

	data.Result = out.Result
	data.Plot1 = artifactURL(out.Result.RunID, app.ScatterFile)
	data.Plot2 = artifactURL(out.Result.RunID, app.HistogramFile)
	if out.WorkbookPath != "" {
		data.WorkbookURL = artifactURL(out.Result.RunID, app.WorkbookFile)
	}
	s.renderTemplate(c, http.StatusOK, "index.html", data)
}

func (s *Server) run(c *gin.Context, form formValues) (*app.RunOutput, error) {
	params, err := form.Params()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.requestTimeout)
	defer cancel()
	return s.service.Run(ctx, params)
}

// apiResponse is the JSON view of a finished run
type apiResponse struct {
	*simulation.Result
	Plots    map[string]string `json:"plots"`
	Workbook string            `json:"workbook,omitempty"`
}

// handleAPISimulate runs a simulation from a JSON body or form fields and
// answers with JSON
func (s *Server) handleAPISimulate(c *gin.Context) {
	var params simulation.Params
	if c.ContentType() == "application/json" {
		if err := c.ShouldBindJSON(&params); err != nil {
			s.respondError(c, errors.InvalidInput("body", "invalid JSON body: "+err.Error()))
			return
		}
	} else {
		var err error
		if params, err = readForm(c.PostForm).Params(); err != nil {
			s.respondError(c, err)
			return
		}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.requestTimeout)
	defer cancel()
	out, err := s.service.Run(ctx, params)
	if err != nil {
		s.respondError(c, err)
		return
	}

	resp := apiResponse{
		Result: out.Result,
		Plots: map[string]string{
			"scatter":   artifactURL(out.Result.RunID, app.ScatterFile),
			"histogram": artifactURL(out.Result.RunID, app.HistogramFile),
		},
	}
	if out.WorkbookPath != "" {
		resp.Workbook = artifactURL(out.Result.RunID, app.WorkbookFile)
	}
	c.JSON(http.StatusOK, resp)
}

// handleArtifact serves a plot or workbook of a run
func (s *Server) handleArtifact(c *gin.Context) {
	runID := c.Param("runID")
	file := c.Param("file")
	if !artifactFiles[file] {
		c.JSON(http.StatusNotFound, gin.H{"error": "Artifact not found"})
		return
	}

	dir, err := s.service.RunDir(runID)
	if err != nil {
		c.JSON(errors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	path := filepath.Join(dir, file)
	if file == app.WorkbookFile {
		c.FileAttachment(path, "regsim-"+runID+".xlsx")
		return
	}
	c.File(path)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) respondError(c *gin.Context, err error) {
	log.Printf("[API] Request failed: %v", err)
	c.JSON(errors.HTTPStatus(err), gin.H{
		"error": err.Error(),
		"code":  errors.GetCode(err),
		"field": errors.GetField(err),
	})
}

func artifactURL(runID, file string) string {
	return "/artifacts/" + runID + "/" + file
}
