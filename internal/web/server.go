// Package web serves the single-page form front-end over gin.
package web

import (
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/answersynth/internal/app"
	"github.com/hyperifyio/answersynth/internal/metrics"
	"github.com/hyperifyio/answersynth/internal/shell"
)

//go:embed templates/index.html
var templatesFS embed.FS

// generateForm is bound from both the HTML form and the JSON API.
type generateForm struct {
	GeminiKey string `form:"gemini_key" json:"gemini_key"`
	SerperKey string `form:"serper_key" json:"serper_key"`
	Question  string `form:"question" json:"question"`
}

// pageData never carries the API keys, so they are not echoed back.
type pageData struct {
	Site     string
	Mode     string
	Question string
	Messages []app.Message
	Heading  string
	Answer   string
	RunID    string
}

// generateResponse is the JSON API body.
type generateResponse struct {
	RunID    string        `json:"run_id,omitempty"`
	Messages []app.Message `json:"messages"`
	Heading  string        `json:"heading,omitempty"`
	Model    string        `json:"model,omitempty"`
	Answer   string        `json:"answer,omitempty"`
	Error    string        `json:"error,omitempty"`
}

type server struct {
	shell *shell.Shell
	cfg   app.Config
}

// NewRouter wires the form, the JSON API, health and metrics endpoints.
func NewRouter(sh *shell.Shell, cfg app.Config, rec *metrics.Recorder) (*gin.Engine, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/index.html")
	if err != nil {
		return nil, err
	}
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	r.SetHTMLTemplate(tmpl)

	s := &server{shell: sh, cfg: cfg}
	r.GET("/", s.index)
	r.POST("/generate", s.generateForm)
	r.POST("/api/generate", s.generateJSON)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "state": sh.State().String(), "version": app.BuildVersion})
	})
	if rec != nil {
		r.GET("/metrics", gin.WrapH(rec.Handler()))
	}
	return r, nil
}

func (s *server) page() pageData {
	return pageData{Site: s.cfg.SiteLabel(), Mode: string(s.cfg.Mode)}
}

func (s *server) index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", s.page())
}

func (s *server) generateForm(c *gin.Context) {
	var form generateForm
	if err := c.ShouldBind(&form); err != nil {
		data := s.page()
		data.Messages = []app.Message{{Level: app.LevelError, Text: "Invalid form submission."}}
		c.HTML(http.StatusBadRequest, "index.html", data)
		return
	}
	out, err := s.submit(c, form)

	data := s.page()
	data.Question = form.Question
	data.Messages = out.Messages
	data.RunID = out.RunID
	if out.Result != nil {
		data.Heading = app.AnswerHeading(s.cfg.SiteLabel(), out.Result.Model)
		data.Answer = out.Result.Text
	}
	c.HTML(statusFor(err), "index.html", data)
}

func (s *server) generateJSON(c *gin.Context) {
	var form generateForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, generateResponse{Error: "invalid request body"})
		return
	}
	out, err := s.submit(c, form)
	resp := generateResponse{RunID: out.RunID, Messages: out.Messages}
	if resp.Messages == nil {
		resp.Messages = []app.Message{}
	}
	if out.Result != nil {
		resp.Heading = app.AnswerHeading(s.cfg.SiteLabel(), out.Result.Model)
		resp.Model = out.Result.Model
		resp.Answer = out.Result.Text
	}
	if err != nil {
		resp.Error = err.Error()
	}
	c.JSON(statusFor(err), resp)
}

func (s *server) submit(c *gin.Context, form generateForm) (app.Outcome, error) {
	req := app.Request{Question: form.Question, GeminiKey: form.GeminiKey, SerperKey: form.SerperKey}
	out, err := s.shell.Submit(c.Request.Context(), req, nil)
	if err != nil {
		log.Info().Err(err).Str("run", out.RunID).Msg("generate finished without answer")
	}
	return out, err
}

// statusFor maps run errors to HTTP statuses. Empty-result outcomes are a
// normal answer page, not a server failure.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, shell.ErrMissingInput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, shell.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, app.ErrNoResults), errors.Is(err, app.ErrNoUsableContent):
		return http.StatusOK
	default:
		return http.StatusBadGateway
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("http request")
	}
}
