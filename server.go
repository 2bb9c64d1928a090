package main

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Zachkp/portfolio/internal/content"
	"github.com/Zachkp/portfolio/internal/typewriter"
)

type server struct {
	cfg    appConfig
	store  *content.Store
	log    zerolog.Logger
	sched  typewriter.Scheduler
	admin  *adminAuth
	mailer mailer
}

func newServer(cfg appConfig, store *content.Store, log zerolog.Logger) *server {
	return &server{
		cfg:    cfg,
		store:  store,
		log:    log,
		sched:  typewriter.SystemScheduler,
		admin:  newAdminAuth(cfg, log.With().Str("component", "admin").Logger()),
		mailer: smtpMailer{cfg: cfg},
	}
}

func (s *server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.log))
	r.LoadHTMLGlob(s.cfg.TemplatesGlob)

	r.Static("/images", s.cfg.ImagesDir)
	r.Static("/static", s.cfg.StaticDir)
	r.GET("/healthz", s.handleHealth)

	public := r.Group("/")
	public.Use(s.visitorTracking())
	public.GET("/", s.handleHome)
	public.GET("/contact-form", func(c *gin.Context) {
		c.HTML(http.StatusOK, "contact.html", gin.H{
			"title":    "Contact Me",
			"intro":    ContactIntro,
			"headline": s.firstHeadline("contact"),
		})
	})
	public.POST("/contact", s.handleContact)

	api := r.Group("/api")
	api.GET("/headlines", s.handleHeadlines)
	api.GET("/headlines/:name", s.handleHeadline)
	api.GET("/headlines/:name/stream", s.handleHeadlineStream)
	api.GET("/projects", s.handleProjects)
	api.GET("/projects/categories", s.handleProjectCategories)
	api.GET("/projects/:id", s.handleProject)
	api.GET("/experience", s.handleExperience)

	s.setupAdminRoutes(r)
	return r
}

func (s *server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		s.log.Error().Err(err).Msg("health check")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *server) handleHome(c *gin.Context) {
	ctx := c.Request.Context()
	projects, err := s.store.Projects(ctx, "")
	if err != nil {
		s.log.Error().Err(err).Msg("loading projects for home page")
		projects = nil
	}
	experience, err := s.store.Experiences(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("loading experience for home page")
		experience = nil
	}

	c.HTML(http.StatusOK, "index.html", gin.H{
		"headline":       s.firstHeadline("home"),
		"aboutMeContent": AboutMe,
		"projects":       projects,
		"experience":     experience,
	})
}

// firstHeadline is what a page renders before its stream connects.
func (s *server) firstHeadline(name string) string {
	texts := s.cfg.Headlines[name]
	if len(texts) == 0 {
		return ""
	}
	return texts[0]
}

func (s *server) handleHeadlines(c *gin.Context) {
	names := make([]string, 0, len(s.cfg.Headlines))
	for name := range s.cfg.Headlines {
		names = append(names, name)
	}
	sort.Strings(names)
	c.JSON(http.StatusOK, gin.H{"headlines": names})
}

func (s *server) handleHeadline(c *gin.Context) {
	name := c.Param("name")
	if _, ok := s.cfg.Headlines[name]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Headline not found"})
		return
	}
	hc := s.cfg.headline(name)
	c.JSON(http.StatusOK, gin.H{
		"name":          name,
		"texts":         hc.Texts,
		"typingSpeed":   hc.TypingSpeed.Milliseconds(),
		"deletingSpeed": hc.DeletingSpeed.Milliseconds(),
		"pauseDuration": hc.PauseDuration.Milliseconds(),
		"loop":          hc.Loop,
	})
}

func (s *server) handleProjects(c *gin.Context) {
	projects, err := s.store.Projects(c.Request.Context(), c.Query("category"))
	if err != nil {
		s.respondError(c, err, "Failed to fetch projects")
		return
	}
	c.JSON(http.StatusOK, projects)
}

func (s *server) handleProjectCategories(c *gin.Context) {
	categories, err := s.store.ProjectCategories(c.Request.Context())
	if err != nil {
		s.respondError(c, err, "Failed to fetch categories")
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (s *server) handleProject(c *gin.Context) {
	project, err := s.store.Project(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err, "Failed to fetch project")
		return
	}
	c.JSON(http.StatusOK, project)
}

func (s *server) handleExperience(c *gin.Context) {
	experience, err := s.store.Experiences(c.Request.Context())
	if err != nil {
		s.respondError(c, err, "Failed to fetch experience")
		return
	}
	c.JSON(http.StatusOK, experience)
}

// respondError maps store errors onto status codes. Anything unexpected is
// logged and reported with msg only.
func (s *server) respondError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, content.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, content.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		s.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg(msg)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}
