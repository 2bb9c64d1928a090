// admin.go - content management and privacy-conscious visitor stats
package main

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Zachkp/portfolio/internal/content"
)

const adminCookie = "admin_token"

type adminAuth struct {
	token    string
	salt     string // for IP hashing
	username string
	password string
	log      zerolog.Logger
}

// newAdminAuth generates a fresh session token and hashing salt. Both live
// only as long as the process.
func newAdminAuth(cfg appConfig, log zerolog.Logger) *adminAuth {
	a := &adminAuth{
		token:    generateToken(),
		salt:     generateToken(),
		username: cfg.AdminUsername,
		password: cfg.AdminPassword,
		log:      log,
	}
	if a.password == "" {
		log.Warn().Msg("admin login disabled: set ADMIN_PASSWORD to enable it")
	} else {
		log.Info().Msg("admin access available at /admin/login")
	}
	if gin.Mode() == gin.DebugMode {
		log.Debug().Str("token", a.token).Msg("admin token (dev only)")
	}
	return a
}

func generateToken() string {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		panic("generating admin token: " + err.Error())
	}
	return hex.EncodeToString(bytes)
}

// hashIP is stable per address for the lifetime of the salt.
func (a *adminAuth) hashIP(ip string) string {
	hash := sha256.New()
	hash.Write([]byte(ip + a.salt))
	return hex.EncodeToString(hash.Sum(nil))[:16]
}

func (a *adminAuth) checkCredentials(username, password string) bool {
	if a.password == "" {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(a.password)) == 1
	return userOK && passOK
}

func (a *adminAuth) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(adminCookie)
		if err != nil || subtle.ConstantTimeCompare([]byte(token), []byte(a.token)) != 1 {
			if strings.HasPrefix(c.Request.URL.Path, "/admin/api/") {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
				return
			}
			c.Redirect(http.StatusFound, "/admin/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// visitorTracking records page views with hashed addresses. Static files,
// admin pages and clients sending DNT are skipped.
func (s *server) visitorTracking() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/static/") ||
			strings.HasPrefix(path, "/images/") ||
			strings.HasPrefix(path, "/admin/") ||
			strings.HasPrefix(path, "/favicon") ||
			strings.HasPrefix(path, "/privacy") {
			c.Next()
			return
		}
		if c.GetHeader("DNT") == "1" {
			c.Next()
			return
		}

		hashed := s.admin.hashIP(c.ClientIP())
		userAgent := c.GetHeader("User-Agent")
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.store.RecordVisit(ctx, hashed, userAgent, path); err != nil {
				s.log.Warn().Err(err).Msg("recording visitor")
			}
		}()
		c.Next()
	}
}

// pruneVisitors enforces the retention window once a day until ctx ends.
func (s *server) pruneVisitors(ctx context.Context) error {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		if _, err := s.store.PruneVisits(ctx, s.cfg.VisitorRetention); err != nil && ctx.Err() == nil {
			s.log.Error().Err(err).Msg("privacy cleanup")
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

type reorderRequest struct {
	Active string   `json:"active"`
	Over   string   `json:"over"`
	IDs    []string `json:"ids"`
}

func (s *server) setupAdminRoutes(r *gin.Engine) {
	r.GET("/privacy", func(c *gin.Context) {
		c.HTML(http.StatusOK, "privacy.html", gin.H{
			"title":         "Privacy Policy",
			"retentionDays": int(s.cfg.VisitorRetention.Hours() / 24),
		})
	})

	r.GET("/admin/login", func(c *gin.Context) {
		c.HTML(http.StatusOK, "admin-login.html", gin.H{
			"title": "Admin Login",
		})
	})

	r.POST("/admin/login", func(c *gin.Context) {
		if s.admin.checkCredentials(c.PostForm("username"), c.PostForm("password")) {
			c.SetCookie(adminCookie, s.admin.token, 3600*24, "/admin", "", false, true)
			s.admin.log.Info().Str("client", s.admin.hashIP(c.ClientIP())).Msg("admin login")
			c.Redirect(http.StatusFound, "/admin/dashboard")
			return
		}
		s.admin.log.Warn().Str("client", s.admin.hashIP(c.ClientIP())).Msg("failed admin login")
		c.HTML(http.StatusUnauthorized, "admin-login.html", gin.H{
			"error": "Invalid credentials",
		})
	})

	r.GET("/admin/logout", func(c *gin.Context) {
		c.SetCookie(adminCookie, "", -1, "/admin", "", false, true)
		c.Redirect(http.StatusFound, "/admin/login")
	})

	adminGroup := r.Group("/admin")
	adminGroup.Use(s.admin.middleware())

	adminGroup.GET("/dashboard", func(c *gin.Context) {
		stats, err := s.store.Stats(c.Request.Context())
		if err != nil {
			s.log.Error().Err(err).Msg("loading admin stats")
			c.HTML(http.StatusInternalServerError, "admin-error.html", gin.H{
				"error": "Failed to load statistics",
			})
			return
		}
		c.HTML(http.StatusOK, "admin-dashboard.html", gin.H{
			"stats": stats,
		})
	})

	api := adminGroup.Group("/api")
	api.GET("/stats", func(c *gin.Context) {
		stats, err := s.store.Stats(c.Request.Context())
		if err != nil {
			s.respondError(c, err, "Failed to load statistics")
			return
		}
		c.JSON(http.StatusOK, stats)
	})

	api.POST("/projects", s.handleCreateProject)
	api.PUT("/projects/:id", s.handleUpdateProject)
	api.DELETE("/projects/:id", s.handleDeleteProject)
	api.POST("/projects/reorder", s.handleReorderProjects)

	api.POST("/experience", s.handleCreateExperience)
	api.PUT("/experience/:id", s.handleUpdateExperience)
	api.DELETE("/experience/:id", s.handleDeleteExperience)
	api.POST("/experience/reorder", s.handleReorderExperience)

	api.POST("/privacy/cleanup", func(c *gin.Context) {
		n, err := s.store.PruneVisits(c.Request.Context(), s.cfg.VisitorRetention)
		if err != nil {
			s.respondError(c, err, "Privacy cleanup failed")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Privacy cleanup complete", "removed": n})
	})
}

func (s *server) handleCreateProject(c *gin.Context) {
	var in content.ProjectInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	project, err := s.store.CreateProject(c.Request.Context(), in)
	if err != nil {
		s.respondError(c, err, "Failed to create project")
		return
	}
	c.JSON(http.StatusCreated, project)
}

func (s *server) handleUpdateProject(c *gin.Context) {
	var patch content.ProjectPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	project, err := s.store.UpdateProject(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		s.respondError(c, err, "Failed to update project")
		return
	}
	c.JSON(http.StatusOK, project)
}

func (s *server) handleDeleteProject(c *gin.Context) {
	if err := s.store.DeleteProject(c.Request.Context(), c.Param("id")); err != nil {
		s.respondError(c, err, "Failed to delete project")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Project deleted"})
}

func (s *server) handleReorderProjects(c *gin.Context) {
	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	ctx := c.Request.Context()
	var (
		projects []content.Project
		err      error
	)
	switch {
	case len(req.IDs) > 0:
		projects, err = s.store.ReorderProjects(ctx, req.IDs)
	case req.Active != "" && req.Over != "":
		projects, err = s.store.MoveProject(ctx, req.Active, req.Over)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Provide ids, or active and over"})
		return
	}
	if err != nil {
		s.respondError(c, err, "Failed to update order")
		return
	}
	c.JSON(http.StatusOK, projects)
}

func (s *server) handleCreateExperience(c *gin.Context) {
	var in content.ExperienceInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	entry, err := s.store.CreateExperience(c.Request.Context(), in)
	if err != nil {
		s.respondError(c, err, "Failed to create experience")
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (s *server) handleUpdateExperience(c *gin.Context) {
	var patch content.ExperiencePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	entry, err := s.store.UpdateExperience(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		s.respondError(c, err, "Failed to update experience")
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (s *server) handleDeleteExperience(c *gin.Context) {
	if err := s.store.DeleteExperience(c.Request.Context(), c.Param("id")); err != nil {
		s.respondError(c, err, "Failed to delete experience")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Experience deleted"})
}

func (s *server) handleReorderExperience(c *gin.Context) {
	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	ctx := c.Request.Context()
	var (
		entries []content.Experience
		err     error
	)
	switch {
	case len(req.IDs) > 0:
		entries, err = s.store.ReorderExperience(ctx, req.IDs)
	case req.Active != "" && req.Over != "":
		entries, err = s.store.MoveExperience(ctx, req.Active, req.Over)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Provide ids, or active and over"})
		return
	}
	if err != nil {
		s.respondError(c, err, "Failed to update order")
		return
	}
	c.JSON(http.StatusOK, entries)
}
