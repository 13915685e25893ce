package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	_ "github.com/joho/godotenv/autoload"

	"github.com/gin-gonic/gin"

	"github.com/Zachkp/portfolio/clock"
	"github.com/Zachkp/portfolio/config"
	"github.com/Zachkp/portfolio/content"
	"github.com/Zachkp/portfolio/session"
)

type server struct {
	cfg     *config.Config
	store   *content.Store
	streams *session.Registry
	clock   clock.Scheduler
	log     *slog.Logger

	adminToken  string
	hashingSalt string

	// closed on shutdown so open streams return
	quit chan struct{}
}

func newServer(cfg *config.Config, store *content.Store, sched clock.Scheduler, log *slog.Logger) *server {
	s := &server{
		cfg:         cfg,
		store:       store,
		streams:     session.NewRegistry(),
		clock:       sched,
		log:         log,
		adminToken:  cfg.Admin.Token,
		hashingSalt: generateAdminToken(),
		quit:        make(chan struct{}),
	}
	if s.adminToken == "" {
		s.adminToken = generateAdminToken()
		if cfg.Server.Mode == gin.DebugMode {
			log.Info("generated admin token (dev only)", "token", s.adminToken)
		}
	}
	return s
}

// shutdown ends every open stream and disposes its engine.
func (s *server) shutdown() int {
	select {
	case <-s.quit:
	default:
		close(s.quit)
	}
	return s.streams.CloseAll()
}

func newRouter(s *server) *gin.Engine {
	r := gin.Default()
	r.LoadHTMLGlob(s.cfg.Server.Templates)

	r.Static("/static", s.cfg.Server.StaticDir)

	// Home page route
	r.GET("/", s.home)

	r.GET("/api/content", func(c *gin.Context) {
		catalog, err := s.store.Catalog(c.Request.Context())
		if err != nil {
			s.log.Error("load catalog", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "content unavailable"})
			return
		}
		c.JSON(http.StatusOK, catalog)
	})

	r.GET("/api/skills/:category", func(c *gin.Context) {
		category := c.Param("category")
		skills, err := s.store.Skills(c.Request.Context(), category)
		if err != nil {
			s.log.Error("load skills", "category", category, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "content unavailable"})
			return
		}
		if len(skills) == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown skill category"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"category": category, "skills": skills})
	})

	// HTMX contact form fragment
	r.GET("/contact-form", func(c *gin.Context) {
		c.HTML(http.StatusOK, "contact.html", gin.H{
			"title": "Get in Touch",
		})
	})
	r.POST("/contact", s.contact)

	// Animation streams
	r.GET("/stream/loader", s.streamLoader)
	r.GET("/stream/reveal/:slot", s.streamReveal)
	r.POST("/stream/:id/visible", s.notifyVisible)
	r.POST("/stream/:id/skip", s.skipLoader)

	setupAdminRoutes(r, s)
	return r
}

func (s *server) home(c *gin.Context) {
	catalog, err := s.store.Catalog(c.Request.Context())
	if err != nil {
		s.log.Error("load catalog", "error", err)
		c.String(http.StatusInternalServerError, "content unavailable")
		return
	}
	c.HTML(http.StatusOK, "index.html", gin.H{
		"profile":    catalog.Profile,
		"skills":     catalog.Skills,
		"projects":   catalog.Projects,
		"experience": catalog.Experience,
		"education":  catalog.Education,
		"sections":   NavSections,
		"footer":     FooterCopy,
		"loading":    LoadingTitle,
	})
}

func newLogger(cfg *config.Config) *slog.Logger {
	level, _ := cfg.LogLevel()
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Logging.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func main() {
	cfg, err := config.Load(os.Getenv("PORTFOLIO_CONFIG"))
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	log := newLogger(cfg)
	slog.SetDefault(log)
	gin.SetMode(cfg.Server.Mode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := content.Open(ctx)
	if err != nil {
		log.Error("open content store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := content.Reload(ctx, store, cfg.Content.Path); err != nil {
		log.Error("load catalog", "path", cfg.Content.Path, "error", err)
		os.Exit(1)
	}
	if cfg.Content.Watch {
		if err := content.Watch(ctx, store, cfg.Content.Path, log); err != nil {
			log.Warn("catalog hot reload disabled", "error", err)
		}
	}

	s := newServer(cfg, store, clock.Real(), log)
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: newRouter(s),
	}

	go func() {
		log.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	n := s.shutdown()
	log.Info("shutting down", "open_streams", n)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", "error", err)
	}
}
