// Package server exposes the Quayside REST API and the read-only board page.
package server

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/quayside/quayside/internal/auth"
	"github.com/quayside/quayside/internal/config"
	"github.com/quayside/quayside/internal/kanban"
	"github.com/quayside/quayside/internal/notify"
	"github.com/quayside/quayside/internal/taskgen"
)

// Opts holds configuration for the API server.
type Opts struct {
	DB        *gorm.DB
	Config    *config.Config
	Generator taskgen.Generator
	Notifier  *notify.Notifier
	Out       io.Writer
}

// Server carries the shared dependencies for all handlers.
type Server struct {
	db        *gorm.DB
	cfg       *config.Config
	generator taskgen.Generator
	notifier  *notify.Notifier
	providers map[string]*auth.Provider
}

// Start launches the API server. It blocks until ctx is cancelled, then
// shuts down gracefully.
func Start(ctx context.Context, opts Opts) error {
	if opts.DB == nil {
		return fmt.Errorf("server: db is required")
	}
	if opts.Config == nil {
		return fmt.Errorf("server: config is required")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	tmpl, err := parseTemplates()
	if err != nil {
		return fmt.Errorf("server: %w", err)
	}
	router.SetHTMLTemplate(tmpl)

	s := &Server{
		db:        opts.DB,
		cfg:       opts.Config,
		generator: opts.Generator,
		notifier:  opts.Notifier,
		providers: map[string]*auth.Provider{
			"github": auth.NewGitHub(opts.Config.Auth.GitHub, opts.Config.Server.BaseURL),
			"google": auth.NewGoogle(opts.Config.Auth.Google, opts.Config.Server.BaseURL),
		},
	}
	s.registerRoutes(router)

	sched := s.startSchedules()

	addr := fmt.Sprintf(":%d", opts.Config.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		if sched != nil {
			sched.Stop()
		}
		srv.Shutdown(context.Background())
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Quayside running at http://localhost:%d\n", opts.Config.Server.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// startSchedules wires the configured cron jobs: the chat digest and the
// board normalization sweep. Returns nil when nothing is scheduled.
func (s *Server) startSchedules() *cron.Cron {
	digest := s.cfg.Notify.DigestCron
	sweep := s.cfg.Notify.SweepCron
	if digest == "" && sweep == "" {
		return nil
	}

	c := cron.New()
	if digest != "" {
		if _, err := c.AddFunc(digest, s.runDigest); err != nil {
			log.Printf("server: digest schedule %q: %v", digest, err)
		}
	}
	if sweep != "" {
		if _, err := c.AddFunc(sweep, s.runSweep); err != nil {
			log.Printf("server: sweep schedule %q: %v", sweep, err)
		}
	}
	c.Start()
	return c
}

func (s *Server) runDigest() {
	ev, err := notify.BuildDigest(s.db)
	if err != nil {
		log.Printf("server: build digest: %v", err)
		return
	}
	s.notifier.Digest(context.Background(), ev)
}

func (s *Server) runSweep() {
	if err := kanban.NormalizeAll(s.db); err != nil {
		log.Printf("server: normalization sweep: %v", err)
	}
}

// parseTemplates loads the embedded HTML templates.
func parseTemplates() (*template.Template, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return tmpl, nil
}
