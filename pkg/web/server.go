// Package web exposes the showroom voice pipeline over HTTP and WebSocket:
// a per-session voice socket, a session summary endpoint and static serving
// of synthesized reply audio.
package web

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/showroomlabs/go-showroom/internal/log"
	"github.com/showroomlabs/go-showroom/pkg/pipeline"
)

// Config holds server settings.
type Config struct {
	// Port is the TCP port to listen on.
	Port string

	// AudioDir is the directory holding synthesized reply audio.
	AudioDir string

	// AudioPrefix is the URL path under which AudioDir is served.
	AudioPrefix string

	// UploadDir receives incoming audio frames before transcription.
	UploadDir string

	// WebDir, when set, is served at the root path for a browser client.
	WebDir string

	// Debug enables fiber request logging.
	Debug bool

	// Logger receives server events. Defaults to the component logger.
	Logger *slog.Logger
}

// Server is the voice gateway.
type Server struct {
	app          *fiber.App
	orchestrator *pipeline.Orchestrator
	config       Config
	logger       *slog.Logger
}

// NewServer wires the gateway routes around the given orchestrator.
func NewServer(orchestrator *pipeline.Orchestrator, config Config) *Server {
	if config.Port == "" {
		config.Port = "8000"
	}
	if config.AudioPrefix == "" {
		config.AudioPrefix = "/audio"
	}
	if config.Logger == nil {
		config.Logger = log.Component("web")
	}

	s := &Server{
		orchestrator: orchestrator,
		config:       config,
		logger:       config.Logger,
	}

	app := fiber.New(fiber.Config{
		AppName:               "Showroom Voice Gateway",
		DisableStartupMessage: true,
		BodyLimit:             25 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(cors.New())
	if config.Debug {
		app.Use(fiberlogger.New())
	}

	if config.AudioDir != "" {
		app.Static(config.AudioPrefix, config.AudioDir)
	}
	if config.WebDir != "" {
		app.Static("/", config.WebDir)
	}

	app.Get("/health", s.handleHealth)
	app.Get("/summary/:session", s.handleSummary)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/:session", websocket.New(s.handleVoiceWS))

	s.app = app
	return s
}

// App returns the underlying fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start begins serving and blocks until Shutdown or a listener error.
func (s *Server) Start() error {
	s.logger.Info("listening", "port", s.config.Port)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
