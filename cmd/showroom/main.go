// showroom: voice assistant server for an auto dealership.
// Accepts WebSocket audio from browsers, answers with synthesized speech.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/showroomlabs/go-showroom/internal/config"
	"github.com/showroomlabs/go-showroom/internal/log"
	"github.com/showroomlabs/go-showroom/pkg/agent"
	"github.com/showroomlabs/go-showroom/pkg/dealership"
	"github.com/showroomlabs/go-showroom/pkg/inference"
	"github.com/showroomlabs/go-showroom/pkg/pipeline"
	"github.com/showroomlabs/go-showroom/pkg/session"
	"github.com/showroomlabs/go-showroom/pkg/stt"
	"github.com/showroomlabs/go-showroom/pkg/tts"
	"github.com/showroomlabs/go-showroom/pkg/web"
)

var version = "1.0.0"

var (
	port  = flag.Int("port", 0, "HTTP server port (overrides PORT)")
	debug = flag.Bool("debug", false, "Enable debug logging")
)

func main() {
	flag.Parse()

	cfg := config.Load()
	if *port != 0 {
		cfg.Port = *port
	}
	if *debug {
		cfg.Debug = true
		cfg.LogLevel = "debug"
	}
	log.Init(cfg.LogLevel)
	logger := log.L()

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("🚗 Showroom Voice Assistant v" + version)
	fmt.Println()

	transcriber, err := stt.NewWhisper(
		stt.WithAPIKey(cfg.STTAPIKey),
		stt.WithBaseURL(cfg.STTBaseURL),
		stt.WithModel(cfg.STTModel),
	)
	if err != nil {
		logger.Error("stt setup failed", "error", err)
		os.Exit(1)
	}

	chat, err := inference.NewClient(
		inference.WithAPIKey(cfg.LLMAPIKey),
		inference.WithBaseURL(cfg.LLMBaseURL),
		inference.WithModel(cfg.LLMModel),
	)
	if err != nil {
		logger.Error("inference setup failed", "error", err)
		os.Exit(1)
	}
	providers := []inference.Provider{chat}
	if cfg.GeminiAPIKey != "" {
		gemini, err := inference.NewGemini(inference.WithAPIKey(cfg.GeminiAPIKey))
		if err != nil {
			logger.Error("gemini setup failed", "error", err)
			os.Exit(1)
		}
		providers = append(providers, gemini)
		logger.Info("gemini fallback enabled")
	}
	brain, err := inference.NewChain(providers...)
	if err != nil {
		logger.Error("inference chain setup failed", "error", err)
		os.Exit(1)
	}

	inventory, err := dealership.NewInventory()
	if err != nil {
		logger.Error("inventory load failed", "error", err)
		os.Exit(1)
	}
	bookings := dealership.NewBookings()

	assistant, err := agent.New(agent.Config{
		Provider:      brain,
		HistoryWindow: cfg.HistoryWindow,
		Logger:        logger,
	})
	if err != nil {
		logger.Error("agent setup failed", "error", err)
		os.Exit(1)
	}
	assistant.RegisterTools(dealership.Tools(dealership.ToolsConfig{
		Inventory: inventory,
		Bookings:  bookings,
	}))

	speaker, err := tts.NewElevenLabs(
		tts.WithAPIKey(cfg.TTSAPIKey),
		tts.WithVoice(cfg.TTSVoiceID),
		tts.WithModel(cfg.TTSModel),
	)
	if err != nil {
		logger.Error("tts setup failed", "error", err)
		os.Exit(1)
	}

	orchestrator, err := pipeline.New(transcriber, assistant, speaker, session.NewStore(), pipeline.Config{
		AudioDir:       cfg.AudioDir,
		AudioURLPrefix: cfg.AudioPrefix,
		HistoryWindow:  cfg.HistoryWindow,
		StageTimeout:   cfg.StageTimeout,
	})
	if err != nil {
		logger.Error("pipeline setup failed", "error", err)
		os.Exit(1)
	}

	server := web.NewServer(orchestrator, web.Config{
		Port:        fmt.Sprintf("%d", cfg.Port),
		AudioDir:    cfg.AudioDir,
		AudioPrefix: cfg.AudioPrefix,
		UploadDir:   cfg.UploadDir,
		WebDir:      cfg.WebDir,
		Debug:       cfg.Debug,
	})

	go func() {
		logger.Info("starting server",
			"port", cfg.Port,
			"websocket", fmt.Sprintf("ws://localhost:%d/ws/{session}", cfg.Port),
			"summary", fmt.Sprintf("http://localhost:%d/summary/{session}", cfg.Port),
		)
		if err := server.Start(); err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	if err := server.Shutdown(); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	transcriber.Close()
	brain.Close()
	speaker.Close()
	logger.Info("goodbye")
}
