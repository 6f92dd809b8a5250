package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/MuoiVung/Taiwanese-Mandarin-Learning/internal/config"
	"github.com/MuoiVung/Taiwanese-Mandarin-Learning/internal/flow"
	"github.com/MuoiVung/Taiwanese-Mandarin-Learning/internal/genai"
	"github.com/MuoiVung/Taiwanese-Mandarin-Learning/internal/httpserver"
	"github.com/MuoiVung/Taiwanese-Mandarin-Learning/internal/stt"
	"github.com/MuoiVung/Taiwanese-Mandarin-Learning/internal/tts"
)

func main() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})

	cfg := config.Load()

	generator := genai.NewClient(cfg.GeminiKey, cfg.GeminiModelID)

	var recognizer stt.Recognizer
	if cfg.AssemblyAIKey != "" {
		recognizer = stt.NewAssemblyAIRecognizer(cfg.AssemblyAIKey)
	}

	deps := httpserver.Deps{
		Generator: generator,
		NewSpeech: func() (flow.Speaker, httpserver.AudioSource) {
			engine := tts.NewDeepgramEngine(cfg.DeepgramKey, cfg.DeepgramVoice, cfg.TargetLocale)
			sink := tts.NewMemorySink()
			speaker := tts.NewSpeaker(engine, sink, tts.DefaultMandarinRuleset(), cfg.FallbackLocale)
			return speaker, sink
		},
		NewListener: func() flow.Listener {
			return stt.NewListener(recognizer, cfg.TargetLocale)
		},
	}

	e := httpserver.New(deps)

	server := &http.Server{
		Addr:              cfg.HTTPAddress,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Infof("server listening on %s", cfg.HTTPAddress)
		serverErrors <- server.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	case sig := <-sigChan:
		log.Infof("shutdown signal received: %v", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Warnf("graceful shutdown failed: %v", err)
		_ = server.Close()
	}
}
