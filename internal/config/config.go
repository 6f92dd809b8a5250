package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds application configuration.
type Config struct {
	HTTPAddress string

	// Generation service (Gemini-compatible REST endpoint).
	GeminiKey     string
	GeminiModelID string

	// Speech-to-text (AssemblyAI realtime).
	AssemblyAIKey string

	// Text-to-speech (Deepgram websocket).
	DeepgramKey   string
	DeepgramVoice string

	// Locale of the practice language and the accepted fallback dialect.
	TargetLocale   string
	FallbackLocale string
}

// Load reads environment variables and returns Config with sane defaults.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file found, using process environment")
	}

	addr := os.Getenv("HTTP_ADDRESS")
	if addr == "" {
		addr = ":8080"
	}

	geminiKey := os.Getenv("GEMINI_API_KEY")
	if geminiKey == "" {
		logrus.Warn("GEMINI_API_KEY not set - topic/vocabulary/chat generation will fall back to canned content")
	}
	geminiModel := os.Getenv("GEMINI_MODEL_ID")
	if geminiModel == "" {
		geminiModel = "gemini-2.5-flash"
	}

	assemblyAIKey := os.Getenv("ASSEMBLYAI_API_KEY")
	if assemblyAIKey == "" {
		logrus.Warn("ASSEMBLYAI_API_KEY not set - voice input will be unavailable")
	}

	deepgramKey := os.Getenv("DEEPGRAM_API_KEY")
	if deepgramKey == "" {
		logrus.Warn("DEEPGRAM_API_KEY not set - speech playback will be unavailable")
	}
	deepgramVoice := os.Getenv("DEEPGRAM_VOICE")
	if deepgramVoice == "" {
		deepgramVoice = "aura-2-luna-zh"
	}

	target := os.Getenv("TARGET_LOCALE")
	if target == "" {
		target = "zh-TW"
	}
	fallback := os.Getenv("FALLBACK_LOCALE")
	if fallback == "" {
		fallback = "zh-CN"
	}

	logrus.Infof("config: HTTP_ADDRESS=%s model=%s locale=%s", addr, geminiModel, target)
	return Config{
		HTTPAddress:    addr,
		GeminiKey:      geminiKey,
		GeminiModelID:  geminiModel,
		AssemblyAIKey:  assemblyAIKey,
		DeepgramKey:    deepgramKey,
		DeepgramVoice:  deepgramVoice,
		TargetLocale:   target,
		FallbackLocale: fallback,
	}
}
