// Package app assembles the collaborators shared by the API server and the
// alert monitor from a loaded Config.
package app

import (
	"fmt"

	"finzora/api/advisor"
	"finzora/api/alerts"
	"finzora/api/categorizer"
	"finzora/api/config"
	"finzora/api/db"
	"finzora/api/kafka"
	"finzora/api/llm"
	"finzora/api/logger"
	"finzora/api/mongodb"
	"finzora/api/quotes"
	"finzora/api/receipt"
	"finzora/api/store"

	"go.uber.org/zap"
)

// OpenBackend connects the storage backend named by cfg.StorageBackend.
func OpenBackend(cfg *config.Config) (store.Backend, error) {
	switch cfg.StorageBackend {
	case config.StorageMongo:
		b, err := mongodb.Connect(cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		return b, nil
	case config.StoragePostgres:
		b, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return b, nil
	case config.StorageFile:
		logger.Get().Info("using local file store", zap.String("path", cfg.LocalStorePath))
		return store.NewFileBackend(cfg.LocalStorePath), nil
	default:
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.StorageBackend)
	}
}

func KafkaConfig(cfg *config.Config) kafka.Config {
	return kafka.Config{
		BootstrapServers: cfg.KafkaBootstrapServers,
		APIKey:           cfg.KafkaAPIKey,
		APISecret:        cfg.KafkaAPISecret,
	}
}

func NewQuoteChain(cfg *config.Config) *quotes.Chain {
	return quotes.NewDefaultChain(cfg.AlphaVantageKey, quotes.NewHTTPClient(), quotes.Endpoints{})
}

// NewAdvisor prefers Groq, then Hugging Face, then Gemini.
func NewAdvisor(cfg *config.Config) *advisor.Advisor {
	var providers []advisor.Provider
	if cfg.GroqKey != "" {
		providers = append(providers, llm.NewGroq(cfg.GroqKey))
	}
	if cfg.HuggingFaceKey != "" {
		providers = append(providers, llm.NewHuggingFace(cfg.HuggingFaceKey))
	}
	if cfg.GeminiKey != "" {
		providers = append(providers, llm.NewGemini(cfg.GeminiKey))
	}
	a := advisor.New(providers...)
	if !a.Enabled() {
		logger.Get().Warn("no AI provider configured, chat will answer with setup instructions")
	}
	return a
}

// NewCategorizer asks Gemini before the keyword rules when a key is set.
func NewCategorizer(cfg *config.Config) *categorizer.Categorizer {
	if cfg.GeminiKey == "" {
		return categorizer.New(nil)
	}
	return categorizer.New(llm.NewGemini(cfg.GeminiKey, llm.DefaultGeminiFastModels...))
}

func NewScanner(cfg *config.Config) *receipt.Scanner {
	if cfg.GeminiKey == "" {
		return receipt.NewScanner(nil)
	}
	return receipt.NewScanner(llm.NewGemini(cfg.GeminiKey, llm.DefaultGeminiFastModels...))
}

// NewNotifier publishes to Kafka when a broker is configured and only logs
// otherwise. The returned close func is always safe to call.
func NewNotifier(cfg *config.Config) (alerts.Notifier, func(), error) {
	kcfg := KafkaConfig(cfg)
	if !kcfg.Enabled() {
		logger.Get().Info("KAFKA_BOOTSTRAP_SERVERS not set, alerts will only be logged")
		return alerts.LogNotifier{}, func() {}, nil
	}
	publisher, err := kafka.NewPublisher(kcfg)
	if err != nil {
		return nil, nil, err
	}
	return publisher, publisher.Close, nil
}
