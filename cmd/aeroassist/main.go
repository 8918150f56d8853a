package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	charmlog "github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"aeroassist/internal/chunker"
	"aeroassist/internal/config"
	"aeroassist/internal/domain"
	"aeroassist/internal/embedding/openai"
	"aeroassist/internal/inference"
	"aeroassist/internal/ingest"
	"aeroassist/internal/llm"
	"aeroassist/internal/retrieval"
	"aeroassist/internal/service"
	"aeroassist/internal/store"
	"aeroassist/internal/tokenizer"
	"aeroassist/internal/tui"
	"aeroassist/internal/vectorstore/memory"
	"aeroassist/internal/vectorstore/qdrant"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	var ingestDir string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/aeroassist/config.yaml if not provided)")
	flag.StringVar(&ingestDir, "ingest", "", "Directory of PDF manuals to synchronize before starting the chat")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	tok, err := tokenizer.New(cfg.Chunker.Encoding)
	if err != nil {
		log.Fatalf("tokenizer init failed: %v", err)
	}
	splitter, err := chunker.NewSentenceSplitter(tok, cfg.Chunker.ChunkSize, cfg.Chunker.ChunkOverlap)
	if err != nil {
		log.Fatalf("chunker init failed: %v", err)
	}

	embedder, err := openai.NewClient(openai.Config{
		BaseURL:   cfg.Embedder.BaseURL,
		APIKeyEnv: cfg.Embedder.APIKeyEnv,
		Model:     cfg.Embedder.Model,
		Dimension: cfg.Embedder.Dimension,
		BatchSize: cfg.Embedder.BatchSize,
		Timeout:   time.Duration(cfg.Embedder.TimeoutSecs) * time.Second,
	})
	if err != nil {
		log.Fatalf("embedder init failed: %v", err)
	}

	var vectors domain.VectorStore
	switch cfg.VectorStore.Type {
	case "memory", "":
		vectors = memory.NewStorage()
	case "qdrant":
		if cfg.VectorStore.Qdrant == nil {
			log.Fatalf("qdrant vector store config missing")
		}
		vectors = qdrant.NewStorage(qdrant.Config{
			URL:        cfg.VectorStore.Qdrant.URL,
			APIKey:     cfg.VectorStore.Qdrant.APIKey,
			Collection: cfg.VectorStore.Qdrant.Collection,
			Timeout:    time.Duration(cfg.VectorStore.Qdrant.TimeoutSecs) * time.Second,
		})
	default:
		log.Fatalf("unknown vector store: %s", cfg.VectorStore.Type)
	}

	model, err := llm.NewClient(llm.Config{
		BaseURL:   cfg.LLM.BaseURL,
		APIKeyEnv: cfg.LLM.APIKeyEnv,
		Model:     cfg.LLM.Model,
		MaxTokens: cfg.LLM.MaxTokens,
		Timeout:   time.Duration(cfg.LLM.TimeoutSecs) * time.Second,
	})
	if err != nil {
		log.Fatalf("llm init failed: %v", err)
	}

	retriever := retrieval.NewClient(embedder, vectors, cfg.Inference.ResultCount)
	orchestrator, err := inference.NewOrchestrator(inference.Config{
		Model:                     model,
		Retriever:                 retriever,
		SkipClassification:        cfg.Inference.SkipClassification,
		TechnicalTemplateOverride: cfg.Inference.TechnicalTemplateOverride,
	})
	if err != nil {
		log.Fatalf("orchestrator init failed: %v", err)
	}

	registry, err := store.Open(cfg.Server.DatabasePath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer registry.Close()

	logger := charmlog.New(os.Stderr)
	if ingestDir != "" {
		pipeline := ingest.NewPipeline(splitter, embedder, vectors, registry, logger)
		n, err := pipeline.SyncDirectory(context.Background(), ingestDir)
		if err != nil {
			log.Fatalf("ingest failed: %v", err)
		}
		logger.Info("documents synchronized", "ingested", n)
	}

	assistant := service.NewAssistant(orchestrator, registry, logger)
	if _, err := tea.NewProgram(tui.New(assistant), tea.WithAltScreen()).Run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
