// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Command rookd serves the memory engine as an MCP server, over stdio by
// default or HTTP with --http, following the teacher's own cmd/server
// dual-mode shape.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/BangRocket/rook/internal/config"
	"github.com/BangRocket/rook/internal/consolidation"
	"github.com/BangRocket/rook/internal/contradiction"
	"github.com/BangRocket/rook/internal/crypto"
	"github.com/BangRocket/rook/internal/embedadapter"
	"github.com/BangRocket/rook/internal/events"
	"github.com/BangRocket/rook/internal/fsrs"
	"github.com/BangRocket/rook/internal/graph"
	"github.com/BangRocket/rook/internal/ingestion"
	"github.com/BangRocket/rook/internal/intentions"
	"github.com/BangRocket/rook/internal/llmadapter"
	"github.com/BangRocket/rook/internal/logging"
	"github.com/BangRocket/rook/internal/retrieval"
	"github.com/BangRocket/rook/internal/store"
	"github.com/BangRocket/rook/internal/telemetry"
	"github.com/BangRocket/rook/internal/types"
	"github.com/BangRocket/rook/pkg/engine"
	rookscheduler "github.com/BangRocket/rook/pkg/scheduler"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	// CRITICAL: MCP servers must ONLY write JSON-RPC to stdout. Every
	// other log line goes to stderr.
	logging.Base.SetOutput(os.Stderr)

	httpMode := flag.Bool("http", false, "Run in HTTP server mode (MCP over HTTP plus /metrics), default: stdio")
	configPath := flag.String("config", "", "Path to config file (default: ~/.rook/configs/config.json)")
	port := flag.Int("port", 0, "HTTP server port (overrides config; HTTP mode only)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Rook memory engine\n\n")
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s              Start MCP server over stdio\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --http       Start MCP server over HTTP, with a /metrics endpoint\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logging.Base.WithError(err).Fatal("loading configuration")
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	deployment, err := assemble(cfg)
	if err != nil {
		logging.Base.WithError(err).Fatal("assembling engine")
	}
	defer deployment.Close()

	mcpGoServer := mcpserver.NewMCPServer("Rook", Version, mcpserver.WithToolCapabilities(true))
	registerTools(mcpGoServer, deployment.Engine)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deployment.Coordinator.Start(ctx)
	defer deployment.Coordinator.Stop()

	if *httpMode {
		runHTTPMode(cfg, mcpGoServer, deployment.Registry)
		return
	}
	runStdioMode(mcpGoServer)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

// deployment is everything main needs to run and shut down cleanly:
// the assembled Engine, the background-task Coordinator, and the
// Prometheus registry the HTTP mode's /metrics handler reads from.
type deployment struct {
	Engine      *engine.Engine
	Coordinator *rookscheduler.Coordinator
	Registry    *prometheus.Registry
	closers     []func()
}

func (d *deployment) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

// assemble wires every internal/* collaborator into a deployment, the
// same assembly role the teacher's server.NewMCPServer plus
// database.Manager pairing played over its git-backed per-user
// databases.
func assemble(cfg *config.Config) (*deployment, error) {
	ctx := context.Background()
	d := &deployment{}

	db, err := store.Connect(store.Config{
		Driver:      cfg.Database.Type,
		SQLitePath:  cfg.Database.SQLitePath,
		PostgresDSN: cfg.Database.PostgresDSN,
		LogLevel:    logger.Silent,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	d.closers = append(d.closers, func() { _ = store.Close(db) })

	memories := store.NewMemoryStore(db)
	history := store.NewHistoryStore(db)
	fulltext := store.NewFullTextIndex(db)
	tags := store.NewTagStore(db)
	intentionStore := store.NewIntentionStore(db)

	vectorStore, err := buildVectorStore(ctx, db, cfg)
	if err != nil {
		return nil, err
	}
	graphStore, closeGraph, err := buildGraphStore(ctx, db, cfg)
	if err != nil {
		return nil, err
	}
	d.closers = append(d.closers, closeGraph)

	embedder := embedadapter.New(cfg.Embeddings.BaseURL, os.Getenv(cfg.Embeddings.APIKeyEnv), cfg.Embeddings.Model, cfg.Embeddings.Dimensions)
	llm := llmadapter.New(cfg.LLM.BaseURL, os.Getenv(cfg.LLM.APIKeyEnv), cfg.LLM.Model)

	scheduler := fsrs.New()
	detector := contradiction.New(embedder, llm)
	merger := ingestion.NewLLMMerger(llm)
	gate := ingestion.New(embedder, detector, scheduler, merger)
	gate.Thresholds = ingestion.Thresholds{SkipAt: cfg.Ingestion.SkipThreshold, ReviseAt: cfg.Ingestion.ReviseLowThreshold}
	gate.BaseStability = cfg.Ingestion.BaseStability
	gate.SurpriseBoost = cfg.Ingestion.SurpriseBoost

	knowledgeGraph := graph.New(graphStore, embedder, llm)

	pipeline := retrieval.New(vectorStore, fulltext, graphStore, embedder, scheduler)
	pipeline.KeyLister = memories
	pipeline.Fetcher = memories
	pipeline.Access = memories

	checker := intentions.New(intentionStore, embedder)

	bus := events.NewBus()
	manager := events.NewManager(bus)
	registerWebhooksFromEnv(manager)

	scopes, err := memories.ListDistinctScopes(ctx)
	if err != nil {
		logging.Base.WithError(err).Warn("listing distinct scopes for background sweeps; starting with none")
	}

	sweep := consolidation.NewSweep(scopes, tags, memories, scheduler)
	sweep.ArchivalRetrievability = cfg.FSRS.ArchivalRetrievability
	sweep.ArchivalMinAge = time.Duration(cfg.FSRS.ArchivalMinAgeDays) * 24 * time.Hour
	sweep.Interval = time.Duration(cfg.Consolidation.SweepIntervalMinutes) * time.Minute

	intentionScheduler := intentions.NewScheduler(intentionStore, scopes)

	d.Registry = prometheus.NewRegistry()
	metrics := telemetry.New(d.Registry)
	tracer := telemetry.NewTracer("rook/engine", Version)

	eng := engine.New(memories, history, vectorStore, embedder, gate, pipeline)
	eng.Graph = knowledgeGraph
	eng.Checker = checker
	eng.Bus = bus
	eng.Metrics = metrics
	eng.Tracer = tracer
	eng.Logger = logging.Base

	if key := loadEncryptionKey(cfg); key != nil {
		cipher, err := crypto.NewContentCipher(key)
		if err != nil {
			return nil, fmt.Errorf("building content cipher: %w", err)
		}
		eng.ContentCipher = cipher
	}

	d.Engine = eng
	if redisBus := maybeRedisBus(cfg); redisBus != nil {
		bridge := events.NewRedisBridge(bus, redisBus)
		d.Coordinator = rookscheduler.New(sweep, intentionScheduler, manager, bridge)
	} else {
		d.Coordinator = rookscheduler.New(sweep, intentionScheduler, manager)
	}
	return d, nil
}

func loadEncryptionKey(cfg *config.Config) []byte {
	encoded := os.Getenv(cfg.Security.EncryptionKeyEnv)
	if encoded == "" {
		return nil
	}
	key, err := crypto.StringToKey(encoded)
	if err != nil {
		logging.Base.WithError(err).Warn("invalid content encryption key; content will be stored unencrypted")
		return nil
	}
	return key
}

func buildVectorStore(ctx context.Context, db *gorm.DB, cfg *config.Config) (types.VectorStore, error) {
	switch cfg.Vector.Provider {
	case "", "embedded":
		return store.NewVectorStore(db, cfg.Embeddings.Dimensions), nil
	case "qdrant":
		return store.NewQdrantVectorStore(ctx, store.QdrantConfig{
			Host:           cfg.Vector.Host,
			Port:           cfg.Vector.Port,
			APIKey:         os.Getenv(cfg.Vector.APIKeyEnv),
			CollectionName: cfg.Vector.Collection,
			Dimensions:     uint64(cfg.Embeddings.Dimensions),
		})
	default:
		return nil, fmt.Errorf("unsupported vector.provider: %s", cfg.Vector.Provider)
	}
}

func buildGraphStore(ctx context.Context, db *gorm.DB, cfg *config.Config) (types.GraphStore, func(), error) {
	switch cfg.Graph.Provider {
	case "", "embedded":
		return store.NewGraphStore(db), func() {}, nil
	case "neo4j":
		g, err := store.NewNeo4jGraphStore(ctx, cfg.Graph.URI, cfg.Graph.Username, cfg.Graph.Password)
		if err != nil {
			return nil, nil, err
		}
		return g, func() { _ = g.Close(context.Background()) }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported graph.provider: %s", cfg.Graph.Provider)
	}
}

func maybeRedisBus(cfg *config.Config) *events.RedisBus {
	if cfg.Events.RedisAddr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.Events.RedisAddr})
	return events.NewRedisBus(client, "rook.events")
}

func registerWebhooksFromEnv(manager *events.Manager) {
	url := os.Getenv("ROOK_WEBHOOK_URL")
	if url == "" {
		return
	}
	manager.AddWebhook(events.NewWebhookConfig(url))
}

func runStdioMode(mcpGoServer *mcpserver.MCPServer) {
	if err := mcpserver.ServeStdio(mcpGoServer); err != nil {
		logging.Base.WithError(err).Fatal("MCP stdio server error")
	}
}

func runHTTPMode(cfg *config.Config, mcpGoServer *mcpserver.MCPServer, registry *prometheus.Registry) {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := mcpserver.NewStreamableHTTPServer(mcpGoServer)

	mux := http.NewServeMux()
	mux.Handle("/", httpServer)
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	logging.Base.WithField("addr", addr).Info("rookd listening (http)")
	if err := http.ListenAndServe(addr, mux); err != nil {
		logging.Base.WithError(err).Fatal("MCP HTTP server error")
	}
}
