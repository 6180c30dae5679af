package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/harvestiq/harvestiq/internal/handler"
	"github.com/harvestiq/harvestiq/internal/llm"
	"github.com/harvestiq/harvestiq/internal/metadata"
	"github.com/harvestiq/harvestiq/internal/middleware"
	"github.com/harvestiq/harvestiq/internal/pipeline"
	"github.com/harvestiq/harvestiq/internal/security"
)

func (s *Server) setupRoutes() (http.Handler, error) {
	cfg := s.cfg
	ctx := context.Background()

	// Metadata is introspected once; an unreachable store leaves zero
	// tables registered and the pipeline degrades rather than crashing.
	meta := metadata.New(cfg.DBPath, cfg.Sources)
	meta.Initialize(ctx)

	var llmClient llm.Client
	if cfg.AnthropicAPIKey != "" {
		llmClient = llm.NewAnthropicClient(cfg.AnthropicAPIKey, cfg.Model, cfg.AnthropicBaseURL, cfg.LLMTimeout)
	} else {
		log.Warn().Msg("ANTHROPIC_API_KEY not set - query pipeline disabled")
	}

	guard := security.NewPromptGuard(cfg.PIIKeywords)
	audit := security.NewAuditLogger(cfg.EnableAuditLogging)

	log.Info().
		Bool("llm_enabled", llmClient != nil).
		Bool("auth_enabled", cfg.EnableAuth && len(cfg.APIKeys) > 0).
		Int("tables", len(meta.Tables())).
		Msg("service configuration")

	if len(meta.Tables()) == 0 {
		log.Warn().Msg("WARNING: no tables registered - queries will find no schema context")
	}
	if cfg.EnableAuth && len(cfg.APIKeys) == 0 {
		log.Warn().Msg("WARNING: auth enabled but no API keys configured - all API requests will be rejected")
	}

	healthH := handler.NewHealthHandler(cfg.DBPath, llmClient != nil, len(meta.Tables()))
	metadataH := handler.NewMetadataHandler(meta)

	var queryH *handler.QueryHandler
	if llmClient != nil {
		pipe := pipeline.New(llmClient, meta, cfg.DBPath, cfg.Sources, audit)
		queryH = handler.NewQueryHandler(pipe, guard)
	}

	r := chi.NewRouter()

	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.CORSOrigins)))
	r.Use(chiMiddleware.RealIP)

	r.Get("/health", healthH.Health)
	r.Get("/", healthH.Health)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitPerMinute))
		if cfg.EnableAuth && len(cfg.APIKeys) > 0 {
			r.Use(middleware.Auth(cfg.APIKeys, cfg.APIKeyHeader))
		}

		r.Route(cfg.APIPrefix, func(r chi.Router) {
			r.Get("/metadata", metadataH.Metadata)
			if queryH != nil {
				r.Post("/query", queryH.Query)
			}
		})
	})

	return r, nil
}
