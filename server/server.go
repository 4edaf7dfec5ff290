package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/hrygo/noterag/internal/profile"
	"github.com/hrygo/noterag/plugin/ai"
	"github.com/hrygo/noterag/plugin/ai/cache"
	"github.com/hrygo/noterag/plugin/ai/vector"
	apiv1 "github.com/hrygo/noterag/server/router/api/v1"
	"github.com/hrygo/noterag/server/runner/ingest"
	"github.com/hrygo/noterag/server/service/rag"
	"github.com/hrygo/noterag/server/workflow"
	"github.com/hrygo/noterag/store"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer     *echo.Echo
	index          vector.VectorIndex
	embeddingCache *cache.EmbeddingCache
	runner         *ingest.Runner
}

// NewServer wires the model clients, the vector index, the ingestion engine
// and the HTTP routes.
func NewServer(ctx context.Context, profile *profile.Profile, store *store.Store) (*Server, error) {
	aiConfig := ai.NewConfigFromProfile(profile)
	if err := aiConfig.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid AI configuration")
	}
	embeddingService, err := ai.NewEmbeddingService(&aiConfig.Embedding)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create embedding service")
	}
	answerLLM := aiConfig.AnswerLLM()
	llmService, err := ai.NewLLMService(answerLLM)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create LLM service")
	}

	index, err := vector.NewVectorIndex(ctx, profile, store)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create vector index")
	}

	engine := workflow.NewEngine(store, workflow.Config{
		RetryLimit:  profile.WorkflowRetryLimit,
		RetryDelay:  profile.WorkflowRetryDelay,
		StepTimeout: profile.WorkflowStepTimeout,
	})
	engine.Register(rag.IngestWorkflowName, rag.NewIngestWorkflow(
		store,
		ai.NewSplitter(&aiConfig.Splitter),
		embeddingService,
		index,
	))
	runner := ingest.NewRunner(engine, profile.WorkflowConcurrency)

	embeddingCache := cache.NewEmbeddingCache(cache.DefaultServiceConfig())
	answerService := rag.NewAnswerService(
		store,
		embeddingService,
		index,
		llmService,
		ai.NewRerankerService(&aiConfig.Reranker),
		embeddingCache,
		rag.AnswerConfig{
			TopK:                 profile.RetrievalTopK,
			CombinedSystemPrompt: answerLLM.Provider == "anthropic",
		},
	)
	noteService := rag.NewNoteService(store, index, engine, runner.Trigger)

	echoServer := echo.New()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.Use(middleware.Recover())
	apiv1.NewAPIV1Service(profile, answerService, noteService, store).RegisterRoutes(echoServer)

	slog.Info("server configured",
		"vector_driver", profile.VectorDriver,
		"embedding_model", embeddingService.Model(),
		"answer_model", llmService.Model(),
		"rerank", aiConfig.Reranker.Enabled,
	)
	return &Server{
		Profile:        profile,
		Store:          store,
		echoServer:     echoServer,
		index:          index,
		embeddingCache: embeddingCache,
		runner:         runner,
	}, nil
}

// Start serves HTTP and runs the ingestion runner until ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	defer s.close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.runner.Run(gctx)
		return nil
	})
	g.Go(func() error {
		address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
		slog.Info("noterag listening", "address", address, "mode", s.Profile.Mode)
		if err := s.echoServer.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "failed to start HTTP server")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.echoServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// DrainIngestion runs every pending ingestion instance and returns.
func (s *Server) DrainIngestion(ctx context.Context) {
	defer s.close()
	s.runner.RunOnce(ctx)
}

func (s *Server) close() {
	s.embeddingCache.Close()
	if err := s.index.Close(); err != nil {
		slog.Warn("failed to close vector index", "error", err)
	}
}
