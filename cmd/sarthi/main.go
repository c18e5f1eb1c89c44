package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"sarthi/internal/api"
	"sarthi/internal/chunker"
	"sarthi/internal/config"
	"sarthi/internal/domain"
	"sarthi/internal/embedding/openai"
	"sarthi/internal/embedding/tfidf"
	"sarthi/internal/language"
	"sarthi/internal/localize"
	"sarthi/internal/logger"
	"sarthi/internal/retrieval"
	"sarthi/internal/service"
	"sarthi/internal/translate"
	"sarthi/internal/translate/google"
	"sarthi/internal/vectorstore/chromem"
	"sarthi/internal/vectorstore/memory"
	"sarthi/internal/vectorstore/pgvector"
	"sarthi/internal/vectorstore/qdrant"
	"sarthi/internal/vectorstore/redisindex"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/sarthi/config.yaml if not provided)")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, cfgPath, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	env := cfg.Log.Env
	if v := os.Getenv("LOG_ENV"); v != "" {
		env = v
	}
	base, err := logger.Init(env)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	base.Info("config loaded", zap.String("path", cfgPath), zap.String("index", cfg.Index.Type), zap.String("embedder", cfg.Embedder.Type))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, base); err != nil {
		base.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.AppConfig, base *zap.Logger) error {
	// Assemble components
	emb, err := newEmbedder(cfg, base)
	if err != nil {
		return err
	}
	index, closeIndex, err := newIndex(ctx, cfg, emb, base)
	if err != nil {
		return err
	}
	defer closeIndex()

	var det domain.Detector
	switch cfg.Language.Detector {
	case "whatlang", "":
		det = language.NewWhatlangDetector(cfg.Language.MinRunes)
	case "none":
	default:
		return fmt.Errorf("unknown language detector: %s", cfg.Language.Detector)
	}

	translator, err := newTranslator(cfg, base)
	if err != nil {
		return err
	}

	var ch domain.Chunker
	switch cfg.Chunker.Type {
	case "sentence", "":
		ch = chunker.NewSentenceChunker(cfg.Chunker.SentencesPerChunk, cfg.Chunker.OverlapSentences)
	default:
		return fmt.Errorf("unknown chunker: %s", cfg.Chunker.Type)
	}

	chat := service.NewChatService(
		language.NewResolver(det, base.Named("language")),
		translator,
		retrieval.NewEngine(index),
		localize.NewLocalizer(translator, base.Named("localize")),
		base.Named("chat"),
	)
	kb := service.NewKnowledgeBase(index, ch, cfg.Server.UploadDir, base.Named("kb"))

	if len(cfg.Seed.FAQFiles) > 0 {
		n, err := kb.Seed(ctx, cfg.Seed.FAQFiles)
		if err != nil {
			return err
		}
		base.Info("knowledge base seeded", zap.Int("entries", n), zap.Strings("files", cfg.Seed.FAQFiles))
	}

	auth, err := api.NewAuth(api.AuthConfig{
		Username: cfg.Admin.Username,
		Password: os.Getenv(cfg.Admin.PasswordEnv),
		Secret:   []byte(os.Getenv(cfg.Admin.JWTSecretEnv)),
		TokenTTL: time.Duration(cfg.Admin.TokenTTLMins) * time.Minute,
		Required: cfg.Admin.TokenRequired(),
		Logger:   base.Named("auth"),
	})
	if err != nil {
		return err
	}
	router := api.NewRouter(api.NewHandler(chat, kb, base.Named("api")), auth, cfg.Server.StaticDir, base.Named("http"))

	timeout := time.Duration(cfg.Server.TimeoutSecs) * time.Second
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		base.Info("starting server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		base.Info("shutting down")
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newEmbedder(cfg *config.AppConfig, base *zap.Logger) (domain.Embedder, error) {
	switch cfg.Embedder.Type {
	case "tfidf", "":
		return tfidf.NewEmbedder(), nil
	case "openai":
		o := cfg.Embedder.OpenAI
		if o == nil {
			return nil, errors.New("openai embedder config missing")
		}
		client, err := openai.NewClient(openai.Config{
			BaseURL:    o.BaseURL,
			APIKeyEnv:  o.APIKeyEnv,
			Model:      o.Model,
			Timeout:    time.Duration(o.TimeoutSecs) * time.Second,
			MaxRetries: o.MaxRetries,
			Logger:     base.Named("embedder"),
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedder init failed: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Embedder.Type)
	}
}

func newIndex(ctx context.Context, cfg *config.AppConfig, emb domain.Embedder, base *zap.Logger) (domain.VectorIndex, func(), error) {
	noop := func() {}
	log := base.Named("index")
	switch cfg.Index.Type {
	case "memory", "":
		return memory.NewIndex(emb, log), noop, nil
	case "chromem":
		if cfg.Index.Chromem == nil {
			return nil, nil, errors.New("chromem config missing")
		}
		idx, err := chromem.NewIndex(cfg.Index.Chromem.Collection, emb, log)
		return idx, noop, err
	case "qdrant":
		q := cfg.Index.Qdrant
		if q == nil {
			return nil, nil, errors.New("qdrant config missing")
		}
		var apiKey string
		if q.APIKeyEnv != "" {
			apiKey = os.Getenv(q.APIKeyEnv)
		}
		idx, err := qdrant.NewIndex(qdrant.Config{
			URL:        q.URL,
			APIKey:     apiKey,
			Collection: q.Collection,
			Timeout:    time.Duration(q.TimeoutSecs) * time.Second,
			Logger:     log,
		}, emb)
		return idx, noop, err
	case "pgvector":
		p := cfg.Index.Pgvector
		if p == nil {
			return nil, nil, errors.New("pgvector config missing")
		}
		dsn := os.Getenv(p.DSNEnv)
		if dsn == "" {
			return nil, nil, fmt.Errorf("missing database url in env %s", p.DSNEnv)
		}
		pool, err := pgvector.Connect(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		idx, err := pgvector.NewIndex(pool, p.Table, emb, log)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		return idx, pool.Close, nil
	case "redis":
		r := cfg.Index.Redis
		if r == nil {
			return nil, nil, errors.New("redis config missing")
		}
		var password string
		if r.PasswordEnv != "" {
			password = os.Getenv(r.PasswordEnv)
		}
		client, err := redisindex.Connect(ctx, redisindex.Config{Addr: r.Addr, Password: password, DB: r.DB})
		if err != nil {
			return nil, nil, err
		}
		idx, err := redisindex.NewIndex(client, r.Prefix, emb, log)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return idx, func() { _ = client.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown index: %s", cfg.Index.Type)
	}
}

func newTranslator(cfg *config.AppConfig, base *zap.Logger) (*translate.Translator, error) {
	t := cfg.Translator
	opts := []translate.Option{
		translate.WithTimeout(time.Duration(t.TimeoutSecs) * time.Second),
		translate.WithMaxParallel(t.MaxParallel),
		translate.WithLogger(base.Named("translate")),
	}

	var svc domain.TranslationService
	switch t.Type {
	case "google", "":
		svc = google.NewClient(google.Config{
			BaseURL: t.BaseURL,
			Timeout: time.Duration(t.TimeoutSecs) * time.Second,
			QPS:     t.QPS,
			Burst:   t.Burst,
		})
	case "none":
	default:
		return nil, fmt.Errorf("unknown translator: %s", t.Type)
	}
	return translate.New(svc, opts...), nil
}
