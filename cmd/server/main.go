package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"trafficsafe-backend/catalog"
	"trafficsafe-backend/config"
	"trafficsafe-backend/handlers"
	"trafficsafe-backend/repository"
	"trafficsafe-backend/service"
	"trafficsafe-backend/storage"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

// housekeepingInterval is how often idle rate-limit entries and
// conversations are swept
const housekeepingInterval = time.Minute

func main() {
	// Load .env file from project root (relative to cmd/server/)
	// Try current directory first, then project root
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../../.env"); err != nil {
			log.Printf("Warning: No .env file found, using environment variables")
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if len(service.ParseCredentials(os.Getenv("GEMINI_API_KEY"))) == 0 {
		log.Println("Warning: GEMINI_API_KEY not set, chat requests will fail until it is")
	}

	cat, err := catalog.Load()
	if err != nil {
		log.Fatalf("Failed to load lesson catalog: %v", err)
	}
	log.Printf("Lesson catalog loaded (%d lessons)", len(cat.Lessons))

	corpus, err := loadCorpus(cfg)
	if err != nil {
		log.Fatalf("Failed to load legal corpus: %v", err)
	}
	log.Printf("Legal corpus indexed (%d sections)", corpus.Len())

	// Initialize storage
	lessonStorage, err := storage.NewStorage(cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	log.Println("Storage initialized")

	// Initialize services
	ledger := repository.NewRateLimitLedger(cfg.RateLimitMax, cfg.RateLimitWindow, cfg.RateLimitMaxAddresses)
	proxy := service.NewChatProxyService(
		service.ProxyWithLedger(ledger),
		service.ProxyWithGenerator(service.NewGeminiGenerator(cfg.GeminiModel)),
		service.ProxyWithCredentials(service.EnvCredentials("GEMINI_API_KEY")),
	)
	answers := service.NewAnswerClient(
		corpus,
		service.NewLocalProxy(proxy),
		repository.NewQueryCache(cfg.QueryCacheCapacity),
	)
	resolver := service.NewIntentResolver(cat.Lessons, answers)
	conversations := repository.NewConversationRepository(cfg.ConversationTTL, cfg.MaxConversations)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go housekeeping(ctx, proxy, conversations)

	if cfg.CorpusSource == config.CorpusSourceFile {
		if err := service.WatchCorpusFile(ctx, cfg.CorpusPath, answers.SetCorpus); err != nil {
			log.Printf("Warning: corpus hot reload disabled: %v", err)
		}
	}

	// Setup Gin router
	r := handlers.NewRouter(handlers.Router{
		AllowOrigin:   cfg.AllowOrigin,
		Chat:          handlers.NewChatHandler(proxy),
		Conversations: handlers.NewConversationHandler(conversations, resolver, cat),
		Lessons:       handlers.NewLessonHandler(cat.Lessons, lessonStorage),
	})

	log.Printf("Server starting on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

func loadCorpus(cfg *config.Config) (*service.LegalCorpusIndex, error) {
	switch cfg.CorpusSource {
	case config.CorpusSourceFile:
		return service.LoadCorpusFile(cfg.CorpusPath)

	case config.CorpusSourcePostgres:
		db, err := initPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		defer db.Close()

		sections, err := repository.NewLegalSectionRepository(db).ListAll(context.Background())
		if err != nil {
			return nil, err
		}
		if len(sections) == 0 {
			log.Println("Warning: legal_sections table is empty, run cmd/load-corpus")
		}
		return service.NewLegalCorpusIndex(sections), nil

	default:
		return service.BuildLegalCorpusIndex(catalog.LegalCorpus()), nil
	}
}

func initPostgres(connString string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(context.Background(), connString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Postgres connection established")
	return pool, nil
}

func housekeeping(ctx context.Context, proxy *service.ChatProxyService, conversations *repository.ConversationRepository) {
	ticker := time.NewTicker(housekeepingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			addrs := proxy.PruneLedger()
			convs := conversations.Sweep()
			if addrs > 0 || convs > 0 {
				log.Printf("Housekeeping: pruned %d addresses, expired %d conversations", addrs, convs)
			}
		}
	}
}
