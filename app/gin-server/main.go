package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/Navin1-11-04/crisp/config"
	"github.com/Navin1-11-04/crisp/internal/api/handlers"
	"github.com/Navin1-11-04/crisp/internal/api/middleware"
	"github.com/Navin1-11-04/crisp/internal/api/routes"
	"github.com/Navin1-11-04/crisp/internal/logger"
	"github.com/Navin1-11-04/crisp/internal/providers/extract"
	"github.com/Navin1-11-04/crisp/internal/providers/llm"
	mongorepo "github.com/Navin1-11-04/crisp/internal/repositories/mongo"
	pgrepo "github.com/Navin1-11-04/crisp/internal/repositories/postgres"
	redisrepo "github.com/Navin1-11-04/crisp/internal/repositories/redis"
	"github.com/Navin1-11-04/crisp/internal/services"
	"github.com/Navin1-11-04/crisp/internal/storage"
	"github.com/Navin1-11-04/crisp/internal/workers"
)

func main() {
	_ = godotenv.Load()

	l := logger.New()
	ctx := context.Background()

	// Stores
	if err := config.InitMongo(); err != nil {
		log.Fatalf("MongoDB init error: %v", err)
	}
	l.Info("MongoDB connected")

	if err := config.InitPostgres(); err != nil {
		log.Fatalf("PostgreSQL init error: %v", err)
	}
	if err := config.MigratePostgres(config.PostgresDB); err != nil {
		log.Fatalf("PostgreSQL migrate error: %v", err)
	}
	l.Info("PostgreSQL connected")

	if err := config.InitRedis(); err != nil {
		log.Fatalf("Redis init error: %v", err)
	}
	l.Info("Redis connected")

	mongoDB := config.MongoDatabase()
	if err := config.EnsureMongoIndexes(ctx, mongoDB); err != nil {
		l.WithError(err).Warn("mongo index setup failed")
	}

	// Repositories
	active := redisrepo.NewActiveSessionRepo(config.RedisClient)
	archive := mongorepo.NewArchiveRepo(mongoDB)
	resumeFiles := pgrepo.NewResumeFileRepo(config.PostgresDB)
	profilesRepo := pgrepo.NewProfileRepo(config.PostgresDB)
	transcripts := pgrepo.NewTranscriptRepo(config.PostgresDB)

	// Providers
	oracle, err := llm.NewVertexGemini(ctx,
		os.Getenv("GOOGLE_CLOUD_PROJECT"),
		os.Getenv("GOOGLE_CLOUD_LOCATION"),
		os.Getenv("GEMINI_MODEL"),
	)
	if err != nil {
		log.Fatalf("Vertex init error: %v", err)
	}
	defer oracle.Close()

	var embedder llm.Embedder
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		embedder = llm.NewGeminiEmbedder(key, os.Getenv("GEMINI_EMBED_MODEL"))
	}

	var uploader storage.Uploader
	if bucket := os.Getenv("GCS_BUCKET"); bucket != "" {
		store, serr := storage.NewGCSStore(ctx, bucket)
		if serr != nil {
			log.Fatalf("GCS init error: %v", serr)
		}
		defer store.Close()
		uploader = store
	} else {
		l.Warn("GCS_BUCKET not set, resume files will not be stored")
	}

	extractor := extract.NewDocumentExtractor()

	// Services
	sessions := services.NewSessionService(active, archive)
	profiles := services.NewProfileService(profilesRepo, embedder)
	interviews := services.NewInterviewService(sessions, profiles, oracle, transcripts, l)
	resumes := services.NewResumeService(uploader, resumeFiles, extractor, interviews, l)
	revival := services.NewResumePolicy(active, sessions)

	// Timer worker
	worker := &workers.TimerWorker{
		Active:     active,
		Sessions:   sessions,
		Interviews: interviews,
		Redis:      config.RedisClient,
		Logger:     l,
	}
	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	if err := worker.Start(workerCtx); err != nil {
		log.Fatalf("timer worker error: %v", err)
	}

	// HTTP
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(l))

	routes.RegisterRoutes(r, routes.Deps{
		Resume:    handlers.NewResumeHandler(resumes),
		Session:   handlers.NewSessionHandler(sessions, interviews, revival),
		Chat:      handlers.NewChatHandler(interviews),
		Interview: handlers.NewInterviewHandler(sessions, interviews),
		Dashboard: handlers.NewDashboardHandler(profiles, archive, transcripts),
		WS:        handlers.NewWSHandler(sessions, config.RedisClient),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
