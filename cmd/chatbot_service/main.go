package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"EduConnect/internal/chatbot_service/api"
	"EduConnect/internal/chatbot_service/cache"
	"EduConnect/internal/chatbot_service/records"
	"EduConnect/internal/chatbot_service/search"
	"EduConnect/internal/chatbot_service/service"
	"EduConnect/internal/config"
	milvusdb "EduConnect/internal/database/milvus"
	mongodb "EduConnect/internal/database/mongo"
	"EduConnect/internal/database/redis"
	"EduConnect/internal/embedding"
	"EduConnect/internal/llm"
	"EduConnect/internal/rag"
	"EduConnect/pkg/logger"
)

func main() {
	// 1. Initialize Logger
	logger.Init(logrus.InfoLevel)
	appLogger := logger.New("ChatbotService", "")
	appLogger.Info("Starting EduConnect chatbot service...")

	// 2. Load Configuration
	cfg, err := config.LoadConfig("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	appLogger.Info("Configuration loaded successfully.")

	// 缺失的凭证只记录，不阻止启动；相关功能会降级。
	for _, name := range cfg.MissingCredentials() {
		appLogger.Error(fmt.Sprintf("%s is not set, related features will be degraded", name))
	}

	// 3. LLM 与 Embedding 客户端
	model, err := llm.NewClient(cfg.LLM)
	if err != nil {
		log.Fatalf("Failed to create LLM client: %v", err)
	}
	embedder, err := embedding.NewEmdModel(cfg.Embedding)
	if err != nil {
		log.Fatalf("Failed to create embedding client: %v", err)
	}

	// 4. 语义缓存，持久化后端可选 file 或 redis
	var cacheStore cache.Store
	if cfg.Cache.Backend == "redis" {
		rdb, err := redis.GetClient(&cfg.Databases.Redis)
		if err != nil {
			appLogger.Error(fmt.Sprintf("Failed to connect to Redis, falling back to file cache: %v", err))
			cacheStore = cache.NewFileStore(cfg.Cache.FilePath)
		} else {
			cacheStore = cache.NewRedisStore(rdb, cfg.Cache.RedisKey)
		}
	} else {
		cacheStore = cache.NewFileStore(cfg.Cache.FilePath)
	}
	semanticCache := cache.New(cacheStore, embedder, cfg.Cache.SimilarityThreshold, appLogger)
	appLogger.Info(fmt.Sprintf("Semantic cache ready with %d entries", semanticCache.Len()))

	// 5. MongoDB 学籍记录，连接失败时个人查询降级为错误响应
	var recordExecutor service.RecordExecutor
	db, err := mongodb.GetDatabase(&cfg.Databases.MongoDB)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Failed to connect to MongoDB, personal queries disabled: %v", err))
	} else {
		recordExecutor = records.NewExecutor(db, appLogger)
	}

	// 6. Milvus 知识库检索，不可用时退化为直接询问 LLM
	var retriever rag.Retriever
	milvusClient, err := milvusdb.GetClient(context.Background(), &cfg.Databases.Milvus)
	if err != nil {
		appLogger.Warn(fmt.Sprintf("Milvus unavailable, answering without knowledge base: %v", err))
	} else {
		r, err := rag.NewMilvusRetriever(milvusClient, cfg.Databases.Milvus.Collection, embedder, appLogger)
		if err != nil {
			appLogger.Warn(fmt.Sprintf("Failed to create retriever: %v", err))
		} else {
			retriever = r
		}
	}
	answerer := rag.NewPipeline(retriever, model, cfg.Databases.Milvus.TopK, appLogger)

	// 7. 外部搜索回退链
	webSearcher := search.NewSerpAPIClient(cfg.Search.SerpAPIKey, appLogger)
	wikiClient := search.NewWikipediaClient(cfg.Search.WikipediaBaseURL, appLogger)

	// 8. 组装路由服务与 HTTP 层
	chatService := service.New(
		model,
		semanticCache,
		recordExecutor,
		answerer,
		service.SearchFunc(webSearcher.Search),
		service.SearchFunc(wikiClient.Lookup),
		appLogger,
	)
	handler := api.NewHandler(chatService)
	router := api.SetupRouter(handler, cfg.Server)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		appLogger.Info(fmt.Sprintf("HTTP server listening at %s", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to serve HTTP: %v", err)
		}
	}()

	// 9. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error(fmt.Sprintf("Server forced to shutdown: %v", err))
	}

	if err := mongodb.Close(ctx); err != nil {
		appLogger.Warn(fmt.Sprintf("Error closing MongoDB connection: %v", err))
	}
	if err := redis.Close(); err != nil {
		appLogger.Warn(fmt.Sprintf("Error closing Redis connection: %v", err))
	}
	if err := milvusdb.Close(); err != nil {
		appLogger.Warn(fmt.Sprintf("Error closing Milvus connection: %v", err))
	}

	appLogger.Info("Server gracefully stopped")
}
