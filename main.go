package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"inkwell/config"
	"inkwell/models"
	"inkwell/services"
	"inkwell/storage"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	searchRequestsCounter     prometheus.Counter
	searchLogsArchivedCounter prometheus.Counter
)

func init() {
	searchRequestsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "search_requests_total",
			Help: "Total number of search requests served.",
		},
	)
	searchLogsArchivedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "search_logs_archived_total",
			Help: "Total number of search log rows archived to S3.",
		},
	)
	prometheus.MustRegister(searchRequestsCounter, searchLogsArchivedCounter)
}

func apiKeyAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.APISecretKey == "" {
			c.Next()
			return
		}
		apiKey := c.GetHeader("X-API-KEY")
		if apiKey != cfg.APISecretKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid API Key"})
			return
		}
		c.Next()
	}
}

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}

	// Setup Database Connection
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		logging.Fatal("Failed to connect to database", zap.Error(err))
	}
	logging.Info("Successfully connected to database.")

	// Auto-Migration
	if gin.Mode() == gin.DebugMode {
		logging.Info("Debug mode detected. Dropping tables for fresh start.")
		db.Migrator().DropTable(&models.Article{}, &models.Tag{}, &models.User{}, &models.Clap{}, &models.SearchLog{}, "article_tags")
	}
	logging.Info("Running database auto-migration...")
	db.AutoMigrate(&models.Article{}, &models.Tag{}, &models.User{}, &models.Clap{}, &models.SearchLog{})

	// Seeding
	seedDefaultTags(db, logging)

	// Setup Services
	s3Client, err := storage.NewS3Client(cfg)
	if err != nil {
		logging.Fatal("S3 client creation failed", zap.Error(err))
	}
	paging := services.Paging{DefaultSize: cfg.DefaultPageSize, MaxSize: cfg.MaxPageSize}
	interests := services.NewInterestModel(db, logging)
	engine := services.NewRecommendationEngine(db, logging, interests)
	searchService := services.NewSearchService(db, logging, paging)
	feedService := services.NewFeedService(db, logging, engine, paging)
	archiver := services.NewSearchLogArchiver(cfg, db, s3Client, logging)

	// Setup Router
	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(apiKeyAuthMiddleware(cfg))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Setup Routes
	setupSearchRoutes(router, searchService, logging)
	setupFeedRoutes(router, feedService, cfg, logging)
	setupArticleRoutes(router, db, logging)
	setupTagRoutes(router, db, logging)
	setupInterestRoutes(router, interests, logging)

	// Setup Cron
	cronScheduler := cron.New()
	cronScheduler.AddFunc(cfg.ArchiveCronSchedule, func() {
		logging.Info("Running scheduled search-log archival...")
		count, err := archiver.Run(context.Background())
		if err != nil {
			logging.Error("Search-log archival failed", zap.Error(err))
		} else {
			logging.Info("Search-log archival completed", zap.Int("archived_rows", count))
			searchLogsArchivedCounter.Add(float64(count))
		}
	})
	cronScheduler.Start()

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logging.Fatal("Failed to run server", zap.Error(err))
	}
}

func setupSearchRoutes(router *gin.Engine, search *services.SearchService, log *zap.Logger) {
	rg := router.Group("/search")

	// POST - Full-text search with filters and pagination
	rg.POST("/", func(c *gin.Context) {
		var req services.SearchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		resp, err := search.Search(req)
		if err != nil {
			log.Error("Search failed", zap.String("query", req.Query), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		searchRequestsCounter.Inc()

		// Best-effort analytics off the request path
		go search.LogSearch(req.Query, req.UserID, resp.TotalCount)

		c.JSON(http.StatusOK, resp)
	})

	// GET - Typed autocomplete suggestions
	rg.GET("/suggestions", func(c *gin.Context) {
		prefix := c.Query("q")
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

		suggestions, err := search.Suggestions(prefix, limit)
		if err != nil {
			log.Error("Suggestion lookup failed", zap.String("prefix", prefix), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
	})
}

func setupFeedRoutes(router *gin.Engine, feed *services.FeedService, cfg *config.Config, log *zap.Logger) {
	rg := router.Group("/feed")

	rg.GET("/public", func(c *gin.Context) {
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		size, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(cfg.DefaultPageSize)))
		items, err := feed.PublicFeed(page, size)
		if err != nil {
			log.Error("Public feed failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": items, "page": page})
	})

	rg.GET("/personalized/:user_id", func(c *gin.Context) {
		userID, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
			return
		}
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		size, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(cfg.DefaultPageSize)))
		items, err := feed.PersonalizedFeed(uint(userID), page, size)
		if err != nil {
			log.Error("Personalized feed failed", zap.Uint64("user_id", userID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": items, "page": page})
	})

	rg.GET("/trending", func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(cfg.DefaultPageSize)))
		window := c.DefaultQuery("window", cfg.DefaultTrendingWindow)
		items, err := feed.TrendingArticles(limit, window)
		if err != nil {
			log.Error("Trending feed failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": items, "window": window})
	})

	rg.GET("/popular", func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(cfg.DefaultPageSize)))
		items, err := feed.PopularArticles(limit)
		if err != nil {
			log.Error("Popular feed failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": items})
	})

	rg.GET("/latest", func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(cfg.DefaultPageSize)))
		items, err := feed.LatestArticles(limit)
		if err != nil {
			log.Error("Latest feed failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": items})
	})

	// POST - Filtered feed over the full published universe
	rg.POST("/query", func(c *gin.Context) {
		var req struct {
			services.FeedFilters
			Page     int `json:"page"`
			PageSize int `json:"page_size"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		items, total, err := feed.FilteredFeed(req.FeedFilters, req.Page, req.PageSize)
		if err != nil {
			log.Error("Filtered feed failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": items, "total_count": total, "page": req.Page})
	})
}

func setupArticleRoutes(router *gin.Engine, db *gorm.DB, log *zap.Logger) {
	rg := router.Group("/articles")

	rg.GET("/:id", func(c *gin.Context) {
		id := c.Param("id")
		var article models.Article
		if err := db.Preload("Tags").First(&article, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
				return
			}
			log.Error("DB error fetching article", zap.String("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, article)
	})

	// POST - body-driven query endpoint for article lookups
	rg.POST("/query", func(c *gin.Context) {
		type ArticleQuery struct {
			Status   string `json:"status"`
			AuthorID *uint  `json:"author_id"`
			Tag      string `json:"tag"`
			Limit    int    `json:"limit"`
		}

		var req ArticleQuery
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		query := db.Model(&models.Article{}).Preload("Tags")

		if req.Status != "" {
			query = query.Where("status = ?", req.Status)
		}
		if req.AuthorID != nil {
			query = query.Where("author_id = ?", *req.AuthorID)
		}
		if req.Tag != "" {
			tagged := db.Table("article_tags").
				Select("article_tags.article_id").
				Joins("JOIN tags ON tags.id = article_tags.tag_id").
				Where("tags.name = ?", req.Tag)
			query = query.Where("articles.id IN (?)", tagged)
		}
		if req.Limit > 0 {
			query = query.Limit(req.Limit)
		}

		var articles []models.Article
		if err := query.Order("created_at desc").Find(&articles).Error; err != nil {
			log.Error("Database query for articles failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, articles)
	})
}

func setupTagRoutes(router *gin.Engine, db *gorm.DB, log *zap.Logger) {
	rg := router.Group("/tags")
	rg.GET("/", func(c *gin.Context) {
		var tags []models.Tag
		if err := db.Order("name asc").Find(&tags).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, tags)
	})
}

func setupInterestRoutes(router *gin.Engine, interests *services.InterestModel, log *zap.Logger) {
	rg := router.Group("/interests")
	rg.GET("/:user_id", func(c *gin.Context) {
		userID, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
			return
		}
		profile, err := interests.DeriveInterests(uint(userID))
		if err != nil {
			log.Error("Interest derivation failed", zap.Uint64("user_id", userID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": userID, "interests": profile})
	})
}

func seedDefaultTags(db *gorm.DB, logger *zap.Logger) {
	var count int64
	db.Model(&models.Tag{}).Count(&count)
	if count > 0 {
		return
	}
	tags := []models.Tag{
		{Name: "javascript", Slug: "javascript"},
		{Name: "react", Slug: "react"},
		{Name: "golang", Slug: "golang"},
		{Name: "design", Slug: "design"},
		{Name: "productivity", Slug: "productivity"},
	}
	if err := db.Create(&tags).Error; err != nil {
		logger.Warn("Failed to seed default tags", zap.Error(err))
	} else {
		logger.Info("Default tags seeded.")
	}
}
