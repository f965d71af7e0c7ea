package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Prompt-Haus/OpenVTO/internal/api"
	"github.com/Prompt-Haus/OpenVTO/internal/config"
	"github.com/Prompt-Haus/OpenVTO/internal/model"
	"github.com/Prompt-Haus/OpenVTO/internal/provider"
	"github.com/Prompt-Haus/OpenVTO/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const version = "0.1.0"

func main() {
	_ = godotenv.Load()

	cfg, err := config.ParseConfig()
	if err != nil {
		logrus.WithError(err).Error("Failed to parse config")
		return
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	repo, err := model.InitRepository(&cfg)
	if err != nil {
		logrus.WithError(err).Error("failed to initialise repository")
		return
	}

	store, err := storage.NewStorage(cfg)
	if err != nil {
		logrus.WithError(err).Error("failed to initialise storage")
		return
	}

	prov, err := provider.NewProvider(cfg)
	if err != nil {
		logrus.WithError(err).Error("failed to initialise generation provider")
		return
	}
	logrus.WithField("provider", prov.Name()).Info("generation provider ready")

	httpHandler := api.NewHTTPHandler(cfg, repo, store, prov)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(LoggingMiddleware())
	r.Use(CORSMiddleware())
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version})
	})

	generate := r.Group("/generate")
	generate.Use(httpHandler.APIKeyMiddleware())
	generate.POST("/avatar", httpHandler.GenerateAvatar)
	generate.POST("/tryon", httpHandler.GenerateTryOn)
	generate.POST("/videoloop", httpHandler.GenerateVideoLoop)

	assets := r.Group("/assets")
	assets.GET("/clothes/categories", httpHandler.ListClothingCategories)
	assets.GET("/clothes/:category", httpHandler.ListClothingItems)
	assets.GET("/clothes/:category/:index/:view", httpHandler.GetClothingImage)
	assets.GET("/people/:id/:kind", httpHandler.GetPersonImage)
	assets.GET("/avatars/:id", httpHandler.GetAvatarImage)

	records := r.Group("/records")
	records.Use(httpHandler.APIKeyMiddleware())
	records.GET("", httpHandler.ListGenerationRecords)
	records.GET("/:id", httpHandler.GetGenerationRecord)
	records.DELETE("/:id", httpHandler.DeleteGenerationRecord)

	if localProvider, ok := store.(storage.LocalBaseDirProvider); ok {
		publicPrefix := strings.TrimSpace(cfg.StoragePublicBaseURL)
		if publicPrefix == "" {
			publicPrefix = "/files"
		}
		if !strings.HasPrefix(publicPrefix, "http://") && !strings.HasPrefix(publicPrefix, "https://") {
			if !strings.HasPrefix(publicPrefix, "/") {
				publicPrefix = "/" + publicPrefix
			}
			r.Static(publicPrefix, localProvider.LocalBaseDir())
		}
	}

	serverHost := fmt.Sprintf("0.0.0.0:%s", cfg.HTTPPort)
	logger.WithField("host", serverHost).Info("server starting")
	httpServer := &http.Server{
		Addr:         serverHost,
		Handler:      r,
		ReadTimeout:  900 * time.Second,
		WriteTimeout: 900 * time.Second,
		IdleTimeout:  1200 * time.Second,
	}
	err = httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		logger.WithError(err).Error("server failed")
	}
}

// CORSMiddleware allows browser clients on other origins.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With, api-key")
		c.Header("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// LoggingMiddleware logs one structured line per request.
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		logrus.WithFields(logrus.Fields{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    c.Writer.Status(),
			"duration":  duration.String(),
			"size":      c.Writer.Size(),
			"client_ip": c.ClientIP(),
		}).Info("http_request")
	}
}
