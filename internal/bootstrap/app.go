package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	httpHandler "collaborative-coderoom/internal/handler/http"
	wsHandler "collaborative-coderoom/internal/handler/websocket"
	"collaborative-coderoom/internal/hub"
	"collaborative-coderoom/internal/store"
	"collaborative-coderoom/internal/upstream"
)

// Config holds everything loaded from the environment at startup.
type Config struct {
	ServerPort      string
	LogLevel        string
	AppEnv          string
	CORSOrigin      string
	AnthropicAPIKey string
	AnthropicModel  string
	PistonURL       string
	UpstreamTimeout time.Duration
}

// LoadConfig reads configuration from a .env file (if present) and the
// environment. Nothing here is fatal: missing upstream credentials degrade
// the proxy endpoints, not the room server.
func LoadConfig() *Config {
	_ = godotenv.Load() // env vars alone are fine

	cfg := &Config{
		ServerPort:      os.Getenv("SERVER_PORT"),
		LogLevel:        os.Getenv("LOG_LEVEL"),
		AppEnv:          os.Getenv("APP_ENV"),
		CORSOrigin:      os.Getenv("CORS_ALLOWED_ORIGIN"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  os.Getenv("ANTHROPIC_MODEL"),
		PistonURL:       os.Getenv("PISTON_URL"),
		UpstreamTimeout: 30 * time.Second,
	}

	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.AppEnv == "" {
		cfg.AppEnv = "development"
	}
	if secs, err := strconv.Atoi(os.Getenv("UPSTREAM_TIMEOUT_SECONDS")); err == nil && secs > 0 {
		cfg.UpstreamTimeout = time.Duration(secs) * time.Second
	}
	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		logrus.Warnf("Invalid LOG_LEVEL '%s', using default 'info'", cfg.LogLevel)
		cfg.LogLevel = "info"
	}

	return cfg
}

// App wires the hub, the stores, the proxy handlers, and the HTTP server.
type App struct {
	Config     *Config
	Log        *logrus.Logger
	Hub        *hub.Hub
	HttpServer *http.Server
}

// NewApp builds all application components.
func NewApp() (*App, error) {
	cfg := LoadConfig()

	log := logrus.New()
	if cfg.AppEnv == "production" {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, ForceColors: true})
	}
	logLevel, _ := logrus.ParseLevel(cfg.LogLevel)
	log.SetLevel(logLevel)
	log.SetOutput(os.Stdout)
	log.Info("Configuration loaded")

	registry := store.NewConnectionRegistry()
	roomStore := store.NewRoomStore()
	hubInstance := hub.NewHub(registry, roomStore, log)
	log.Info("Hub initialized")

	chatClient := upstream.NewChatClient(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.UpstreamTimeout)
	if cfg.AnthropicAPIKey == "" {
		log.Warn("ANTHROPIC_API_KEY not set, chat proxy will report unavailable")
	}
	pistonClient := upstream.NewPistonClient(cfg.PistonURL, cfg.UpstreamTimeout)

	aiHandler := httpHandler.NewAIHandler(chatClient, log)
	executeHandler := httpHandler.NewExecuteHandler(pistonClient, log)
	socketHandler := wsHandler.NewWebSocketHandler(hubInstance, log)
	log.Info("Handlers initialized")

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(log))
	router.Use(corsMiddleware(cfg.CORSOrigin))

	api := router.Group("/api")
	{
		api.POST("/ai/chat", aiHandler.Chat)
		api.POST("/execute", executeHandler.Execute)
	}
	router.GET("/ws", socketHandler.HandleConnection)
	router.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "pong"}) })
	log.Info("Router setup complete")

	app := &App{
		Config: cfg,
		Log:    log,
		Hub:    hubInstance,
		HttpServer: &http.Server{
			Addr:    ":" + cfg.ServerPort,
			Handler: router,
		},
	}
	return app, nil
}

// Start launches the hub loop and the HTTP server.
func (a *App) Start() {
	go a.Hub.Run()
	a.Log.Info("Hub routine started")

	go func() {
		a.Log.Infof("HTTP server listening on %s", a.HttpServer.Addr)
		if err := a.HttpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Log.Fatalf("Failed to start HTTP server: %v", err)
		}
		a.Log.Info("HTTP server stopped listening")
	}()
}

// Shutdown stops the HTTP server and the hub gracefully.
func (a *App) Shutdown() {
	a.Log.Info("Shutting down application...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.HttpServer.Shutdown(ctx); err != nil {
		a.Log.Errorf("Error shutting down HTTP server: %v", err)
	} else {
		a.Log.Info("HTTP server shut down gracefully")
	}

	if a.Hub != nil {
		a.Hub.Close()
	}

	a.Log.Info("Application shutdown complete")
}

func corsMiddleware(allowedOrigin string) gin.HandlerFunc {
	if allowedOrigin == "" {
		allowedOrigin = "http://localhost:3000"
	}
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// LoggerMiddleware logs every request with a level derived from the status
// code.
func LoggerMiddleware(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()
		latency := time.Since(startTime)
		statusCode := c.Writer.Status()
		path := c.Request.URL.Path
		if c.Request.URL.RawQuery != "" {
			path = path + "?" + c.Request.URL.RawQuery
		}

		entry := log.WithFields(logrus.Fields{
			"status_code": statusCode,
			"latency_ms":  latency.Milliseconds(),
			"client_ip":   c.ClientIP(),
			"method":      c.Request.Method,
			"path":        path,
		})

		if errorMessage := c.Errors.ByType(gin.ErrorTypePrivate).String(); errorMessage != "" {
			entry.Error(errorMessage)
		} else if statusCode >= 500 {
			entry.Error("Server error")
		} else if statusCode >= 400 {
			entry.Warn("Client error")
		} else {
			entry.Info("Request handled")
		}
	}
}
