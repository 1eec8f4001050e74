package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	fbapp "firebase.google.com/go/v4"

	"vetclinic/internal/adapter/api"
	"vetclinic/internal/adapter/api/handler"
	apimiddleware "vetclinic/internal/adapter/api/middleware"
	"vetclinic/internal/adapter/api/router"
	"vetclinic/internal/adapter/repository"
	domainrepo "vetclinic/internal/domain/repository"
	"vetclinic/internal/domain/service"
	"vetclinic/internal/infrastructure/auth"
	"vetclinic/internal/infrastructure/metrics"
	"vetclinic/internal/infrastructure/pubsub"
	"vetclinic/internal/infrastructure/ratelimit"
	"vetclinic/internal/infrastructure/storage"
	"vetclinic/internal/infrastructure/websocket"
	"vetclinic/internal/usecase"
	"vetclinic/pkg/config"
	"vetclinic/pkg/logger"
	"vetclinic/pkg/response"
)

type repositories struct {
	users         domainrepo.UserRepository
	conversations domainrepo.ConversationRepository
	notifications domainrepo.NotificationRepository
	files         domainrepo.FileMetadataRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration: %v", err)
		os.Exit(1)
	}

	logger.Init(cfg.Environment)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	healthChecks := map[string]handler.HealthCheck{}

	var opts []option.ClientOption
	var firebaseApp *fbapp.App
	if cfg.NeedsFirebase() {
		if cfg.FirebaseServiceAccountJSON != "" {
			logger.Info("Using Firebase service account from environment variable")
			opts = append(opts, option.WithCredentialsJSON([]byte(cfg.FirebaseServiceAccountJSON)))
		} else if cfg.FirebaseServiceAccountPath != "" {
			if _, err := os.Stat(cfg.FirebaseServiceAccountPath); os.IsNotExist(err) {
				logger.Error("Service account file does not exist: %s", cfg.FirebaseServiceAccountPath)
				os.Exit(1)
			}
			logger.Info("Using Firebase service account from file: %s", cfg.FirebaseServiceAccountPath)
			opts = append(opts, option.WithCredentialsFile(cfg.FirebaseServiceAccountPath))
		} else {
			logger.Info("Using application default credentials")
		}

		firebaseApp, err = fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opts...)
		if err != nil {
			logger.Error("Failed to initialize Firebase: %v", err)
			os.Exit(1)
		}
	}

	var repos repositories
	switch cfg.StoreDriver {
	case config.StoreFirestore:
		firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opts...)
		if err != nil {
			logger.Error("Failed to create Firestore client: %v", err)
			os.Exit(1)
		}
		defer firestoreClient.Close()

		repos = repositories{
			users:         repository.NewFirestoreUserRepository(firestoreClient),
			conversations: repository.NewFirestoreConversationRepository(firestoreClient),
			notifications: repository.NewFirestoreNotificationRepository(firestoreClient),
			files:         repository.NewFirestoreFileMetadataRepository(firestoreClient),
		}
		healthChecks["firestore"] = func(ctx context.Context) error {
			_, err := firestoreClient.Collection("users").Limit(1).Documents(ctx).Next()
			if errors.Is(err, iterator.Done) {
				return nil
			}
			return err
		}
	default:
		logger.Warn("Using in-memory store; data is lost on restart")
		repos = repositories{
			users:         repository.NewMemoryUserRepository(),
			conversations: repository.NewMemoryConversationRepository(),
			notifications: repository.NewMemoryNotificationRepository(),
			files:         repository.NewMemoryFileMetadataRepository(),
		}
	}

	var verifier auth.TokenVerifier
	var claimSetter usecase.RoleClaimSetter
	var devTokens *auth.JWTProvider
	switch cfg.AuthProvider {
	case config.AuthFirebase:
		authClient, err := firebaseApp.Auth(ctx)
		if err != nil {
			logger.Error("Failed to initialize Firebase Auth: %v", err)
			os.Exit(1)
		}
		firebaseVerifier := auth.NewFirebaseVerifier(authClient)
		verifier = firebaseVerifier
		claimSetter = firebaseVerifier
	case config.AuthJWT:
		jwtProvider := auth.NewJWTProvider(cfg.JWTSecret, time.Duration(cfg.JWTExpiry)*time.Second)
		verifier = jwtProvider
		if cfg.IsDevelopment() {
			devTokens = jwtProvider
		}
	}

	registry := metrics.NewRegistry()
	wsManager := websocket.NewManager(metrics.NewRealtime(registry))

	var broadcaster usecase.Broadcaster = wsManager
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer redisClient.Close()

		redisBroadcaster := pubsub.NewRedisBroadcaster(redisClient, cfg.RedisChannel, wsManager)
		if err := redisBroadcaster.Start(ctx); err != nil {
			logger.Error("Failed to subscribe to Redis channel %s: %v", cfg.RedisChannel, err)
			os.Exit(1)
		}
		defer redisBroadcaster.Close()

		broadcaster = redisBroadcaster
		healthChecks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
		logger.Info("Realtime events fan out through Redis channel %s", cfg.RedisChannel)
	}

	rateLimiter := ratelimit.NewRateLimiter(nil)
	rateLimiter.StartCleanupRoutine(ctx, 5*time.Minute)

	notificationUseCase := usecase.NewNotificationUseCase(repos.notifications, repos.users, broadcaster)
	conversationUseCase := usecase.NewConversationUseCase(repos.conversations, repos.users, rateLimiter)
	messageUseCase := usecase.NewMessageUseCase(repos.conversations, repos.users, notificationUseCase, broadcaster, rateLimiter)
	userUseCase := usecase.NewUserUseCase(repos.users, claimSetter)

	wsManager.SetRoomAuthorizer(conversationUseCase)

	var fileService service.FileUploadService
	uploadDir := ""
	if cfg.StorageBucket != "" {
		fileService, err = storage.NewCloudStorageClient(ctx, cfg.StorageBucket, opts...)
		if err != nil {
			logger.Error("Failed to initialize Cloud Storage: %v", err)
			os.Exit(1)
		}
	} else {
		localStorage, err := storage.NewLocalStorage(cfg.UploadDir, "/uploads")
		if err != nil {
			logger.Error("Failed to initialize local upload directory: %v", err)
			os.Exit(1)
		}
		fileService = localStorage
		uploadDir = localStorage.Root()
	}
	defer fileService.Close()

	handlers := handler.Setup(ctx, handler.Dependencies{
		ConversationUseCase: conversationUseCase,
		MessageUseCase:      messageUseCase,
		NotificationUseCase: notificationUseCase,
		UserUseCase:         userUseCase,
		FileService:         fileService,
		FileMetadataRepo:    repos.files,
		MaxUploadBytes:      cfg.MaxUploadBytes,
		WSManager:           wsManager,
		AllowedOrigins:      cfg.AllowedOrigins,
		HealthChecks:        healthChecks,
		DevTokenIssuer:      devTokens,
		UserRepo:            repos.users,
	})

	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = response.HTTPErrorHandler

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	if len(cfg.AllowedOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: cfg.AllowedOrigins}))
	} else {
		e.Use(middleware.CORS())
	}
	e.Use(apimiddleware.IPRateLimit(cfg.RateLimitRPS))

	authMiddleware := apimiddleware.NewAuthMiddleware(verifier, userUseCase)
	router.Setup(e, handlers, authMiddleware, router.Options{
		MetricsHandler: metrics.Handler(registry),
		UploadDir:      uploadDir,
	})

	go func() {
		logger.Info("Starting server on port %s...", cfg.ServerPort)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server stopped: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed: %v", err)
	}
}
