package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	authcore "github.com/vetrina-app/authcore"
	echoapi "github.com/vetrina-app/authcore/api/echo"
	"github.com/vetrina-app/authcore/cache"
	redisstore "github.com/vetrina-app/authcore/cache/redis"
	"github.com/vetrina-app/authcore/config"
	"github.com/vetrina-app/authcore/domain"
	"github.com/vetrina-app/authcore/internal/auth"
	"github.com/vetrina-app/authcore/log"
	"github.com/vetrina-app/authcore/middleware"
	"github.com/vetrina-app/authcore/mongodb"
	"github.com/vetrina-app/authcore/tracing"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		bootLogger := zerolog.New(os.Stderr).With().Timestamp().Logger()
		bootLogger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logLevel, parseErr := zerolog.ParseLevel(cfg.LogLevel)
	if parseErr != nil {
		logLevel = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(logLevel)
	appLogger := log.NewZerologAdapter(logLevel, cfg.LogPretty)

	ctx := context.Background()
	appLogger.Info(ctx, "Starting vetrina-auth server", map[string]interface{}{
		"http_port":          cfg.HTTPPort,
		"mongo_db_name":      cfg.MongoDBName,
		"credential_backend": cfg.CredentialBackend,
		"log_level":          logLevel.String(),
	})

	tracerProvider, err := tracing.InitTracerProvider(cfg.OtelServiceName)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to initialize TracerProvider", err)
	}

	if initErr := mongodb.InitMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName); initErr != nil {
		appLogger.Fatal(ctx, "Failed to initialize MongoDB connection", initErr)
	}
	db := mongodb.GetDB()

	userRepo, err := mongodb.NewUserRepository(ctx, db)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to initialize UserRepository", err)
	}
	profileRepo, err := mongodb.NewProviderProfileRepository(ctx, db)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to initialize ProviderProfileRepository", err)
	}
	appRepo, err := mongodb.NewSellerApplicationRepository(ctx, db)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to initialize SellerApplicationRepository", err)
	}

	// Credential store selection: in-memory for a single instance, redis
	// when replicas must share pending codes.
	var credStore cache.CredentialStore
	var redisClient *goredis.Client
	switch cfg.CredentialBackend {
	case config.CredentialBackendRedis:
		redisClient = goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
		if pingErr := redisClient.Ping(ctx).Err(); pingErr != nil {
			appLogger.Fatal(ctx, "Failed to connect to Redis", pingErr)
		}
		credStore = redisstore.NewCredentialStore(redisClient, cfg.RedisKeyPrefix)
	default:
		credStore = cache.NewMemoryCredentialStore()
	}

	sessions := authcore.NewSessionService(
		[]byte(cfg.SessionSecret),
		cfg.SessionIssuer,
		time.Duration(cfg.SessionTTLMin)*time.Minute,
	)
	hasher := auth.NewBcryptPasswordHasher(bcrypt.DefaultCost)
	guard := authcore.NewGuard()

	logins := authcore.NewLoginService(
		credStore, userRepo, profileRepo, sessions,
		authcore.LogCodeSender{}, hasher,
		time.Duration(cfg.CodeTTLMin)*time.Minute,
	)
	applications := authcore.NewApplicationService(appRepo, userRepo, profileRepo)

	if bootErr := bootstrapAdmin(ctx, cfg, userRepo, hasher); bootErr != nil {
		appLogger.Fatal(ctx, "Failed to bootstrap administrator account", bootErr)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(middleware.SessionAuth(sessions))
	echoapi.NewAuthAPI(logins, guard).RegisterRoutes(e)
	echoapi.NewProviderAPI(applications, profileRepo, guard).RegisterRoutes(e)

	sweeper := authcore.NewSweeper(credStore, time.Duration(cfg.SweepIntervalMin)*time.Minute)

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		if serveErr := e.Start(":" + cfg.HTTPPort); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			return serveErr
		}
		return nil
	})
	g.Go(func() error {
		return sweeper.Run(gCtx)
	})
	g.Go(func() error {
		<-gCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if shutdownErr := e.Shutdown(shutdownCtx); shutdownErr != nil {
			appLogger.Warn(shutdownCtx, "HTTP server shutdown was not clean", map[string]interface{}{"error": shutdownErr.Error()})
		}
		if closeErr := credStore.Close(); closeErr != nil {
			appLogger.Warn(shutdownCtx, "Credential store close failed", map[string]interface{}{"error": closeErr.Error()})
		}
		if redisClient != nil {
			_ = redisClient.Close()
		}
		if discErr := mongodb.Disconnect(shutdownCtx); discErr != nil {
			appLogger.Warn(shutdownCtx, "MongoDB disconnect failed", map[string]interface{}{"error": discErr.Error()})
		}
		if tpErr := tracerProvider.Shutdown(shutdownCtx); tpErr != nil {
			appLogger.Warn(shutdownCtx, "TracerProvider shutdown failed", map[string]interface{}{"error": tpErr.Error()})
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		appLogger.Fatal(ctx, "Server exited with error", err)
	}
	appLogger.Info(ctx, "Server stopped")
}

// bootstrapAdmin ensures the configured administrator account exists with a
// password hash, so the moderation endpoints are reachable on a fresh
// deployment.
func bootstrapAdmin(ctx context.Context, cfg *config.ServerConfig, users domain.UserRepository, hasher authcore.PasswordHasher) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	email := cache.NormalizeKey(cfg.AdminEmail)
	if _, err := users.GetUserByEmail(ctx, email); err == nil {
		return nil // already present
	} else if !errors.Is(err, authcore.ErrUserNotFound) {
		return err
	}

	hash, err := hasher.Hash(cfg.AdminPassword)
	if err != nil {
		return err
	}
	return users.CreateUser(ctx, &domain.User{
		Email:        email,
		Role:         domain.RoleAdministrator,
		Status:       domain.UserStatusActive,
		PasswordHash: hash,
	})
}
