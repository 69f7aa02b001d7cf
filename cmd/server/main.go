package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "jualapa/docs" // swagger docs

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"jualapa/internal/auth"
	"jualapa/internal/cache"
	"jualapa/internal/config"
	"jualapa/internal/db"
	"jualapa/internal/handler"
	"jualapa/internal/logger"
	"jualapa/internal/mail"
	"jualapa/internal/media"
	"jualapa/internal/middleware"
	"jualapa/internal/model"
	"jualapa/internal/oauth"
	"jualapa/internal/ratelimit"
	"jualapa/internal/repository"
	"jualapa/internal/router"
	"jualapa/internal/service"
)

// @title Jual Apa API
// @version 1.0
// @description Recipe and product marketplace API with cookie sessions, Google sign-in and a shared ingredient catalog.
// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey SessionCookie
// @in cookie
// @name session
// @description Session JWT issued by POST /auth/sessions.
func main() {
	// A missing .env is fine; the process environment still applies.
	_ = godotenv.Load()
	cfg := config.Load()

	zl, err := logger.New(cfg.LogLevel, cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gormDB, err := db.Open(cfg.DBDriver, cfg.DatabaseDSN, zl)
	if err != nil {
		zl.Fatal("database init", zap.Error(err))
	}

	if os.Getenv("RESET_DB") == "true" {
		zl.Warn("RESET_DB=true detected, dropping all tables")
		tables := []interface{}{
			&model.Star{},
			&model.Product{},
			&model.CatalogItem{},
			&model.Testimonial{},
			&model.User{},
		}
		for _, table := range tables {
			if err := gormDB.Migrator().DropTable(table); err != nil {
				zl.Warn("drop table", zap.Error(err))
			}
		}
	}
	if err := db.Migrate(gormDB); err != nil {
		zl.Fatal("migrate", zap.Error(err))
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()

	mediaStore, err := media.NewS3Store(ctx, cfg.S3)
	if err != nil {
		zl.Fatal("media store init", zap.Error(err))
	}

	var sender mail.Sender
	if cfg.SMTP.Username == "" {
		zl.Warn("SMTP_USERNAME not set, outgoing mail is logged instead of sent")
		sender = mail.NewLogSender(zl)
	} else {
		smtpSender, err := mail.NewSMTPSender(cfg.SMTP)
		if err != nil {
			zl.Fatal("mail sender init", zap.Error(err))
		}
		sender = smtpSender
	}
	composer, err := mail.NewComposer(cfg.FrontendURL)
	if err != nil {
		zl.Fatal("mail templates", zap.Error(err))
	}

	jwtService := auth.NewJWTService(cfg.JWTSecret)
	google := oauth.NewGoogleProvider(cfg.Google)

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	starRepo := repository.NewStarRepository(gormDB)
	productRepo := repository.NewProductRepository(gormDB)
	catalogRepo := repository.NewCatalogRepository(gormDB)
	testimonialRepo := repository.NewTestimonialRepository(gormDB)

	// Initialize services
	tokens := service.NewOneTimeTokens(userRepo)
	authService := service.NewAuthService(userRepo, tokens, jwtService, sender, composer, google)
	userService := service.NewUserService(userRepo, starRepo, productRepo, mediaStore)
	productService := service.NewProductService(productRepo, catalogRepo, userRepo, mediaStore)
	catalogService := service.NewCatalogService(catalogRepo, mediaStore, cacheClient)
	testimonialService := service.NewTestimonialService(testimonialRepo)

	cookies := auth.CookieOptions{
		Secure:   cfg.CookieSecure,
		SameSite: auth.ParseSameSite(cfg.CookieSameSite),
	}

	e := echo.New()
	e.HideBanner = true
	router.Register(
		e,
		cfg,
		zl,
		middleware.NewGate(jwtService, userRepo),
		ratelimit.New(cacheClient.Counter(), cfg.RateLimitRequests, cfg.RateLimitWindow),
		router.Handlers{
			Auth:        handler.NewAuthHandler(authService, cookies, cfg.FrontendURL, zl),
			User:        handler.NewUserHandler(authService, userService, cookies),
			Product:     handler.NewProductHandler(productService),
			Ingredient:  handler.NewCatalogHandler(catalogService, model.KindIngredient),
			Packaging:   handler.NewCatalogHandler(catalogService, model.KindPackaging),
			Tool:        handler.NewCatalogHandler(catalogService, model.KindTool),
			Testimonial: handler.NewTestimonialHandler(testimonialService),
			Media:       handler.NewMediaHandler(mediaStore),
		},
	)

	zl.Info("swagger documentation available", zap.String("url", swaggerURL(cfg)))

	addr := ":" + cfg.ServerPort
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server start", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zl.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		zl.Error("shutdown", zap.Error(err))
	}
}

func swaggerURL(cfg *config.Config) string {
	host := cfg.SwaggerHost
	if host == "" {
		host = "localhost:" + cfg.ServerPort
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}
	return host + "/swagger/index.html"
}
