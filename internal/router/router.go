package router

import (
	"net"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	"jualapa/internal/config"
	"jualapa/internal/handler"
	"jualapa/internal/middleware"
	"jualapa/internal/ratelimit"
)

// Handlers groups every handler the route table needs.
type Handlers struct {
	Auth        *handler.AuthHandler
	User        *handler.UserHandler
	Product     *handler.ProductHandler
	Ingredient  *handler.CatalogHandler
	Packaging   *handler.CatalogHandler
	Tool        *handler.CatalogHandler
	Testimonial *handler.TestimonialHandler
	Media       *handler.MediaHandler
}

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	log *zap.Logger,
	gate *middleware.Gate,
	limiter *ratelimit.Limiter,
	h Handlers,
) {
	e.HTTPErrorHandler = handler.ErrorHandler(log, cfg.IsDevelopment())
	e.Validator = NewCustomValidator()
	e.IPExtractor = ipExtractor(cfg.TrustedProxies, log)

	e.Use(echomw.RequestID())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			log.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
				zap.String("remote_ip", v.RemoteIP),
			)
			return nil
		},
	}))
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     allowedOrigins(cfg),
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowCredentials: true,
	}))
	e.Use(middleware.RateLimit(limiter, log))

	e.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})
	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	authn := gate.Authenticated()
	admin := []echo.MiddlewareFunc{authn, gate.AdminOnly()}
	self := []echo.MiddlewareFunc{authn, gate.SelfOrAdmin("id")}

	api := e.Group("/api/v1")

	users := api.Group("/users")
	users.POST("", h.User.Register)
	users.GET("", h.User.ListUsers, admin...)
	users.GET("/me", h.User.Me, authn)
	users.POST("/create-admin", h.User.CreateAdmin, admin...)
	users.GET("/:id", h.User.GetUser, self...)
	users.PUT("/:id", h.User.UpdateProfile, self...)
	users.DELETE("/:id", h.User.DeleteUser, self...)
	users.PUT("/:id/password", h.User.ChangePassword, self...)
	users.PUT("/:id/picture", h.User.UpdatePicture, self...)
	users.POST("/:id/starred", h.User.StarProduct, self...)
	users.GET("/:id/starred/:productId", h.User.IsStarred, self...)
	users.DELETE("/:id/starred/:productId", h.User.UnstarProduct, self...)

	authRoutes := api.Group("/auth")
	authRoutes.POST("/email-verify", h.Auth.VerifyEmail)
	authRoutes.POST("/email-verify/resend", h.Auth.ResendVerification)
	authRoutes.POST("/sessions", h.Auth.Login)
	authRoutes.DELETE("/sessions", h.Auth.Logout, authn)
	authRoutes.GET("/google", h.Auth.GoogleLogin)
	authRoutes.GET("/google/callback", h.Auth.GoogleCallback)
	authRoutes.POST("/reset-password", h.Auth.RequestPasswordReset)
	authRoutes.POST("/reset-password/validate", h.Auth.ValidateResetToken)
	authRoutes.POST("/reset-password/confirm", h.Auth.ConfirmPasswordReset)

	products := api.Group("/products")
	products.GET("", h.Product.ListProducts)
	products.POST("", h.Product.CreateProduct, authn)
	products.GET("/:id", h.Product.GetProduct)
	products.PUT("/:id", h.Product.UpdateProduct, admin...)
	products.DELETE("/:id", h.Product.DeleteProduct, admin...)
	products.PATCH("/:id/verify", h.Product.VerifyProduct, admin...)
	products.PATCH("/:id/unverify", h.Product.UnverifyProduct, admin...)

	registerCatalog(api.Group("/ingredients"), h.Ingredient, admin)
	registerCatalog(api.Group("/packages"), h.Packaging, admin)
	registerCatalog(api.Group("/tools"), h.Tool, admin)

	testimonials := api.Group("/testimonials")
	testimonials.GET("", h.Testimonial.ListTestimonials)
	testimonials.POST("", h.Testimonial.CreateTestimonial)

	api.POST("/media", h.Media.Upload, authn, echomw.BodyLimit("6M"))
}

func registerCatalog(g *echo.Group, h *handler.CatalogHandler, admin []echo.MiddlewareFunc) {
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("", h.Create, admin...)
	g.PUT("/:id", h.Update, admin...)
	g.DELETE("/:id", h.Delete, admin...)
}

// allowedOrigins adds the front end to the configured CORS origins.
func allowedOrigins(cfg *config.Config) []string {
	origins := append([]string{}, cfg.AllowedOrigins...)
	for _, o := range origins {
		if o == cfg.FrontendURL {
			return origins
		}
	}
	return append(origins, cfg.FrontendURL)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// NewCustomValidator reports field errors under their JSON names.
func NewCustomValidator() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return &CustomValidator{validator: v}
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// ipExtractor keys clients on the socket address unless trusted proxy ranges
// are configured, in which case X-Forwarded-For is honoured only for hops
// inside those ranges.
func ipExtractor(trusted []string, log *zap.Logger) echo.IPExtractor {
	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	ranges := 0
	for _, cidr := range trusted {
		_, ipNet, err := net.ParseCIDR(cidr)
		if err != nil {
			log.Warn("ignoring invalid trusted proxy range", zap.String("cidr", cidr), zap.Error(err))
			continue
		}
		opts = append(opts, echo.TrustIPRange(ipNet))
		ranges++
	}
	if ranges == 0 {
		return echo.ExtractIPDirect()
	}
	return echo.ExtractIPFromXFFHeader(opts...)
}
