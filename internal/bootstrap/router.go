package bootstrap

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	httpapi "github.com/bloomi-app/bloomi-backend/internal/api/http"
	"github.com/bloomi-app/bloomi-backend/internal/api/http/middleware"
	"github.com/bloomi-app/bloomi-backend/internal/auth"
	mealhttp "github.com/bloomi-app/bloomi-backend/internal/meal_analysis/http"
)

type RouterDeps struct {
	ServiceName    string
	Version        string
	ProviderID     string
	AllowedOrigins []string
	MaxUploadBytes int64

	DB    *pgxpool.Pool
	Redis *redis.Client

	Meals mealhttp.MealService
	Users auth.UserEnsurer

	// Verifier is nil when Firebase is not configured; requests then
	// identify themselves with X-User-Id.
	Verifier auth.TokenVerifier
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(cors.New(corsConfig(dep.AllowedOrigins)))
	r.Use(middleware.TraceMiddleware())

	if dep.MaxUploadBytes > 0 {
		r.MaxMultipartMemory = dep.MaxUploadBytes
	}

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.DB, dep.Redis).
		WithProvider(dep.ProviderID)
	healthHandler.RegisterRoutes(r)

	api := r.Group("/api/v1")
	if dep.Verifier != nil {
		api.Use(auth.FirebaseAuthMiddleware(dep.Verifier, dep.Users))
	} else {
		api.Use(auth.OptionalUser(dep.Users))
	}

	mealhttp.New(dep.Meals, dep.MaxUploadBytes).Register(api)

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-User-Id", "X-Trace-Id", "X-Request-Id"},
		ExposeHeaders: []string{"X-Trace-Id"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
