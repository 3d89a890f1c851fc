package bootstrap

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	httpapi "github.com/treeline-hq/treeline-backend/internal/api/http"
	"github.com/treeline-hq/treeline-backend/internal/auth"
	"github.com/treeline-hq/treeline-backend/internal/logger"
	"github.com/treeline-hq/treeline-backend/internal/middleware"
	projecthttp "github.com/treeline-hq/treeline-backend/internal/projects/http"
	"github.com/treeline-hq/treeline-backend/internal/projects/repository"
	"github.com/treeline-hq/treeline-backend/internal/projects/service"
)

type RouterDeps struct {
	ServiceName string
	Version     string
	DB          *pgxpool.Pool
	Redis       *redis.Client
	Tokens      *auth.TokenService
	Log         *logger.Logger
}

// BuildRouter wires the full HTTP surface: health, auth, and the
// org-scoped project tree API.
func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(dep.Log))
	r.Use(cors.Default())
	r.Use(middleware.RateLimit(rate.Limit(50), 100))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.DB, dep.Redis)
	healthHandler.RegisterRoutes(r)

	store := repository.NewRepo(dep.DB)
	projectSvc := service.NewProjectService(store)
	memberSvc := service.NewMembershipService(store)
	hierSvc := service.NewHierarchyService(store)
	accessSvc := service.NewAccessService(store)
	taskSvc := service.NewTaskService(store)

	revoked := auth.NewRevocationStore(dep.Redis)

	api := r.Group("/api/v1")
	api.Use(auth.Middleware(dep.Tokens, revoked))

	authHandler := auth.NewHandler(dep.Tokens, revoked)
	authHandler.Register(api.Group("/auth"))

	projectHandler := projecthttp.New(projectSvc, memberSvc, hierSvc, accessSvc, taskSvc, dep.Log)
	projectHandler.Register(api.Group("/projects"))

	return r
}
