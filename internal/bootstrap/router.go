package bootstrap

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	fbauth "firebase.google.com/go/v4/auth"

	httpapi "github.com/model-my-watershed/mmw-backend/internal/api/http"
	"github.com/model-my-watershed/mmw-backend/internal/api/http/middleware"
	"github.com/model-my-watershed/mmw-backend/internal/auth"
	authmw "github.com/model-my-watershed/mmw-backend/internal/auth/middleware"
	"github.com/model-my-watershed/mmw-backend/internal/boundary"
	boundaryhttp "github.com/model-my-watershed/mmw-backend/internal/boundary/http"
	boundaryrepo "github.com/model-my-watershed/mmw-backend/internal/boundary/repository"
	boundarysvc "github.com/model-my-watershed/mmw-backend/internal/boundary/service"
	exporthttp "github.com/model-my-watershed/mmw-backend/internal/export/http"
	"github.com/model-my-watershed/mmw-backend/internal/export/jobs"
	exportrepo "github.com/model-my-watershed/mmw-backend/internal/export/repository"
	exportsvc "github.com/model-my-watershed/mmw-backend/internal/export/service"
	"github.com/model-my-watershed/mmw-backend/internal/hydroshare"
	hshttp "github.com/model-my-watershed/mmw-backend/internal/hydroshare/http"
	"github.com/model-my-watershed/mmw-backend/internal/projects"
	projecthttp "github.com/model-my-watershed/mmw-backend/internal/projects/http"
	"github.com/model-my-watershed/mmw-backend/internal/users"
)

type RouterDeps struct {
	ServiceName    string
	Version        string
	AllowedOrigins []string
	DB             *pgxpool.Pool
	Redis          *redis.Client
	HydroShare     *hydroshare.Service
	FirebaseAuth   *fbauth.Client
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     dep.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Request-Id", "X-User-Id"},
		ExposeHeaders:    []string{"X-Request-Id", "Content-Disposition"},
		AllowCredentials: true,
	}))
	r.Use(middleware.RequestIDMiddleware())

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.DB, dep.Redis)
	healthHandler.RegisterRoutes(r)

	api := r.Group("/api/v1")

	userRepo := users.NewRepo(dep.DB)
	projectRepo := projects.NewRepo(dep.DB)
	scenarioRepo := projects.NewScenarioRepo(dep.DB)
	boundaryRepo := boundaryrepo.NewRepo(dep.DB)
	linkRepo := exportrepo.NewLinkRepo(dep.DB)
	jobRepo := jobs.NewRepo(dep.Redis)

	if dep.FirebaseAuth != nil {
		api.Use(authmw.FirebaseAuthMiddleware(dep.FirebaseAuth))
	}
	api.Use(auth.WithUser(userRepo))

	projectHandler := projecthttp.New(projectRepo, scenarioRepo)
	projectHandler.Register(api.Group("/projects"))

	boundarySvc := boundarysvc.NewBoundaryService(boundary.DefaultRegistry(), boundaryRepo)
	boundaryHandler := boundaryhttp.New(boundarySvc)
	boundaryHandler.Register(api.Group("/boundary"))

	hsHandler := hshttp.New(dep.HydroShare)
	hsHandler.Register(api.Group("/auth"))

	exportService := exportsvc.NewExportService(
		exportsvc.NewHydroShareProvider(dep.HydroShare), linkRepo, projectRepo)
	dispatcher := exportsvc.NewDispatcher(jobRepo)
	exportHandler := exporthttp.New(exportService, dispatcher, jobRepo, projectRepo, dep.HydroShare)
	exportHandler.Register(api.Group("/export"))
	exportHandler.RegisterJobs(api)

	return r
}
