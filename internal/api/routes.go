package api

import (
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/metrics"
	"alcyxob/coach-app/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Services groups the services the HTTP layer depends on.
type Services struct {
	Auth     service.AuthService
	Students service.StudentService
	Catalog  service.CatalogService
	Plans    service.PlanService
	Portal   service.PortalService
	Reports  service.ReportService
}

// SetupRoutes registers every route on router. metricsManager and
// metricsHandler may be nil, which disables request metrics and /metrics.
func SetupRoutes(router *gin.Engine, services Services, metricsManager *metrics.Manager, metricsHandler http.Handler) {
	authHandler := NewAuthHandler(services.Auth)
	trainerHandler := NewTrainerHandler(services.Students)
	exerciseHandler := NewExerciseHandler(services.Catalog)
	planHandler := NewPlanHandler(services.Plans)
	reportHandler := NewReportHandler(services.Reports)
	portalHandler := NewPortalHandler(services.Portal)

	authMiddleware := AuthMiddleware(services.Auth)

	router.Use(RequestLogger())
	if metricsManager != nil {
		router.Use(MetricsMiddleware(metricsManager))
	}

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	if metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(metricsHandler))
	}

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}

		// --- Student portal (token in path, no JWT) ---
		portalGroup := apiV1.Group("/portal/:token")
		{
			portalGroup.GET("/workout", portalHandler.GetWorkout)
			portalGroup.GET("/diet", portalHandler.GetDiet)
			portalGroup.POST("/completions", portalHandler.RecordCompletion)
			portalGroup.GET("/completions/:itemId", portalHandler.GetItemStatus)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", func(c *gin.Context) {
			userID, ok := currentUserID(c)
			if !ok {
				return
			}
			role, _ := getUserRoleFromContext(c)
			c.JSON(http.StatusOK, gin.H{"userId": userID.Hex(), "role": role})
		})

		// --- Trainer Specific Routes ---
		trainerApiGroup := protected.Group("/trainer")
		trainerApiGroup.Use(RoleMiddleware(domain.RoleTrainer, domain.RoleAdmin))
		{
			trainerApiGroup.POST("/students", trainerHandler.CreateStudent)
			trainerApiGroup.GET("/students", trainerHandler.GetStudents)
			trainerApiGroup.PATCH("/students/:id/active", trainerHandler.SetStudentActive)
			trainerApiGroup.POST("/students/:id/token", trainerHandler.RotateStudentToken)

			trainerApiGroup.GET("/categories", exerciseHandler.GetCategories)
			trainerApiGroup.GET("/exercises", exerciseHandler.GetExercises)
			trainerApiGroup.POST("/exercises", exerciseHandler.CreateExercise)

			// --- Workout plans ---
			trainerApiGroup.POST("/students/:id/workout-plans", planHandler.CreateWorkoutPlan)
			trainerApiGroup.GET("/students/:id/workout-plans", planHandler.GetWorkoutPlans)
			trainerApiGroup.GET("/workout-plans/:planId", planHandler.GetWorkoutPlan)
			trainerApiGroup.POST("/workout-plans/:planId/edits", planHandler.EditWorkoutPlan)
			trainerApiGroup.PATCH("/workout-plans/:planId/active", planHandler.SetWorkoutPlanActive)

			// --- Diet plans ---
			trainerApiGroup.POST("/students/:id/diet-plans", planHandler.CreateDietPlan)
			trainerApiGroup.GET("/students/:id/diet-plans", planHandler.GetDietPlans)
			trainerApiGroup.GET("/diet-plans/:planId", planHandler.GetDietPlan)
			trainerApiGroup.POST("/diet-plans/:planId/edits", planHandler.EditDietPlan)
			trainerApiGroup.PATCH("/diet-plans/:planId/active", planHandler.SetDietPlanActive)

			// --- Reports ---
			trainerApiGroup.GET("/reports", reportHandler.GetReports)
			trainerApiGroup.POST("/reports/archive", reportHandler.ArchiveReport)
		}

		adminGroup := protected.Group("/admin")
		adminGroup.Use(RoleMiddleware(domain.RoleAdmin))
		{
			adminGroup.GET("/trainers", authHandler.ListTrainers)
			adminGroup.POST("/trainers", authHandler.CreateTrainer)
		}
	}
}
