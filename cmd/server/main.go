package main

import (
	"alcyxob/coach-app/internal/api"
	"alcyxob/coach-app/internal/composer"
	"alcyxob/coach-app/internal/config"
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/ledger"
	"alcyxob/coach-app/internal/logging"
	"alcyxob/coach-app/internal/metrics"
	"alcyxob/coach-app/internal/progress"
	"alcyxob/coach-app/internal/repository"
	"alcyxob/coach-app/internal/repository/memory"
	"alcyxob/coach-app/internal/repository/mongo"
	"alcyxob/coach-app/internal/service"
	"alcyxob/coach-app/internal/storage"
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// catalogStore is a catalog repository that can also create categories.
type catalogStore interface {
	repository.CatalogRepository
	CreateCategory(ctx context.Context, category *domain.Category) (primitive.ObjectID, error)
}

// repos bundles one storage backend.
type repos struct {
	tx               repository.TxManager
	users            repository.UserRepository
	students         repository.StudentRepository
	catalog          catalogStore
	workoutPlans     repository.WorkoutPlanRepository
	workoutSessions  repository.WorkoutSessionRepository
	workoutExercises repository.WorkoutExerciseRepository
	dietPlans        repository.DietPlanRepository
	meals            repository.MealRepository
	mealFoods        repository.MealFoodRepository
	completions      repository.CompletionRepository
}

var defaultCategories = []string{"Chest", "Back", "Legs", "Shoulders", "Arms", "Core", "Cardio", "Mobility"}

// @title Coach API
// @version 1.0
// @description Trainers compose weekly workout and diet plans; students follow them through a private link.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}

	logCloser := logging.Setup(logging.LoggerSetupParams{
		LogFileName:   cfg.Log.File,
		LogToStdout:   cfg.Log.Stdout,
		LogLevel:      cfg.Log.Level,
		LogFormatJSON: cfg.Log.JSON,
	})
	defer logCloser.Close()

	if cfg.JWT.Secret == "" {
		log.Fatal("jwt.secret (JWT_SECRET) must be set")
	}
	defaultLoc, err := cfg.App.Location()
	if err != nil {
		log.Fatalf("invalid app.default_timezone %q: %v", cfg.App.DefaultTimezone, err)
	}

	var r repos
	switch cfg.Database.Driver {
	case "memory":
		log.Warn("using the in-memory store; data is lost on restart")
		r = memoryRepos(memory.NewStore())
	case "mongo":
		dbClient, err := mongo.ConnectDB(cfg.Database.URI)
		if err != nil {
			log.Fatalf("could not connect to MongoDB: %v", err)
		}
		defer func() {
			log.Info("disconnecting MongoDB")
			if err := mongo.DisconnectDB(dbClient); err != nil {
				log.Errorf("failed to disconnect MongoDB: %v", err)
			}
		}()
		appDB := dbClient.Database(cfg.Database.Name)

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		err = mongo.EnsureIndexes(ctx, appDB)
		cancel()
		if err != nil {
			log.Fatalf("could not create indexes: %v", err)
		}

		r = repos{
			tx:               mongo.NewTxManager(dbClient),
			users:            mongo.NewMongoUserRepository(appDB),
			students:         mongo.NewMongoStudentRepository(appDB),
			catalog:          mongo.NewMongoCatalogRepository(appDB),
			workoutPlans:     mongo.NewMongoWorkoutPlanRepository(appDB),
			workoutSessions:  mongo.NewMongoWorkoutSessionRepository(appDB),
			workoutExercises: mongo.NewMongoWorkoutExerciseRepository(appDB),
			dietPlans:        mongo.NewMongoDietPlanRepository(appDB),
			meals:            mongo.NewMongoMealRepository(appDB),
			mealFoods:        mongo.NewMongoMealFoodRepository(appDB),
			completions:      mongo.NewMongoCompletionRepository(appDB),
		}
	default:
		log.Fatalf("unknown database.driver %q", cfg.Database.Driver)
	}
	log.WithFields(log.Fields{"driver": cfg.Database.Driver, "database": cfg.Database.Name}).Info("storage ready")

	if err := seedCatalog(context.Background(), r.catalog); err != nil {
		log.Fatalf("could not seed the exercise catalog: %v", err)
	}

	var fileStorage storage.FileStorage
	if cfg.S3.Enabled() {
		fileStorage, err = storage.NewS3Storage(context.Background(), cfg.S3)
		if err != nil {
			log.Fatalf("failed to initialize S3 storage: %v", err)
		}
		log.WithField("bucket", cfg.S3.BucketName).Info("report archiving enabled")
	} else {
		log.Info("s3.bucket_name not set, report archiving disabled")
	}

	var (
		metricsManager *metrics.Manager
		metricsHandler http.Handler
	)
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metricsManager = metrics.NewManager("coach", "server", reg)
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	workoutRepos := composer.WorkoutRepos{Tx: r.tx, Plans: r.workoutPlans, Sessions: r.workoutSessions, Exercises: r.workoutExercises}
	dietRepos := composer.DietRepos{Tx: r.tx, Plans: r.dietPlans, Meals: r.meals, Foods: r.mealFoods}
	completionLedger := ledger.New(ledger.Repos{
		Students:         r.students,
		Completions:      r.completions,
		WorkoutPlans:     r.workoutPlans,
		WorkoutSessions:  r.workoutSessions,
		WorkoutExercises: r.workoutExercises,
		DietPlans:        r.dietPlans,
		Meals:            r.meals,
	}, defaultLoc)
	aggregator := progress.New(progress.Repos{
		Users:            r.users,
		Students:         r.students,
		WorkoutPlans:     r.workoutPlans,
		WorkoutSessions:  r.workoutSessions,
		WorkoutExercises: r.workoutExercises,
	}, completionLedger)

	services := api.Services{
		Auth:     service.NewAuthService(r.users, cfg.JWT.Secret, cfg.JWT.Expiration),
		Students: service.NewStudentService(r.students, cfg.App.PublicBaseURL),
		Catalog:  service.NewCatalogService(r.catalog),
		Plans:    service.NewPlanService(workoutRepos, dietRepos, r.students, r.catalog, metricsManager),
		Portal:   service.NewPortalService(r.students, workoutRepos, dietRepos, r.catalog, completionLedger, metricsManager),
		Reports:  service.NewReportService(aggregator, fileStorage, cfg.S3.PresignExpiry, metricsManager),
	}

	if log.GetLevel() < log.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := api.RegisterValidators(); err != nil {
		log.Fatalf("could not register validators: %v", err)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	api.SetupRoutes(router, services, metricsManager, metricsHandler)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Infof("server starting on %s", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Errorf("server forced to shutdown: %v", err)
	}
	log.Info("server exiting")
}

func memoryRepos(store *memory.Store) repos {
	return repos{
		tx:               store,
		users:            store.Users(),
		students:         store.Students(),
		catalog:          store.Catalog(),
		workoutPlans:     store.WorkoutPlans(),
		workoutSessions:  store.WorkoutSessions(),
		workoutExercises: store.WorkoutExercises(),
		dietPlans:        store.DietPlans(),
		meals:            store.Meals(),
		mealFoods:        store.MealFoods(),
		completions:      store.Completions(),
	}
}

// seedCatalog creates the global categories on an empty catalog.
func seedCatalog(ctx context.Context, catalog catalogStore) error {
	existing, err := catalog.ListCategories(ctx, primitive.NilObjectID)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	for _, name := range defaultCategories {
		if _, err := catalog.CreateCategory(ctx, &domain.Category{Name: name}); err != nil {
			return err
		}
	}
	log.WithField("count", len(defaultCategories)).Info("seeded global exercise categories")
	return nil
}
