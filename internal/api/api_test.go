package api_test

import (
	"alcyxob/coach-app/internal/api"
	"alcyxob/coach-app/internal/composer"
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/ledger"
	"alcyxob/coach-app/internal/metrics"
	"alcyxob/coach-app/internal/progress"
	"alcyxob/coach-app/internal/repository/memory"
	"alcyxob/coach-app/internal/service"
	"alcyxob/coach-app/internal/storage"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := api.RegisterValidators(); err != nil {
		panic(err)
	}
	goleak.VerifyTestMain(m)
}

type testServer struct {
	router   *gin.Engine
	store    *memory.Store
	auth     service.AuthService
	category domain.Category
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.NewStore()
	metricsManager, reg := metrics.NewTestManagerAndRegistry()

	workout := composer.WorkoutRepos{Tx: store, Plans: store.WorkoutPlans(), Sessions: store.WorkoutSessions(), Exercises: store.WorkoutExercises()}
	diet := composer.DietRepos{Tx: store, Plans: store.DietPlans(), Meals: store.Meals(), Foods: store.MealFoods()}
	l := ledger.New(ledger.Repos{
		Students:         store.Students(),
		Completions:      store.Completions(),
		WorkoutPlans:     store.WorkoutPlans(),
		WorkoutSessions:  store.WorkoutSessions(),
		WorkoutExercises: store.WorkoutExercises(),
		DietPlans:        store.DietPlans(),
		Meals:            store.Meals(),
	}, time.UTC)
	aggregator := progress.New(progress.Repos{
		Users:            store.Users(),
		Students:         store.Students(),
		WorkoutPlans:     store.WorkoutPlans(),
		WorkoutSessions:  store.WorkoutSessions(),
		WorkoutExercises: store.WorkoutExercises(),
	}, l)

	auth := service.NewAuthService(store.Users(), "test-secret", time.Hour)
	services := api.Services{
		Auth:     auth,
		Students: service.NewStudentService(store.Students(), "https://app.test"),
		Catalog:  service.NewCatalogService(store.Catalog()),
		Plans:    service.NewPlanService(workout, diet, store.Students(), store.Catalog(), metricsManager),
		Portal:   service.NewPortalService(store.Students(), workout, diet, store.Catalog(), l, metricsManager),
		Reports:  service.NewReportService(aggregator, storage.NewMemoryStorage("https://files.test"), time.Minute, metricsManager),
	}

	router := gin.New()
	api.SetupRoutes(router, services, metricsManager, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	category := domain.Category{Name: "Legs"}
	_, err := store.Catalog().CreateCategory(context.Background(), &category)
	require.NoError(t, err)

	return &testServer{router: router, store: store, auth: auth, category: category}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func mustObjectID(t *testing.T, hex string) primitive.ObjectID {
	t.Helper()
	id, err := primitive.ObjectIDFromHex(hex)
	require.NoError(t, err)
	return id
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

// trainerToken registers a trainer through the API and logs in.
func (s *testServer) trainerToken(t *testing.T, email string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{"name": "Carla", "email": email, "password": "password123", "cref": "012345-G/SP"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": email, "password": "password123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[api.LoginResponse](t, w).Token
}

func (s *testServer) createStudent(t *testing.T, token, name string) api.StudentResponse {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/trainer/students", token, gin.H{"name": name, "email": "student@example.com"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[api.StudentResponse](t, w)
}

func (s *testServer) createExercise(t *testing.T, token string) api.ExerciseResponse {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/trainer/exercises", token, gin.H{"categoryId": s.category.ID.Hex(), "name": "Squat"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[api.ExerciseResponse](t, w)
}

func TestAuthRoutes(t *testing.T) {
	s := newTestServer(t)
	token := s.trainerToken(t, "carla@example.com")

	w := s.do(t, http.MethodGet, "/api/v1/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "trainer", decode[map[string]string](t, w)["role"])

	w = s.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{"name": "Carla", "email": "carla@example.com", "password": "password123"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "carla@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{"name": "X", "email": "not-an-email", "password": "password123"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/trainer/students", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = s.do(t, http.MethodGet, "/api/v1/trainer/students", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminRoutes(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t)
	trainerToken := s.trainerToken(t, "carla@example.com")

	w := s.do(t, http.MethodGet, "/api/v1/admin/trainers", trainerToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	_, err := s.auth.Register(ctx, service.RegisterInput{Name: "Root", Email: "root@example.com", Password: "password123"}, domain.RoleAdmin)
	require.NoError(t, err)
	adminToken, _, err := s.auth.Login(ctx, "root@example.com", "password123")
	require.NoError(t, err)

	w = s.do(t, http.MethodPost, "/api/v1/admin/trainers", adminToken, gin.H{"name": "Davi", "email": "davi@example.com", "password": "password123"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/v1/admin/trainers", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	trainers := decode[[]api.UserResponse](t, w)
	assert.Len(t, trainers, 2)

	// admins may use trainer routes too
	w = s.do(t, http.MethodGet, "/api/v1/trainer/students", adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStudentRoutes(t *testing.T) {
	s := newTestServer(t)
	token := s.trainerToken(t, "carla@example.com")
	student := s.createStudent(t, token, "Bruno")
	assert.True(t, student.Active)
	assert.Contains(t, student.PortalLink, "https://app.test/portal/")

	w := s.do(t, http.MethodPost, "/api/v1/trainer/students", token, gin.H{"name": "X", "timeZone": "Mars/Base"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/trainer/students/"+student.ID+"/token", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	rotated := decode[api.StudentResponse](t, w)
	assert.NotEqual(t, student.PortalLink, rotated.PortalLink)

	w = s.do(t, http.MethodPatch, "/api/v1/trainer/students/"+student.ID+"/active", token, gin.H{"active": false})
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[api.StudentResponse](t, w).Active)

	w = s.do(t, http.MethodPatch, "/api/v1/trainer/students/"+student.ID+"/active", token, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	other := s.trainerToken(t, "other@example.com")
	w = s.do(t, http.MethodPost, "/api/v1/trainer/students/"+student.ID+"/token", other, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.do(t, http.MethodPost, "/api/v1/trainer/students/not-an-id/token", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWorkoutPlanRoutes(t *testing.T) {
	s := newTestServer(t)
	token := s.trainerToken(t, "carla@example.com")
	student := s.createStudent(t, token, "Bruno")
	exercise := s.createExercise(t, token)

	w := s.do(t, http.MethodPost, "/api/v1/trainer/students/"+student.ID+"/workout-plans", token, gin.H{
		"name": "Strength",
		"operations": []gin.H{
			{"op": "addSession", "day": 9},
		},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, "weekday validator")

	w = s.do(t, http.MethodPost, "/api/v1/trainer/students/"+student.ID+"/workout-plans", token, gin.H{
		"name": "Strength",
		"operations": []gin.H{
			{"op": "addSession", "day": 1},
			{"op": "addSession", "day": 1},
		},
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/trainer/students/"+student.ID+"/workout-plans", token, gin.H{"name": "Empty"})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.NotEmpty(t, decode[map[string]any](t, w)["problems"])

	w = s.do(t, http.MethodPost, "/api/v1/trainer/students/"+student.ID+"/workout-plans", token, gin.H{
		"name": "Strength",
		"operations": []gin.H{
			{"op": "addSession", "day": 1, "name": "Lower"},
			{"op": "addItem", "day": 1, "exerciseId": exercise.ID},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	plan := decode[api.WorkoutPlanResponse](t, w)
	require.Len(t, plan.Sessions, 1)
	require.Len(t, plan.Sessions[0].Items, 1)
	assert.Equal(t, "Squat", plan.Sessions[0].Items[0].ExerciseName)
	assert.Equal(t, domain.DefaultRepsMax, plan.Sessions[0].Items[0].RepsMax)

	w = s.do(t, http.MethodPost, "/api/v1/trainer/workout-plans/"+plan.ID+"/edits", token, gin.H{
		"operations": []gin.H{
			{"op": "updateItem", "day": 1, "index": 0, "field": "repsMax", "value": 15},
			{"op": "updateItem", "day": 1, "index": 0, "field": "notes", "value": "slow eccentric"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	edited := decode[api.WorkoutPlanResponse](t, w)
	assert.Equal(t, 15, edited.Sessions[0].Items[0].RepsMax)
	assert.Equal(t, plan.Sessions[0].Items[0].ID, edited.Sessions[0].Items[0].ID)

	w = s.do(t, http.MethodPost, "/api/v1/trainer/workout-plans/"+plan.ID+"/edits", token, gin.H{
		"operations": []gin.H{{"op": "updateItem", "day": 1, "index": 0, "field": "weight", "value": 1}},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/trainer/students/"+student.ID+"/workout-plans", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]api.WorkoutPlanResponse](t, w), 1)

	w = s.do(t, http.MethodPatch, "/api/v1/trainer/workout-plans/"+plan.ID+"/active", token, gin.H{"active": false})
	assert.Equal(t, http.StatusNoContent, w.Code)

	other := s.trainerToken(t, "other@example.com")
	w = s.do(t, http.MethodGet, "/api/v1/trainer/workout-plans/"+plan.ID, other, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDietPlanRoutes(t *testing.T) {
	s := newTestServer(t)
	token := s.trainerToken(t, "carla@example.com")
	student := s.createStudent(t, token, "Bruno")

	w := s.do(t, http.MethodPost, "/api/v1/trainer/students/"+student.ID+"/diet-plans", token, gin.H{
		"name":       "Cut",
		"operations": []gin.H{{"op": "addMeal", "time": "25:00"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, "hhmm validator")

	w = s.do(t, http.MethodPost, "/api/v1/trainer/students/"+student.ID+"/diet-plans", token, gin.H{
		"name":          "Cut",
		"dailyCalories": 2000,
		"operations": []gin.H{
			{"op": "addMeal", "time": "08:00", "name": "Breakfast"},
			{"op": "addItem", "time": "08:00", "food": gin.H{"foodName": "Eggs", "quantity": 2, "unit": "un", "calories": 140, "protein": 12}},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	plan := decode[api.DietPlanResponse](t, w)
	require.Len(t, plan.Meals, 1)
	assert.Equal(t, 140.0, plan.Totals.Calories)

	w = s.do(t, http.MethodGet, "/api/v1/trainer/diet-plans/"+plan.ID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Eggs", decode[api.DietPlanResponse](t, w).Meals[0].Foods[0].FoodName)
}

func TestPortalAndReports(t *testing.T) {
	s := newTestServer(t)
	token := s.trainerToken(t, "carla@example.com")
	student := s.createStudent(t, token, "Bruno")
	exercise := s.createExercise(t, token)
	today := int(time.Now().UTC().Weekday())

	w := s.do(t, http.MethodPost, "/api/v1/trainer/students/"+student.ID+"/workout-plans", token, gin.H{
		"name": "Strength",
		"operations": []gin.H{
			{"op": "addSession", "day": today},
			{"op": "addItem", "day": today, "exerciseId": exercise.ID},
			{"op": "addItem", "day": today, "exerciseId": exercise.ID},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	plan := decode[api.WorkoutPlanResponse](t, w)
	itemID := plan.Sessions[0].Items[0].ID

	stored, err := s.store.Students().GetByID(context.Background(), mustObjectID(t, student.ID))
	require.NoError(t, err)
	portal := "/api/v1/portal/" + stored.AccessToken

	w = s.do(t, http.MethodPost, portal+"/completions", "", gin.H{"kind": "exercise", "itemId": itemID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, portal+"/completions", "", gin.H{"kind": "stretch", "itemId": itemID})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(t, http.MethodPost, portal+"/completions", "", gin.H{"kind": "exercise", "itemId": exercise.ID})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, portal+"/workout", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[api.PortalWorkoutResponse](t, w)
	assert.Equal(t, 1, page.DoneToday)
	require.Len(t, page.Plans, 1)
	assert.True(t, page.Plans[0].Sessions[0].Today)
	assert.True(t, page.Plans[0].Sessions[0].Items[0].Done)
	assert.False(t, page.Plans[0].Sessions[0].Items[1].Done)

	w = s.do(t, http.MethodGet, portal+"/completions/"+itemID, "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, decode[api.ItemStatusResponse](t, w).DoneToday)
	w = s.do(t, http.MethodGet, portal+"/completions/"+plan.Sessions[0].Items[1].ID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[api.ItemStatusResponse](t, w).DoneToday)
	w = s.do(t, http.MethodGet, portal+"/completions/not-an-id", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/trainer/reports?studentId="+student.ID, token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	reports := decode[[]domain.Report](t, w)
	require.Len(t, reports, 1)
	assert.Equal(t, 50.0, reports[0].CompletionRate)
	assert.Equal(t, domain.BandNeedsAttention, reports[0].Band)

	w = s.do(t, http.MethodGet, "/api/v1/trainer/reports?from=2024-02-10&to=2024-02-01", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/trainer/reports/archive", token, gin.H{"studentId": student.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	archive := decode[api.ArchiveReportResponse](t, w)
	assert.Contains(t, archive.DownloadURL, "https://files.test/reports/")
	assert.Equal(t, 60, archive.ExpiresInSeconds)

	// deactivating the student revokes the link without leaking anything
	w = s.do(t, http.MethodPatch, "/api/v1/trainer/students/"+student.ID+"/active", token, gin.H{"active": false})
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodGet, portal+"/workout", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/v1/portal/unknown/diet", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "coach_test_server_completions_total")
}
