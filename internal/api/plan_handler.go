package api

import (
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/service"
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanHandler serves workout and diet plan composition for trainers.
type PlanHandler struct {
	planService service.PlanService
}

func NewPlanHandler(planService service.PlanService) *PlanHandler {
	return &PlanHandler{planService: planService}
}

// --- Request DTOs ---

// EditOpRequest is one composer operation. Workout operations address a
// session by day (0 = Sunday), diet operations a meal by time ("HH:MM").
type EditOpRequest struct {
	Op         string              `json:"op" binding:"required"`
	Day        *int                `json:"day" binding:"omitempty,weekday"`
	Time       string              `json:"time" binding:"omitempty,hhmm"`
	Name       string              `json:"name"`
	Index      int                 `json:"index" binding:"min=0"`
	To         int                 `json:"to" binding:"min=0"`
	Field      string              `json:"field"`
	Value      any                 `json:"value"`
	ExerciseID string              `json:"exerciseId" binding:"omitempty,mongodb"`
	Food       *service.FoodInput  `json:"food"`
	Plan       *service.PlanFields `json:"plan"`
}

type EditPlanRequest struct {
	Operations []EditOpRequest `json:"operations" binding:"required,min=1,dive"`
}

type CreateWorkoutPlanRequest struct {
	Name             string          `json:"name" binding:"required"`
	Description      string          `json:"description"`
	FrequencyPerWeek int             `json:"frequencyPerWeek" binding:"min=0,max=7"`
	DurationWeeks    int             `json:"durationWeeks" binding:"min=0"`
	Operations       []EditOpRequest `json:"operations" binding:"dive"`
}

type CreateDietPlanRequest struct {
	Name          string          `json:"name" binding:"required"`
	Description   string          `json:"description"`
	DailyCalories *int            `json:"dailyCalories" binding:"omitempty,min=0"`
	DailyProtein  *float64        `json:"dailyProtein" binding:"omitempty,min=0"`
	DailyCarbs    *float64        `json:"dailyCarbs" binding:"omitempty,min=0"`
	DailyFat      *float64        `json:"dailyFat" binding:"omitempty,min=0"`
	Operations    []EditOpRequest `json:"operations" binding:"dive"`
}

func toEditOps(reqs []EditOpRequest) []service.EditOp {
	ops := make([]service.EditOp, len(reqs))
	for i, r := range reqs {
		ops[i] = service.EditOp{
			Op:         r.Op,
			Day:        r.Day,
			Time:       r.Time,
			Name:       r.Name,
			Index:      r.Index,
			To:         r.To,
			Field:      r.Field,
			Value:      r.Value,
			ExerciseID: r.ExerciseID,
			Food:       r.Food,
			Plan:       r.Plan,
		}
	}
	return ops
}

// --- Response DTOs ---

type WorkoutItemResponse struct {
	ID           string `json:"id"`
	ExerciseID   string `json:"exerciseId"`
	ExerciseName string `json:"exerciseName,omitempty"`
	VideoURL     string `json:"videoUrl,omitempty"`
	Sets         int    `json:"sets"`
	RepsMin      int    `json:"repsMin"`
	RepsMax      int    `json:"repsMax"`
	RestSeconds  int    `json:"restSeconds"`
	Notes        string `json:"notes,omitempty"`
	OrderIndex   int    `json:"orderIndex"`
	Done         bool   `json:"done"`
}

type WorkoutSessionResponse struct {
	ID        string                `json:"id"`
	DayOfWeek int                   `json:"dayOfWeek"`
	Name      string                `json:"name"`
	Today     bool                  `json:"today,omitempty"`
	Items     []WorkoutItemResponse `json:"items"`
}

type WorkoutPlanResponse struct {
	ID               string                   `json:"id"`
	StudentID        string                   `json:"studentId"`
	Name             string                   `json:"name"`
	Description      string                   `json:"description,omitempty"`
	Active           bool                     `json:"active"`
	FrequencyPerWeek int                      `json:"frequencyPerWeek"`
	DurationWeeks    int                      `json:"durationWeeks"`
	CreatedAt        time.Time                `json:"createdAt"`
	Sessions         []WorkoutSessionResponse `json:"sessions,omitempty"`
}

type MealResponse struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	TimeOfDay  string            `json:"timeOfDay"`
	OrderIndex int               `json:"orderIndex"`
	Done       bool              `json:"done"`
	Foods      []domain.MealFood `json:"foods"`
	Totals     domain.Macros     `json:"totals"`
}

type DietPlanResponse struct {
	ID            string         `json:"id"`
	StudentID     string         `json:"studentId"`
	Name          string         `json:"name"`
	Description   string         `json:"description,omitempty"`
	Active        bool           `json:"active"`
	DailyCalories *int           `json:"dailyCalories,omitempty"`
	DailyProtein  *float64       `json:"dailyProtein,omitempty"`
	DailyCarbs    *float64       `json:"dailyCarbs,omitempty"`
	DailyFat      *float64       `json:"dailyFat,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	Meals         []MealResponse `json:"meals,omitempty"`
	Totals        *domain.Macros `json:"totals,omitempty"`
}

// MapWorkoutPlanToResponse converts a plan without its tree.
func MapWorkoutPlanToResponse(p *domain.WorkoutPlan) WorkoutPlanResponse {
	return WorkoutPlanResponse{
		ID:               p.ID.Hex(),
		StudentID:        p.StudentID.Hex(),
		Name:             p.Name,
		Description:      p.Description,
		Active:           p.Active,
		FrequencyPerWeek: p.FrequencyPerWeek,
		DurationWeeks:    p.DurationWeeks,
		CreatedAt:        p.CreatedAt,
	}
}

func MapWorkoutViewToResponse(v *service.WorkoutPlanView) WorkoutPlanResponse {
	resp := MapWorkoutPlanToResponse(&v.Plan)
	resp.Sessions = make([]WorkoutSessionResponse, len(v.Sessions))
	for i, s := range v.Sessions {
		sr := WorkoutSessionResponse{
			ID:        s.ID.Hex(),
			DayOfWeek: s.DayOfWeek,
			Name:      s.Name,
			Today:     s.Today,
			Items:     make([]WorkoutItemResponse, len(s.Items)),
		}
		for j, item := range s.Items {
			ir := WorkoutItemResponse{
				ID:          item.ID.Hex(),
				ExerciseID:  item.ExerciseID.Hex(),
				Sets:        item.Sets,
				RepsMin:     item.RepsMin,
				RepsMax:     item.RepsMax,
				RestSeconds: item.RestSeconds,
				Notes:       item.Notes,
				OrderIndex:  item.OrderIndex,
				Done:        item.Done,
			}
			if item.Exercise != nil {
				ir.ExerciseName = item.Exercise.Name
				ir.VideoURL = item.Exercise.VideoURL
			}
			sr.Items[j] = ir
		}
		resp.Sessions[i] = sr
	}
	return resp
}

func MapDietPlanToResponse(p *domain.DietPlan) DietPlanResponse {
	return DietPlanResponse{
		ID:            p.ID.Hex(),
		StudentID:     p.StudentID.Hex(),
		Name:          p.Name,
		Description:   p.Description,
		Active:        p.Active,
		DailyCalories: p.DailyCalories,
		DailyProtein:  p.DailyProtein,
		DailyCarbs:    p.DailyCarbs,
		DailyFat:      p.DailyFat,
		CreatedAt:     p.CreatedAt,
	}
}

func MapDietViewToResponse(v *service.DietPlanView) DietPlanResponse {
	resp := MapDietPlanToResponse(&v.Plan)
	totals := v.Totals
	resp.Totals = &totals
	resp.Meals = make([]MealResponse, len(v.Meals))
	for i, m := range v.Meals {
		resp.Meals[i] = MealResponse{
			ID:         m.ID.Hex(),
			Name:       m.Name,
			TimeOfDay:  m.TimeOfDay,
			OrderIndex: m.OrderIndex,
			Done:       m.Done,
			Foods:      m.Foods,
			Totals:     m.Totals,
		}
	}
	return resp
}

// --- Workout plan handlers ---

// CreateWorkoutPlan godoc
// @Summary Create a workout plan for a student
// @Description Creates the plan and applies the given operations before saving it once.
// @Tags Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Param plan body CreateWorkoutPlanRequest true "Plan and initial operations"
// @Success 201 {object} WorkoutPlanResponse
// @Failure 400 {object} gin.H "Invalid input or operation"
// @Failure 404 {object} gin.H "Student or exercise not found"
// @Failure 409 {object} gin.H "Duplicate session day"
// @Failure 422 {object} gin.H "Plan failed validation"
// @Failure 500 {object} gin.H "Could not save the plan"
// @Router /trainer/students/{id}/workout-plans [post]
func (h *PlanHandler) CreateWorkoutPlan(c *gin.Context) {
	var req CreateWorkoutPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	studentID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	view, err := h.planService.CreateWorkoutPlan(c.Request.Context(), trainerID, studentID, service.WorkoutPlanInput{
		Name:             req.Name,
		Description:      req.Description,
		FrequencyPerWeek: req.FrequencyPerWeek,
		DurationWeeks:    req.DurationWeeks,
	}, toEditOps(req.Operations))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapWorkoutViewToResponse(view))
}

// GetWorkoutPlans godoc
// @Summary List a student's workout plans
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {array} WorkoutPlanResponse
// @Router /trainer/students/{id}/workout-plans [get]
func (h *PlanHandler) GetWorkoutPlans(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	studentID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	plans, err := h.planService.ListWorkoutPlans(c.Request.Context(), trainerID, studentID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	resp := make([]WorkoutPlanResponse, len(plans))
	for i := range plans {
		resp[i] = MapWorkoutPlanToResponse(&plans[i])
	}
	c.JSON(http.StatusOK, resp)
}

// GetWorkoutPlan godoc
// @Summary Get a workout plan with its sessions and items
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Param planId path string true "Plan ID"
// @Success 200 {object} WorkoutPlanResponse
// @Failure 404 {object} gin.H "Plan not found"
// @Router /trainer/workout-plans/{planId} [get]
func (h *PlanHandler) GetWorkoutPlan(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	planID, ok := pathObjectID(c, "planId")
	if !ok {
		return
	}
	view, err := h.planService.GetWorkoutPlan(c.Request.Context(), trainerID, planID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapWorkoutViewToResponse(view))
}

// EditWorkoutPlan godoc
// @Summary Apply edit operations to a workout plan
// @Description All operations are applied in order and saved atomically; nothing is saved if one fails.
// @Tags Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param planId path string true "Plan ID"
// @Param edits body EditPlanRequest true "Operations"
// @Success 200 {object} WorkoutPlanResponse
// @Failure 400 {object} gin.H "Invalid operation"
// @Failure 404 {object} gin.H "Plan not found"
// @Failure 409 {object} gin.H "Duplicate session day"
// @Failure 422 {object} gin.H "Plan failed validation"
// @Router /trainer/workout-plans/{planId}/edits [post]
func (h *PlanHandler) EditWorkoutPlan(c *gin.Context) {
	var req EditPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	planID, ok := pathObjectID(c, "planId")
	if !ok {
		return
	}
	view, err := h.planService.EditWorkoutPlan(c.Request.Context(), trainerID, planID, toEditOps(req.Operations))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapWorkoutViewToResponse(view))
}

// SetWorkoutPlanActive godoc
// @Summary Activate or deactivate a workout plan
// @Tags Plans
// @Accept json
// @Security BearerAuth
// @Param planId path string true "Plan ID"
// @Param body body SetActiveRequest true "New state"
// @Success 204
// @Failure 404 {object} gin.H "Plan not found"
// @Router /trainer/workout-plans/{planId}/active [patch]
func (h *PlanHandler) SetWorkoutPlanActive(c *gin.Context) {
	h.setActive(c, h.planService.SetWorkoutPlanActive)
}

// --- Diet plan handlers ---

// CreateDietPlan godoc
// @Summary Create a diet plan for a student
// @Tags Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Param plan body CreateDietPlanRequest true "Plan and initial operations"
// @Success 201 {object} DietPlanResponse
// @Router /trainer/students/{id}/diet-plans [post]
func (h *PlanHandler) CreateDietPlan(c *gin.Context) {
	var req CreateDietPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	studentID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	view, err := h.planService.CreateDietPlan(c.Request.Context(), trainerID, studentID, service.DietPlanInput{
		Name:          req.Name,
		Description:   req.Description,
		DailyCalories: req.DailyCalories,
		DailyProtein:  req.DailyProtein,
		DailyCarbs:    req.DailyCarbs,
		DailyFat:      req.DailyFat,
	}, toEditOps(req.Operations))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapDietViewToResponse(view))
}

// GetDietPlans godoc
// @Summary List a student's diet plans
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {array} DietPlanResponse
// @Router /trainer/students/{id}/diet-plans [get]
func (h *PlanHandler) GetDietPlans(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	studentID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	plans, err := h.planService.ListDietPlans(c.Request.Context(), trainerID, studentID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	resp := make([]DietPlanResponse, len(plans))
	for i := range plans {
		resp[i] = MapDietPlanToResponse(&plans[i])
	}
	c.JSON(http.StatusOK, resp)
}

// GetDietPlan godoc
// @Summary Get a diet plan with its meals
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Param planId path string true "Plan ID"
// @Success 200 {object} DietPlanResponse
// @Router /trainer/diet-plans/{planId} [get]
func (h *PlanHandler) GetDietPlan(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	planID, ok := pathObjectID(c, "planId")
	if !ok {
		return
	}
	view, err := h.planService.GetDietPlan(c.Request.Context(), trainerID, planID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapDietViewToResponse(view))
}

// EditDietPlan godoc
// @Summary Apply edit operations to a diet plan
// @Tags Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param planId path string true "Plan ID"
// @Param edits body EditPlanRequest true "Operations"
// @Success 200 {object} DietPlanResponse
// @Router /trainer/diet-plans/{planId}/edits [post]
func (h *PlanHandler) EditDietPlan(c *gin.Context) {
	var req EditPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	planID, ok := pathObjectID(c, "planId")
	if !ok {
		return
	}
	view, err := h.planService.EditDietPlan(c.Request.Context(), trainerID, planID, toEditOps(req.Operations))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapDietViewToResponse(view))
}

// SetDietPlanActive godoc
// @Summary Activate or deactivate a diet plan
// @Tags Plans
// @Accept json
// @Security BearerAuth
// @Param planId path string true "Plan ID"
// @Param body body SetActiveRequest true "New state"
// @Success 204
// @Router /trainer/diet-plans/{planId}/active [patch]
func (h *PlanHandler) SetDietPlanActive(c *gin.Context) {
	h.setActive(c, h.planService.SetDietPlanActive)
}

type setActiveFunc func(ctx context.Context, trainerID, planID primitive.ObjectID, active bool) error

func (h *PlanHandler) setActive(c *gin.Context, fn setActiveFunc) {
	var req SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	planID, ok := pathObjectID(c, "planId")
	if !ok {
		return
	}
	if err := fn(c.Request.Context(), trainerID, planID, *req.Active); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
