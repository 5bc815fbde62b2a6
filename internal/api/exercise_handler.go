package api

import (
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/service"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExerciseHandler serves the exercise catalog.
type ExerciseHandler struct {
	catalogService service.CatalogService
}

// NewExerciseHandler creates a new ExerciseHandler.
func NewExerciseHandler(catalogService service.CatalogService) *ExerciseHandler {
	return &ExerciseHandler{catalogService: catalogService}
}

// --- DTOs for API (Data Transfer Objects) ---

// CreateExerciseRequest defines the expected JSON for creating an exercise.
type CreateExerciseRequest struct {
	CategoryID  string `json:"categoryId" binding:"required,mongodb"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	MuscleGroup string `json:"muscleGroup"`
	VideoURL    string `json:"videoUrl" binding:"omitempty,url"`
}

type CategoryResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Global bool   `json:"global"`
}

// ExerciseResponse is the DTO for returning exercise details.
type ExerciseResponse struct {
	ID          string    `json:"id"`
	CategoryID  string    `json:"categoryId"`
	TrainerID   string    `json:"trainerId,omitempty"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	MuscleGroup string    `json:"muscleGroup,omitempty"`
	VideoURL    string    `json:"videoUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// MapExerciseToResponse converts a domain.Exercise to ExerciseResponse DTO.
func MapExerciseToResponse(ex *domain.Exercise) ExerciseResponse {
	if ex == nil {
		return ExerciseResponse{}
	}
	resp := ExerciseResponse{
		ID:          ex.ID.Hex(),
		CategoryID:  ex.CategoryID.Hex(),
		Name:        ex.Name,
		Description: ex.Description,
		MuscleGroup: ex.MuscleGroup,
		VideoURL:    ex.VideoURL,
		CreatedAt:   ex.CreatedAt,
	}
	if ex.TrainerID != nil {
		resp.TrainerID = ex.TrainerID.Hex()
	}
	return resp
}

// MapExercisesToResponse converts a slice of domain.Exercise to a slice of ExerciseResponse DTO.
func MapExercisesToResponse(exercises []domain.Exercise) []ExerciseResponse {
	responses := make([]ExerciseResponse, len(exercises))
	for i := range exercises {
		responses[i] = MapExerciseToResponse(&exercises[i])
	}
	return responses
}

// --- Handler Methods ---

// GetCategories godoc
// @Summary List exercise categories
// @Description Global categories plus the trainer's own.
// @Tags Exercises
// @Produce json
// @Security BearerAuth
// @Success 200 {array} CategoryResponse
// @Router /trainer/categories [get]
func (h *ExerciseHandler) GetCategories(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	categories, err := h.catalogService.ListCategories(c.Request.Context(), trainerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	resp := make([]CategoryResponse, len(categories))
	for i, cat := range categories {
		resp[i] = CategoryResponse{ID: cat.ID.Hex(), Name: cat.Name, Global: cat.TrainerID == nil}
	}
	c.JSON(http.StatusOK, resp)
}

// CreateExercise godoc
// @Summary Create a new exercise
// @Description Creates a catalog exercise owned by the authenticated trainer.
// @Tags Exercises
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param exercise body CreateExerciseRequest true "Exercise details"
// @Success 201 {object} ExerciseResponse "Exercise created successfully"
// @Failure 400 {object} gin.H "Invalid input (validation error)"
// @Failure 404 {object} gin.H "Category not found"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /trainer/exercises [post]
func (h *ExerciseHandler) CreateExercise(c *gin.Context) {
	var req CreateExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	categoryID, _ := primitive.ObjectIDFromHex(req.CategoryID)

	exercise, err := h.catalogService.CreateExercise(c.Request.Context(), trainerID, service.ExerciseInput{
		CategoryID:  categoryID,
		Name:        req.Name,
		Description: req.Description,
		MuscleGroup: req.MuscleGroup,
		VideoURL:    req.VideoURL,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapExerciseToResponse(exercise))
}

// GetExercises godoc
// @Summary List catalog exercises
// @Description Global exercises plus the trainer's own, optionally filtered by category.
// @Tags Exercises
// @Produce json
// @Security BearerAuth
// @Param categoryId query string false "Category ID"
// @Success 200 {array} ExerciseResponse "List of exercises"
// @Router /trainer/exercises [get]
func (h *ExerciseHandler) GetExercises(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	var categoryID *primitive.ObjectID
	if raw := c.Query("categoryId"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid categoryId format")
			return
		}
		categoryID = &id
	}

	exercises, err := h.catalogService.ListExercises(c.Request.Context(), trainerID, categoryID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapExercisesToResponse(exercises))
}
