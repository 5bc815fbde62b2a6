// internal/api/portal_handler.go
package api

import (
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/service"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PortalHandler serves the student pages. The access token in the path is
// the only credential; unknown and revoked tokens get a bare 404.
type PortalHandler struct {
	portalService service.PortalService
	now           func() time.Time
}

func NewPortalHandler(portalService service.PortalService) *PortalHandler {
	return &PortalHandler{portalService: portalService, now: time.Now}
}

type CompletionRequest struct {
	Kind   domain.CompletionKind `json:"kind" binding:"required,oneof=exercise meal"`
	ItemID string                `json:"itemId" binding:"required,mongodb"`
}

type CompletionResponse struct {
	ID          string                `json:"id"`
	Kind        domain.CompletionKind `json:"kind"`
	ItemID      string                `json:"itemId"`
	CompletedAt time.Time             `json:"completedAt"`
}

type ItemStatusResponse struct {
	ItemID    string `json:"itemId"`
	DoneToday bool   `json:"doneToday"`
}

type PortalWorkoutResponse struct {
	StudentName string                `json:"studentName"`
	Date        string                `json:"date"`
	Today       int                   `json:"today"`
	DoneToday   int                   `json:"doneToday"`
	Plans       []WorkoutPlanResponse `json:"plans"`
}

type PortalDietResponse struct {
	StudentName string             `json:"studentName"`
	Date        string             `json:"date"`
	DoneToday   int                `json:"doneToday"`
	Plans       []DietPlanResponse `json:"plans"`
}

// GetWorkout godoc
// @Summary Today's workout for the student
// @Description Active workout plans with today's session flagged and completed items marked.
// @Tags Portal
// @Produce json
// @Param token path string true "Access token"
// @Success 200 {object} PortalWorkoutResponse
// @Failure 404 "Unknown or inactive link"
// @Router /portal/{token}/workout [get]
func (h *PortalHandler) GetWorkout(c *gin.Context) {
	workout, err := h.portalService.Workout(c.Request.Context(), c.Param("token"), h.now())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	resp := PortalWorkoutResponse{
		StudentName: workout.StudentName,
		Date:        workout.Date.Format(queryDateLayout),
		Today:       workout.Today,
		DoneToday:   workout.DoneToday,
		Plans:       make([]WorkoutPlanResponse, len(workout.Plans)),
	}
	for i := range workout.Plans {
		resp.Plans[i] = MapWorkoutViewToResponse(&workout.Plans[i])
	}
	c.JSON(http.StatusOK, resp)
}

// GetDiet godoc
// @Summary Today's diet for the student
// @Tags Portal
// @Produce json
// @Param token path string true "Access token"
// @Success 200 {object} PortalDietResponse
// @Failure 404 "Unknown or inactive link"
// @Router /portal/{token}/diet [get]
func (h *PortalHandler) GetDiet(c *gin.Context) {
	diet, err := h.portalService.Diet(c.Request.Context(), c.Param("token"), h.now())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	resp := PortalDietResponse{
		StudentName: diet.StudentName,
		Date:        diet.Date.Format(queryDateLayout),
		DoneToday:   diet.DoneToday,
		Plans:       make([]DietPlanResponse, len(diet.Plans)),
	}
	for i := range diet.Plans {
		resp.Plans[i] = MapDietViewToResponse(&diet.Plans[i])
	}
	c.JSON(http.StatusOK, resp)
}

// RecordCompletion godoc
// @Summary Mark an exercise or meal as done
// @Description Appends a completion event stamped with the current time.
// @Tags Portal
// @Accept json
// @Produce json
// @Param token path string true "Access token"
// @Param completion body CompletionRequest true "Completed item"
// @Success 201 {object} CompletionResponse
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 404 "Unknown link or item not assigned"
// @Router /portal/{token}/completions [post]
func (h *PortalHandler) RecordCompletion(c *gin.Context) {
	var req CompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	itemID, _ := primitive.ObjectIDFromHex(req.ItemID)

	event, err := h.portalService.RecordCompletion(c.Request.Context(), c.Param("token"), req.Kind, itemID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, CompletionResponse{
		ID:          event.ID.Hex(),
		Kind:        event.Kind,
		ItemID:      event.ItemID.Hex(),
		CompletedAt: event.CompletedAt,
	})
}

// GetItemStatus godoc
// @Summary Whether an item was done today
// @Tags Portal
// @Produce json
// @Param token path string true "Access token"
// @Param itemId path string true "Workout exercise or meal ID"
// @Success 200 {object} ItemStatusResponse
// @Failure 400 {object} gin.H "Invalid item ID"
// @Failure 404 "Unknown or inactive link"
// @Router /portal/{token}/completions/{itemId} [get]
func (h *PortalHandler) GetItemStatus(c *gin.Context) {
	itemID, err := primitive.ObjectIDFromHex(c.Param("itemId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid itemId format")
		return
	}
	done, err := h.portalService.ItemDoneToday(c.Request.Context(), c.Param("token"), itemID, h.now())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ItemStatusResponse{ItemID: itemID.Hex(), DoneToday: done})
}
