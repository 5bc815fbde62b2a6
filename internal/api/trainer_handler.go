// internal/api/trainer_handler.go
package api

import (
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/service"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// TrainerHandler serves the trainer's student roster.
type TrainerHandler struct {
	studentService service.StudentService
}

func NewTrainerHandler(studentService service.StudentService) *TrainerHandler {
	return &TrainerHandler{studentService: studentService}
}

// --- DTOs for Student Management ---

type CreateStudentRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"omitempty,email"`
	Phone    string `json:"phone"`
	TimeZone string `json:"timeZone" binding:"omitempty,timezone"`
}

type SetActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

type StudentResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	Active     bool      `json:"active"`
	TimeZone   string    `json:"timeZone,omitempty"`
	PortalLink string    `json:"portalLink"`
	CreatedAt  time.Time `json:"createdAt"`
}

// CreateStudent godoc
// @Summary Add a student to the trainer's roster
// @Description Creates a student with a fresh access link.
// @Tags Trainer
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param student body CreateStudentRequest true "Student details"
// @Success 201 {object} StudentResponse
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /trainer/students [post]
func (h *TrainerHandler) CreateStudent(c *gin.Context) {
	var req CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}

	student, err := h.studentService.CreateStudent(c.Request.Context(), trainerID, service.StudentInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		TimeZone: req.TimeZone,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.MapStudentToResponse(student))
}

// GetStudents godoc
// @Summary List the trainer's students
// @Tags Trainer
// @Produce json
// @Security BearerAuth
// @Param active query bool false "Only active students"
// @Success 200 {array} StudentResponse
// @Router /trainer/students [get]
func (h *TrainerHandler) GetStudents(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	students, err := h.studentService.ListStudents(c.Request.Context(), trainerID, c.Query("active") == "true")
	if err != nil {
		respondServiceError(c, err)
		return
	}

	resp := make([]StudentResponse, len(students))
	for i := range students {
		resp[i] = h.MapStudentToResponse(&students[i])
	}
	c.JSON(http.StatusOK, resp)
}

// SetStudentActive godoc
// @Summary Activate or deactivate a student
// @Description An inactive student's link stops working.
// @Tags Trainer
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Param body body SetActiveRequest true "New state"
// @Success 200 {object} StudentResponse
// @Failure 404 {object} gin.H "Student not found"
// @Router /trainer/students/{id}/active [patch]
func (h *TrainerHandler) SetStudentActive(c *gin.Context) {
	var req SetActiveRequest
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

	student, err := h.studentService.SetActive(c.Request.Context(), trainerID, studentID, *req.Active)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.MapStudentToResponse(student))
}

// RotateStudentToken godoc
// @Summary Issue a new access link
// @Description The previous link stops working immediately.
// @Tags Trainer
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} StudentResponse
// @Failure 404 {object} gin.H "Student not found"
// @Router /trainer/students/{id}/token [post]
func (h *TrainerHandler) RotateStudentToken(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	studentID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	student, err := h.studentService.RotateToken(c.Request.Context(), trainerID, studentID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.MapStudentToResponse(student))
}

// MapStudentToResponse converts a domain Student to its DTO. The raw token
// only leaves the server inside the portal link.
func (h *TrainerHandler) MapStudentToResponse(student *domain.Student) StudentResponse {
	return StudentResponse{
		ID:         student.ID.Hex(),
		Name:       student.Name,
		Email:      student.Email,
		Phone:      student.Phone,
		Active:     student.Active,
		TimeZone:   student.TimeZone,
		PortalLink: h.studentService.PortalLink(student),
		CreatedAt:  student.CreatedAt,
	}
}
