package appointment

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clinicore/scheduling-api/internal/handler"
	"github.com/clinicore/scheduling-api/internal/model"
	"github.com/clinicore/scheduling-api/internal/repository"
	"github.com/clinicore/scheduling-api/internal/service/scheduling"
)

type Handler struct {
	service *scheduling.Service
}

func NewHandler(service *scheduling.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments")
	{
		appointments.GET("/availability", h.GetAvailability)
		appointments.POST("", h.BookAppointment)
		appointments.GET("", h.ListAppointments)
		appointments.GET("/:id", h.GetAppointment)
		appointments.PUT("/:id", h.UpdateAppointment)
		appointments.DELETE("/:id", h.DeleteAppointment)
	}
}

// statusFor maps a scheduling error code to the HTTP status of the
// response envelope. The code itself is the contract; the status is a
// transport convenience.
func statusFor(code scheduling.ErrorCode) int {
	switch code {
	case scheduling.ErrCodeAppointmentNotFound, scheduling.ErrCodeServiceNotFound:
		return http.StatusNotFound
	case scheduling.ErrCodeAppointmentConflict:
		return http.StatusConflict
	case scheduling.ErrCodeUnexpected:
		return http.StatusInternalServerError
	default:
		return http.StatusUnprocessableEntity
	}
}

func writeResult(c *gin.Context, result *scheduling.Result, successStatus int) {
	if result.Success {
		c.JSON(successStatus, handler.NewSuccessResponse(result))
		return
	}
	c.JSON(statusFor(result.ErrorCode), handler.NewResultResponse(result))
}

func (h *Handler) BookAppointment(c *gin.Context) {
	var req model.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	result := h.service.Book(c.Request.Context(), &req)
	writeResult(c, result, http.StatusCreated)
}

func (h *Handler) GetAppointment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	apt, err := h.service.Get(c.Request.Context(), id)
	if err == repository.ErrNotFound {
		c.JSON(http.StatusNotFound, handler.NewErrorResponse("appointment not found"))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(apt))
}

func (h *Handler) ListAppointments(c *gin.Context) {
	var filters model.AppointmentFilters

	if v := c.Query("clinic_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid clinic ID"))
			return
		}
		filters.ClinicID = id
	}
	if v := c.Query("professional_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid professional ID"))
			return
		}
		filters.ProfessionalID = id
	}
	if v := c.Query("patient_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid patient ID"))
			return
		}
		filters.PatientID = id
	}
	if v := c.Query("status"); v != "" {
		status := model.AppointmentStatus(v)
		if !model.ValidStatus(status) {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid status"))
			return
		}
		filters.Status = status
	}
	if v := c.Query("start_date"); v != "" {
		date, err := time.Parse("2006-01-02", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid start_date, expected YYYY-MM-DD"))
			return
		}
		filters.StartDate = date
	}
	if v := c.Query("end_date"); v != "" {
		date, err := time.Parse("2006-01-02", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid end_date, expected YYYY-MM-DD"))
			return
		}
		filters.EndDate = date
	}

	appointments, err := h.service.List(c.Request.Context(), &filters)
	if err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(appointments))
}

func (h *Handler) UpdateAppointment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	var req model.UpdateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	result := h.service.Update(c.Request.Context(), id, &req)
	writeResult(c, result, http.StatusOK)
}

func (h *Handler) DeleteAppointment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	var req model.DeleteAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	result := h.service.Delete(c.Request.Context(), id, &req)
	writeResult(c, result, http.StatusOK)
}

// GetAvailability enumerates candidate slots for one professional on
// one calendar date. Duration is optional and defaults to the
// configured slot duration.
func (h *Handler) GetAvailability(c *gin.Context) {
	professionalID, err := uuid.Parse(c.Query("professional_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid professional ID"))
		return
	}

	date, err := time.ParseInLocation("2006-01-02", c.Query("date"), time.Local)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid date, expected YYYY-MM-DD"))
		return
	}

	var duration time.Duration
	if v := c.Query("duration_minutes"); v != "" {
		minutes, err := time.ParseDuration(v + "m")
		if err != nil || minutes <= 0 {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid duration_minutes"))
			return
		}
		duration = minutes
	}

	slots, err := h.service.AvailableSlots(c.Request.Context(), professionalID, date, duration)
	if err == repository.ErrNotFound {
		c.JSON(http.StatusNotFound, handler.NewErrorResponse("professional not found"))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(slots))
}
