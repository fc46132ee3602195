package conversation

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/virtualclinic/api/internal/domain/prompt"
	"github.com/virtualclinic/api/internal/platform/apierror"
	"github.com/virtualclinic/api/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/conversations", h.ListConversations)
	api.POST("/conversations", h.CreateConversation)
	api.GET("/conversations/:id", h.GetConversation)
	api.POST("/conversations/:id/messages", h.SendMessage)
}

// ListConversations supports ?patientId and ?taskType filters. An
// unrecognized taskType is ignored rather than rejected.
func (h *Handler) ListConversations(c echo.Context) error {
	var f ListFilter
	if raw := c.QueryParam("patientId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return apierror.Validation("patientId", "patientId must be a valid UUID")
		}
		f.PatientID = &id
	}
	if t := prompt.TaskType(c.QueryParam("taskType")); t.Valid() {
		f.TaskType = t
	}

	p := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), f, p)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list conversations").SetInternal(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, p, total))
}

func (h *Handler) CreateConversation(c echo.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return apierror.BindError(err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	patientID := uuid.MustParse(req.PatientID)
	created, err := h.svc.Create(c.Request().Context(), patientID, prompt.TaskType(req.TaskType), req.Metadata)
	if err != nil {
		var nf *NotFoundError
		if errors.As(err, &nf) {
			return echo.NewHTTPError(http.StatusNotFound, nf.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create conversation").SetInternal(err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{"data": created})
}

func (h *Handler) GetConversation(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apierror.Validation("id", "Invalid conversation id")
	}
	detail, err := h.svc.Get(c.Request().Context(), id)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Conversation not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch conversation").SetInternal(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"data": detail})
}

func (h *Handler) SendMessage(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apierror.Validation("id", "Invalid conversation id")
	}

	var req SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return apierror.BindError(err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	reply, err := h.svc.SendMessage(c.Request().Context(), id, req.Content)
	if err != nil {
		var nf *NotFoundError
		if errors.As(err, &nf) {
			return echo.NewHTTPError(http.StatusNotFound, nf.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to send message").SetInternal(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"data": reply})
}
