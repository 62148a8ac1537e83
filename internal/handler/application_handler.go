package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"podium/internal/services"
	"podium/internal/transport/httpdto"
	podium_errors "podium/pkg/errors"
)

type ApplicationHandler struct {
	service *services.ApplicationService
}

func NewApplicationHandler(service *services.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{service: service}
}

func (h *ApplicationHandler) Submit(c *gin.Context) {
	var req httpdto.SubmitApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", httpdto.CodeInvalidRequest))
		return
	}

	app, err := h.service.Apply(c.Request.Context(), services.ApplyRequest{
		ID:             req.ID,
		Title:          req.Title,
		Description:    req.Description,
		SpeakerName:    req.SpeakerName,
		SpeakerChatID:  req.SpeakerChatID,
		SpeakerEmail:   req.SpeakerEmail,
		EventStartTime: req.EventStartTime,
		EventEndTime:   req.EventEndTime,
		DurationMins:   req.DurationMins,
	})
	if err != nil {
		if errors.Is(err, podium_errors.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse(err.Error(), httpdto.CodeInvalidRequest))
			return
		}
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse(err.Error(), httpdto.CodeRequestFailed))
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewApplicationResponse(*app)))
}

func (h *ApplicationHandler) GetByID(c *gin.Context) {
	app, err := h.service.Find(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, podium_errors.ErrNotFound) {
			c.JSON(http.StatusNotFound, httpdto.NewErrorResponse("application not found", httpdto.CodeNotFound))
			return
		}
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse(err.Error(), httpdto.CodeRequestFailed))
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewApplicationResponse(app)))
}

func (h *ApplicationHandler) Prefill(c *gin.Context) {
	abstract := c.Query("abstract")
	speakerID := c.Query("speaker_id")

	prefill, err := h.service.PrefillFromAbstract(c.Request.Context(), abstract, speakerID)
	if err != nil {
		if errors.Is(err, podium_errors.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse(err.Error(), httpdto.CodeInvalidRequest))
			return
		}
		c.JSON(http.StatusBadGateway, httpdto.NewErrorResponse(err.Error(), httpdto.CodeUpstreamFailed))
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(prefill))
}
