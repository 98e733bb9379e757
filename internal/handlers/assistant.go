package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"influencer-hub-backend/internal/assistant"
	"influencer-hub-backend/internal/models"
)

type AssistantHandler struct {
	service        *assistant.Service
	maxUploadBytes int64
}

func NewAssistantHandler(service *assistant.Service, maxUploadBytes int64) *AssistantHandler {
	return &AssistantHandler{service: service, maxUploadBytes: maxUploadBytes}
}

// Chat godoc
// @Summary     Ask the help assistant
// @Description Answers from the FAQ list when the message matches a known question, otherwise from the language model.
// @Tags        assistant
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.AssistantChatRequest true "Message"
// @Success     200 {object} models.AssistantReply
// @Failure     400 {object} models.ErrorResponse
// @Failure     502 {object} models.ErrorResponse
// @Failure     503 {object} models.ErrorResponse
// @Router      /assistant/chat [post]
func (h *AssistantHandler) Chat(c *gin.Context) {
	if _, ok := requireSession(c); !ok {
		return
	}

	var req models.AssistantChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "no message provided", err)
		return
	}

	reply, err := h.service.Reply(c.Request.Context(), req.Message)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

// Classify godoc
// @Summary     Suggest a niche for a product image
// @Description Classifies the uploaded image into one of the influencer niche categories.
// @Tags        assistant
// @Accept      mpfd
// @Produce     json
// @Security    Bearer
// @Param       image formData file true "Product image"
// @Success     200 {object} models.Classification
// @Failure     400 {object} models.ErrorResponse
// @Failure     502 {object} models.ErrorResponse
// @Failure     503 {object} models.ErrorResponse
// @Router      /influencers/classify [post]
func (h *AssistantHandler) Classify(c *gin.Context) {
	if _, ok := requireSession(c); !ok {
		return
	}

	image, err := formFile(c, "image", h.maxUploadBytes)
	if err != nil {
		respondError(c, err)
		return
	}
	if image == nil {
		badRequest(c, "no image uploaded", nil)
		return
	}

	result, err := h.service.Classify(c.Request.Context(), *image)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
