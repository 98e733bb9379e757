package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"influencer-hub-backend/internal/models"
	"influencer-hub-backend/internal/orders"
	"influencer-hub-backend/internal/session"
)

type OrdersHandler struct {
	service           *orders.Service
	countdownInterval time.Duration
	maxUploadBytes    int64
	logger            *zap.Logger
}

func NewOrdersHandler(service *orders.Service, countdownInterval time.Duration, maxUploadBytes int64, logger *zap.Logger) *OrdersHandler {
	return &OrdersHandler{
		service:           service,
		countdownInterval: countdownInterval,
		maxUploadBytes:    maxUploadBytes,
		logger:            logger,
	}
}

func countdownResponse(c *orders.Countdown) *models.CountdownResponse {
	if c == nil {
		return nil
	}
	return &models.CountdownResponse{
		Days:    c.Days,
		Hours:   c.Hours,
		Minutes: c.Minutes,
		Seconds: c.Seconds,
		Expired: c.Expired,
		Display: c.String(),
	}
}

func (h *OrdersHandler) orderResponse(order *models.Order) models.OrderResponse {
	return models.OrderResponse{
		Order:             *order,
		Countdown:         countdownResponse(h.service.CountdownFor(order)),
		UnseenSubmissions: order.UnseenSubmissions(),
		UnseenRevisions:   order.UnseenRevisions(),
	}
}

// CreateOrder godoc
// @Summary     Create an order
// @Description Creates a pending order from the calling brand to an influencer. Accepts JSON, or multipart form fields plus an optional "image" file.
// @Tags        orders
// @Accept      json,mpfd
// @Produce     json
// @Security    Bearer
// @Param       request body models.CreateOrderRequest true "Order details"
// @Success     201 {object} models.OrderResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /orders [post]
func (h *OrdersHandler) CreateOrder(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}

	var req models.CreateOrderRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}

	var image *models.FileUpload
	if isMultipart(c) {
		var err error
		if image, err = formFile(c, "image", h.maxUploadBytes); err != nil {
			respondError(c, err)
			return
		}
	}

	order, err := h.service.Create(c.Request.Context(), sess, req, image)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.orderResponse(order))
}

// ListOrders godoc
// @Summary     List orders
// @Description Lists the caller's orders as brand (default) or influencer, ordered by order number, with per-status counts.
// @Tags        orders
// @Produce     json
// @Security    Bearer
// @Param       as     query string false "brand or influencer"
// @Param       status query string false "pending, remaining, revise or completed"
// @Success     200 {object} models.OrderListResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Router      /orders [get]
func (h *OrdersHandler) ListOrders(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}

	as := models.Role(c.DefaultQuery("as", string(models.RoleBrand)))
	status := models.OrderStatus(c.Query("status"))

	list, err := h.service.List(c.Request.Context(), sess, as, status)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := models.OrderListResponse{
		Orders: make([]models.OrderResponse, 0, len(list)),
		Counts: make(map[string]int),
	}
	for i := range list {
		resp.Orders = append(resp.Orders, h.orderResponse(&list[i]))
		resp.Counts[string(list[i].Status)]++
	}
	c.JSON(http.StatusOK, resp)
}

// GetOrder godoc
// @Summary     Get an order
// @Tags        orders
// @Produce     json
// @Security    Bearer
// @Param       order_id path string true "Order ID (UUID)"
// @Success     200 {object} models.OrderResponse
// @Failure     403 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /orders/{order_id} [get]
func (h *OrdersHandler) GetOrder(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	order, err := h.service.Get(c.Request.Context(), sess, orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.orderResponse(order))
}

// StartOrder godoc
// @Summary     Start an order
// @Description The order's influencer accepts a pending order. Its deadline countdown starts now.
// @Tags        orders
// @Produce     json
// @Security    Bearer
// @Param       order_id path string true "Order ID (UUID)"
// @Success     200 {object} models.OrderResponse
// @Failure     403 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /orders/{order_id}/start [post]
func (h *OrdersHandler) StartOrder(c *gin.Context) {
	h.mutate(c, h.service.Start)
}

// CompleteOrder godoc
// @Summary     Complete an order
// @Description The order's brand accepts the deliverables. Completed is final.
// @Tags        orders
// @Produce     json
// @Security    Bearer
// @Param       order_id path string true "Order ID (UUID)"
// @Success     200 {object} models.OrderResponse
// @Failure     403 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /orders/{order_id}/complete [post]
func (h *OrdersHandler) CompleteOrder(c *gin.Context) {
	h.mutate(c, h.service.Complete)
}

// SubmitFile godoc
// @Summary     Submit a deliverable
// @Description Uploads one file to the order's submissions. The record is written only after the upload succeeds.
// @Tags        orders
// @Accept      mpfd
// @Produce     json
// @Security    Bearer
// @Param       order_id path     string true "Order ID (UUID)"
// @Param       file     formData file   true "Deliverable"
// @Success     201 {object} models.SubmissionFile
// @Failure     400 {object} models.ErrorResponse
// @Failure     403 {object} models.ErrorResponse
// @Failure     502 {object} models.ErrorResponse
// @Router      /orders/{order_id}/submissions [post]
func (h *OrdersHandler) SubmitFile(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	file, err := formFile(c, "file", h.maxUploadBytes)
	if err != nil {
		respondError(c, err)
		return
	}
	if file == nil {
		badRequest(c, "no file uploaded", nil)
		return
	}

	record, err := h.service.Submit(c.Request.Context(), sess, orderID, *file)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

// ReviseOrder godoc
// @Summary     Request a revision
// @Description The order's brand asks for changes. The order moves to revise.
// @Tags        orders
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       order_id path string                 true "Order ID (UUID)"
// @Param       request  body models.RevisionRequest true "Revision text"
// @Success     201 {object} models.Revision
// @Failure     400 {object} models.ErrorResponse
// @Failure     403 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /orders/{order_id}/revisions [post]
func (h *OrdersHandler) ReviseOrder(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	var req models.RevisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}

	revision, err := h.service.Revise(c.Request.Context(), sess, orderID, req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, revision)
}

// MarkSubmissionsSeen godoc
// @Summary     Mark submissions seen
// @Tags        orders
// @Produce     json
// @Security    Bearer
// @Param       order_id path string true "Order ID (UUID)"
// @Success     200 {object} models.SeenResponse
// @Router      /orders/{order_id}/submissions/seen [post]
func (h *OrdersHandler) MarkSubmissionsSeen(c *gin.Context) {
	h.markSeen(c, h.service.MarkSubmissionsSeen)
}

// MarkRevisionsSeen godoc
// @Summary     Mark revisions seen
// @Tags        orders
// @Produce     json
// @Security    Bearer
// @Param       order_id path string true "Order ID (UUID)"
// @Success     200 {object} models.SeenResponse
// @Router      /orders/{order_id}/revisions/seen [post]
func (h *OrdersHandler) MarkRevisionsSeen(c *gin.Context) {
	h.markSeen(c, h.service.MarkRevisionsSeen)
}

// Unseen godoc
// @Summary     Unseen badge counts
// @Description Unseen submissions on the caller's brand orders and unseen revisions on their influencer orders, keyed by order id.
// @Tags        orders
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.UnseenResponse
// @Router      /orders/unseen [get]
func (h *OrdersHandler) Unseen(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	unseen, err := h.service.Unseen(c.Request.Context(), sess)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.UnseenResponse{Unseen: unseen})
}

// Portfolio godoc
// @Summary     Influencer portfolio
// @Description Every file the influencer has submitted, newest first.
// @Tags        profiles
// @Produce     json
// @Security    Bearer
// @Param       user_id path string true "Influencer user id"
// @Success     200 {object} models.SubmissionsResponse
// @Router      /influencers/{user_id}/portfolio [get]
func (h *OrdersHandler) Portfolio(c *gin.Context) {
	files, err := h.service.Portfolio(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SubmissionsResponse{Files: files})
}

// Countdown godoc
// @Summary     Stream the deadline countdown
// @Description Server-Sent Events. Emits a "countdown" event every interval until the client disconnects or the deadline passes; the last event is the expired one.
// @Tags        orders
// @Produce     text/event-stream
// @Security    Bearer
// @Param       order_id path string true "Order ID (UUID)"
// @Success     200 {object} models.CountdownResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /orders/{order_id}/countdown [get]
func (h *OrdersHandler) Countdown(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	order, err := h.service.Get(c.Request.Context(), sess, orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	if order.StartedAt == nil || order.Status == models.StatusCompleted {
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Error:   "conflict",
			Message: "order has no running countdown",
		})
		return
	}

	startStream(c)
	err = orders.Tick(c.Request.Context(), h.service.Now, *order.StartedAt, order.DeadlineDays, h.countdownInterval,
		func(cd orders.Countdown) error {
			return sendEvent(c, "countdown", countdownResponse(&cd))
		})
	if err != nil && !errors.Is(err, context.Canceled) {
		h.logger.Warn("countdown stream ended", zap.String("order_id", orderID.String()), zap.Error(err))
	}
}

func (h *OrdersHandler) mutate(c *gin.Context, op func(context.Context, *session.Session, uuid.UUID) (*models.Order, error)) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	order, err := op(c.Request.Context(), sess, orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.orderResponse(order))
}

func (h *OrdersHandler) markSeen(c *gin.Context, op func(context.Context, *session.Session, uuid.UUID) (int, error)) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	n, err := op(c.Request.Context(), sess, orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SeenResponse{OrderID: orderID.String(), Marked: n})
}
