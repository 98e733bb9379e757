package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"influencer-hub-backend/internal/metrics"
	"influencer-hub-backend/internal/models"
	"influencer-hub-backend/internal/session"
)

// Store persists orders and their submission and revision logs.
//
// TransitionOrder and AddRevision are compare-and-set: they only apply while
// the stored status is one of from, returning models.ErrInvalidTransition
// otherwise and models.ErrNotFound when the order does not exist.
type Store interface {
	NextOrderNumber(ctx context.Context) (int64, error)
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.Order, error)
	TransitionOrder(ctx context.Context, orderID uuid.UUID, from []models.OrderStatus, to models.OrderStatus, startedAt *time.Time) error
	AddSubmission(ctx context.Context, file *models.SubmissionFile) error
	AddRevision(ctx context.Context, revision *models.Revision, from []models.OrderStatus) error
	MarkSubmissionsSeen(ctx context.Context, orderID uuid.UUID) (int, error)
	MarkRevisionsSeen(ctx context.Context, orderID uuid.UUID) (int, error)
	ListSubmissionsByInfluencer(ctx context.Context, influencerID string) ([]models.SubmissionFile, error)
}

// Assets uploads order files to object storage and returns their public URLs.
type Assets interface {
	UploadOrderImage(ctx context.Context, orderID uuid.UUID, file models.FileUpload) (string, error)
	UploadSubmission(ctx context.Context, orderID uuid.UUID, file models.FileUpload) (publicURL string, storagePath string, err error)
}

type Publisher interface {
	PublishUserEvent(userID string, event string, payload map[string]interface{}) error
}

type Service struct {
	store  Store
	assets Assets
	events Publisher
	logger *zap.Logger
	now    func() time.Time
}

func NewService(store Store, assets Assets, events Publisher, logger *zap.Logger) *Service {
	return &Service{
		store:  store,
		assets: assets,
		events: events,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock replaces the time source. Used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Now() time.Time {
	return s.now()
}

// Create places a new pending order from the calling brand. An image that
// fails to upload is logged and the order is saved without it.
func (s *Service) Create(ctx context.Context, sess *session.Session, req models.CreateOrderRequest, image *models.FileUpload) (*models.Order, error) {
	brandID, err := session.Require(sess)
	if err != nil {
		s.logger.Warn("create order without session")
		return nil, err
	}

	influencerID := strings.TrimSpace(req.InfluencerID)
	if influencerID == "" || influencerID == brandID {
		return nil, fmt.Errorf("%w: influencer must be another user", models.ErrInvalidInput)
	}
	if req.DeadlineDays <= 0 {
		return nil, fmt.Errorf("%w: deadline must be at least one day", models.ErrInvalidInput)
	}
	if req.Cost < 0 {
		return nil, fmt.Errorf("%w: cost must not be negative", models.ErrInvalidInput)
	}

	number, err := s.store.NextOrderNumber(ctx)
	if err != nil {
		metrics.OperationErrorsTotal.WithLabelValues("create_order").Inc()
		return nil, fmt.Errorf("failed to allocate order number: %w", err)
	}

	orderID := uuid.New()
	imageURL := ""
	if image != nil && len(image.Data) > 0 {
		imageURL, err = s.assets.UploadOrderImage(ctx, orderID, *image)
		if err != nil {
			metrics.OperationErrorsTotal.WithLabelValues("upload_order_image").Inc()
			s.logger.Error("order image upload failed, saving order without image",
				zap.String("order_id", orderID.String()), zap.Error(err))
			imageURL = ""
		}
	}

	now := s.now().UTC()
	order := &models.Order{
		ID:           orderID,
		OrderNumber:  number,
		BrandID:      brandID,
		InfluencerID: influencerID,
		Details:      strings.TrimSpace(req.Details),
		Cost:         req.Cost,
		DeadlineDays: req.DeadlineDays,
		Status:       models.StatusPending,
		ImageURL:     imageURL,
		Submission:   []models.SubmissionFile{},
		Revisions:    []models.Revision{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateOrder(ctx, order); err != nil {
		metrics.OperationErrorsTotal.WithLabelValues("create_order").Inc()
		s.logger.Error("failed to save order", zap.String("order_id", orderID.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	metrics.OrdersCreatedTotal.Inc()
	s.notify(order, "order_created", order.BrandID, order.InfluencerID)
	return order, nil
}

// Get returns an order visible to the caller, who must be one of its parties.
func (s *Service) Get(ctx context.Context, sess *session.Session, orderID uuid.UUID) (*models.Order, error) {
	userID, err := session.Require(sess)
	if err != nil {
		return nil, err
	}
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.BrandID != userID && order.InfluencerID != userID {
		return nil, models.ErrForbidden
	}
	return order, nil
}

// List returns the caller's orders as brand or as influencer, ordered by
// order number. An empty status matches every status.
func (s *Service) List(ctx context.Context, sess *session.Session, as models.Role, status models.OrderStatus) ([]models.Order, error) {
	userID, err := session.Require(sess)
	if err != nil {
		return nil, err
	}
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", models.ErrInvalidInput, status)
	}

	filter := models.OrderFilter{Status: status}
	switch as {
	case models.RoleBrand:
		filter.BrandID = userID
	case models.RoleInfluencer:
		filter.InfluencerID = userID
	default:
		return nil, fmt.Errorf("%w: unknown role %q", models.ErrInvalidInput, as)
	}

	orders, err := s.store.ListOrders(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].OrderNumber < orders[j].OrderNumber })
	return orders, nil
}

// Start moves a pending order to remaining and stamps its start time. Only the
// order's influencer may start it, and only once.
func (s *Service) Start(ctx context.Context, sess *session.Session, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.forInfluencer(ctx, sess, orderID)
	if err != nil {
		return nil, err
	}

	startedAt := s.now().UTC()
	if err := s.transition(ctx, order, models.StatusRemaining, &startedAt); err != nil {
		return nil, err
	}
	order.Status = models.StatusRemaining
	order.StartedAt = &startedAt

	s.notify(order, "order_started", order.BrandID)
	return order, nil
}

// Submit uploads a deliverable and records it on the order once the upload
// succeeds. Submissions are accepted in any status.
func (s *Service) Submit(ctx context.Context, sess *session.Session, orderID uuid.UUID, file models.FileUpload) (*models.SubmissionFile, error) {
	order, err := s.forInfluencer(ctx, sess, orderID)
	if err != nil {
		return nil, err
	}
	if len(file.Data) == 0 {
		return nil, fmt.Errorf("%w: empty file", models.ErrInvalidInput)
	}
	if order.Status == models.StatusCompleted {
		s.logger.Warn("submission on completed order", zap.String("order_id", orderID.String()))
	}

	fileURL, storagePath, err := s.assets.UploadSubmission(ctx, orderID, file)
	if err != nil {
		metrics.OperationErrorsTotal.WithLabelValues("upload_submission").Inc()
		s.logger.Error("submission upload failed", zap.String("order_id", orderID.String()), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", models.ErrUploadFailed, err)
	}

	record := &models.SubmissionFile{
		ID:           uuid.New(),
		OrderID:      orderID,
		InfluencerID: order.InfluencerID,
		BrandID:      order.BrandID,
		FileURL:      fileURL,
		FileType:     file.ContentType,
		StoragePath:  storagePath,
		SubmittedAt:  s.now().UTC(),
	}
	if err := s.store.AddSubmission(ctx, record); err != nil {
		metrics.OperationErrorsTotal.WithLabelValues("add_submission").Inc()
		s.logger.Error("failed to record submission", zap.String("order_id", orderID.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to record submission: %w", err)
	}

	metrics.SubmissionsTotal.Inc()
	s.notify(order, "submission_added", order.BrandID)
	return record, nil
}

// Revise appends a revision request and moves the order to revise.
func (s *Service) Revise(ctx context.Context, sess *session.Session, orderID uuid.UUID, text string) (*models.Revision, error) {
	order, err := s.forBrand(ctx, sess, orderID)
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: revision text is empty", models.ErrInvalidInput)
	}
	if !CanTransition(order.Status, models.StatusRevise) {
		s.logger.Info("revision rejected", zap.String("order_id", orderID.String()), zap.String("status", string(order.Status)))
		return nil, models.ErrInvalidTransition
	}

	revision := &models.Revision{
		ID:        uuid.New(),
		OrderID:   orderID,
		Text:      text,
		RevisedAt: s.now().UTC(),
	}
	if err := s.store.AddRevision(ctx, revision, SourcesFor(models.StatusRevise)); err != nil {
		if !errors.Is(err, models.ErrInvalidTransition) {
			metrics.OperationErrorsTotal.WithLabelValues("add_revision").Inc()
			s.logger.Error("failed to add revision", zap.String("order_id", orderID.String()), zap.Error(err))
		}
		return nil, err
	}

	order.Status = models.StatusRevise

	metrics.OrderTransitionsTotal.WithLabelValues(string(models.StatusRevise)).Inc()
	s.notify(order, "revision_added", order.InfluencerID)
	return revision, nil
}

// Complete marks an order completed. Completed is terminal.
func (s *Service) Complete(ctx context.Context, sess *session.Session, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.forBrand(ctx, sess, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.transition(ctx, order, models.StatusCompleted, nil); err != nil {
		return nil, err
	}
	order.Status = models.StatusCompleted

	s.notify(order, "order_completed", order.InfluencerID)
	return order, nil
}

func (s *Service) MarkSubmissionsSeen(ctx context.Context, sess *session.Session, orderID uuid.UUID) (int, error) {
	if _, err := s.forBrand(ctx, sess, orderID); err != nil {
		return 0, err
	}
	n, err := s.store.MarkSubmissionsSeen(ctx, orderID)
	if err != nil {
		s.logger.Error("failed to mark submissions seen", zap.String("order_id", orderID.String()), zap.Error(err))
		return 0, err
	}
	return n, nil
}

func (s *Service) MarkRevisionsSeen(ctx context.Context, sess *session.Session, orderID uuid.UUID) (int, error) {
	if _, err := s.forInfluencer(ctx, sess, orderID); err != nil {
		return 0, err
	}
	n, err := s.store.MarkRevisionsSeen(ctx, orderID)
	if err != nil {
		s.logger.Error("failed to mark revisions seen", zap.String("order_id", orderID.String()), zap.Error(err))
		return 0, err
	}
	return n, nil
}

// Unseen returns badge counts keyed by order id: unseen submissions on the
// caller's brand orders and unseen revisions on their influencer orders.
func (s *Service) Unseen(ctx context.Context, sess *session.Session) (map[string]int, error) {
	userID, err := session.Require(sess)
	if err != nil {
		return nil, err
	}

	unseen := make(map[string]int)
	asBrand, err := s.store.ListOrders(ctx, models.OrderFilter{BrandID: userID})
	if err != nil {
		return nil, fmt.Errorf("failed to list brand orders: %w", err)
	}
	for i := range asBrand {
		if n := asBrand[i].UnseenSubmissions(); n > 0 {
			unseen[asBrand[i].ID.String()] = n
		}
	}

	asInfluencer, err := s.store.ListOrders(ctx, models.OrderFilter{InfluencerID: userID})
	if err != nil {
		return nil, fmt.Errorf("failed to list influencer orders: %w", err)
	}
	for i := range asInfluencer {
		if n := asInfluencer[i].UnseenRevisions(); n > 0 {
			unseen[asInfluencer[i].ID.String()] += n
		}
	}
	return unseen, nil
}

// Portfolio lists every file an influencer has submitted, newest first.
func (s *Service) Portfolio(ctx context.Context, influencerID string) ([]models.SubmissionFile, error) {
	files, err := s.store.ListSubmissionsByInfluencer(ctx, influencerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	sort.SliceStable(files, func(i, j int) bool { return files[i].SubmittedAt.After(files[j].SubmittedAt) })
	return files, nil
}

// CountdownFor returns the order's remaining time, or nil when it has not
// been started or is already completed.
func (s *Service) CountdownFor(order *models.Order) *Countdown {
	if order.StartedAt == nil || order.Status == models.StatusCompleted {
		return nil
	}
	c := Remaining(*order.StartedAt, order.DeadlineDays, s.now())
	return &c
}

func (s *Service) transition(ctx context.Context, order *models.Order, to models.OrderStatus, startedAt *time.Time) error {
	if !CanTransition(order.Status, to) {
		s.logger.Info("transition rejected",
			zap.String("order_id", order.ID.String()),
			zap.String("from", string(order.Status)),
			zap.String("to", string(to)))
		return models.ErrInvalidTransition
	}
	if err := s.store.TransitionOrder(ctx, order.ID, SourcesFor(to), to, startedAt); err != nil {
		if !errors.Is(err, models.ErrInvalidTransition) {
			metrics.OperationErrorsTotal.WithLabelValues("transition_order").Inc()
			s.logger.Error("failed to update order status", zap.String("order_id", order.ID.String()), zap.Error(err))
		}
		return err
	}
	metrics.OrderTransitionsTotal.WithLabelValues(string(to)).Inc()
	return nil
}

func (s *Service) load(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("order not found", zap.String("order_id", orderID.String()))
		}
		return nil, err
	}
	return order, nil
}

func (s *Service) forBrand(ctx context.Context, sess *session.Session, orderID uuid.UUID) (*models.Order, error) {
	userID, err := session.Require(sess)
	if err != nil {
		return nil, err
	}
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.BrandID != userID {
		return nil, models.ErrForbidden
	}
	return order, nil
}

func (s *Service) forInfluencer(ctx context.Context, sess *session.Session, orderID uuid.UUID) (*models.Order, error) {
	userID, err := session.Require(sess)
	if err != nil {
		return nil, err
	}
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.InfluencerID != userID {
		return nil, models.ErrForbidden
	}
	return order, nil
}

func (s *Service) notify(order *models.Order, event string, recipients ...string) {
	if s.events == nil {
		return
	}
	payload := map[string]interface{}{
		"order_id":     order.ID.String(),
		"order_number": order.OrderNumber,
		"status":       string(order.Status),
	}
	for _, userID := range recipients {
		if err := s.events.PublishUserEvent(userID, event, payload); err != nil {
			s.logger.Warn("failed to publish order event",
				zap.String("event", event), zap.String("user_id", userID), zap.Error(err))
		}
	}
}
