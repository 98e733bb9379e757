// Package assistant answers help-chat messages from a FAQ list with a
// language model fallback, and suggests an influencer niche for product
// images.
package assistant

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"influencer-hub-backend/internal/metrics"
	"influencer-hub-backend/internal/models"
)

const (
	SourceFAQ       = "faq"
	SourceAssistant = "assistant"

	systemPrompt = "You are a helpful assistant for an influencer marketplace where brands order content from influencers."
)

type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

type ImageClassifier interface {
	Classify(ctx context.Context, image models.FileUpload) (*models.Classification, error)
}

type Service struct {
	faqs       *FAQs
	llm        Completer
	classifier ImageClassifier
	logger     *zap.Logger
}

// NewService builds the assistant. llm and classifier may be nil when the
// matching upstream is not configured.
func NewService(faqs *FAQs, llm Completer, classifier ImageClassifier, logger *zap.Logger) *Service {
	if faqs == nil {
		faqs = NewFAQs(nil)
	}
	return &Service{
		faqs:       faqs,
		llm:        llm,
		classifier: classifier,
		logger:     logger,
	}
}

// Reply answers from the FAQ list when the message repeats a known
// question and asks the language model otherwise.
func (s *Service) Reply(ctx context.Context, message string) (*models.AssistantReply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("%w: no message provided", models.ErrInvalidInput)
	}

	if answer, ok := s.faqs.Match(message); ok {
		metrics.AssistantRepliesTotal.WithLabelValues(SourceFAQ).Inc()
		return &models.AssistantReply{Reply: answer, Source: SourceFAQ}, nil
	}

	if s.llm == nil {
		return nil, fmt.Errorf("%w: assistant", models.ErrUnavailable)
	}
	reply, err := s.llm.Complete(ctx, systemPrompt, message)
	if err != nil {
		metrics.OperationErrorsTotal.WithLabelValues("assistant_reply").Inc()
		s.logger.Error("assistant completion failed", zap.Error(err))
		return nil, err
	}

	metrics.AssistantRepliesTotal.WithLabelValues(SourceAssistant).Inc()
	return &models.AssistantReply{Reply: strings.TrimSpace(reply), Source: SourceAssistant}, nil
}

func (s *Service) Classify(ctx context.Context, image models.FileUpload) (*models.Classification, error) {
	if len(image.Data) == 0 {
		return nil, fmt.Errorf("%w: empty image", models.ErrInvalidInput)
	}
	if s.classifier == nil {
		return nil, fmt.Errorf("%w: image classifier", models.ErrUnavailable)
	}

	result, err := s.classifier.Classify(ctx, image)
	if err != nil {
		metrics.OperationErrorsTotal.WithLabelValues("classify_image").Inc()
		s.logger.Error("image classification failed", zap.String("filename", image.Filename), zap.Error(err))
		return nil, err
	}

	s.logger.Info("image classified",
		zap.String("category", result.Category),
		zap.Float64("confidence", result.Confidence),
	)
	return result, nil
}
