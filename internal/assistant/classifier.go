package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"influencer-hub-backend/internal/models"
)

// Categories are the labels an image classifier may return. They double as
// the niche values of the influencer search.
var Categories = []string{
	"baby_products",
	"beauty_health",
	"clothing_accessories_jewellery",
	"electronics",
	"grocery",
	"hobby_arts_stationery",
	"home_kitchen_tools",
	"pet_supplies",
	"sports_outdoor",
}

// Classifier forwards product images to a model server that answers with
// {"category", "confidence"}.
type Classifier struct {
	url        string
	httpClient *http.Client
}

func NewClassifier(url string) *Classifier {
	return &Classifier{
		url: url,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Classifier) Classify(ctx context.Context, image models.FileUpload) (*models.Classification, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, image.Filename))
	contentType := image.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to create form part: %w", err)
	}
	if _, err := part.Write(image.Data); err != nil {
		return nil, fmt.Errorf("failed to write image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: classifier status %d: %s", models.ErrUpstream, resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var result models.Classification
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: failed to decode classification: %v", models.ErrUpstream, err)
	}
	if !isCategory(result.Category) {
		return nil, fmt.Errorf("%w: unknown category %q", models.ErrUpstream, result.Category)
	}
	return &result, nil
}

func isCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}
