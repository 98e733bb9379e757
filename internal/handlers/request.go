package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"influencer-hub-backend/internal/middleware"
	"influencer-hub-backend/internal/models"
	"influencer-hub-backend/internal/session"
)

// requireSession aborts with 401 when the auth middleware did not run.
func requireSession(c *gin.Context) (*session.Session, bool) {
	sess := middleware.SessionFromContext(c)
	if _, err := session.Require(sess); err != nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "user id not found"})
		return nil, false
	}
	return sess, true
}

func orderIDParam(c *gin.Context) (uuid.UUID, bool) {
	orderID, err := uuid.Parse(c.Param("order_id"))
	if err != nil {
		badRequest(c, "invalid order id", err)
		return uuid.Nil, false
	}
	return orderID, true
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

// formFile reads the named multipart file into memory. A missing file
// returns nil without error.
func formFile(c *gin.Context, field string, maxBytes int64) (*models.FileUpload, error) {
	header, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	if maxBytes > 0 && header.Size > maxBytes {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", models.ErrInvalidInput, maxBytes)
	}

	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	return &models.FileUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func startStream(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()
}

func sendEvent(c *gin.Context, name string, data interface{}) error {
	c.SSEvent(name, data)
	c.Writer.Flush()
	return c.Request.Context().Err()
}
