package assistant_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"influencer-hub-backend/internal/assistant"
	"influencer-hub-backend/internal/models"
)

func TestClassifier_Classify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("image")
		require.NoError(t, err)
		defer file.Close()
		data, err := io.ReadAll(file)
		require.NoError(t, err)

		assert.Equal(t, "lipstick.png", header.Filename)
		assert.Equal(t, "image/png", header.Header.Get("Content-Type"))
		assert.Equal(t, []byte("png-bytes"), data)

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"category":"beauty_health","confidence":0.92}`)
	}))
	defer srv.Close()

	result, err := assistant.NewClassifier(srv.URL).Classify(context.Background(), models.FileUpload{
		Filename:    "lipstick.png",
		ContentType: "image/png",
		Data:        []byte("png-bytes"),
	})
	require.NoError(t, err)
	assert.Equal(t, "beauty_health", result.Category)
	assert.InDelta(t, 0.92, result.Confidence, 1e-9)
}

func TestClassifier_Classify_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `model not loaded`},
		{"unknown category", http.StatusOK, `{"category":"weapons","confidence":0.5}`},
		{"malformed body", http.StatusOK, `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := assistant.NewClassifier(srv.URL).Classify(context.Background(), models.FileUpload{
				Filename: "x.jpg",
				Data:     []byte("x"),
			})
			assert.ErrorIs(t, err, models.ErrUpstream)
		})
	}
}
