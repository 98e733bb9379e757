package handlers_test

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"influencer-hub-backend/internal/models"
)

func createOrder(t *testing.T, ts *testServer, brand, influencer string, days int) models.OrderResponse {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/orders", brand, models.CreateOrderRequest{
		InfluencerID: influencer,
		Details:      "30s unboxing reel",
		Cost:         250,
		DeadlineDays: days,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[models.OrderResponse](t, w)
}

func TestOrders_Lifecycle(t *testing.T) {
	ts := newTestServer(t)

	created := createOrder(t, ts, "brand-1", "inf-1", 3)
	assert.Equal(t, int64(1000), created.OrderNumber)
	assert.Equal(t, models.StatusPending, created.Status)
	assert.Nil(t, created.Countdown)
	id := created.ID.String()

	w := ts.do(t, http.MethodPost, "/orders/"+id+"/start", "inf-1", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	started := decode[models.OrderResponse](t, w)
	assert.Equal(t, models.StatusRemaining, started.Status)
	require.NotNil(t, started.Countdown)
	assert.Equal(t, 3, started.Countdown.Days)

	ts.objects.EXPECT().
		Upload(gomock.Any(), "submissions", gomock.Any(), []byte("video-bytes"), gomock.Any()).
		DoAndReturn(func(_ context.Context, bucket, path string, _ []byte, _ string) (string, error) {
			assert.True(t, strings.HasPrefix(path, id+"/"), path)
			assert.True(t, strings.HasSuffix(path, "_final_cut.mp4"), path)
			return "https://cdn.example/" + bucket + "/" + path, nil
		})
	w = ts.upload(t, "/orders/"+id+"/submissions", "inf-1", nil, "file", "Final Cut.mp4", []byte("video-bytes"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	file := decode[models.SubmissionFile](t, w)
	assert.False(t, file.SeenByBrand)

	w = ts.do(t, http.MethodGet, "/orders/unseen", "brand-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[models.UnseenResponse](t, w).Unseen[id])

	w = ts.do(t, http.MethodPost, "/orders/"+id+"/submissions/seen", "brand-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[models.SeenResponse](t, w).Marked)

	w = ts.do(t, http.MethodPost, "/orders/"+id+"/revisions", "brand-1", models.RevisionRequest{Text: "brighter intro"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = ts.do(t, http.MethodGet, "/orders/"+id, "inf-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[models.OrderResponse](t, w)
	assert.Equal(t, models.StatusRevise, got.Status)
	assert.Equal(t, 1, got.UnseenRevisions)
	require.Len(t, got.Submission, 1)

	w = ts.do(t, http.MethodPost, "/orders/"+id+"/complete", "brand-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.StatusCompleted, decode[models.OrderResponse](t, w).Status)

	w = ts.do(t, http.MethodPost, "/orders/"+id+"/start", "inf-1", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = ts.do(t, http.MethodGet, "/influencers/inf-1/portfolio", "brand-2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[models.SubmissionsResponse](t, w).Files, 1)
}

func TestOrders_Errors(t *testing.T) {
	ts := newTestServer(t)
	created := createOrder(t, ts, "brand-1", "inf-1", 2)
	id := created.ID.String()

	tests := []struct {
		name   string
		method string
		path   string
		user   string
		body   interface{}
		status int
	}{
		{"no session", http.MethodGet, "/orders", "", nil, http.StatusUnauthorized},
		{"bad order id", http.MethodGet, "/orders/not-a-uuid", "brand-1", nil, http.StatusBadRequest},
		{"unknown order", http.MethodGet, "/orders/00000000-0000-0000-0000-000000000000", "brand-1", nil, http.StatusNotFound},
		{"outsider", http.MethodGet, "/orders/" + id, "brand-2", nil, http.StatusForbidden},
		{"brand cannot start", http.MethodPost, "/orders/" + id + "/start", "brand-1", nil, http.StatusForbidden},
		{"complete while pending", http.MethodPost, "/orders/" + id + "/complete", "brand-1", nil, http.StatusConflict},
		{"revise while pending", http.MethodPost, "/orders/" + id + "/revisions", "brand-1", models.RevisionRequest{Text: "x"}, http.StatusConflict},
		{"missing deadline", http.MethodPost, "/orders", "brand-1", map[string]interface{}{"influencer_id": "inf-1"}, http.StatusBadRequest},
		{"order yourself", http.MethodPost, "/orders", "brand-1", models.CreateOrderRequest{InfluencerID: "brand-1", DeadlineDays: 1}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, tt.method, tt.path, tt.user, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestOrders_SubmitWithoutFile(t *testing.T) {
	ts := newTestServer(t)
	created := createOrder(t, ts, "brand-1", "inf-1", 2)

	w := ts.upload(t, "/orders/"+created.ID.String()+"/submissions", "inf-1", map[string]string{"note": "x"}, "", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "no file uploaded")
}

func TestOrders_CreateMultipartWithImage(t *testing.T) {
	ts := newTestServer(t)
	ts.objects.EXPECT().
		Upload(gomock.Any(), "order-images", gomock.Any(), []byte("png"), gomock.Any()).
		Return("https://cdn.example/brief.png", nil)

	w := ts.upload(t, "/orders", "brand-1", map[string]string{
		"influencer_id": "inf-1",
		"deadline_days": "5",
		"cost":          "99.5",
	}, "image", "brief.png", []byte("png"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := decode[models.OrderResponse](t, w)
	assert.Equal(t, "https://cdn.example/brief.png", order.ImageURL)
	assert.Equal(t, 99.5, order.Cost)
}

func TestOrders_ListAsInfluencer(t *testing.T) {
	ts := newTestServer(t)
	createOrder(t, ts, "brand-1", "inf-1", 2)
	second := createOrder(t, ts, "brand-2", "inf-1", 2)
	createOrder(t, ts, "brand-1", "inf-2", 2)

	w := ts.do(t, http.MethodPost, "/orders/"+second.ID.String()+"/start", "inf-1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodGet, "/orders?as=influencer", "inf-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[models.OrderListResponse](t, w)
	require.Len(t, list.Orders, 2)
	assert.Less(t, list.Orders[0].OrderNumber, list.Orders[1].OrderNumber)
	assert.Equal(t, 1, list.Counts["pending"])
	assert.Equal(t, 1, list.Counts["remaining"])

	w = ts.do(t, http.MethodGet, "/orders?as=influencer&status=remaining", "inf-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[models.OrderListResponse](t, w).Orders, 1)

	w = ts.do(t, http.MethodGet, "/orders", "brand-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[models.OrderListResponse](t, w).Orders, 2)
}

func TestOrders_Countdown(t *testing.T) {
	ts := newTestServer(t)
	created := createOrder(t, ts, "brand-1", "inf-1", 2)
	id := created.ID.String()

	w := ts.do(t, http.MethodGet, "/orders/"+id+"/countdown", "brand-1", nil)
	assert.Equal(t, http.StatusConflict, w.Code, "pending orders have no countdown")

	w = ts.do(t, http.MethodPost, "/orders/"+id+"/start", "inf-1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.stream(t, "/orders/"+id+"/countdown", "brand-1")
	assertEventStream(t, w)
	assert.Contains(t, w.Body.String(), "event:countdown")
	assert.Contains(t, w.Body.String(), `"days":2`)

	// Past the deadline the stream sends the expired tick and ends by itself.
	ts.now = ts.now.Add(49 * time.Hour)
	w = ts.do(t, http.MethodGet, "/orders/"+id+"/countdown", "brand-1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"expired":true`)
	assert.Equal(t, 1, strings.Count(w.Body.String(), "event:countdown"))
}
