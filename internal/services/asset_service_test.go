package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"influencer-hub-backend/internal/models"
	mock_services "influencer-hub-backend/internal/services/mocks"
)

var testBuckets = Buckets{
	OrderImages:   "order-images",
	Submissions:   "orders-submission",
	ProfileImages: "profile-images",
}

func fixedClock() time.Time {
	return time.UnixMilli(1700000000000)
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Photo 1.JPG", "photo_1.jpg"},
		{"my-video (final).mp4", "my_video__final_.mp4"},
		{"../../etc/passwd", "passwd"},
		{"C:\\Users\\me\\Pic.png", "pic.png"},
		{"", "file"},
		{"..", "file"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFilename(tt.in))
		})
	}
}

func TestAssetService_UploadSubmission(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mock_services.NewMockObjectStore(ctrl)
	svc := NewAssetService(store, testBuckets, 1024, zap.NewNop()).WithClock(fixedClock)

	orderID := uuid.New()
	wantPath := orderID.String() + "/1700000000000_reel_v2.mp4"
	store.EXPECT().
		Upload(gomock.Any(), "orders-submission", wantPath, []byte("video"), "video/mp4").
		Return("https://cdn.example/"+wantPath, nil)

	url, path, err := svc.UploadSubmission(context.Background(), orderID, models.FileUpload{
		Filename:    "Reel V2.mp4",
		ContentType: "video/mp4",
		Data:        []byte("video"),
	})
	require.NoError(t, err)
	assert.Equal(t, wantPath, path)
	assert.Equal(t, "https://cdn.example/"+wantPath, url)
}

func TestAssetService_UploadOrderImage(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mock_services.NewMockObjectStore(ctrl)
	svc := NewAssetService(store, testBuckets, 0, zap.NewNop()).WithClock(fixedClock)

	orderID := uuid.New()
	store.EXPECT().
		Upload(gomock.Any(), "order-images", "orders/"+orderID.String()+"/1700000000000_brief.png", gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ string, _ []byte, contentType string) (string, error) {
			assert.Equal(t, "image/png", contentType)
			return "https://cdn.example/brief.png", nil
		})

	png := []byte("\x89PNG\r\n\x1a\n0000")
	url, err := svc.UploadOrderImage(context.Background(), orderID, models.FileUpload{Filename: "Brief.png", Data: png})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/brief.png", url)
}

func TestAssetService_UploadProfileImage(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mock_services.NewMockObjectStore(ctrl)
	svc := NewAssetService(store, testBuckets, 0, zap.NewNop()).WithClock(fixedClock)

	store.EXPECT().
		Upload(gomock.Any(), "profile-images", "user_1/1700000000000_me.jpg", gomock.Any(), "image/jpeg").
		Return("https://cdn.example/me.jpg", nil)

	url, err := svc.UploadProfileImage(context.Background(), "user-1", models.FileUpload{
		Filename: "me.jpg", ContentType: "image/jpeg", Data: []byte("jpg"),
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/me.jpg", url)
}

func TestAssetService_RejectsBeforeUpload(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mock_services.NewMockObjectStore(ctrl)
	store.EXPECT().Upload(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
	svc := NewAssetService(store, testBuckets, 4, zap.NewNop())

	_, _, err := svc.UploadSubmission(context.Background(), uuid.New(), models.FileUpload{Filename: "a.txt"})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, _, err = svc.UploadSubmission(context.Background(), uuid.New(), models.FileUpload{Filename: "a.txt", Data: []byte("too large")})
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestAssetService_StoreError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mock_services.NewMockObjectStore(ctrl)
	store.EXPECT().Upload(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return("", errors.New("bucket not found"))
	svc := NewAssetService(store, testBuckets, 0, zap.NewNop())

	_, err := svc.UploadOrderImage(context.Background(), uuid.New(), models.FileUpload{Filename: "a.png", Data: []byte("x")})
	assert.EqualError(t, err, "bucket not found")
}
