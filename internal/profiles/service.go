// Package profiles manages brand and influencer profiles, likes, and the
// influencer directory search.
package profiles

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"influencer-hub-backend/internal/metrics"
	"influencer-hub-backend/internal/models"
	"influencer-hub-backend/internal/session"
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9_.]{3,30}$`)

type Store interface {
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	GetProfiles(ctx context.Context, userIDs []string) ([]models.Profile, error)
	ClaimUsername(ctx context.Context, username, userID string) error
	UpsertProfile(ctx context.Context, profile *models.Profile) error
	SetProfileImage(ctx context.Context, userID, imageURL string) error
	SetLike(ctx context.Context, like models.Like) error
	GetLike(ctx context.Context, brandID, influencerID string) (*models.Like, error)
	ListLikes(ctx context.Context, userID string) ([]models.Like, error)
}

// Directory lists profiles by role for search.
type Directory interface {
	ListByRole(ctx context.Context, role models.Role) ([]models.Profile, error)
}

type Assets interface {
	UploadProfileImage(ctx context.Context, userID string, file models.FileUpload) (string, error)
}

type Service struct {
	store     Store
	directory Directory
	assets    Assets
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(store Store, directory Directory, assets Assets, logger *zap.Logger) *Service {
	return &Service{
		store:     store,
		directory: directory,
		assets:    assets,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Save validates and stores the caller's profile. The username is claimed
// before anything is written, so a taken username leaves no trace. An image
// that fails to upload is logged and the profile is saved without it.
func (s *Service) Save(ctx context.Context, sess *session.Session, req models.SaveProfileRequest, image *models.FileUpload) (*models.Profile, error) {
	userID, err := session.Require(sess)
	if err != nil {
		s.logger.Warn("save profile without session")
		return nil, err
	}

	username := strings.ToLower(strings.TrimSpace(req.Username))
	if !usernamePattern.MatchString(username) {
		return nil, fmt.Errorf("%w: username must be 3-30 characters of letters, digits, '_' or '.'", models.ErrInvalidInput)
	}
	if !req.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", models.ErrInvalidInput, req.Role)
	}
	platforms, err := normalizePlatforms(req.Platforms)
	if err != nil {
		return nil, err
	}

	if err := s.store.ClaimUsername(ctx, username, userID); err != nil {
		if errors.Is(err, models.ErrUsernameTaken) {
			s.logger.Info("username taken", zap.String("user_id", userID), zap.String("username", username))
			return nil, err
		}
		metrics.OperationErrorsTotal.WithLabelValues("claim_username").Inc()
		return nil, fmt.Errorf("failed to claim username: %w", err)
	}

	now := s.now().UTC()
	profile := &models.Profile{
		UserID:    userID,
		Username:  username,
		Role:      req.Role,
		Name:      strings.TrimSpace(req.Name),
		Category:  strings.TrimSpace(req.Category),
		Bio:       strings.TrimSpace(req.Bio),
		Location:  strings.TrimSpace(req.Location),
		Platforms: platforms,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if existing, err := s.store.GetProfile(ctx, userID); err == nil {
		profile.CreatedAt = existing.CreatedAt
		profile.ImageURL = existing.ImageURL
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	if image != nil && len(image.Data) > 0 {
		url, err := s.assets.UploadProfileImage(ctx, userID, *image)
		if err != nil {
			metrics.OperationErrorsTotal.WithLabelValues("upload_profile_image").Inc()
			s.logger.Error("profile image upload failed, saving profile without image",
				zap.String("user_id", userID), zap.Error(err))
		} else {
			profile.ImageURL = url
		}
	}

	if err := s.store.UpsertProfile(ctx, profile); err != nil {
		metrics.OperationErrorsTotal.WithLabelValues("save_profile").Inc()
		s.logger.Error("failed to save profile", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}
	return profile, nil
}

// SetImage replaces the caller's profile image.
func (s *Service) SetImage(ctx context.Context, sess *session.Session, image models.FileUpload) (string, error) {
	userID, err := session.Require(sess)
	if err != nil {
		return "", err
	}
	if len(image.Data) == 0 {
		return "", fmt.Errorf("%w: empty file", models.ErrInvalidInput)
	}
	url, err := s.assets.UploadProfileImage(ctx, userID, image)
	if err != nil {
		metrics.OperationErrorsTotal.WithLabelValues("upload_profile_image").Inc()
		s.logger.Error("profile image upload failed", zap.String("user_id", userID), zap.Error(err))
		return "", fmt.Errorf("%w: %v", models.ErrUploadFailed, err)
	}
	if err := s.store.SetProfileImage(ctx, userID, url); err != nil {
		return "", err
	}
	return url, nil
}

func (s *Service) Get(ctx context.Context, userID string) (*models.Profile, error) {
	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("profile not found", zap.String("user_id", userID))
		}
		return nil, err
	}
	return profile, nil
}

func (s *Service) Like(ctx context.Context, sess *session.Session, influencerID string) error {
	return s.setLike(ctx, sess, influencerID, models.Liked)
}

func (s *Service) Unlike(ctx context.Context, sess *session.Session, influencerID string) error {
	return s.setLike(ctx, sess, influencerID, models.Unliked)
}

// IsLiked reports whether the calling brand currently likes the influencer.
func (s *Service) IsLiked(ctx context.Context, sess *session.Session, influencerID string) (bool, error) {
	brandID, err := session.Require(sess)
	if err != nil {
		return false, err
	}
	like, err := s.store.GetLike(ctx, brandID, influencerID)
	if errors.Is(err, models.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return like.State == models.Liked, nil
}

// Likes lists the counterpart profiles of the caller's likes: liked
// influencers for a brand, brands that liked them for an influencer.
func (s *Service) Likes(ctx context.Context, sess *session.Session) ([]models.Profile, error) {
	userID, err := session.Require(sess)
	if err != nil {
		return nil, err
	}
	likes, err := s.store.ListLikes(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list likes: %w", err)
	}

	ids := make([]string, 0, len(likes))
	for _, like := range likes {
		if like.State != models.Liked {
			continue
		}
		if like.BrandID == userID {
			ids = append(ids, like.InfluencerID)
		} else {
			ids = append(ids, like.BrandID)
		}
	}
	if len(ids) == 0 {
		return []models.Profile{}, nil
	}
	return s.store.GetProfiles(ctx, ids)
}

// Search filters the influencer directory. Every result carries its
// highest-follower platform; min followers and platform filters apply to it.
func (s *Service) Search(ctx context.Context, req models.InfluencerSearchRequest) ([]models.InfluencerResult, error) {
	influencers, err := s.directory.ListByRole(ctx, models.RoleInfluencer)
	if err != nil {
		metrics.OperationErrorsTotal.WithLabelValues("search_influencers").Inc()
		return nil, fmt.Errorf("failed to list influencers: %w", err)
	}

	search := strings.ToLower(strings.TrimSpace(req.Search))
	results := make([]models.InfluencerResult, 0, len(influencers))
	for _, p := range influencers {
		platform, followers := TopPlatform(p.Platforms)
		switch {
		case req.MinFollowers > 0 && followers < req.MinFollowers:
			continue
		case req.Platform != "" && !strings.EqualFold(platform, req.Platform):
			continue
		case req.Niche != "" && !strings.EqualFold(p.Category, req.Niche):
			continue
		case search != "" && !strings.Contains(strings.ToLower(p.Name), search):
			continue
		}
		results = append(results, models.InfluencerResult{
			Profile:            p,
			TopPlatform:        platform,
			Followers:          followers,
			FollowersFormatted: FormatFollowers(followers),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Followers != results[j].Followers {
			return results[i].Followers > results[j].Followers
		}
		return results[i].Username < results[j].Username
	})
	return results, nil
}

func (s *Service) setLike(ctx context.Context, sess *session.Session, influencerID string, state models.LikeState) error {
	brandID, err := session.Require(sess)
	if err != nil {
		return err
	}
	influencerID = strings.TrimSpace(influencerID)
	if influencerID == "" || influencerID == brandID {
		return fmt.Errorf("%w: invalid influencer", models.ErrInvalidInput)
	}

	if sess.Role != "" && sess.Role != models.RoleBrand {
		return models.ErrForbidden
	}
	target, err := s.store.GetProfile(ctx, influencerID)
	if err != nil {
		return err
	}
	if target.Role != models.RoleInfluencer {
		return fmt.Errorf("%w: %s is not an influencer", models.ErrInvalidInput, influencerID)
	}

	like := models.Like{
		BrandID:      brandID,
		InfluencerID: influencerID,
		State:        state,
		UpdatedAt:    s.now().UTC(),
	}
	if err := s.store.SetLike(ctx, like); err != nil {
		s.logger.Error("failed to save like",
			zap.String("brand_id", brandID), zap.String("influencer_id", influencerID), zap.Error(err))
		return fmt.Errorf("failed to save like: %w", err)
	}
	return nil
}

func normalizePlatforms(in map[string]models.PlatformStats) (map[string]models.PlatformStats, error) {
	out := make(map[string]models.PlatformStats, len(in))
	for name, stats := range in {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			return nil, fmt.Errorf("%w: platform name is empty", models.ErrInvalidInput)
		}
		if stats.Followers < 0 {
			return nil, fmt.Errorf("%w: followers for %s must not be negative", models.ErrInvalidInput, name)
		}
		stats.Link = strings.TrimSpace(stats.Link)
		stats.WatchTime = strings.TrimSpace(stats.WatchTime)
		out[name] = stats
	}
	return out, nil
}
