package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"influencer-hub-backend/internal/models"
	"influencer-hub-backend/internal/profiles"
)

type ProfilesHandler struct {
	service        *profiles.Service
	maxUploadBytes int64
}

func NewProfilesHandler(service *profiles.Service, maxUploadBytes int64) *ProfilesHandler {
	return &ProfilesHandler{service: service, maxUploadBytes: maxUploadBytes}
}

// SaveProfile godoc
// @Summary     Save the caller's profile
// @Description Creates or updates the caller's profile. Accepts JSON, or multipart with a "profile" JSON field and an optional "image" file. The username must be unused by anyone else.
// @Tags        profiles
// @Accept      json,mpfd
// @Produce     json
// @Security    Bearer
// @Param       request body models.SaveProfileRequest true "Profile"
// @Success     200 {object} models.Profile
// @Failure     400 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /profiles/me [put]
func (h *ProfilesHandler) SaveProfile(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}

	var (
		req   models.SaveProfileRequest
		image *models.FileUpload
	)
	if isMultipart(c) {
		if err := json.Unmarshal([]byte(c.PostForm("profile")), &req); err != nil {
			badRequest(c, "invalid profile field", err)
			return
		}
		var err error
		if image, err = formFile(c, "image", h.maxUploadBytes); err != nil {
			respondError(c, err)
			return
		}
	} else if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}

	profile, err := h.service.Save(c.Request.Context(), sess, req, image)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UploadImage godoc
// @Summary     Replace the caller's profile image
// @Tags        profiles
// @Accept      mpfd
// @Produce     json
// @Security    Bearer
// @Param       image formData file true "Image"
// @Success     200 {object} map[string]string
// @Failure     502 {object} models.ErrorResponse
// @Router      /profiles/me/image [post]
func (h *ProfilesHandler) UploadImage(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	image, err := formFile(c, "image", h.maxUploadBytes)
	if err != nil {
		respondError(c, err)
		return
	}
	if image == nil {
		badRequest(c, "no file uploaded", nil)
		return
	}

	url, err := h.service.SetImage(c.Request.Context(), sess, *image)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"image_url": url})
}

// GetMe godoc
// @Summary     Get the caller's profile
// @Tags        profiles
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.Profile
// @Failure     404 {object} models.ErrorResponse
// @Router      /profiles/me [get]
func (h *ProfilesHandler) GetMe(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	h.respondProfile(c, sess.UserID)
}

// GetProfile godoc
// @Summary     Get a profile
// @Tags        profiles
// @Produce     json
// @Security    Bearer
// @Param       user_id path string true "User id"
// @Success     200 {object} models.Profile
// @Failure     404 {object} models.ErrorResponse
// @Router      /profiles/{user_id} [get]
func (h *ProfilesHandler) GetProfile(c *gin.Context) {
	h.respondProfile(c, c.Param("user_id"))
}

// SearchInfluencers godoc
// @Summary     Search influencers
// @Description Filters influencers by name, niche, and their highest-follower platform.
// @Tags        profiles
// @Produce     json
// @Security    Bearer
// @Param       search        query string false "Name contains"
// @Param       platform      query string false "Top platform"
// @Param       niche         query string false "Category"
// @Param       min_followers query int    false "Minimum followers on the top platform"
// @Success     200 {object} models.InfluencerSearchResponse
// @Router      /influencers [get]
func (h *ProfilesHandler) SearchInfluencers(c *gin.Context) {
	var req models.InfluencerSearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, "invalid query", err)
		return
	}
	results, err := h.service.Search(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.InfluencerSearchResponse{Influencers: results})
}

// Like godoc
// @Summary     Like an influencer
// @Tags        profiles
// @Produce     json
// @Security    Bearer
// @Param       user_id path string true "Influencer user id"
// @Success     200 {object} map[string]bool
// @Router      /influencers/{user_id}/like [post]
func (h *ProfilesHandler) Like(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	if err := h.service.Like(c.Request.Context(), sess, c.Param("user_id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": true})
}

// Unlike godoc
// @Summary     Unlike an influencer
// @Tags        profiles
// @Produce     json
// @Security    Bearer
// @Param       user_id path string true "Influencer user id"
// @Success     200 {object} map[string]bool
// @Router      /influencers/{user_id}/like [delete]
func (h *ProfilesHandler) Unlike(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	if err := h.service.Unlike(c.Request.Context(), sess, c.Param("user_id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": false})
}

// LikeStatus godoc
// @Summary     Whether the caller likes an influencer
// @Tags        profiles
// @Produce     json
// @Security    Bearer
// @Param       user_id path string true "Influencer user id"
// @Success     200 {object} map[string]bool
// @Router      /influencers/{user_id}/like [get]
func (h *ProfilesHandler) LikeStatus(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	liked, err := h.service.IsLiked(c.Request.Context(), sess, c.Param("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": liked})
}

// Likes godoc
// @Summary     List likes
// @Description Influencers the calling brand liked, or brands that liked the calling influencer.
// @Tags        profiles
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.LikesResponse
// @Router      /likes [get]
func (h *ProfilesHandler) Likes(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	list, err := h.service.Likes(c.Request.Context(), sess)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.LikesResponse{Profiles: list})
}

func (h *ProfilesHandler) respondProfile(c *gin.Context, userID string) {
	profile, err := h.service.Get(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}
