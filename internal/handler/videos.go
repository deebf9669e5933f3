package handler

import (
    "context"
    "errors"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"

    "github.com/sunapee-sound/community-backend/internal/middleware"
    "github.com/sunapee-sound/community-backend/internal/model"
    "github.com/sunapee-sound/community-backend/internal/repository"
    "github.com/sunapee-sound/community-backend/internal/utils"
)

// VideoStore is implemented by repository.VideoRepo.
type VideoStore interface {
    ListActive(ctx context.Context) ([]model.Video, error)
    GetActive(ctx context.Context, id uint64) (*model.Video, error)
    Get(ctx context.Context, id uint64) (*model.Video, error)
    Create(ctx context.Context, v *model.Video) error
    Update(ctx context.Context, v *model.Video) error
    Deactivate(ctx context.Context, id uint64) error
}

// VideoHandler serves /api/videos.
type VideoHandler struct {
    Videos VideoStore
    Log    zerolog.Logger
}

func NewVideoHandler(videos VideoStore, log zerolog.Logger) *VideoHandler {
    return &VideoHandler{Videos: videos, Log: log}
}

// videoReq uses pointers so updates can tell "absent" from "empty".
type videoReq struct {
    Title        *string `json:"title"`
    YouTubeURL   *string `json:"youtube_url"`
    Description  *string `json:"description"`
    Category     *string `json:"category"`
    DisplayOrder *int    `json:"display_order"`
}

// List handles GET /api/videos.
func (h *VideoHandler) List(c echo.Context) error {
    ctx, cancel := dbCtx(c)
    defer cancel()

    videos, err := h.Videos.ListActive(ctx)
    if err != nil {
        h.Log.Error().Err(err).Msg("list videos")
        return middleware.Fail(c, http.StatusInternalServerError, "Failed to fetch videos")
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "videos": videos})
}

// Get handles GET /api/videos/:id.
func (h *VideoHandler) Get(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return middleware.Fail(c, http.StatusBadRequest, "invalid video id")
    }

    ctx, cancel := dbCtx(c)
    defer cancel()

    v, err := h.Videos.GetActive(ctx, id)
    if errors.Is(err, repository.ErrNotFound) {
        return middleware.Fail(c, http.StatusNotFound, "Video not found")
    }
    if err != nil {
        h.Log.Error().Err(err).Uint64("id", id).Msg("get video")
        return middleware.Fail(c, http.StatusInternalServerError, "Failed to fetch video")
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "video": v})
}

// Create handles POST /api/videos (admin).
func (h *VideoHandler) Create(c echo.Context) error {
    var req videoReq
    if err := c.Bind(&req); err != nil {
        return middleware.Fail(c, http.StatusBadRequest, "invalid request body")
    }
    title := strings.TrimSpace(deref(req.Title))
    url := strings.TrimSpace(deref(req.YouTubeURL))
    if title == "" || url == "" {
        return middleware.Fail(c, http.StatusBadRequest, "Title and YouTube URL are required")
    }
    videoID := utils.YouTubeVideoID(url)
    if videoID == "" {
        return middleware.Fail(c, http.StatusBadRequest, "Invalid YouTube URL")
    }

    v := model.Video{
        Title:       title,
        YouTubeURL:  url,
        VideoID:     videoID,
        Description: deref(req.Description),
        Category:    strings.TrimSpace(deref(req.Category)),
    }
    if v.Category == "" {
        v.Category = "general"
    }
    if req.DisplayOrder != nil {
        v.DisplayOrder = *req.DisplayOrder
    }
    if uid := middleware.CurrentUserID(c); uid != 0 {
        v.CreatedBy = &uid
    }

    ctx, cancel := dbCtx(c)
    defer cancel()

    if err := h.Videos.Create(ctx, &v); err != nil {
        h.Log.Error().Err(err).Msg("create video")
        return middleware.Fail(c, http.StatusInternalServerError, "Failed to add video")
    }
    return c.JSON(http.StatusCreated, echo.Map{"success": true, "message": "Video added successfully", "videoId": v.ID})
}

// Update handles PUT /api/videos/:id (admin).  Only supplied fields change;
// the video id is re-extracted when the URL changes.
func (h *VideoHandler) Update(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return middleware.Fail(c, http.StatusBadRequest, "invalid video id")
    }
    var req videoReq
    if err := c.Bind(&req); err != nil {
        return middleware.Fail(c, http.StatusBadRequest, "invalid request body")
    }

    ctx, cancel := dbCtx(c)
    defer cancel()

    v, err := h.Videos.Get(ctx, id)
    if errors.Is(err, repository.ErrNotFound) {
        return middleware.Fail(c, http.StatusNotFound, "Video not found")
    }
    if err != nil {
        h.Log.Error().Err(err).Uint64("id", id).Msg("update video: load")
        return middleware.Fail(c, http.StatusInternalServerError, "Failed to update video")
    }

    if s := strings.TrimSpace(deref(req.Title)); s != "" {
        v.Title = s
    }
    if s := strings.TrimSpace(deref(req.YouTubeURL)); s != "" && s != v.YouTubeURL {
        videoID := utils.YouTubeVideoID(s)
        if videoID == "" {
            return middleware.Fail(c, http.StatusBadRequest, "Invalid YouTube URL")
        }
        v.YouTubeURL, v.VideoID = s, videoID
    }
    if req.Description != nil {
        v.Description = *req.Description
    }
    if s := strings.TrimSpace(deref(req.Category)); s != "" {
        v.Category = s
    }
    if req.DisplayOrder != nil {
        v.DisplayOrder = *req.DisplayOrder
    }

    if err := h.Videos.Update(ctx, v); err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return middleware.Fail(c, http.StatusNotFound, "Video not found")
        }
        h.Log.Error().Err(err).Uint64("id", id).Msg("update video")
        return middleware.Fail(c, http.StatusInternalServerError, "Failed to update video")
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Video updated successfully"})
}

// Delete handles DELETE /api/videos/:id (admin, soft delete).
func (h *VideoHandler) Delete(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return middleware.Fail(c, http.StatusBadRequest, "invalid video id")
    }

    ctx, cancel := dbCtx(c)
    defer cancel()

    err := h.Videos.Deactivate(ctx, id)
    if errors.Is(err, repository.ErrNotFound) {
        return middleware.Fail(c, http.StatusNotFound, "Video not found")
    }
    if err != nil {
        h.Log.Error().Err(err).Uint64("id", id).Msg("delete video")
        return middleware.Fail(c, http.StatusInternalServerError, "Failed to delete video")
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Video deleted successfully"})
}

func deref(s *string) string {
    if s == nil {
        return ""
    }
    return *s
}
