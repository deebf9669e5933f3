package model

import "time"

// Video is an entry of the curated YouTube list (`youtube_videos`).
type Video struct {
    ID           uint64    `json:"id"`
    Title        string    `json:"title"`
    YouTubeURL   string    `json:"youtube_url"`
    VideoID      string    `json:"video_id"`
    Description  string    `json:"description"`
    Category     string    `json:"category"`
    DisplayOrder int       `json:"display_order"`
    CreatedBy    *uint64   `json:"created_by,omitempty"`
    CreatedAt    time.Time `json:"created_at"`
    UpdatedAt    time.Time `json:"updated_at"`
}
