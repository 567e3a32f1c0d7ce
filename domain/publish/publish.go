package publish

import (
	"context"
	"time"
)

// UploadRequest describes one combined video to publish.
type UploadRequest struct {
	Path          string
	Title         string
	Description   string
	PrivacyStatus string     // "public" or "private"
	PublishAt     *time.Time // UTC release time for deferred publication
	PlaylistName  string
}

// UploadResult reports a completed upload.
type UploadResult struct {
	VideoID string
	URL     string
}

// Publisher is the opaque video-publishing boundary.
type Publisher interface {
	Upload(ctx context.Context, req UploadRequest) (*UploadResult, error)
}
