package youtube

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"birdcam-pipeline/domain/publish"

	"google.golang.org/api/youtube/v3"
)

// YouTubeService defines the interface for YouTube API operations.
// This allows mocking the YouTube API in tests.
type YouTubeService interface {
	InsertVideo(ctx context.Context, video *youtube.Video, media io.Reader) (*youtube.Video, error)
	FindPlaylist(ctx context.Context, title string) (string, error)
	AddToPlaylist(ctx context.Context, playlistID, videoID string) error
}

// GoogleYouTubeService is the production implementation using the YouTube
// Data API.
type GoogleYouTubeService struct {
	service *youtube.Service
}

// InsertVideo uploads the media and returns the created video resource.
func (s *GoogleYouTubeService) InsertVideo(ctx context.Context, video *youtube.Video, media io.Reader) (*youtube.Video, error) {
	return s.service.Videos.Insert([]string{"snippet", "status"}, video).
		Media(media).
		Context(ctx).
		Do()
}

// FindPlaylist returns the ID of the caller's playlist with the given title,
// or empty when no playlist matches.
func (s *GoogleYouTubeService) FindPlaylist(ctx context.Context, title string) (string, error) {
	r, err := s.service.Playlists.List([]string{"snippet"}).
		Mine(true).
		MaxResults(50).
		Context(ctx).
		Do()
	if err != nil {
		return "", err
	}
	for _, p := range r.Items {
		if p.Snippet.Title == title {
			return p.Id, nil
		}
	}
	return "", nil
}

// AddToPlaylist appends the video to the playlist.
func (s *GoogleYouTubeService) AddToPlaylist(ctx context.Context, playlistID, videoID string) error {
	_, err := s.service.PlaylistItems.Insert([]string{"snippet"}, &youtube.PlaylistItem{
		Snippet: &youtube.PlaylistItemSnippet{
			PlaylistId: playlistID,
			ResourceId: &youtube.ResourceId{
				Kind:    "youtube#video",
				VideoId: videoID,
			},
		},
	}).Context(ctx).Do()
	return err
}

// Client implements publish.Publisher using the YouTube Data API.
type Client struct {
	youtubeService YouTubeService
	categoryID     string
}

// ClientOption is a functional option for configuring Client.
type ClientOption func(*Client)

// WithYouTubeService sets a custom YouTube service (for testing).
func WithYouTubeService(svc YouTubeService) ClientOption {
	return func(c *Client) {
		c.youtubeService = svc
	}
}

// WithCategoryID overrides the video category. Defaults to 15, Pets & Animals.
func WithCategoryID(id string) ClientOption {
	return func(c *Client) {
		c.categoryID = id
	}
}

// NewClient creates a new YouTube client using OAuth 2.0 user credentials.
// If a custom service is injected through options, the credential files are
// not touched.
func NewClient(ctx context.Context, credentialsPath, tokenPath string, opts ...ClientOption) (*Client, error) {
	c := &Client{categoryID: "15"}

	for _, opt := range opts {
		opt(c)
	}

	if c.youtubeService == nil {
		svc, err := newOAuthYouTubeService(ctx, OAuthConfig{
			CredentialsFile: credentialsPath,
			TokenFile:       tokenPath,
		})
		if err != nil {
			return nil, err
		}
		c.youtubeService = svc
	}

	return c, nil
}

// Upload implements publish.Publisher.
func (c *Client) Upload(ctx context.Context, req publish.UploadRequest) (*publish.UploadResult, error) {
	f, err := os.Open(req.Path)
	if err != nil {
		return nil, fmt.Errorf("opening upload source: %w", err)
	}
	defer f.Close()

	status := &youtube.VideoStatus{
		PrivacyStatus:           req.PrivacyStatus,
		SelfDeclaredMadeForKids: false,
	}
	if req.PublishAt != nil {
		status.PublishAt = req.PublishAt.UTC().Format(time.RFC3339)
	}

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       req.Title,
			Description: req.Description,
			CategoryId:  c.categoryID,
		},
		Status: status,
	}

	uploaded, err := c.youtubeService.InsertVideo(ctx, video, f)
	if err != nil {
		return nil, fmt.Errorf("uploading %s: %w", req.Path, err)
	}

	if req.PlaylistName != "" {
		if err := c.addToPlaylist(ctx, req.PlaylistName, uploaded.Id); err != nil {
			// The upload itself succeeded; playlist membership is cosmetic.
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
	}

	return &publish.UploadResult{
		VideoID: uploaded.Id,
		URL:     fmt.Sprintf("https://www.youtube.com/watch?v=%s", uploaded.Id),
	}, nil
}

func (c *Client) addToPlaylist(ctx context.Context, playlistName, videoID string) error {
	playlistID, err := c.youtubeService.FindPlaylist(ctx, playlistName)
	if err != nil {
		return fmt.Errorf("finding playlist %q: %w", playlistName, err)
	}
	if playlistID == "" {
		return fmt.Errorf("no playlist named %q", playlistName)
	}
	if err := c.youtubeService.AddToPlaylist(ctx, playlistID, videoID); err != nil {
		return fmt.Errorf("adding video to playlist %q: %w", playlistName, err)
	}
	return nil
}

// Ensure Client implements publish.Publisher.
var _ publish.Publisher = (*Client)(nil)
