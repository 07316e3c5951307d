// Package captions resolves a video URL to its English caption track via
// yt-dlp, downloads the track, and parses WebVTT into timed segments.
package captions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os/exec"
	"time"
)

var (
	// ErrResolutionFailed is returned when yt-dlp yields no usable metadata.
	ErrResolutionFailed = errors.New("could not resolve video metadata")
	// ErrNoCaptions is returned when the video offers neither automatic nor
	// manual captions in the configured language.
	ErrNoCaptions = errors.New("no captions available for the video")
	// ErrUnsupportedFormat is returned when captions exist but no WebVTT
	// track is offered.
	ErrUnsupportedFormat = errors.New("no webvtt caption track offered")
	// ErrTrackUnavailable is returned when the caption host cannot be reached
	// or refuses the track download.
	ErrTrackUnavailable = errors.New("caption track download failed")
)

// Track identifies a resolved WebVTT caption track for a video.
type Track struct {
	VideoID string
	Title   string
	URL     string
}

// Resolver shells out to yt-dlp for caption metadata and fetches track
// bodies over plain HTTP.
type Resolver struct {
	lang   string
	binary string
	client *http.Client
	logger *slog.Logger
}

func NewResolver(lang string, logger *slog.Logger) *Resolver {
	return &Resolver{
		lang:   lang,
		binary: "yt-dlp",
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

type captionTrack struct {
	Ext string `json:"ext"`
	URL string `json:"url"`
}

type videoMetadata struct {
	ID                string                    `json:"id"`
	Title             string                    `json:"title"`
	AutomaticCaptions map[string][]captionTrack `json:"automatic_captions"`
	Subtitles         map[string][]captionTrack `json:"subtitles"`
}

// Resolve asks yt-dlp for the video's caption metadata and picks a WebVTT
// track, preferring automatic captions and falling back to manual ones.
func (r *Resolver) Resolve(ctx context.Context, videoURL string) (*Track, error) {
	cmd := exec.CommandContext(ctx, r.binary, "-J", "--skip-download", "--no-warnings", videoURL)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		r.logger.Warn("yt-dlp failed", "url", videoURL, "stderr", firstLine(stderr.String()))
		return nil, fmt.Errorf("%w: yt-dlp: %v", ErrResolutionFailed, err)
	}

	var meta videoMetadata
	if err := json.Unmarshal(stdout.Bytes(), &meta); err != nil {
		return nil, fmt.Errorf("%w: decode yt-dlp output: %v", ErrResolutionFailed, err)
	}

	return pickTrack(&meta, r.lang)
}

func pickTrack(meta *videoMetadata, lang string) (*Track, error) {
	if meta.ID == "" {
		return nil, ErrResolutionFailed
	}

	tracks := meta.AutomaticCaptions[lang]
	if len(tracks) == 0 {
		tracks = meta.Subtitles[lang]
	}
	if len(tracks) == 0 {
		return nil, ErrNoCaptions
	}

	for _, t := range tracks {
		if t.Ext == "vtt" && t.URL != "" {
			return &Track{VideoID: meta.ID, Title: meta.Title, URL: t.URL}, nil
		}
	}
	return nil, ErrUnsupportedFormat
}

// Download fetches the raw caption track body.
func (r *Resolver) Download(ctx context.Context, trackURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, trackURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTrackUnavailable, err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTrackUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: unexpected status %d", ErrTrackUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTrackUnavailable, err)
	}
	return string(body), nil
}

func firstLine(s string) string {
	for i, c := range s {
		if c == '\n' {
			return s[:i]
		}
	}
	return s
}
