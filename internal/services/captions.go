package services

import (
	"context"
	"log/slog"

	"ytlearner/internal/captions"
	"ytlearner/internal/models"
)

// CaptionService turns a video URL or a raw WebVTT payload into ordered
// caption segments, caching raw tracks so re-processed videos skip the
// caption host.
type CaptionService struct {
	resolver *captions.Resolver
	store    *captions.Store
	lang     string
	logger   *slog.Logger
}

func NewCaptionService(resolver *captions.Resolver, store *captions.Store, lang string, logger *slog.Logger) *CaptionService {
	return &CaptionService{resolver: resolver, store: store, lang: lang, logger: logger}
}

// ProcessVideo resolves the video's caption track, fetches its body (from the
// cache when possible) and parses it. Cache failures are logged, never fatal.
func (s *CaptionService) ProcessVideo(ctx context.Context, videoURL string) (*models.VideoCaptions, error) {
	track, err := s.resolver.Resolve(ctx, videoURL)
	if err != nil {
		return nil, err
	}

	raw, cached := s.cachedTrack(ctx, track.VideoID)
	if !cached {
		raw, err = s.resolver.Download(ctx, track.URL)
		if err != nil {
			return nil, err
		}
		if s.store != nil {
			if err := s.store.Put(ctx, track.VideoID, s.lang, track.Title, raw); err != nil {
				s.logger.Warn("persist captions", "video_id", track.VideoID, "error", err)
			}
		}
	}

	segments, err := captions.Parse(raw)
	if err != nil {
		return nil, err
	}

	return &models.VideoCaptions{
		VideoID:  track.VideoID,
		Title:    track.Title,
		Segments: segments,
	}, nil
}

// ProcessVTT parses user-supplied WebVTT content directly, without any
// network access.
func (s *CaptionService) ProcessVTT(raw string) ([]models.CaptionSegment, error) {
	return captions.Parse(raw)
}

func (s *CaptionService) cachedTrack(ctx context.Context, videoID string) (string, bool) {
	if s.store == nil {
		return "", false
	}
	raw, ok, err := s.store.Get(ctx, videoID, s.lang)
	if err != nil {
		s.logger.Warn("caption cache lookup", "video_id", videoID, "error", err)
		return "", false
	}
	if ok {
		s.logger.Info("captions served from cache", "video_id", videoID)
	}
	return raw, ok
}
