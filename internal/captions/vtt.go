package captions

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/asticode/go-astisub"

	"ytlearner/internal/models"
)

// ErrMalformedVTT is returned when a subtitle payload cannot be parsed.
var ErrMalformedVTT = errors.New("malformed webvtt content")

// Parse converts a WebVTT document into caption segments in document order,
// with trimmed text and HH:MM:SS.mmm timestamps.
func Parse(raw string) ([]models.CaptionSegment, error) {
	subs, err := astisub.ReadFromWebVTT(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedVTT, err)
	}
	if len(subs.Items) == 0 {
		return nil, ErrMalformedVTT
	}

	segments := make([]models.CaptionSegment, 0, len(subs.Items))
	for _, item := range subs.Items {
		segments = append(segments, models.CaptionSegment{
			Start: formatTimestamp(item.StartAt),
			End:   formatTimestamp(item.EndAt),
			Text:  strings.TrimSpace(item.String()),
		})
	}
	return segments, nil
}

func formatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Millisecond)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	d -= s * time.Second
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, d/time.Millisecond)
}
