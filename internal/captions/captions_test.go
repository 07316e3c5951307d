package captions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPickTrackPrefersAutomaticCaptions(t *testing.T) {
	meta := &videoMetadata{
		ID:    "abc123",
		Title: "Some Video",
		AutomaticCaptions: map[string][]captionTrack{
			"en": {
				{Ext: "srv1", URL: "http://example.com/srv1"},
				{Ext: "vtt", URL: "http://example.com/auto.vtt"},
			},
		},
		Subtitles: map[string][]captionTrack{
			"en": {{Ext: "vtt", URL: "http://example.com/manual.vtt"}},
		},
	}

	track, err := pickTrack(meta, "en")
	require.NoError(t, err)
	assert.Equal(t, "abc123", track.VideoID)
	assert.Equal(t, "Some Video", track.Title)
	assert.Equal(t, "http://example.com/auto.vtt", track.URL)
}

func TestPickTrackFallsBackToManualSubtitles(t *testing.T) {
	meta := &videoMetadata{
		ID: "abc123",
		Subtitles: map[string][]captionTrack{
			"en": {{Ext: "vtt", URL: "http://example.com/manual.vtt"}},
		},
	}

	track, err := pickTrack(meta, "en")
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/manual.vtt", track.URL)
}

func TestPickTrackNoCaptions(t *testing.T) {
	meta := &videoMetadata{
		ID:        "abc123",
		Subtitles: map[string][]captionTrack{"pt": {{Ext: "vtt", URL: "http://example.com/pt.vtt"}}},
	}

	_, err := pickTrack(meta, "en")
	assert.ErrorIs(t, err, ErrNoCaptions)
}

func TestPickTrackNoVTTFormat(t *testing.T) {
	meta := &videoMetadata{
		ID: "abc123",
		AutomaticCaptions: map[string][]captionTrack{
			"en": {{Ext: "srv1", URL: "http://example.com/srv1"}, {Ext: "json3", URL: "http://example.com/json3"}},
		},
	}

	_, err := pickTrack(meta, "en")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestPickTrackMissingVideoID(t *testing.T) {
	_, err := pickTrack(&videoMetadata{}, "en")
	assert.ErrorIs(t, err, ErrResolutionFailed)
}
