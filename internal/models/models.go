package models

// CaptionSegment is a single timed line of subtitle text, in document order.
// Timestamps are formatted as HH:MM:SS.mmm.
type CaptionSegment struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Text  string `json:"text"`
}

// VideoCaptions bundles the resolved video identity with its parsed captions.
type VideoCaptions struct {
	VideoID  string
	Title    string
	Segments []CaptionSegment
}

// Flashcard is one candidate card proposed by the generation model.
type Flashcard struct {
	EnglishSentence       string `json:"english_sentence"`
	PortugueseTranslation string `json:"portuguese_translation"`
	TermTranslation       string `json:"term_translation"`
}

// SubtitleContext carries the subtitle line a term was selected from plus its
// neighbours. The neighbours only disambiguate the sense of the term; they are
// not topical constraints on generated sentences.
type SubtitleContext struct {
	Previous string
	Current  string
	Next     string
}

// DuplicateStatus pairs a candidate card with the deck lookup outcome.
type DuplicateStatus struct {
	Flashcard   Flashcard `json:"flashcard"`
	IsDuplicate bool      `json:"is_duplicate"`
}

// SubmitResult summarizes one batch submission to the deck service.
type SubmitResult struct {
	Submitted int
	Failed    int
	Message   string
}
