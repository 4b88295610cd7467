package types

// Utterance is one timestamped speech span from the transcript. Immutable
// once parsed; selectors reference it by index and never mutate it.
type Utterance struct {
	Text       string  `json:"text"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Speaker    int     `json:"speaker"`
	Confidence float64 `json:"confidence"`
}

func (u Utterance) Duration() float64 {
	return u.End - u.Start
}

// TranscriptInsights carries derived, optional transcript metadata. Sentiment
// and entity annotations are pass-through: the core never interprets them.
type TranscriptInsights struct {
	Summary        string  `json:"summary"`
	Duration       float64 `json:"duration"`
	FullTranscript string  `json:"full_transcript"`
	Chapters       any     `json:"chapters,omitempty"`
	Entities       any     `json:"entities,omitempty"`
	Sentiment      any     `json:"sentiment,omitempty"`
}

// KeyMoment marks the most impactful instant inside a window.
type KeyMoment struct {
	Timestamp   float64 `json:"timestamp"`
	Description string  `json:"description"`
}

// CandidateWindow is a proposed short produced by either selection path.
// It has not been validated: negotiation owns clamping and overlap checks.
type CandidateWindow struct {
	StartTime          float64    `json:"start_time"`
	EndTime            float64    `json:"end_time"`
	Duration           float64    `json:"duration"`
	Text               string     `json:"text"`
	IncludedUtterances []int      `json:"segments_included"`
	Score              float64    `json:"engagement_score"`
	Rationale          string     `json:"reasoning"`
	KeyMoment          *KeyMoment `json:"key_moment,omitempty"`
}

// FinalizedWindow is a CandidateWindow that survived negotiation. It is the
// only input type the extraction engine accepts: duration is in range (or
// clamped to media bounds with Adjustment recording why), windows within a
// request never overlap, and Rank is 1-based in selection order.
type FinalizedWindow struct {
	CandidateWindow
	Rank       int    `json:"rank"`
	Adjustment string `json:"adjustment,omitempty"`
}

// Overlaps reports whether two windows share any part of the timeline.
func (w FinalizedWindow) Overlaps(other FinalizedWindow) bool {
	return w.StartTime < other.EndTime && other.StartTime < w.EndTime
}

// WindowExtraction records the fate of one finalized window during media
// extraction.
type WindowExtraction struct {
	Rank       int    `json:"rank"`
	ClipPath   string `json:"clip_path,omitempty"`
	Failed     bool   `json:"failed"`
	FailReason string `json:"fail_reason,omitempty"`
}

// ExtractionResult is the manifest the extraction engine reports back.
type ExtractionResult struct {
	OutputPath          string             `json:"output_path"`
	OutputName          string             `json:"output_name"`
	SizeBytes           int64              `json:"size_bytes"`
	DurationSeconds     float64            `json:"duration_seconds"`
	WindowsRequested    int                `json:"windows_requested"`
	WindowsMaterialized int                `json:"windows_materialized"`
	// SourcePath is the resolved local path of the downloaded source.
	// With the segment strategy there is no single local source and the
	// remote URL is recorded instead.
	SourcePath string `json:"source_path"`
	Windows             []WindowExtraction `json:"windows"`
}
