// Package transcript normalizes raw transcription payloads into an ordered
// utterance sequence. It owns the Utterance lifecycle: selectors reference
// parsed utterances but never mutate them.
package transcript

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/boopesh07/VideoToShorts/internal/types"
	apperrors "github.com/boopesh07/VideoToShorts/pkg/errors"
)

// Parse extracts the ordered utterance sequence from a raw transcription
// result. The root container shape is mandatory; defects inside a single
// utterance are tolerated by substituting defaults, never by dropping the
// whole transcript.
func Parse(raw json.RawMessage) ([]types.Utterance, error) {
	root, err := decodeRoot(raw)
	if err != nil {
		return nil, err
	}

	result, ok := mapValue(root, "result")
	if !ok {
		return nil, apperrors.New(apperrors.CodeMalformedTranscript, "transcript missing result container")
	}
	transcription, ok := mapValue(result, "transcription")
	if !ok {
		return nil, apperrors.New(apperrors.CodeMalformedTranscript, "transcript missing result.transcription")
	}

	rawUtterances, ok := transcription["utterances"].([]any)
	if !ok {
		return nil, apperrors.New(apperrors.CodeMalformedTranscript, "transcript missing utterances list")
	}

	utterances := make([]types.Utterance, 0, len(rawUtterances))
	for _, entry := range rawUtterances {
		fields, _ := entry.(map[string]any)
		u := types.Utterance{
			Text:       stringField(fields, "text"),
			Start:      floatField(fields, "start"),
			End:        floatField(fields, "end"),
			Speaker:    int(floatField(fields, "speaker")),
			Confidence: floatField(fields, "confidence"),
		}
		if u.End < u.Start {
			u.End = u.Start
		}
		utterances = append(utterances, u)
	}

	// Timestamps are monotonic in practice but not guaranteed by the
	// transcription service; selectors assume time order.
	sort.SliceStable(utterances, func(i, j int) bool {
		return utterances[i].Start < utterances[j].Start
	})

	return utterances, nil
}

// ExtractInsights pulls derived metadata out of the raw result. All fields
// are optional; missing ones default to empty. Never fails.
func ExtractInsights(raw json.RawMessage) types.TranscriptInsights {
	root, err := decodeRoot(raw)
	if err != nil {
		return types.TranscriptInsights{}
	}

	result, _ := mapValue(root, "result")
	transcription, _ := mapValue(result, "transcription")
	metadata, _ := mapValue(result, "metadata")
	summarization, _ := mapValue(result, "summarization")
	chapters, _ := mapValue(result, "chapterization")
	entities, _ := mapValue(result, "named_entity_recognition")
	sentiment, _ := mapValue(result, "sentiment_analysis")

	return types.TranscriptInsights{
		Summary:        stringField(summarization, "results"),
		Duration:       floatField(metadata, "audio_duration"),
		FullTranscript: stringField(transcription, "full_transcript"),
		Chapters:       anyField(chapters, "results"),
		Entities:       anyField(entities, "results"),
		Sentiment:      anyField(sentiment, "results"),
	}
}

// TotalDuration is the transcript's end-of-speech timestamp.
func TotalDuration(utterances []types.Utterance) float64 {
	var max float64
	for _, u := range utterances {
		if u.End > max {
			max = u.End
		}
	}
	return max
}

// CombinedText concatenates the text of the given utterance indices in time
// order, skipping blanks and out-of-range indices.
func CombinedText(utterances []types.Utterance, indices []int) string {
	parts := make([]string, 0, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= len(utterances) {
			continue
		}
		if text := strings.TrimSpace(utterances[idx].Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

func decodeRoot(raw json.RawMessage) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, apperrors.New(apperrors.CodeMalformedTranscript, "empty transcript payload")
	}
	var root map[string]any
	if err := json.Unmarshal(raw, &root); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeMalformedTranscript, "transcript is not a JSON object", err)
	}
	return root, nil
}

func mapValue(m map[string]any, key string) (map[string]any, bool) {
	if m == nil {
		return nil, false
	}
	child, ok := m[key].(map[string]any)
	return child, ok
}

func stringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

func floatField(m map[string]any, key string) float64 {
	if m == nil {
		return 0
	}
	f, _ := m[key].(float64)
	return f
}

func anyField(m map[string]any, key string) any {
	if m == nil {
		return nil
	}
	return m[key]
}
