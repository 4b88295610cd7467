// Package proposer adapts a black-box language model into a window source.
// It builds a bounded prompt from the transcript, parses the model's
// free-form reply, and sanity-checks every returned segment. Anything that
// goes wrong here is a ProposerFailure; callers recover with the
// deterministic selector and must never surface this error on its own.
package proposer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/boopesh07/VideoToShorts/internal/transcript"
	"github.com/boopesh07/VideoToShorts/internal/types"
	apperrors "github.com/boopesh07/VideoToShorts/pkg/errors"
	"github.com/boopesh07/VideoToShorts/pkg/util"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// textMismatchThreshold is the maximum normalized edit distance between a
// returned segment's text and the transcript text for its claimed
// utterances. Models paraphrase; above this the segment is fabricated.
const textMismatchThreshold = 0.5

// Options bound one proposal round.
type Options struct {
	TargetDuration float64
	Tolerance      float64
	MaxSegments    int
}

// Adapter drives one external model. Stateless apart from the client,
// safe for concurrent use.
type Adapter struct {
	model types.Proposer
}

func NewAdapter(model types.Proposer) *Adapter {
	return &Adapter{model: model}
}

// Propose asks the model for up to MaxSegments windows near TargetDuration
// and returns them in the model's rank order. The call failing, the reply
// not containing a parseable JSON block, or every segment failing
// validation all come back as a ProposerFailure.
func (a *Adapter) Propose(ctx context.Context, utterances []types.Utterance, insights types.TranscriptInsights, opts Options) ([]types.CandidateWindow, error) {
	if a == nil || a.model == nil {
		return nil, apperrors.New(apperrors.CodeProposerFailure, "no proposer configured")
	}
	if len(utterances) == 0 {
		return nil, apperrors.New(apperrors.CodeProposerFailure, "empty transcript")
	}

	prompt, err := buildPrompt(utterances, insights, opts)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeProposerFailure, "failed to build proposer prompt", err)
	}

	reply, err := a.model.Generate(ctx, prompt)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeProposerFailure, "proposer call failed", err)
	}

	candidates, err := parseReply(reply)
	if err != nil {
		return nil, err
	}

	valid := make([]types.CandidateWindow, 0, len(candidates))
	for _, c := range candidates {
		if validateCandidate(&c, utterances) {
			valid = append(valid, c)
		}
	}
	if len(valid) == 0 {
		return nil, apperrors.New(apperrors.CodeProposerFailure, "proposer returned no usable segments")
	}
	if opts.MaxSegments > 0 && len(valid) > opts.MaxSegments {
		valid = valid[:opts.MaxSegments]
	}
	return valid, nil
}

type promptUtterance struct {
	Index int     `json:"index"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

func buildPrompt(utterances []types.Utterance, insights types.TranscriptInsights, opts Options) (string, error) {
	quoted := utterances
	truncationNote := ""
	if len(quoted) > types.ProposerPromptLimit {
		quoted = quoted[:types.ProposerPromptLimit]
		truncationNote = fmt.Sprintf("NOTE: only the first %d of %d utterances are shown above; later timestamps extend to the full video duration.",
			types.ProposerPromptLimit, len(utterances))
	}

	lines := make([]promptUtterance, 0, len(quoted))
	for i, u := range quoted {
		lines = append(lines, promptUtterance{Index: i, Start: u.Start, End: u.End, Text: u.Text})
	}
	encoded, err := json.MarshalIndent(lines, "", "  ")
	if err != nil {
		return "", err
	}

	duration := insights.Duration
	if duration <= 0 {
		duration = transcript.TotalDuration(utterances)
	}
	summary := insights.Summary
	if strings.TrimSpace(summary) == "" {
		summary = "not available"
	}

	return fmt.Sprintf(types.SegmentProposerPrompt,
		duration,
		summary,
		len(utterances),
		string(encoded),
		truncationNote,
		opts.MaxSegments,
		int(opts.TargetDuration),
		int(opts.TargetDuration),
		int(opts.Tolerance),
		opts.MaxSegments,
	), nil
}

type proposerReply struct {
	ViralSegments []types.CandidateWindow `json:"viral_segments"`
}

func parseReply(reply string) ([]types.CandidateWindow, error) {
	block := util.ExtractJsonFromText(reply)
	if strings.TrimSpace(block) == "" {
		return nil, apperrors.New(apperrors.CodeProposerFailure, "proposer reply contains no JSON block")
	}

	var parsed proposerReply
	if err := json.Unmarshal([]byte(block), &parsed); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeProposerFailure, "failed to parse proposer reply", err)
	}
	if len(parsed.ViralSegments) == 0 {
		return nil, apperrors.New(apperrors.CodeProposerFailure, "proposer reply has no viral_segments")
	}
	return parsed.ViralSegments, nil
}

// validateCandidate normalizes one returned segment in place and reports
// whether it is usable. Timestamps must be ordered, text must be present,
// and when the model names its source utterances the text must roughly
// match what was actually said there.
func validateCandidate(c *types.CandidateWindow, utterances []types.Utterance) bool {
	if c.EndTime <= c.StartTime {
		return false
	}
	if strings.TrimSpace(c.Text) == "" {
		return false
	}
	c.Duration = c.EndTime - c.StartTime

	if len(c.IncludedUtterances) > 0 {
		expected := transcript.CombinedText(utterances, c.IncludedUtterances)
		if expected != "" && !textRoughlyMatches(c.Text, expected) {
			return false
		}
	}
	return true
}

func textRoughlyMatches(got, want string) bool {
	g := []rune(strings.ToLower(strings.TrimSpace(got)))
	w := []rune(strings.ToLower(strings.TrimSpace(want)))
	longer := len(g)
	if len(w) > longer {
		longer = len(w)
	}
	if longer == 0 {
		return true
	}
	distance := levenshtein.DistanceForStrings(g, w, levenshtein.DefaultOptions)
	return float64(distance)/float64(longer) <= textMismatchThreshold
}
