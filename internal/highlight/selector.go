// Package highlight implements the deterministic window selector. It is both
// the cheap first-pass highlight detector and the guaranteed fallback when
// the external proposer is unavailable or returns garbage: no network, no
// model calls, no randomness.
package highlight

import (
	"fmt"
	"sort"
	"strings"

	"github.com/boopesh07/VideoToShorts/internal/transcript"
	"github.com/boopesh07/VideoToShorts/internal/types"
)

const (
	// DefaultExtensionTarget is how long a seed window grows to when the
	// caller does not supply a target duration.
	DefaultExtensionTarget = 25.0

	fallbackScore = 6.0

	// RationalePrefix marks windows that came from the deterministic
	// selector rather than the external proposer.
	RationalePrefix = "Fallback selection"
)

// engagementLexicon are terms whose presence suggests clip-worthy content.
// Matched case-insensitively as substrings.
var engagementLexicon = []string{
	"amazing", "incredible", "important", "secret", "tip", "trick", "hack",
	"surprising", "shocking", "must", "need to know", "game changer", "wow",
	"unbelievable", "crazy", "insane", "perfect", "awesome", "fantastic",
}

// Options control window selection. Zero values fall back to defaults.
type Options struct {
	// TargetDuration is the duration a seed window is extended toward.
	TargetDuration float64
	// MaxWindows caps how many non-overlapping windows are returned.
	MaxWindows int
}

func (o Options) withDefaults() Options {
	if o.TargetDuration <= 0 {
		o.TargetDuration = DefaultExtensionTarget
	}
	if o.MaxWindows <= 0 {
		o.MaxWindows = 1
	}
	return o
}

type seed struct {
	index int
	score int
}

// SelectWindows scores every utterance, grows windows around the strongest
// seeds, and greedily returns up to MaxWindows non-overlapping candidates in
// acceptance order. Transcripts where nothing scores fall back to evenly
// spaced windows so a non-empty transcript always yields at least one
// candidate.
func SelectWindows(utterances []types.Utterance, opts Options) []types.CandidateWindow {
	opts = opts.withDefaults()
	if len(utterances) == 0 {
		return nil
	}

	seeds := scoreSeeds(utterances)
	if len(seeds) == 0 {
		return evenlySpacedWindows(utterances, opts)
	}

	// Stable sort keeps time order among equal scores, which keeps the
	// whole selection deterministic.
	sort.SliceStable(seeds, func(i, j int) bool {
		return seeds[i].score > seeds[j].score
	})

	accepted := make([]types.CandidateWindow, 0, opts.MaxWindows)
	for _, s := range seeds {
		if len(accepted) >= opts.MaxWindows {
			break
		}
		candidate := extendAroundSeed(utterances, s, opts.TargetDuration)
		if strings.TrimSpace(candidate.Text) == "" {
			continue
		}
		if overlapsAny(candidate, accepted) {
			continue
		}
		accepted = append(accepted, candidate)
	}

	if len(accepted) == 0 {
		return evenlySpacedWindows(utterances, opts)
	}
	return accepted
}

// ScoreUtterance is the deterministic engagement score for one utterance:
// +3 for a question or exclamation, +2 per lexicon term occurrence, +1 for
// text over 100 characters, +1 for confidence above 0.8.
func ScoreUtterance(u types.Utterance) int {
	text := strings.TrimSpace(u.Text)
	if text == "" {
		return 0
	}

	score := 0
	if strings.ContainsAny(text, "?!") {
		score += 3
	}

	lower := strings.ToLower(text)
	for _, term := range engagementLexicon {
		score += 2 * strings.Count(lower, term)
	}

	if len(text) > 100 {
		score++
	}
	if u.Confidence > 0.8 {
		score++
	}
	return score
}

func scoreSeeds(utterances []types.Utterance) []seed {
	var seeds []seed
	for i, u := range utterances {
		if score := ScoreUtterance(u); score > 0 {
			seeds = append(seeds, seed{index: i, score: score})
		}
	}
	return seeds
}

// extendAroundSeed grows a window symmetrically around the seed utterance by
// pulling in adjacent utterances until the window reaches the target
// duration or runs out of transcript. Extension floors at the sequence
// boundaries; the truncated half is not redistributed to the other side.
func extendAroundSeed(utterances []types.Utterance, s seed, target float64) types.CandidateWindow {
	lo, hi := s.index, s.index

	duration := func() float64 {
		return utterances[hi].End - utterances[lo].Start
	}

	for duration() < target {
		grew := false
		if lo > 0 {
			lo--
			grew = true
		}
		if duration() >= target {
			break
		}
		if hi < len(utterances)-1 {
			hi++
			grew = true
		}
		if !grew {
			break
		}
	}

	indices := make([]int, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		indices = append(indices, i)
	}

	seedUtterance := utterances[s.index]
	return types.CandidateWindow{
		StartTime:          utterances[lo].Start,
		EndTime:            utterances[hi].End,
		Duration:           utterances[hi].End - utterances[lo].Start,
		Text:               transcript.CombinedText(utterances, indices),
		IncludedUtterances: indices,
		Score:              float64(s.score),
		Rationale:          fmt.Sprintf("%s - seed at %.1fs scored %d engagement points", RationalePrefix, seedUtterance.Start, s.score),
		KeyMoment: &types.KeyMoment{
			Timestamp:   seedUtterance.Start,
			Description: "Highest scoring utterance in window",
		},
	}
}

// evenlySpacedWindows handles degenerate transcripts where no utterance
// scored: split the timeline into MaxWindows equal intervals and window each
// interval that contains speech.
func evenlySpacedWindows(utterances []types.Utterance, opts Options) []types.CandidateWindow {
	total := transcript.TotalDuration(utterances)
	if total <= 0 {
		return nil
	}

	step := total / float64(opts.MaxWindows)
	windows := make([]types.CandidateWindow, 0, opts.MaxWindows)

	for i := 0; i < opts.MaxWindows; i++ {
		intervalStart := float64(i) * step
		intervalEnd := intervalStart + step
		if i == opts.MaxWindows-1 {
			intervalEnd = total
		}

		var indices []int
		for idx, u := range utterances {
			if u.Start >= intervalStart && u.Start < intervalEnd {
				indices = append(indices, idx)
			}
		}
		// The last interval's closing bound is inclusive so the final
		// utterance is never orphaned.
		if i == opts.MaxWindows-1 {
			for idx, u := range utterances {
				if u.Start == intervalEnd && !containsInt(indices, idx) {
					indices = append(indices, idx)
				}
			}
		}
		if len(indices) == 0 {
			continue
		}

		text := transcript.CombinedText(utterances, indices)
		if strings.TrimSpace(text) == "" {
			continue
		}

		windows = append(windows, types.CandidateWindow{
			StartTime:          intervalStart,
			EndTime:            intervalEnd,
			Duration:           intervalEnd - intervalStart,
			Text:               text,
			IncludedUtterances: indices,
			Score:              fallbackScore,
			Rationale:          fmt.Sprintf("%s - even spacing interval %d with %d words", RationalePrefix, i+1, len(strings.Fields(text))),
			KeyMoment: &types.KeyMoment{
				Timestamp:   intervalStart + (intervalEnd-intervalStart)/2,
				Description: "Mid-interval",
			},
		})
	}

	return windows
}

func overlapsAny(candidate types.CandidateWindow, accepted []types.CandidateWindow) bool {
	for _, w := range accepted {
		if candidate.StartTime < w.EndTime && w.StartTime < candidate.EndTime {
			return true
		}
	}
	return false
}

func containsInt(values []int, target int) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
