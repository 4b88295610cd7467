package highlight

import (
	"strings"
	"testing"

	"github.com/boopesh07/VideoToShorts/internal/types"

	"github.com/stretchr/testify/assert"
)

func utterance(text string, start, end float64, confidence float64) types.Utterance {
	return types.Utterance{Text: text, Start: start, End: end, Confidence: confidence}
}

func TestScoreUtterance(t *testing.T) {
	cases := []struct {
		name string
		u    types.Utterance
		want int
	}{
		{"empty text", utterance("", 0, 1, 0.99), 0},
		{"plain statement", utterance("we walked to the store", 0, 1, 0.5), 0},
		{"question", utterance("why does this work?", 0, 1, 0.5), 3},
		{"lexicon term", utterance("here is a secret", 0, 1, 0.5), 2},
		{"lexicon term twice", utterance("secret upon secret", 0, 1, 0.5), 4},
		{"high confidence", utterance("interesting point here", 0, 1, 0.9), 1},
		{"long text", utterance(strings.Repeat("a", 101), 0, 1, 0.5), 1},
		{
			"stacked signals",
			utterance("This amazing trick is shocking! "+strings.Repeat("x", 100), 0, 1, 0.95),
			3 + 2 + 2 + 2 + 1 + 1,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ScoreUtterance(tc.u))
		})
	}
}

func TestSelectWindowsCoversWholeTranscriptWhenShorterThanTarget(t *testing.T) {
	// Six utterances spanning 0-26.1s; total is below the 30s target so any
	// seed window extends across the entire transcript and every later seed
	// collides with the first accepted window.
	utterances := []types.Utterance{
		utterance("Welcome back to the channel!", 0, 4.2, 0.95),
		utterance("today we cover planning", 4.2, 8.0, 0.7),
		utterance("here is the secret to it", 8.0, 12.5, 0.85),
		utterance("it is simpler than you think", 12.5, 17.0, 0.6),
		utterance("try it yourself", 17.0, 21.3, 0.5),
		utterance("thanks for watching", 21.3, 26.1, 0.9),
	}

	windows := SelectWindows(utterances, Options{TargetDuration: 30, MaxWindows: 3})

	assert.Len(t, windows, 1)
	assert.InDelta(t, 0, windows[0].StartTime, 1e-9)
	assert.InDelta(t, 26.1, windows[0].EndTime, 1e-9)
	assert.True(t, strings.HasPrefix(windows[0].Rationale, RationalePrefix))
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, windows[0].IncludedUtterances)
}

func TestSelectWindowsIsDeterministic(t *testing.T) {
	utterances := []types.Utterance{
		utterance("an amazing start!", 0, 10, 0.9),
		utterance("some filler words", 10, 40, 0.5),
		utterance("the shocking middle?", 40, 50, 0.9),
		utterance("more filler", 50, 80, 0.5),
		utterance("a crazy finish!", 80, 90, 0.9),
	}
	opts := Options{TargetDuration: 25, MaxWindows: 2}

	first := SelectWindows(utterances, opts)
	second := SelectWindows(utterances, opts)

	assert.Equal(t, first, second)
	assert.NotEmpty(t, first)
}

func TestSelectWindowsAcceptsNonOverlappingSeedsInScoreOrder(t *testing.T) {
	utterances := []types.Utterance{
		utterance("This is a shocking secret trick!", 0, 10, 0.9), // strongest seed
		utterance("plain talk", 10, 30, 0.5),
		utterance("plain talk continues", 30, 60, 0.5),
		utterance("an important question?", 60, 70, 0.9), // second seed
		utterance("closing remarks", 70, 95, 0.5),
	}

	windows := SelectWindows(utterances, Options{TargetDuration: 20, MaxWindows: 3})

	assert.GreaterOrEqual(t, len(windows), 2)
	assert.Greater(t, windows[0].Score, windows[1].Score)
	for i := range windows {
		for j := i + 1; j < len(windows); j++ {
			noOverlap := windows[i].EndTime <= windows[j].StartTime || windows[j].EndTime <= windows[i].StartTime
			assert.True(t, noOverlap, "windows %d and %d overlap", i, j)
		}
	}
}

func TestSelectWindowsEvenSpacingFallback(t *testing.T) {
	// Nothing scores: short plain text, low confidence.
	utterances := []types.Utterance{
		utterance("one", 0, 5, 0.5),
		utterance("two", 5, 10, 0.5),
		utterance("three", 10, 15, 0.5),
		utterance("four", 15, 20, 0.5),
	}

	windows := SelectWindows(utterances, Options{TargetDuration: 25, MaxWindows: 2})

	assert.Len(t, windows, 2)
	assert.InDelta(t, 0, windows[0].StartTime, 1e-9)
	assert.InDelta(t, 10, windows[0].EndTime, 1e-9)
	assert.InDelta(t, 10, windows[1].StartTime, 1e-9)
	assert.InDelta(t, 20, windows[1].EndTime, 1e-9)
	assert.Contains(t, windows[0].Rationale, RationalePrefix)
}

func TestSelectWindowsSkipsEmptyIntervals(t *testing.T) {
	// All speech in the first quarter; remaining intervals have no
	// utterance starts and are skipped.
	utterances := []types.Utterance{
		utterance("one", 0, 2, 0.5),
		utterance("two", 2, 4, 0.5),
	}
	// Stretch total duration with a trailing silent utterance marker.
	utterances = append(utterances, utterance("", 4, 40, 0))

	windows := SelectWindows(utterances, Options{TargetDuration: 10, MaxWindows: 4})

	assert.NotEmpty(t, windows)
	for _, w := range windows {
		assert.NotEmpty(t, strings.TrimSpace(w.Text))
	}
}

func TestSelectWindowsEmptyTranscript(t *testing.T) {
	assert.Nil(t, SelectWindows(nil, Options{TargetDuration: 30, MaxWindows: 3}))
}
