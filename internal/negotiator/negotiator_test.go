package negotiator

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/boopesh07/VideoToShorts/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidate(start, end, score float64, text string) types.CandidateWindow {
	return types.CandidateWindow{
		StartTime: start,
		EndTime:   end,
		Duration:  end - start,
		Text:      text,
		Score:     score,
	}
}

func defaultOpts(mediaDuration float64) Options {
	return Options{
		TargetDuration: 30,
		Tolerance:      3,
		MinClipSeconds: 15,
		MaxClipSeconds: 60,
		MaxWindows:     5,
		MediaDuration:  mediaDuration,
	}
}

func TestNegotiateClampsOutOfRangeTimestamps(t *testing.T) {
	windows := Negotiate([]types.CandidateWindow{
		candidate(-5, 40, 7, "runs past both media bounds"),
	}, defaultOpts(35))

	require.Len(t, windows, 1)
	assert.InDelta(t, 0, windows[0].StartTime, 1e-9)
	assert.InDelta(t, 35, windows[0].EndTime, 1e-9)
	assert.InDelta(t, 35, windows[0].Duration, 1e-9)
	assert.Equal(t, 1, windows[0].Rank)
	assert.NotEmpty(t, windows[0].Adjustment)
}

func TestNegotiateDropsOverlappingLowerScore(t *testing.T) {
	windows := Negotiate([]types.CandidateWindow{
		candidate(10, 40, 8.0, "first proposal"),
		candidate(30, 60, 6.0, "second proposal"),
	}, defaultOpts(120))

	require.Len(t, windows, 1)
	assert.InDelta(t, 10, windows[0].StartTime, 1e-9)
	assert.InDelta(t, 40, windows[0].EndTime, 1e-9)
	assert.Equal(t, 1, windows[0].Rank)
}

func TestNegotiateDropsEmptyText(t *testing.T) {
	windows := Negotiate([]types.CandidateWindow{
		candidate(0, 30, 9, "   "),
		candidate(40, 70, 5, "kept"),
	}, defaultOpts(120))

	require.Len(t, windows, 1)
	assert.Equal(t, "kept", windows[0].Text)
}

func TestNegotiateAdjustsDurationInsteadOfRejecting(t *testing.T) {
	opts := defaultOpts(300)

	t.Run("too long is pulled in", func(t *testing.T) {
		windows := Negotiate([]types.CandidateWindow{
			candidate(10, 60, 5, "fifty seconds of talk"),
		}, opts)

		require.Len(t, windows, 1)
		assert.InDelta(t, 33, windows[0].Duration, 1e-9)
		assert.Contains(t, windows[0].Adjustment, "pulled in")
	})

	t.Run("too short is pushed out", func(t *testing.T) {
		windows := Negotiate([]types.CandidateWindow{
			candidate(10, 20, 5, "ten seconds of talk"),
		}, opts)

		require.Len(t, windows, 1)
		assert.InDelta(t, 27, windows[0].Duration, 1e-9)
		assert.Contains(t, windows[0].Adjustment, "pushed out")
	})
}

func TestNegotiateShortMediaKeepsWindowToMediaEnd(t *testing.T) {
	// The whole transcript is shorter than the minimum duration band; the
	// window stays pinned at the media end instead of being rejected.
	windows := Negotiate([]types.CandidateWindow{
		candidate(0, 26.1, 4, "entire short video"),
	}, defaultOpts(26.1))

	require.Len(t, windows, 1)
	assert.InDelta(t, 0, windows[0].StartTime, 1e-9)
	assert.InDelta(t, 26.1, windows[0].EndTime, 1e-9)
	assert.Contains(t, windows[0].Adjustment, "kept at media end")
}

func TestNegotiateRanksByScoreWithStableTies(t *testing.T) {
	windows := Negotiate([]types.CandidateWindow{
		candidate(0, 30, 5, "earlier tie"),
		candidate(50, 80, 9, "winner"),
		candidate(100, 130, 5, "later tie"),
	}, defaultOpts(300))

	require.Len(t, windows, 3)
	assert.Equal(t, "winner", windows[0].Text)
	assert.Equal(t, "earlier tie", windows[1].Text)
	assert.Equal(t, "later tie", windows[2].Text)
	for i, w := range windows {
		assert.Equal(t, i+1, w.Rank)
	}
}

func TestNegotiateCapsAtMaxWindows(t *testing.T) {
	opts := defaultOpts(1000)
	opts.MaxWindows = 2

	var candidates []types.CandidateWindow
	for i := 0; i < 5; i++ {
		start := float64(i) * 50
		candidates = append(candidates, candidate(start, start+30, float64(10-i), fmt.Sprintf("window %d", i)))
	}

	windows := Negotiate(candidates, opts)
	assert.Len(t, windows, 2)
}

func TestNegotiateOutputNeverOverlaps(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 50; trial++ {
		opts := defaultOpts(600)
		var candidates []types.CandidateWindow
		for i := 0; i < 20; i++ {
			start := rng.Float64()*650 - 25
			length := rng.Float64() * 90
			candidates = append(candidates, candidate(start, start+length, rng.Float64()*10, "speech"))
		}

		windows := Negotiate(candidates, opts)
		for i := range windows {
			for j := i + 1; j < len(windows); j++ {
				assert.False(t, windows[i].Overlaps(windows[j]),
					"trial %d: windows %d and %d overlap", trial, i, j)
			}
		}
	}
}

func TestNegotiateDurationStaysInBandUnlessMediaClamped(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	opts := defaultOpts(600)
	lo, hi := opts.durationRange()

	var candidates []types.CandidateWindow
	for i := 0; i < 30; i++ {
		start := rng.Float64() * 550
		length := rng.Float64() * 120
		candidates = append(candidates, candidate(start, start+length, rng.Float64()*10, "speech"))
	}

	for _, w := range Negotiate(candidates, opts) {
		if w.Adjustment != "" && w.EndTime == opts.MediaDuration {
			continue
		}
		assert.GreaterOrEqual(t, w.Duration, lo)
		assert.LessOrEqual(t, w.Duration, hi)
	}
}

func TestNegotiateEmptyInput(t *testing.T) {
	assert.Empty(t, Negotiate(nil, defaultOpts(100)))
}
