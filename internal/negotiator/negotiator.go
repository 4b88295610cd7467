// Package negotiator turns an unordered candidate pool into the ranked,
// non-overlapping, duration-checked windows the extraction engine accepts.
// Both selection paths feed through here; proposer output is never trusted
// as already valid.
package negotiator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/boopesh07/VideoToShorts/internal/types"
)

const (
	defaultTargetDuration = 30.0
	defaultTolerance      = 3.0
	defaultMinClipSeconds = 15.0
	defaultMaxClipSeconds = 60.0
	defaultMaxWindows     = 5
)

// Options bound the negotiation. MediaDuration is the probed source length
// in seconds and must be positive; the rest fall back to defaults when zero.
type Options struct {
	TargetDuration float64
	Tolerance      float64
	MinClipSeconds float64
	MaxClipSeconds float64
	MaxWindows     int
	MediaDuration  float64
}

func (o Options) withDefaults() Options {
	if o.TargetDuration <= 0 {
		o.TargetDuration = defaultTargetDuration
	}
	if o.Tolerance <= 0 {
		o.Tolerance = defaultTolerance
	}
	if o.MinClipSeconds <= 0 {
		o.MinClipSeconds = defaultMinClipSeconds
	}
	if o.MaxClipSeconds <= 0 {
		o.MaxClipSeconds = defaultMaxClipSeconds
	}
	if o.MaxWindows <= 0 {
		o.MaxWindows = defaultMaxWindows
	}
	return o
}

// durationRange is the effective band a finalized window must land in:
// the tolerance band around the target, tightened by the absolute clip
// length limits.
func (o Options) durationRange() (lo, hi float64) {
	lo = o.TargetDuration - o.Tolerance
	if lo < o.MinClipSeconds {
		lo = o.MinClipSeconds
	}
	hi = o.TargetDuration + o.Tolerance
	if hi > o.MaxClipSeconds {
		hi = o.MaxClipSeconds
	}
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

// Negotiate reconciles candidates against the target duration, the tolerance
// band, and the media bounds. Candidates with empty text are dropped, the
// rest are clamped into [0, MediaDuration] and duration-adjusted (adjustment
// is preferred over rejection), then the survivors are sorted by score and
// greedily accepted while non-overlapping, up to MaxWindows. Ranks are
// assigned in acceptance order starting at 1.
func Negotiate(candidates []types.CandidateWindow, opts Options) []types.FinalizedWindow {
	opts = opts.withDefaults()

	eligible := make([]types.FinalizedWindow, 0, len(candidates))
	for _, c := range candidates {
		if w, ok := normalize(c, opts); ok {
			eligible = append(eligible, w)
		}
	}

	// Stable keeps original order among equal scores, so the whole pass
	// is deterministic for a given candidate list.
	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].Score > eligible[j].Score
	})

	finalized := make([]types.FinalizedWindow, 0, opts.MaxWindows)
	for _, w := range eligible {
		if len(finalized) >= opts.MaxWindows {
			break
		}
		if overlapsAny(w, finalized) {
			continue
		}
		w.Rank = len(finalized) + 1
		finalized = append(finalized, w)
	}
	return finalized
}

// normalize clamps one candidate into media bounds and into the effective
// duration range. Windows pinned against a media bound are exempt from the
// duration range but carry the adjustment reason so callers can see why.
func normalize(c types.CandidateWindow, opts Options) (types.FinalizedWindow, bool) {
	if strings.TrimSpace(c.Text) == "" {
		return types.FinalizedWindow{}, false
	}

	var adjustments []string

	start, end := c.StartTime, c.EndTime
	mediaClamped := false
	if start < 0 {
		start = 0
		mediaClamped = true
		adjustments = append(adjustments, "start clamped to media begin")
	}
	if opts.MediaDuration > 0 && end > opts.MediaDuration {
		end = opts.MediaDuration
		mediaClamped = true
		adjustments = append(adjustments, "end clamped to media end")
	}
	if end <= start {
		return types.FinalizedWindow{}, false
	}

	lo, hi := opts.durationRange()
	duration := end - start
	switch {
	case mediaClamped:
		// Already pinned against the media bounds; the recorded
		// adjustment stands in for the duration range.
	case duration > hi:
		end = start + hi
		adjustments = append(adjustments, fmt.Sprintf("end pulled in to %.1fs duration", hi))
	case duration < lo:
		extended := start + lo
		if opts.MediaDuration > 0 && extended > opts.MediaDuration {
			// Cannot reach the minimum duration inside the media;
			// keep whatever runs to the media end.
			if end < opts.MediaDuration {
				end = opts.MediaDuration
				adjustments = append(adjustments, "end extended to media end")
			} else {
				adjustments = append(adjustments, "kept at media end, shorter than duration band")
			}
		} else {
			end = extended
			adjustments = append(adjustments, fmt.Sprintf("end pushed out to %.1fs duration", lo))
		}
	}

	c.StartTime = start
	c.EndTime = end
	c.Duration = end - start
	return types.FinalizedWindow{
		CandidateWindow: c,
		Adjustment:      strings.Join(adjustments, "; "),
	}, true
}

func overlapsAny(w types.FinalizedWindow, accepted []types.FinalizedWindow) bool {
	for _, a := range accepted {
		if w.Overlaps(a) {
			return true
		}
	}
	return false
}
