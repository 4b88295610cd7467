package types

import "context"

// TimeRange is a half-open [Start, End) span in source-media seconds.
type TimeRange struct {
	Start float64
	End   float64
}

// MediaInfo is the downloader's probe result for a remote source.
type MediaInfo struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Uploader string  `json:"uploader"`
	Duration float64 `json:"duration"`
}

// Proposer is the external black-box window scorer. Any error or garbage
// response is recovered one layer up by the heuristic selector; callers must
// never see a raw proposer failure.
type Proposer interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Downloader resolves remote sources to local files. Fetch with a nil
// timeRange downloads the full source; with a range it downloads only that
// section, which not every backend supports for every URL.
type Downloader interface {
	Fetch(ctx context.Context, url string, timeRange *TimeRange, destDir string) (string, error)
	Probe(ctx context.Context, url string) (*MediaInfo, error)
}

// TrimSpec controls how a single window is cut out of the source.
type TrimSpec struct {
	Start    float64
	Duration float64
	// VerticalCrop re-encodes with a 9:16 center crop instead of the
	// stream-copy fast path.
	VerticalCrop bool
}

// Transcoder wraps the external media tool (ffmpeg/ffprobe).
type Transcoder interface {
	Trim(ctx context.Context, inputPath, outputPath string, spec TrimSpec) error
	// Concat stream-copies the inputs, in order, into outputPath. Inputs must
	// share codec parameters; callers check with StreamProfile first.
	Concat(ctx context.Context, inputPaths []string, outputPath string) error
	ProbeDuration(ctx context.Context, path string) (float64, error)
	// StreamProfile returns a comparable codec/parameter signature for a
	// clip. Two clips with different profiles cannot be stream-copy
	// concatenated.
	StreamProfile(ctx context.Context, path string) (string, error)
}
