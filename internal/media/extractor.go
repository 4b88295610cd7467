// Package media resolves a source video and materializes finalized windows
// into one output clip. All intermediate files live in a per-request scratch
// directory that is removed on every exit path; only the final artifact
// lands in the stable output directory.
package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/boopesh07/VideoToShorts/internal/types"
	"github.com/boopesh07/VideoToShorts/log"
	apperrors "github.com/boopesh07/VideoToShorts/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// StrategyFull downloads the whole source once and trims each window
	// locally. Default because it tolerates downloader limitations.
	StrategyFull = "full"
	// StrategySegment downloads each window's time range directly from
	// the remote source.
	StrategySegment = "segment"

	defaultParallelism = 3
)

// ExtractorConfig is fixed per extractor; everything request-scoped is
// derived inside Extract from the per-request token.
type ExtractorConfig struct {
	ScratchRoot  string
	OutputRoot   string
	Strategy     string
	VerticalCrop bool
	Parallelism  int
}

// Extractor runs the extraction stage against injected downloader and
// transcoder implementations. Safe for concurrent use; every request gets
// its own scratch directory keyed by a fresh token.
type Extractor struct {
	downloader types.Downloader
	transcoder types.Transcoder
	cfg        ExtractorConfig
}

func NewExtractor(downloader types.Downloader, transcoder types.Transcoder, cfg ExtractorConfig) *Extractor {
	if cfg.Strategy == "" {
		cfg.Strategy = StrategyFull
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = defaultParallelism
	}
	return &Extractor{downloader: downloader, transcoder: transcoder, cfg: cfg}
}

// Extract materializes the windows from sourceURL into a single output file.
// Each window is trimmed independently and in parallel; a window that fails
// is excluded and reported, not fatal unless every window fails. With more
// than one surviving clip the clips are stream-copy concatenated in rank
// order, after a codec profile check that turns incompatible inputs into a
// ConcatenationError instead of a corrupt file. On a concatenation error the
// manifest is still returned alongside the error so callers can report which
// windows had been trimmed.
func (e *Extractor) Extract(ctx context.Context, sourceURL string, windows []types.FinalizedWindow) (*types.ExtractionResult, error) {
	if len(windows) == 0 {
		return nil, apperrors.New(apperrors.CodeNoEligibleWindows, "no windows to extract")
	}

	token := uuid.New().String()
	scratch := filepath.Join(e.cfg.ScratchRoot, token)
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeFileWriteError, "failed to create scratch directory", err)
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			log.GetLogger().Warn("failed to clean scratch directory",
				zap.String("dir", scratch), zap.Error(err))
		}
	}()

	ordered := make([]types.FinalizedWindow, len(windows))
	copy(ordered, windows)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Rank < ordered[j].Rank
	})

	result := &types.ExtractionResult{
		WindowsRequested: len(ordered),
		Windows:          make([]types.WindowExtraction, len(ordered)),
	}

	var err error
	switch e.cfg.Strategy {
	case StrategySegment:
		err = e.fetchSections(ctx, sourceURL, ordered, scratch, result)
	default:
		err = e.fetchThenTrim(ctx, sourceURL, ordered, scratch, result)
	}
	if err != nil {
		return nil, err
	}

	clips := make([]string, 0, len(ordered))
	for _, w := range result.Windows {
		if !w.Failed {
			clips = append(clips, w.ClipPath)
		}
	}
	if len(clips) == 0 {
		return nil, apperrors.New(apperrors.CodePerWindowExtraction, "every window failed to extract")
	}

	if err := os.MkdirAll(e.cfg.OutputRoot, 0o755); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeFileWriteError, "failed to create output directory", err)
	}
	result.OutputName = fmt.Sprintf("shorts_%s.mp4", token)
	result.OutputPath = filepath.Join(e.cfg.OutputRoot, result.OutputName)

	if len(clips) == 1 {
		if err := copyFile(clips[0], result.OutputPath); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeFileWriteError, "failed to publish clip", err)
		}
		result.WindowsMaterialized = 1
	} else {
		// Stitch inside the scratch dir so a failed concat never leaves
		// a partial file in the served output root.
		stitched := filepath.Join(scratch, result.OutputName)
		if err := e.concatCompatible(ctx, clips, stitched); err != nil {
			// The caller still gets the manifest: which windows were
			// trimmed, and that none made it into a stitched output.
			result.OutputPath = ""
			result.OutputName = ""
			return result, err
		}
		if err := copyFile(stitched, result.OutputPath); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeFileWriteError, "failed to publish stitched output", err)
		}
		result.WindowsMaterialized = len(clips)
	}

	if info, statErr := os.Stat(result.OutputPath); statErr == nil {
		result.SizeBytes = info.Size()
	}
	if duration, probeErr := e.transcoder.ProbeDuration(ctx, result.OutputPath); probeErr == nil {
		result.DurationSeconds = duration
	}
	return result, nil
}

// fetchThenTrim downloads the whole source once, then trims every window out
// of the local copy in parallel. Per-window trim failures are recorded, not
// returned; only the source download and cancellation are fatal.
func (e *Extractor) fetchThenTrim(ctx context.Context, sourceURL string, windows []types.FinalizedWindow, scratch string, result *types.ExtractionResult) error {
	sourcePath, err := e.downloader.Fetch(ctx, sourceURL, nil, scratch)
	if err != nil {
		return err
	}
	result.SourcePath = sourcePath

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Parallelism)
	for i, w := range windows {
		i, w := i, w
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			clipPath := filepath.Join(scratch, fmt.Sprintf("clip_%03d.mp4", w.Rank))
			trimErr := e.transcoder.Trim(ctx, sourcePath, clipPath, types.TrimSpec{
				Start:        w.StartTime,
				Duration:     w.Duration,
				VerticalCrop: e.cfg.VerticalCrop,
			})
			result.Windows[i] = windowOutcome(w.Rank, clipPath, trimErr)
			return nil
		})
	}
	return g.Wait()
}

// fetchSections downloads each window's range directly from the remote
// source. A failed section fetch marks that window failed and the rest
// continue.
func (e *Extractor) fetchSections(ctx context.Context, sourceURL string, windows []types.FinalizedWindow, scratch string, result *types.ExtractionResult) error {
	result.SourcePath = sourceURL

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Parallelism)
	for i, w := range windows {
		i, w := i, w
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			sectionDir := filepath.Join(scratch, fmt.Sprintf("section_%03d", w.Rank))
			if err := os.MkdirAll(sectionDir, 0o755); err != nil {
				result.Windows[i] = windowOutcome(w.Rank, "", err)
				return nil
			}
			clipPath, fetchErr := e.downloader.Fetch(ctx, sourceURL, &types.TimeRange{Start: w.StartTime, End: w.EndTime}, sectionDir)
			result.Windows[i] = windowOutcome(w.Rank, clipPath, fetchErr)
			return nil
		})
	}
	return g.Wait()
}

func windowOutcome(rank int, clipPath string, err error) types.WindowExtraction {
	if err != nil {
		log.GetLogger().Warn("window extraction failed",
			zap.Int("rank", rank), zap.Error(err))
		return types.WindowExtraction{Rank: rank, Failed: true, FailReason: apperrors.GetMessage(err)}
	}
	return types.WindowExtraction{Rank: rank, ClipPath: clipPath}
}

// concatCompatible verifies all clips share one stream profile before
// stitching them. Profile mismatches become a ConcatenationError up front
// rather than a silently corrupt output.
func (e *Extractor) concatCompatible(ctx context.Context, clips []string, output string) error {
	var reference string
	for i, clip := range clips {
		profile, err := e.transcoder.StreamProfile(ctx, clip)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeConcatenation, "failed to read clip profile", err)
		}
		if i == 0 {
			reference = profile
			continue
		}
		if profile != reference {
			return apperrors.New(apperrors.CodeConcatenation,
				fmt.Sprintf("clip %d has incompatible stream parameters (%s != %s)", i+1, profile, reference))
		}
	}
	return e.transcoder.Concat(ctx, clips, output)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
