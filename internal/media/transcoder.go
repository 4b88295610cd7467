package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/boopesh07/VideoToShorts/internal/types"
	"github.com/boopesh07/VideoToShorts/log"
	apperrors "github.com/boopesh07/VideoToShorts/pkg/errors"
	"github.com/boopesh07/VideoToShorts/pkg/util"

	"go.uber.org/zap"
)

// verticalCropFilter crops to 9:16 around the horizontal center, keeping
// full height. Cropping forces a re-encode, so Trim only uses it on demand.
const verticalCropFilter = "crop=ih*9/16:ih"

// FfmpegTranscoder shells out to ffmpeg/ffprobe for trimming, stitching and
// probing.
type FfmpegTranscoder struct {
	ffmpegPath  string
	ffprobePath string
}

func NewFfmpegTranscoder(ffmpegPath, ffprobePath string) *FfmpegTranscoder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &FfmpegTranscoder{ffmpegPath: ffmpegPath, ffprobePath: ffprobePath}
}

// Trim cuts one window out of input into output. Without a crop this is a
// stream copy and costs no re-encode; with VerticalCrop set the clip is
// re-encoded to 9:16.
func (t *FfmpegTranscoder) Trim(ctx context.Context, input, output string, spec types.TrimSpec) error {
	args := []string{
		"-y",
		"-ss", util.FormatSeconds(spec.Start),
		"-t", util.FormatSeconds(spec.Duration),
		"-i", input,
	}
	if spec.VerticalCrop {
		args = append(args,
			"-vf", verticalCropFilter,
			"-c:v", "libx264",
			"-preset", "fast",
			"-c:a", "aac",
		)
	} else {
		args = append(args, "-c", "copy")
	}
	args = append(args, "-avoid_negative_ts", "make_zero", output)

	cmd := exec.CommandContext(ctx, t.ffmpegPath, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		log.GetLogger().Error("ffmpeg trim failed",
			zap.String("input", input),
			zap.Float64("start", spec.Start),
			zap.String("output", tailOf(string(out))))
		return t.wrapToolError("trim failed", string(out), err)
	}
	return nil
}

// Concat stitches clips into output in the given order using the concat
// demuxer with stream copy. The inputs must share codec parameters; callers
// are expected to verify that with StreamProfile first.
func (t *FfmpegTranscoder) Concat(ctx context.Context, inputs []string, output string) error {
	if len(inputs) == 0 {
		return apperrors.New(apperrors.CodeConcatenation, "no clips to concatenate")
	}

	listPath := filepath.Join(filepath.Dir(output), "concat_list.txt")
	var list strings.Builder
	for _, p := range inputs {
		fmt.Fprintf(&list, "file '%s'\n", strings.ReplaceAll(p, "'", `'\''`))
	}
	if err := os.WriteFile(listPath, []byte(list.String()), 0o644); err != nil {
		return apperrors.Wrap(apperrors.CodeFileWriteError, "failed to write concat list", err)
	}
	defer os.Remove(listPath)

	cmd := exec.CommandContext(ctx, t.ffmpegPath,
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		output,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		log.GetLogger().Error("ffmpeg concat failed",
			zap.Int("clips", len(inputs)),
			zap.String("output", tailOf(string(out))))
		return apperrors.WrapWithDetail(apperrors.CodeConcatenation, "concatenation failed", tailOf(string(out)), err)
	}
	return nil
}

// ProbeDuration returns the media duration in seconds.
func (t *FfmpegTranscoder) ProbeDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, t.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	output, err := cmd.Output()
	if err != nil {
		return 0, t.wrapToolError("failed to probe duration", string(output), err)
	}
	duration, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.CodeMediaResolution, "unparseable duration from ffprobe", err)
	}
	return duration, nil
}

// StreamProfile returns a comparable fingerprint of the first video stream.
// Two clips with equal profiles can be concatenated with stream copy.
func (t *FfmpegTranscoder) StreamProfile(ctx context.Context, path string) (string, error) {
	cmd := exec.CommandContext(ctx, t.ffprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=codec_name,width,height,pix_fmt,r_frame_rate",
		"-of", "csv=p=0",
		path,
	)
	output, err := cmd.Output()
	if err != nil {
		return "", t.wrapToolError("failed to probe stream profile", string(output), err)
	}
	return strings.TrimSpace(string(output)), nil
}

func (t *FfmpegTranscoder) wrapToolError(message, output string, err error) error {
	if errors.Is(err, exec.ErrNotFound) {
		return apperrors.Wrap(apperrors.CodeTranscoderMissing, "transcoder binary not found", err)
	}
	return apperrors.WrapWithDetail(apperrors.CodePerWindowExtraction, message, tailOf(output), err)
}
