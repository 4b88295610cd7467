package media

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/boopesh07/VideoToShorts/internal/types"
	"github.com/boopesh07/VideoToShorts/log"
	apperrors "github.com/boopesh07/VideoToShorts/pkg/errors"
	"github.com/boopesh07/VideoToShorts/pkg/util"

	"go.uber.org/zap"
)

// LocalPrefix marks a source that is already a file on disk and must not be
// fetched, e.g. "local:/data/talk.mp4".
const LocalPrefix = "local:"

// formatSelector keeps downloads at a sane resolution and in mp4 so the
// copy-codec trim path works without re-encoding.
const formatSelector = "bestvideo[height<=1080][ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best"

// YtdlpDownloader shells out to yt-dlp for remote sources.
type YtdlpDownloader struct {
	binPath string
	proxy   string
}

func NewYtdlpDownloader(binPath, proxy string) *YtdlpDownloader {
	if binPath == "" {
		binPath = "yt-dlp"
	}
	return &YtdlpDownloader{binPath: binPath, proxy: proxy}
}

// Fetch resolves url into a local file under destDir. A nil timeRange fetches
// the whole source; otherwise only the given section is downloaded, with
// keyframes forced at the cut points so the section boundaries are accurate.
// Local sources are returned as-is after an existence check.
func (d *YtdlpDownloader) Fetch(ctx context.Context, url string, timeRange *types.TimeRange, destDir string) (string, error) {
	if local, ok := localPath(url); ok {
		if _, err := os.Stat(local); err != nil {
			return "", apperrors.Wrap(apperrors.CodeMediaResolution, "local source file not found", err)
		}
		return local, nil
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return "", apperrors.New(apperrors.CodeUnsupportedURL, fmt.Sprintf("unsupported source url: %s", url))
	}

	outName := "source.mp4"
	if timeRange != nil {
		outName = fmt.Sprintf("section_%s_%s.mp4",
			strings.ReplaceAll(util.FormatSectionTime(timeRange.Start), ":", ""),
			strings.ReplaceAll(util.FormatSectionTime(timeRange.End), ":", ""))
	}
	outPath := filepath.Join(destDir, outName)

	args := []string{
		"-f", formatSelector,
		"--no-playlist",
		"-o", outPath,
	}
	if timeRange != nil {
		args = append(args,
			"--download-sections", fmt.Sprintf("*%s-%s", util.FormatSectionTime(timeRange.Start), util.FormatSectionTime(timeRange.End)),
			"--force-keyframes-at-cuts",
		)
	}
	if d.proxy != "" {
		args = append(args, "--proxy", d.proxy)
	}
	args = append(args, url)

	cmd := exec.CommandContext(ctx, d.binPath, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		log.GetLogger().Error("yt-dlp fetch failed",
			zap.String("url", url), zap.String("output", tailOf(string(out))))
		return "", apperrors.WrapWithDetail(apperrors.CodeMediaResolution, "failed to download source", tailOf(string(out)), err)
	}
	if _, err := os.Stat(outPath); err != nil {
		return "", apperrors.Wrap(apperrors.CodeMediaResolution, "downloader produced no output file", err)
	}
	return outPath, nil
}

// Probe reads the source's metadata without downloading it.
func (d *YtdlpDownloader) Probe(ctx context.Context, url string) (*types.MediaInfo, error) {
	if local, ok := localPath(url); ok {
		if _, err := os.Stat(local); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeMediaResolution, "local source file not found", err)
		}
		return &types.MediaInfo{Title: strings.TrimSuffix(filepath.Base(local), filepath.Ext(local))}, nil
	}

	args := []string{"--dump-json", "--skip-download", "--no-playlist"}
	if d.proxy != "" {
		args = append(args, "--proxy", d.proxy)
	}
	args = append(args, url)

	cmd := exec.CommandContext(ctx, d.binPath, args...)
	output, err := cmd.Output()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeMediaResolution, "failed to probe source", err)
	}

	// yt-dlp may print one JSON object per line for playlists; take the
	// first line that parses.
	var info types.MediaInfo
	for _, line := range strings.Split(string(output), "\n") {
		if len(line) > 2 && json.Unmarshal([]byte(line), &info) == nil {
			return &info, nil
		}
	}
	return nil, apperrors.New(apperrors.CodeMediaResolution, "probe output contains no parseable metadata")
}

func localPath(url string) (string, bool) {
	if strings.HasPrefix(url, LocalPrefix) {
		return strings.TrimPrefix(url, LocalPrefix), true
	}
	if strings.HasPrefix(url, "/") || strings.HasPrefix(url, "./") {
		return url, true
	}
	return "", false
}

// tailOf trims tool output to its last lines; ffmpeg and yt-dlp bury the
// actual error at the bottom of pages of progress noise.
func tailOf(output string) string {
	const maxLen = 500
	output = strings.TrimSpace(output)
	if len(output) > maxLen {
		output = output[len(output)-maxLen:]
	}
	return output
}
