// Package pipeline drives one request through the stage machine
// ParseTranscript, SelectWindows, ResolveMedia, Extract, Done. A pipeline
// instance is request-scoped; concurrent requests never share one.
package pipeline

import (
	"context"
	"encoding/json"

	"github.com/boopesh07/VideoToShorts/internal/highlight"
	"github.com/boopesh07/VideoToShorts/internal/media"
	"github.com/boopesh07/VideoToShorts/internal/negotiator"
	"github.com/boopesh07/VideoToShorts/internal/proposer"
	"github.com/boopesh07/VideoToShorts/internal/transcript"
	"github.com/boopesh07/VideoToShorts/internal/types"
	"github.com/boopesh07/VideoToShorts/log"
	apperrors "github.com/boopesh07/VideoToShorts/pkg/errors"

	"go.uber.org/zap"
)

// Stage names appear verbatim in failure reports.
type Stage string

const (
	StageParseTranscript Stage = "ParseTranscript"
	StageSelectWindows   Stage = "SelectWindows"
	StageResolveMedia    Stage = "ResolveMedia"
	StageExtract         Stage = "Extract"
	StageDone            Stage = "Done"
)

// Options are service-level defaults, normally taken from configuration.
// Request fields override the selection-related ones per call.
type Options struct {
	TargetDuration float64
	Tolerance      float64
	MinClipSeconds float64
	MaxClipSeconds float64
	MaxSegments    int
	Strategy       string
	VerticalCrop   bool
	ScratchRoot    string
	OutputRoot     string
}

// Deps are the injected external collaborators. Proposer may be nil, which
// skips the model entirely and goes straight to the deterministic selector.
type Deps struct {
	Proposer   types.Proposer
	Downloader types.Downloader
	Transcoder types.Transcoder
}

// Request is one clip-generation job.
type Request struct {
	VideoURL       string
	Transcript     json.RawMessage
	TargetDuration float64
	Tolerance      float64
	MaxSegments    int
}

// Result is the manifest reported back to the caller. On failure,
// FailedStage and FailReason name where and why; partial extraction success
// is still Success=true with a reduced materialized count.
type Result struct {
	Success      bool                     `json:"success"`
	UsedFallback bool                     `json:"used_fallback"`
	Windows      []types.FinalizedWindow  `json:"windows"`
	Insights     types.TranscriptInsights `json:"insights"`
	Extraction   *types.ExtractionResult  `json:"extraction,omitempty"`
	FailedStage  Stage                    `json:"failed_stage,omitempty"`
	FailReason   string                   `json:"fail_reason,omitempty"`
}

// Pipeline holds the collaborators for one request.
type Pipeline struct {
	deps Deps
	opts Options
}

func New(deps Deps, opts Options) *Pipeline {
	return &Pipeline{deps: deps, opts: opts}
}

// Run executes the full stage machine and always returns a non-nil Result;
// the error, when set, is the failing stage's cause and FailedStage names
// the stage.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	result := &Result{}

	utterances, err := transcript.Parse(req.Transcript)
	if err != nil {
		return p.fail(result, StageParseTranscript, err)
	}
	result.Insights = transcript.ExtractInsights(req.Transcript)

	candidates, usedFallback := p.selectCandidates(ctx, utterances, result.Insights, req)
	result.UsedFallback = usedFallback
	if len(candidates) == 0 {
		return p.fail(result, StageSelectWindows, apperrors.ErrNoEligibleWindows)
	}

	mediaDuration, err := p.resolveMediaDuration(ctx, req.VideoURL, utterances)
	if err != nil {
		return p.fail(result, StageResolveMedia, err)
	}

	finalized := negotiator.Negotiate(candidates, negotiator.Options{
		TargetDuration: p.targetDuration(req),
		Tolerance:      p.tolerance(req),
		MinClipSeconds: p.opts.MinClipSeconds,
		MaxClipSeconds: p.opts.MaxClipSeconds,
		MaxWindows:     p.maxSegments(req),
		MediaDuration:  mediaDuration,
	})
	if len(finalized) == 0 {
		return p.fail(result, StageSelectWindows, apperrors.ErrNoEligibleWindows)
	}
	result.Windows = finalized

	extractor := media.NewExtractor(p.deps.Downloader, p.deps.Transcoder, media.ExtractorConfig{
		ScratchRoot:  p.opts.ScratchRoot,
		OutputRoot:   p.opts.OutputRoot,
		Strategy:     p.opts.Strategy,
		VerticalCrop: p.opts.VerticalCrop,
	})
	extraction, err := extractor.Extract(ctx, req.VideoURL, finalized)
	result.Extraction = extraction
	if err != nil {
		return p.fail(result, StageExtract, err)
	}

	result.Success = true
	return result, nil
}

// Suggest runs only the selection stages and returns negotiated windows
// without touching the media. When no downloader is available the transcript
// span stands in for the media duration.
func (p *Pipeline) Suggest(ctx context.Context, req Request) (*Result, error) {
	result := &Result{}

	utterances, err := transcript.Parse(req.Transcript)
	if err != nil {
		return p.fail(result, StageParseTranscript, err)
	}
	result.Insights = transcript.ExtractInsights(req.Transcript)

	candidates, usedFallback := p.selectCandidates(ctx, utterances, result.Insights, req)
	result.UsedFallback = usedFallback
	if len(candidates) == 0 {
		return p.fail(result, StageSelectWindows, apperrors.ErrNoEligibleWindows)
	}

	mediaDuration := result.Insights.Duration
	if mediaDuration <= 0 {
		mediaDuration = transcript.TotalDuration(utterances)
	}
	if p.deps.Downloader != nil && req.VideoURL != "" {
		if info, probeErr := p.deps.Downloader.Probe(ctx, req.VideoURL); probeErr == nil && info.Duration > 0 {
			mediaDuration = info.Duration
		}
	}

	finalized := negotiator.Negotiate(candidates, negotiator.Options{
		TargetDuration: p.targetDuration(req),
		Tolerance:      p.tolerance(req),
		MinClipSeconds: p.opts.MinClipSeconds,
		MaxClipSeconds: p.opts.MaxClipSeconds,
		MaxWindows:     p.maxSegments(req),
		MediaDuration:  mediaDuration,
	})
	if len(finalized) == 0 {
		return p.fail(result, StageSelectWindows, apperrors.ErrNoEligibleWindows)
	}

	result.Windows = finalized
	result.Success = true
	return result, nil
}

// selectCandidates tries the external proposer first and falls back to the
// deterministic selector on any proposer failure. The fallback is mandatory:
// a proposer error alone never reaches the caller.
func (p *Pipeline) selectCandidates(ctx context.Context, utterances []types.Utterance, insights types.TranscriptInsights, req Request) ([]types.CandidateWindow, bool) {
	if p.deps.Proposer != nil {
		adapter := proposer.NewAdapter(p.deps.Proposer)
		candidates, err := adapter.Propose(ctx, utterances, insights, proposer.Options{
			TargetDuration: p.targetDuration(req),
			Tolerance:      p.tolerance(req),
			MaxSegments:    p.maxSegments(req),
		})
		if err == nil && len(candidates) > 0 {
			return candidates, false
		}
		log.GetLogger().Warn("proposer failed, using deterministic selector",
			zap.Error(err))
	}

	candidates := highlight.SelectWindows(utterances, highlight.Options{
		TargetDuration: p.targetDuration(req),
		MaxWindows:     p.maxSegments(req),
	})
	return candidates, true
}

func (p *Pipeline) resolveMediaDuration(ctx context.Context, url string, utterances []types.Utterance) (float64, error) {
	if p.deps.Downloader == nil {
		return 0, apperrors.New(apperrors.CodeMediaResolution, "no downloader configured")
	}
	info, err := p.deps.Downloader.Probe(ctx, url)
	if err != nil {
		return 0, err
	}
	if info.Duration > 0 {
		return info.Duration, nil
	}
	// Some sources report no duration; the transcript span is the best
	// remaining bound.
	return transcript.TotalDuration(utterances), nil
}

func (p *Pipeline) fail(result *Result, stage Stage, err error) (*Result, error) {
	log.GetLogger().Error("pipeline stage failed",
		zap.String("stage", string(stage)), zap.Error(err))
	result.Success = false
	result.FailedStage = stage
	result.FailReason = apperrors.GetMessage(err)
	return result, err
}

func (p *Pipeline) targetDuration(req Request) float64 {
	if req.TargetDuration > 0 {
		return req.TargetDuration
	}
	return p.opts.TargetDuration
}

func (p *Pipeline) tolerance(req Request) float64 {
	if req.Tolerance > 0 {
		return req.Tolerance
	}
	return p.opts.Tolerance
}

func (p *Pipeline) maxSegments(req Request) int {
	if req.MaxSegments > 0 {
		return req.MaxSegments
	}
	return p.opts.MaxSegments
}
