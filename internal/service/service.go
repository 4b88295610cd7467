// Package service wires configuration, storage and the pipeline into the
// operations the HTTP layer and the queue workers share.
package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/boopesh07/VideoToShorts/config"
	"github.com/boopesh07/VideoToShorts/internal/appdirs"
	"github.com/boopesh07/VideoToShorts/internal/dto"
	"github.com/boopesh07/VideoToShorts/internal/media"
	"github.com/boopesh07/VideoToShorts/internal/pipeline"
	"github.com/boopesh07/VideoToShorts/internal/storage"
	"github.com/boopesh07/VideoToShorts/internal/types"
	"github.com/boopesh07/VideoToShorts/log"
	apperrors "github.com/boopesh07/VideoToShorts/pkg/errors"
	"github.com/boopesh07/VideoToShorts/pkg/gladia"
	"github.com/boopesh07/VideoToShorts/pkg/openai"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TranscriptFetcher resolves a stored transcription id to its raw result.
type TranscriptFetcher interface {
	GetResult(ctx context.Context, resultID string) (json.RawMessage, error)
}

// Enqueuer hands a generation job to the background queue. Nil means no
// queue is configured and jobs run on a goroutine inside this process.
type Enqueuer func(taskId string, req dto.GenerateShortsReq) error

type Service struct {
	Proposer    types.Proposer
	Downloader  types.Downloader
	Transcoder  types.Transcoder
	Transcripts TranscriptFetcher

	pipelineOpts pipeline.Options
	enqueue      Enqueuer
}

// llmProposer adapts the chat-completion client to the proposer contract.
type llmProposer struct {
	client *openai.Client
}

func (p llmProposer) Generate(ctx context.Context, prompt string) (string, error) {
	return p.client.ChatCompletion(ctx, prompt)
}

func NewService() *Service {
	var prop types.Proposer
	if config.Conf.Llm.ApiKey != "" {
		prop = llmProposer{client: openai.NewClient(
			config.Conf.Llm.BaseUrl,
			config.Conf.Llm.ApiKey,
			config.Conf.Llm.Model,
			config.Conf.App.Proxy,
		)}
	} else {
		log.GetLogger().Info("no LLM key configured, deterministic selector only")
	}

	var transcripts TranscriptFetcher
	if config.Conf.Gladia.ApiKey != "" {
		transcripts = gladia.NewClient(config.Conf.Gladia.BaseUrl, config.Conf.Gladia.ApiKey)
	}

	shortsRoot, err := appdirs.ResolveShortsRoot()
	if err != nil {
		log.GetLogger().Error("failed to resolve output root", zap.Error(err))
		shortsRoot = "output/shorts"
	}
	scratchRoot, err := appdirs.ResolveScratchRoot()
	if err != nil {
		log.GetLogger().Error("failed to resolve scratch root", zap.Error(err))
		scratchRoot = "cache/scratch"
	}

	return &Service{
		Proposer:    prop,
		Downloader:  media.NewYtdlpDownloader(config.Conf.App.YtdlpPath, config.Conf.App.Proxy),
		Transcoder:  media.NewFfmpegTranscoder(config.Conf.App.FfmpegPath, config.Conf.App.FfprobePath),
		Transcripts: transcripts,
		pipelineOpts: pipeline.Options{
			TargetDuration: config.Conf.Shorts.TargetDuration,
			Tolerance:      config.Conf.Shorts.ToleranceSeconds,
			MinClipSeconds: config.Conf.Shorts.MinClipSeconds,
			MaxClipSeconds: config.Conf.Shorts.MaxClipSeconds,
			MaxSegments:    config.Conf.Shorts.MaxSegments,
			Strategy:       config.Conf.Shorts.Strategy,
			VerticalCrop:   config.Conf.Shorts.VerticalCrop,
			ScratchRoot:    scratchRoot,
			OutputRoot:     shortsRoot,
		},
	}
}

// WithEnqueuer routes generation jobs through the background queue instead
// of in-process goroutines.
func (s *Service) WithEnqueuer(enqueue Enqueuer) *Service {
	s.enqueue = enqueue
	return s
}

func (s *Service) newPipeline() *pipeline.Pipeline {
	return pipeline.New(pipeline.Deps{
		Proposer:   s.Proposer,
		Downloader: s.Downloader,
		Transcoder: s.Transcoder,
	}, s.pipelineOpts)
}

func (s *Service) resolveTranscript(ctx context.Context, raw json.RawMessage, transcriptId string) (json.RawMessage, error) {
	if len(raw) > 0 {
		return raw, nil
	}
	if transcriptId == "" {
		return nil, apperrors.New(apperrors.CodeInvalidParams, "either transcript or transcript_id is required")
	}
	if s.Transcripts == nil {
		return nil, apperrors.New(apperrors.CodeInvalidParams, "transcript_id given but no transcription backend configured")
	}
	result, err := s.Transcripts.GetResult(ctx, transcriptId)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeMalformedTranscript, "failed to fetch stored transcript", err)
	}
	return result, nil
}

// SuggestSegments runs the selection stages only and returns ranked windows.
func (s *Service) SuggestSegments(ctx context.Context, req dto.SuggestSegmentsReq) (*dto.SuggestSegmentsResData, error) {
	raw, err := s.resolveTranscript(ctx, req.Transcript, req.TranscriptId)
	if err != nil {
		return nil, err
	}

	result, err := s.newPipeline().Suggest(ctx, pipeline.Request{
		VideoURL:       req.Url,
		Transcript:     raw,
		TargetDuration: req.TargetDuration,
		Tolerance:      req.Tolerance,
		MaxSegments:    req.MaxSegments,
	})
	if err != nil {
		return nil, err
	}

	return &dto.SuggestSegmentsResData{
		Windows:      dto.ToWindowDtos(result.Windows),
		UsedFallback: result.UsedFallback,
		Summary:      result.Insights.Summary,
	}, nil
}

// StartGeneration registers a task and schedules the full pipeline for it.
// The heavy work happens in the queue worker or a background goroutine; the
// caller polls the task id.
func (s *Service) StartGeneration(ctx context.Context, req dto.GenerateShortsReq) (*dto.GenerateShortsResData, error) {
	if req.Url == "" {
		return nil, apperrors.New(apperrors.CodeInvalidParams, "url is required")
	}
	if _, err := s.resolveTranscript(ctx, req.Transcript, req.TranscriptId); err != nil {
		return nil, err
	}

	taskId := uuid.New().String()
	task := &types.ShortsTask{
		TaskId:         taskId,
		VideoSrc:       req.Url,
		Status:         types.ShortsTaskStatusPending,
		TargetDuration: req.TargetDuration,
		MaxSegments:    req.MaxSegments,
	}
	if err := storage.SaveTask(task); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDBError, "failed to persist task", err)
	}

	if s.enqueue != nil {
		if err := s.enqueue(taskId, req); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeUnknown, "failed to enqueue task", err)
		}
	} else {
		go func() {
			if err := s.ProcessTask(context.Background(), taskId, req); err != nil {
				log.GetLogger().Error("background generation failed",
					zap.String("taskId", taskId), zap.Error(err))
			}
		}()
	}

	return &dto.GenerateShortsResData{TaskId: taskId}, nil
}

// ProcessTask executes the full pipeline for a registered task and records
// the outcome. Called from the queue worker or an in-process goroutine.
func (s *Service) ProcessTask(ctx context.Context, taskId string, req dto.GenerateShortsReq) error {
	task, err := storage.GetTask(taskId)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeNotFound, "unknown task", err)
	}

	task.Status = types.ShortsTaskStatusRunning
	if err := storage.SaveTask(task); err != nil {
		return apperrors.Wrap(apperrors.CodeDBError, "failed to update task", err)
	}

	raw, err := s.resolveTranscript(ctx, req.Transcript, req.TranscriptId)
	if err != nil {
		return s.finishTask(task, nil, string(pipeline.StageParseTranscript), err)
	}

	result, runErr := s.newPipeline().Run(ctx, pipeline.Request{
		VideoURL:       req.Url,
		Transcript:     raw,
		TargetDuration: req.TargetDuration,
		Tolerance:      req.Tolerance,
		MaxSegments:    req.MaxSegments,
	})
	if runErr != nil {
		return s.finishTask(task, result, string(result.FailedStage), runErr)
	}

	if info, probeErr := s.Downloader.Probe(ctx, req.Url); probeErr == nil {
		task.Title = info.Title
	}
	return s.finishTask(task, result, "", nil)
}

func (s *Service) finishTask(task *types.ShortsTask, result *pipeline.Result, stage string, cause error) error {
	if result != nil {
		if manifest, err := json.Marshal(result); err == nil {
			task.ManifestJson = string(manifest)
		}
	}
	if cause != nil {
		task.Status = types.ShortsTaskStatusFailed
		task.FailedStage = stage
		task.FailReason = apperrors.GetMessage(cause)
	} else {
		task.Status = types.ShortsTaskStatusSucceeded
		task.FailedStage = ""
		task.FailReason = ""
	}
	if err := storage.SaveTask(task); err != nil {
		log.GetLogger().Error("failed to record task outcome",
			zap.String("taskId", task.TaskId), zap.Error(err))
		return err
	}
	return cause
}

// GetTaskStatus reports one task, including its manifest when terminal.
func (s *Service) GetTaskStatus(req dto.GetShortsTaskReq) (*dto.GetShortsTaskResData, error) {
	task, err := storage.GetTask(req.TaskId)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeNotFound, "task not found", err)
	}

	data := &dto.GetShortsTaskResData{
		TaskId:      task.TaskId,
		Status:      dto.StatusName(task.Status),
		FailedStage: task.FailedStage,
		FailReason:  task.FailReason,
	}
	if task.ManifestJson != "" {
		var manifest pipeline.Result
		if err := json.Unmarshal([]byte(task.ManifestJson), &manifest); err == nil {
			data.Manifest = &manifest
			if manifest.Extraction != nil && manifest.Extraction.OutputName != "" {
				data.DownloadUrl = fmt.Sprintf("/api/file/%s/%s", appdirs.ShortsRootName, manifest.Extraction.OutputName)
			}
		}
	}
	return data, nil
}

func (s *Service) GetTaskHistory(limit int) ([]types.ShortsTask, error) {
	if limit <= 0 {
		limit = 50
	}
	return storage.GetTaskHistory(limit)
}

func (s *Service) DeleteTask(taskId string) error {
	return storage.DeleteTask(taskId)
}

// ProbeSource resolves title and duration without downloading.
func (s *Service) ProbeSource(ctx context.Context, req dto.ProbeSourceReq) (*dto.ProbeSourceResData, error) {
	if req.Url == "" {
		return nil, apperrors.New(apperrors.CodeInvalidParams, "url is required")
	}
	info, err := s.Downloader.Probe(ctx, req.Url)
	if err != nil {
		return nil, err
	}
	return &dto.ProbeSourceResData{
		Title:    info.Title,
		Uploader: info.Uploader,
		Duration: info.Duration,
	}, nil
}
