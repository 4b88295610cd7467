package dto

import (
	"encoding/json"

	"github.com/boopesh07/VideoToShorts/internal/pipeline"
	"github.com/boopesh07/VideoToShorts/internal/types"

	"github.com/samber/lo"
)

// SuggestSegmentsReq asks for candidate windows without producing media.
// Exactly one of Transcript (a raw transcription result) or TranscriptId
// (a stored transcription to fetch) must be set.
type SuggestSegmentsReq struct {
	Url            string          `json:"url"`
	Transcript     json.RawMessage `json:"transcript,omitempty"`
	TranscriptId   string          `json:"transcript_id,omitempty"`
	TargetDuration float64         `json:"target_duration"`
	Tolerance      float64         `json:"tolerance"`
	MaxSegments    int             `json:"max_segments"`
}

// WindowDto is one suggested or finalized window as presented to callers.
type WindowDto struct {
	Rank       int     `json:"rank"`
	StartTime  float64 `json:"start_time"`
	EndTime    float64 `json:"end_time"`
	Duration   float64 `json:"duration"`
	Text       string  `json:"text"`
	Score      float64 `json:"engagement_score"`
	Rationale  string  `json:"reasoning"`
	Adjustment string  `json:"adjustment,omitempty"`
}

type SuggestSegmentsResData struct {
	Windows      []WindowDto `json:"windows"`
	UsedFallback bool        `json:"used_fallback"`
	Summary      string      `json:"summary,omitempty"`
}

// GenerateShortsReq starts an asynchronous generation task.
type GenerateShortsReq struct {
	Url            string          `json:"url"`
	Transcript     json.RawMessage `json:"transcript,omitempty"`
	TranscriptId   string          `json:"transcript_id,omitempty"`
	TargetDuration float64         `json:"target_duration"`
	Tolerance      float64         `json:"tolerance"`
	MaxSegments    int             `json:"max_segments"`
}

type GenerateShortsResData struct {
	TaskId string `json:"task_id"`
}

type GetShortsTaskReq struct {
	TaskId string `form:"taskId"`
}

// GetShortsTaskResData mirrors the persisted task plus the deserialized
// manifest once the task is terminal.
type GetShortsTaskResData struct {
	TaskId      string           `json:"task_id"`
	Status      string           `json:"status"`
	FailedStage string           `json:"failed_stage,omitempty"`
	FailReason  string           `json:"fail_reason,omitempty"`
	Manifest    *pipeline.Result `json:"manifest,omitempty"`
	DownloadUrl string           `json:"download_url,omitempty"`
}

type ProbeSourceReq struct {
	Url string `form:"url"`
}

type ProbeSourceResData struct {
	Title    string  `json:"title"`
	Uploader string  `json:"uploader,omitempty"`
	Duration float64 `json:"duration"`
}

var statusNames = map[types.ShortsTaskStatus]string{
	types.ShortsTaskStatusPending:   "pending",
	types.ShortsTaskStatusRunning:   "running",
	types.ShortsTaskStatusSucceeded: "succeeded",
	types.ShortsTaskStatusFailed:    "failed",
}

func StatusName(status types.ShortsTaskStatus) string {
	if name, ok := statusNames[status]; ok {
		return name
	}
	return "unknown"
}

func ToWindowDtos(windows []types.FinalizedWindow) []WindowDto {
	return lo.Map(windows, func(w types.FinalizedWindow, _ int) WindowDto {
		return WindowDto{
			Rank:       w.Rank,
			StartTime:  w.StartTime,
			EndTime:    w.EndTime,
			Duration:   w.Duration,
			Text:       w.Text,
			Score:      w.Score,
			Rationale:  w.Rationale,
			Adjustment: w.Adjustment,
		}
	})
}
