package service

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/boopesh07/VideoToShorts/internal/dto"
	"github.com/boopesh07/VideoToShorts/internal/mocks"
	"github.com/boopesh07/VideoToShorts/internal/pipeline"
	"github.com/boopesh07/VideoToShorts/internal/storage"
	"github.com/boopesh07/VideoToShorts/internal/types"
	apperrors "github.com/boopesh07/VideoToShorts/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) {
	t.Helper()
	original := storage.DB
	t.Cleanup(func() { storage.DB = original })

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "shorts.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&types.ShortsTask{}))
	storage.DB = db
}

func testTranscript(t *testing.T) json.RawMessage {
	t.Helper()
	texts := []string{
		"Welcome to this amazing talk!",
		"here is the secret to all of it",
		"try this trick at home today",
		"thanks so much for watching",
	}
	utterances := make([]map[string]any, 0, len(texts))
	for i, text := range texts {
		utterances = append(utterances, map[string]any{
			"text":       text,
			"start":      float64(i) * 60,
			"end":        float64(i)*60 + 50,
			"confidence": 0.9,
		})
	}
	payload, err := json.Marshal(map[string]any{
		"result": map[string]any{
			"metadata":      map[string]any{"audio_duration": 240},
			"transcription": map[string]any{"utterances": utterances},
		},
	})
	require.NoError(t, err)
	return payload
}

func newTestService(t *testing.T, prop *mocks.MockProposer, dl *mocks.MockDownloader, tc *mocks.MockTranscoder) *Service {
	t.Helper()
	svc := &Service{
		Downloader: dl,
		Transcoder: tc,
		pipelineOpts: pipeline.Options{
			TargetDuration: 30,
			Tolerance:      3,
			MinClipSeconds: 15,
			MaxClipSeconds: 60,
			MaxSegments:    2,
			Strategy:       "full",
			ScratchRoot:    filepath.Join(t.TempDir(), "scratch"),
			OutputRoot:     filepath.Join(t.TempDir(), "output"),
		},
	}
	if prop != nil {
		svc.Proposer = prop
	}
	return svc
}

func TestSuggestSegmentsRequiresTranscript(t *testing.T) {
	svc := newTestService(t, nil, &mocks.MockDownloader{}, &mocks.MockTranscoder{})

	_, err := svc.SuggestSegments(context.Background(), dto.SuggestSegmentsReq{})

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidParams))
}

func TestSuggestSegmentsWithInlineTranscript(t *testing.T) {
	dl := &mocks.MockDownloader{}
	svc := newTestService(t, nil, dl, &mocks.MockTranscoder{})

	data, err := svc.SuggestSegments(context.Background(), dto.SuggestSegmentsReq{
		Transcript: testTranscript(t),
	})

	require.NoError(t, err)
	assert.True(t, data.UsedFallback)
	assert.NotEmpty(t, data.Windows)
	assert.Equal(t, 1, data.Windows[0].Rank)
	dl.AssertNotCalled(t, "Fetch")
}

func TestProcessTaskRecordsSuccess(t *testing.T) {
	setupTestDB(t)

	sourcePath := filepath.Join(t.TempDir(), "source.mp4")
	require.NoError(t, os.WriteFile(sourcePath, []byte("source"), 0o644))

	prop := &mocks.MockProposer{}
	prop.On("Generate", mock.Anything, mock.Anything).Return("no structured data here", nil)

	dl := &mocks.MockDownloader{}
	dl.On("Fetch", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(sourcePath, nil)
	dl.On("Probe", mock.Anything, mock.Anything).Return(&types.MediaInfo{Title: "a talk", Duration: 240}, nil)

	tc := &mocks.MockTranscoder{}
	tc.On("Trim", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			require.NoError(t, os.WriteFile(args.String(2), []byte("clip"), 0o644))
		}).
		Return(nil)
	tc.On("StreamProfile", mock.Anything, mock.Anything).Return("h264,1920,1080", nil)
	tc.On("Concat", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			require.NoError(t, os.WriteFile(args.String(2), []byte("stitched"), 0o644))
		}).
		Return(nil)
	tc.On("ProbeDuration", mock.Anything, mock.Anything).Return(60.0, nil)

	svc := newTestService(t, prop, dl, tc)
	req := dto.GenerateShortsReq{Url: "https://example.com/v", Transcript: testTranscript(t)}

	require.NoError(t, storage.SaveTask(&types.ShortsTask{TaskId: "t-ok", VideoSrc: req.Url}))
	require.NoError(t, svc.ProcessTask(context.Background(), "t-ok", req))

	task, err := storage.GetTask("t-ok")
	require.NoError(t, err)
	assert.Equal(t, types.ShortsTaskStatusSucceeded, task.Status)
	assert.Equal(t, "a talk", task.Title)
	assert.Contains(t, task.ManifestJson, `"success":true`)

	status, err := svc.GetTaskStatus(dto.GetShortsTaskReq{TaskId: "t-ok"})
	require.NoError(t, err)
	assert.Equal(t, "succeeded", status.Status)
	require.NotNil(t, status.Manifest)
	assert.True(t, strings.HasPrefix(status.DownloadUrl, "/api/file/shorts/"))
}

func TestProcessTaskRecordsFailureStage(t *testing.T) {
	setupTestDB(t)

	dl := &mocks.MockDownloader{}
	dl.On("Probe", mock.Anything, mock.Anything).
		Return(nil, apperrors.New(apperrors.CodeMediaResolution, "unreachable"))

	svc := newTestService(t, nil, dl, &mocks.MockTranscoder{})
	req := dto.GenerateShortsReq{Url: "https://example.com/v", Transcript: testTranscript(t)}

	require.NoError(t, storage.SaveTask(&types.ShortsTask{TaskId: "t-fail", VideoSrc: req.Url}))
	err := svc.ProcessTask(context.Background(), "t-fail", req)
	require.Error(t, err)

	task, getErr := storage.GetTask("t-fail")
	require.NoError(t, getErr)
	assert.Equal(t, types.ShortsTaskStatusFailed, task.Status)
	assert.Equal(t, string(pipeline.StageResolveMedia), task.FailedStage)
	assert.NotEmpty(t, task.FailReason)
}

func TestStartGenerationRequiresUrl(t *testing.T) {
	svc := newTestService(t, nil, &mocks.MockDownloader{}, &mocks.MockTranscoder{})

	_, err := svc.StartGeneration(context.Background(), dto.GenerateShortsReq{Transcript: testTranscript(t)})

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidParams))
}
