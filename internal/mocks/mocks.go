// Package mocks provides mock implementations of core interfaces for testing.
package mocks

import (
	"context"

	"github.com/boopesh07/VideoToShorts/internal/types"

	"github.com/stretchr/testify/mock"
)

// MockProposer is a mock implementation of types.Proposer
type MockProposer struct {
	mock.Mock
}

func (m *MockProposer) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

// MockDownloader is a mock implementation of types.Downloader
type MockDownloader struct {
	mock.Mock
}

func (m *MockDownloader) Fetch(ctx context.Context, url string, timeRange *types.TimeRange, destDir string) (string, error) {
	args := m.Called(ctx, url, timeRange, destDir)
	return args.String(0), args.Error(1)
}

func (m *MockDownloader) Probe(ctx context.Context, url string) (*types.MediaInfo, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.MediaInfo), args.Error(1)
}

// MockTranscoder is a mock implementation of types.Transcoder
type MockTranscoder struct {
	mock.Mock
}

func (m *MockTranscoder) Trim(ctx context.Context, inputPath, outputPath string, spec types.TrimSpec) error {
	args := m.Called(ctx, inputPath, outputPath, spec)
	return args.Error(0)
}

func (m *MockTranscoder) Concat(ctx context.Context, inputPaths []string, outputPath string) error {
	args := m.Called(ctx, inputPaths, outputPath)
	return args.Error(0)
}

func (m *MockTranscoder) ProbeDuration(ctx context.Context, path string) (float64, error) {
	args := m.Called(ctx, path)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockTranscoder) StreamProfile(ctx context.Context, path string) (string, error) {
	args := m.Called(ctx, path)
	return args.String(0), args.Error(1)
}
