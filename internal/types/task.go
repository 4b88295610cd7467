package types

import "time"

type ShortsTaskStatus uint8

const (
	ShortsTaskStatusPending ShortsTaskStatus = iota
	ShortsTaskStatusRunning
	ShortsTaskStatusSucceeded
	ShortsTaskStatusFailed
)

// ShortsTask is the persisted record of one generate request.
type ShortsTask struct {
	Id             int64            `gorm:"primaryKey;autoIncrement" json:"-"`
	TaskId         string           `gorm:"index;size:64" json:"task_id"`
	VideoSrc       string           `json:"video_src"`
	Title          string           `json:"title"`
	Status         ShortsTaskStatus `json:"status"`
	FailedStage    string           `json:"failed_stage,omitempty"`
	FailReason     string           `json:"fail_reason,omitempty"`
	TargetDuration float64          `json:"target_duration"`
	MaxSegments    int              `json:"max_segments"`
	// ManifestJson is the serialized pipeline report (windows + extraction
	// result) once the task reaches a terminal state.
	ManifestJson string    `json:"-"`
	CreateTime   time.Time `gorm:"autoCreateTime;column:create_time" json:"create_time"`
	UpdateTime   time.Time `gorm:"autoUpdateTime;column:update_time" json:"update_time"`
}
