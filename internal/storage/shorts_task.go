package storage

import (
	"errors"

	"github.com/boopesh07/VideoToShorts/internal/types"

	"gorm.io/gorm"
)

// SaveTask upserts by TaskId. TaskId is the caller-visible identifier; the
// numeric primary key is preserved across updates.
func SaveTask(task *types.ShortsTask) error {
	if DB == nil {
		return errors.New("database not initialized")
	}
	var existing types.ShortsTask
	result := DB.Where("task_id = ?", task.TaskId).First(&existing)

	if result.Error == nil {
		task.Id = existing.Id
		return DB.Save(task).Error
	} else if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return DB.Create(task).Error
	}
	return result.Error
}

func GetTask(taskId string) (*types.ShortsTask, error) {
	if DB == nil {
		return nil, errors.New("database not initialized")
	}
	var task types.ShortsTask
	if err := DB.Where("task_id = ?", taskId).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func GetTaskHistory(limit int) ([]types.ShortsTask, error) {
	if DB == nil {
		return nil, errors.New("database not initialized")
	}
	var tasks []types.ShortsTask
	if err := DB.Order("create_time desc").Limit(limit).Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func DeleteTask(taskId string) error {
	if DB == nil {
		return errors.New("database not initialized")
	}
	return DB.Where("task_id = ?", taskId).Delete(&types.ShortsTask{}).Error
}

// MarkStaleTasks fails every task still marked running. Called on server
// startup to clean up zombies left by a previous process.
func MarkStaleTasks() (int64, error) {
	if DB == nil {
		return 0, errors.New("database not initialized")
	}
	result := DB.Model(&types.ShortsTask{}).
		Where("status = ?", types.ShortsTaskStatusRunning).
		Updates(map[string]interface{}{
			"status":      types.ShortsTaskStatusFailed,
			"fail_reason": "Task interrupted by server restart",
		})
	return result.RowsAffected, result.Error
}
