package main

import (
	"fmt"
	"os"

	"github.com/boopesh07/VideoToShorts/config"
	"github.com/boopesh07/VideoToShorts/internal/dto"
	"github.com/boopesh07/VideoToShorts/internal/handler"
	"github.com/boopesh07/VideoToShorts/internal/queue"
	"github.com/boopesh07/VideoToShorts/internal/router"
	"github.com/boopesh07/VideoToShorts/internal/service"
	"github.com/boopesh07/VideoToShorts/internal/storage"
	"github.com/boopesh07/VideoToShorts/log"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	log.InitLogger()
	defer log.GetLogger().Sync()

	created, err := config.LoadOrCreateConfig()
	if err != nil {
		log.GetLogger().Error("failed to load config", zap.Error(err))
		return
	}
	if created {
		log.GetLogger().Info("created default config, edit it and restart if needed")
	}
	if err = config.CheckConfig(); err != nil {
		log.GetLogger().Error("invalid config", zap.Error(err))
		return
	}

	storage.InitDB()

	// Zombie cleanup: tasks left running by a previous process are failed.
	if count, err := storage.MarkStaleTasks(); err != nil {
		log.GetLogger().Warn("Failed to mark stale tasks", zap.Error(err))
	} else if count > 0 {
		log.GetLogger().Info("Marked stale tasks as failed", zap.Int64("count", count))
	}

	svc := service.NewService()

	if config.Conf.Queue.Enabled {
		q := queue.NewQueue(queue.Config{
			RedisAddr:     config.Conf.Queue.RedisAddr,
			RedisPassword: config.Conf.Queue.RedisPassword,
			RedisDB:       config.Conf.Queue.RedisDB,
			Concurrency:   config.Conf.Queue.Concurrency,
		})
		defer q.Close()

		svc.WithEnqueuer(func(taskId string, req dto.GenerateShortsReq) error {
			return q.EnqueueShortsTask(queue.ShortsGeneratePayload{TaskID: taskId, Request: req})
		})

		go func() {
			if err := q.StartWorker(queue.NewTaskHandlers(svc)); err != nil {
				log.GetLogger().Error("queue worker stopped", zap.Error(err))
			}
		}()
	}

	engine := gin.Default()
	router.SetupRouter(engine, handler.Handler{Service: svc})

	addr := fmt.Sprintf("%s:%d", config.Conf.Server.Host, config.Conf.Server.Port)
	log.GetLogger().Info("server listening", zap.String("addr", addr))
	if err := engine.Run(addr); err != nil {
		log.GetLogger().Error("server exited", zap.Error(err))
		os.Exit(1)
	}
}
