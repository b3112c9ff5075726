package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"school-timetable/backend/config"
	"school-timetable/backend/internal/repository"
)

// Locker 分布式互斥锁（由 pkg/redis.Client 实现）
type Locker interface {
	AcquireLock(ctx context.Context, name string, ttl time.Duration) (string, error)
	ReleaseLock(ctx context.Context, name, token string) error
}

// Service 所有 Service 的聚合入口
type Service struct {
	Generation  GenerationService
	Publication PublicationService
	Export      ExportService
}

// NewService 创建 Service 聚合。locker 为 nil 时发布不加分布式锁
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	locker Locker,
	logger *zap.Logger,
) *Service {
	return &Service{
		Generation:  NewGenerationService(&cfg.Timetable, repo, logger),
		Publication: NewPublicationService(&cfg.Timetable, repo, locker, logger),
		Export:      NewExportService(&cfg.Timetable, repo, logger),
	}
}
