package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dumeirei/hotel-inventory-backend/internal/common/config"
	"github.com/dumeirei/hotel-inventory-backend/internal/common/daterange"
	"github.com/dumeirei/hotel-inventory-backend/internal/common/logger"
	"github.com/dumeirei/hotel-inventory-backend/internal/common/metrics"
	"github.com/dumeirei/hotel-inventory-backend/internal/repository"
)

// 任务名称
const TaskPruneSequences = "prune_reservation_sequences"

// TaskHandler 任务处理器
type TaskHandler struct {
	seqRepo       *repository.ReservationSequenceRepository
	retentionDays int
	now           func() time.Time
}

// NewTaskHandler 创建任务处理器
func NewTaskHandler(seqRepo *repository.ReservationSequenceRepository, retentionDays int) *TaskHandler {
	return &TaskHandler{
		seqRepo:       seqRepo,
		retentionDays: retentionDays,
		now:           time.Now,
	}
}

// PruneReservationSequences 删除保留期之前的每日预订号序列
// 序列只用于当天分配，旧序列可安全删除
func (h *TaskHandler) PruneReservationSequences(ctx context.Context) error {
	if h.retentionDays <= 0 {
		return nil
	}
	cutoff := daterange.Today(h.now()).AddDate(0, 0, -h.retentionDays).Format("20060102")

	deleted, err := h.seqRepo.DeleteBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	metrics.GetMetrics().AddSequencesPruned(deleted)
	if deleted > 0 {
		logger.Info("已清理过期预订号序列",
			logger.Module("scheduler"),
			zap.String("before", cutoff),
			zap.Int64("deleted", deleted),
		)
	}
	return nil
}

// RegisterTasks 按配置注册全部定时任务
func RegisterTasks(s *Scheduler, h *TaskHandler, cfg *config.BookingConfig) {
	s.AddTask(TaskPruneSequences, time.Duration(cfg.PruneInterval)*time.Minute, h.PruneReservationSequences)
}
