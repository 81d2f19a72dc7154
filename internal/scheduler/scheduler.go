// Package scheduler 提供定时任务调度
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/dumeirei/hotel-inventory-backend/internal/common/logger"
)

// defaultTaskTimeout 单次任务执行超时
const defaultTaskTimeout = 5 * time.Minute

// Scheduler 定时任务调度器
type Scheduler struct {
	cron    *cron.Cron
	tasks   []*Task
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	timeout time.Duration
}

// Task 定时任务
type Task struct {
	Name     string
	Interval time.Duration
	Handler  func(ctx context.Context) error
}

// NewScheduler 创建调度器，同一任务上一轮未结束时跳过本轮
func NewScheduler() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	cl := cronLogger{}
	return &Scheduler{
		cron:    cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		tasks:   make([]*Task, 0),
		ctx:     ctx,
		cancel:  cancel,
		timeout: defaultTaskTimeout,
	}
}

// AddTask 添加任务，interval 不大于 0 的任务被忽略，不足一秒按一秒计
func (s *Scheduler) AddTask(name string, interval time.Duration, handler func(ctx context.Context) error) {
	if interval <= 0 {
		logger.Warn("忽略无效间隔的定时任务", logger.Module("scheduler"), zap.String("task", name))
		return
	}
	task := &Task{
		Name:     name,
		Interval: interval,
		Handler:  handler,
	}
	s.tasks = append(s.tasks, task)
	s.cron.Schedule(cron.Every(interval), cron.FuncJob(func() { s.executeTask(task) }))
}

// Tasks 已注册的任务
func (s *Scheduler) Tasks() []*Task {
	return s.tasks
}

// Start 启动调度器，每个任务立即执行一次
func (s *Scheduler) Start() {
	logger.Info("定时任务调度器启动", logger.Module("scheduler"), zap.Int("tasks", len(s.tasks)))

	for _, task := range s.tasks {
		s.wg.Add(1)
		go func(task *Task) {
			defer s.wg.Done()
			s.executeTask(task)
		}(task)
	}
	s.cron.Start()
}

// Stop 停止调度器并等待运行中的任务退出
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.wg.Wait()
	logger.Info("定时任务调度器已停止", logger.Module("scheduler"))
}

func (s *Scheduler) executeTask(task *Task) {
	if s.ctx.Err() != nil {
		return
	}
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	start := time.Now()
	if err := task.Handler(ctx); err != nil {
		logger.Error("定时任务执行失败",
			logger.Module("scheduler"),
			zap.String("task", task.Name),
			zap.Error(err),
		)
		return
	}
	logger.Debug("定时任务执行完成",
		logger.Module("scheduler"),
		zap.String("task", task.Name),
		logger.Latency(time.Since(start)),
	)
}

// cronLogger 将 cron 内部日志写入 zap
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.GetLogger().Sugar().Debugw(msg, append(keysAndValues, "module", "scheduler")...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.GetLogger().Sugar().Errorw(msg, append(keysAndValues, "module", "scheduler", "error", err)...)
}
