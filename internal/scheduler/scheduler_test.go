package scheduler

import (
	"context"
	stderrors "errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/dumeirei/hotel-inventory-backend/internal/common/config"
	"github.com/dumeirei/hotel-inventory-backend/internal/models"
	"github.com/dumeirei/hotel-inventory-backend/internal/repository"
)

func TestScheduler_RunsImmediatelyAndStops(t *testing.T) {
	s := NewScheduler()

	var runs int32
	done := make(chan struct{}, 1)
	s.AddTask("counter", time.Hour, func(ctx context.Context) error {
		if atomic.AddInt32(&runs, 1) == 1 {
			done <- struct{}{}
		}
		return nil
	})
	s.AddTask("failing", time.Hour, func(ctx context.Context) error {
		return stderrors.New("boom")
	})
	s.AddTask("ignored", 0, func(ctx context.Context) error { return nil })
	require.Len(t, s.Tasks(), 2)

	s.Start()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("任务未在启动时立即执行")
	}
	s.Stop()

	assert.Equal(t, int32(1), atomic.LoadInt32(&runs))
}

func TestScheduler_Ticks(t *testing.T) {
	s := NewScheduler()

	var runs int32
	s.AddTask("fast", 10*time.Millisecond, func(ctx context.Context) error {
		atomic.AddInt32(&runs, 1)
		return nil
	})
	s.Start()
	// 不足一秒的间隔按一秒调度
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&runs) >= 2 }, 3*time.Second, 20*time.Millisecond)
	s.Stop()

	after := atomic.LoadInt32(&runs)
	time.Sleep(1200 * time.Millisecond)
	assert.Equal(t, after, atomic.LoadInt32(&runs), "停止后不再执行")
}

func setupTaskDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, models.AutoMigrate(db))
	return db
}

func TestTaskHandler_PruneReservationSequences(t *testing.T) {
	db := setupTaskDB(t)
	ctx := context.Background()
	repo := repository.NewReservationSequenceRepository(db)

	for _, day := range []string{"20250101", "20250130", "20250131", "20250301"} {
		require.NoError(t, repo.Insert(ctx, day, 1))
	}

	h := NewTaskHandler(repo, 30)
	h.now = func() time.Time { return time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC) }

	require.NoError(t, h.PruneReservationSequences(ctx))

	// 2025-03-02 往前 30 天为 2025-01-31
	_, err := repo.Get(ctx, "20250101")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, err = repo.Get(ctx, "20250130")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, err = repo.Get(ctx, "20250131")
	assert.NoError(t, err)
	_, err = repo.Get(ctx, "20250301")
	assert.NoError(t, err)

	t.Run("保留期为0时不清理", func(t *testing.T) {
		h := NewTaskHandler(repo, 0)
		require.NoError(t, h.PruneReservationSequences(ctx))
		_, err := repo.Get(ctx, "20250131")
		assert.NoError(t, err)
	})
}

func TestRegisterTasks(t *testing.T) {
	s := NewScheduler()
	h := NewTaskHandler(nil, 30)

	RegisterTasks(s, h, &config.BookingConfig{PruneInterval: 60})
	require.Len(t, s.Tasks(), 1)
	assert.Equal(t, TaskPruneSequences, s.Tasks()[0].Name)
	assert.Equal(t, time.Hour, s.Tasks()[0].Interval)
}
