// Package hotel 提供房间、入住和预订服务
package hotel

import (
	"context"
	stderrors "errors"
	"time"

	"gorm.io/gorm"

	"github.com/dumeirei/hotel-inventory-backend/internal/common/database"
	"github.com/dumeirei/hotel-inventory-backend/internal/common/errors"
	"github.com/dumeirei/hotel-inventory-backend/internal/common/lock"
	"github.com/dumeirei/hotel-inventory-backend/internal/common/metrics"
)

// roomTx 房间锁内的事务执行器
// 顺序固定为：房间锁 -> 事务 -> 业务读写 -> 提交 -> onCommit -> 释放锁
type roomTx struct {
	db     *gorm.DB
	locker lock.Locker
}

// run 在房间锁内执行事务，提交成功后仍持锁调用 onCommit，
// 同一房间的状态通知顺序与提交顺序一致
func (r *roomTx) run(ctx context.Context, roomID int64, fn func(tx *gorm.DB) error, onCommit ...func()) error {
	start := time.Now()
	unlock, err := r.locker.Lock(ctx, lock.RoomKey(roomID))
	metrics.GetMetrics().ObserveLockWait(time.Since(start))
	if err != nil {
		return err
	}
	defer unlock()

	if err := toAppError(r.db.WithContext(ctx).Transaction(fn)); err != nil {
		return err
	}
	for _, f := range onCommit {
		f()
	}
	return nil
}

// toAppError 将存储层错误转换为 AppError
func toAppError(err error) error {
	if err == nil || errors.IsAppError(err) {
		return err
	}
	if database.IsDuplicateKey(err) {
		return errors.ErrConcurrentWrite.WithError(err)
	}
	return errors.ErrDatabaseError.WithError(err)
}

// notFoundOr 记录不存在时返回 notFound，其他错误按数据库错误处理
func notFoundOr(err error, notFound *errors.AppError) error {
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return toAppError(err)
}

// rejected 是否为业务拒绝（区别于内部错误），用于指标标签
func rejected(err error) bool {
	return errors.IsNotFound(err) || errors.IsBusinessRule(err) ||
		errors.IsValidation(err) || errors.IsConflict(err)
}
