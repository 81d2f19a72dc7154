package hotel

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/dumeirei/hotel-inventory-backend/internal/common/database"
	"github.com/dumeirei/hotel-inventory-backend/internal/common/errors"
	"github.com/dumeirei/hotel-inventory-backend/internal/repository"
)

const (
	reservationNoPrefix = "RES"
	sequenceDayLayout   = "20060102"
	maxDailySequence    = 9999
)

// NumberGenerator 预订号生成器
// 格式 RES<YYYYMMDD><4 位序号>，序号按天存放在 reservation_sequences
type NumberGenerator struct {
	seqRepo         *repository.ReservationSequenceRepository
	reservationRepo *repository.ReservationRepository
}

// NewNumberGenerator 创建预订号生成器
func NewNumberGenerator(seqRepo *repository.ReservationSequenceRepository, reservationRepo *repository.ReservationRepository) *NumberGenerator {
	return &NumberGenerator{seqRepo: seqRepo, reservationRepo: reservationRepo}
}

// Next 在事务 tx 内为 day 分配下一个预订号
// 当天序列不存在时从已有预订号的最大值起算；并发创建同一天序列时返回 Conflict
func (g *NumberGenerator) Next(ctx context.Context, tx *gorm.DB, day time.Time) (string, error) {
	key := day.Format(sequenceDayLayout)
	seqRepo := g.seqRepo.WithTx(tx)

	seq, ok, err := seqRepo.Increment(ctx, key)
	if err != nil {
		return "", err
	}
	if !ok {
		maxNo, err := g.reservationRepo.WithTx(tx).MaxNoWithPrefix(ctx, reservationNoPrefix+key)
		if err != nil {
			return "", err
		}
		seq = parseSequence(maxNo, key) + 1
		if err := seqRepo.Insert(ctx, key, seq); err != nil {
			if database.IsDuplicateKey(err) {
				return "", errors.ErrConcurrentWrite.WithError(err)
			}
			return "", err
		}
	}

	if seq > maxDailySequence {
		return "", errors.ErrReservationNumberExhaust.WithMessagef("%s 的预订号已用完", key)
	}
	return FormatReservationNo(day, seq), nil
}

// FormatReservationNo 格式化预订号
func FormatReservationNo(day time.Time, seq int) string {
	return fmt.Sprintf("%s%s%04d", reservationNoPrefix, day.Format(sequenceDayLayout), seq)
}

// parseSequence 从预订号中取出序号，无法解析时返回 0
func parseSequence(no, dayKey string) int {
	rest := strings.TrimPrefix(no, reservationNoPrefix+dayKey)
	if rest == no || rest == "" {
		return 0
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
