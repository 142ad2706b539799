package usecase

import (
	"context"
	"errors"
	"time"

	"dmbox/internal/entity"
	"dmbox/internal/repository"
)

var (
	ErrHourlyLimitExceeded = errors.New("hourly message limit reached for this recipient")
	ErrDailyLimitExceeded  = errors.New("daily message limit reached")
)

const (
	DefaultHourlyLimit = 10
	DefaultDailyLimit  = 100
)

type RateLimits struct {
	HourlyPerRecipient int
	DailyGlobal        int
}

func DefaultRateLimits() RateLimits {
	return RateLimits{
		HourlyPerRecipient: DefaultHourlyLimit,
		DailyGlobal:        DefaultDailyLimit,
	}
}

// RateLimiter bounds how many messages a sender may send to one
// recipient per hour and in aggregate per day.
type RateLimiter interface {
	// CheckAndRecord denies with a limit error or records the send.
	// Callers must run it inside the same transaction as the message
	// insert: check and increment have to commit together.
	CheckAndRecord(ctx context.Context, senderId, recipientId string, now time.Time) error
}

type rateLimiter struct {
	repo   repository.RateLimitRepository
	limits RateLimits
}

func NewRateLimiter(repo repository.RateLimitRepository, limits RateLimits) RateLimiter {
	if limits.HourlyPerRecipient <= 0 {
		limits.HourlyPerRecipient = DefaultHourlyLimit
	}
	if limits.DailyGlobal <= 0 {
		limits.DailyGlobal = DefaultDailyLimit
	}
	return &rateLimiter{
		repo:   repo,
		limits: limits,
	}
}

// CheckAndRecord uses fixed windows: summing the current bucket plus
// the immediately prior one over the trailing interval approximates a
// sliding window without per-message timestamps. At most two buckets
// ever match each sum.
func (l *rateLimiter) CheckAndRecord(ctx context.Context, senderId, recipientId string, now time.Time) error {
	hourStart := now.Truncate(time.Hour)
	dayStart := now.Truncate(24 * time.Hour)

	hourlySent, err := l.repo.SumSince(ctx, senderId, recipientId, entity.LimitHourlyPerRecipient, now.Add(-time.Hour))
	if err != nil {
		return err
	}
	if hourlySent >= l.limits.HourlyPerRecipient {
		return ErrHourlyLimitExceeded
	}

	dailySent, err := l.repo.SumSince(ctx, senderId, "", entity.LimitDailyGlobal, now.Add(-24*time.Hour))
	if err != nil {
		return err
	}
	if dailySent >= l.limits.DailyGlobal {
		return ErrDailyLimitExceeded
	}

	if err := l.repo.Increment(ctx, senderId, recipientId, entity.LimitHourlyPerRecipient, hourStart); err != nil {
		return err
	}
	return l.repo.Increment(ctx, senderId, "", entity.LimitDailyGlobal, dayStart)
}
