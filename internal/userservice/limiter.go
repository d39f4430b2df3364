package userservice

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const signInKeyPrefix = "signin:failures:"

// SignInLimiter counts failed sign-ins per e-mail in Redis. Once maxAttempts failures
// have been recorded the e-mail is locked out until cooldown has passed since the first.
type SignInLimiter struct {
	rdb         *redis.Client
	maxAttempts int64
	cooldown    time.Duration
}

func NewSignInLimiter(rdb *redis.Client, maxAttempts int, cooldown time.Duration) *SignInLimiter {
	return &SignInLimiter{rdb: rdb, maxAttempts: int64(maxAttempts), cooldown: cooldown}
}

func (l *SignInLimiter) key(email string) string {
	return signInKeyPrefix + email
}

// Allow reports whether another sign-in attempt for email may be made.
func (l *SignInLimiter) Allow(ctx context.Context, email string) (bool, error) {
	n, err := l.rdb.Get(ctx, l.key(email)).Int64()
	switch {
	case errors.Is(err, redis.Nil):
		return true, nil
	case err != nil:
		return false, err
	}

	return n < l.maxAttempts, nil
}

// Fail records a failed attempt. The cooldown window starts at the first failure.
func (l *SignInLimiter) Fail(ctx context.Context, email string) error {
	key := l.key(email)

	n, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return err
	}

	if n == 1 {
		return l.rdb.Expire(ctx, key, l.cooldown).Err()
	}

	return nil
}

func (l *SignInLimiter) Reset(ctx context.Context, email string) error {
	return l.rdb.Del(ctx, l.key(email)).Err()
}
