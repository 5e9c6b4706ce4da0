package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"foodscan/db"

	"github.com/jackc/pgx/v5"
)

const ThrottleCooldownCapSeconds = 30

// LoginThrottleWaitSeconds returns how many seconds the email must wait before trying again (0 if no cooldown).
func LoginThrottleWaitSeconds(ctx context.Context, email, role string) (int, error) {
	var cooldownUntil *time.Time
	err := db.Pool.QueryRow(ctx, `
		SELECT cooldown_until FROM login_throttle WHERE email = $1 AND role = $2`,
		email, role,
	).Scan(&cooldownUntil)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("login throttle: %w", err)
	}
	if cooldownUntil == nil {
		return 0, nil
	}
	if until := *cooldownUntil; time.Now().Before(until) {
		return int(time.Until(until).Seconds()) + 1, nil
	}
	return 0, nil
}

// RecordLoginFailed increments fail_count and sets cooldown_until = now() + min(30, 2^fail_count) seconds.
func RecordLoginFailed(ctx context.Context, email, role string) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO login_throttle (email, role, fail_count, last_failed_at, cooldown_until, updated_at)
		VALUES ($1, $2, 1, now(), now() + make_interval(secs => 2), now())
		ON CONFLICT (email, role) DO UPDATE SET
			fail_count = login_throttle.fail_count + 1,
			last_failed_at = now(),
			cooldown_until = now() + make_interval(secs => LEAST($3::int, POWER(2, login_throttle.fail_count + 1)::int)),
			updated_at = now()`,
		email, role, ThrottleCooldownCapSeconds,
	)
	if err != nil {
		return fmt.Errorf("record login failure: %w", err)
	}
	return nil
}

// RecordLoginSuccess resets fail_count and cooldown_until for the email/role.
func RecordLoginSuccess(ctx context.Context, email, role string) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO login_throttle (email, role, fail_count, last_failed_at, cooldown_until, updated_at)
		VALUES ($1, $2, 0, NULL, NULL, now())
		ON CONFLICT (email, role) DO UPDATE SET
			fail_count = 0,
			last_failed_at = NULL,
			cooldown_until = NULL,
			updated_at = now()`,
		email, role,
	)
	if err != nil {
		return fmt.Errorf("record login success: %w", err)
	}
	return nil
}

// CooldownSecondsForFailCount returns min(30, 2^failCount).
func CooldownSecondsForFailCount(failCount int) int {
	s := int(math.Pow(2, float64(failCount)))
	if s > ThrottleCooldownCapSeconds {
		return ThrottleCooldownCapSeconds
	}
	return s
}
