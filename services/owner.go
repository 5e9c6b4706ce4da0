package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"foodscan/db"
	"foodscan/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	ThrottleRoleOwner = "owner"
	minPasswordLen    = 8
	SessionTTL        = 24 * time.Hour
)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type ownerRow struct {
	user models.OwnerUser
	hash *string
}

func getOwnerByEmail(ctx context.Context, email string) (ownerRow, error) {
	var r ownerRow
	err := db.Pool.QueryRow(ctx, `
		SELECT o.id, o.email, o.name, o.restaurant_id, r.name, o.password_hash
		FROM owners o JOIN restaurants r ON r.id = o.restaurant_id
		WHERE o.email = $1`,
		normalizeEmail(email),
	).Scan(&r.user.ID, &r.user.Email, &r.user.Name, &r.user.RestaurantID, &r.user.RestaurantName, &r.hash)
	return r, err
}

// VerifyAccess reports whether email belongs to a restaurant owner and whether a password still
// has to be created.
func VerifyAccess(ctx context.Context, email string) (models.AccessVerificationResponse, error) {
	r, err := getOwnerByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.AccessVerificationResponse{HasAccess: false, Message: ErrNoAccess.Error()}, nil
		}
		return models.AccessVerificationResponse{}, fmt.Errorf("verify access: %w", err)
	}
	return models.AccessVerificationResponse{
		HasAccess:    true,
		IsFirstLogin: r.hash == nil,
		UserID:       r.user.ID,
	}, nil
}

// CreatePassword sets the first password for an owner. It refuses to overwrite an existing one.
func CreatePassword(ctx context.Context, req models.CreatePasswordRequest) error {
	if len(req.Password) < minPasswordLen {
		return ErrWeakPassword
	}
	if req.Password != req.ConfirmPassword {
		return ErrPasswordMismatch
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	tag, err := db.Pool.Exec(ctx, `
		UPDATE owners SET password_hash = $2, updated_at = now()
		WHERE email = $1 AND password_hash IS NULL`,
		normalizeEmail(req.Email), string(hash),
	)
	if err != nil {
		return fmt.Errorf("create password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		access, err := VerifyAccess(ctx, req.Email)
		if err != nil {
			return err
		}
		if !access.HasAccess {
			return ErrNoAccess
		}
		return ErrPasswordSet
	}
	return nil
}

// Login checks the password under the failed-attempt throttle and opens a session.
func Login(ctx context.Context, req models.LoginRequest) (models.LoginResponse, error) {
	email := normalizeEmail(req.Email)
	wait, err := LoginThrottleWaitSeconds(ctx, email, ThrottleRoleOwner)
	if err != nil {
		return models.LoginResponse{}, err
	}
	if wait > 0 {
		return models.LoginResponse{}, &ThrottledError{WaitSeconds: wait}
	}

	r, err := getOwnerByEmail(ctx, email)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return models.LoginResponse{}, fmt.Errorf("login: %w", err)
	}
	if err != nil || r.hash == nil || bcrypt.CompareHashAndPassword([]byte(*r.hash), []byte(req.Password)) != nil {
		if rerr := RecordLoginFailed(ctx, email, ThrottleRoleOwner); rerr != nil {
			return models.LoginResponse{}, rerr
		}
		return models.LoginResponse{}, ErrInvalidCredentials
	}
	if err := RecordLoginSuccess(ctx, email, ThrottleRoleOwner); err != nil {
		return models.LoginResponse{}, err
	}

	token := uuid.NewString()
	if _, err := db.Pool.Exec(ctx, `
		INSERT INTO owner_sessions (token, owner_id, expires_at) VALUES ($1, $2, $3)`,
		token, r.user.ID, time.Now().Add(SessionTTL),
	); err != nil {
		return models.LoginResponse{}, fmt.Errorf("create session: %w", err)
	}
	return models.LoginResponse{Success: true, Token: token, User: r.user}, nil
}

// OwnerBySession resolves a bearer token to its owner.
func OwnerBySession(ctx context.Context, token string) (models.OwnerUser, error) {
	var u models.OwnerUser
	err := db.Pool.QueryRow(ctx, `
		SELECT o.id, o.email, o.name, o.restaurant_id, r.name
		FROM owner_sessions s
		JOIN owners o ON o.id = s.owner_id
		JOIN restaurants r ON r.id = o.restaurant_id
		WHERE s.token = $1 AND s.expires_at > now()`,
		token,
	).Scan(&u.ID, &u.Email, &u.Name, &u.RestaurantID, &u.RestaurantName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.OwnerUser{}, ErrUnauthorized
		}
		return models.OwnerUser{}, fmt.Errorf("owner by session: %w", err)
	}
	return u, nil
}

// AddOwner registers an owner email for a restaurant. With an initial password the owner skips
// the first-login password step.
func AddOwner(ctx context.Context, email, name, restaurantID, initialPassword string) (models.OwnerUser, error) {
	var hash *string
	if initialPassword != "" {
		h, err := bcrypt.GenerateFromPassword([]byte(initialPassword), bcrypt.DefaultCost)
		if err != nil {
			return models.OwnerUser{}, fmt.Errorf("hash password: %w", err)
		}
		s := string(h)
		hash = &s
	}
	u := models.OwnerUser{ID: uuid.NewString(), Email: normalizeEmail(email), Name: name, RestaurantID: restaurantID}
	err := db.Pool.QueryRow(ctx, `
		WITH ins AS (
			INSERT INTO owners (id, email, name, restaurant_id, password_hash)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (email) DO UPDATE SET
				name = EXCLUDED.name,
				restaurant_id = EXCLUDED.restaurant_id,
				password_hash = COALESCE(EXCLUDED.password_hash, owners.password_hash),
				updated_at = now()
			RETURNING id, restaurant_id
		)
		SELECT ins.id, r.name FROM ins JOIN restaurants r ON r.id = ins.restaurant_id`,
		u.ID, u.Email, u.Name, u.RestaurantID, hash,
	).Scan(&u.ID, &u.RestaurantName)
	if err != nil {
		return models.OwnerUser{}, notFound(err, "add owner")
	}
	return u, nil
}

// DeleteExpiredSessions removes sessions past their expiry.
func DeleteExpiredSessions(ctx context.Context) error {
	_, err := db.Pool.Exec(ctx, `DELETE FROM owner_sessions WHERE expires_at < now()`)
	return err
}
