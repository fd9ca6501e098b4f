package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"

	"stockflow/internal/core/apperror"
)

// IdempotencyStatus represents the state of an idempotent operation.
type IdempotencyStatus string

const (
	IdempotencyStatusPending IdempotencyStatus = "pending"
	IdempotencyStatusSuccess IdempotencyStatus = "success"
	IdempotencyStatusFailed  IdempotencyStatus = "failed"
)

// stalePendingAfter is how long a pending key may sit before another
// request with the same key is allowed to take it over.
const stalePendingAfter = time.Minute

// IdempotencyRecord is a row of sys_idempotency.
type IdempotencyRecord struct {
	Key         string            `db:"idempotency_key"`
	Username    string            `db:"username"`
	Operation   string            `db:"operation"`
	Status      IdempotencyStatus `db:"status"`
	RequestHash string            `db:"request_hash"`
	Response    []byte            `db:"response"`
	StatusCode  *int              `db:"response_status"`
	ContentType *string           `db:"response_content_type"`
	UpdatedAt   time.Time         `db:"updated_at"`
	Inserted    bool              `db:"inserted"`
}

// IdempotencyReplay is the cached HTTP response for replay.
type IdempotencyReplay struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// IdempotencyStore guards issue, receive and other mutating calls against
// duplicate submission (double-clicked "Issue" buttons, client retries).
type IdempotencyStore struct {
	txManager *TxManager
	ttl       time.Duration
}

// NewIdempotencyStore creates a new idempotency store.
func NewIdempotencyStore(txManager *TxManager, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{txManager: txManager, ttl: ttl}
}

// AcquireKey claims key for this request.
// Returns (nil, nil) when the caller owns the key and should proceed,
// a replay when the operation already finished, or an error when the key
// is in flight or was used for a different request.
func (s *IdempotencyStore) AcquireKey(ctx context.Context, key, username, operation, requestHash string) (*IdempotencyReplay, error) {
	now := time.Now().UTC()

	var record IdempotencyRecord
	err := pgxscan.Get(ctx, s.txManager.GetQuerier(ctx), &record, `
		INSERT INTO sys_idempotency (idempotency_key, username, operation, status, request_hash, created_at, updated_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6, $7)
		ON CONFLICT (idempotency_key) DO UPDATE SET
			expires_at = GREATEST(sys_idempotency.expires_at, EXCLUDED.expires_at)
		RETURNING idempotency_key, username, operation, status, request_hash, response,
		          response_status, response_content_type, updated_at, (xmax = 0) AS inserted`,
		key, username, operation, IdempotencyStatusPending, requestHash, now, now.Add(s.ttl))
	if err != nil {
		return nil, fmt.Errorf("acquire idempotency key: %w", err)
	}

	replay, takeOver, err := resolveIdempotency(&record, username, operation, requestHash, now)
	if err != nil || !takeOver {
		return replay, err
	}

	_, err = s.txManager.GetQuerier(ctx).Exec(ctx, `
		UPDATE sys_idempotency SET updated_at = $1
		WHERE idempotency_key = $2 AND status = $3`,
		now, key, IdempotencyStatusPending)
	if err != nil {
		return nil, fmt.Errorf("reclaim stale key: %w", err)
	}
	return nil, nil
}

// resolveIdempotency decides what to do with an existing record.
// takeOver is true when a stale pending key should be reclaimed.
func resolveIdempotency(record *IdempotencyRecord, username, operation, requestHash string, now time.Time) (replay *IdempotencyReplay, takeOver bool, err error) {
	if record.Inserted {
		return nil, false, nil
	}

	if record.Username != username || record.Operation != operation || record.RequestHash != requestHash {
		return nil, false, apperror.NewIdempotencyMismatch(record.Key).
			WithDetail("stored_operation", record.Operation).
			WithDetail("request_operation", operation)
	}

	switch record.Status {
	case IdempotencyStatusSuccess, IdempotencyStatusFailed:
		replay := &IdempotencyReplay{
			StatusCode:  http.StatusOK,
			ContentType: "application/json",
			Body:        record.Response,
		}
		if record.StatusCode != nil && *record.StatusCode != 0 {
			replay.StatusCode = *record.StatusCode
		}
		if record.ContentType != nil && *record.ContentType != "" {
			replay.ContentType = *record.ContentType
		}
		return replay, false, nil
	default:
		if now.Sub(record.UpdatedAt) > stalePendingAfter {
			return nil, true, nil
		}
		return nil, false, apperror.NewIdempotencyConflict(record.Key)
	}
}

// CompleteKey stores the successful response for replay.
func (s *IdempotencyStore) CompleteKey(ctx context.Context, key string, statusCode int, contentType string, response any) error {
	return s.finish(ctx, key, IdempotencyStatusSuccess, statusCode, contentType, response)
}

// FailKey stores a client error for replay. Server errors release the key
// so the client may retry.
func (s *IdempotencyStore) FailKey(ctx context.Context, key string, statusCode int, contentType string, response any) error {
	if statusCode >= http.StatusInternalServerError {
		_, err := s.txManager.GetQuerier(ctx).Exec(ctx,
			`DELETE FROM sys_idempotency WHERE idempotency_key = $1`, key)
		return err
	}
	return s.finish(ctx, key, IdempotencyStatusFailed, statusCode, contentType, response)
}

func (s *IdempotencyStore) finish(ctx context.Context, key string, status IdempotencyStatus, statusCode int, contentType string, response any) error {
	var body []byte
	if response != nil {
		b, err := json.Marshal(response)
		if err != nil {
			return fmt.Errorf("marshal response: %w", err)
		}
		body = b
	}
	_, err := s.txManager.GetQuerier(ctx).Exec(ctx, `
		UPDATE sys_idempotency
		SET status = $1, response = $2, response_status = $3,
		    response_content_type = $4, updated_at = $5
		WHERE idempotency_key = $6`,
		status, body, statusCode, contentType, time.Now().UTC(), key)
	return err
}

// CleanupExpired removes expired idempotency records.
func (s *IdempotencyStore) CleanupExpired(ctx context.Context) (int64, error) {
	result, err := s.txManager.GetQuerier(ctx).Exec(ctx,
		`DELETE FROM sys_idempotency WHERE expires_at < $1`, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
