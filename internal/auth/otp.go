// Package auth verifies phone numbers by one-time code and signs the
// session tokens handed out afterwards.
package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/seniorbuddy/internal/backend"
	"github.com/lalith-99/seniorbuddy/internal/repository"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type State string

const (
	StateAwaitingCode State = "awaiting_code"
	StateVerified     State = "verified"
	StateFailed       State = "failed"
)

const (
	CodeLength  = 6
	CodeTTL     = 5 * time.Minute
	MaxAttempts = 5
)

var (
	ErrWrongCode       = errors.New("wrong code")
	ErrCodeExpired     = errors.New("code expired or unknown")
	ErrTooManyAttempts = errors.New("too many attempts")
)

// countAttemptScript bumps the attempt counter only while the code still
// exists, so an expired key is never recreated without a TTL. It returns
// nil for a missing key, else {attempts used, remaining ms}.
var countAttemptScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
  return false
end
local used = redis.call("HINCRBY", KEYS[1], "attempts", 1)
return {used, redis.call("PTTL", KEYS[1])}
`)

// Verification is one pass through the code flow.
//
// Only a Verified verification has a UID. AttemptsLeft is meaningful
// while the state is AwaitingCode.
type Verification struct {
	ID           string    `json:"verification_id"`
	Phone        string    `json:"-"`
	State        State     `json:"state"`
	UID          string    `json:"uid,omitempty"`
	AttemptsLeft int       `json:"attempts_left"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Verifier keeps pending codes in Redis under otp:{id} as a hash of
// phone, bcrypt hash and attempt count. The key's TTL is the code's
// lifetime, so expiry needs no sweeper.
type Verifier struct {
	rdb        *redis.Client
	identities repository.IdentityRepository
	sms        SMSSender
	logger     *zap.Logger

	now     func() time.Time
	newCode func() (string, error)
}

// NewVerifier with a nil client or repository builds the disabled variant.
func NewVerifier(rdb *redis.Client, identities repository.IdentityRepository, sms SMSSender, logger *zap.Logger) *Verifier {
	return &Verifier{
		rdb:        rdb,
		identities: identities,
		sms:        sms,
		logger:     logger,
		now:        time.Now,
		newCode:    randomCode,
	}
}

func otpKey(id string) string {
	return "otp:" + id
}

func (v *Verifier) enabled() bool {
	return v.rdb != nil && v.identities != nil && v.sms != nil
}

// Request starts a verification for phone and sends the code.
func (v *Verifier) Request(ctx context.Context, phone string) (*Verification, error) {
	if !v.enabled() {
		return nil, backend.ErrDisabled
	}

	normalized, err := NormalizePhone(phone)
	if err != nil {
		return nil, err
	}

	code, err := v.newCode()
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash code: %w", err)
	}

	id := uuid.NewString()
	key := otpKey(id)

	_, err = v.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, map[string]any{
			"phone":    normalized,
			"hash":     string(hash),
			"attempts": 0,
		})
		pipe.Expire(ctx, key, CodeTTL)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store code: %w", err)
	}

	msg := fmt.Sprintf("Your SeniorBuddy code is %s. It expires in %d minutes.", code, int(CodeTTL/time.Minute))
	if err := v.sms.Send(ctx, normalized, msg); err != nil {
		// A code nobody received must not stay redeemable.
		if delErr := v.rdb.Del(ctx, key).Err(); delErr != nil {
			v.logger.Warn("failed to drop unsent code", zap.String("verification_id", id), zap.Error(delErr))
		}
		return nil, fmt.Errorf("send code: %w", err)
	}

	v.logger.Info("verification code sent", zap.String("verification_id", id))

	return &Verification{
		ID:           id,
		Phone:        normalized,
		State:        StateAwaitingCode,
		AttemptsLeft: MaxAttempts,
		ExpiresAt:    v.now().Add(CodeTTL),
	}, nil
}

// Confirm checks code against verification id.
//
// It always returns the verification's resulting state. A non-nil error
// alongside it says why the state is not Verified: ErrWrongCode keeps the
// verification AwaitingCode, ErrCodeExpired and ErrTooManyAttempts leave
// it Failed. A verified code is consumed and cannot be confirmed twice.
func (v *Verifier) Confirm(ctx context.Context, id, code string) (*Verification, error) {
	if !v.enabled() {
		return nil, backend.ErrDisabled
	}
	id = strings.TrimSpace(id)
	code = strings.TrimSpace(code)
	if id == "" || code == "" {
		return nil, fmt.Errorf("%w: verification id and code are required", backend.ErrInvalidInput)
	}

	key := otpKey(id)
	failed := &Verification{ID: id, State: StateFailed}

	fields, err := v.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("load code: %w", err)
	}
	if len(fields) == 0 {
		return failed, ErrCodeExpired
	}

	ttl, err := v.rdb.PTTL(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("load code ttl: %w", err)
	}
	if ttl <= 0 {
		// Gone since HGetAll, or a key that lost its TTL. Either way the
		// code is no longer usable.
		if err := v.rdb.Del(ctx, key).Err(); err != nil {
			v.logger.Warn("failed to drop stale code", zap.String("verification_id", id), zap.Error(err))
		}
		return failed, ErrCodeExpired
	}
	pending := &Verification{
		ID:        id,
		Phone:     fields["phone"],
		State:     StateAwaitingCode,
		ExpiresAt: v.now().Add(ttl),
	}

	if bcrypt.CompareHashAndPassword([]byte(fields["hash"]), []byte(code)) != nil {
		used, remaining, err := v.countAttempt(ctx, key)
		if errors.Is(err, ErrCodeExpired) {
			return failed, ErrCodeExpired
		}
		if err != nil {
			return nil, err
		}
		left := MaxAttempts - used
		if left <= 0 {
			if err := v.rdb.Del(ctx, key).Err(); err != nil {
				v.logger.Warn("failed to drop exhausted code", zap.String("verification_id", id), zap.Error(err))
			}
			failed.Phone = pending.Phone
			return failed, ErrTooManyAttempts
		}
		pending.AttemptsLeft = left
		pending.ExpiresAt = v.now().Add(remaining)
		return pending, ErrWrongCode
	}

	// Del reports how many keys it removed. Two concurrent correct
	// confirmations race here and only one of them sees 1.
	removed, err := v.rdb.Del(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("consume code: %w", err)
	}
	if removed == 0 {
		return failed, ErrCodeExpired
	}

	uid, err := v.identities.Resolve(ctx, pending.Phone, uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("resolve identity: %w", err)
	}

	pending.State = StateVerified
	pending.UID = uid
	pending.AttemptsLeft = 0
	return pending, nil
}

// countAttempt records one wrong guess. ErrCodeExpired means the code was
// gone, or out of time, by the time the guess was counted.
func (v *Verifier) countAttempt(ctx context.Context, key string) (int, time.Duration, error) {
	res, err := countAttemptScript.Run(ctx, v.rdb, []string{key}).Int64Slice()
	if errors.Is(err, redis.Nil) {
		return 0, 0, ErrCodeExpired
	}
	if err != nil {
		return 0, 0, fmt.Errorf("count attempt: %w", err)
	}
	if len(res) != 2 || res[1] <= 0 {
		return 0, 0, ErrCodeExpired
	}
	return int(res[0]), time.Duration(res[1]) * time.Millisecond, nil
}

func randomCode() (string, error) {
	limit := big.NewInt(1)
	for i := 0; i < CodeLength; i++ {
		limit.Mul(limit, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	s := strconv.FormatInt(n.Int64(), 10)
	return strings.Repeat("0", CodeLength-len(s)) + s, nil
}
