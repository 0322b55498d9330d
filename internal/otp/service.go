package otp

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/meadowline/backend-dairy/internal/auth"
	"github.com/meadowline/backend-dairy/internal/common"
	"github.com/meadowline/backend-dairy/internal/obs"
	"github.com/meadowline/backend-dairy/internal/store"
)

var (
	// ErrInvalidPhone marks a phone number that fails normalization.
	ErrInvalidPhone = errors.New("otp: invalid phone number")
	// ErrInvalidCode marks a missing, expired, or mismatched code.
	ErrInvalidCode = errors.New("otp: invalid or expired code")
	// ErrRateLimited marks too many code requests for one phone number.
	ErrRateLimited = errors.New("otp: too many requests")
)

const (
	defaultTTL        = 5 * time.Minute
	defaultMaxPerHour = 5
	codeDigits        = 6
)

var phonePattern = regexp.MustCompile(`^\+?[0-9]{8,15}$`)

// Querier captures the user lookup methods the OTP flow needs.
type Querier interface {
	GetUserByPhone(ctx context.Context, phone string) (store.User, error)
	CreateUser(ctx context.Context, p store.CreateUserParams) (store.User, error)
}

// Dispatcher hands the generated code off for asynchronous SMS delivery.
type Dispatcher interface {
	EnqueueOTPSMS(ctx context.Context, phone, code string) error
}

// Service implements passwordless phone login with one-time codes kept in
// redis under the configured TTL.
type Service struct {
	R          *redis.Client
	Q          Querier
	Auth       *auth.Service
	Dispatch   Dispatcher
	SMS        common.SMSSender
	TTL        time.Duration
	MaxPerHour int
	Metrics    *obs.ShopMetrics
}

func (s *Service) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return defaultTTL
}

func (s *Service) maxPerHour() int64 {
	if s.MaxPerHour > 0 {
		return int64(s.MaxPerHour)
	}
	return defaultMaxPerHour
}

// NormalizePhone strips separators and validates the remaining digits.
func NormalizePhone(phone string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')', '.':
			return -1
		}
		return r
	}, strings.TrimSpace(phone))
	if !phonePattern.MatchString(cleaned) {
		return "", ErrInvalidPhone
	}
	return cleaned, nil
}

// Request generates a fresh code for the phone number and dispatches it over
// SMS. Requests beyond the hourly budget fail with ErrRateLimited.
func (s *Service) Request(ctx context.Context, phone string) error {
	if s == nil {
		return errors.New("otp service not configured")
	}
	normalized, err := NormalizePhone(phone)
	if err != nil {
		return err
	}

	rateKey := "otp:rate:" + normalized
	count, err := s.R.Incr(ctx, rateKey).Result()
	if err != nil {
		return fmt.Errorf("otp rate counter: %w", err)
	}
	if count == 1 {
		if err := s.R.Expire(ctx, rateKey, time.Hour).Err(); err != nil {
			return fmt.Errorf("otp rate expiry: %w", err)
		}
	}
	if count > s.maxPerHour() {
		return ErrRateLimited
	}

	code, err := generateCode(codeDigits)
	if err != nil {
		return fmt.Errorf("generate otp code: %w", err)
	}
	if err := s.R.Set(ctx, codeKey(normalized), common.HashCredential(code), s.ttl()).Err(); err != nil {
		return fmt.Errorf("store otp code: %w", err)
	}

	if s.Dispatch != nil {
		if err := s.Dispatch.EnqueueOTPSMS(ctx, normalized, code); err != nil {
			return fmt.Errorf("dispatch otp sms: %w", err)
		}
	} else if s.SMS != nil {
		body := fmt.Sprintf("Your login code is %s. It expires in a few minutes.", code)
		if err := s.SMS.Send(normalized, body); err != nil {
			return fmt.Errorf("send otp sms: %w", err)
		}
	}

	if s.Metrics != nil {
		s.Metrics.OTPSent.Inc()
	}
	return nil
}

// Verify checks the submitted code and logs the phone number in, creating a
// customer account on first use. Codes are single use.
func (s *Service) Verify(ctx context.Context, phone, code string) (auth.LoginResult, error) {
	if s == nil {
		return auth.LoginResult{}, errors.New("otp service not configured")
	}
	normalized, err := NormalizePhone(phone)
	if err != nil {
		return auth.LoginResult{}, err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return auth.LoginResult{}, ErrInvalidCode
	}

	key := codeKey(normalized)
	stored, err := s.R.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return auth.LoginResult{}, ErrInvalidCode
	}
	if err != nil {
		return auth.LoginResult{}, fmt.Errorf("load otp code: %w", err)
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(common.HashCredential(code))) != 1 {
		return auth.LoginResult{}, ErrInvalidCode
	}
	if err := s.R.Del(ctx, key).Err(); err != nil {
		return auth.LoginResult{}, fmt.Errorf("consume otp code: %w", err)
	}

	user, err := s.Q.GetUserByPhone(ctx, normalized)
	if errors.Is(err, store.ErrNotFound) {
		user, err = s.Q.CreateUser(ctx, store.CreateUserParams{
			Name:  "Customer " + common.MaskPhone(normalized),
			Phone: &normalized,
			Role:  auth.RoleCustomer,
		})
	}
	if err != nil {
		return auth.LoginResult{}, fmt.Errorf("resolve phone user: %w", err)
	}

	return s.Auth.LoginAs(ctx, user)
}

func codeKey(phone string) string {
	return "otp:code:" + phone
}

func generateCode(digits int) (string, error) {
	limit := big.NewInt(1)
	for i := 0; i < digits; i++ {
		limit.Mul(limit, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", digits, n), nil
}
