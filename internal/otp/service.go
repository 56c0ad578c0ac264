package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/restaurant-service/internal/config"
	"github.com/spec-kit/restaurant-service/internal/domain"
)

var (
	// ErrInvalid means the submitted code does not match the active record.
	ErrInvalid = errors.New("otp invalid")
	// ErrExpired means the active record is past its expiry.
	ErrExpired = errors.New("otp expired")
	// ErrExhausted means the attempt budget for the record is spent.
	ErrExhausted = errors.New("otp attempts exhausted")
	// ErrNotFound means no active record exists for the phone. Replaying a
	// code after a successful verification lands here: success consumes the
	// record.
	ErrNotFound = errors.New("otp not found")
	// ErrRateLimited means issuance was requested inside the cool-down window.
	ErrRateLimited = errors.New("otp rate limit exceeded")
)

// Notifier dispatches a one-time code out of band (SMS, push).
type Notifier interface {
	SendCode(ctx context.Context, phone, code string) error
}

// Service issues and verifies one-time codes. Same-phone request/verify
// paths are serialized through a keyed lock so the read-modify-write on the
// record and counter stays atomic under concurrent requests.
type Service struct {
	store    Store
	notifier Notifier
	logger   *zap.Logger

	codeLength  int
	maxAttempts int
	ttl         time.Duration
	cooldown    time.Duration
	now         func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService builds the service from configuration.
func NewService(cfg config.OtpConfig, store Store, notifier Notifier, logger *zap.Logger) *Service {
	codeLength := cfg.CodeLength
	if codeLength <= 0 {
		codeLength = 4
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &Service{
		store:       store,
		notifier:    notifier,
		logger:      logger,
		codeLength:  codeLength,
		maxAttempts: maxAttempts,
		ttl:         cfg.OtpTTL(),
		cooldown:    cfg.Cooldown(),
		now:         time.Now,
		locks:       make(map[string]*sync.Mutex),
	}
}

func (s *Service) phoneLock(phone string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[phone]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[phone] = lock
	}
	return lock
}

// RequestCode generates a fresh code for the phone, replacing any prior
// active record, and dispatches it through the notifier. Dispatch is
// fire-and-forget: a delivery failure is logged, never returned, and the
// code stays valid.
func (s *Service) RequestCode(ctx context.Context, phone string) (*domain.OtpRecord, error) {
	lock := s.phoneLock(phone)
	lock.Lock()
	defer lock.Unlock()

	ok, err := s.store.AcquireCooldown(ctx, phone, s.cooldown)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrRateLimited
	}

	code, err := generateCode(s.codeLength)
	if err != nil {
		return nil, err
	}

	counter, err := s.store.NextCounter(ctx, phone)
	if err != nil {
		return nil, err
	}

	now := s.now()
	record := &domain.OtpRecord{
		Phone:     phone,
		Code:      code,
		Counter:   counter,
		Attempts:  0,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	// Records are retained past expiry so verification can distinguish an
	// expired code from a missing one.
	if err := s.store.Save(ctx, record, 2*s.ttl); err != nil {
		return nil, err
	}

	go s.dispatch(phone, code)

	return record, nil
}

func (s *Service) dispatch(phone, code string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.notifier.SendCode(ctx, phone, code); err != nil {
		s.logger.Error("otp dispatch failed", zap.String("phone", phone), zap.Error(err))
	}
}

// VerifyCode checks the submitted code against the active record. Success
// consumes the record; failure burns one attempt until the budget is spent.
func (s *Service) VerifyCode(ctx context.Context, phone, code string) error {
	lock := s.phoneLock(phone)
	lock.Lock()
	defer lock.Unlock()

	record, err := s.store.Get(ctx, phone)
	if err != nil {
		if errors.Is(err, ErrNoRecord) {
			return ErrNotFound
		}
		return err
	}

	if record.Expired(s.now()) {
		_ = s.store.Delete(ctx, phone)
		return ErrExpired
	}
	if record.Attempts >= s.maxAttempts {
		return ErrExhausted
	}
	if record.Code != code {
		if _, err := s.store.IncrementAttempts(ctx, phone); err != nil {
			return err
		}
		return ErrInvalid
	}

	return s.store.Delete(ctx, phone)
}

// generateCode draws a fixed-length digit string from crypto/rand. Rejection
// sampling keeps the digit distribution uniform.
func generateCode(length int) (string, error) {
	const digits = "0123456789"
	buf := make([]byte, length)
	out := make([]byte, length)
	i := 0
	for i < length {
		if _, err := rand.Read(buf[i:]); err != nil {
			return "", err
		}
		for _, b := range buf[i:] {
			if b >= 250 {
				continue
			}
			out[i] = digits[int(b)%10]
			i++
			if i == length {
				break
			}
		}
	}
	return string(out), nil
}
