package service_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/restaurant-service/internal/auth"
	"github.com/spec-kit/restaurant-service/internal/config"
	"github.com/spec-kit/restaurant-service/internal/domain"
	"github.com/spec-kit/restaurant-service/internal/events"
	"github.com/spec-kit/restaurant-service/internal/otp"
	"github.com/spec-kit/restaurant-service/internal/repository"
	"github.com/spec-kit/restaurant-service/internal/service"
	apperrors "github.com/spec-kit/restaurant-service/pkg/util"
)

// ---------- Fakes ----------

type fakeStaffRepo struct {
	byID    map[string]*domain.StaffMember
	byEmail map[string]*domain.StaffMember
}

func newFakeStaffRepo(members ...*domain.StaffMember) *fakeStaffRepo {
	repo := &fakeStaffRepo{
		byID:    make(map[string]*domain.StaffMember),
		byEmail: make(map[string]*domain.StaffMember),
	}
	for _, m := range members {
		repo.byID[m.ID] = m
		repo.byEmail[m.Email] = m
	}
	return repo
}

func (r *fakeStaffRepo) Create(_ context.Context, staff *domain.StaffMember) error {
	r.byID[staff.ID] = staff
	r.byEmail[staff.Email] = staff
	return nil
}

func (r *fakeStaffRepo) Update(_ context.Context, staff *domain.StaffMember) error {
	r.byID[staff.ID] = staff
	r.byEmail[staff.Email] = staff
	return nil
}

func (r *fakeStaffRepo) GetByID(_ context.Context, id string) (*domain.StaffMember, error) {
	staff, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *staff
	return &copied, nil
}

func (r *fakeStaffRepo) GetByEmail(_ context.Context, email string) (*domain.StaffMember, error) {
	staff, ok := r.byEmail[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *staff
	return &copied, nil
}

func (r *fakeStaffRepo) List(_ context.Context, _ repository.StaffFilter) ([]domain.StaffMember, error) {
	return nil, nil
}

type fakeCustomerRepo struct {
	byID    map[string]*domain.Customer
	byPhone map[string]*domain.Customer
	nextID  int
}

func newFakeCustomerRepo(customers ...*domain.Customer) *fakeCustomerRepo {
	repo := &fakeCustomerRepo{
		byID:    make(map[string]*domain.Customer),
		byPhone: make(map[string]*domain.Customer),
	}
	for _, c := range customers {
		repo.byID[c.ID] = c
		repo.byPhone[c.Phone] = c
	}
	return repo
}

func (r *fakeCustomerRepo) Update(_ context.Context, customer *domain.Customer) error {
	r.byID[customer.ID] = customer
	r.byPhone[customer.Phone] = customer
	return nil
}

func (r *fakeCustomerRepo) GetByID(_ context.Context, id string) (*domain.Customer, error) {
	customer, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *customer
	return &copied, nil
}

func (r *fakeCustomerRepo) GetByPhone(_ context.Context, phone string) (*domain.Customer, error) {
	customer, ok := r.byPhone[phone]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *customer
	return &copied, nil
}

func (r *fakeCustomerRepo) FindOrCreateByPhone(_ context.Context, phone string) (*domain.Customer, error) {
	if customer, ok := r.byPhone[phone]; ok {
		copied := *customer
		return &copied, nil
	}
	r.nextID++
	customer := &domain.Customer{
		ID:     "customer-" + strconv.Itoa(r.nextID),
		Phone:  phone,
		Status: domain.EntityStatusActive,
	}
	r.byID[customer.ID] = customer
	r.byPhone[phone] = customer
	copied := *customer
	return &copied, nil
}

type channelNotifier struct {
	codes chan string
}

func (n *channelNotifier) SendCode(_ context.Context, _ string, code string) error {
	n.codes <- code
	return nil
}

func (n *channelNotifier) wait(t *testing.T) string {
	t.Helper()
	select {
	case code := <-n.codes:
		return code
	case <-time.After(2 * time.Second):
		t.Fatal("code was never dispatched")
		return ""
	}
}

// ---------- Fixture ----------

type fixture struct {
	svc       *service.AuthService
	tokens    *auth.TokenManager
	staff     *fakeStaffRepo
	customers *fakeCustomerRepo
	notifier  *channelNotifier
}

func newFixture(t *testing.T, staffMembers ...*domain.StaffMember) *fixture {
	t.Helper()

	staffRepo := newFakeStaffRepo(staffMembers...)
	customerRepo := newFakeCustomerRepo()
	notifier := &channelNotifier{codes: make(chan string, 8)}

	otpService := otp.NewService(config.OtpConfig{
		CodeLength:      4,
		TTLMinutes:      5,
		MaxAttempts:     5,
		CooldownSeconds: 60,
	}, otp.NewMemoryStore(), notifier, zap.NewNop())

	tokens := auth.NewTokenManager(config.AuthConfig{
		TokenSecret:            "staff-secret",
		RefreshTokenSecret:     "refresh-secret",
		CustomerTokenSecret:    "customer-secret",
		AccessTokenTTLMinutes:  15,
		RefreshTokenTTLMinutes: 60,
	})

	svc := service.NewAuthService(service.AuthDependencies{
		StaffRepo:    staffRepo,
		CustomerRepo: customerRepo,
		Otp:          otpService,
		Tokens:       tokens,
		Dispatcher:   events.NewInMemoryDispatcher(),
		Logger:       zap.NewNop(),
	})

	return &fixture{svc: svc, tokens: tokens, staff: staffRepo, customers: customerRepo, notifier: notifier}
}

func staffFixture(t *testing.T, password string) *domain.StaffMember {
	t.Helper()
	hash, err := auth.HashPassword(password, 4)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	return &domain.StaffMember{
		ID:           "staff-1",
		Name:         "Awa",
		Email:        "awa@resto.ci",
		PasswordHash: hash,
		Role:         domain.StaffRoleAdmin,
		Status:       domain.EntityStatusActive,
	}
}

func errCode(t *testing.T, err error) string {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error")
	}
	return apperrors.ToDomainError(err).Code
}

// ---------- Staff login ----------

func TestLoginStaff(t *testing.T) {
	f := newFixture(t, staffFixture(t, "s3cret"))
	ctx := context.Background()

	staff, pair, err := f.svc.LoginStaff(ctx, "awa@resto.ci", "s3cret")
	if err != nil {
		t.Fatalf("LoginStaff: %v", err)
	}
	if staff.ID != "staff-1" {
		t.Errorf("staff.ID = %q", staff.ID)
	}

	claims, err := f.tokens.Verify(pair.AccessToken, auth.AudienceStaff)
	if err != nil {
		t.Fatalf("access token verify: %v", err)
	}
	if claims.PrincipalType != domain.PrincipalTypeStaff {
		t.Errorf("PrincipalType = %q", claims.PrincipalType)
	}
	if _, err := f.tokens.Verify(pair.RefreshToken, auth.AudienceStaffRefresh); err != nil {
		t.Fatalf("refresh token verify: %v", err)
	}

	// The access token must not pass as a refresh token.
	if _, err := f.tokens.Verify(pair.AccessToken, auth.AudienceStaffRefresh); err == nil {
		t.Error("access token accepted as refresh token")
	}
}

func TestLoginStaffUnknownEmail(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.svc.LoginStaff(context.Background(), "nobody@resto.ci", "pw")
	if code := errCode(t, err); code != "NOT_FOUND" {
		t.Errorf("code = %q, want NOT_FOUND", code)
	}
}

func TestLoginStaffWrongPassword(t *testing.T) {
	f := newFixture(t, staffFixture(t, "s3cret"))
	_, _, err := f.svc.LoginStaff(context.Background(), "awa@resto.ci", "wrong")
	if code := errCode(t, err); code != "UNAUTHORIZED" {
		t.Errorf("code = %q, want UNAUTHORIZED", code)
	}
}

func TestLoginStaffBlocked(t *testing.T) {
	member := staffFixture(t, "s3cret")
	member.Status = domain.EntityStatusBlocked
	f := newFixture(t, member)

	_, _, err := f.svc.LoginStaff(context.Background(), "awa@resto.ci", "s3cret")
	if code := errCode(t, err); code != "FORBIDDEN" {
		t.Errorf("code = %q, want FORBIDDEN", code)
	}
}

// ---------- Customer OTP flow ----------

func TestCustomerOtpFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	phone, err := f.svc.RequestCustomerCode(ctx, "+225 07 77 77 77 77")
	if err != nil {
		t.Fatalf("RequestCustomerCode: %v", err)
	}
	if phone != "+2250777777777" {
		t.Errorf("normalized phone = %q", phone)
	}
	code := f.notifier.wait(t)

	wrong := "0000"
	if wrong == code {
		wrong = "0001"
	}
	_, _, err = f.svc.VerifyCustomerCode(ctx, phone, wrong)
	if got := errCode(t, err); got != "OTP_INVALID" {
		t.Fatalf("wrong code = %q, want OTP_INVALID", got)
	}

	customer, pair, err := f.svc.VerifyCustomerCode(ctx, phone, code)
	if err != nil {
		t.Fatalf("VerifyCustomerCode: %v", err)
	}
	if customer.Phone != phone {
		t.Errorf("customer.Phone = %q", customer.Phone)
	}

	claims, err := f.tokens.Verify(pair.AccessToken, auth.AudienceCustomer)
	if err != nil {
		t.Fatalf("customer access verify: %v", err)
	}
	if claims.PrincipalType != domain.PrincipalTypeCustomer {
		t.Errorf("PrincipalType = %q", claims.PrincipalType)
	}

	// A customer token never verifies under a staff audience.
	if _, err := f.tokens.Verify(pair.AccessToken, auth.AudienceStaff); err == nil {
		t.Error("customer token accepted under staff audience")
	}

	// The code was consumed on success.
	_, _, err = f.svc.VerifyCustomerCode(ctx, phone, code)
	if got := errCode(t, err); got != "OTP_NOT_FOUND" {
		t.Fatalf("replay = %q, want OTP_NOT_FOUND", got)
	}
}

func TestVerifyCustomerCodeRateLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.RequestCustomerCode(ctx, "+2250777777777"); err != nil {
		t.Fatalf("RequestCustomerCode: %v", err)
	}
	_, err := f.svc.RequestCustomerCode(ctx, "+2250777777777")
	if code := errCode(t, err); code != "RATE_LIMITED" {
		t.Errorf("code = %q, want RATE_LIMITED", code)
	}
}

func TestVerifyCustomerCodeBadPhone(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.RequestCustomerCode(context.Background(), "abc")
	if code := errCode(t, err); code != "VALIDATION_FAILED" {
		t.Errorf("code = %q, want VALIDATION_FAILED", code)
	}
}

// ---------- Refresh ----------

func TestRefreshIssuesNewAccessToken(t *testing.T) {
	f := newFixture(t, staffFixture(t, "s3cret"))
	ctx := context.Background()

	_, pair, err := f.svc.LoginStaff(ctx, "awa@resto.ci", "s3cret")
	if err != nil {
		t.Fatalf("LoginStaff: %v", err)
	}

	token, expiresAt, err := f.svc.Refresh(ctx, pair.RefreshToken, auth.AudienceStaffRefresh)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Errorf("expiry in the past: %v", expiresAt)
	}
	if _, err := f.tokens.Verify(token, auth.AudienceStaff); err != nil {
		t.Fatalf("refreshed access token verify: %v", err)
	}
}

func TestRefreshAfterBlockIsForbidden(t *testing.T) {
	member := staffFixture(t, "s3cret")
	f := newFixture(t, member)
	ctx := context.Background()

	_, pair, err := f.svc.LoginStaff(ctx, "awa@resto.ci", "s3cret")
	if err != nil {
		t.Fatalf("LoginStaff: %v", err)
	}

	// Status changes after issuance; the refresh token itself is still valid.
	member.Status = domain.EntityStatusBlocked
	f.staff.byID[member.ID] = member

	_, _, err = f.svc.Refresh(ctx, pair.RefreshToken, auth.AudienceStaffRefresh)
	if code := errCode(t, err); code != "FORBIDDEN" {
		t.Errorf("code = %q, want FORBIDDEN", code)
	}
}

func TestRefreshAfterDeleteIsUnauthorized(t *testing.T) {
	member := staffFixture(t, "s3cret")
	f := newFixture(t, member)
	ctx := context.Background()

	_, pair, err := f.svc.LoginStaff(ctx, "awa@resto.ci", "s3cret")
	if err != nil {
		t.Fatalf("LoginStaff: %v", err)
	}

	delete(f.staff.byID, member.ID)

	_, _, err = f.svc.Refresh(ctx, pair.RefreshToken, auth.AudienceStaffRefresh)
	if code := errCode(t, err); code != "UNAUTHORIZED" {
		t.Errorf("code = %q, want UNAUTHORIZED", code)
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	f := newFixture(t, staffFixture(t, "s3cret"))
	ctx := context.Background()

	_, pair, err := f.svc.LoginStaff(ctx, "awa@resto.ci", "s3cret")
	if err != nil {
		t.Fatalf("LoginStaff: %v", err)
	}

	_, _, err = f.svc.Refresh(ctx, pair.AccessToken, auth.AudienceStaffRefresh)
	if code := errCode(t, err); code != "UNAUTHORIZED" {
		t.Errorf("code = %q, want UNAUTHORIZED", code)
	}
}

func TestCustomerRefresh(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	phone, err := f.svc.RequestCustomerCode(ctx, "+2250777777777")
	if err != nil {
		t.Fatalf("RequestCustomerCode: %v", err)
	}
	code := f.notifier.wait(t)

	customer, pair, err := f.svc.VerifyCustomerCode(ctx, phone, code)
	if err != nil {
		t.Fatalf("VerifyCustomerCode: %v", err)
	}

	token, _, err := f.svc.Refresh(ctx, pair.RefreshToken, auth.AudienceCustomerRefresh)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	claims, err := f.tokens.Verify(token, auth.AudienceCustomer)
	if err != nil {
		t.Fatalf("verify refreshed token: %v", err)
	}
	if claims.SubjectID != customer.ID {
		t.Errorf("SubjectID = %q, want %q", claims.SubjectID, customer.ID)
	}

	// A staff guard must never accept the customer refresh token either.
	if _, err := f.tokens.Verify(pair.RefreshToken, auth.AudienceStaffRefresh); err == nil {
		t.Error("customer refresh token accepted under staff refresh audience")
	}
}
