package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/restaurant-service/internal/api/http"
	"github.com/spec-kit/restaurant-service/internal/auth"
	"github.com/spec-kit/restaurant-service/internal/config"
	"github.com/spec-kit/restaurant-service/internal/domain"
	"github.com/spec-kit/restaurant-service/internal/observability"
	"github.com/spec-kit/restaurant-service/internal/repository"
)

type stubStaffRepo struct {
	members map[string]*domain.StaffMember
}

func (r *stubStaffRepo) Create(context.Context, *domain.StaffMember) error { return nil }
func (r *stubStaffRepo) Update(context.Context, *domain.StaffMember) error { return nil }
func (r *stubStaffRepo) GetByEmail(context.Context, string) (*domain.StaffMember, error) {
	return nil, pgx.ErrNoRows
}
func (r *stubStaffRepo) List(context.Context, repository.StaffFilter) ([]domain.StaffMember, error) {
	return nil, nil
}
func (r *stubStaffRepo) GetByID(_ context.Context, id string) (*domain.StaffMember, error) {
	staff, ok := r.members[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return staff, nil
}

type stubCustomerRepo struct {
	customers map[string]*domain.Customer
}

func (r *stubCustomerRepo) Update(context.Context, *domain.Customer) error { return nil }
func (r *stubCustomerRepo) GetByPhone(context.Context, string) (*domain.Customer, error) {
	return nil, pgx.ErrNoRows
}
func (r *stubCustomerRepo) FindOrCreateByPhone(context.Context, string) (*domain.Customer, error) {
	return nil, pgx.ErrNoRows
}
func (r *stubCustomerRepo) GetByID(_ context.Context, id string) (*domain.Customer, error) {
	customer, ok := r.customers[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return customer, nil
}

func newGuardedApp(t *testing.T, staff *stubStaffRepo, customers *stubCustomerRepo) (*fiber.App, *auth.TokenManager) {
	t.Helper()

	tokens := auth.NewTokenManager(config.AuthConfig{
		TokenSecret:            "staff-secret",
		RefreshTokenSecret:     "refresh-secret",
		CustomerTokenSecret:    "customer-secret",
		AccessTokenTTLMinutes:  15,
		RefreshTokenTTLMinutes: 60,
	})
	guard := auth.NewAuthMiddleware(tokens, staff, customers)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(), 0)

	app.Get("/staff-only", guard.Handle(auth.AudienceStaff), func(c *fiber.Ctx) error {
		principal, _ := auth.PrincipalFromContext(c)
		return c.JSON(fiber.Map{"id": principal.Staff.ID})
	})
	app.Get("/reporting", guard.Handle(auth.AudienceStaff),
		auth.RequirePermission(auth.ModuleRevenus, auth.ActionRead),
		func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })
	app.Get("/customer-only", guard.Handle(auth.AudienceCustomer), func(c *fiber.Ctx) error {
		principal, _ := auth.PrincipalFromContext(c)
		return c.JSON(fiber.Map{"id": principal.Customer.ID})
	})

	return app, tokens
}

func doRequest(t *testing.T, app *fiber.App, path, token string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	return resp
}

func TestGuardRequiresBearerToken(t *testing.T) {
	app, _ := newGuardedApp(t, &stubStaffRepo{}, &stubCustomerRepo{})

	resp := doRequest(t, app, "/staff-only", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}

	req := httptest.NewRequest(http.MethodGet, "/staff-only", nil)
	req.Header.Set("Authorization", "Token abc")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("non-bearer scheme status = %d, want 401", resp.StatusCode)
	}
}

func TestGuardAcceptsMatchingAudience(t *testing.T) {
	staff := &stubStaffRepo{members: map[string]*domain.StaffMember{
		"staff-1": {ID: "staff-1", Role: domain.StaffRoleAdmin, Status: domain.EntityStatusActive},
	}}
	app, tokens := newGuardedApp(t, staff, &stubCustomerRepo{})

	token, _, err := tokens.Issue("staff-1", domain.PrincipalTypeStaff, auth.AudienceStaff)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	resp := doRequest(t, app, "/staff-only", token)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestGuardRejectsCrossAudienceToken(t *testing.T) {
	customers := &stubCustomerRepo{customers: map[string]*domain.Customer{
		"customer-1": {ID: "customer-1", Status: domain.EntityStatusActive},
	}}
	app, tokens := newGuardedApp(t, &stubStaffRepo{}, customers)

	customerToken, _, err := tokens.Issue("customer-1", domain.PrincipalTypeCustomer, auth.AudienceCustomer)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if resp := doRequest(t, app, "/staff-only", customerToken); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("customer token on staff route: status = %d, want 401", resp.StatusCode)
	}
	if resp := doRequest(t, app, "/customer-only", customerToken); resp.StatusCode != http.StatusOK {
		t.Errorf("customer token on customer route: status = %d, want 200", resp.StatusCode)
	}
}

func TestGuardRejectsBlockedAndDeletedPrincipals(t *testing.T) {
	staff := &stubStaffRepo{members: map[string]*domain.StaffMember{
		"blocked-1": {ID: "blocked-1", Role: domain.StaffRoleAdmin, Status: domain.EntityStatusBlocked},
		"deleted-1": {ID: "deleted-1", Role: domain.StaffRoleAdmin, Status: domain.EntityStatusDeleted},
	}}
	app, tokens := newGuardedApp(t, staff, &stubCustomerRepo{})

	for _, id := range []string{"blocked-1", "deleted-1"} {
		token, _, err := tokens.Issue(id, domain.PrincipalTypeStaff, auth.AudienceStaff)
		if err != nil {
			t.Fatalf("Issue: %v", err)
		}
		if resp := doRequest(t, app, "/staff-only", token); resp.StatusCode != http.StatusForbidden {
			t.Errorf("%s: status = %d, want 403", id, resp.StatusCode)
		}
	}
}

func TestGuardRejectsUnknownPrincipal(t *testing.T) {
	app, tokens := newGuardedApp(t, &stubStaffRepo{}, &stubCustomerRepo{})

	token, _, err := tokens.Issue("ghost", domain.PrincipalTypeStaff, auth.AudienceStaff)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if resp := doRequest(t, app, "/staff-only", token); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestRequirePermissionGatesByRole(t *testing.T) {
	staff := &stubStaffRepo{members: map[string]*domain.StaffMember{
		"admin-1":    {ID: "admin-1", Role: domain.StaffRoleAdmin, Status: domain.EntityStatusActive},
		"caissier-1": {ID: "caissier-1", Role: domain.StaffRoleCaissier, Status: domain.EntityStatusActive},
	}}
	app, tokens := newGuardedApp(t, staff, &stubCustomerRepo{})

	adminToken, _, err := tokens.Issue("admin-1", domain.PrincipalTypeStaff, auth.AudienceStaff)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	caissierToken, _, err := tokens.Issue("caissier-1", domain.PrincipalTypeStaff, auth.AudienceStaff)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	// Revenue reporting sits under the ALL grant for admins but is not
	// granted to cashiers.
	if resp := doRequest(t, app, "/reporting", adminToken); resp.StatusCode != http.StatusOK {
		t.Errorf("admin: status = %d, want 200", resp.StatusCode)
	}
	if resp := doRequest(t, app, "/reporting", caissierToken); resp.StatusCode != http.StatusForbidden {
		t.Errorf("caissier: status = %d, want 403", resp.StatusCode)
	}
}
