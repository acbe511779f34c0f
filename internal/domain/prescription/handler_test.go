package prescription

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/cliniq/cliniq/internal/platform/auth"
)

func getAs(t *testing.T, h *Handler, prescriptionID string, roles []string) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := context.WithValue(req.Context(), auth.UserRolesKey, roles)
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(prescriptionID)
	return rec, h.Get(c)
}

func TestGet_NurseDeniedAfterCompletion(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)
	p := f.createPrescription(t, 1)
	f.assignBatches(t, p)
	f.bills.bills[p.ID] = true

	// Pending prescriptions are visible to nurses.
	if _, err := getAs(t, h, p.ID.String(), []string{auth.RoleNurse}); err != nil {
		t.Fatalf("nurse should see a pending prescription: %v", err)
	}

	if err := f.svc.Complete(context.Background(), p.ID); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	_, err := getAs(t, h, p.ID.String(), []string{auth.RoleNurse})
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for nurse on completed prescription, got %v", err)
	}

	// Doctors and admins retain access.
	if _, err := getAs(t, h, p.ID.String(), []string{auth.RoleDoctor}); err != nil {
		t.Errorf("doctor should retain access: %v", err)
	}
	if _, err := getAs(t, h, p.ID.String(), []string{auth.RoleAdmin}); err != nil {
		t.Errorf("admin should retain access: %v", err)
	}
}

func TestComplete_HandlerReportsActionResult(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)
	p := f.createPrescription(t, 1)
	f.assignBatches(t, p)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(p.ID.String())

	// No bill yet: the handler answers with a failed action result, not
	// an HTTP error.
	if err := h.Complete(c); err != nil {
		t.Fatalf("Complete handler: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 without a bill, got %d", rec.Code)
	}

	f.bills.bills[p.ID] = true
	req = httptest.NewRequest(http.MethodPost, "/", nil)
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(p.ID.String())

	if err := h.Complete(c); err != nil {
		t.Fatalf("Complete handler: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}
