package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"gopkg.in/guregu/null.v4"

	"github.com/demopark/parking-api/internal/core/domain"
	"github.com/demopark/parking-api/internal/core/ports"
)

const checkInBody = `{"plate":"ABC-1234","make":"Fiat","model":"Uno","color":"white","client_cpf":"52998224725"}`

func openSession() *domain.ParkingSession {
	return &domain.ParkingSession{
		ID:        "session-1",
		Receipt:   "20240305-100000",
		Plate:     "ABC-1234",
		Make:      "Fiat",
		Model:     "Uno",
		Color:     "white",
		EntryTime: time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC),
		Client:    &domain.Client{ID: "client-1", TaxID: "52998224725"},
		Spot:      &domain.ParkingSpot{ID: "spot-1", Code: "A-01", Status: domain.SpotOccupied},
	}
}

func TestParkingHandler_CheckIn_Created(t *testing.T) {
	var got ports.CheckInInput
	svc := &stubParkingService{
		checkInFn: func(_ context.Context, _ domain.Actor, in ports.CheckInInput) (*ports.CheckInResult, error) {
			got = in
			return &ports.CheckInResult{Session: openSession()}, nil
		},
	}
	h := NewParkingHandler(svc, &stubReportService{})

	c, rec := newContext(http.MethodPost, "/api/v1/parkings/check-in", checkInBody, adminActor)
	c.Request().Header.Set(headerIdempotencyKey, "key-1")
	if err := h.CheckIn(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if loc := rec.Header().Get(echo.HeaderLocation); loc != "/api/v1/parkings/check-in/20240305-100000" {
		t.Fatalf("unexpected Location %q", loc)
	}
	if got.IdempotencyKey != "key-1" || got.TaxID != "52998224725" || got.Plate != "ABC-1234" {
		t.Fatalf("unexpected service input %+v", got)
	}

	var resp sessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.SpotCode != "A-01" || resp.ClientCPF != "52998224725" || resp.ExitTime != nil || resp.Fee != "" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestParkingHandler_CheckIn_Replayed(t *testing.T) {
	svc := &stubParkingService{
		checkInFn: func(context.Context, domain.Actor, ports.CheckInInput) (*ports.CheckInResult, error) {
			return &ports.CheckInResult{Session: openSession(), AlreadyExisted: true}, nil
		},
	}
	h := NewParkingHandler(svc, &stubReportService{})

	c, rec := newContext(http.MethodPost, "/api/v1/parkings/check-in", checkInBody, adminActor)
	if err := h.CheckIn(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for replay, got %d", rec.Code)
	}
	if rec.Header().Get(headerIdempotentReplayed) != "true" {
		t.Fatalf("expected %s header", headerIdempotentReplayed)
	}
}

func TestParkingHandler_CheckIn_Rejects(t *testing.T) {
	svc := &stubParkingService{
		checkInFn: func(context.Context, domain.Actor, ports.CheckInInput) (*ports.CheckInResult, error) {
			return nil, domain.ErrNoFreeSpot
		},
	}
	h := NewParkingHandler(svc, &stubReportService{})

	tests := []struct {
		name  string
		body  string
		actor domain.Actor
		check func(error) bool
	}{
		{"no claims", checkInBody, domain.Actor{}, func(err error) bool {
			var he *echo.HTTPError
			return errors.As(err, &he) && he.Code == http.StatusUnauthorized
		}},
		{"bad plate", `{"plate":"abc1234","make":"Fiat","model":"Uno","color":"white","client_cpf":"52998224725"}`, adminActor, func(err error) bool {
			var ve *ValidationError
			return errors.As(err, &ve) && ve.Fields["plate"] != ""
		}},
		{"bad cpf", `{"plate":"ABC-1234","make":"Fiat","model":"Uno","color":"white","client_cpf":"11111111111"}`, adminActor, func(err error) bool {
			var ve *ValidationError
			return errors.As(err, &ve) && ve.Fields["client_cpf"] != ""
		}},
		{"malformed json", `{"plate":`, adminActor, func(err error) bool {
			var he *echo.HTTPError
			return errors.As(err, &he) && he.Code == http.StatusBadRequest
		}},
		{"no free spot", checkInBody, adminActor, func(err error) bool {
			return errors.Is(err, domain.ErrNoFreeSpot)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newContext(http.MethodPost, "/api/v1/parkings/check-in", tt.body, tt.actor)
			if err := h.CheckIn(c); !tt.check(err) {
				t.Fatalf("unexpected error %v", err)
			}
		})
	}
}

func TestParkingHandler_CheckOut(t *testing.T) {
	svc := &stubParkingService{
		checkOutFn: func(_ context.Context, _ domain.Actor, receipt string) (*domain.ParkingSession, error) {
			if receipt != "20240305-100000" {
				return nil, domain.ErrSessionNotFound
			}
			s := openSession()
			s.ExitTime = null.TimeFrom(s.EntryTime.Add(50 * time.Minute))
			s.Fee = decimal.NewNullDecimal(decimal.RequireFromString("14.50"))
			s.Discount = decimal.NewNullDecimal(decimal.RequireFromString("4.35"))
			return s, nil
		},
	}
	h := NewParkingHandler(svc, &stubReportService{})

	c, rec := newContext(http.MethodPut, "/", "", adminActor)
	c.SetParamNames("receipt")
	c.SetParamValues("20240305-100000")
	if err := h.CheckOut(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp sessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Fee != "14.50" || resp.Discount != "4.35" || resp.AmountDue != "10.15" {
		t.Fatalf("unexpected money fields fee=%s discount=%s due=%s", resp.Fee, resp.Discount, resp.AmountDue)
	}
	if resp.ExitTime == nil {
		t.Fatal("expected exit_time to be set")
	}

	c, _ = newContext(http.MethodPut, "/", "", adminActor)
	c.SetParamNames("receipt")
	c.SetParamValues("20240101-000000")
	if err := h.CheckOut(c); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestParkingHandler_MalformedReceipt(t *testing.T) {
	// nil service funcs panic if a malformed receipt gets past the handler
	h := NewParkingHandler(&stubParkingService{}, &stubReportService{})

	endpoints := map[string]echo.HandlerFunc{
		"get":       h.Get,
		"check-out": h.CheckOut,
		"ticket":    h.Ticket,
	}
	for name, fn := range endpoints {
		for _, receipt := range []string{"", "abc", "2024-03-05", "20241305-100000", "20240305-1000"} {
			t.Run(name+"/"+receipt, func(t *testing.T) {
				c, _ := newContext(http.MethodGet, "/", "", adminActor)
				c.SetParamNames("receipt")
				c.SetParamValues(receipt)
				err := fn(c)
				if !errors.Is(err, domain.ErrInvalidReceipt) || !errors.Is(err, domain.ErrValidation) {
					t.Fatalf("expected ErrInvalidReceipt, got %v", err)
				}
			})
		}
	}
}

func TestParkingHandler_ListByCPF(t *testing.T) {
	var gotPage domain.PageRequest
	svc := &stubParkingService{
		listFn: func(_ context.Context, _ string, page domain.PageRequest) (domain.Page[*domain.ParkingSession], error) {
			gotPage = page
			return domain.NewPage([]*domain.ParkingSession{openSession()}, 11, page), nil
		},
	}
	h := NewParkingHandler(svc, &stubReportService{})

	c, rec := newContext(http.MethodGet, "/?page=2", "", adminActor)
	c.SetParamNames("cpf")
	c.SetParamValues("52998224725")
	if err := h.ListByCPF(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPage.Page != 2 || gotPage.Size != domain.DefaultPageSize {
		t.Fatalf("unexpected page request %+v", gotPage)
	}
	var resp sessionPageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != 11 || resp.TotalPages != 3 || len(resp.Items) != 1 {
		t.Fatalf("unexpected page %+v", resp)
	}

	c, _ = newContext(http.MethodGet, "/", "", adminActor)
	c.SetParamNames("cpf")
	c.SetParamValues("12345678900")
	if err := h.ListByCPF(c); !errors.Is(err, domain.ErrInvalidTaxID) {
		t.Fatalf("expected ErrInvalidTaxID, got %v", err)
	}
}

func TestParkingHandler_ListMine_UsesActor(t *testing.T) {
	var gotKey string
	svc := &stubParkingService{
		listFn: func(_ context.Context, key string, page domain.PageRequest) (domain.Page[*domain.ParkingSession], error) {
			gotKey = key
			return domain.NewPage[*domain.ParkingSession](nil, 0, page), nil
		},
	}
	h := NewParkingHandler(svc, &stubReportService{})

	c, rec := newContext(http.MethodGet, "/", "", clientActor)
	if err := h.ListMine(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotKey != clientActor.UserID {
		t.Fatalf("expected lookup by %s, got %s", clientActor.UserID, gotKey)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestParkingHandler_Report(t *testing.T) {
	h := NewParkingHandler(&stubParkingService{}, &stubReportService{pdf: []byte("%PDF-1.3 test")})

	c, rec := newContext(http.MethodGet, "/", "", clientActor)
	if err := h.Report(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != "application/pdf" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if cd := rec.Header().Get(echo.HeaderContentDisposition); cd != `attachment; filename="parking-history.pdf"` {
		t.Fatalf("unexpected disposition %q", cd)
	}
	if rec.Body.String() != "%PDF-1.3 test" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}

	h = NewParkingHandler(&stubParkingService{}, &stubReportService{err: domain.ErrClientNotFound})
	c, _ = newContext(http.MethodGet, "/", "", clientActor)
	if err := h.Report(c); !errors.Is(err, domain.ErrClientNotFound) {
		t.Fatalf("expected ErrClientNotFound, got %v", err)
	}
}

func TestResultLabel(t *testing.T) {
	tests := map[string]error{
		"not_found":   domain.ErrSessionNotFound,
		"unavailable": domain.ErrNoFreeSpot,
		"conflict":    domain.ErrReceiptConflict,
		"validation":  domain.ErrInvalidDuration,
		"error":       errors.New("boom"),
	}
	for want, err := range tests {
		if got := resultLabel(err); got != want {
			t.Errorf("resultLabel(%v) = %s, want %s", err, got, want)
		}
	}
}
