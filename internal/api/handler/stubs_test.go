package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/demopark/parking-api/internal/api/middleware"
	"github.com/demopark/parking-api/internal/core/domain"
	"github.com/demopark/parking-api/internal/core/ports"
)

var (
	adminActor  = domain.Actor{UserID: "user-admin", Username: "admin@park.com", Role: domain.RoleAdmin}
	clientActor = domain.Actor{UserID: "user-1", Username: "maria@mail.com", Role: domain.RoleClient}
)

// newContext builds an echo context for a JSON request, authenticated as
// actor when actor.UserID is set.
func newContext(method, target, body string, actor domain.Actor) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if actor.UserID != "" {
		c.Set(middleware.CtxUserID, actor.UserID)
		c.Set(middleware.CtxUsername, actor.Username)
		c.Set(middleware.CtxRole, actor.Role)
	}
	return c, rec
}

type stubAuthService struct {
	registerFn func(ctx context.Context, actor domain.Actor, username, password string, role domain.Role) (*domain.User, error)
	loginFn    func(ctx context.Context, username, password string) (string, *domain.User, error)
}

func (s *stubAuthService) Register(ctx context.Context, actor domain.Actor, username, password string, role domain.Role) (*domain.User, error) {
	return s.registerFn(ctx, actor, username, password, role)
}

func (s *stubAuthService) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	return s.loginFn(ctx, username, password)
}

type stubParkingService struct {
	checkInFn  func(ctx context.Context, actor domain.Actor, in ports.CheckInInput) (*ports.CheckInResult, error)
	checkOutFn func(ctx context.Context, actor domain.Actor, receipt string) (*domain.ParkingSession, error)
	getOpenFn  func(ctx context.Context, actor domain.Actor, receipt string) (*domain.ParkingSession, error)
	listFn     func(ctx context.Context, key string, page domain.PageRequest) (domain.Page[*domain.ParkingSession], error)
}

func (s *stubParkingService) CheckIn(ctx context.Context, actor domain.Actor, in ports.CheckInInput) (*ports.CheckInResult, error) {
	return s.checkInFn(ctx, actor, in)
}

func (s *stubParkingService) CheckOut(ctx context.Context, actor domain.Actor, receipt string) (*domain.ParkingSession, error) {
	return s.checkOutFn(ctx, actor, receipt)
}

func (s *stubParkingService) GetOpen(ctx context.Context, actor domain.Actor, receipt string) (*domain.ParkingSession, error) {
	return s.getOpenFn(ctx, actor, receipt)
}

func (s *stubParkingService) ListByTaxID(ctx context.Context, taxID string, page domain.PageRequest) (domain.Page[*domain.ParkingSession], error) {
	return s.listFn(ctx, taxID, page)
}

func (s *stubParkingService) ListForUser(ctx context.Context, userID string, page domain.PageRequest) (domain.Page[*domain.ParkingSession], error) {
	return s.listFn(ctx, userID, page)
}

type stubReportService struct {
	pdf []byte
	err error
}

func (s *stubReportService) History(context.Context, domain.Actor) ([]byte, error) {
	return s.pdf, s.err
}

func (s *stubReportService) Ticket(context.Context, domain.Actor, string) ([]byte, error) {
	return s.pdf, s.err
}

type stubClientService struct {
	clients map[string]*domain.Client
}

func (s *stubClientService) Create(_ context.Context, actor domain.Actor, in ports.CreateClientInput) (*domain.Client, error) {
	for _, c := range s.clients {
		if c.TaxID == in.TaxID {
			return nil, domain.ErrTaxIDExists
		}
	}
	c := &domain.Client{ID: "client-new", Name: in.Name, TaxID: in.TaxID, UserID: actor.UserID}
	s.clients[c.ID] = c
	return c, nil
}

func (s *stubClientService) GetByID(_ context.Context, id string) (*domain.Client, error) {
	if c, ok := s.clients[id]; ok {
		return c, nil
	}
	return nil, domain.ErrClientNotFound
}

func (s *stubClientService) GetByUserID(_ context.Context, userID string) (*domain.Client, error) {
	for _, c := range s.clients {
		if c.UserID == userID {
			return c, nil
		}
	}
	return nil, domain.ErrClientNotFound
}

func (s *stubClientService) List(_ context.Context, page domain.PageRequest) (domain.Page[*domain.Client], error) {
	items := make([]*domain.Client, 0, len(s.clients))
	for _, c := range s.clients {
		items = append(items, c)
	}
	return domain.NewPage(items, int64(len(items)), page), nil
}

type stubSpotService struct {
	lastStatus domain.SpotStatus
}

func (s *stubSpotService) Create(_ context.Context, _ domain.Actor, in ports.CreateSpotInput) (*domain.ParkingSpot, error) {
	return &domain.ParkingSpot{ID: "spot-1", Code: in.Code, Status: domain.SpotFree, Description: in.Description}, nil
}

func (s *stubSpotService) GetByCode(_ context.Context, code string) (*domain.ParkingSpot, error) {
	return nil, domain.ErrSpotNotFound
}

func (s *stubSpotService) List(_ context.Context, status domain.SpotStatus) ([]*domain.ParkingSpot, error) {
	s.lastStatus = status
	return []*domain.ParkingSpot{{ID: "spot-1", Code: "A-01", Status: domain.SpotFree}}, nil
}
