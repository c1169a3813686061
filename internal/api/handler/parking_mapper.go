package handler

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/demopark/parking-api/internal/core/domain"
	"github.com/demopark/parking-api/internal/core/ports"
)

// --- Request → Service input ---

func toCheckInInput(req checkInRequest, idempotencyKey string) ports.CheckInInput {
	return ports.CheckInInput{
		TaxID:          req.ClientCPF,
		Plate:          req.Plate,
		Make:           req.Make,
		Model:          req.Model,
		Color:          req.Color,
		IdempotencyKey: idempotencyKey,
	}
}

func toPageRequest(q pageQuery) domain.PageRequest {
	return domain.PageRequest{Page: q.Page, Size: q.Size}.Normalize()
}

// --- Domain → HTTP response ---

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Role:      u.Role.String(),
		CreatedAt: u.CreatedAt.UTC(),
	}
}

func toClientResponse(c *domain.Client) clientResponse {
	return clientResponse{
		ID:        c.ID,
		Name:      c.Name,
		TaxID:     c.TaxID,
		UserID:    c.UserID,
		CreatedAt: c.CreatedAt.UTC(),
	}
}

func toClientPageResponse(p domain.Page[*domain.Client]) clientPageResponse {
	items := make([]clientResponse, 0, len(p.Items))
	for _, c := range p.Items {
		items = append(items, toClientResponse(c))
	}
	return clientPageResponse{Items: items, Page: p.Page, Size: p.Size, Total: p.Total, TotalPages: p.TotalPages()}
}

func toSpotResponse(s *domain.ParkingSpot) spotResponse {
	return spotResponse{
		ID:          s.ID,
		Code:        s.Code,
		Status:      string(s.Status),
		Description: s.Description,
	}
}

func toSessionResponse(s *domain.ParkingSession) sessionResponse {
	resp := sessionResponse{
		Receipt:   s.Receipt,
		Plate:     s.Plate,
		Make:      s.Make,
		Model:     s.Model,
		Color:     s.Color,
		EntryTime: s.EntryTime.UTC(),
	}
	if s.Client != nil {
		resp.ClientCPF = s.Client.TaxID
	}
	if s.Spot != nil {
		resp.SpotCode = s.Spot.Code
	}
	if s.ExitTime.Valid {
		exit := s.ExitTime.Time.UTC()
		resp.ExitTime = &exit
		resp.Fee = money(s.Fee.Decimal)
		resp.Discount = money(s.Discount.Decimal)
		resp.AmountDue = money(s.AmountDue())
	}
	return resp
}

func toSessionPageResponse(p domain.Page[*domain.ParkingSession]) sessionPageResponse {
	items := make([]sessionResponse, 0, len(p.Items))
	for _, s := range p.Items {
		items = append(items, toSessionResponse(s))
	}
	return sessionPageResponse{Items: items, Page: p.Page, Size: p.Size, Total: p.Total, TotalPages: p.TotalPages()}
}

func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}
