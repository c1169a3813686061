package domain

import (
	"fmt"
	"strings"
)

// SpotStatus is the occupancy state of a parking spot.
type SpotStatus string

const (
	SpotFree     SpotStatus = "FREE"
	SpotOccupied SpotStatus = "OCCUPIED"
)

func ParseSpotStatus(s string) (SpotStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "FREE":
		return SpotFree, nil
	case "OCCUPIED":
		return SpotOccupied, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSpotStatus, s)
	}
}

// ParkingSpot is a physical space in the lot. Status is OCCUPIED exactly while
// one open session references the spot.
type ParkingSpot struct {
	ID          string
	Code        string
	Status      SpotStatus
	Description string
	Audit
}

func (p *ParkingSpot) Occupy() { p.Status = SpotOccupied }

func (p *ParkingSpot) Release() { p.Status = SpotFree }
