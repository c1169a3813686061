package mongo

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestDecimal128_RoundTrip(t *testing.T) {
	for _, in := range []string{"0.00", "2.78", "12.75", "170.25"} {
		d128, err := toDecimal128(decimal.NewNullDecimal(decimal.RequireFromString(in)))
		if err != nil {
			t.Fatalf("encode %s: %v", in, err)
		}
		out, err := fromDecimal128(d128)
		if err != nil {
			t.Fatalf("decode %s: %v", in, err)
		}
		if !out.Valid || out.Decimal.StringFixed(2) != in {
			t.Errorf("round trip of %s gave %v", in, out)
		}
	}

	null, err := toDecimal128(decimal.NullDecimal{})
	if err != nil || null != nil {
		t.Fatalf("expected nil for null decimal, got %v, %v", null, err)
	}
	back, _ := fromDecimal128(nil)
	if back.Valid {
		t.Fatal("expected null decimal for missing value")
	}
}

func TestSessionView_ToDomain(t *testing.T) {
	exit := time.Date(2024, 3, 5, 11, 1, 0, 0, time.UTC)
	fee, _ := toDecimal128(decimal.NewNullDecimal(decimal.RequireFromString("11.00")))
	v := sessionView{
		sessionDoc: sessionDoc{
			ID:        "s-1",
			Receipt:   "20240305-070000",
			EntryTime: exit.Add(-61 * time.Minute),
			ExitTime:  &exit,
			Fee:       fee,
		},
		Client: clientDoc{ID: "c-1", TaxID: "52998224725"},
		Spot:   spotDoc{ID: "p-1", Code: "A-01", Status: "FREE"},
	}

	s, err := v.toDomain()
	if err != nil {
		t.Fatalf("toDomain: %v", err)
	}
	if !s.ExitTime.Valid || !s.ExitTime.Time.Equal(exit) {
		t.Errorf("unexpected exit time %v", s.ExitTime)
	}
	if s.Fee.Decimal.StringFixed(2) != "11.00" || s.Discount.Valid {
		t.Errorf("unexpected money fields fee=%v discount=%v", s.Fee, s.Discount)
	}
	if s.Client.TaxID != "52998224725" || s.Spot.Code != "A-01" {
		t.Errorf("joined documents not mapped: %+v %+v", s.Client, s.Spot)
	}
}

func TestDuplicateOn(t *testing.T) {
	err := mongo.WriteException{WriteErrors: []mongo.WriteError{{
		Code:    11000,
		Message: "E11000 duplicate key error collection: parking.sessions index: open_spot_unique dup key",
	}}}
	if !duplicateOn(err, "open_spot_unique") {
		t.Fatal("expected open spot index match")
	}
	if duplicateOn(err, "receipt_unique") {
		t.Fatal("matched the wrong index")
	}
	if duplicateOn(errors.New("E11000 open_spot_unique"), "open_spot_unique") {
		t.Fatal("plain errors are not duplicate key errors")
	}
}
