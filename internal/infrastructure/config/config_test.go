package config

import (
	"context"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/sethvargo/go-envconfig"
	"github.com/shopspring/decimal"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "secret",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" || cfg.StoreDriver != DriverPostgres {
		t.Errorf("unexpected defaults: port=%s driver=%s", cfg.Port, cfg.StoreDriver)
	}
	if cfg.JWTTTL != 150*time.Minute {
		t.Errorf("expected 2h30m token ttl, got %v", cfg.JWTTTL)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Errorf("unexpected cors origins %v", cfg.CORSOrigins)
	}

	tariff, err := cfg.Tariff.Parse()
	if err != nil {
		t.Fatalf("parse tariff: %v", err)
	}
	if !tariff.FirstHour.Equal(decimal.RequireFromString("9.25")) || tariff.LoyaltyEvery != 10 {
		t.Errorf("unexpected tariff %+v", tariff)
	}

	loc, err := cfg.Location()
	if err != nil || loc.String() != "America/Sao_Paulo" {
		t.Errorf("unexpected location %v, %v", loc, err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":      "secret",
		"STORE_DRIVER":    "mongo",
		"TARIFF_EXTRA_15": "2.50",
		"CORS_ORIGINS":    "https://a.example,https://b.example",
		"TIME_ZONE":       "UTC",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StoreDriver != DriverMongo {
		t.Errorf("expected mongo driver, got %s", cfg.StoreDriver)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Errorf("expected 2 origins, got %v", cfg.CORSOrigins)
	}
	tariff, _ := cfg.Tariff.Parse()
	if !tariff.Extra15.Equal(decimal.RequireFromString("2.50")) {
		t.Errorf("unexpected extra block price %s", tariff.Extra15)
	}
}

func TestLoad_Rejects(t *testing.T) {
	cases := map[string]map[string]string{
		"missing secret": {},
		"unknown driver": {"JWT_SECRET": "s", "STORE_DRIVER": "sqlite"},
		"bad money":      {"JWT_SECRET": "s", "TARIFF_FIRST_15": "five"},
		"negative money": {"JWT_SECRET": "s", "TARIFF_FIRST_HOUR": "-1"},
		"rate above one": {"JWT_SECRET": "s", "LOYALTY_RATE": "1.5"},
		"unknown zone":   {"JWT_SECRET": "s", "TIME_ZONE": "Mars/Olympus"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := load(context.Background(), envconfig.MapLookuper(env)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
