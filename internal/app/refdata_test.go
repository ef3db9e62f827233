package app

import (
	"errors"
	"testing"
	"time"

	"riskintel/pkg/domain"
)

func TestSaveCountryValidation(t *testing.T) {
	env := newTestEnv(t, 10<<20)

	c, err := env.app.SaveCountry(domain.Country{Name: " France ", ISOCode: "fra", Region: "Europe"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if c.Name != "France" || c.ISOCode != "FRA" {
		t.Fatalf("country not normalized: %+v", c)
	}

	if _, err := env.app.SaveCountry(domain.Country{ISOCode: "FRA"}); err == nil {
		t.Fatalf("missing name accepted")
	}
	if _, err := env.app.SaveCountry(domain.Country{Name: "France", ISOCode: "FR"}); err == nil {
		t.Fatalf("2-letter code accepted")
	}
}

func TestSaveRiskCategoryRejectsUnknownSlug(t *testing.T) {
	env := newTestEnv(t, 10<<20)
	if _, err := env.app.SaveRiskCategory(domain.RiskCategory{Slug: "volcano"}); err == nil {
		t.Fatalf("unknown slug accepted")
	}
	c, err := env.app.SaveRiskCategory(domain.RiskCategory{Slug: " Cyber ", Description: "cyber threats"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if c.Slug != "cyber" {
		t.Fatalf("slug = %q", c.Slug)
	}
}

func TestSaveRiskDataRange(t *testing.T) {
	env := newTestEnv(t, 10<<20)
	base := domain.RiskData{
		CountryID:       1,
		RiskCategoryID:  2,
		Date:            time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		RiskLevel:       0.5,
		ConfidenceScore: 0.9,
		Source:          "ingest",
	}
	if _, err := env.app.SaveRiskData(base); err != nil {
		t.Fatalf("save: %v", err)
	}

	bad := base
	bad.RiskLevel = 1.2
	var vErr *ValidationError
	if _, err := env.app.SaveRiskData(bad); !errors.As(err, &vErr) {
		t.Fatalf("out-of-range risk level accepted: %v", err)
	}
	bad = base
	bad.Source = " "
	if _, err := env.app.SaveRiskData(bad); !errors.As(err, &vErr) {
		t.Fatalf("blank source accepted: %v", err)
	}
}

func TestSaveRiskForecastOrdering(t *testing.T) {
	env := newTestEnv(t, 10<<20)
	f := domain.RiskForecast{
		CountryID:      1,
		RiskCategoryID: 2,
		ForecastDate:   time.Date(2027, 6, 1, 0, 0, 0, 0, time.UTC),
		CILower:        0.6,
		CIUpper:        0.4,
		ModelUsed:      "arima",
	}
	if _, err := env.app.SaveRiskForecast(f); err == nil {
		t.Fatalf("inverted confidence interval accepted")
	}
	f.CILower, f.CIUpper = 0.4, 0.6
	if _, err := env.app.SaveRiskForecast(f); err != nil {
		t.Fatalf("save: %v", err)
	}
}

func TestGetCountryNotFound(t *testing.T) {
	env := newTestEnv(t, 10<<20)
	if _, err := env.app.GetCountry(42); !errors.Is(err, ErrCountryNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}
