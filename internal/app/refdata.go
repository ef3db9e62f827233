package app

import (
	"errors"
	"strings"
	"time"

	"riskintel/pkg/domain"
)

// Reference data operations. Validation happens here so both HTTP handlers
// and future importers share one gate.

var (
	ErrCountryNotFound      = errors.New("country not found")
	ErrRiskCategoryNotFound = errors.New("risk category not found")
	ErrRiskDataNotFound     = errors.New("risk data not found")
	ErrRiskForecastNotFound = errors.New("risk forecast not found")
)

func (a *App) SaveCountry(c domain.Country) (domain.Country, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.ISOCode = strings.ToUpper(strings.TrimSpace(c.ISOCode))
	c.Region = strings.TrimSpace(c.Region)
	if c.Name == "" {
		return domain.Country{}, validationErrorf("name is required")
	}
	if len(c.ISOCode) != 3 {
		return domain.Country{}, validationErrorf("isoCode must be a 3-letter code")
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	return a.store.SaveCountry(c)
}

func (a *App) GetCountry(id int64) (domain.Country, error) {
	c, ok, err := a.store.GetCountry(id)
	if err != nil {
		return domain.Country{}, err
	}
	if !ok {
		return domain.Country{}, ErrCountryNotFound
	}
	return c, nil
}

func (a *App) ListCountries() ([]domain.Country, error) { return a.store.ListCountries() }
func (a *App) DeleteCountry(id int64) error             { return a.store.DeleteCountry(id) }

func (a *App) SaveRiskCategory(c domain.RiskCategory) (domain.RiskCategory, error) {
	c.Slug = strings.ToLower(strings.TrimSpace(c.Slug))
	if _, ok := riskSlugSet[c.Slug]; !ok {
		return domain.RiskCategory{}, validationErrorf("unknown risk slug %q", c.Slug)
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	return a.store.SaveRiskCategory(c)
}

func (a *App) GetRiskCategory(id int64) (domain.RiskCategory, error) {
	c, ok, err := a.store.GetRiskCategory(id)
	if err != nil {
		return domain.RiskCategory{}, err
	}
	if !ok {
		return domain.RiskCategory{}, ErrRiskCategoryNotFound
	}
	return c, nil
}

func (a *App) ListRiskCategories() ([]domain.RiskCategory, error) {
	return a.store.ListRiskCategories()
}
func (a *App) DeleteRiskCategory(id int64) error { return a.store.DeleteRiskCategory(id) }

func (a *App) SaveRiskData(d domain.RiskData) (domain.RiskData, error) {
	if d.CountryID == 0 || d.RiskCategoryID == 0 {
		return domain.RiskData{}, validationErrorf("countryId and riskCategoryId are required")
	}
	if d.Date.IsZero() {
		return domain.RiskData{}, validationErrorf("date is required")
	}
	if d.RiskLevel < 0 || d.RiskLevel > 1 {
		return domain.RiskData{}, validationErrorf("riskLevel must be within [0, 1]")
	}
	if d.ConfidenceScore < 0 || d.ConfidenceScore > 1 {
		return domain.RiskData{}, validationErrorf("confidenceScore must be within [0, 1]")
	}
	d.Source = strings.TrimSpace(d.Source)
	if d.Source == "" {
		return domain.RiskData{}, validationErrorf("source is required")
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	return a.store.SaveRiskData(d)
}

func (a *App) GetRiskData(id int64) (domain.RiskData, error) {
	d, ok, err := a.store.GetRiskData(id)
	if err != nil {
		return domain.RiskData{}, err
	}
	if !ok {
		return domain.RiskData{}, ErrRiskDataNotFound
	}
	return d, nil
}

func (a *App) ListRiskData() ([]domain.RiskData, error) { return a.store.ListRiskData() }
func (a *App) DeleteRiskData(id int64) error            { return a.store.DeleteRiskData(id) }

func (a *App) SaveRiskForecast(f domain.RiskForecast) (domain.RiskForecast, error) {
	if f.CountryID == 0 || f.RiskCategoryID == 0 {
		return domain.RiskForecast{}, validationErrorf("countryId and riskCategoryId are required")
	}
	if f.ForecastDate.IsZero() {
		return domain.RiskForecast{}, validationErrorf("forecastDate is required")
	}
	if f.CILower > f.CIUpper {
		return domain.RiskForecast{}, validationErrorf("ciLower must not exceed ciUpper")
	}
	f.ModelUsed = strings.TrimSpace(f.ModelUsed)
	if f.ModelUsed == "" {
		return domain.RiskForecast{}, validationErrorf("modelUsed is required")
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	return a.store.SaveRiskForecast(f)
}

func (a *App) GetRiskForecast(id int64) (domain.RiskForecast, error) {
	f, ok, err := a.store.GetRiskForecast(id)
	if err != nil {
		return domain.RiskForecast{}, err
	}
	if !ok {
		return domain.RiskForecast{}, ErrRiskForecastNotFound
	}
	return f, nil
}

func (a *App) ListRiskForecasts() ([]domain.RiskForecast, error) {
	return a.store.ListRiskForecasts()
}
func (a *App) DeleteRiskForecast(id int64) error { return a.store.DeleteRiskForecast(id) }
