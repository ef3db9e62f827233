package store

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"riskintel/pkg/domain"
)

// GORM models used for persistence.

type CountryModel struct {
	ID        int64     `gorm:"primaryKey"`
	Name      string    `gorm:"uniqueIndex;not null"`
	ISOCode   string    `gorm:"column:iso_code;uniqueIndex;not null"`
	Region    string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

type RiskCategoryModel struct {
	ID          int64     `gorm:"primaryKey"`
	Slug        string    `gorm:"uniqueIndex;not null"`
	Description string    `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"not null"`
}

type RiskDataModel struct {
	ID              int64     `gorm:"primaryKey"`
	CountryID       int64     `gorm:"not null;index;uniqueIndex:idx_risk_data_point"`
	RiskCategoryID  int64     `gorm:"not null;index;uniqueIndex:idx_risk_data_point"`
	Date            time.Time `gorm:"not null;uniqueIndex:idx_risk_data_point"`
	RiskLevel       float64   `gorm:"not null"`
	ConfidenceScore float64   `gorm:"not null"`
	Source          string    `gorm:"not null;uniqueIndex:idx_risk_data_point"`
	Raw             datatypes.JSON
	CreatedAt       time.Time `gorm:"not null"`
}

type RiskForecastModel struct {
	ID                 int64     `gorm:"primaryKey"`
	CountryID          int64     `gorm:"not null;index;uniqueIndex:idx_risk_forecast_point"`
	RiskCategoryID     int64     `gorm:"not null;index;uniqueIndex:idx_risk_forecast_point"`
	ForecastDate       time.Time `gorm:"not null;uniqueIndex:idx_risk_forecast_point"`
	PredictedRiskLevel float64   `gorm:"not null"`
	CILower            float64   `gorm:"column:ci_lower;not null"`
	CIUpper            float64   `gorm:"column:ci_upper;not null"`
	ModelUsed          string    `gorm:"not null;uniqueIndex:idx_risk_forecast_point"`
	CreatedAt          time.Time `gorm:"not null"`
}

type ArtifactModel struct {
	ID               string `gorm:"primaryKey"`
	OwnerID          string `gorm:"not null;index:idx_artifacts_owner_kind;index:idx_artifacts_owner_generated"`
	Kind             string `gorm:"not null;index:idx_artifacts_owner_kind"`
	SizeBytes        int64  `gorm:"not null"`
	OriginalFilename string `gorm:"not null"`
	Countries        datatypes.JSON
	Risks            datatypes.JSON
	Year             int
	Params           datatypes.JSON
	Status           string `gorm:"not null"`
	ErrorMessage     string `gorm:"type:text"`
	Title            string
	Description      string `gorm:"type:text"`
	Tags             datatypes.JSON
	StorageKey       string
	GeneratedAt      time.Time `gorm:"not null;index:idx_artifacts_owner_generated"`
	AccessedAt       time.Time `gorm:"not null"`
}

type QuotaProfileModel struct {
	OwnerID         string    `gorm:"primaryKey"`
	QuotaLimitBytes int64     `gorm:"not null"`
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

type ReportRequestModel struct {
	ID           string `gorm:"primaryKey"`
	OwnerID      string `gorm:"not null;index"`
	Countries    datatypes.JSON
	Risks        datatypes.JSON
	Year         int
	Status       string `gorm:"not null"`
	ArtifactID   string
	ErrorMessage string    `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"not null"`
	CompletedAt  *time.Time
}

func toJSON(v any) datatypes.JSON {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}

func stringsFromJSON(b datatypes.JSON) []string {
	if len(b) == 0 {
		return nil
	}
	var out []string
	_ = json.Unmarshal(b, &out)
	return out
}

func stringMapFromJSON(b datatypes.JSON) map[string]string {
	if len(b) == 0 {
		return nil
	}
	var out map[string]string
	_ = json.Unmarshal(b, &out)
	return out
}

func anyMapFromJSON(b datatypes.JSON) map[string]any {
	if len(b) == 0 {
		return nil
	}
	var out map[string]any
	_ = json.Unmarshal(b, &out)
	return out
}

func countryToModel(c domain.Country) CountryModel {
	return CountryModel{ID: c.ID, Name: c.Name, ISOCode: c.ISOCode, Region: c.Region, CreatedAt: c.CreatedAt}
}

func countryFromModel(m CountryModel) domain.Country {
	return domain.Country{ID: m.ID, Name: m.Name, ISOCode: m.ISOCode, Region: m.Region, CreatedAt: m.CreatedAt}
}

func riskCategoryToModel(c domain.RiskCategory) RiskCategoryModel {
	return RiskCategoryModel{ID: c.ID, Slug: c.Slug, Description: c.Description, CreatedAt: c.CreatedAt}
}

func riskCategoryFromModel(m RiskCategoryModel) domain.RiskCategory {
	return domain.RiskCategory{ID: m.ID, Slug: m.Slug, Description: m.Description, CreatedAt: m.CreatedAt}
}

func riskDataToModel(d domain.RiskData) RiskDataModel {
	return RiskDataModel{
		ID:              d.ID,
		CountryID:       d.CountryID,
		RiskCategoryID:  d.RiskCategoryID,
		Date:            d.Date,
		RiskLevel:       d.RiskLevel,
		ConfidenceScore: d.ConfidenceScore,
		Source:          d.Source,
		Raw:             toJSON(d.Raw),
		CreatedAt:       d.CreatedAt,
	}
}

func riskDataFromModel(m RiskDataModel) domain.RiskData {
	return domain.RiskData{
		ID:              m.ID,
		CountryID:       m.CountryID,
		RiskCategoryID:  m.RiskCategoryID,
		Date:            m.Date,
		RiskLevel:       m.RiskLevel,
		ConfidenceScore: m.ConfidenceScore,
		Source:          m.Source,
		Raw:             anyMapFromJSON(m.Raw),
		CreatedAt:       m.CreatedAt,
	}
}

func riskForecastToModel(f domain.RiskForecast) RiskForecastModel {
	return RiskForecastModel{
		ID:                 f.ID,
		CountryID:          f.CountryID,
		RiskCategoryID:     f.RiskCategoryID,
		ForecastDate:       f.ForecastDate,
		PredictedRiskLevel: f.PredictedRiskLevel,
		CILower:            f.CILower,
		CIUpper:            f.CIUpper,
		ModelUsed:          f.ModelUsed,
		CreatedAt:          f.CreatedAt,
	}
}

func riskForecastFromModel(m RiskForecastModel) domain.RiskForecast {
	return domain.RiskForecast{
		ID:                 m.ID,
		CountryID:          m.CountryID,
		RiskCategoryID:     m.RiskCategoryID,
		ForecastDate:       m.ForecastDate,
		PredictedRiskLevel: m.PredictedRiskLevel,
		CILower:            m.CILower,
		CIUpper:            m.CIUpper,
		ModelUsed:          m.ModelUsed,
		CreatedAt:          m.CreatedAt,
	}
}

func artifactToModel(a domain.Artifact) ArtifactModel {
	return ArtifactModel{
		ID:               a.ID,
		OwnerID:          a.OwnerID,
		Kind:             string(a.Kind),
		SizeBytes:        a.SizeBytes,
		OriginalFilename: a.OriginalFilename,
		Countries:        toJSON(a.Countries),
		Risks:            toJSON(a.Risks),
		Year:             a.Year,
		Params:           toJSON(a.Params),
		Status:           string(a.Status),
		ErrorMessage:     a.ErrorMessage,
		Title:            a.Title,
		Description:      a.Description,
		Tags:             toJSON(a.Tags),
		StorageKey:       a.StorageKey,
		GeneratedAt:      a.GeneratedAt,
		AccessedAt:       a.AccessedAt,
	}
}

func artifactFromModel(m ArtifactModel) domain.Artifact {
	return domain.Artifact{
		ID:               m.ID,
		OwnerID:          m.OwnerID,
		Kind:             domain.ArtifactKind(m.Kind),
		SizeBytes:        m.SizeBytes,
		OriginalFilename: m.OriginalFilename,
		Countries:        stringsFromJSON(m.Countries),
		Risks:            stringsFromJSON(m.Risks),
		Year:             m.Year,
		Params:           stringMapFromJSON(m.Params),
		Status:           domain.ArtifactStatus(m.Status),
		ErrorMessage:     m.ErrorMessage,
		Title:            m.Title,
		Description:      m.Description,
		Tags:             stringsFromJSON(m.Tags),
		StorageKey:       m.StorageKey,
		GeneratedAt:      m.GeneratedAt,
		AccessedAt:       m.AccessedAt,
	}
}

func reportRequestToModel(r domain.ReportRequest) ReportRequestModel {
	return ReportRequestModel{
		ID:           r.ID,
		OwnerID:      r.OwnerID,
		Countries:    toJSON(r.Countries),
		Risks:        toJSON(r.Risks),
		Year:         r.Year,
		Status:       string(r.Status),
		ArtifactID:   r.ArtifactID,
		ErrorMessage: r.ErrorMessage,
		CreatedAt:    r.CreatedAt,
		CompletedAt:  r.CompletedAt,
	}
}

func reportRequestFromModel(m ReportRequestModel) domain.ReportRequest {
	return domain.ReportRequest{
		ID:           m.ID,
		OwnerID:      m.OwnerID,
		Countries:    stringsFromJSON(m.Countries),
		Risks:        stringsFromJSON(m.Risks),
		Year:         m.Year,
		Status:       domain.ReportStatus(m.Status),
		ArtifactID:   m.ArtifactID,
		ErrorMessage: m.ErrorMessage,
		CreatedAt:    m.CreatedAt,
		CompletedAt:  m.CompletedAt,
	}
}
