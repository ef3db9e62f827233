package store

import (
	"time"

	"riskintel/pkg/domain"
)

// Store defines persistence for reference data, the media catalog, quota
// profiles and deferred report requests. Artifact creation, finalization and
// deletion are each atomic with respect to concurrent readers.
type Store interface {
	// countries
	SaveCountry(domain.Country) (domain.Country, error)
	GetCountry(id int64) (domain.Country, bool, error)
	ListCountries() ([]domain.Country, error)
	DeleteCountry(id int64) error

	// risk categories
	SaveRiskCategory(domain.RiskCategory) (domain.RiskCategory, error)
	GetRiskCategory(id int64) (domain.RiskCategory, bool, error)
	ListRiskCategories() ([]domain.RiskCategory, error)
	DeleteRiskCategory(id int64) error

	// risk data points
	SaveRiskData(domain.RiskData) (domain.RiskData, error)
	GetRiskData(id int64) (domain.RiskData, bool, error)
	ListRiskData() ([]domain.RiskData, error)
	DeleteRiskData(id int64) error

	// risk forecasts
	SaveRiskForecast(domain.RiskForecast) (domain.RiskForecast, error)
	GetRiskForecast(id int64) (domain.RiskForecast, bool, error)
	ListRiskForecasts() ([]domain.RiskForecast, error)
	DeleteRiskForecast(id int64) error

	// media catalog
	CreateArtifact(domain.Artifact) error
	GetArtifact(id string) (domain.Artifact, bool, error)
	ListArtifactsByOwner(ownerID string) ([]domain.Artifact, error)
	FinalizeArtifact(id string, sizeBytes int64, storageKey string) error
	MarkArtifactFailed(id string, errMsg string) error
	TouchArtifact(id string, accessedAt time.Time) error
	DeleteArtifact(id string) error

	// quota ledger backing
	GetOrCreateQuotaProfile(ownerID string, defaultLimitBytes int64) (domain.QuotaProfile, error)
	UsedBytes(ownerID string) (int64, error)

	// deferred report requests
	CreateReportRequest(domain.ReportRequest) error
	GetReportRequest(id string) (domain.ReportRequest, bool, error)
	ListReportRequestsByOwner(ownerID string) ([]domain.ReportRequest, error)
	SetReportRequestStatus(id string, status domain.ReportStatus, artifactID, errMsg string, completedAt *time.Time) error
}
