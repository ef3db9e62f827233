package domain

import "time"

type ArtifactKind string

const (
	KindDocument ArtifactKind = "document"
	KindAudio    ArtifactKind = "audio"
	KindText     ArtifactKind = "text"
	KindOther    ArtifactKind = "other"
)

type ArtifactStatus string

const (
	StatusProcessing ArtifactStatus = "processing"
	StatusCompleted  ArtifactStatus = "completed"
	StatusFailed     ArtifactStatus = "failed"
)

type ReportStatus string

const (
	ReportPending    ReportStatus = "pending"
	ReportProcessing ReportStatus = "processing"
	ReportCompleted  ReportStatus = "completed"
	ReportFailed     ReportStatus = "failed"
)

// RiskSlugs is the fixed enumeration of supported risk categories.
var RiskSlugs = []string{
	"climate", "cyber", "financial", "geopolitical", "pandemic",
	"supply-chain", "energy", "water", "food", "migration",
	"terrorism", "natural-disaster", "economic", "technology", "social",
}

type Country struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	ISOCode   string    `json:"isoCode"`
	Region    string    `json:"region"`
	CreatedAt time.Time `json:"createdAt"`
}

type RiskCategory struct {
	ID          int64     `json:"id"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

type RiskData struct {
	ID              int64          `json:"id"`
	CountryID       int64          `json:"countryId"`
	RiskCategoryID  int64          `json:"riskCategoryId"`
	Date            time.Time      `json:"date"`
	RiskLevel       float64        `json:"riskLevel"`
	ConfidenceScore float64        `json:"confidenceScore"`
	Source          string         `json:"source"`
	Raw             map[string]any `json:"raw,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
}

type RiskForecast struct {
	ID                 int64     `json:"id"`
	CountryID          int64     `json:"countryId"`
	RiskCategoryID     int64     `json:"riskCategoryId"`
	ForecastDate       time.Time `json:"forecastDate"`
	PredictedRiskLevel float64   `json:"predictedRiskLevel"`
	CILower            float64   `json:"ciLower"`
	CIUpper            float64   `json:"ciUpper"`
	ModelUsed          string    `json:"modelUsed"`
	CreatedAt          time.Time `json:"createdAt"`
}

// Artifact is a generated media file plus its catalog metadata. The ID is a
// random UUID so artifact URLs cannot be enumerated across owners.
type Artifact struct {
	ID               string            `json:"id"`
	OwnerID          string            `json:"ownerId"`
	Kind             ArtifactKind      `json:"kind"`
	SizeBytes        int64             `json:"sizeBytes"`
	OriginalFilename string            `json:"originalFilename"`
	Countries        []string          `json:"countries,omitempty"`
	Risks            []string          `json:"risks,omitempty"`
	Year             int               `json:"year,omitempty"`
	Params           map[string]string `json:"params,omitempty"`
	Status           ArtifactStatus    `json:"status"`
	ErrorMessage     string            `json:"errorMessage,omitempty"`
	Title            string            `json:"title,omitempty"`
	Description      string            `json:"description,omitempty"`
	Tags             []string          `json:"tags,omitempty"`
	StorageKey       string            `json:"-"`
	GeneratedAt      time.Time         `json:"generatedAt"`
	AccessedAt       time.Time         `json:"accessedAt"`
}

// QuotaProfile holds the per-owner storage ceiling. Used and remaining bytes
// are always derived from the catalog, never stored.
type QuotaProfile struct {
	OwnerID         string    `json:"ownerId"`
	QuotaLimitBytes int64     `json:"quotaLimitBytes"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// QuotaInfo is the derived storage view returned to callers.
type QuotaInfo struct {
	QuotaLimitBytes int64 `json:"quota_limit_bytes"`
	UsedBytes       int64 `json:"used_bytes"`
	RemainingBytes  int64 `json:"remaining_bytes"`
}

// ReportRequest is the audit row for a deferred document generation.
type ReportRequest struct {
	ID           string       `json:"id"`
	OwnerID      string       `json:"ownerId"`
	Countries    []string     `json:"countries"`
	Risks        []string     `json:"risks"`
	Year         int          `json:"year"`
	Status       ReportStatus `json:"status"`
	ArtifactID   string       `json:"artifactId,omitempty"`
	ErrorMessage string       `json:"errorMessage,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
	CompletedAt  *time.Time   `json:"completedAt,omitempty"`
}
