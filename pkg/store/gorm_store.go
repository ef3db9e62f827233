package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"riskintel/pkg/domain"
)

const migrateLockID int64 = 52195219

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations under an advisory lock
// so concurrent server instances do not race on schema changes.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := withMigrationLock(db, func(tx *gorm.DB) error {
		return tx.AutoMigrate(
			&CountryModel{},
			&RiskCategoryModel{},
			&RiskDataModel{},
			&RiskForecastModel{},
			&ArtifactModel{},
			&QuotaProfileModel{},
			&ReportRequestModel{},
		)
	}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

func withMigrationLock(db *gorm.DB, fn func(*gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("open sql conn: %w", err)
	}
	defer conn.Close()
	if err := execAdvisory(ctx, conn, "SELECT pg_advisory_lock($1)", migrateLockID); err != nil {
		return fmt.Errorf("acquire migrate lock: %w", err)
	}
	defer func() {
		_ = execAdvisory(ctx, conn, "SELECT pg_advisory_unlock($1)", migrateLockID)
	}()
	return fn(db)
}

func execAdvisory(ctx context.Context, conn *sql.Conn, query string, lockID int64) error {
	_, err := conn.ExecContext(ctx, query, lockID)
	return err
}

// --- countries ---

// SaveCountry inserts or updates a country and returns the stored record.
func (s *GormStore) SaveCountry(c domain.Country) (domain.Country, error) {
	model := countryToModel(c)
	if model.CreatedAt.IsZero() {
		model.CreatedAt = time.Now().UTC()
	}
	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "iso_code", "region"}),
	}).Create(&model).Error; err != nil {
		return domain.Country{}, err
	}
	return countryFromModel(model), nil
}

// GetCountry returns one country by ID.
func (s *GormStore) GetCountry(id int64) (domain.Country, bool, error) {
	var model CountryModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Country{}, false, nil
		}
		return domain.Country{}, false, err
	}
	return countryFromModel(model), true, nil
}

// ListCountries returns all countries ordered by name.
func (s *GormStore) ListCountries() ([]domain.Country, error) {
	var models []CountryModel
	if err := s.db.Order("name ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Country, 0, len(models))
	for _, m := range models {
		res = append(res, countryFromModel(m))
	}
	return res, nil
}

// DeleteCountry removes a country.
func (s *GormStore) DeleteCountry(id int64) error {
	return s.db.Delete(&CountryModel{}, "id = ?", id).Error
}

// --- risk categories ---

// SaveRiskCategory inserts or updates a risk category.
func (s *GormStore) SaveRiskCategory(c domain.RiskCategory) (domain.RiskCategory, error) {
	model := riskCategoryToModel(c)
	if model.CreatedAt.IsZero() {
		model.CreatedAt = time.Now().UTC()
	}
	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"slug", "description"}),
	}).Create(&model).Error; err != nil {
		return domain.RiskCategory{}, err
	}
	return riskCategoryFromModel(model), nil
}

// GetRiskCategory returns one risk category by ID.
func (s *GormStore) GetRiskCategory(id int64) (domain.RiskCategory, bool, error) {
	var model RiskCategoryModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.RiskCategory{}, false, nil
		}
		return domain.RiskCategory{}, false, err
	}
	return riskCategoryFromModel(model), true, nil
}

// ListRiskCategories returns all risk categories ordered by slug.
func (s *GormStore) ListRiskCategories() ([]domain.RiskCategory, error) {
	var models []RiskCategoryModel
	if err := s.db.Order("slug ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.RiskCategory, 0, len(models))
	for _, m := range models {
		res = append(res, riskCategoryFromModel(m))
	}
	return res, nil
}

// DeleteRiskCategory removes a risk category.
func (s *GormStore) DeleteRiskCategory(id int64) error {
	return s.db.Delete(&RiskCategoryModel{}, "id = ?", id).Error
}

// --- risk data ---

// SaveRiskData inserts or updates a risk data point.
func (s *GormStore) SaveRiskData(d domain.RiskData) (domain.RiskData, error) {
	model := riskDataToModel(d)
	if model.CreatedAt.IsZero() {
		model.CreatedAt = time.Now().UTC()
	}
	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"risk_level", "confidence_score", "raw"}),
	}).Create(&model).Error; err != nil {
		return domain.RiskData{}, err
	}
	return riskDataFromModel(model), nil
}

// GetRiskData returns one risk data point by ID.
func (s *GormStore) GetRiskData(id int64) (domain.RiskData, bool, error) {
	var model RiskDataModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.RiskData{}, false, nil
		}
		return domain.RiskData{}, false, err
	}
	return riskDataFromModel(model), true, nil
}

// ListRiskData returns all risk data points, newest dates first.
func (s *GormStore) ListRiskData() ([]domain.RiskData, error) {
	var models []RiskDataModel
	if err := s.db.Order("date DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.RiskData, 0, len(models))
	for _, m := range models {
		res = append(res, riskDataFromModel(m))
	}
	return res, nil
}

// DeleteRiskData removes a risk data point.
func (s *GormStore) DeleteRiskData(id int64) error {
	return s.db.Delete(&RiskDataModel{}, "id = ?", id).Error
}

// --- risk forecasts ---

// SaveRiskForecast inserts or updates a forecast.
func (s *GormStore) SaveRiskForecast(f domain.RiskForecast) (domain.RiskForecast, error) {
	model := riskForecastToModel(f)
	if model.CreatedAt.IsZero() {
		model.CreatedAt = time.Now().UTC()
	}
	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"predicted_risk_level", "ci_lower", "ci_upper"}),
	}).Create(&model).Error; err != nil {
		return domain.RiskForecast{}, err
	}
	return riskForecastFromModel(model), nil
}

// GetRiskForecast returns one forecast by ID.
func (s *GormStore) GetRiskForecast(id int64) (domain.RiskForecast, bool, error) {
	var model RiskForecastModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.RiskForecast{}, false, nil
		}
		return domain.RiskForecast{}, false, err
	}
	return riskForecastFromModel(model), true, nil
}

// ListRiskForecasts returns all forecasts, nearest forecast date first.
func (s *GormStore) ListRiskForecasts() ([]domain.RiskForecast, error) {
	var models []RiskForecastModel
	if err := s.db.Order("forecast_date ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.RiskForecast, 0, len(models))
	for _, m := range models {
		res = append(res, riskForecastFromModel(m))
	}
	return res, nil
}

// DeleteRiskForecast removes a forecast.
func (s *GormStore) DeleteRiskForecast(id int64) error {
	return s.db.Delete(&RiskForecastModel{}, "id = ?", id).Error
}

// --- media catalog ---

// CreateArtifact inserts the reservation row in a single statement.
func (s *GormStore) CreateArtifact(a domain.Artifact) error {
	model := artifactToModel(a)
	return s.db.Create(&model).Error
}

// GetArtifact retrieves an artifact.
func (s *GormStore) GetArtifact(id string) (domain.Artifact, bool, error) {
	var model ArtifactModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Artifact{}, false, nil
		}
		return domain.Artifact{}, false, err
	}
	return artifactFromModel(model), true, nil
}

// ListArtifactsByOwner returns the owner's artifacts, newest first.
func (s *GormStore) ListArtifactsByOwner(ownerID string) ([]domain.Artifact, error) {
	var models []ArtifactModel
	if err := s.db.Where("owner_id = ?", ownerID).Order("generated_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Artifact, 0, len(models))
	for _, m := range models {
		res = append(res, artifactFromModel(m))
	}
	return res, nil
}

// FinalizeArtifact completes the reservation: size, storage key and status
// flip to their final values in one update so readers never observe a
// half-finalized row.
func (s *GormStore) FinalizeArtifact(id string, sizeBytes int64, storageKey string) error {
	return s.db.Model(&ArtifactModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":      string(domain.StatusCompleted),
			"size_bytes":  sizeBytes,
			"storage_key": storageKey,
			"accessed_at": time.Now().UTC(),
		}).Error
}

// MarkArtifactFailed records a terminal failure with its message.
func (s *GormStore) MarkArtifactFailed(id string, errMsg string) error {
	return s.db.Model(&ArtifactModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":        string(domain.StatusFailed),
			"error_message": errMsg,
			"accessed_at":   time.Now().UTC(),
		}).Error
}

// TouchArtifact refreshes the last-access timestamp.
func (s *GormStore) TouchArtifact(id string, accessedAt time.Time) error {
	return s.db.Model(&ArtifactModel{}).
		Where("id = ?", id).
		Update("accessed_at", accessedAt.UTC()).Error
}

// DeleteArtifact removes the catalog row.
func (s *GormStore) DeleteArtifact(id string) error {
	return s.db.Delete(&ArtifactModel{}, "id = ?", id).Error
}

// --- quota ---

// GetOrCreateQuotaProfile upserts the owner's quota profile with the default
// limit and returns the stored row.
func (s *GormStore) GetOrCreateQuotaProfile(ownerID string, defaultLimitBytes int64) (domain.QuotaProfile, error) {
	now := time.Now().UTC()
	model := QuotaProfileModel{
		OwnerID:         ownerID,
		QuotaLimitBytes: defaultLimitBytes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner_id"}},
		DoNothing: true,
	}).Create(&model).Error; err != nil {
		return domain.QuotaProfile{}, err
	}
	var stored QuotaProfileModel
	if err := s.db.First(&stored, "owner_id = ?", ownerID).Error; err != nil {
		return domain.QuotaProfile{}, err
	}
	return domain.QuotaProfile{
		OwnerID:         stored.OwnerID,
		QuotaLimitBytes: stored.QuotaLimitBytes,
		CreatedAt:       stored.CreatedAt,
		UpdatedAt:       stored.UpdatedAt,
	}, nil
}

// UsedBytes sums the recorded sizes of all of the owner's artifacts. It is
// recomputed from the catalog on every call; there is no counter to drift.
func (s *GormStore) UsedBytes(ownerID string) (int64, error) {
	var total sql.NullInt64
	if err := s.db.Model(&ArtifactModel{}).
		Where("owner_id = ?", ownerID).
		Select("COALESCE(SUM(size_bytes), 0)").
		Scan(&total).Error; err != nil {
		return 0, err
	}
	return total.Int64, nil
}

// --- report requests ---

// CreateReportRequest inserts a deferred report request.
func (s *GormStore) CreateReportRequest(r domain.ReportRequest) error {
	model := reportRequestToModel(r)
	return s.db.Create(&model).Error
}

// GetReportRequest retrieves one request.
func (s *GormStore) GetReportRequest(id string) (domain.ReportRequest, bool, error) {
	var model ReportRequestModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.ReportRequest{}, false, nil
		}
		return domain.ReportRequest{}, false, err
	}
	return reportRequestFromModel(model), true, nil
}

// ListReportRequestsByOwner returns the owner's requests, newest first.
func (s *GormStore) ListReportRequestsByOwner(ownerID string) ([]domain.ReportRequest, error) {
	var models []ReportRequestModel
	if err := s.db.Where("owner_id = ?", ownerID).Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.ReportRequest, 0, len(models))
	for _, m := range models {
		res = append(res, reportRequestFromModel(m))
	}
	return res, nil
}

// SetReportRequestStatus advances a request's lifecycle in one update.
func (s *GormStore) SetReportRequestStatus(id string, status domain.ReportStatus, artifactID, errMsg string, completedAt *time.Time) error {
	updates := map[string]any{
		"status":        string(status),
		"error_message": errMsg,
	}
	if artifactID != "" {
		updates["artifact_id"] = artifactID
	}
	if completedAt != nil {
		updates["completed_at"] = completedAt.UTC()
	}
	return s.db.Model(&ReportRequestModel{}).Where("id = ?", id).Updates(updates).Error
}
