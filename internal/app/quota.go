package app

import (
	"fmt"

	"riskintel/pkg/domain"
)

// StorageInfo returns the owner's quota ceiling and derived usage. Used bytes
// are recomputed from the catalog on every call, never cached.
func (a *App) StorageInfo(ownerID string) (domain.QuotaInfo, error) {
	profile, err := a.store.GetOrCreateQuotaProfile(ownerID, a.defaultQuotaBytes)
	if err != nil {
		return domain.QuotaInfo{}, fmt.Errorf("load quota profile: %w", err)
	}
	used, err := a.store.UsedBytes(ownerID)
	if err != nil {
		return domain.QuotaInfo{}, fmt.Errorf("compute used bytes: %w", err)
	}
	remaining := profile.QuotaLimitBytes - used
	if remaining < 0 {
		remaining = 0
	}
	return domain.QuotaInfo{
		QuotaLimitBytes: profile.QuotaLimitBytes,
		UsedBytes:       used,
		RemainingBytes:  remaining,
	}, nil
}

// canAccept reports whether a candidate of the given size fits the owner's
// quota. A candidate that exactly fills the remaining space is accepted.
func (a *App) canAccept(ownerID string, candidateBytes int64) (bool, domain.QuotaInfo, error) {
	info, err := a.StorageInfo(ownerID)
	if err != nil {
		return false, domain.QuotaInfo{}, err
	}
	return info.UsedBytes+candidateBytes <= info.QuotaLimitBytes, info, nil
}
