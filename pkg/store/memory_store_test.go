package store

import (
	"testing"
	"time"

	"riskintel/pkg/domain"
)

func TestMemoryStoreArtifactLifecycle(t *testing.T) {
	m := NewMemoryStore()
	a := domain.Artifact{
		ID:          "a1",
		OwnerID:     "u1",
		Kind:        domain.KindDocument,
		Status:      domain.StatusProcessing,
		GeneratedAt: time.Now().UTC(),
	}
	if err := m.CreateArtifact(a); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := m.CreateArtifact(a); err == nil {
		t.Fatalf("duplicate create should fail")
	}

	if err := m.FinalizeArtifact("a1", 2048, "users/u1/a1.pdf"); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	got, ok, err := m.GetArtifact("a1")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.Status != domain.StatusCompleted || got.SizeBytes != 2048 || got.StorageKey != "users/u1/a1.pdf" {
		t.Fatalf("finalized artifact = %+v", got)
	}

	if err := m.MarkArtifactFailed("missing", "boom"); err == nil {
		t.Fatalf("expected error for unknown artifact")
	}
	if err := m.DeleteArtifact("a1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := m.GetArtifact("a1"); ok {
		t.Fatalf("artifact should be gone")
	}
}

func TestMemoryStoreUsedBytesSumsPerOwner(t *testing.T) {
	m := NewMemoryStore()
	now := time.Now().UTC()
	for _, a := range []domain.Artifact{
		{ID: "a1", OwnerID: "u1", SizeBytes: 100, Status: domain.StatusCompleted, GeneratedAt: now},
		{ID: "a2", OwnerID: "u1", SizeBytes: 50, Status: domain.StatusCompleted, GeneratedAt: now},
		{ID: "a3", OwnerID: "u2", SizeBytes: 999, Status: domain.StatusCompleted, GeneratedAt: now},
		{ID: "a4", OwnerID: "u1", SizeBytes: 0, Status: domain.StatusProcessing, GeneratedAt: now},
	} {
		if err := m.CreateArtifact(a); err != nil {
			t.Fatalf("create %s: %v", a.ID, err)
		}
	}
	used, err := m.UsedBytes("u1")
	if err != nil {
		t.Fatalf("used: %v", err)
	}
	if used != 150 {
		t.Fatalf("used = %d, want 150", used)
	}
}

func TestMemoryStoreQuotaProfileUpsert(t *testing.T) {
	m := NewMemoryStore()
	p1, err := m.GetOrCreateQuotaProfile("u1", 1000)
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}
	if p1.QuotaLimitBytes != 1000 {
		t.Fatalf("limit = %d, want 1000", p1.QuotaLimitBytes)
	}
	// A later default must not overwrite the stored profile.
	p2, err := m.GetOrCreateQuotaProfile("u1", 5000)
	if err != nil {
		t.Fatalf("second get or create: %v", err)
	}
	if p2.QuotaLimitBytes != 1000 {
		t.Fatalf("limit changed to %d, want 1000", p2.QuotaLimitBytes)
	}
}

func TestMemoryStoreCountryCRUD(t *testing.T) {
	m := NewMemoryStore()
	c, err := m.SaveCountry(domain.Country{Name: "France", ISOCode: "FRA", Region: "Europe"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if c.ID == 0 {
		t.Fatalf("expected assigned id")
	}
	c.Region = "Western Europe"
	if _, err := m.SaveCountry(c); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, ok, _ := m.GetCountry(c.ID)
	if !ok || got.Region != "Western Europe" {
		t.Fatalf("country = %+v ok=%v", got, ok)
	}
	list, _ := m.ListCountries()
	if len(list) != 1 {
		t.Fatalf("list len = %d, want 1", len(list))
	}
	if err := m.DeleteCountry(c.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := m.GetCountry(c.ID); ok {
		t.Fatalf("country should be gone")
	}
}

func TestMemoryStoreReportRequestLifecycle(t *testing.T) {
	m := NewMemoryStore()
	r := domain.ReportRequest{ID: "r1", OwnerID: "u1", Status: domain.ReportPending, CreatedAt: time.Now().UTC()}
	if err := m.CreateReportRequest(r); err != nil {
		t.Fatalf("create: %v", err)
	}
	done := time.Now().UTC()
	if err := m.SetReportRequestStatus("r1", domain.ReportCompleted, "a9", "", &done); err != nil {
		t.Fatalf("set status: %v", err)
	}
	got, ok, _ := m.GetReportRequest("r1")
	if !ok || got.Status != domain.ReportCompleted || got.ArtifactID != "a9" || got.CompletedAt == nil {
		t.Fatalf("report = %+v ok=%v", got, ok)
	}
}
