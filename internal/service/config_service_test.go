package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"pomelo/internal/model"
	"pomelo/internal/repository"
)

type fakeConfigStore struct {
	record *model.RuntimeConfigRecord
	err    error
	calls  int
}

func (f *fakeConfigStore) GetDefault(ctx context.Context) (*model.RuntimeConfigRecord, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.record, nil
}

func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestConfigServiceCachesWithinTTL(t *testing.T) {
	store := &fakeConfigStore{record: &model.RuntimeConfigRecord{
		PrimaryModel: strPtr("model-a"),
	}}

	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	svc := NewConfigService(store, 60*time.Second).WithClock(func() time.Time { return now })

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		cfg, err := svc.Get(ctx)
		if err != nil {
			t.Fatalf("get#%d: %v", i+1, err)
		}
		if cfg.PrimaryModel != "model-a" {
			t.Fatalf("expected primary model model-a, got %q", cfg.PrimaryModel)
		}
	}

	if store.calls != 1 {
		t.Fatalf("expected a single store read within the TTL, got %d", store.calls)
	}
}

func TestConfigServiceRefreshesAfterTTL(t *testing.T) {
	store := &fakeConfigStore{record: &model.RuntimeConfigRecord{
		PrimaryModel: strPtr("model-a"),
	}}

	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	svc := NewConfigService(store, 60*time.Second).WithClock(func() time.Time { return now })

	ctx := context.Background()
	if _, err := svc.Get(ctx); err != nil {
		t.Fatalf("first get: %v", err)
	}

	// TTL 过后应整体替换快照
	store.record = &model.RuntimeConfigRecord{PrimaryModel: strPtr("model-b")}
	now = now.Add(61 * time.Second)

	cfg, err := svc.Get(ctx)
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	if cfg.PrimaryModel != "model-b" {
		t.Fatalf("expected refreshed snapshot model-b, got %q", cfg.PrimaryModel)
	}
	if store.calls != 2 {
		t.Fatalf("expected 2 store reads, got %d", store.calls)
	}
}

func TestConfigServiceMissingRecord(t *testing.T) {
	store := &fakeConfigStore{err: repository.ErrConfigNotFound}
	svc := NewConfigService(store, 60*time.Second)

	_, err := svc.Get(context.Background())
	if err == nil {
		t.Fatal("expected error for a missing config record")
	}

	appErr := model.AsAppError(err)
	if appErr.Code != model.CodeConfigUnavailable {
		t.Fatalf("expected %s, got %s", model.CodeConfigUnavailable, appErr.Code)
	}
}

func TestConfigServiceReadError(t *testing.T) {
	store := &fakeConfigStore{err: errors.New("connection reset")}
	svc := NewConfigService(store, 60*time.Second)

	_, err := svc.Get(context.Background())
	if err == nil {
		t.Fatal("expected error when the store read fails")
	}

	appErr := model.AsAppError(err)
	if appErr.Code != model.CodeConfigUnavailable {
		t.Fatalf("expected %s, got %s", model.CodeConfigUnavailable, appErr.Code)
	}
}

func TestConfigServicePartialRecordDefaults(t *testing.T) {
	// 存量记录缺少字段时逐字段回退到缺省值
	store := &fakeConfigStore{record: &model.RuntimeConfigRecord{
		RequireAuth:      boolPtr(true),
		GlobalQuotaDaily: intPtr(500),
	}}
	svc := NewConfigService(store, 60*time.Second)

	cfg, err := svc.Get(context.Background())
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	if !cfg.RequireAuth {
		t.Fatal("expected require_auth true from the record")
	}
	if cfg.GlobalQuotaDaily != 500 {
		t.Fatalf("expected global quota 500, got %d", cfg.GlobalQuotaDaily)
	}
	if cfg.PrimaryModel != model.DefaultPrimaryModel {
		t.Fatalf("expected default primary model, got %q", cfg.PrimaryModel)
	}
	if cfg.FallbackModel != model.DefaultFallbackModel {
		t.Fatalf("expected default fallback model, got %q", cfg.FallbackModel)
	}
	if cfg.PerUserQuotaDaily != model.DefaultPerUserQuotaDaily {
		t.Fatalf("expected default per-user quota, got %d", cfg.PerUserQuotaDaily)
	}
	if cfg.AllowDocumentAccess {
		t.Fatal("expected document access disabled by default")
	}
}
