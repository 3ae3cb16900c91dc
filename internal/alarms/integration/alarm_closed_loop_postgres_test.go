package integration_test

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	alarmapp "refinery-ops/internal/alarms/application"
	alarms "refinery-ops/internal/alarms/domain"
	alarmrepo "refinery-ops/internal/alarms/infrastructure/postgres"
	"refinery-ops/internal/platform/postgres"
	qualityapp "refinery-ops/internal/quality/application"
	quality "refinery-ops/internal/quality/domain"
	qualityrepo "refinery-ops/internal/quality/infrastructure/postgres"
	waterapp "refinery-ops/internal/water/application"
	water "refinery-ops/internal/water/domain"
	waterrepo "refinery-ops/internal/water/infrastructure/postgres"
)

type recordingNotifier struct {
	mu     sync.Mutex
	alerts []alarms.Alert
}

func (r *recordingNotifier) Notify(_ context.Context, alert alarms.Alert) {
	r.mu.Lock()
	r.alerts = append(r.alerts, alert)
	r.mu.Unlock()
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.alerts)
}

func ptr(v float64) *float64 { return &v }

func TestAlertClosedLoop_Postgres(t *testing.T) {
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if _, err := postgres.Migrate(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	_, _ = db.ExecContext(ctx, "DELETE FROM alert_thresholds")
	_, _ = db.ExecContext(ctx, "DELETE FROM water_readings")
	_, _ = db.ExecContext(ctx, "DELETE FROM quality_tests")
	_, _ = db.ExecContext(ctx, "DELETE FROM commercial_standards")

	readingRepo := waterrepo.NewReadingRepository(db)
	testRepo := qualityrepo.NewTestRepository(db)
	standardRepo := qualityrepo.NewStandardRepository(db)
	notifier := &recordingNotifier{}

	alarmService, err := alarmapp.NewService(alarmrepo.NewThresholdRepository(db), readingRepo, testRepo, standardRepo,
		alarmapp.WithNotifier(notifier))
	if err != nil {
		t.Fatalf("new alarm service: %v", err)
	}
	waterService, err := waterapp.NewService(readingRepo, waterapp.WithObserver(alarmService))
	if err != nil {
		t.Fatalf("new water service: %v", err)
	}
	testService, err := qualityapp.NewTestService(testRepo, standardRepo, qualityapp.WithObserver(alarmService))
	if err != nil {
		t.Fatalf("new test service: %v", err)
	}
	standardService, err := qualityapp.NewStandardService(standardRepo)
	if err != nil {
		t.Fatalf("new standard service: %v", err)
	}

	if _, err := alarmService.Create(ctx, alarms.NewThreshold{
		Module:    alarms.ModuleWater,
		Parameter: water.ParamPH,
		Scope:     water.SampleBoilerFeed,
		Min:       ptr(8.5),
		Max:       ptr(9.5),
		Severity:  alarms.SeverityHigh,
	}); err != nil {
		t.Fatalf("create threshold: %v", err)
	}
	if _, err := standardService.Create(ctx, quality.NewStandard{
		Product:   quality.ProductDiesel,
		Parameter: quality.ParamSulfurContent,
		Max:       ptr(10),
		Unit:      "ppm",
	}); err != nil {
		t.Fatalf("create standard: %v", err)
	}

	sampledAt := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	if _, err := waterService.Create(ctx, water.NewReading{
		SamplePoint: water.SampleBoilerFeed,
		SampledAt:   sampledAt,
		PH:          ptr(10.1),
	}); err != nil {
		t.Fatalf("create reading: %v", err)
	}
	if _, err := waterService.Create(ctx, water.NewReading{
		SamplePoint: water.SampleBoilerFeed,
		SampledAt:   sampledAt,
		PH:          ptr(9.5),
	}); err != nil {
		t.Fatalf("create in-range reading: %v", err)
	}
	created, err := testService.Create(ctx, quality.NewTest{
		Product:       quality.ProductDiesel,
		BatchNumber:   "IT-D-1",
		SampledAt:     sampledAt,
		SulfurContent: ptr(14),
	})
	if err != nil {
		t.Fatalf("create test: %v", err)
	}

	if got := notifier.count(); got != 2 {
		t.Fatalf("expected 2 notifications, got %d", got)
	}

	list, err := alarmService.ListAlerts(ctx, alarmapp.AlertFilter{From: sampledAt.Add(-time.Minute)})
	if err != nil {
		t.Fatalf("list alerts: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(list))
	}

	compliance, err := testService.CheckCompliance(ctx, created.ID)
	if err != nil {
		t.Fatalf("check compliance: %v", err)
	}
	if compliance.Compliant {
		t.Fatalf("expected non-compliant test")
	}
}
