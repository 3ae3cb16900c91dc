package digest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	alarms "refinery-ops/internal/alarms/domain"
	dashboard "refinery-ops/internal/dashboard/domain"
	quality "refinery-ops/internal/quality/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var now = time.Date(2026, 6, 30, 6, 0, 0, 0, time.UTC)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type stubSummarizer struct {
	from, to time.Time
	err      error
}

func (s *stubSummarizer) Summary(_ context.Context, from, to time.Time) (*dashboard.Summary, error) {
	s.from, s.to = from, to
	if s.err != nil {
		return nil, s.err
	}
	return &dashboard.Summary{
		From:    from,
		To:      to,
		Water:   dashboard.WaterSummary{Readings: 12, OutOfRange: 2, CompliancePct: 83.33},
		Quality: dashboard.QualitySummary{Tests: 5, PassRate: 75, ByResult: map[quality.Result]int{quality.ResultFail: 1, quality.ResultPending: 1}},
		Events:  dashboard.EventSummary{Total: 3, Open: 1, DowntimeHours: 12.5},
		Alerts: dashboard.AlertSummary{Total: 3, BySeverity: map[alarms.Severity]int{
			alarms.SeverityCritical: 1, alarms.SeverityHigh: 2,
		}},
	}, nil
}

type recordingChannel struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (c *recordingChannel) Name() string { return "recording" }

func (c *recordingChannel) Send(_ context.Context, content string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.messages = append(c.messages, content)
	return nil
}

func TestJobRun(t *testing.T) {
	summarizer := &stubSummarizer{}
	channel := &recordingChannel{}
	job, err := NewJob(summarizer, channel, WithClock(fixedClock{now: now}), WithLookback(12*time.Hour))
	require.NoError(t, err)

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, now.Add(-12*time.Hour), summarizer.from)
	assert.Equal(t, now, summarizer.to)

	require.Len(t, channel.messages, 1)
	msg := channel.messages[0]
	for _, want := range []string{
		"Window: 2026-06-29 18:00 .. 2026-06-30 06:00 UTC",
		"Water: 12 readings, 2 out of range, 83.33% compliant",
		"Quality: 5 tests, pass rate 75%, 1 failed, 1 pending",
		"Events: 3 recorded, 1 open, 12.5 h downtime",
		"Alerts: 3 (critical 1, high 2, medium 0, low 0)",
	} {
		assert.Contains(t, msg, want)
	}
}

func TestJobRunErrors(t *testing.T) {
	boom := errors.New("boom")

	job, err := NewJob(&stubSummarizer{err: boom}, &recordingChannel{})
	require.NoError(t, err)
	assert.ErrorIs(t, job.Run(context.Background()), boom)

	job, err = NewJob(&stubSummarizer{}, &recordingChannel{err: boom})
	require.NoError(t, err)
	err = job.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.True(t, strings.Contains(err.Error(), "recording"))

	_, err = NewJob(nil, &recordingChannel{})
	assert.Error(t, err)
	_, err = NewJob(&stubSummarizer{}, nil)
	assert.Error(t, err)
}

type signalRunner struct {
	ran chan struct{}
}

func (r *signalRunner) Run(context.Context) error {
	select {
	case r.ran <- struct{}{}:
	default:
	}
	return nil
}

func TestSchedulerRunsAndStops(t *testing.T) {
	runner := &signalRunner{ran: make(chan struct{}, 1)}
	scheduler, err := NewScheduler(runner, "@every 1s", time.Second, nil)
	require.NoError(t, err)

	scheduler.Start()
	assert.False(t, scheduler.Next().IsZero())

	select {
	case <-runner.ran:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduled job did not run")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, scheduler.Stop(ctx))
}

func TestSchedulerInvalidSpec(t *testing.T) {
	_, err := NewScheduler(&signalRunner{}, "every day", time.Second, nil)
	assert.Error(t, err)

	_, err = NewScheduler(nil, "@daily", time.Second, nil)
	assert.Error(t, err)
}
