// Package digest sends the scheduled dashboard summary to the alert channels.
package digest

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	alarms "refinery-ops/internal/alarms/domain"
	"refinery-ops/internal/alarms/notify"
	dashboard "refinery-ops/internal/dashboard/domain"
	"refinery-ops/internal/observability/metrics"
	quality "refinery-ops/internal/quality/domain"
)

// Summarizer builds a dashboard summary for a window.
type Summarizer interface {
	Summary(ctx context.Context, from, to time.Time) (*dashboard.Summary, error)
}

// Clock provides time.
type Clock interface {
	Now() time.Time
}

// Job renders one digest and sends it.
type Job struct {
	summarizer Summarizer
	channel    notify.Channel
	lookback   time.Duration
	clock      Clock
	logger     *zap.Logger
}

// Option customizes a job.
type Option func(*Job)

// WithLookback sets how far back each digest reaches.
func WithLookback(lookback time.Duration) Option {
	return func(j *Job) {
		if lookback > 0 {
			j.lookback = lookback
		}
	}
}

// WithClock assigns a clock.
func WithClock(clock Clock) Option {
	return func(j *Job) {
		if clock != nil {
			j.clock = clock
		}
	}
}

// WithLogger assigns a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(j *Job) {
		if logger != nil {
			j.logger = logger
		}
	}
}

// NewJob constructs a digest job.
func NewJob(summarizer Summarizer, channel notify.Channel, opts ...Option) (*Job, error) {
	if summarizer == nil {
		return nil, errors.New("digest: nil summarizer")
	}
	if channel == nil {
		return nil, errors.New("digest: nil channel")
	}
	job := &Job{
		summarizer: summarizer,
		channel:    channel,
		lookback:   24 * time.Hour,
		clock:      systemClock{},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(job)
	}
	return job, nil
}

// Run summarizes the lookback window ending now and sends the digest.
func (j *Job) Run(ctx context.Context) error {
	to := j.clock.Now().UTC()
	from := to.Add(-j.lookback)
	summary, err := j.summarizer.Summary(ctx, from, to)
	if err != nil {
		metrics.IncDigest(metrics.ResultError)
		return fmt.Errorf("digest summary: %w", err)
	}
	if err := j.channel.Send(ctx, Render(summary)); err != nil {
		metrics.IncDigest(metrics.ResultError)
		return fmt.Errorf("digest send via %s: %w", j.channel.Name(), err)
	}
	metrics.IncDigest(metrics.ResultSuccess)
	j.logger.Info("digest sent",
		zap.String("channel", j.channel.Name()),
		zap.Time("from", from),
		zap.Time("to", to),
		zap.Int("alerts", summary.Alerts.Total),
	)
	return nil
}

// Render formats a summary as a plain-text message.
func Render(s *dashboard.Summary) string {
	const layout = "2006-01-02 15:04"
	var b strings.Builder
	fmt.Fprintf(&b, "Refinery operations digest\n")
	fmt.Fprintf(&b, "Window: %s .. %s UTC\n", s.From.UTC().Format(layout), s.To.UTC().Format(layout))
	fmt.Fprintf(&b, "Water: %d readings, %d out of range, %s%% compliant\n",
		s.Water.Readings, s.Water.OutOfRange, num(s.Water.CompliancePct))
	fmt.Fprintf(&b, "Quality: %d tests, pass rate %s%%, %d failed, %d pending\n",
		s.Quality.Tests, num(s.Quality.PassRate), s.Quality.ByResult[quality.ResultFail], s.Quality.ByResult[quality.ResultPending])
	fmt.Fprintf(&b, "Equipment: %d registered, %s%% available, %d inspections overdue\n",
		s.Equipment.Total, num(s.Equipment.AvailabilityPct), s.Equipment.OverdueInspections)
	fmt.Fprintf(&b, "Events: %d recorded, %d open, %s h downtime\n",
		s.Events.Total, s.Events.Open, num(s.Events.DowntimeHours))

	parts := make([]string, 0, len(alarms.Severities))
	for i := len(alarms.Severities) - 1; i >= 0; i-- {
		severity := alarms.Severities[i]
		parts = append(parts, fmt.Sprintf("%s %d", severity, s.Alerts.BySeverity[severity]))
	}
	fmt.Fprintf(&b, "Alerts: %d (%s)", s.Alerts.Total, strings.Join(parts, ", "))
	return b.String()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }
