package notify

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	alarms "refinery-ops/internal/alarms/domain"
	"refinery-ops/internal/observability/metrics"
)

// Clock provides time for dedupe bookkeeping.
type Clock interface {
	Now() time.Time
}

// LinkResolver provides a link to the record behind an alert when available.
type LinkResolver func(alert alarms.Alert) string

type sendRecord struct {
	at   time.Time
	hash string
}

// Notifier renders alerts and sends them through a channel, suppressing repeats.
type Notifier struct {
	channel      Channel
	template     *Template
	clock        Clock
	logger       *zap.Logger
	mu           sync.Mutex
	sent         map[string]sendRecord
	cooldown     time.Duration
	dedupeWindow time.Duration
	minSeverity  alarms.Severity
	link         LinkResolver
}

// Option configures the notifier.
type Option func(*Notifier)

// WithClock overrides the default clock.
func WithClock(clock Clock) Option {
	return func(n *Notifier) {
		if clock != nil {
			n.clock = clock
		}
	}
}

// WithCooldown sets a minimum interval between notifications for the same alert key.
func WithCooldown(interval time.Duration) Option {
	return func(n *Notifier) {
		if interval > 0 {
			n.cooldown = interval
		}
	}
}

// WithDedupeWindow suppresses identical notifications within the window.
func WithDedupeWindow(window time.Duration) Option {
	return func(n *Notifier) {
		if window > 0 {
			n.dedupeWindow = window
		}
	}
}

// WithMinSeverity drops alerts ranked below severity.
func WithMinSeverity(severity alarms.Severity) Option {
	return func(n *Notifier) {
		n.minSeverity = severity
	}
}

// WithLinkResolver injects a record link resolver.
func WithLinkResolver(resolver LinkResolver) Option {
	return func(n *Notifier) {
		if resolver != nil {
			n.link = resolver
		}
	}
}

// WithLogger assigns a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(n *Notifier) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// NewNotifier constructs an alert notifier.
func NewNotifier(channel Channel, template *Template, opts ...Option) (*Notifier, error) {
	if channel == nil {
		return nil, errors.New("alert notifier: nil channel")
	}
	if template == nil {
		defaultTemplate, err := NewTemplate("")
		if err != nil {
			return nil, err
		}
		template = defaultTemplate
	}
	n := &Notifier{
		channel:  channel,
		template: template,
		clock:    systemClock{},
		logger:   zap.NewNop(),
		sent:     make(map[string]sendRecord),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// Notify renders and sends one alert. Failures are logged, never returned.
// Repeats of the same breach are suppressed by cooldown and dedupe window;
// the key is claimed before sending and released again when the send fails.
func (n *Notifier) Notify(ctx context.Context, alert alarms.Alert) {
	if n == nil || n.channel == nil {
		return
	}
	if n.minSeverity != "" && !alert.Severity.AtLeast(n.minSeverity) {
		return
	}
	link := ""
	if n.link != nil {
		link = n.link(alert)
	}
	content, err := n.template.Render(BuildTemplateData(alert, link))
	if err != nil {
		n.logger.Warn("render alert notification failed", zap.String("key", alert.Key), zap.Error(err))
		return
	}
	key := alert.BreachKey()
	prev, hadPrev, ok := n.reserve(key, fingerprint(alert))
	if !ok {
		return
	}
	if err := n.channel.Send(ctx, content); err != nil {
		metrics.IncNotification(n.channel.Name(), metrics.ResultError)
		n.release(key, prev, hadPrev)
		n.logger.Warn("send alert notification failed",
			zap.String("key", alert.Key),
			zap.String("channel", n.channel.Name()),
			zap.Error(err),
		)
		return
	}
	metrics.IncNotification(n.channel.Name(), metrics.ResultSuccess)
}

// BuildTemplateData flattens an alert into printable template fields.
func BuildTemplateData(alert alarms.Alert, link string) TemplateData {
	return TemplateData{
		Module:        string(alert.Module),
		ModuleLabel:   moduleLabel(alert.Module),
		Subject:       alert.Subject,
		RecordID:      alert.RecordID,
		Parameter:     alert.Parameter,
		Value:         formatFloat(alert.Value),
		Direction:     directionLabel(alert.Direction),
		Limit:         FormatLimit(alert.Min, alert.Max),
		ObservedAt:    alert.ObservedAt.UTC().Format(time.RFC3339),
		Source:        string(alert.Source),
		Severity:      string(alert.Severity),
		SeverityLabel: strings.ToUpper(string(alert.Severity)),
		Suggestion:    suggestionFor(alert.Severity),
		Link:          link,
	}
}

// FormatLimit renders optional bounds as "min .. max".
func FormatLimit(min, max *float64) string {
	switch {
	case min != nil && max != nil:
		return formatFloat(*min) + " .. " + formatFloat(*max)
	case min != nil:
		return ">= " + formatFloat(*min)
	case max != nil:
		return "<= " + formatFloat(*max)
	default:
		return "-"
	}
}

func moduleLabel(module alarms.Module) string {
	switch module {
	case alarms.ModuleWater:
		return "Water treatment"
	case alarms.ModuleQuality:
		return "Product quality"
	default:
		return string(module)
	}
}

func directionLabel(direction alarms.Direction) string {
	switch direction {
	case alarms.DirectionLow:
		return "below limit"
	case alarms.DirectionHigh:
		return "above limit"
	default:
		return string(direction)
	}
}

func suggestionFor(severity alarms.Severity) string {
	switch {
	case severity.AtLeast(alarms.SeverityHigh):
		return "Investigate immediately and resample."
	case severity == alarms.SeverityMedium:
		return "Verify the measurement and adjust treatment if needed."
	default:
		return "Monitor the trend."
	}
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// reserve claims key for a send when neither the cooldown nor the dedupe window
// suppresses it. The previous record is returned so a failed send can be undone.
func (n *Notifier) reserve(key, hash string) (sendRecord, bool, bool) {
	if n.cooldown <= 0 && n.dedupeWindow <= 0 {
		return sendRecord{}, false, true
	}
	now := n.clock.Now().UTC()

	n.mu.Lock()
	defer n.mu.Unlock()
	prev, hadPrev := n.sent[key]
	if hadPrev {
		if n.cooldown > 0 && now.Sub(prev.at) < n.cooldown {
			return prev, hadPrev, false
		}
		if n.dedupeWindow > 0 && prev.hash == hash && now.Sub(prev.at) < n.dedupeWindow {
			return prev, hadPrev, false
		}
	}
	n.sent[key] = sendRecord{at: now, hash: hash}
	n.prune(now)
	return prev, hadPrev, true
}

func (n *Notifier) release(key string, prev sendRecord, hadPrev bool) {
	if n.cooldown <= 0 && n.dedupeWindow <= 0 {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if hadPrev {
		n.sent[key] = prev
		return
	}
	delete(n.sent, key)
}

// prune drops records older than both windows. Callers hold n.mu.
func (n *Notifier) prune(now time.Time) {
	keep := n.cooldown
	if n.dedupeWindow > keep {
		keep = n.dedupeWindow
	}
	if keep <= 0 {
		clear(n.sent)
		return
	}
	for key, record := range n.sent {
		if now.Sub(record.at) >= keep {
			delete(n.sent, key)
		}
	}
}

// fingerprint hashes the parts of an alert that describe the breach itself.
// The observed value, time and record are left out.
func fingerprint(alert alarms.Alert) string {
	parts := []string{
		alert.BreachKey(),
		string(alert.Severity),
		FormatLimit(alert.Min, alert.Max),
	}
	sum := sha1.Sum([]byte(strings.Join(parts, "\n")))
	return hex.EncodeToString(sum[:8])
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

