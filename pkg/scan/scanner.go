// Package scan wires the pipeline: extraction, heuristics, prompt
// construction, tiered model invocation, reply parsing, verdict banding,
// and result storage. One Scan call runs the whole chain and always ends
// in exactly one of: a stored result, or a fatal error.
package scan

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pagewarden/pagewarden/pkg/config"
	"github.com/pagewarden/pagewarden/pkg/detect"
	"github.com/pagewarden/pagewarden/pkg/extract"
	"github.com/pagewarden/pagewarden/pkg/history"
	"github.com/pagewarden/pagewarden/pkg/metrics"
	"github.com/pagewarden/pagewarden/pkg/semantic"
	"github.com/pagewarden/pagewarden/pkg/session"
	"github.com/pagewarden/pagewarden/pkg/snapshot"
)

// Notifier observes scan lifecycle events so the host surface can push
// them to clients. All methods must be non-blocking.
type Notifier interface {
	// ModelTierChanged fires on every forward advance through the chain.
	ModelTierChanged(sessionID string, from, to detect.Tier)

	// ExtractionDegraded fires when a scan proceeds on a non-primary
	// extraction strategy.
	ExtractionDegraded(sessionID string, strategy extract.Strategy)

	// ScanCompleted fires once per successful scan, after the result is
	// stored.
	ScanCompleted(sessionID string, verdict *Verdict)
}

// NopNotifier discards all events.
type NopNotifier struct{}

func (NopNotifier) ModelTierChanged(string, detect.Tier, detect.Tier) {}
func (NopNotifier) ExtractionDegraded(string, extract.Strategy)       {}
func (NopNotifier) ScanCompleted(string, *Verdict)                    {}

// Verdict pairs a scan result with its band under the thresholds that were
// live at read time.
type Verdict struct {
	Result *snapshot.ScanResult `json:"result"`
	Band   detect.Band          `json:"band"`
}

// Params collects the Scanner's collaborators. Semantic, History, and
// Notifier are optional.
type Params struct {
	Config     *config.Config
	Extractor  *extract.Extractor
	Store      session.Store
	Thresholds *detect.ThresholdStore
	Semantic   *semantic.Detector
	History    *history.Log
	Notifier   Notifier
	Logger     *slog.Logger
}

// Scanner runs scans and serves their verdicts.
type Scanner struct {
	cfg        *config.Config
	extractor  *extract.Extractor
	store      session.Store
	thresholds *detect.ThresholdStore
	semantic   *semantic.Detector
	history    *history.Log
	notifier   Notifier
	logger     *slog.Logger
	chain      detect.Chain
}

// NewScanner assembles a scanner. The tier chain starts at the configured
// default tier; an unknown or empty tier selects the full chain.
func NewScanner(p Params) *Scanner {
	if p.Notifier == nil {
		p.Notifier = NopNotifier{}
	}
	if p.Logger == nil {
		p.Logger = slog.Default()
	}
	return &Scanner{
		cfg:        p.Config,
		extractor:  p.Extractor,
		store:      p.Store,
		thresholds: p.Thresholds,
		semantic:   p.Semantic,
		history:    p.History,
		notifier:   p.Notifier,
		logger:     p.Logger,
		chain:      detect.DefaultChain().StartingAt(p.Config.DefaultTier),
	}
}

// Scan runs the full pipeline for one request. The credential is checked
// before any page access or remote call; extraction failure and chain
// exhaustion are the only other fatal outcomes.
func (s *Scanner) Scan(ctx context.Context, req *snapshot.ScanRequest) (*Verdict, error) {
	start := time.Now()

	if err := s.cfg.ValidateCredential(); err != nil {
		metrics.ScanErrors.WithLabelValues("credential").Inc()
		return nil, err
	}

	snap, strategy, err := s.extractor.Extract(ctx, req)
	if err != nil {
		metrics.ScanErrors.WithLabelValues("extraction").Inc()
		return nil, fmt.Errorf("session %s: %w", req.SessionID, err)
	}
	metrics.ExtractionStrategy.WithLabelValues(string(strategy)).Inc()
	if strategy != extract.StrategyPrimary {
		s.logger.Info("scan proceeding on degraded extraction",
			"session_id", req.SessionID, "strategy", string(strategy))
		s.notifier.ExtractionDegraded(req.SessionID, strategy)
	}

	domainSuspicious := detect.DomainSuspicious(snap.URL.Hostname)

	templateNote := ""
	if s.semantic != nil {
		note, err := s.semantic.Detect(ctx, snap.BodyText)
		if err != nil {
			// Advisory layer only. The scan continues without it.
			s.logger.Warn("semantic analysis failed", "session_id", req.SessionID, "error", err)
		} else {
			templateNote = note
		}
	}

	prompt := detect.BuildPrompt(snap, domainSuspicious, templateNote)

	invoker := detect.NewInvoker(s.cfg.APIKey, s.cfg.BaseURL, s.chain)
	invoker.OnTierChange = func(from, to detect.Tier) {
		metrics.TierFallbacks.WithLabelValues(from.ID).Inc()
		s.logger.Warn("model tier fallback",
			"session_id", req.SessionID, "from", from.ID, "to", to.ID)
		s.notifier.ModelTierChanged(req.SessionID, from, to)
	}

	reply, err := invoker.Invoke(ctx, prompt)
	if err != nil {
		metrics.ScanErrors.WithLabelValues("tiers_exhausted").Inc()
		return nil, fmt.Errorf("session %s: %w", req.SessionID, err)
	}

	result := detect.ParseReply(reply, req.URL)
	if result.UsedFallbackClassifier {
		metrics.ParseFallbacks.Inc()
		s.logger.Warn("reply had no usable JSON, classified lexically",
			"session_id", req.SessionID, "tier", reply.Tier.ID)
	}

	if err := s.store.Put(ctx, req.SessionID, result); err != nil {
		metrics.ScanErrors.WithLabelValues("store").Inc()
		return nil, fmt.Errorf("store result for session %s: %w", req.SessionID, err)
	}

	band := detect.Classify(result.LegitimacyScore, s.thresholds.Load())
	metrics.ScansTotal.WithLabelValues(string(band)).Inc()
	metrics.ScanDuration.Observe(time.Since(start).Seconds())

	if err := s.history.Record(ctx, req.SessionID, string(band), result); err != nil {
		// History is an audit convenience, never a scan outcome.
		s.logger.Warn("history write failed", "session_id", req.SessionID, "error", err)
	}

	verdict := &Verdict{Result: result, Band: band}
	s.notifier.ScanCompleted(req.SessionID, verdict)
	s.logger.Info("scan complete",
		"session_id", req.SessionID,
		"score", result.LegitimacyScore,
		"band", string(band),
		"strategy", string(strategy),
		"fallback_classifier", result.UsedFallbackClassifier)
	return verdict, nil
}

// Verdict returns the stored result for a session, banded under the
// thresholds live right now. Threshold updates therefore reclassify cached
// results on their next read without a rescan.
func (s *Scanner) Verdict(ctx context.Context, sessionID string) (*Verdict, bool, error) {
	result, ok, err := s.store.Get(ctx, sessionID)
	if err != nil || !ok {
		return nil, ok, err
	}
	band := detect.Classify(result.LegitimacyScore, s.thresholds.Load())
	return &Verdict{Result: result, Band: band}, true, nil
}

// Navigated invalidates a session's result: its page changed, so the old
// verdict no longer describes what the user sees.
func (s *Scanner) Navigated(ctx context.Context, sessionID string) error {
	return s.store.Invalidate(ctx, sessionID)
}

// Thresholds exposes the live threshold store for the config surface.
func (s *Scanner) Thresholds() *detect.ThresholdStore {
	return s.thresholds
}

// History returns recent scan records for a session, or nil when the
// durable log is disabled.
func (s *Scanner) History(ctx context.Context, sessionID string, limit int) ([]history.Entry, error) {
	return s.history.Recent(ctx, sessionID, limit)
}
