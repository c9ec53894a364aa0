// Package core provides the business logic for slip CSV check runs.
// This package has no HTTP dependencies and can be driven by any frontend.
package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/moriyama-ds/slipcheck/internal/checker"
	"github.com/moriyama-ds/slipcheck/internal/config"
	"github.com/moriyama-ds/slipcheck/internal/history"
	"github.com/moriyama-ds/slipcheck/internal/logging"
	"github.com/moriyama-ds/slipcheck/internal/metrics"
)

var (
	// ErrEmptyFile is returned for zero-length uploads.
	ErrEmptyFile = errors.New("empty file")
	// ErrFileTooLarge is returned when an upload exceeds the configured limit.
	ErrFileTooLarge = errors.New("file exceeds the size limit")
	// ErrResultNotFound is returned when a run ID is unknown or evicted.
	ErrResultNotFound = errors.New("check result not found")
)

// CheckResult is the outcome of one check run, held in memory until the
// configured TTL expires. The source bytes are discarded as soon as the
// run finishes; everything a report needs lives here.
type CheckResult struct {
	ID       string `json:"id"`
	FileName string `json:"fileName"`
	SHA256   string `json:"sha256"`
	Clean    bool   `json:"clean"`
	checker.Report
	DurationMS int64     `json:"durationMs"`
	CheckedAt  time.Time `json:"checkedAt"`
}

// RunRecorder persists run summaries. *history.Store implements it.
type RunRecorder interface {
	RecordRun(ctx context.Context, run history.Run) error
}

// Service runs the checker over uploads and caches results.
//
// Results are cached twice: by run ID for report downloads, and by
// content digest so re-uploading the same file returns the finished
// result instead of re-scanning. Entries are evicted after the TTL.
type Service struct {
	cfg       *config.Config
	engine    *checker.Engine
	readerCfg checker.ReaderConfig
	metrics   *metrics.Metrics
	recorder  RunRecorder // nil when history is disabled

	mu      sync.Mutex
	results map[string]*CheckResult // run ID -> result
	bySig   map[string]string       // content digest -> run ID
}

// NewService builds a Service from configuration and an active rule
// profile. The encoding name is resolved once here so a misconfigured
// deployment fails at startup, not on the first upload.
func NewService(cfg *config.Config, profile config.Profile, m *metrics.Metrics, recorder RunRecorder) (*Service, error) {
	readerCfg := checker.ReaderConfig{
		Encoding: cfg.Check.Encoding,
		MaxLines: cfg.Check.MaxLines,
	}
	if _, err := checker.NewReader(nil, readerCfg); err != nil {
		return nil, fmt.Errorf("reader config: %w", err)
	}

	return &Service{
		cfg:       cfg,
		engine:    checker.NewEngine(cfg.Check.ColumnCount, rulesFromProfile(profile)),
		readerCfg: readerCfg,
		metrics:   m,
		recorder:  recorder,
		results:   make(map[string]*CheckResult),
		bySig:     make(map[string]string),
	}, nil
}

// rulesFromProfile assembles the active battery in evaluation order.
func rulesFromProfile(p config.Profile) []checker.Rule {
	var rules []checker.Rule
	if p.AmountConsistency.Enabled {
		rules = append(rules, checker.AmountConsistencyRule(checker.AmountRuleConfig{
			Code:          p.AmountConsistency.Code,
			Amounts:       p.AmountConsistency.Amounts,
			ReturnAmounts: p.AmountConsistency.ReturnAmounts,
			ReturnMarker:  p.AmountConsistency.ReturnMarker,
		}))
	}
	if p.DateFormat.Enabled {
		rules = append(rules, checker.DateFormatRule())
	}
	return rules
}

// Check validates one uploaded file held fully in memory. Identical
// bytes return the previously finished result.
func (s *Service) Check(ctx context.Context, fileName string, data []byte) (*CheckResult, error) {
	logger := logging.FromContext(ctx)

	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	if int64(len(data)) > s.cfg.Check.MaxFileSize {
		s.metrics.RecordRun("rejected", 0, nil, 0)
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrFileTooLarge, len(data), s.cfg.Check.MaxFileSize)
	}

	digest := sha256.Sum256(data)
	sig := hex.EncodeToString(digest[:])

	if cached := s.bySignature(sig); cached != nil {
		logger.Info("returning cached result", "file", fileName, "run_id", cached.ID)
		return cached, nil
	}

	start := time.Now()
	report, err := s.engine.Check(data, s.readerCfg)
	if err != nil {
		// The encoding name was validated at construction; this cannot
		// happen for uploads.
		return nil, fmt.Errorf("check %s: %w", fileName, err)
	}
	duration := time.Since(start)

	result := &CheckResult{
		ID:         uuid.NewString(),
		FileName:   fileName,
		SHA256:     sig,
		Clean:      len(report.Violations) == 0,
		Report:     report,
		DurationMS: duration.Milliseconds(),
		CheckedAt:  time.Now().UTC(),
	}
	s.store(result)

	status := "violations"
	if result.Clean {
		status = "clean"
	}
	s.metrics.RecordRun(status, report.Records, report.CountByRule(), duration)

	logger.Info("check run finished",
		"file", fileName,
		"run_id", result.ID,
		"records", report.Records,
		"violations", len(report.Violations),
		"duration_ms", result.DurationMS,
	)

	if s.recorder != nil {
		run := history.Run{
			ID:         result.ID,
			FileName:   fileName,
			SHA256:     sig,
			Records:    report.Records,
			Violations: len(report.Violations),
			DurationMS: result.DurationMS,
			CheckedAt:  result.CheckedAt,
		}
		if err := s.recorder.RecordRun(ctx, run); err != nil {
			// History is best-effort; the report itself already succeeded.
			logger.Warn("failed to record check run", "run_id", result.ID, "error", err)
		}
	}

	return result, nil
}

// Result returns a finished run by ID.
func (s *Service) Result(runID string) (*CheckResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result, ok := s.results[runID]
	if !ok {
		return nil, ErrResultNotFound
	}
	return result, nil
}

func (s *Service) bySignature(sig string) *CheckResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.bySig[sig]
	if !ok {
		return nil
	}
	return s.results[id]
}

func (s *Service) store(result *CheckResult) {
	s.mu.Lock()
	s.results[result.ID] = result
	s.bySig[result.SHA256] = result.ID
	s.mu.Unlock()

	time.AfterFunc(s.cfg.Check.ResultTTL, func() {
		s.evict(result.ID, result.SHA256)
	})
}

func (s *Service) evict(runID, sig string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.results, runID)
	if s.bySig[sig] == runID {
		delete(s.bySig, sig)
	}
}
