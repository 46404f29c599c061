// Package configsvc implements the broadcaster save action and the viewer
// load path on top of the ingestion pipeline and the host platform.
package configsvc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"clocktower/internal/catalog"
	"clocktower/internal/host"
	"clocktower/internal/logger"
	"clocktower/internal/script"
	"clocktower/internal/store"
	"clocktower/internal/store/auditlog"
)

// CatalogSource supplies the current catalog snapshot. *catalog.Registry
// satisfies it.
type CatalogSource interface {
	Catalog() *catalog.Catalog
}

// Auditor records save attempts. *auditlog.Log satisfies it.
type Auditor interface {
	Record(ctx context.Context, e auditlog.Entry) (auditlog.Entry, error)
}

// SaveResult is what the configuration page shows after Save or Validate.
type SaveResult struct {
	OK      bool           `json:"ok"`
	Outcome Outcome        `json:"outcome"`
	Message string         `json:"message"`
	Version string         `json:"version,omitempty"`
	Count   int            `json:"count"`
	Unknown []string       `json:"unknown,omitempty"`
	Config  *script.Config `json:"config,omitempty"`
	DryRun  bool           `json:"dry_run,omitempty"`
}

// Loaded is a decoded stored configuration.
type Loaded struct {
	Config  script.Config `json:"config"`
	Version string        `json:"version"`
}

type Options struct {
	PollInterval time.Duration
	ReadyTimeout time.Duration
	Clock        *store.VersionClock
	Audit        Auditor
}

type Service struct {
	platform host.Platform
	catalogs CatalogSource
	clock    *store.VersionClock
	audit    Auditor
	interval time.Duration
	timeout  time.Duration
	nowFn    func() time.Time
}

func New(platform host.Platform, catalogs CatalogSource, opts Options) *Service {
	clock := opts.Clock
	if clock == nil {
		clock = store.NewVersionClock()
	}
	return &Service{
		platform: platform,
		catalogs: catalogs,
		clock:    clock,
		audit:    opts.Audit,
		interval: opts.PollInterval,
		timeout:  opts.ReadyTimeout,
		nowFn:    time.Now,
	}
}

// Catalog returns the snapshot the next save would validate against.
func (s *Service) Catalog() *catalog.Catalog {
	return s.catalogs.Catalog()
}

// Save validates text and, only when it is valid, writes the canonical config
// to the broadcaster scope under a fresh version. A failed save never touches
// the store.
func (s *Service) Save(ctx context.Context, text string) SaveResult {
	res, err := script.Ingest(text, s.catalogs.Catalog())
	if err != nil {
		return s.finish(ctx, failure(err), false)
	}
	if err := host.WaitReady(ctx, s.platform, s.interval, s.timeout); err != nil {
		logger.Warnf("configsvc: host not ready: %v", err)
		return s.finish(ctx, SaveResult{Outcome: OutcomeUnready, Message: msgUnready}, false)
	}
	content, err := res.Config.Encode()
	if err != nil {
		return s.finish(ctx, SaveResult{Outcome: OutcomeWriteFailed, Message: writeFailedMessage(err)}, false)
	}
	seg := store.Segment{
		Scope:     store.ScopeBroadcaster,
		Version:   s.clock.Next(),
		Content:   content,
		UpdatedAt: s.nowFn(),
	}
	if err := s.platform.Configuration().Set(ctx, seg); err != nil {
		logger.Errorf("configsvc: write version %s failed: %v", seg.Version, err)
		return s.finish(ctx, SaveResult{Outcome: OutcomeWriteFailed, Message: writeFailedMessage(err)}, false)
	}
	cfg := res.Config
	return s.finish(ctx, SaveResult{
		OK:      true,
		Outcome: OutcomeSuccess,
		Message: savedMessage(res.Count),
		Version: seg.Version,
		Count:   res.Count,
		Config:  &cfg,
	}, false)
}

// Validate runs the pipeline without touching the host.
func (s *Service) Validate(ctx context.Context, text string) SaveResult {
	res, err := script.Ingest(text, s.catalogs.Catalog())
	if err != nil {
		return s.finish(ctx, failure(err), true)
	}
	cfg := res.Config
	return s.finish(ctx, SaveResult{
		OK:      true,
		Outcome: OutcomeSuccess,
		Message: validMessage(res.Count),
		Count:   res.Count,
		Config:  &cfg,
	}, true)
}

// Load reads the broadcaster scope. Not ready, absent and undecodable content
// all mean "no configuration".
func (s *Service) Load(ctx context.Context) (Loaded, bool) {
	if err := host.WaitReady(ctx, s.platform, s.interval, s.timeout); err != nil {
		logger.Warnf("configsvc: load skipped, host not ready: %v", err)
		return Loaded{}, false
	}
	seg, ok, err := s.platform.Configuration().Get(ctx, store.ScopeBroadcaster)
	if err != nil {
		logger.Warnf("configsvc: read broadcaster scope failed: %v", err)
		return Loaded{}, false
	}
	if !ok {
		return Loaded{}, false
	}
	cfg, ok := script.DecodeStored(seg.Content, s.catalogs.Catalog())
	if !ok {
		logger.Warnf("configsvc: stored version %s is not a configuration", seg.Version)
		return Loaded{}, false
	}
	return Loaded{Config: cfg, Version: seg.Version}, true
}

func failure(err error) SaveResult {
	se, ok := script.AsError(err)
	if !ok {
		return SaveResult{Outcome: OutcomeMalformedInput, Message: msgMalformed}
	}
	outcome, msg := outcomeOf(se)
	return SaveResult{Outcome: outcome, Message: msg, Unknown: se.Unknown}
}

func (s *Service) finish(ctx context.Context, r SaveResult, dryRun bool) SaveResult {
	r.DryRun = dryRun
	if dryRun {
		recordValidation(r.Outcome)
	} else {
		recordSave(r.Outcome, r.Count)
		if r.OK {
			logger.Infof("configsvc: saved version %s with %d characters", r.Version, r.Count)
		} else {
			logger.Infof("configsvc: save rejected (%s): %s", r.Outcome, r.Message)
		}
	}
	if s.audit != nil {
		entry := auditlog.Entry{
			Outcome: string(r.Outcome),
			Message: r.Message,
			Version: r.Version,
			Count:   r.Count,
			Unknown: r.Unknown,
			DryRun:  dryRun,
		}
		if _, err := s.audit.Record(context.WithoutCancel(ctx), entry); err != nil {
			logger.Warnf("configsvc: audit record failed: %v", err)
		}
	}
	return r
}

// StatusCode maps an outcome to the HTTP status the API answers with.
func (r SaveResult) StatusCode() int {
	switch r.Outcome {
	case OutcomeSuccess:
		return http.StatusOK
	case OutcomeUnready, OutcomeWriteFailed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusUnprocessableEntity
	}
}

// Err turns a failed result back into an error for callers outside HTTP,
// such as the CLI.
func (r SaveResult) Err() error {
	if r.OK {
		return nil
	}
	switch r.Outcome {
	case OutcomeUnready:
		return fmt.Errorf("%s: %w", r.Message, host.ErrUnready)
	case OutcomeWriteFailed:
		return fmt.Errorf("%s: %w", r.Message, store.ErrUnavailable)
	}
	return errors.New(r.Message)
}
