package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/komunitas-inovasi/komunitas/internal/core"
	domainauth "github.com/komunitas-inovasi/komunitas/internal/domain/auth"
	"github.com/komunitas-inovasi/komunitas/internal/domain/model"
	"github.com/komunitas-inovasi/komunitas/internal/viewer"
)

// RegistrantServiceOptions groups dependencies for RegistrantService.
type RegistrantServiceOptions struct {
	Source  core.RegistrantSource
	Gateway core.RegistrationGateway
	// Labels returns export labels for a session locale. Defaults to viewer.DefaultLabels.
	Labels                func(locale string) viewer.Labels
	AttachmentConcurrency int
	Clock                 func() time.Time
	Logger                *slog.Logger
}

type viewerEntry struct {
	viewer    *viewer.Viewer
	expiresAt time.Time
}

// RegistrantService owns one registrant viewer per admin session and forwards public registrations.
type RegistrantService struct {
	source      core.RegistrantSource
	gateway     core.RegistrationGateway
	labels      func(locale string) viewer.Labels
	concurrency int
	clock       func() time.Time
	baseLogger  *slog.Logger
	logger      *slog.Logger

	mu      sync.Mutex
	viewers map[string]*viewerEntry
}

// NewRegistrantService constructs a RegistrantService.
func NewRegistrantService(opts RegistrantServiceOptions) (*RegistrantService, error) {
	if opts.Source == nil {
		return nil, errors.New("RegistrantSource is required")
	}
	if opts.Gateway == nil {
		return nil, errors.New("RegistrationGateway is required")
	}
	labels := opts.Labels
	if labels == nil {
		labels = func(string) viewer.Labels { return viewer.DefaultLabels() }
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &RegistrantService{
		source:      opts.Source,
		gateway:     opts.Gateway,
		labels:      labels,
		concurrency: opts.AttachmentConcurrency,
		clock:       clock,
		baseLogger:  logger,
		logger:      logger.With("component", "registrant_service"),
		viewers:     make(map[string]*viewerEntry),
	}, nil
}

// MustNewRegistrantService constructs a RegistrantService and panics on error.
func MustNewRegistrantService(opts RegistrantServiceOptions) *RegistrantService {
	s, err := NewRegistrantService(opts)
	if err != nil {
		panic(err)
	}
	return s
}

// viewerFor returns the session's viewer, creating it on page 1 on first use.
// Viewers of sessions that expired in the meantime are dropped.
func (s *RegistrantService) viewerFor(sess *domainauth.Session) (*viewer.Viewer, error) {
	if sess == nil || sess.ID == "" {
		return nil, errors.New("session is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	for id, e := range s.viewers {
		if !now.Before(e.expiresAt) {
			delete(s.viewers, id)
		}
	}

	if e, ok := s.viewers[sess.ID]; ok {
		e.expiresAt = sess.ExpiresAt
		return e.viewer, nil
	}

	v, err := viewer.New(s.source, viewer.Options{
		Labels:                s.labels(sess.Locale),
		AttachmentConcurrency: s.concurrency,
		Logger:                s.baseLogger.With("session_id", sess.ID),
		Clock:                 s.clock,
	})
	if err != nil {
		return nil, fmt.Errorf("create viewer: %w", err)
	}
	s.viewers[sess.ID] = &viewerEntry{viewer: v, expiresAt: sess.ExpiresAt}
	return v, nil
}

// mounted returns the session's viewer, fetching the collection when nothing has been loaded yet.
func (s *RegistrantService) mounted(ctx context.Context, sess *domainauth.Session) (*viewer.Viewer, error) {
	v, err := s.viewerFor(sess)
	if err != nil {
		return nil, err
	}
	if !v.Loaded() {
		if loadErr := v.LoadRecords(ctx, sess.Token); loadErr != nil {
			return v, loadErr
		}
	}
	return v, nil
}

// Page returns the current page, moving to *page first when page is non-nil.
// The returned snapshot reflects the viewer state even when an error is returned.
func (s *RegistrantService) Page(ctx context.Context, sess *domainauth.Session, page *int) (viewer.Page, error) {
	v, err := s.mounted(ctx, sess)
	if v == nil {
		return viewer.Page{}, err
	}
	if err != nil {
		return v.Snapshot(), err
	}
	if page != nil {
		if navErr := v.GoToPage(*page); navErr != nil {
			return v.Snapshot(), navErr
		}
	}
	return v.Snapshot(), nil
}

// First moves to page 1.
func (s *RegistrantService) First(ctx context.Context, sess *domainauth.Session) (viewer.Page, error) {
	return s.navigate(ctx, sess, (*viewer.Viewer).GoToFirst)
}

// Last moves to the last page.
func (s *RegistrantService) Last(ctx context.Context, sess *domainauth.Session) (viewer.Page, error) {
	return s.navigate(ctx, sess, (*viewer.Viewer).GoToLast)
}

func (s *RegistrantService) navigate(
	ctx context.Context,
	sess *domainauth.Session,
	move func(*viewer.Viewer) error,
) (viewer.Page, error) {
	v, err := s.mounted(ctx, sess)
	if v == nil {
		return viewer.Page{}, err
	}
	if err != nil {
		return v.Snapshot(), err
	}
	if navErr := move(v); navErr != nil {
		return v.Snapshot(), navErr
	}
	return v.Snapshot(), nil
}

// Reload refetches the collection. On failure the previous collection stays in place.
func (s *RegistrantService) Reload(ctx context.Context, sess *domainauth.Session) (viewer.Page, error) {
	v, err := s.viewerFor(sess)
	if err != nil {
		return viewer.Page{}, err
	}
	loadErr := v.LoadRecords(ctx, sess.Token)
	return v.Snapshot(), loadErr
}

// ExportSpreadsheet exports the session's whole collection as xlsx.
func (s *RegistrantService) ExportSpreadsheet(ctx context.Context, sess *domainauth.Session) (*viewer.Export, error) {
	v, err := s.viewerFor(sess)
	if err != nil {
		return nil, err
	}
	return v.ExportSpreadsheet(ctx)
}

// ExportArchive bundles the attachments of the session's collection into a zip archive.
func (s *RegistrantService) ExportArchive(ctx context.Context, sess *domainauth.Session) (*viewer.Export, error) {
	v, err := s.viewerFor(sess)
	if err != nil {
		return nil, err
	}
	return v.ExportAttachmentsArchive(ctx, sess.Token)
}

// Forget discards the viewer of a session, e.g. on logout.
func (s *RegistrantService) Forget(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.viewers, sessionID)
}

// ActiveViewers returns the number of live viewers.
func (s *RegistrantService) ActiveViewers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.viewers)
}

// Register validates a public registration and forwards it to the backend.
func (s *RegistrantService) Register(ctx context.Context, req model.RegistrationRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if err := s.gateway.AddRegistrant(ctx, req); err != nil {
		s.logger.WarnContext(ctx, "registration forward failed", "error", err)
		return fmt.Errorf("add registrant: %w", err)
	}
	s.logger.InfoContext(ctx, "registration submitted")
	return nil
}
