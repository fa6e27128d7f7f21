package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"pneumoscan/internal/dto"
	"pneumoscan/internal/logger"
	"pneumoscan/internal/models"
	"pneumoscan/internal/repository"
	"pneumoscan/internal/service/screen"

	"github.com/google/uuid"
)

// Publisher receives status events for a session.
type Publisher interface {
	Publish(sessionID string, event dto.StatusEvent)
}

// Service loads, transitions and stores sessions. The network call of an
// analysis runs outside the lock; a per-session in-flight set rejects
// duplicate submissions meanwhile.
type Service struct {
	repo      repository.SessionRepository
	publisher Publisher
	logger    *logger.Logger
	ttl       time.Duration

	mu       sync.Mutex
	inFlight map[string]bool
	// epochs identify the upload an analysis was started for. Starting over,
	// selecting a new file or expiring the session moves the epoch on, and a
	// result that comes back for an older epoch is dropped.
	epochs    map[string]uint64
	nextEpoch uint64
}

// NewService creates a session service. publisher may be nil.
func NewService(repo repository.SessionRepository, publisher Publisher, ttl time.Duration, logger *logger.Logger) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		ttl:       ttl,
		inFlight:  make(map[string]bool),
		epochs:    make(map[string]uint64),
	}
}

// NewID returns a fresh random session identifier.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id looks like an identifier NewID produced.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Get returns the session for id, creating a landing session when none exists.
func (s *Service) Get(id string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(id)
}

// IsBusy reports whether an analysis is running for the session.
func (s *Service) IsBusy(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight[id]
}

// Start moves the session to the upload screen.
func (s *Service) Start(id string) (*models.Session, error) {
	return s.update(id, func(sess *models.Session) error {
		screen.Start(sess)
		return nil
	})
}

// Back goes from results to upload, or from upload to landing.
func (s *Service) Back(id string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if sess.Screen == models.ScreenUpload {
		return s.startOver(id)
	}

	screen.Back(sess)
	if err := s.repo.Save(sess); err != nil {
		return nil, err
	}
	s.publish(id, dto.StatusEvent{Status: dto.StatusIdle, Screen: string(sess.Screen)})
	return sess, nil
}

// StartOver returns to landing, deleting the stored session with its result
// and uploaded image. A running analysis for it is discarded when it returns.
func (s *Service) StartOver(id string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startOver(id)
}

// startOver must be called with s.mu held.
func (s *Service) startOver(id string) (*models.Session, error) {
	if err := s.repo.Delete(id); err != nil {
		return nil, fmt.Errorf("failed to delete session: %w", err)
	}
	s.advanceEpoch(id)

	sess := models.NewSession(id)
	s.publish(id, dto.StatusEvent{Status: dto.StatusIdle, Screen: string(sess.Screen)})
	return sess, nil
}

// SelectFile validates and stores the user's image. Validation failures are
// saved as the inline error and returned.
func (s *Service) SelectFile(id string, upload *models.Upload) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if s.inFlight[id] {
		return sess, screen.ErrBusy
	}
	if sess.Screen != models.ScreenUpload {
		screen.Start(sess)
	}

	selectErr := screen.SelectFile(sess, upload)
	if err := s.repo.Save(sess); err != nil {
		return nil, err
	}
	if selectErr != nil {
		s.logger.Info("Rejected upload %q (%s) for session %s", fileName(upload), contentType(upload), id)
		return sess, selectErr
	}

	s.advanceEpoch(id)
	s.logger.Info("Session %s selected %s (%d bytes)", id, upload.FileName, len(upload.Data))
	return sess, nil
}

// Analyze sends the selected image to analyzer. On success the session moves
// to results with the returned result; on failure it stays on upload with the
// error message. A second call while one is running returns screen.ErrBusy.
func (s *Service) Analyze(ctx context.Context, id string, analyzer screen.Analyzer) (*models.Session, error) {
	upload, epoch, err := s.beginAnalysis(id)
	if err != nil {
		return s.afterRejected(id, err)
	}
	s.publish(id, dto.StatusEvent{Status: dto.StatusAnalyzing, Screen: string(models.ScreenUpload)})

	started := time.Now()
	result, analyzeErr := analyzer.Predict(ctx, upload)

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, id)

	sess, err := s.load(id)
	if err != nil {
		return nil, err
	}

	if s.epochs[id] != epoch {
		s.logger.Info("Discarding analysis for session %s: restarted after %s", id, time.Since(started).Round(time.Millisecond))
		s.publish(id, dto.StatusEvent{Status: dto.StatusIdle, Screen: string(sess.Screen)})
		return sess, fmt.Errorf("%w: session restarted during analysis", screen.ErrInvalidTransition)
	}

	if analyzeErr != nil {
		s.logger.Warning("Analysis failed for session %s after %s: %v", id, time.Since(started).Round(time.Millisecond), analyzeErr)
		if sess.Screen == models.ScreenUpload {
			screen.AnalyzeFailed(sess, analyzeErr)
			if err := s.repo.Save(sess); err != nil {
				return nil, err
			}
		}
		s.publish(id, dto.StatusEvent{Status: dto.StatusError, Screen: string(sess.Screen), Message: screen.ErrorMessage(analyzeErr)})
		return sess, analyzeErr
	}

	if err := screen.AnalyzeSucceeded(sess, result); err != nil {
		// The user started over while the request was running.
		s.logger.Info("Discarding result for session %s: %v", id, err)
		s.publish(id, dto.StatusEvent{Status: dto.StatusIdle, Screen: string(sess.Screen)})
		return sess, err
	}
	if err := s.repo.Save(sess); err != nil {
		return nil, err
	}

	s.logger.Info("Session %s analyzed in %s: %s", id, time.Since(started).Round(time.Millisecond), result.Prediction)
	s.publish(id, dto.StatusEvent{Status: dto.StatusResults, Screen: string(models.ScreenResults)})
	return sess, nil
}

// Sweep deletes sessions idle for longer than the TTL.
func (s *Service) Sweep(now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed, err := s.repo.DeleteExpired(now.Add(-s.ttl))
	if err != nil {
		return 0, fmt.Errorf("failed to sweep sessions: %w", err)
	}
	for _, id := range removed {
		delete(s.inFlight, id)
		delete(s.epochs, id)
	}
	return len(removed), nil
}

// Run sweeps expired sessions every interval until ctx is done.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 || s.ttl <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			removed, err := s.Sweep(now)
			if err != nil {
				s.logger.Error("%v", err)
				continue
			}
			if removed > 0 {
				s.logger.Info("Expired %d idle session(s)", removed)
			}
		}
	}
}

func (s *Service) beginAnalysis(id string) (*models.Upload, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inFlight[id] {
		return nil, 0, screen.ErrBusy
	}
	sess, err := s.load(id)
	if err != nil {
		return nil, 0, err
	}
	if err := screen.CanAnalyze(sess); err != nil {
		return nil, 0, err
	}

	s.inFlight[id] = true
	sess.Error = ""
	if err := s.repo.Save(sess); err != nil {
		delete(s.inFlight, id)
		return nil, 0, err
	}

	// Epoch 0 means "no epoch recorded" so that a swept session never
	// matches.
	if s.epochs[id] == 0 {
		s.advanceEpoch(id)
	}
	return sess.Upload, s.epochs[id], nil
}

// advanceEpoch must be called with s.mu held.
func (s *Service) advanceEpoch(id string) {
	s.nextEpoch++
	s.epochs[id] = s.nextEpoch
}

// afterRejected records the inline message for an analysis that never
// started. Busy rejections leave the running analysis' state alone.
func (s *Service) afterRejected(id string, cause error) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if errors.Is(cause, screen.ErrNoFile) && sess.Screen == models.ScreenUpload {
		screen.AnalyzeFailed(sess, cause)
		if err := s.repo.Save(sess); err != nil {
			return nil, err
		}
	}
	return sess, cause
}

func (s *Service) update(id string, apply func(*models.Session) error) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if err := apply(sess); err != nil {
		return sess, err
	}
	if err := s.repo.Save(sess); err != nil {
		return nil, err
	}
	s.publish(id, dto.StatusEvent{Status: dto.StatusIdle, Screen: string(sess.Screen)})
	return sess, nil
}

// load must be called with s.mu held.
func (s *Service) load(id string) (*models.Session, error) {
	sess, err := s.repo.Get(id)
	if errors.Is(err, repository.ErrNotFound) {
		return models.NewSession(id), nil
	}
	if err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *Service) publish(id string, event dto.StatusEvent) {
	if s.publisher != nil {
		s.publisher.Publish(id, event)
	}
}

func fileName(u *models.Upload) string {
	if u == nil {
		return ""
	}
	return u.FileName
}

func contentType(u *models.Upload) string {
	if u == nil {
		return ""
	}
	return u.ContentType
}
