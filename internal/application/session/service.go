package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/bryanwahyu/cloudvision/internal/application"
	apphistory "github.com/bryanwahyu/cloudvision/internal/application/history"
	"github.com/bryanwahyu/cloudvision/internal/domain/analysis"
	domhistory "github.com/bryanwahyu/cloudvision/internal/domain/history"
	"github.com/bryanwahyu/cloudvision/internal/domain/identity"
	"github.com/bryanwahyu/cloudvision/internal/domain/storage"
	"github.com/bryanwahyu/cloudvision/internal/imagefile"
)

// TimestampFormat names persisted blobs: YYYYMMDD_HHMMSS, generated at
// the moment of persistence.
const TimestampFormat = "20060102_150405"

// State of the session workflow.
type State int

const (
	StateLoggedOut State = iota
	StateLoggedIn
	StateImageSelected
	StateAnalyzed
)

func (s State) String() string {
	switch s {
	case StateLoggedOut:
		return "logged-out"
	case StateLoggedIn:
		return "logged-in"
	case StateImageSelected:
		return "image-selected"
	case StateAnalyzed:
		return "analyzed"
	}
	return "unknown"
}

var (
	// ErrNotConfigured reports that a required remote client failed to
	// initialize. The operation cannot run but the session survives.
	ErrNotConfigured = errors.New("cloud services are not configured")

	// ErrAnalysisRunning guards the single in-flight analyze-and-persist.
	ErrAnalysisRunning = errors.New("analysis already running")

	ErrNotLoggedIn      = errors.New("not logged in")
	ErrNoImage          = errors.New("no image selected")
	ErrEmptyCredentials = errors.New("email and password are required")
)

// Service is the workflow controller: a state machine over
// logged-out -> logged-in -> image-selected -> analyzed, orchestrating
// the identity, vision, and blob-store clients. It reports user-facing
// progress through the Sink only.
type Service struct {
	Auth     identity.Authenticator
	Analyzer analysis.Analyzer
	Blobs    storage.BlobStore
	History  *apphistory.Store
	Clock    application.Clock
	Sink     Sink

	mu        sync.Mutex
	id        string
	state     State
	user      *identity.User
	imagePath string
	result    *analysis.Result
	inFlight  bool
}

// New wires a session service. Any of auth, analyzer, or blobs may be
// nil when the corresponding client failed to initialize; operations
// that need a missing client fail with ErrNotConfigured.
func New(auth identity.Authenticator, analyzer analysis.Analyzer, blobs storage.BlobStore, clock application.Clock, sink Sink) *Service {
	if clock == nil {
		clock = application.SystemClock{}
	}
	if sink == nil {
		sink = SinkFunc(func(string) {})
	}
	svc := &Service{
		Auth:     auth,
		Analyzer: analyzer,
		Blobs:    blobs,
		Clock:    clock,
		Sink:     sink,
		id:       uuid.New().String(),
	}
	if blobs != nil {
		svc.History = apphistory.NewStore(blobs)
	}
	return svc
}

// ID is the session identifier.
func (s *Service) ID() string { return s.id }

func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// User returns the current identity, or nil when logged out.
func (s *Service) User() *identity.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// SelectedImage returns the path of the currently selected image.
func (s *Service) SelectedImage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.imagePath
}

// LastResult returns the most recent persisted result, or nil.
func (s *Service) LastResult() *analysis.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// SignIn authenticates an existing account and moves the session to
// logged-in. On failure the session stays logged out and the classified
// error is returned.
func (s *Service) SignIn(ctx context.Context, email, password string) (*identity.User, error) {
	email = strings.TrimSpace(email)
	password = strings.TrimSpace(password)
	if email == "" || password == "" {
		return nil, ErrEmptyCredentials
	}
	if s.Auth == nil {
		return nil, fmt.Errorf("%w: identity service unavailable", ErrNotConfigured)
	}
	user, err := s.Auth.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	s.startSession(user)
	return user, nil
}

// SignUp registers a new account and signs it in directly. The weak
// password check runs locally so an obviously short password never costs
// a round trip.
func (s *Service) SignUp(ctx context.Context, email, password string) (*identity.User, error) {
	email = strings.TrimSpace(email)
	password = strings.TrimSpace(password)
	if email == "" || password == "" {
		return nil, ErrEmptyCredentials
	}
	if len(password) < 6 {
		return nil, identity.ErrWeakPassword
	}
	if s.Auth == nil {
		return nil, fmt.Errorf("%w: identity service unavailable", ErrNotConfigured)
	}
	user, err := s.Auth.SignUp(ctx, email, password)
	if err != nil {
		return nil, err
	}
	s.startSession(user)
	return user, nil
}

func (s *Service) startSession(user *identity.User) {
	s.mu.Lock()
	s.user = user
	s.state = StateLoggedIn
	s.imagePath = ""
	s.result = nil
	s.mu.Unlock()
	s.Sink.Append(fmt.Sprintf("Logged in as: %s (session %s)", user.Email, s.id))
}

// SelectImage validates that path is a readable, decodable image and
// makes it the session's current selection. Only the path is kept; the
// bytes are read again at persist time.
func (s *Service) SelectImage(path string) (imagefile.Info, error) {
	s.mu.Lock()
	loggedIn := s.user != nil
	s.mu.Unlock()
	if !loggedIn {
		return imagefile.Info{}, ErrNotLoggedIn
	}

	info, err := imagefile.Probe(path)
	if err != nil {
		return imagefile.Info{}, err
	}

	s.mu.Lock()
	s.imagePath = path
	s.result = nil
	s.state = StateImageSelected
	s.mu.Unlock()
	s.Sink.Append(fmt.Sprintf("Image selected: %s (%s %dx%d)", filepath.Base(path), info.Format, info.Width, info.Height))
	return info, nil
}

// AnalyzeAndPersist runs the full analyze-then-persist workflow
// synchronously: annotate the selected image, then upload the original
// bytes and the serialized result document. Analysis failure uploads
// nothing and leaves the session in image-selected; an upload failure is
// reported without rolling back whatever already uploaded.
func (s *Service) AnalyzeAndPersist(ctx context.Context) error {
	uid, path, err := s.begin()
	if err != nil {
		return err
	}
	err = s.run(ctx, uid, path)
	s.finish(err)
	return err
}

// AnalyzeAndPersistAsync runs the workflow on a background worker so the
// caller stays responsive. At most one run may be in flight; a second
// start is rejected with ErrAnalysisRunning. The worker cannot be
// cancelled and reports only through the Sink and the done callback.
func (s *Service) AnalyzeAndPersistAsync(done func(error)) error {
	uid, path, err := s.begin()
	if err != nil {
		return err
	}
	go func() {
		err := s.run(context.Background(), uid, path)
		s.finish(err)
		if done != nil {
			done(err)
		}
	}()
	return nil
}

// begin snapshots the identity and selection under the lock; the worker
// runs on the snapshot, so Logout clearing the session fields cannot
// trip it mid-run.
func (s *Service) begin() (uid, path string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return "", "", ErrAnalysisRunning
	}
	if s.user == nil {
		return "", "", ErrNotLoggedIn
	}
	if s.imagePath == "" {
		return "", "", ErrNoImage
	}
	if s.Analyzer == nil || s.Blobs == nil {
		return "", "", fmt.Errorf("%w: vision or storage client unavailable", ErrNotConfigured)
	}
	s.inFlight = true
	return s.user.UID, s.imagePath, nil
}

func (s *Service) finish(err error) {
	s.mu.Lock()
	s.inFlight = false
	s.mu.Unlock()
	if err != nil {
		s.Sink.Append("Error: " + err.Error())
	}
}

func (s *Service) run(ctx context.Context, uid, path string) error {
	filename := filepath.Base(path)
	s.Sink.Append("Analyzing: " + filename)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}

	ann, err := s.Analyzer.Annotate(ctx, data)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	ann.Truncate()
	s.report(ann)

	// Timestamp is generated here, not at selection time, so blob names
	// reflect the moment of persistence.
	ts := s.Clock.Now().Format(TimestampFormat)
	imageKey := fmt.Sprintf("%s/images/%s_%s", uid, ts, filename)
	res := &analysis.Result{
		Labels:           ann.Labels,
		Objects:          ann.Objects,
		Text:             ann.Text,
		Faces:            ann.Faces,
		Timestamp:        ts,
		OriginalFilename: filename,
		ImagePath:        imageKey,
	}

	s.Sink.Append("Saving to cloud storage...")
	if err := s.Blobs.Upload(ctx, imageKey, data, imagefile.ContentType(filename)); err != nil {
		return fmt.Errorf("upload image: %w", err)
	}
	s.Sink.Append("Image saved: " + imageKey)

	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	resultKey := fmt.Sprintf("%s/results/%s_%s.json", uid, ts, base)
	if err := s.Blobs.UploadJSON(ctx, resultKey, res); err != nil {
		// The image blob stays behind; uploads are independent remote
		// calls with no transactional guarantee.
		return fmt.Errorf("upload result: %w", err)
	}
	s.Sink.Append("Results saved: " + resultKey)

	s.mu.Lock()
	// A logout (or a different login) while the worker ran wins: the
	// blobs are persisted under the starting account either way, but the
	// cleared session stays cleared.
	if s.user != nil && s.user.UID == uid {
		s.result = res
		s.state = StateAnalyzed
	}
	s.mu.Unlock()
	s.Sink.Append("Analysis complete and saved to cloud.")
	return nil
}

func (s *Service) report(ann *analysis.Annotations) {
	if len(ann.Labels) > 0 {
		s.Sink.Append("Labels:")
		for i, l := range ann.Labels {
			if i == 5 {
				break
			}
			s.Sink.Append(fmt.Sprintf("  - %s: %.2f%%", l.Description, l.Score*100))
		}
	}
	if len(ann.Objects) > 0 {
		s.Sink.Append("Objects:")
		for i, o := range ann.Objects {
			if i == 3 {
				break
			}
			s.Sink.Append(fmt.Sprintf("  - %s: %.2f%%", o.Name, o.Score*100))
		}
	}
	if text := strings.TrimSpace(ann.Text); text != "" {
		s.Sink.Append("Text:")
		for i, line := range strings.Split(text, "\n") {
			if i == 3 {
				break
			}
			s.Sink.Append("  - " + line)
		}
	}
	if ann.Faces > 0 {
		s.Sink.Append(fmt.Sprintf("Faces: %d", ann.Faces))
	}
}

// LoadHistory lists the user's persisted records. It does not change the
// login or selection state.
func (s *Service) LoadHistory(ctx context.Context) ([]domhistory.Record, error) {
	s.mu.Lock()
	user := s.user
	s.mu.Unlock()
	if user == nil {
		return nil, ErrNotLoggedIn
	}
	if s.History == nil {
		return nil, fmt.Errorf("%w: storage client unavailable", ErrNotConfigured)
	}
	return s.History.Load(ctx, user.UID)
}

// DeleteHistory removes one record and, best effort, its image blob.
func (s *Service) DeleteHistory(ctx context.Context, rec domhistory.Record) error {
	s.mu.Lock()
	user := s.user
	s.mu.Unlock()
	if user == nil {
		return ErrNotLoggedIn
	}
	if s.History == nil {
		return fmt.Errorf("%w: storage client unavailable", ErrNotConfigured)
	}
	if !strings.HasPrefix(rec.Key, user.UID+"/") {
		return fmt.Errorf("record %s does not belong to the current user", rec.Key)
	}
	if err := s.History.Delete(ctx, rec); err != nil {
		return err
	}
	s.Sink.Append("Deleted: " + rec.Key)
	return nil
}

// Logout clears the identity and any in-memory selection or result and
// returns the session to logged-out. Persisted blobs are untouched, and
// a running analyze worker finishes on its own snapshot.
func (s *Service) Logout() {
	s.mu.Lock()
	s.user = nil
	s.imagePath = ""
	s.result = nil
	s.state = StateLoggedOut
	s.mu.Unlock()
	s.Sink.Append("Logged out.")
}
