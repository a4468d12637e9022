package app

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"quiz-option-service/internal/domain"
)

// StateRepository abstracts how render sessions are stored (in-memory, Redis, etc).
type StateRepository interface {
	Put(ctx context.Context, session *Session) error
	Get(ctx context.Context, stateID string) (*Session, bool)
	Delete(ctx context.Context, stateID string)
}

// QuestionRepository loads question content (from cache/backing store).
type QuestionRepository interface {
	GetQuestion(ctx context.Context, questionID string) (domain.Question, error)
}

// Settings are the per-process render settings.
type Settings struct {
	Shuffle    bool
	MultiLabel string
	InnerText  TextExtractor
}

// QuizService contains the render and interaction use cases.
type QuizService struct {
	states    StateRepository
	questions QuestionRepository
	newDoc    DocumentFactory
	settings  Settings
	log       *zap.Logger
	now       func() time.Time

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewQuizService(states StateRepository, questions QuestionRepository, newDoc DocumentFactory, settings Settings, log *zap.Logger) *QuizService {
	if log == nil {
		log = zap.NewNop()
	}
	return &QuizService{
		states:    states,
		questions: questions,
		newDoc:    newDoc,
		settings:  settings,
		log:       log,
		now:       time.Now,
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Render loads a question, renders its options into a new document and stores the session.
func (s *QuizService) Render(ctx context.Context, questionID string) (domain.RenderState, error) {
	question, err := s.questions.GetQuestion(ctx, questionID)
	if err != nil {
		return domain.RenderState{}, err
	}

	opts := RenderOptions{
		Shuffle:    s.settings.Shuffle,
		MultiLabel: s.settings.MultiLabel,
		InnerText:  s.settings.InnerText,
	}
	if opts.Shuffle {
		s.rndMu.Lock()
		opts.Rand = rand.New(rand.NewSource(s.rnd.Int63()))
		s.rndMu.Unlock()
	}

	doc := s.newDoc()
	state, err := Render(doc, question, opts)
	if err != nil {
		return domain.RenderState{}, err
	}
	now := s.now()
	state.ID = uuid.NewString()
	state.CreatedAt = now
	state.UpdatedAt = now

	session := newSession(state, doc, s.now)
	if err := s.states.Put(ctx, session); err != nil {
		return domain.RenderState{}, err
	}
	s.log.Debug("question rendered",
		zap.String("question_id", questionID),
		zap.String("state_id", state.ID),
		zap.Int("options", len(state.Options)),
		zap.String("kind", string(state.Kind)),
	)
	return session.Snapshot(), nil
}

// Click replays a click on the option at index and returns the updated state.
func (s *QuizService) Click(ctx context.Context, stateID string, index int) (domain.RenderState, error) {
	session, ok := s.states.Get(ctx, stateID)
	if !ok {
		return domain.RenderState{}, domain.ErrStateNotFound
	}
	snap, err := session.click(index)
	if err != nil {
		return domain.RenderState{}, err
	}
	if err := s.states.Put(ctx, session); err != nil {
		s.log.Warn("persist state failed", zap.String("state_id", stateID), zap.Error(err))
	}
	return snap, nil
}

// State returns the current snapshot of a render session.
func (s *QuizService) State(ctx context.Context, stateID string) (domain.RenderState, error) {
	session, ok := s.states.Get(ctx, stateID)
	if !ok {
		return domain.RenderState{}, domain.ErrStateNotFound
	}
	return session.Snapshot(), nil
}

// Grade compares the checked flags of a session against the correct options.
func (s *QuizService) Grade(ctx context.Context, stateID string) (domain.GradeResult, error) {
	session, ok := s.states.Get(ctx, stateID)
	if !ok {
		return domain.GradeResult{}, domain.ErrStateNotFound
	}
	return Grade(session.Snapshot()), nil
}

// Watch returns a channel that receives state snapshots after every click.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *QuizService) Watch(ctx context.Context, stateID string) (<-chan domain.RenderState, func(), error) {
	session, ok := s.states.Get(ctx, stateID)
	if !ok {
		return nil, nil, domain.ErrStateNotFound
	}
	ch, cancel := session.subscribe()
	return ch, cancel, nil
}

// Discard drops a render session.
func (s *QuizService) Discard(ctx context.Context, stateID string) {
	s.states.Delete(ctx, stateID)
}

// Session binds a render state to the document its click handlers are wired to.
type Session struct {
	mu          sync.RWMutex
	state       *domain.RenderState
	doc         InteractiveDocument
	now         func() time.Time
	subscribers map[chan domain.RenderState]struct{}
}

func newSession(state *domain.RenderState, doc InteractiveDocument, now func() time.Time) *Session {
	return &Session{
		state:       state,
		doc:         doc,
		now:         now,
		subscribers: make(map[chan domain.RenderState]struct{}),
	}
}

// RestoreSession rebuilds a session from a stored snapshot. Options keep
// their stored order and checked flags; no shuffle is applied.
func RestoreSession(snapshot domain.RenderState, newDoc DocumentFactory) *Session {
	state := snapshot.Clone()
	doc := newDoc()
	Mount(doc, &state)
	checked := make([]bool, len(state.Options))
	for i, opt := range state.Options {
		checked[i] = opt.IsChecked
	}
	doc.Restore(checked)
	if state.Classification != "" {
		doc.SetClassification(state.Classification)
	}
	return newSession(&state, doc, time.Now)
}

// ID returns the state identifier.
func (s *Session) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.ID
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() domain.RenderState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

func (s *Session) click(index int) (domain.RenderState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.doc.Click(index); err != nil {
		return domain.RenderState{}, err
	}
	s.state.UpdatedAt = s.now()
	return s.broadcastLocked(), nil
}

func (s *Session) subscribe() (<-chan domain.RenderState, func()) {
	ch := make(chan domain.RenderState, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	initial := s.state.Clone()
	s.mu.Unlock()

	ch <- initial

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) broadcastLocked() domain.RenderState {
	snap := s.state.Clone()
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			// slow reader: replace the oldest pending snapshot
			select {
			case <-ch:
			default:
			}
			ch <- snap.Clone()
		}
	}
	return snap
}
