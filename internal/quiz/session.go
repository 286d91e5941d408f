package quiz

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Phase int

const (
	PhaseSelecting Phase = iota
	PhaseInProgress
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseSelecting:
		return "selecting"
	case PhaseInProgress:
		return "in_progress"
	case PhaseFinished:
		return "finished"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// QuestionLoader fetches the ordered question set of a business category.
type QuestionLoader interface {
	FetchQuestions(ctx context.Context, businessID int, language string) ([]Question, error)
}

// Session is one attempt at a questionnaire. All methods are safe for
// concurrent use; the lock is released while the question set loads.
type Session struct {
	mu      sync.Mutex
	loader  QuestionLoader
	variant Variant

	id         string
	phase      Phase
	businessID int
	language   string
	questions  []Question
	answers    AnswerRecord
	current    int

	loading    bool
	generation uint64
	cancelLoad context.CancelFunc
}

// Snapshot is a copy of the session state, safe to hand to presentation code.
type Snapshot struct {
	ID           string
	Phase        Phase
	Variant      Variant
	BusinessID   int
	Language     string
	CurrentIndex int
	Questions    []Question
	Answers      AnswerRecord
	Loading      bool
}

func NewSession(loader QuestionLoader, variant Variant) *Session {
	if variant == "" {
		variant = VariantWeighted
	}
	return &Session{
		loader:  loader,
		variant: variant,
		id:      uuid.NewString(),
		answers: AnswerRecord{},
	}
}

func (s *Session) SelectCategory(ctx context.Context, businessID int, language string) error {
	const op = "select category"

	s.mu.Lock()
	switch {
	case s.phase != PhaseSelecting:
		s.mu.Unlock()
		return invalid(op, ErrWrongPhase)
	case s.loading:
		s.mu.Unlock()
		return invalid(op, ErrLoadInProgress)
	case businessID <= 0:
		s.mu.Unlock()
		return invalid(op, ErrNoCategory)
	case s.loader == nil:
		s.mu.Unlock()
		return errors.New("quiz: session has no question loader")
	}

	loadCtx, cancel := context.WithCancel(ctx)
	s.loading = true
	s.cancelLoad = cancel
	generation := s.generation
	sessionID := s.id
	s.mu.Unlock()

	questions, err := s.loader.FetchQuestions(loadCtx, businessID, language)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != generation {
		zap.L().Debug("discarding question set for abandoned selection",
			zap.String("session_id", sessionID),
			zap.Int("business_id", businessID),
		)
		return ErrStaleLoad
	}
	s.loading = false
	s.cancelLoad = nil

	if err != nil {
		zap.L().Warn("question set load failed",
			zap.String("session_id", s.id),
			zap.Int("business_id", businessID),
			zap.Error(err),
		)
		return err
	}

	for _, question := range questions {
		if err := question.Validate(s.variant); err != nil {
			return &FetchError{
				Op:  "load questions",
				Err: fmt.Errorf("%w: %v", ErrMalformedPayload, err),
			}
		}
	}

	s.questions = cloneQuestions(questions)
	s.answers = AnswerRecord{}
	s.current = 0
	s.businessID = businessID
	s.language = language
	if len(s.questions) == 0 {
		s.phase = PhaseFinished
	} else {
		s.phase = PhaseInProgress
	}

	zap.L().Info("session started",
		zap.String("session_id", s.id),
		zap.Int("business_id", businessID),
		zap.String("language", language),
		zap.Int("question_count", len(s.questions)),
		zap.String("phase", s.phase.String()),
	)
	return nil
}

// Answer records value for the current question, replacing any earlier answer.
func (s *Session) Answer(value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseInProgress {
		return invalid("answer", ErrWrongPhase)
	}
	if _, ok := s.questions[s.current].Option(value); !ok {
		return invalid("answer", ErrUnknownOption)
	}
	s.answers[s.current] = value
	return nil
}

// AnswerLetter records the option labelled letter on the current question.
func (s *Session) AnswerLetter(letter string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseInProgress {
		return invalid("answer", ErrWrongPhase)
	}
	option, ok := s.questions[s.current].OptionByLetter(letter)
	if !ok {
		return invalid("answer", ErrUnknownOption)
	}
	s.answers[s.current] = option.Text
	return nil
}

func (s *Session) Next() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseInProgress {
		return invalid("next", ErrWrongPhase)
	}
	if s.answers[s.current] == "" {
		return invalid("next", ErrAnswerRequired)
	}
	if s.current == len(s.questions)-1 {
		s.phase = PhaseFinished
		zap.L().Info("session finished",
			zap.String("session_id", s.id),
			zap.Int("answered", len(s.answers)),
		)
		return nil
	}
	s.current++
	return nil
}

func (s *Session) Prev() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseInProgress {
		return invalid("prev", ErrWrongPhase)
	}
	if s.current == 0 {
		return invalid("prev", ErrAtFirstQuestion)
	}
	s.current--
	return nil
}

// Reset abandons the attempt from any phase. An in-flight load is cancelled
// and its result will be discarded.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancelLoad != nil {
		s.cancelLoad()
		s.cancelLoad = nil
	}
	s.generation++
	s.loading = false

	s.id = uuid.NewString()
	s.phase = PhaseSelecting
	s.businessID = 0
	s.language = ""
	s.questions = nil
	s.answers = AnswerRecord{}
	s.current = 0
}

func (s *Session) CanSelect() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase == PhaseSelecting && !s.loading
}

func (s *Session) CanNext() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase == PhaseInProgress && s.answers[s.current] != ""
}

func (s *Session) CanPrev() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase == PhaseInProgress && s.current > 0
}

func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Current returns the question being shown; ok is false outside InProgress.
func (s *Session) Current() (Question, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseInProgress {
		return Question{}, false
	}
	return s.questions[s.current].clone(), true
}

// Result scores the finished attempt.
func (s *Session) Result() (ScoreResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseFinished {
		return ScoreResult{}, invalid("result", ErrWrongPhase)
	}
	return scoreResult(s.variant, s.questions, s.answers), nil
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ID:           s.id,
		Phase:        s.phase,
		Variant:      s.variant,
		BusinessID:   s.businessID,
		Language:     s.language,
		CurrentIndex: s.current,
		Questions:    cloneQuestions(s.questions),
		Answers:      s.answers.clone(),
		Loading:      s.loading,
	}
}

func cloneQuestions(questions []Question) []Question {
	if len(questions) == 0 {
		return nil
	}
	out := make([]Question, len(questions))
	for idx, question := range questions {
		out[idx] = question.clone()
	}
	return out
}
