// Package advice guards the post-test advice behind two link acknowledgements.
package advice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"text/template"

	"go.uber.org/zap"

	"bizquiz/internal/quiz"
	"bizquiz/internal/result"
)

// DefaultUnanswered is sent in place of a missing answer.
const DefaultUnanswered = "Javob berilmagan"

var (
	ErrGateLocked    = errors.New("both links must be acknowledged first")
	ErrNotSubscribed = errors.New("user is not subscribed to the channel")
	ErrUnknownLink   = errors.New("unknown link")
)

// AdviceFetchError reports a failed advice or subscription request. The
// session and score are unaffected; calling Reveal again retries.
type AdviceFetchError struct {
	Err error
}

func (e *AdviceFetchError) Error() string {
	return fmt.Sprintf("fetch advice: %v", e.Err)
}

func (e *AdviceFetchError) Unwrap() error {
	return e.Err
}

type Mode string

const (
	ModeStatic Mode = "static"
	ModeRemote Mode = "remote"
)

func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case ModeStatic:
		return ModeStatic, nil
	case ModeRemote:
		return ModeRemote, nil
	default:
		return "", fmt.Errorf("unknown advice mode %q", value)
	}
}

type LinkID int

const (
	LinkPrimary LinkID = iota + 1
	LinkSecondary
)

func (id LinkID) String() string {
	switch id {
	case LinkPrimary:
		return "primary"
	case LinkSecondary:
		return "secondary"
	default:
		return fmt.Sprintf("link(%d)", int(id))
	}
}

type Link struct {
	Name string
	URL  string
}

// QA is one question with the answer the user gave.
type QA struct {
	Question   string `json:"question"`
	UserAnswer string `json:"userAnswer"`
}

type Request struct {
	Answers  []QA   `json:"answers"`
	Language string `json:"lang,omitempty"`
}

// Generator produces advice text for a finished attempt.
type Generator interface {
	GenerateAdvice(ctx context.Context, req Request) (string, error)
}

type SubscriptionChecker interface {
	CheckSubscription(ctx context.Context, userID int) (bool, error)
}

// Outcome is everything Reveal needs about a finished attempt.
type Outcome struct {
	Snapshot       quiz.Snapshot
	Score          quiz.ScoreResult
	Classification result.Classification
	Category       string
}

type Config struct {
	Mode       Mode
	Primary    Link
	Secondary  Link
	Unanswered string
	// Template overrides the static advice text. It is executed with the Outcome.
	Template string
}

type Option func(*Gate)

// WithGenerator sets the advice source used in remote mode.
func WithGenerator(generator Generator) Option {
	return func(g *Gate) {
		g.generator = generator
	}
}

// WithSubscriptionCheck makes Reveal confirm the user's subscription first.
func WithSubscriptionCheck(checker SubscriptionChecker, userID int) Option {
	return func(g *Gate) {
		g.checker = checker
		g.userID = userID
	}
}

// WithAcknowledged restores acknowledgements from an earlier run.
func WithAcknowledged(ids ...LinkID) Option {
	return func(g *Gate) {
		for _, id := range ids {
			if id == LinkPrimary || id == LinkSecondary {
				g.acked[id] = true
			}
		}
	}
}

// OnAcknowledge registers a hook called once per newly acknowledged link.
func OnAcknowledge(fn func(LinkID)) Option {
	return func(g *Gate) {
		g.onAck = fn
	}
}

// Gate is safe for concurrent use. It never holds a reference to the
// session that produced an Outcome.
type Gate struct {
	mu    sync.Mutex
	acked map[LinkID]bool

	mode       Mode
	links      map[LinkID]Link
	unanswered string
	tmpl       *template.Template

	generator Generator
	checker   SubscriptionChecker
	userID    int
	onAck     func(LinkID)
}

func NewGate(cfg Config, opts ...Option) (*Gate, error) {
	if cfg.Mode == "" {
		cfg.Mode = ModeStatic
	}
	if cfg.Unanswered == "" {
		cfg.Unanswered = DefaultUnanswered
	}
	text := cfg.Template
	if text == "" {
		text = defaultTemplate
	}
	tmpl, err := template.New("advice").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse advice template: %w", err)
	}

	g := &Gate{
		acked:      map[LinkID]bool{},
		mode:       cfg.Mode,
		links:      map[LinkID]Link{LinkPrimary: cfg.Primary, LinkSecondary: cfg.Secondary},
		unanswered: cfg.Unanswered,
		tmpl:       tmpl,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.mode == ModeRemote && g.generator == nil {
		return nil, errors.New("remote advice mode needs a generator")
	}
	return g, nil
}

func (g *Gate) Link(id LinkID) (Link, bool) {
	link, ok := g.links[id]
	return link, ok
}

// Acknowledge marks a link as followed. Repeated calls are no-ops.
func (g *Gate) Acknowledge(id LinkID) error {
	if id != LinkPrimary && id != LinkSecondary {
		return &quiz.ValidationError{Op: "acknowledge", Err: ErrUnknownLink}
	}

	g.mu.Lock()
	if g.acked[id] {
		g.mu.Unlock()
		return nil
	}
	g.acked[id] = true
	hook := g.onAck
	g.mu.Unlock()

	zap.L().Info("advice link acknowledged", zap.String("link", id.String()))
	if hook != nil {
		hook(id)
	}
	return nil
}

func (g *Gate) Acknowledged(id LinkID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.acked[id]
}

func (g *Gate) Ready() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.acked[LinkPrimary] && g.acked[LinkSecondary]
}

// Reveal returns the advice for outcome once both links are acknowledged.
func (g *Gate) Reveal(ctx context.Context, outcome Outcome) (string, error) {
	if !g.Ready() {
		return "", &quiz.ValidationError{Op: "reveal advice", Err: ErrGateLocked}
	}
	if outcome.Snapshot.Phase != quiz.PhaseFinished {
		return "", &quiz.ValidationError{Op: "reveal advice", Err: quiz.ErrWrongPhase}
	}

	if g.checker != nil {
		subscribed, err := g.checker.CheckSubscription(ctx, g.userID)
		if err != nil {
			zap.L().Warn("subscription check failed", zap.Error(err))
			return "", &AdviceFetchError{Err: err}
		}
		if !subscribed {
			return "", ErrNotSubscribed
		}
	}

	if g.mode == ModeRemote {
		return g.remote(ctx, outcome)
	}
	return g.static(outcome)
}

func (g *Gate) remote(ctx context.Context, outcome Outcome) (string, error) {
	req := BuildRequest(outcome.Snapshot, g.unanswered)
	text, err := g.generator.GenerateAdvice(ctx, req)
	if err != nil {
		zap.L().Warn("advice generation failed",
			zap.String("session_id", outcome.Snapshot.ID),
			zap.Error(err),
		)
		return "", &AdviceFetchError{Err: err}
	}
	return text, nil
}

func (g *Gate) static(outcome Outcome) (string, error) {
	var buf bytes.Buffer
	if err := g.tmpl.Execute(&buf, outcome); err != nil {
		return "", fmt.Errorf("render advice: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// BuildRequest pairs every question of the snapshot with its answer, using
// placeholder for unanswered ones.
func BuildRequest(snapshot quiz.Snapshot, placeholder string) Request {
	answers := make([]QA, 0, len(snapshot.Questions))
	for idx, question := range snapshot.Questions {
		answer, ok := snapshot.Answers[idx]
		if !ok || answer == "" {
			answer = placeholder
		}
		answers = append(answers, QA{Question: question.Text, UserAnswer: answer})
	}
	return Request{Answers: answers, Language: snapshot.Language}
}

const defaultTemplate = `
Score: {{.Score.Score}}{{if eq (print .Score.Variant) "percentage"}}%{{end}}
{{- if .Classification.InRange}}
Level: {{.Classification.Title}}
{{- end}}
{{.Classification.Feedback}}
{{- if .Classification.Supplement}}

{{.Classification.Supplement}}
{{- end}}
`
