// Package cli is the interactive terminal front end for taking a test.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"bizquiz/internal/advice"
	"bizquiz/internal/quiz"
	"bizquiz/internal/result"
)

// Catalog lists the business categories a test can be taken for.
type Catalog interface {
	FetchBusinesses(ctx context.Context) ([]quiz.BusinessOption, error)
}

type Config struct {
	ServerURL string
	Language  language.Tag
	Greeting  string
}

type App struct {
	cfg        Config
	catalog    Catalog
	session    *quiz.Session
	classifier *result.Classifier
	gate       *advice.Gate

	businesses []quiz.BusinessOption
}

func New(cfg Config, catalog Catalog, session *quiz.Session, classifier *result.Classifier, gate *advice.Gate) *App {
	if cfg.Language == language.Und {
		cfg.Language = language.Uzbek
	}
	return &App{
		cfg:        cfg,
		catalog:    catalog,
		session:    session,
		classifier: classifier,
		gate:       gate,
	}
}

// Run reads commands from in until "exit" or EOF.
func (a *App) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)

	fmt.Fprintf(out, "bizquiz\nserver=%s\n", a.cfg.ServerURL)
	if a.cfg.Greeting != "" {
		fmt.Fprintln(out, a.cfg.Greeting)
	}
	fmt.Fprintln(out)
	printHelp(out)

	if err := a.listBusinesses(ctx, out, true); err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
	}

	for {
		fmt.Fprint(out, "\n> ")
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		eof := errors.Is(err, io.EOF)

		line = strings.TrimSpace(line)
		if line == "" {
			if eof {
				fmt.Fprintln(out)
				return nil
			}
			continue
		}

		if done := a.dispatch(ctx, out, strings.Fields(line)); done {
			return nil
		}
		if eof {
			fmt.Fprintln(out)
			return nil
		}
	}
}

func (a *App) dispatch(ctx context.Context, out io.Writer, args []string) bool {
	command := strings.ToLower(args[0])

	// A bare option letter answers the current question.
	if letter := quiz.NormalizeLetter(command); letter != "" && len(args) == 1 {
		a.answer(out, letter)
		return false
	}

	switch command {
	case "help":
		printHelp(out)
	case "exit", "quit":
		return true
	case "businesses":
		refresh := len(args) > 1 && strings.EqualFold(args[1], "refresh")
		if err := a.listBusinesses(ctx, out, refresh); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
	case "select":
		if len(args) < 2 || len(args) > 3 {
			fmt.Fprintln(out, "usage: select <business_id> [language]")
			return false
		}
		a.selectBusiness(ctx, out, args[1:])
	case "answer":
		if len(args) != 2 {
			fmt.Fprintln(out, "usage: answer <letter>")
			return false
		}
		a.answer(out, args[1])
	case "next":
		a.next(out)
	case "prev":
		if err := a.session.Prev(); err != nil {
			fmt.Fprintln(out, describeError(err, a.cfg.ServerURL))
			return false
		}
		a.showCurrent(out)
	case "show":
		a.show(out)
	case "result":
		a.printResult(out)
	case "links":
		a.printLinks(out)
	case "ack":
		a.acknowledge(out, args)
	case "advice":
		a.reveal(ctx, out)
	case "reset":
		a.session.Reset()
		fmt.Fprintln(out, "Session reset. Pick a business with 'select <id>'.")
	default:
		fmt.Fprintln(out, "unknown command. type 'help' for usage.")
	}
	return false
}

func (a *App) listBusinesses(ctx context.Context, out io.Writer, refresh bool) error {
	if refresh || a.businesses == nil {
		businesses, err := a.catalog.FetchBusinesses(ctx)
		if err != nil {
			return errors.New(describeError(err, a.cfg.ServerURL))
		}
		a.businesses = businesses
	}

	if len(a.businesses) == 0 {
		fmt.Fprintln(out, "No business categories available.")
		return nil
	}

	fmt.Fprintln(out, "Business categories:")
	for _, business := range a.businesses {
		fmt.Fprintf(out, "  %d. %s\n", business.ID, business.Label)
	}
	return nil
}

func (a *App) selectBusiness(ctx context.Context, out io.Writer, args []string) {
	businessID, err := parseID(args[0])
	if err != nil {
		fmt.Fprintf(out, "invalid business id: %v\n", err)
		return
	}
	if !a.session.CanSelect() {
		fmt.Fprintln(out, "finish this test or 'reset' before choosing another business")
		return
	}

	lang := a.cfg.Language.String()
	if len(args) > 1 {
		lang = args[1]
	}

	if err := a.session.SelectCategory(ctx, businessID, lang); err != nil {
		if errors.Is(err, quiz.ErrStaleLoad) {
			return
		}
		fmt.Fprintln(out, describeError(err, a.cfg.ServerURL))
		return
	}

	snapshot := a.session.Snapshot()
	fmt.Fprintf(out, "%s: %d questions\n", a.categoryLabel(snapshot), len(snapshot.Questions))
	if snapshot.Phase == quiz.PhaseFinished {
		fmt.Fprintln(out, "This category has no questions yet.")
		a.printResult(out)
		return
	}
	a.showCurrent(out)
}

func (a *App) answer(out io.Writer, letter string) {
	if err := a.session.AnswerLetter(letter); err != nil {
		fmt.Fprintln(out, describeError(err, a.cfg.ServerURL))
		return
	}
	question, _ := a.session.Current()
	option, _ := question.OptionByLetter(letter)
	fmt.Fprintf(out, "Selected %s. %s\n", option.Letter, option.Text)
}

func (a *App) next(out io.Writer) {
	if err := a.session.Next(); err != nil {
		fmt.Fprintln(out, describeError(err, a.cfg.ServerURL))
		return
	}
	if a.session.Phase() == quiz.PhaseFinished {
		fmt.Fprintln(out, "Test finished.")
		a.printResult(out)
		return
	}
	a.showCurrent(out)
}

func (a *App) show(out io.Writer) {
	switch a.session.Phase() {
	case quiz.PhaseSelecting:
		fmt.Fprintln(out, "No test in progress. Pick a business with 'select <id>'.")
	case quiz.PhaseInProgress:
		a.showCurrent(out)
	case quiz.PhaseFinished:
		a.printResult(out)
	}
}

func (a *App) showCurrent(out io.Writer) {
	question, ok := a.session.Current()
	if !ok {
		return
	}
	snapshot := a.session.Snapshot()
	selected := snapshot.Answers[snapshot.CurrentIndex]

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Q%d/%d: %s\n\n", snapshot.CurrentIndex+1, len(snapshot.Questions), question.Text)
	for _, option := range question.Options {
		marker := " "
		if option.Text == selected {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %s. %s\n", marker, option.Letter, option.Text)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, navigationHint(a.session.CanPrev(), a.session.CanNext(), snapshot.CurrentIndex == len(snapshot.Questions)-1))
}

func (a *App) outcome() (advice.Outcome, error) {
	score, err := a.session.Result()
	if err != nil {
		return advice.Outcome{}, err
	}
	snapshot := a.session.Snapshot()
	category := a.categoryLabel(snapshot)
	lang := a.cfg.Language
	if tag, err := language.Parse(snapshot.Language); err == nil {
		lang = tag
	}
	return advice.Outcome{
		Snapshot:       snapshot,
		Score:          score,
		Classification: a.classifier.Classify(score.Score, category, lang),
		Category:       category,
	}, nil
}

func (a *App) printResult(out io.Writer) {
	outcome, err := a.outcome()
	if err != nil {
		fmt.Fprintln(out, describeError(err, a.cfg.ServerURL))
		return
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Score: %s (%d/%d answered)\n", formatScore(outcome.Score), outcome.Score.Answered, outcome.Score.Total)
	classification := outcome.Classification
	if classification.InRange {
		fmt.Fprintf(out, "Level: %s\n", classification.Title)
	}
	fmt.Fprintln(out, classification.Feedback)

	if !a.gate.Ready() {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Follow both links to unlock your advice:")
		a.printLinks(out)
	} else {
		fmt.Fprintln(out, "Type 'advice' to see your advice.")
	}
}

func (a *App) printLinks(out io.Writer) {
	for _, id := range []advice.LinkID{advice.LinkPrimary, advice.LinkSecondary} {
		link, _ := a.gate.Link(id)
		status := "pending"
		if a.gate.Acknowledged(id) {
			status = "done"
		}
		fmt.Fprintf(out, "  %d. %s %s [%s]\n", int(id), link.Name, link.URL, status)
	}
	if !a.gate.Ready() {
		fmt.Fprintln(out, "Confirm each one with 'ack <number>'.")
	}
}

func (a *App) acknowledge(out io.Writer, args []string) {
	if len(args) != 2 {
		fmt.Fprintln(out, "usage: ack <1|2>")
		return
	}
	id, err := parseID(args[1])
	if err != nil {
		fmt.Fprintf(out, "invalid link number: %v\n", err)
		return
	}
	if err := a.gate.Acknowledge(advice.LinkID(id)); err != nil {
		fmt.Fprintln(out, describeError(err, a.cfg.ServerURL))
		return
	}
	link, _ := a.gate.Link(advice.LinkID(id))
	fmt.Fprintf(out, "Thanks for following %s.\n", link.Name)
	if a.gate.Ready() {
		fmt.Fprintln(out, "Advice unlocked. Type 'advice' once your test is finished.")
	}
}

func (a *App) reveal(ctx context.Context, out io.Writer) {
	outcome, err := a.outcome()
	if err != nil {
		fmt.Fprintln(out, describeError(err, a.cfg.ServerURL))
		return
	}

	text, err := a.gate.Reveal(ctx, outcome)
	if err != nil {
		zap.L().Debug("advice not revealed", zap.String("session_id", outcome.Snapshot.ID), zap.Error(err))
		fmt.Fprintln(out, describeError(err, a.cfg.ServerURL))
		return
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, text)
}

func (a *App) categoryLabel(snapshot quiz.Snapshot) string {
	for _, business := range a.businesses {
		if business.ID == snapshot.BusinessID {
			return business.Label
		}
	}
	for _, question := range snapshot.Questions {
		if question.BusinessLabel != "" {
			return question.BusinessLabel
		}
	}
	return fmt.Sprintf("Business %d", snapshot.BusinessID)
}
