package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"bizquiz/internal/advice"
	"bizquiz/internal/apiclient"
	"bizquiz/internal/quiz"
	"bizquiz/internal/result"
)

type catalogFunc func(ctx context.Context) ([]quiz.BusinessOption, error)

func (f catalogFunc) FetchBusinesses(ctx context.Context) ([]quiz.BusinessOption, error) {
	return f(ctx)
}

type loaderFunc func(ctx context.Context, businessID int, lang string) ([]quiz.Question, error)

func (f loaderFunc) FetchQuestions(ctx context.Context, businessID int, lang string) ([]quiz.Question, error) {
	return f(ctx, businessID, lang)
}

func retailQuestions() []quiz.Question {
	return []quiz.Question{
		{ID: 1, Text: "Do you track expenses?", Options: quiz.BuildOptions([]string{"Never", "Sometimes", "Always"}, []int{0, 10, 25})},
		{ID: 2, Text: "Do you have a website?", Options: quiz.BuildOptions([]string{"No", "Yes"}, []int{0, 25})},
	}
}

func newTestApp(t *testing.T, loader quiz.QuestionLoader, opts ...advice.Option) *App {
	t.Helper()
	classifier, err := result.NewClassifier(result.DefaultTable(), language.English)
	require.NoError(t, err)
	gate, err := advice.NewGate(advice.Config{
		Primary:   advice.Link{Name: "Telegram", URL: "https://t.me/example"},
		Secondary: advice.Link{Name: "Instagram", URL: "https://instagram.com/example"},
	}, opts...)
	require.NoError(t, err)

	catalog := catalogFunc(func(context.Context) ([]quiz.BusinessOption, error) {
		return []quiz.BusinessOption{{ID: 1, Label: "Retail"}, {ID: 2, Label: "Online"}}, nil
	})
	return New(Config{ServerURL: "http://quiz.test", Language: language.English}, catalog, quiz.NewSession(loader, quiz.VariantWeighted), classifier, gate)
}

func run(t *testing.T, app *App, script ...string) string {
	t.Helper()
	var out bytes.Buffer
	input := strings.Join(script, "\n") + "\n"
	require.NoError(t, app.Run(context.Background(), strings.NewReader(input), &out))
	return out.String()
}

func TestRunFullFlow(t *testing.T) {
	app := newTestApp(t, loaderFunc(func(_ context.Context, businessID int, lang string) ([]quiz.Question, error) {
		assert.Equal(t, 1, businessID)
		assert.Equal(t, "en", lang)
		return retailQuestions(), nil
	}))

	output := run(t, app,
		"select 1",
		"next",
		"c",
		"next",
		"b",
		"prev",
		"next",
		"next",
		"advice",
		"ack 1",
		"ack 2",
		"advice",
		"exit",
	)

	assert.Contains(t, output, "1. Retail")
	assert.Contains(t, output, "Retail: 2 questions")
	assert.Contains(t, output, "Q1/2: Do you track expenses?")
	assert.Contains(t, output, "not allowed: answer the current question before moving on")
	assert.Contains(t, output, "Selected C. Always")
	assert.Contains(t, output, "* C. Always")
	assert.Contains(t, output, "Test finished.")
	assert.Contains(t, output, "Score: 50 (2/2 answered)")
	assert.Contains(t, output, "Level: Practitioner")
	assert.Contains(t, output, "not allowed: both links must be acknowledged first")
	assert.Contains(t, output, "Thanks for following Telegram.")
	assert.Contains(t, output, "Advice unlocked.")
	assert.Contains(t, output, "Score: 50\nLevel: Practitioner")
}

func TestRunLoadFailureAllowsRetry(t *testing.T) {
	calls := 0
	app := newTestApp(t, loaderFunc(func(context.Context, int, string) ([]quiz.Question, error) {
		calls++
		if calls == 1 {
			return nil, &quiz.FetchError{Op: "fetch questions", Err: fmt.Errorf("%w: dial tcp", apiclient.ErrServiceUnavailable)}
		}
		return retailQuestions(), nil
	}))

	output := run(t, app, "select 1", "select 1", "show")

	assert.Contains(t, output, "could not fetch questions: quiz service unavailable at http://quiz.test; try again")
	assert.Contains(t, output, "Retail: 2 questions")
	assert.Equal(t, 2, calls)
}

func TestRunEmptyCategoryFinishesImmediately(t *testing.T) {
	app := newTestApp(t, loaderFunc(func(context.Context, int, string) ([]quiz.Question, error) {
		return nil, nil
	}))

	output := run(t, app, "select 2")
	assert.Contains(t, output, "This category has no questions yet.")
	assert.Contains(t, output, "Score: 0 (0/0 answered)")
	assert.Contains(t, output, "Level: Beginner")
}

func TestRunResetReturnsToSelection(t *testing.T) {
	app := newTestApp(t, loaderFunc(func(context.Context, int, string) ([]quiz.Question, error) {
		return retailQuestions(), nil
	}))

	output := run(t, app, "select 1", "a", "reset", "show", "next")
	assert.Contains(t, output, "Session reset.")
	assert.Contains(t, output, "No test in progress.")
	assert.Contains(t, output, "not allowed: action not allowed in current phase")
}

func TestRunSelectWhileInProgress(t *testing.T) {
	calls := 0
	app := newTestApp(t, loaderFunc(func(context.Context, int, string) ([]quiz.Question, error) {
		calls++
		return retailQuestions(), nil
	}))

	output := run(t, app, "select 1", "select 2", "reset", "select 2")
	assert.Contains(t, output, "finish this test or 'reset' before choosing another business")
	assert.Equal(t, 2, calls)
}

func TestRunCommandUsage(t *testing.T) {
	app := newTestApp(t, loaderFunc(func(context.Context, int, string) ([]quiz.Question, error) {
		return retailQuestions(), nil
	}))

	output := run(t, app, "select", "select abc", "answer", "ack 3", "ack", "dance", "result")
	assert.Contains(t, output, "usage: select <business_id> [language]")
	assert.Contains(t, output, "invalid business id: must be a positive integer")
	assert.Contains(t, output, "usage: answer <letter>")
	assert.Contains(t, output, "not allowed: unknown link")
	assert.Contains(t, output, "usage: ack <1|2>")
	assert.Contains(t, output, "unknown command. type 'help' for usage.")
	assert.Contains(t, output, "not allowed: action not allowed in current phase")
}

func TestRunCatalogFailure(t *testing.T) {
	classifier, err := result.NewClassifier(result.DefaultTable(), language.English)
	require.NoError(t, err)
	gate, err := advice.NewGate(advice.Config{})
	require.NoError(t, err)

	calls := 0
	catalog := catalogFunc(func(context.Context) ([]quiz.BusinessOption, error) {
		calls++
		if calls == 1 {
			return nil, &quiz.FetchError{Op: "fetch businesses", StatusCode: 503, Err: &apiclient.APIError{StatusCode: 503, Message: "maintenance"}}
		}
		return []quiz.BusinessOption{{ID: 4, Label: "Cafe"}}, nil
	})
	app := New(Config{ServerURL: "http://quiz.test"}, catalog, quiz.NewSession(nil, quiz.VariantWeighted), classifier, gate)

	output := run(t, app, "businesses", "businesses refresh")
	assert.Contains(t, output, "could not fetch businesses: maintenance (status 503)")
	assert.Contains(t, output, "4. Cafe")
}

func TestRunRemoteAdviceFailureIsRetryable(t *testing.T) {
	calls := 0
	generator := generatorFunc(func(context.Context, advice.Request) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("upstream timeout")
		}
		return "Open a second store.", nil
	})

	classifier, err := result.NewClassifier(result.DefaultTable(), language.English)
	require.NoError(t, err)
	gate, err := advice.NewGate(advice.Config{Mode: advice.ModeRemote}, advice.WithGenerator(generator), advice.WithAcknowledged(advice.LinkPrimary, advice.LinkSecondary))
	require.NoError(t, err)
	catalog := catalogFunc(func(context.Context) ([]quiz.BusinessOption, error) { return nil, nil })
	loader := loaderFunc(func(context.Context, int, string) ([]quiz.Question, error) { return retailQuestions()[:1], nil })
	app := New(Config{ServerURL: "http://quiz.test"}, catalog, quiz.NewSession(loader, quiz.VariantWeighted), classifier, gate)

	output := run(t, app, "select 1", "a", "next", "advice", "advice")
	assert.Contains(t, output, "could not get advice (upstream timeout); try 'advice' again")
	assert.Contains(t, output, "Open a second store.")
	assert.Equal(t, 2, calls)
}

type generatorFunc func(ctx context.Context, req advice.Request) (string, error)

func (f generatorFunc) GenerateAdvice(ctx context.Context, req advice.Request) (string, error) {
	return f(ctx, req)
}

func TestNavigationHint(t *testing.T) {
	assert.Equal(t, "pick an answer to continue", navigationHint(false, false, false))
	assert.Equal(t, "'prev' | 'next'", navigationHint(true, true, false))
	assert.Equal(t, "'prev' | 'next' to finish", navigationHint(true, true, true))
}

func TestParseID(t *testing.T) {
	got, err := parseID(" 12 ")
	require.NoError(t, err)
	assert.Equal(t, 12, got)

	_, err = parseID("0")
	assert.Error(t, err)
	_, err = parseID("x")
	assert.Error(t, err)
}
