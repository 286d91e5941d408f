package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"bizquiz/internal/quiz"
	"bizquiz/internal/wire"
)

// FetchBusinesses reads the business catalog.
func (c *Client) FetchBusinesses(ctx context.Context) ([]quiz.BusinessOption, error) {
	const op = "fetch businesses"

	var payload []wire.Business
	if err := c.getJSON(ctx, op, "/businesses", &payload); err != nil {
		return nil, fetchError(op, err)
	}

	options := make([]quiz.BusinessOption, 0, len(payload))
	for _, item := range payload {
		option := item.Option()
		if option.ID <= 0 || option.Label == "" {
			return nil, fetchError(op, fmt.Errorf("%w: business %d has no id or label", quiz.ErrMalformedPayload, item.ID))
		}
		options = append(options, option)
	}

	zap.L().Debug("business catalog fetched", zap.Int("count", len(options)))
	return options, nil
}

// FetchQuestions loads the question set of businessID in server order.
// language is optional; when set it must be a BCP 47 tag.
func (c *Client) FetchQuestions(ctx context.Context, businessID int, lang string) ([]quiz.Question, error) {
	const op = "fetch questions"

	if businessID <= 0 {
		return nil, &quiz.ValidationError{Op: op, Err: quiz.ErrNoCategory}
	}

	query := url.Values{}
	query.Set("business_id", strconv.Itoa(businessID))
	if lang = strings.TrimSpace(lang); lang != "" {
		tag, err := language.Parse(lang)
		if err != nil {
			return nil, &quiz.ValidationError{Op: op, Err: fmt.Errorf("invalid language %q: %w", lang, err)}
		}
		query.Set("lang", tag.String())
	}

	var payload []wire.Question
	if err := c.getJSON(ctx, op, "/tests/?"+query.Encode(), &payload); err != nil {
		return nil, fetchError(op, err)
	}

	questions := make([]quiz.Question, 0, len(payload))
	for _, item := range payload {
		question := item.Quiz()
		// Scoring rules depend on the variant and are checked by the session.
		if err := question.ValidateShape(); err != nil {
			return nil, fetchError(op, fmt.Errorf("%w: %v", quiz.ErrMalformedPayload, err))
		}
		questions = append(questions, question)
	}

	zap.L().Debug("question set fetched",
		zap.Int("business_id", businessID),
		zap.String("language", lang),
		zap.Int("count", len(questions)),
	)
	return questions, nil
}

// IsUnavailable reports whether err means the backend could not be reached.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable)
}
