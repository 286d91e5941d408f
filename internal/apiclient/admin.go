package apiclient

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"bizquiz/internal/wire"
)

// Admin calls authenticate with the client's token source; the backend
// accepts them only with its admin token.

func (c *Client) CreateBusiness(ctx context.Context, label string) (wire.Business, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return wire.Business{}, errors.New("business label is required")
	}

	var created wire.Business
	if err := c.doJSON(ctx, http.MethodPost, "/businesses", wire.Business{Types: label}, &created); err != nil {
		return wire.Business{}, err
	}
	return created, nil
}

func (c *Client) DeleteBusiness(ctx context.Context, id int) error {
	if id <= 0 {
		return errors.New("business id must be positive")
	}
	return c.doJSON(ctx, http.MethodDelete, "/businesses/"+strconv.Itoa(id), nil, nil)
}

// ListQuestions returns every question across businesses.
func (c *Client) ListQuestions(ctx context.Context) ([]wire.Question, error) {
	var questions []wire.Question
	if err := c.getJSON(ctx, "list questions", "/tests/", &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

func (c *Client) CreateQuestion(ctx context.Context, question wire.NewQuestion) (wire.Question, error) {
	if question.BusinessID <= 0 {
		return wire.Question{}, errors.New("business id must be positive")
	}
	if strings.TrimSpace(question.Question) == "" {
		return wire.Question{}, errors.New("question text is required")
	}

	var created wire.Question
	if err := c.doJSON(ctx, http.MethodPost, "/tests/", question, &created); err != nil {
		return wire.Question{}, err
	}
	return created, nil
}

func (c *Client) DeleteQuestion(ctx context.Context, id int) error {
	if id <= 0 {
		return errors.New("question id must be positive")
	}
	return c.doJSON(ctx, http.MethodDelete, "/tests/"+strconv.Itoa(id), nil, nil)
}
