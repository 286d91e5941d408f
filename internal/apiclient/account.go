package apiclient

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"bizquiz/internal/advice"
	"bizquiz/internal/wire"
)

func (c *Client) Login(ctx context.Context, phoneNumber, password string) (wire.AuthResponse, error) {
	request := wire.LoginRequest{
		PhoneNumber: strings.TrimSpace(phoneNumber),
		Password:    password,
	}
	if request.PhoneNumber == "" || request.Password == "" {
		return wire.AuthResponse{}, errors.New("phone number and password are required")
	}

	var payload wire.AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, "/login", request, &payload); err != nil {
		return wire.AuthResponse{}, err
	}
	if payload.AccessToken == "" {
		return wire.AuthResponse{}, errors.New("login response carried no access token")
	}
	return payload, nil
}

func (c *Client) Register(ctx context.Context, request wire.RegisterRequest) (wire.AuthResponse, error) {
	request.Fullname = strings.TrimSpace(request.Fullname)
	request.PhoneNumber = strings.TrimSpace(request.PhoneNumber)
	if request.Fullname == "" || request.PhoneNumber == "" {
		return wire.AuthResponse{}, errors.New("full name and phone number are required")
	}

	var payload wire.AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/register", request, &payload); err != nil {
		return wire.AuthResponse{}, err
	}
	if payload.AccessToken == "" {
		return wire.AuthResponse{}, errors.New("register response carried no access token")
	}
	return payload, nil
}

// GenerateAdvice posts the answered questions to the advice endpoint and
// returns its text unchanged.
func (c *Client) GenerateAdvice(ctx context.Context, req advice.Request) (string, error) {
	payload := wire.AdviceRequest{
		Answers: make([]wire.AdviceAnswer, 0, len(req.Answers)),
		Lang:    req.Language,
	}
	for _, qa := range req.Answers {
		payload.Answers = append(payload.Answers, wire.AdviceAnswer{Question: qa.Question, UserAnswer: qa.UserAnswer})
	}

	var response wire.AdviceResponse
	if err := c.doJSON(ctx, http.MethodPost, "/ai", payload, &response); err != nil {
		return "", err
	}
	if response.Advice == "" {
		if response.Error != "" {
			return "", &APIError{StatusCode: http.StatusOK, Message: response.Error}
		}
		return "", errors.New("advice response was empty")
	}
	return response.Advice, nil
}

func (c *Client) CheckSubscription(ctx context.Context, userID int) (bool, error) {
	if userID <= 0 {
		return false, errors.New("user id is required")
	}

	var response wire.SubscriptionResponse
	err := c.doJSON(ctx, http.MethodPost, "/check-subscription", wire.SubscriptionRequest{UserID: userID}, &response)
	if err != nil {
		return false, err
	}
	return response.IsSubscribed, nil
}

var (
	_ advice.Generator           = (*Client)(nil)
	_ advice.SubscriptionChecker = (*Client)(nil)
)
