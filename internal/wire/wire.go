// Package wire holds the JSON payloads exchanged with the quiz backend.
package wire

import (
	"strings"

	"bizquiz/internal/quiz"
)

// Business is a business category. The backend calls its label "types".
type Business struct {
	ID    int    `json:"id"`
	Types string `json:"types" validate:"required,max=200"`
}

func (b Business) Option() quiz.BusinessOption {
	return quiz.BusinessOption{ID: b.ID, Label: strings.TrimSpace(b.Types)}
}

// Question keeps the flat option_a..option_d layout used by the backend.
// The "bussiness" spelling is part of the contract.
type Question struct {
	ID           int       `json:"id"`
	Question     string    `json:"question"`
	OptionA      string    `json:"option_a"`
	OptionB      string    `json:"option_b"`
	OptionC      string    `json:"option_c"`
	OptionD      string    `json:"option_d"`
	OptionAScore *int      `json:"option_a_score,omitempty"`
	OptionBScore *int      `json:"option_b_score,omitempty"`
	OptionCScore *int      `json:"option_c_score,omitempty"`
	OptionDScore *int      `json:"option_d_score,omitempty"`
	Answer       string    `json:"answer,omitempty"`
	Business     *Business `json:"bussiness,omitempty"`
	Lang         string    `json:"lang,omitempty"`
}

// NewQuestion is the admin payload for creating a question. The admin screen
// posts the business id as "bussiness_id".
type NewQuestion struct {
	BusinessID   int    `json:"bussiness_id" validate:"required,gt=0"`
	Question     string `json:"question" validate:"required"`
	OptionA      string `json:"option_a" validate:"required"`
	OptionB      string `json:"option_b" validate:"required"`
	OptionC      string `json:"option_c"`
	OptionD      string `json:"option_d"`
	OptionAScore *int   `json:"option_a_score,omitempty" validate:"omitempty,min=0"`
	OptionBScore *int   `json:"option_b_score,omitempty" validate:"omitempty,min=0"`
	OptionCScore *int   `json:"option_c_score,omitempty" validate:"omitempty,min=0"`
	OptionDScore *int   `json:"option_d_score,omitempty" validate:"omitempty,min=0"`
	Answer       string `json:"answer"`
	Lang         string `json:"lang,omitempty" validate:"omitempty,bcp47_language_tag"`
}

func (q Question) Quiz() quiz.Question {
	out := quiz.Question{
		ID:      q.ID,
		Text:    strings.TrimSpace(q.Question),
		Options: quiz.BuildOptions(q.optionTexts(), q.optionWeights()),
		Correct: strings.TrimSpace(q.Answer),
	}
	if q.Business != nil {
		out.BusinessID = q.Business.ID
		out.BusinessLabel = strings.TrimSpace(q.Business.Types)
	}
	return out
}

func (q Question) optionTexts() []string {
	return []string{q.OptionA, q.OptionB, q.OptionC, q.OptionD}
}

func (q Question) optionWeights() []int {
	scores := []*int{q.OptionAScore, q.OptionBScore, q.OptionCScore, q.OptionDScore}
	weights := make([]int, len(scores))
	for idx, score := range scores {
		if score != nil {
			weights[idx] = *score
		}
	}
	return weights
}

// Scores returns the four option scores in slot order, nil where unset.
func (q NewQuestion) Scores() [4]*int {
	return [4]*int{q.OptionAScore, q.OptionBScore, q.OptionCScore, q.OptionDScore}
}

// QuestionFromOptions builds a wire question from per-slot texts and scores.
func QuestionFromOptions(id int, text string, options [4]string, scores [4]*int, answer string, business *Business, lang string) Question {
	return Question{
		ID:           id,
		Question:     text,
		OptionA:      options[0],
		OptionB:      options[1],
		OptionC:      options[2],
		OptionD:      options[3],
		OptionAScore: scores[0],
		OptionBScore: scores[1],
		OptionCScore: scores[2],
		OptionDScore: scores[3],
		Answer:       answer,
		Business:     business,
		Lang:         lang,
	}
}

type LoginRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required,min=5,max=32"`
	Password    string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Fullname    string `json:"fullname" validate:"required,max=120"`
	Age         int    `json:"age" validate:"required,gt=0,lt=130"`
	PhoneNumber string `json:"phone_number" validate:"required,min=5,max=32"`
	Password    string `json:"password" validate:"required,min=6"`
}

type User struct {
	ID          int    `json:"id"`
	PhoneNumber string `json:"phone_number"`
	Fullname    string `json:"fullname"`
	Age         int    `json:"age,omitempty"`
}

type AuthResponse struct {
	AccessToken string `json:"access_token"`
	User        User   `json:"user"`
}

type AdviceAnswer struct {
	Question   string `json:"question" validate:"required"`
	UserAnswer string `json:"userAnswer"`
}

type AdviceRequest struct {
	Answers []AdviceAnswer `json:"answers" validate:"required,min=1,dive"`
	Lang    string         `json:"lang,omitempty"`
}

type AdviceResponse struct {
	Advice string `json:"advice,omitempty"`
	Error  string `json:"error,omitempty"`
}

type SubscriptionRequest struct {
	UserID int `json:"user_id" validate:"required,gt=0"`
}

type SubscriptionResponse struct {
	IsSubscribed bool `json:"isSubscribed"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
