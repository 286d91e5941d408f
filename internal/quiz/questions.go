package quiz

import (
	"fmt"
	"strings"
)

// Variant selects how a deployment scores its question sets. It is chosen
// once from configuration and never inferred per question.
type Variant string

const (
	VariantWeighted   Variant = "weighted"
	VariantPercentage Variant = "percentage"
)

func ParseVariant(value string) (Variant, error) {
	switch Variant(strings.ToLower(strings.TrimSpace(value))) {
	case VariantWeighted:
		return VariantWeighted, nil
	case VariantPercentage:
		return VariantPercentage, nil
	default:
		return "", fmt.Errorf("unknown scoring variant %q", value)
	}
}

const maxOptions = 4

type BusinessOption struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
}

type Option struct {
	Letter string `json:"letter"`
	Text   string `json:"text"`
	Weight int    `json:"weight"`
}

type Question struct {
	ID            int      `json:"id"`
	Text          string   `json:"text"`
	Options       []Option `json:"options"`
	Correct       string   `json:"correct,omitempty"`
	BusinessID    int      `json:"business_id,omitempty"`
	BusinessLabel string   `json:"business_label,omitempty"`
}

// AnswerRecord maps a question's position in the session to the text of the
// selected option.
type AnswerRecord map[int]string

func (a AnswerRecord) clone() AnswerRecord {
	out := make(AnswerRecord, len(a))
	for idx, value := range a {
		out[idx] = value
	}
	return out
}

// BuildOptions turns the positional option slots of a question (A, B, C, D)
// into options. Slots with blank text are dropped but the remaining options
// keep their original letter.
func BuildOptions(texts []string, weights []int) []Option {
	options := make([]Option, 0, len(texts))
	for idx, text := range texts {
		if idx >= maxOptions {
			break
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		weight := 0
		if idx < len(weights) {
			weight = weights[idx]
		}
		options = append(options, Option{
			Letter: string(rune('A' + idx)),
			Text:   text,
			Weight: weight,
		})
	}
	return options
}

// Option returns the selectable option whose text equals value.
func (q Question) Option(value string) (Option, bool) {
	if value == "" {
		return Option{}, false
	}
	for _, option := range q.Options {
		if option.Text != "" && option.Text == value {
			return option, true
		}
	}
	return Option{}, false
}

// OptionByLetter resolves a letter typed by the user (case-insensitive).
func (q Question) OptionByLetter(letter string) (Option, bool) {
	letter = NormalizeLetter(letter)
	if letter == "" {
		return Option{}, false
	}
	for _, option := range q.Options {
		if option.Letter == letter && option.Text != "" {
			return option, true
		}
	}
	return Option{}, false
}

// ValidateShape checks the question exposes at least two selectable options.
// It holds under every scoring variant.
func (q Question) ValidateShape() error {
	selectable := 0
	for _, option := range q.Options {
		if option.Text != "" {
			selectable++
		}
	}
	if selectable < 2 {
		return fmt.Errorf("question %d: needs at least two options, has %d", q.ID, selectable)
	}
	return nil
}

// Validate checks the question can be presented and scored under variant.
func (q Question) Validate(variant Variant) error {
	if err := q.ValidateShape(); err != nil {
		return err
	}
	switch variant {
	case VariantPercentage:
		if _, ok := q.Option(q.Correct); !ok {
			return fmt.Errorf("question %d: correct answer %q is not one of its options", q.ID, q.Correct)
		}
	default:
		for _, option := range q.Options {
			if option.Text != "" && option.Weight < 0 {
				return fmt.Errorf("question %d: option %s has negative weight", q.ID, option.Letter)
			}
		}
	}
	return nil
}

// clone copies the question so callers cannot reach the session's options.
func (q Question) clone() Question {
	q.Options = append([]Option(nil), q.Options...)
	return q
}

func NormalizeLetter(answer string) string {
	letter := strings.ToUpper(strings.TrimSpace(answer))
	if len(letter) != 1 {
		return ""
	}
	if letter[0] < 'A' || letter[0] >= byte('A'+maxOptions) {
		return ""
	}
	return letter
}
