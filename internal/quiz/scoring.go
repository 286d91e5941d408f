package quiz

import "math"

type ScoreResult struct {
	Variant  Variant `json:"variant"`
	Score    int     `json:"score"`
	Answered int     `json:"answered"`
	Total    int     `json:"total"`
}

// WeightedScore sums the weight of the chosen option of every question.
// Unanswered questions, and answers that no longer match an option, add 0.
func WeightedScore(questions []Question, answers AnswerRecord) int {
	total := 0
	for idx, question := range questions {
		option, ok := question.Option(answers[idx])
		if !ok {
			continue
		}
		total += option.Weight
	}
	return total
}

// PercentageScore is the share of answers equal to the question's correct
// value, as a rounded percentage. An empty question list scores 0.
func PercentageScore(questions []Question, answers AnswerRecord) int {
	if len(questions) == 0 {
		return 0
	}

	correct := 0
	for idx, question := range questions {
		answer, ok := answers[idx]
		if ok && answer != "" && answer == question.Correct {
			correct++
		}
	}
	return int(math.Round(float64(correct) / float64(len(questions)) * 100))
}

func Score(variant Variant, questions []Question, answers AnswerRecord) int {
	if variant == VariantPercentage {
		return PercentageScore(questions, answers)
	}
	return WeightedScore(questions, answers)
}

func scoreResult(variant Variant, questions []Question, answers AnswerRecord) ScoreResult {
	answered := 0
	for idx := range questions {
		if answers[idx] != "" {
			answered++
		}
	}
	return ScoreResult{
		Variant:  variant,
		Score:    Score(variant, questions, answers),
		Answered: answered,
		Total:    len(questions),
	}
}
