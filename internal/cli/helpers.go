package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"bizquiz/internal/advice"
	"bizquiz/internal/apiclient"
	"bizquiz/internal/quiz"
)

func printHelp(out io.Writer) {
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  businesses [refresh]")
	fmt.Fprintln(out, "  select <business_id> [language]")
	fmt.Fprintln(out, "  answer <letter>   (or just type the letter)")
	fmt.Fprintln(out, "  next | prev | show")
	fmt.Fprintln(out, "  result")
	fmt.Fprintln(out, "  links | ack <1|2> | advice")
	fmt.Fprintln(out, "  reset")
	fmt.Fprintln(out, "  help | exit")
}

func parseID(raw string) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value <= 0 {
		return 0, errors.New("must be a positive integer")
	}
	return value, nil
}

func formatScore(score quiz.ScoreResult) string {
	if score.Variant == quiz.VariantPercentage {
		return strconv.Itoa(score.Score) + "%"
	}
	return strconv.Itoa(score.Score)
}

func navigationHint(canPrev, canNext, last bool) string {
	parts := make([]string, 0, 2)
	if canPrev {
		parts = append(parts, "'prev'")
	}
	switch {
	case canNext && last:
		parts = append(parts, "'next' to finish")
	case canNext:
		parts = append(parts, "'next'")
	default:
		parts = append(parts, "pick an answer to continue")
	}
	return strings.Join(parts, " | ")
}

// describeError turns a client-library error into a line for the user.
func describeError(err error, serverURL string) string {
	var validationErr *quiz.ValidationError
	var fetchErr *quiz.FetchError
	var adviceErr *advice.AdviceFetchError

	switch {
	case errors.As(err, &validationErr):
		return "not allowed: " + validationErr.Err.Error()
	case errors.Is(err, advice.ErrNotSubscribed):
		return "subscribe to the channel first, then try 'advice' again"
	case errors.As(err, &adviceErr):
		return fmt.Sprintf("could not get advice (%s); try 'advice' again", clientReason(adviceErr.Err, serverURL))
	case errors.As(err, &fetchErr):
		return fmt.Sprintf("could not %s: %s; try again", fetchErr.Op, clientReason(fetchErr.Err, serverURL))
	default:
		return "error: " + clientReason(err, serverURL)
	}
}

func clientReason(err error, serverURL string) string {
	if errors.Is(err, apiclient.ErrServiceUnavailable) {
		return fmt.Sprintf("quiz service unavailable at %s", serverURL)
	}
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("%s (status %d)", apiErr.Error(), apiErr.StatusCode)
	}
	return err.Error()
}
