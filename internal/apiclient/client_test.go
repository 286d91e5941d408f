package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizquiz/internal/advice"
	"bizquiz/internal/quiz"
	"bizquiz/internal/wire"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func fastRetry(attempts int) Option {
	return WithRetry(RetryConfig{MaxAttempts: attempts, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond})
}

func intPtr(v int) *int { return &v }

func TestDoJSONReturnsServiceUnavailable(t *testing.T) {
	client := New("http://example.test", WithHTTPClient(&http.Client{
		Transport: roundTripperFunc(func(*http.Request) (*http.Response, error) {
			return nil, errors.New("dial error")
		}),
	}))

	err := client.doJSON(context.Background(), http.MethodGet, "/health", nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrServiceUnavailable)
}

func TestDoJSONReturnsAPIErrorMessageFromBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(wire.ErrorResponse{Error: "bad request payload"})
	}))
	defer server.Close()

	client := New(server.URL, WithHTTPClient(server.Client()))
	err := client.doJSON(context.Background(), http.MethodGet, "/anything", nil, nil)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "expected *APIError, got %T (%v)", err, err)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "bad request payload", apiErr.Message)
}

func TestDoJSONSendsHeaders(t *testing.T) {
	var seen http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Clone()
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := New(server.URL, WithHTTPClient(server.Client()), WithTokenSource(StaticToken("tok-1")))
	require.NoError(t, client.doJSON(context.Background(), http.MethodPost, "/x", map[string]string{"a": "b"}, &struct{}{}))

	assert.Equal(t, "Bearer tok-1", seen.Get("Authorization"))
	assert.Equal(t, "true", seen.Get("ngrok-skip-browser-warning"))
	assert.Equal(t, "application/json", seen.Get("Content-Type"))

	client = New(server.URL, WithHTTPClient(server.Client()), WithSkipBrowserWarning(false), WithTokenSource(StaticToken("")))
	require.NoError(t, client.doJSON(context.Background(), http.MethodGet, "/x", nil, nil))
	assert.Empty(t, seen.Get("Authorization"))
	assert.Empty(t, seen.Get("ngrok-skip-browser-warning"))
}

func TestFetchBusinesses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/businesses", r.URL.Path)
		_, _ = w.Write([]byte(`[{"id":1,"types":" Retail "},{"id":2,"types":"Online"}]`))
	}))
	defer server.Close()

	client := New(server.URL, WithHTTPClient(server.Client()))
	options, err := client.FetchBusinesses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []quiz.BusinessOption{{ID: 1, Label: "Retail"}, {ID: 2, Label: "Online"}}, options)
}

func TestFetchBusinessesFailures(t *testing.T) {
	cases := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantIs     error
	}{
		{name: "not found", status: http.StatusNotFound, body: `{"error":"missing"}`, wantStatus: http.StatusNotFound},
		{name: "garbage", status: http.StatusOK, body: `<html>`, wantIs: quiz.ErrMalformedPayload},
		{name: "no label", status: http.StatusOK, body: `[{"id":3,"types":""}]`, wantIs: quiz.ErrMalformedPayload},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			client := New(server.URL, WithHTTPClient(server.Client()), fastRetry(1))
			_, err := client.FetchBusinesses(context.Background())

			var fetchErr *quiz.FetchError
			require.True(t, errors.As(err, &fetchErr), "expected *quiz.FetchError, got %T", err)
			assert.Equal(t, tc.wantStatus, fetchErr.StatusCode)
			if tc.wantIs != nil {
				assert.ErrorIs(t, err, tc.wantIs)
			}
		})
	}
}

func TestFetchRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[{"id":1,"types":"Retail"}]`))
	}))
	defer server.Close()

	client := New(server.URL, WithHTTPClient(server.Client()), fastRetry(3))
	options, err := client.FetchBusinesses(context.Background())
	require.NoError(t, err)
	assert.Len(t, options, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := New(server.URL, WithHTTPClient(server.Client()), fastRetry(3))
	_, err := client.FetchBusinesses(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchHonoursTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	client := New(server.URL, WithTimeout(50*time.Millisecond), fastRetry(1))
	start := time.Now()
	_, err := client.FetchBusinesses(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrServiceUnavailable)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestFetchQuestionsBuildsQueryAndPreservesOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tests/", r.URL.Path)
		assert.Equal(t, "4", r.URL.Query().Get("business_id"))
		assert.Equal(t, "uz-Latn", r.URL.Query().Get("lang"))

		_ = json.NewEncoder(w).Encode([]wire.Question{
			{ID: 9, Question: "Second?", OptionA: "yes", OptionB: "no", OptionAScore: intPtr(10), OptionBScore: intPtr(0), Business: &wire.Business{ID: 4, Types: "Retail"}},
			{ID: 2, Question: "First?", OptionA: "a", OptionB: "", OptionC: "c", Answer: "c"},
		})
	}))
	defer server.Close()

	client := New(server.URL, WithHTTPClient(server.Client()))
	questions, err := client.FetchQuestions(context.Background(), 4, "UZ-latn")
	require.NoError(t, err)
	require.Len(t, questions, 2)

	assert.Equal(t, 9, questions[0].ID)
	assert.Equal(t, "Retail", questions[0].BusinessLabel)
	assert.Equal(t, []quiz.Option{{Letter: "A", Text: "yes", Weight: 10}, {Letter: "B", Text: "no", Weight: 0}}, questions[0].Options)

	assert.Equal(t, 2, questions[1].ID)
	assert.Equal(t, []quiz.Option{{Letter: "A", Text: "a"}, {Letter: "C", Text: "c"}}, questions[1].Options)
	assert.Equal(t, "c", questions[1].Correct)
}

func TestFetchQuestionsRejectsMalformedQuestions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode([]wire.Question{
			{ID: 1, Question: "Only one option", OptionA: "solo"},
		})
	}))
	defer server.Close()

	client := New(server.URL, WithHTTPClient(server.Client()))
	_, err := client.FetchQuestions(context.Background(), 1, "")
	var fetchErr *quiz.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.ErrorIs(t, err, quiz.ErrMalformedPayload)
}

func TestFetchQuestionsLeavesScoringRulesToSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"id":1,"question":"Ready?","option_a":"x","option_b":"y","option_a_score":-1,"answer":"x"}]`))
	}))
	defer server.Close()

	client := New(server.URL, WithHTTPClient(server.Client()))
	questions, err := client.FetchQuestions(context.Background(), 1, "")
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, -1, questions[0].Options[0].Weight)

	session := quiz.NewSession(client, quiz.VariantPercentage)
	require.NoError(t, session.SelectCategory(context.Background(), 1, ""))
	assert.Equal(t, quiz.PhaseInProgress, session.Phase())

	weighted := quiz.NewSession(client, quiz.VariantWeighted)
	err = weighted.SelectCategory(context.Background(), 1, "")
	assert.ErrorIs(t, err, quiz.ErrMalformedPayload)
}

func TestFetchQuestionsValidatesInput(t *testing.T) {
	client := New("http://example.test", WithHTTPClient(&http.Client{
		Transport: roundTripperFunc(func(*http.Request) (*http.Response, error) {
			assert.Fail(t, "no request expected")
			return nil, errors.New("unexpected request")
		}),
	}))

	_, err := client.FetchQuestions(context.Background(), 0, "")
	assert.ErrorIs(t, err, quiz.ErrNoCategory)

	_, err = client.FetchQuestions(context.Background(), 1, "not a language!")
	var validationErr *quiz.ValidationError
	assert.True(t, errors.As(err, &validationErr))
}

func TestFetchQuestionsEmptySet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := New(server.URL, WithHTTPClient(server.Client()))
	questions, err := client.FetchQuestions(context.Background(), 5, "")
	require.NoError(t, err)
	assert.Empty(t, questions)
}

func TestLoginAndRegister(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login":
			var req wire.LoginRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			if req.Password != "secret" {
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(wire.ErrorResponse{Error: "invalid credentials"})
				return
			}
			_ = json.NewEncoder(w).Encode(wire.AuthResponse{AccessToken: "t-login", User: wire.User{ID: 1, PhoneNumber: req.PhoneNumber}})
		case "/auth/register":
			var req wire.RegisterRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "Ali Valiyev", req.Fullname)
			assert.Equal(t, 30, req.Age)
			_ = json.NewEncoder(w).Encode(wire.AuthResponse{AccessToken: "t-reg", User: wire.User{ID: 2, Fullname: req.Fullname}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := New(server.URL, WithHTTPClient(server.Client()))

	auth, err := client.Login(context.Background(), " +998901112233 ", "secret")
	require.NoError(t, err)
	assert.Equal(t, "t-login", auth.AccessToken)
	assert.Equal(t, "+998901112233", auth.User.PhoneNumber)

	_, err = client.Login(context.Background(), "+998901112233", "wrong")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "invalid credentials", apiErr.Message)

	auth, err = client.Register(context.Background(), wire.RegisterRequest{Fullname: "Ali Valiyev", Age: 30, PhoneNumber: "+998901112244", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "t-reg", auth.AccessToken)
}

func TestGenerateAdvice(t *testing.T) {
	var got wire.AdviceRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		if len(got.Answers) == 1 {
			_ = json.NewEncoder(w).Encode(wire.AdviceResponse{Error: "model overloaded"})
			return
		}
		_ = json.NewEncoder(w).Encode(wire.AdviceResponse{Advice: "Hire an accountant."})
	}))
	defer server.Close()

	client := New(server.URL, WithHTTPClient(server.Client()))
	text, err := client.GenerateAdvice(context.Background(), advice.Request{
		Answers:  []advice.QA{{Question: "Q1", UserAnswer: "A"}, {Question: "Q2", UserAnswer: advice.DefaultUnanswered}},
		Language: "uz",
	})
	require.NoError(t, err)
	assert.Equal(t, "Hire an accountant.", text)
	assert.Equal(t, "uz", got.Lang)
	assert.Equal(t, advice.DefaultUnanswered, got.Answers[1].UserAnswer)

	_, err = client.GenerateAdvice(context.Background(), advice.Request{Answers: []advice.QA{{Question: "Q1"}}})
	assert.EqualError(t, err, "model overloaded")
}

func TestCheckSubscription(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		userID, ok := raw["user_id"].(float64)
		require.True(t, ok, "user_id must be a JSON number, got %T", raw["user_id"])
		_ = json.NewEncoder(w).Encode(wire.SubscriptionResponse{IsSubscribed: userID == 7})
	}))
	defer server.Close()

	client := New(server.URL, WithHTTPClient(server.Client()))
	ok, err := client.CheckSubscription(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.CheckSubscription(context.Background(), 8)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = client.CheckSubscription(context.Background(), 0)
	assert.Error(t, err)
}

func TestAdminRequests(t *testing.T) {
	var requests []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r.Method+" "+r.URL.Path)
		assert.Equal(t, "Bearer admin", r.Header.Get("Authorization"))
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/businesses":
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(wire.Business{ID: 11, Types: "Cafe"})
		case r.Method == http.MethodPost && r.URL.Path == "/tests/":
			var req wire.NewQuestion
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(wire.Question{ID: 5, Question: req.Question, OptionA: req.OptionA, OptionB: req.OptionB})
		case r.Method == http.MethodGet:
			_, _ = w.Write([]byte(`[{"id":5,"question":"Q","option_a":"a","option_b":"b"}]`))
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer server.Close()

	client := New(server.URL, WithHTTPClient(server.Client()), WithTokenSource(StaticToken("admin")))
	ctx := context.Background()

	business, err := client.CreateBusiness(ctx, " Cafe ")
	require.NoError(t, err)
	assert.Equal(t, 11, business.ID)

	question, err := client.CreateQuestion(ctx, wire.NewQuestion{BusinessID: 11, Question: "Q", OptionA: "a", OptionB: "b"})
	require.NoError(t, err)
	assert.Equal(t, 5, question.ID)

	listed, err := client.ListQuestions(ctx)
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	require.NoError(t, client.DeleteQuestion(ctx, 5))
	require.NoError(t, client.DeleteBusiness(ctx, 11))

	assert.Equal(t, []string{
		"POST /businesses",
		"POST /tests/",
		"GET /tests/",
		"DELETE /tests/5",
		"DELETE /businesses/11",
	}, requests)

	_, err = client.CreateBusiness(ctx, " ")
	assert.Error(t, err)
	assert.Error(t, client.DeleteQuestion(ctx, 0))
}
