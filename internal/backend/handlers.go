package backend

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/language"

	"bizquiz/internal/wire"
)

func (a *API) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) HandleListBusinesses(w http.ResponseWriter, r *http.Request) {
	businesses, err := a.store.ListBusinesses(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, businesses)
}

// HandleListQuestions serves GET /tests/?business_id=&lang=. Listing every
// business at once is reserved for admins.
func (a *API) HandleListQuestions(w http.ResponseWriter, r *http.Request) {
	businessID, err := parseIntParam(r, "business_id", 0)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	if businessID == 0 && !a.isAdmin(r) {
		writeJSON(w, http.StatusBadRequest, errorResponse("business_id is required"))
		return
	}
	a.writeQuestions(w, r, businessID)
}

func (a *API) HandleBusinessQuestions(w http.ResponseWriter, r *http.Request) {
	businessID, err := parsePathID(r, "business_id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	a.writeQuestions(w, r, businessID)
}

func (a *API) writeQuestions(w http.ResponseWriter, r *http.Request, businessID int) {
	lang := strings.TrimSpace(r.URL.Query().Get("lang"))
	if lang != "" {
		tag, err := language.Parse(lang)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse("lang must be a language tag"))
			return
		}
		lang = tag.String()
	}

	questions, err := a.store.ListQuestions(r.Context(), businessID, lang)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if questions == nil {
		questions = []wire.Question{}
	}
	writeJSON(w, http.StatusOK, questions)
}

func (a *API) HandleCreateBusiness(w http.ResponseWriter, r *http.Request) {
	var request wire.Business
	if !a.decodeAndValidate(w, r, &request) {
		return
	}

	business, err := a.store.CreateBusiness(r.Context(), strings.TrimSpace(request.Types))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, business)
}

func (a *API) HandleDeleteBusiness(w http.ResponseWriter, r *http.Request) {
	id, err := parsePathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	if err := a.store.DeleteBusiness(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) HandleCreateQuestion(w http.ResponseWriter, r *http.Request) {
	var request wire.NewQuestion
	if !a.decodeAndValidate(w, r, &request) {
		return
	}
	if answer := strings.TrimSpace(request.Answer); answer != "" {
		options := []string{request.OptionA, request.OptionB, request.OptionC, request.OptionD}
		found := false
		for _, option := range options {
			if strings.TrimSpace(option) == answer {
				found = true
				break
			}
		}
		if !found {
			writeJSON(w, http.StatusBadRequest, errorResponse("answer must match one of the options"))
			return
		}
	}

	question, err := a.store.CreateQuestion(r.Context(), request)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, question)
}

func (a *API) HandleDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := parsePathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	if err := a.store.DeleteQuestion(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var request wire.RegisterRequest
	if !a.decodeAndValidate(w, r, &request) {
		return
	}
	request.Fullname = strings.TrimSpace(request.Fullname)
	request.PhoneNumber = strings.TrimSpace(request.PhoneNumber)

	hash, err := bcrypt.GenerateFromPassword([]byte(request.Password), bcrypt.DefaultCost)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	user, err := a.store.CreateUser(r.Context(), request, hash)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	a.writeSession(w, r, http.StatusCreated, user)
}

func (a *API) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var request wire.LoginRequest
	if !a.decodeAndValidate(w, r, &request) {
		return
	}

	account, err := a.store.FindAccount(r.Context(), strings.TrimSpace(request.PhoneNumber))
	if errors.Is(err, ErrNotFound) {
		writeServiceError(w, ErrInvalidCredentials)
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if err := bcrypt.CompareHashAndPassword(account.PasswordHash, []byte(request.Password)); err != nil {
		writeServiceError(w, ErrInvalidCredentials)
		return
	}
	a.writeSession(w, r, http.StatusOK, account.User)
}

func (a *API) writeSession(w http.ResponseWriter, r *http.Request, status int, user wire.User) {
	token := uuid.NewString()
	if err := a.store.SaveToken(r.Context(), token, user.ID); err != nil {
		writeServiceError(w, err)
		return
	}
	zap.L().Info("session issued", zap.Int("user_id", user.ID))
	writeJSON(w, status, wire.AuthResponse{AccessToken: token, User: user})
}

func (a *API) HandleAdvice(w http.ResponseWriter, r *http.Request) {
	if a.limiter != nil && !a.limiter.Allow() {
		writeJSON(w, http.StatusTooManyRequests, errorResponse("too many advice requests, try again shortly"))
		return
	}

	var request wire.AdviceRequest
	if !a.decodeAndValidate(w, r, &request) {
		return
	}

	fields := []zap.Field{zap.Int("answers", len(request.Answers))}
	if user, ok := requestUser(r); ok {
		fields = append(fields, zap.Int("user_id", user.ID))
	}

	text, err := a.advisor.Advise(r.Context(), request)
	if err != nil {
		zap.L().Warn("advice generation failed", append(fields, zap.Error(err))...)
		writeJSON(w, http.StatusBadGateway, errorResponse("advice is unavailable right now"))
		return
	}
	zap.L().Info("advice served", fields...)
	writeJSON(w, http.StatusOK, wire.AdviceResponse{Advice: text})
}

func (a *API) HandleCheckSubscription(w http.ResponseWriter, r *http.Request) {
	var request wire.SubscriptionRequest
	if !a.decodeAndValidate(w, r, &request) {
		return
	}

	account, err := a.store.AccountByID(r.Context(), request.UserID)
	if errors.Is(err, ErrNotFound) {
		writeJSON(w, http.StatusOK, wire.SubscriptionResponse{IsSubscribed: false})
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wire.SubscriptionResponse{IsSubscribed: account.Subscribed})
}
