package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	answerDomain "github.com/reshetovitsme/askanon/internal/modules/answer/domain"
	questionDomain "github.com/reshetovitsme/askanon/internal/modules/question/domain"
)

// maxBodyBytes caps JSON request bodies
const maxBodyBytes = 16 << 10

type submitQuestionRequest struct {
	Question string `json:"question"`
}

type submitAnswerRequest struct {
	Answer string `json:"answer"`
}

type createdResponse struct {
	ID string `json:"id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleAPIListQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := s.questions.ListApproved(r.Context())
	if err != nil {
		s.apiError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(questions))
}

func (s *Server) handleAPISubmitQuestion(w http.ResponseWriter, r *http.Request) {
	var req submitQuestionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body.")
		return
	}

	question, err := s.questions.Submit(r.Context(), req.Question)
	if err != nil {
		s.apiError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdResponse{ID: question.ID})
}

func (s *Server) handleAPIListAnswers(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.questions.GetApproved(r.Context(), id); err != nil {
		s.apiError(w, r, err)
		return
	}

	answers, err := s.answers.List(r.Context(), id)
	if err != nil {
		s.apiError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(answers))
}

func (s *Server) handleAPISubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var req submitAnswerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body.")
		return
	}

	answer, err := s.answers.Submit(r.Context(), r.PathValue("id"), req.Answer)
	if err != nil {
		s.apiError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdResponse{ID: answer.ID})
}

func (s *Server) handleAPIListPending(w http.ResponseWriter, r *http.Request) {
	questions, err := s.questions.ListPending(r.Context())
	if err != nil {
		s.apiError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(questions))
}

func (s *Server) handleAPIListApproved(w http.ResponseWriter, r *http.Request) {
	questions, err := s.questions.ListApprovedForAdmin(r.Context())
	if err != nil {
		s.apiError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(questions))
}

func (s *Server) handleAPIApprove(w http.ResponseWriter, r *http.Request) {
	if err := s.questions.Approve(r.Context(), r.PathValue("id")); err != nil {
		s.apiError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAPIDeletePending(w http.ResponseWriter, r *http.Request) {
	if err := s.questions.DeletePending(r.Context(), r.PathValue("id")); err != nil {
		s.apiError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAPIDeleteApproved(w http.ResponseWriter, r *http.Request) {
	if err := s.questions.DeleteApproved(r.Context(), r.PathValue("id")); err != nil {
		s.apiError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAPIDeleteAnswer(w http.ResponseWriter, r *http.Request) {
	if err := s.answers.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.apiError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// apiError writes err as {"error": ...} with the matching status
func (s *Server) apiError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err, http.StatusBadRequest)
	if status == http.StatusInternalServerError {
		s.logger.Error("API request failed", "path", r.URL.Path, "error", err)
	}
	writeError(w, status, userMessage(err))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after JSON body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// nonNil makes empty lists encode as [] instead of null
func nonNil[T questionDomain.Question | answerDomain.Answer](items []*T) []*T {
	if items == nil {
		return []*T{}
	}
	return items
}
