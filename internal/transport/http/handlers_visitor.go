package http

import (
	"html/template"
	"net/http"
	"net/url"

	answerDomain "github.com/reshetovitsme/askanon/internal/modules/answer/domain"
	questionDomain "github.com/reshetovitsme/askanon/internal/modules/question/domain"
	apperrors "github.com/reshetovitsme/askanon/internal/shared/errors"
)

// Notices shown after a redirect
var notices = map[string]string{
	"submitted": "Question submitted for approval!",
	"answered":  "Thanks for your answer!",
}

type indexView struct {
	Intro     template.HTML
	Questions []*questionDomain.Question
	Draft     string
}

type questionView struct {
	Question    *questionDomain.Question
	Answers     []*answerDomain.Answer
	Draft       string
	Placeholder string
	MaxWords    int
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderIndex(w, r, http.StatusOK, "", nil)
}

func (s *Server) renderIndex(w http.ResponseWriter, r *http.Request, status int, draft string, formErr error) {
	questions, err := s.questions.ListApproved(r.Context())
	if err != nil {
		s.logger.Error("Error listing approved questions", "error", err)
		s.renderMessage(w, r, http.StatusInternalServerError, userMessage(err))
		return
	}

	p := s.newPage(r, s.cfg.SiteTitle)
	p.Notice = notices[r.URL.Query().Get("notice")]
	if formErr != nil {
		p.Error = userMessage(formErr)
	}
	p.Data = indexView{Intro: s.intro, Questions: questions, Draft: draft}
	s.render(w, status, "index.html", p)
}

func (s *Server) handleSubmitQuestion(w http.ResponseWriter, r *http.Request) {
	text := r.PostFormValue("question")

	if _, err := s.questions.Submit(r.Context(), text); err != nil {
		if !apperrors.IsValidation(err) {
			s.logger.Error("Error submitting question", "error", err)
		}
		s.renderIndex(w, r, statusFor(err, http.StatusUnprocessableEntity), text, err)
		return
	}

	http.Redirect(w, r, "/?notice=submitted", http.StatusSeeOther)
}

func (s *Server) handleQuestion(w http.ResponseWriter, r *http.Request) {
	s.renderQuestion(w, r, http.StatusOK, "", nil)
}

func (s *Server) renderQuestion(w http.ResponseWriter, r *http.Request, status int, draft string, formErr error) {
	id := r.PathValue("id")

	question, err := s.questions.GetApproved(r.Context(), id)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			s.logger.Error("Error loading question", "question_id", id, "error", err)
		}
		s.renderMessage(w, r, statusFor(err, http.StatusBadRequest), userMessage(err))
		return
	}

	answers, err := s.answers.List(r.Context(), id)
	if err != nil {
		s.logger.Error("Error listing answers", "question_id", id, "error", err)
		s.renderMessage(w, r, http.StatusInternalServerError, userMessage(err))
		return
	}

	p := s.newPage(r, question.Text)
	p.Notice = notices[r.URL.Query().Get("notice")]
	if formErr != nil {
		p.Error = userMessage(formErr)
	}
	p.Data = questionView{
		Question:    question,
		Answers:     answers,
		Draft:       draft,
		Placeholder: "In not more than 10 words, sweetie",
		MaxWords:    answerDomain.MaxWords,
	}
	s.render(w, status, "question.html", p)
}

func (s *Server) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	text := r.PostFormValue("answer")

	if _, err := s.answers.Submit(r.Context(), id, text); err != nil {
		if !apperrors.IsValidation(err) && !apperrors.IsNotFound(err) {
			s.logger.Error("Error submitting answer", "question_id", id, "error", err)
		}
		s.renderQuestion(w, r, statusFor(err, http.StatusUnprocessableEntity), text, err)
		return
	}

	http.Redirect(w, r, "/questions/"+url.PathEscape(id)+"?notice=answered", http.StatusSeeOther)
}
