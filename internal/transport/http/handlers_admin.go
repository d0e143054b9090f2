package http

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	answerDomain "github.com/reshetovitsme/askanon/internal/modules/answer/domain"
	questionDomain "github.com/reshetovitsme/askanon/internal/modules/question/domain"
	apperrors "github.com/reshetovitsme/askanon/internal/shared/errors"
)

type adminView struct {
	Pending  []*questionDomain.Question
	Approved []*questionDomain.Question
}

type adminAnswersView struct {
	Question *questionDomain.Question
	Answers  []*answerDomain.Answer
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "login.html", s.newPage(r, "Admin sign in"))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.PostFormValue("token"))

	claims, err := s.verifier.VerifyAdmin(raw)
	if err != nil {
		p := s.newPage(r, "Admin sign in")
		status := http.StatusUnauthorized
		p.Error = "Error checking admin status."
		if errors.Is(err, apperrors.ErrNotAdmin) {
			status = http.StatusForbidden
			p.Error = "Access denied: not an admin."
		}
		s.logger.Warn("Admin sign in rejected", "error", err)
		s.render(w, status, "login.html", p)
		return
	}

	cookie := &http.Cookie{
		Name:     sessionCookie,
		Value:    raw,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
	if claims.ExpiresAt != nil {
		cookie.Expires = claims.ExpiresAt.Time
	}
	http.SetCookie(w, cookie)

	s.logger.Info("Admin signed in", "subject", claims.Subject)
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleAdmin(w http.ResponseWriter, r *http.Request) {
	pending, err := s.questions.ListPending(r.Context())
	if err != nil {
		s.logger.Error("Error listing pending questions", "error", err)
		s.renderMessage(w, r, http.StatusInternalServerError, userMessage(err))
		return
	}

	approved, err := s.questions.ListApprovedForAdmin(r.Context())
	if err != nil {
		s.logger.Error("Error listing approved questions", "error", err)
		s.renderMessage(w, r, http.StatusInternalServerError, userMessage(err))
		return
	}

	p := s.newPage(r, "Admin")
	p.Data = adminView{Pending: pending, Approved: approved}
	s.render(w, http.StatusOK, "admin.html", p)
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	s.adminAction(w, r, "/admin", s.questions.Approve)
}

func (s *Server) handleDeletePending(w http.ResponseWriter, r *http.Request) {
	s.adminAction(w, r, "/admin", s.questions.DeletePending)
}

func (s *Server) handleDeleteApproved(w http.ResponseWriter, r *http.Request) {
	s.adminAction(w, r, "/admin", s.questions.DeleteApproved)
}

func (s *Server) handleDeleteAnswer(w http.ResponseWriter, r *http.Request) {
	back := "/admin"
	if qid := r.PostFormValue("question_id"); qid != "" {
		back = "/admin/questions/" + url.PathEscape(qid) + "/answers"
	}
	s.adminAction(w, r, back, s.answers.Delete)
}

func (s *Server) handleAdminAnswers(w http.ResponseWriter, r *http.Request) {
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

	p := s.newPage(r, "Answers")
	p.Data = adminAnswersView{Question: question, Answers: answers}
	s.render(w, http.StatusOK, "admin_answers.html", p)
}

// adminAction runs a moderation step on the {id} path value, then redirects
func (s *Server) adminAction(w http.ResponseWriter, r *http.Request, back string, action func(ctx context.Context, id string) error) {
	id := r.PathValue("id")
	if err := action(r.Context(), id); err != nil {
		if !apperrors.IsNotFound(err) {
			s.logger.Error("Admin action failed", "path", r.URL.Path, "id", id, "error", err)
		}
		s.renderMessage(w, r, statusFor(err, http.StatusBadRequest), userMessage(err))
		return
	}

	s.logger.Info("Admin action", "path", r.URL.Path, "id", id)
	http.Redirect(w, r, back, http.StatusSeeOther)
}
