package http

import (
	"fmt"
	"net/http"

	"cashflow/internal/core"
	"cashflow/internal/ledger"
	"cashflow/internal/session"
)

type sessionJSON struct {
	Authenticated    bool                `json:"authenticated"`
	User             *core.User          `json:"user,omitempty"`
	ActiveBusinessID string              `json:"activeBusinessId,omitempty"`
	View             string              `json:"view"`
	BookID           string              `json:"bookId,omitempty"`
	Theme            core.Theme          `json:"theme"`
	Currency         core.Currency       `json:"currency"`
	Language         core.Language       `json:"language"`
	Currencies       []core.CurrencyInfo `json:"currencies"`
	ExportQueue      bool                `json:"exportQueue"`
	AISummary        bool                `json:"aiSummary"`
}

func (s *Server) sessionBody() sessionJSON {
	st := s.svc.Snapshot()
	status := s.svc.Session().Status()
	return sessionJSON{
		Authenticated:    status.Authenticated,
		User:             status.User,
		ActiveBusinessID: status.ActiveBusinessID,
		View:             session.ViewName(status.View),
		BookID:           session.BookOf(status.View),
		Theme:            st.Theme,
		Currency:         st.Currency,
		Language:         st.Language,
		Currencies:       core.Currencies(),
		ExportQueue:      s.svc.ExportEnabled(),
		AISummary:        s.aiKey,
	}
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) error {
	writeJSON(w, http.StatusOK, s.sessionBody())
	return nil
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if _, err := s.svc.Session().Login(r.Context(), req.Username, req.Password); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, s.sessionBody())
	return nil
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) error {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if _, err := s.svc.Session().SignUp(r.Context(), req.Name, req.Email, req.Password); err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, s.sessionBody())
	return nil
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) error {
	if err := s.svc.Session().Logout(r.Context()); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, s.sessionBody())
	return nil
}

func (s *Server) handleSelectBusiness(w http.ResponseWriter, r *http.Request) error {
	var req struct {
		BusinessID string `json:"businessId"`
	}
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if err := s.svc.Session().SelectBusiness(r.Context(), req.BusinessID); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, s.sessionBody())
	return nil
}

func (s *Server) handleSelectView(w http.ResponseWriter, r *http.Request) error {
	var req struct {
		View   string `json:"view"`
		BookID string `json:"bookId"`
	}
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	v, err := session.ParseView(req.View, req.BookID)
	if err != nil {
		return err
	}
	if err := s.svc.Session().SelectView(v); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, s.sessionBody())
	return nil
}

// handlePreferences validates every given preference before applying any.
func (s *Server) handlePreferences(w http.ResponseWriter, r *http.Request) error {
	var req struct {
		Theme    *core.Theme    `json:"theme"`
		Currency *core.Currency `json:"currency"`
		Language *core.Language `json:"language"`
	}
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	var cmds []ledger.Command
	if req.Theme != nil {
		if !req.Theme.IsValid() {
			return fmt.Errorf("%w: %q", core.ErrInvalidTheme, *req.Theme)
		}
		cmds = append(cmds, ledger.SetTheme{Theme: *req.Theme})
	}
	if req.Currency != nil {
		if !req.Currency.IsValid() {
			return fmt.Errorf("%w: %q", core.ErrInvalidCurrency, *req.Currency)
		}
		cmds = append(cmds, ledger.SetCurrency{Currency: *req.Currency})
	}
	if req.Language != nil {
		if !req.Language.IsValid() {
			return fmt.Errorf("%w: %q", core.ErrInvalidLanguage, *req.Language)
		}
		cmds = append(cmds, ledger.SetLanguage{Language: *req.Language})
	}
	for _, cmd := range cmds {
		if _, err := s.svc.Execute(r.Context(), cmd); err != nil {
			return err
		}
	}
	writeJSON(w, http.StatusOK, s.sessionBody())
	return nil
}
