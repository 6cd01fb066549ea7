package http

import (
	"fmt"
	"net/http"

	"cashflow/internal/core"
	"cashflow/internal/ledger"
	"cashflow/internal/report"
)

type bookJSON struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Transactions int            `json:"transactions"`
	Summary      report.Summary `json:"summary"`
}

type businessJSON struct {
	ID    string            `json:"id"`
	Name  string            `json:"name"`
	Role  core.Role         `json:"role,omitempty"`
	Books []bookJSON        `json:"books"`
	Team  []core.TeamMember `json:"team"`
}

func toBookJSON(bk core.Book) bookJSON {
	return bookJSON{
		ID:           bk.ID,
		Name:         bk.Name,
		Transactions: len(bk.Transactions),
		Summary:      report.Summarize(bk.Transactions),
	}
}

func toBooksJSON(books []core.Book) []bookJSON {
	out := make([]bookJSON, 0, len(books))
	for _, bk := range books {
		out = append(out, toBookJSON(bk))
	}
	return out
}

func toBusinessJSON(b core.Business, user *core.User) businessJSON {
	out := businessJSON{
		ID:    b.ID,
		Name:  b.Name,
		Books: toBooksJSON(b.Books),
		Team:  b.Team,
	}
	if out.Team == nil {
		out.Team = []core.TeamMember{}
	}
	if user != nil {
		if m, ok := b.MemberByEmail(user.Email); ok {
			out.Role = m.Role
		}
	}
	return out
}

// business looks up the {id} path value in the current snapshot.
func (s *Server) business(r *http.Request) (core.Business, error) {
	id := r.PathValue("id")
	b, ok := s.svc.Snapshot().Business(id)
	if !ok {
		return core.Business{}, fmt.Errorf("business %q: %w", id, core.ErrNotFound)
	}
	return b, nil
}

func (s *Server) writeBusiness(w http.ResponseWriter, status int, id string) error {
	st := s.svc.Snapshot()
	b, ok := st.Business(id)
	if !ok {
		return fmt.Errorf("business %q: %w", id, core.ErrNotFound)
	}
	writeJSON(w, status, toBusinessJSON(b, st.CurrentUser))
	return nil
}

func (s *Server) handleListBusinesses(w http.ResponseWriter, r *http.Request) error {
	st := s.svc.Snapshot()
	out := make([]businessJSON, 0, len(st.Businesses))
	for _, b := range st.Businesses {
		out = append(out, toBusinessJSON(b, st.CurrentUser))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"activeBusinessId": st.ActiveBusinessID,
		"businesses":       out,
	})
	return nil
}

type nameRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleCreateBusiness(w http.ResponseWriter, r *http.Request) error {
	var req nameRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	res, err := s.svc.Execute(r.Context(), ledger.CreateBusiness{Name: req.Name})
	if err != nil {
		return err
	}
	return s.writeBusiness(w, http.StatusCreated, res.ID)
}

func (s *Server) handleUpdateBusiness(w http.ResponseWriter, r *http.Request) error {
	var req nameRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	id := r.PathValue("id")
	if _, err := s.svc.Execute(r.Context(), ledger.UpdateBusiness{ID: id, Name: req.Name}); err != nil {
		return err
	}
	return s.writeBusiness(w, http.StatusOK, id)
}

func (s *Server) handleDeleteBusiness(w http.ResponseWriter, r *http.Request) error {
	target := ledger.BusinessTarget{BusinessID: r.PathValue("id")}
	if _, err := s.svc.Execute(r.Context(), ledger.Delete{Target: target}); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *Server) handleDuplicateBusiness(w http.ResponseWriter, r *http.Request) error {
	res, err := s.svc.Execute(r.Context(), ledger.DuplicateBusiness{ID: r.PathValue("id")})
	if err != nil {
		return err
	}
	return s.writeBusiness(w, http.StatusCreated, res.ID)
}

func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) error {
	b, err := s.business(r)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, toBooksJSON(report.SearchBooks(b, r.URL.Query().Get("q"))))
	return nil
}

func (s *Server) writeBook(w http.ResponseWriter, status int, businessID, bookID string) error {
	b, ok := s.svc.Snapshot().Business(businessID)
	if !ok {
		return fmt.Errorf("business %q: %w", businessID, core.ErrNotFound)
	}
	bk, ok := b.FindBook(bookID)
	if !ok {
		return fmt.Errorf("book %q: %w", bookID, core.ErrNotFound)
	}
	writeJSON(w, status, toBookJSON(bk))
	return nil
}

func (s *Server) handleCreateBook(w http.ResponseWriter, r *http.Request) error {
	var req nameRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	businessID := r.PathValue("id")
	res, err := s.svc.Execute(r.Context(), ledger.CreateBook{BusinessID: businessID, Name: req.Name})
	if err != nil {
		return err
	}
	return s.writeBook(w, http.StatusCreated, businessID, res.ID)
}

func (s *Server) handleUpdateBook(w http.ResponseWriter, r *http.Request) error {
	var req nameRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	businessID, bookID := r.PathValue("id"), r.PathValue("bookID")
	cmd := ledger.UpdateBook{BusinessID: businessID, BookID: bookID, Name: req.Name}
	if _, err := s.svc.Execute(r.Context(), cmd); err != nil {
		return err
	}
	return s.writeBook(w, http.StatusOK, businessID, bookID)
}

func (s *Server) handleDeleteBook(w http.ResponseWriter, r *http.Request) error {
	target := ledger.BookTarget{BusinessID: r.PathValue("id"), BookID: r.PathValue("bookID")}
	if _, err := s.svc.Execute(r.Context(), ledger.Delete{Target: target}); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}
