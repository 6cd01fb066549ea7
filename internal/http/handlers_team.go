package http

import (
	"net/http"
	"strconv"

	"cashflow/internal/core"
	"cashflow/internal/ledger"
	"cashflow/internal/report"
)

// allBusinessesID in the path invites to every business at once.
const allBusinessesID = "all"

func (s *Server) handleInvite(w http.ResponseWriter, r *http.Request) error {
	var req struct {
		Email string    `json:"email"`
		Role  core.Role `json:"role"`
	}
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	businessID := r.PathValue("id")
	if businessID == allBusinessesID {
		businessID = ledger.AllBusinesses
	}
	res, err := s.svc.Execute(r.Context(), ledger.InviteMember{BusinessID: businessID, Email: req.Email, Role: req.Role})
	if err != nil {
		return err
	}
	status := http.StatusCreated
	if res.Invited == 0 {
		status = http.StatusOK
	}
	writeJSON(w, status, map[string]int{"invited": res.Invited, "alreadyMember": res.AlreadyMember})
	return nil
}

func (s *Server) handleUpdateMemberRole(w http.ResponseWriter, r *http.Request) error {
	var req struct {
		Role core.Role `json:"role"`
	}
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	id := r.PathValue("id")
	cmd := ledger.UpdateMemberRole{BusinessID: id, MemberID: r.PathValue("memberID"), Role: req.Role}
	if _, err := s.svc.Execute(r.Context(), cmd); err != nil {
		return err
	}
	return s.writeBusiness(w, http.StatusOK, id)
}

func (s *Server) handleRemoveMember(w http.ResponseWriter, r *http.Request) error {
	target := ledger.MemberTarget{BusinessID: r.PathValue("id"), MemberID: r.PathValue("memberID")}
	if _, err := s.svc.Execute(r.Context(), ledger.Delete{Target: target}); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *Server) handleTransferOwnership(w http.ResponseWriter, r *http.Request) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	id := r.PathValue("id")
	if _, err := s.svc.Execute(r.Context(), ledger.TransferOwnership{BusinessID: id, Email: req.Email}); err != nil {
		return err
	}
	return s.writeBusiness(w, http.StatusOK, id)
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) error {
	version := s.svc.Version()
	st := s.svc.Snapshot()
	users, _ := s.users.GetOrCompute(strconv.FormatUint(version, 10), func() ([]report.DirectoryUser, error) {
		return report.AggregateUsers(st.Businesses), nil
	})
	if users == nil {
		users = []report.DirectoryUser{}
	}
	writeJSON(w, http.StatusOK, users)
	return nil
}
