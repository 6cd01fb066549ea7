package ledger

import (
	"fmt"
	"slices"
	"strings"

	"cashflow/internal/core"
)

func roleCheck(r core.Role) error {
	switch {
	case r == core.RoleOwner:
		return core.ErrOwnerRole
	case !r.IsAssignable():
		return fmt.Errorf("%w: %q", core.ErrInvalidRole, r)
	default:
		return nil
	}
}

// parseEmail returns the trimmed address and its local part.
func parseEmail(email string) (string, string, error) {
	email = strings.TrimSpace(email)
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || domain == "" || strings.ContainsAny(email, " \t") {
		return "", "", fmt.Errorf("%w: %q", core.ErrInvalidEmail, email)
	}
	return email, local, nil
}

func inviteMember(s core.State, env Env, c InviteMember) (core.State, Result, error) {
	email, local, err := parseEmail(c.Email)
	if err != nil {
		return s, Result{}, err
	}
	if err := roleCheck(c.Role); err != nil {
		return s, Result{}, err
	}

	targets := []string{c.BusinessID}
	if c.BusinessID == AllBusinesses {
		targets = targets[:0]
		for _, b := range s.Businesses {
			targets = append(targets, b.ID)
		}
	} else if !hasBusiness(s, c.BusinessID) {
		return s, Result{}, fmt.Errorf("business %q: %w", c.BusinessID, core.ErrNotFound)
	}

	var res Result
	next := s
	for _, id := range targets {
		var err error
		next, err = withBusiness(next, id, func(b core.Business) (core.Business, error) {
			if _, ok := b.MemberByEmail(email); ok {
				res.AlreadyMember++
				return b, nil
			}
			b.Team = append(slices.Clone(b.Team), core.TeamMember{
				ID:    env.id("member"),
				Email: email,
				Name:  local,
				Role:  c.Role,
			})
			res.Invited++
			return b, nil
		})
		if err != nil {
			return s, Result{}, err
		}
	}
	return next, res, nil
}

func updateMemberRole(s core.State, c UpdateMemberRole) (core.State, error) {
	if err := roleCheck(c.Role); err != nil {
		return s, err
	}
	return withBusiness(s, c.BusinessID, func(b core.Business) (core.Business, error) {
		i := slices.IndexFunc(b.Team, func(m core.TeamMember) bool { return m.ID == c.MemberID })
		if i < 0 {
			return b, fmt.Errorf("member %q: %w", c.MemberID, core.ErrNotFound)
		}
		if b.Team[i].Role == core.RoleOwner {
			return b, core.ErrOwnerRole
		}
		b.Team = slices.Clone(b.Team)
		b.Team[i].Role = c.Role
		return b, nil
	})
}

// removeMember refuses to remove the Owner; an unknown member is a no-op.
func removeMember(s core.State, businessID, memberID string) (core.State, error) {
	b, ok := s.Business(businessID)
	if !ok {
		return s, nil
	}
	i := slices.IndexFunc(b.Team, func(m core.TeamMember) bool { return m.ID == memberID })
	if i < 0 {
		return s, nil
	}
	if b.Team[i].Role == core.RoleOwner {
		return s, core.ErrOwnerRemoval
	}
	return withBusiness(s, businessID, func(b core.Business) (core.Business, error) {
		b.Team = slices.DeleteFunc(slices.Clone(b.Team), func(m core.TeamMember) bool { return m.ID == memberID })
		return b, nil
	})
}

// transferOwnership makes the member with email the only Owner; whoever held
// the role before becomes Manager.
func transferOwnership(s core.State, c TransferOwnership) (core.State, error) {
	return withBusiness(s, c.BusinessID, func(b core.Business) (core.Business, error) {
		target, ok := b.MemberByEmail(c.Email)
		if !ok {
			return b, fmt.Errorf("%w: %q", core.ErrMemberNotFound, strings.TrimSpace(c.Email))
		}
		b.Team = slices.Clone(b.Team)
		for i, m := range b.Team {
			switch {
			case m.ID == target.ID:
				b.Team[i].Role = core.RoleOwner
			case m.Role == core.RoleOwner:
				b.Team[i].Role = core.RoleManager
			}
		}
		return b, nil
	})
}
