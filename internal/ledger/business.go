package ledger

import (
	"fmt"
	"slices"

	"cashflow/internal/core"
)

func createBusiness(s core.State, env Env, c CreateBusiness) (core.State, Result, error) {
	name, err := validName(c.Name)
	if err != nil {
		return s, Result{}, err
	}
	if env.User == nil {
		return s, Result{}, nil
	}
	if nameTaken(s.Businesses, name, "", businessKey) {
		return s, Result{}, fmt.Errorf("business %q: %w", name, core.ErrDuplicateName)
	}
	b := NewBusiness(env, name)
	next := s
	next.Businesses = append(slices.Clone(s.Businesses), b)
	next.ActiveBusinessID = b.ID
	return next, Result{ID: b.ID}, nil
}

// NewBusiness builds an empty business owned by env.User.
func NewBusiness(env Env, name string) core.Business {
	b := core.Business{
		ID:    env.id("biz"),
		Name:  name,
		Books: []core.Book{},
		Team:  []core.TeamMember{},
	}
	if env.User != nil {
		b.Team = append(b.Team, core.TeamMember{
			ID:    env.User.ID,
			Email: env.User.Email,
			Name:  env.User.Name,
			Role:  core.RoleOwner,
		})
	}
	return b
}

func updateBusiness(s core.State, c UpdateBusiness) (core.State, error) {
	name, err := validName(c.Name)
	if err != nil {
		return s, err
	}
	if nameTaken(s.Businesses, name, c.ID, businessKey) {
		return s, fmt.Errorf("business %q: %w", name, core.ErrDuplicateName)
	}
	return withBusiness(s, c.ID, func(b core.Business) (core.Business, error) {
		b.Name = name
		return b, nil
	})
}

// deleteBusiness is idempotent. When the active business goes away the first
// remaining business becomes active.
func deleteBusiness(s core.State, id string) core.State {
	if !hasBusiness(s, id) {
		return s
	}
	next := s
	next.Businesses = slices.DeleteFunc(slices.Clone(s.Businesses), func(b core.Business) bool { return b.ID == id })
	if s.ActiveBusinessID == id {
		next.ActiveBusinessID = ""
		if len(next.Businesses) > 0 {
			next.ActiveBusinessID = next.Businesses[0].ID
		}
	}
	return next
}

func duplicateBusiness(s core.State, env Env, c DuplicateBusiness) (core.State, Result, error) {
	src, ok := s.Business(c.ID)
	if !ok {
		return s, Result{}, fmt.Errorf("business %q: %w", c.ID, core.ErrNotFound)
	}
	if env.User == nil {
		return s, Result{}, nil
	}

	now := env.now()
	dup := core.Business{
		ID:    env.id("biz"),
		Name:  copyName(s.Businesses, src.Name),
		Books: make([]core.Book, 0, len(src.Books)),
		Team:  make([]core.TeamMember, 0, len(src.Team)),
	}
	for _, bk := range src.Books {
		nb := core.Book{
			ID:           env.id("book"),
			Name:         bk.Name,
			Transactions: make([]core.Transaction, 0, len(bk.Transactions)),
		}
		for _, tx := range bk.Transactions {
			tx.ID = env.id("tx")
			tx.CreatorID = env.User.ID
			tx.CreatorName = env.User.Name
			tx.EntryTimestamp = now
			nb.Transactions = append(nb.Transactions, tx)
		}
		dup.Books = append(dup.Books, nb)
	}
	for _, m := range src.Team {
		m.ID = env.id("member")
		dup.Team = append(dup.Team, m)
	}

	next := s
	next.Businesses = append(slices.Clone(s.Businesses), dup)
	return next, Result{ID: dup.ID}, nil
}

// copyName returns "Copy of <name>", numbering it when that name is taken.
func copyName(existing []core.Business, name string) string {
	return UniqueBusinessName(existing, "Copy of "+name)
}

// UniqueBusinessName returns base, or base suffixed " (n)" with the lowest n
// that does not collide with an existing business name.
func UniqueBusinessName(existing []core.Business, base string) string {
	candidate := base
	for n := 2; nameTaken(existing, candidate, "", businessKey); n++ {
		candidate = fmt.Sprintf("%s (%d)", base, n)
	}
	return candidate
}
