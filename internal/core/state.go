package core

import "slices"

// State is the full snapshot held by the persistent store.
type State struct {
	Businesses       []Business
	CurrentUser      *User
	ActiveBusinessID string
	Theme            Theme
	Currency         Currency
	Language         Language
}

// Business returns the business with the given id.
func (s State) Business(id string) (Business, bool) {
	i := s.businessIndex(id)
	if i < 0 {
		return Business{}, false
	}
	return s.Businesses[i], true
}

// ActiveBusiness returns the currently selected business, if any.
func (s State) ActiveBusiness() (Business, bool) {
	if s.ActiveBusinessID == "" {
		return Business{}, false
	}
	return s.Business(s.ActiveBusinessID)
}

func (s State) businessIndex(id string) int {
	return slices.IndexFunc(s.Businesses, func(b Business) bool { return b.ID == id })
}

// Clone returns a deep copy so callers can hold the snapshot independently.
func (s State) Clone() State {
	out := s
	if s.CurrentUser != nil {
		u := *s.CurrentUser
		out.CurrentUser = &u
	}
	if s.Businesses != nil {
		out.Businesses = make([]Business, len(s.Businesses))
		for i, b := range s.Businesses {
			out.Businesses[i] = b.Clone()
		}
	}
	return out
}

// Clone deep-copies the business with its books and team.
func (b Business) Clone() Business {
	out := b
	out.Team = slices.Clone(b.Team)
	if b.Books != nil {
		out.Books = make([]Book, len(b.Books))
		for i, bk := range b.Books {
			bk.Transactions = slices.Clone(bk.Transactions)
			out.Books[i] = bk
		}
	}
	return out
}
