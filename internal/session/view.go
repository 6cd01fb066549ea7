package session

import (
	"errors"
	"fmt"
)

var ErrUnknownView = errors.New("unknown view")

// View is the screen the session is looking at. Only the types declared in
// this file implement it.
type View interface {
	isView()
}

type (
	Dashboard    struct{}
	Transactions struct{ BookID string }
	BookSettings struct{ BookID string }
	Reports      struct{}
	Users        struct{}
	Settings     struct{}
)

func (Dashboard) isView()    {}
func (Transactions) isView() {}
func (BookSettings) isView() {}
func (Reports) isView()      {}
func (Users) isView()        {}
func (Settings) isView()     {}

// View names used on the wire.
const (
	ViewDashboard    = "dashboard"
	ViewTransactions = "transactions"
	ViewBookSettings = "book-settings"
	ViewReports      = "reports"
	ViewUsers        = "users"
	ViewSettings     = "settings"
)

// ViewName returns the wire name of v.
func ViewName(v View) string {
	switch v.(type) {
	case Dashboard:
		return ViewDashboard
	case Transactions:
		return ViewTransactions
	case BookSettings:
		return ViewBookSettings
	case Reports:
		return ViewReports
	case Users:
		return ViewUsers
	case Settings:
		return ViewSettings
	default:
		panic(fmt.Sprintf("session: unhandled view %T", v))
	}
}

// BookOf returns the book a view is scoped to, or "" for business-wide views.
func BookOf(v View) string {
	switch v := v.(type) {
	case Transactions:
		return v.BookID
	case BookSettings:
		return v.BookID
	case Dashboard, Reports, Users, Settings:
		return ""
	default:
		panic(fmt.Sprintf("session: unhandled view %T", v))
	}
}

// ParseView builds a view from its wire name. bookID is required for the
// book-scoped views and ignored otherwise.
func ParseView(name, bookID string) (View, error) {
	switch name {
	case ViewDashboard:
		return Dashboard{}, nil
	case ViewTransactions, ViewBookSettings:
		if bookID == "" {
			return nil, fmt.Errorf("view %q needs a book: %w", name, ErrUnknownView)
		}
		if name == ViewTransactions {
			return Transactions{BookID: bookID}, nil
		}
		return BookSettings{BookID: bookID}, nil
	case ViewReports:
		return Reports{}, nil
	case ViewUsers:
		return Users{}, nil
	case ViewSettings:
		return Settings{}, nil
	default:
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownView)
	}
}
