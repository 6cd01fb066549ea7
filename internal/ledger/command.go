package ledger

import (
	"errors"
	"fmt"

	"cashflow/internal/core"
)

// AllBusinesses is the invite target meaning every business in the snapshot.
const AllBusinesses = "__ALL_BUSINESSES__"

var ErrUnknownCommand = errors.New("unknown command")

// Command is the closed set of state transitions.
type Command interface {
	isCommand()
}

type (
	CreateBusiness struct {
		Name string
	}
	UpdateBusiness struct {
		ID   string
		Name string
	}
	DuplicateBusiness struct {
		ID string
	}
	CreateBook struct {
		BusinessID string
		Name       string
	}
	UpdateBook struct {
		BusinessID string
		BookID     string
		Name       string
	}
	CreateTransaction struct {
		BusinessID string
		BookID     string
		Draft      core.TransactionDraft
	}
	// UpdateTransaction replaces the stored record with Transaction as given,
	// provenance fields included.
	UpdateTransaction struct {
		BusinessID  string
		BookID      string
		Transaction core.Transaction
	}
	DeleteTransactions struct {
		BusinessID string
		BookID     string
		IDs        []string
	}
	InviteMember struct {
		// BusinessID may be AllBusinesses.
		BusinessID string
		Email      string
		Role       core.Role
	}
	UpdateMemberRole struct {
		BusinessID string
		MemberID   string
		Role       core.Role
	}
	TransferOwnership struct {
		BusinessID string
		Email      string
	}
	ImportTransactions struct {
		BookID string
		Rows   []core.TransactionDraft
	}
	Delete struct {
		Target DeleteTarget
	}
	SetTheme struct {
		Theme core.Theme
	}
	SetCurrency struct {
		Currency core.Currency
	}
	SetLanguage struct {
		Language core.Language
	}
)

func (CreateBusiness) isCommand()     {}
func (UpdateBusiness) isCommand()     {}
func (DuplicateBusiness) isCommand()  {}
func (CreateBook) isCommand()         {}
func (UpdateBook) isCommand()         {}
func (CreateTransaction) isCommand()  {}
func (UpdateTransaction) isCommand()  {}
func (DeleteTransactions) isCommand() {}
func (InviteMember) isCommand()       {}
func (UpdateMemberRole) isCommand()   {}
func (TransferOwnership) isCommand()  {}
func (ImportTransactions) isCommand() {}
func (Delete) isCommand()             {}
func (SetTheme) isCommand()           {}
func (SetCurrency) isCommand()        {}
func (SetLanguage) isCommand()        {}

// DeleteTarget is the closed set of things a Delete command can remove.
type DeleteTarget interface {
	isDeleteTarget()
}

type (
	BusinessTarget struct {
		BusinessID string
	}
	BookTarget struct {
		BusinessID string
		BookID     string
	}
	TransactionTarget struct {
		BusinessID    string
		BookID        string
		TransactionID string
	}
	// AllTransactionsTarget empties a book but keeps the book itself.
	AllTransactionsTarget struct {
		BusinessID string
		BookID     string
	}
	MemberTarget struct {
		BusinessID string
		MemberID   string
	}
)

func (BusinessTarget) isDeleteTarget()        {}
func (BookTarget) isDeleteTarget()            {}
func (TransactionTarget) isDeleteTarget()     {}
func (AllTransactionsTarget) isDeleteTarget() {}
func (MemberTarget) isDeleteTarget()          {}

// Apply runs cmd against s. On error the returned snapshot is s unchanged.
func Apply(s core.State, env Env, cmd Command) (core.State, Result, error) {
	switch c := cmd.(type) {
	case CreateBusiness:
		return createBusiness(s, env, c)
	case UpdateBusiness:
		return noResult(updateBusiness(s, c))
	case DuplicateBusiness:
		return duplicateBusiness(s, env, c)
	case CreateBook:
		return createBook(s, env, c)
	case UpdateBook:
		return noResult(updateBook(s, c))
	case CreateTransaction:
		return createTransaction(s, env, c)
	case UpdateTransaction:
		return noResult(updateTransaction(s, c))
	case DeleteTransactions:
		return noResult(deleteTransactions(s, c.BusinessID, c.BookID, c.IDs))
	case InviteMember:
		return inviteMember(s, env, c)
	case UpdateMemberRole:
		return noResult(updateMemberRole(s, c))
	case TransferOwnership:
		return noResult(transferOwnership(s, c))
	case ImportTransactions:
		return noResult(importTransactions(s, env, c))
	case Delete:
		return noResult(applyDelete(s, c.Target))
	case SetTheme:
		return noResult(setTheme(s, c.Theme))
	case SetCurrency:
		return noResult(setCurrency(s, c.Currency))
	case SetLanguage:
		return noResult(setLanguage(s, c.Language))
	default:
		return s, Result{}, fmt.Errorf("%w: %T", ErrUnknownCommand, cmd)
	}
}

func applyDelete(s core.State, target DeleteTarget) (core.State, error) {
	switch t := target.(type) {
	case BusinessTarget:
		return deleteBusiness(s, t.BusinessID), nil
	case BookTarget:
		return deleteBook(s, t.BusinessID, t.BookID), nil
	case TransactionTarget:
		return deleteTransactions(s, t.BusinessID, t.BookID, []string{t.TransactionID})
	case AllTransactionsTarget:
		return deleteAllTransactions(s, t.BusinessID, t.BookID), nil
	case MemberTarget:
		return removeMember(s, t.BusinessID, t.MemberID)
	default:
		return s, fmt.Errorf("%w: delete target %T", ErrUnknownCommand, target)
	}
}

func noResult(s core.State, err error) (core.State, Result, error) {
	return s, Result{}, err
}
