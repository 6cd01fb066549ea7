package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	RoleOwner   Role = "Owner"
	RoleManager Role = "Manager"
	RoleMember  Role = "Member"
)

const (
	Income  EntryType = "income"
	Expense EntryType = "expense"
)

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// DateLayout is the ISO calendar date used for persisted transaction dates.
const DateLayout = "2006-01-02"

type (
	Role      string
	EntryType string
	Theme     string

	Date struct {
		time.Time
	}

	User struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}

	TeamMember struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
		Role  Role   `json:"role"`
	}

	Transaction struct {
		ID             string          `json:"id"`
		Date           Date            `json:"date"`
		Description    string          `json:"description"`
		Amount         decimal.Decimal `json:"amount"`
		Type           EntryType       `json:"type"`
		CreatorID      string          `json:"creatorId,omitempty"`
		CreatorName    string          `json:"creatorName,omitempty"`
		EntryTimestamp time.Time       `json:"entryTimestamp,omitzero"`
	}

	// TransactionDraft is a validated transaction body without identity or provenance.
	TransactionDraft struct {
		Date        Date
		Description string
		Amount      decimal.Decimal
		Type        EntryType
	}

	Book struct {
		ID           string        `json:"id"`
		Name         string        `json:"name"`
		Transactions []Transaction `json:"transactions"`
	}

	Business struct {
		ID    string       `json:"id"`
		Name  string       `json:"name"`
		Books []Book       `json:"books"`
		Team  []TeamMember `json:"team"`
	}
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's location and returns it as a UTC Date.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String returns the date as YYYY-MM-DD
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

var dateLayouts = []string{
	DateLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01-02-06",
	"Jan 2, 2006",
	"2 Jan 2006",
	"January 2, 2006",
}

// ParseDate accepts the calendar date spellings commonly found in exported spreadsheets.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, ErrInvalidDate
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return Date{}, ErrInvalidDate
}

func (r Role) IsValid() bool {
	switch r {
	case RoleOwner, RoleManager, RoleMember:
		return true
	default:
		return false
	}
}

// IsAssignable reports whether the role may be granted through invite or role edit.
func (r Role) IsAssignable() bool {
	return r == RoleManager || r == RoleMember
}

func (t EntryType) IsValid() bool {
	return t == Income || t == Expense
}

// ParseEntryType matches income/expense case-insensitively.
func ParseEntryType(s string) (EntryType, error) {
	t := EntryType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", ErrInvalidType
	}
	return t, nil
}

func (t Theme) IsValid() bool {
	return t == ThemeLight || t == ThemeDark
}

func (d TransactionDraft) Validate() error {
	if err := d.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(d.Description) == "" {
		return ErrEmptyDescription
	}
	if !d.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !d.Type.IsValid() {
		return ErrInvalidType
	}
	return nil
}

func (t Transaction) Validate() error {
	return t.Draft().Validate()
}

// Draft strips identity and provenance from the transaction.
func (t Transaction) Draft() TransactionDraft {
	return TransactionDraft{
		Date:        t.Date,
		Description: t.Description,
		Amount:      t.Amount,
		Type:        t.Type,
	}
}

// Signed returns the amount with income positive and expense negative.
func (t Transaction) Signed() decimal.Decimal {
	if t.Type == Expense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// Owner returns the team member holding the Owner role.
func (b Business) Owner() (TeamMember, bool) {
	for _, m := range b.Team {
		if m.Role == RoleOwner {
			return m, true
		}
	}
	return TeamMember{}, false
}

// FindBook returns the book with the given id.
func (b Business) FindBook(id string) (Book, bool) {
	for _, bk := range b.Books {
		if bk.ID == id {
			return bk, true
		}
	}
	return Book{}, false
}

// MemberByEmail matches email case-insensitively.
func (b Business) MemberByEmail(email string) (TeamMember, bool) {
	for _, m := range b.Team {
		if strings.EqualFold(m.Email, strings.TrimSpace(email)) {
			return m, true
		}
	}
	return TeamMember{}, false
}

// AllTransactions returns every transaction of every book in the business.
func (b Business) AllTransactions() []Transaction {
	var out []Transaction
	for _, bk := range b.Books {
		out = append(out, bk.Transactions...)
	}
	return out
}

// NormalizeName trims a user-supplied entity name.
func NormalizeName(name string) string {
	return strings.TrimSpace(name)
}

// SameName compares entity names case-insensitively after trimming.
func SameName(a, b string) bool {
	return strings.EqualFold(NormalizeName(a), NormalizeName(b))
}
