package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false},
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2023-10-26", "2023-10-26", true},
		{" 2023-10-26 ", "2023-10-26", true},
		{"2023/10/26", "2023-10-26", true},
		{"10/26/2023", "2023-10-26", true},
		{"1/5/2024", "2024-01-05", true},
		{"2023-10-26T15:04:05Z", "2023-10-26", true},
		{"Oct 26, 2023", "2023-10-26", true},
		{"", "", false},
		{"yesterday", "", false},
		{"2023-13-40", "", false},
	}
	for _, tc := range cases {
		d, err := ParseDate(tc.in)
		if tc.ok {
			if err != nil {
				t.Fatalf("ParseDate(%q) unexpected error %v", tc.in, err)
			}
			if d.String() != tc.want {
				t.Fatalf("ParseDate(%q) = %s, want %s", tc.in, d, tc.want)
			}
			continue
		}
		if !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("ParseDate(%q) expected ErrInvalidDate, got %v", tc.in, err)
		}
	}
}

func TestDateJSON(t *testing.T) {
	b, err := json.Marshal(NewDate(2024, 2, 29))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `"2024-02-29"` {
		t.Fatalf("unexpected encoding %s", b)
	}
	var d Date
	if err := json.Unmarshal([]byte(`"2024-02-29"`), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !d.Equal(NewDate(2024, 2, 29).Time) {
		t.Fatalf("round trip mismatch: %s", d)
	}
}

func TestTransactionDraftValidate(t *testing.T) {
	good := TransactionDraft{
		Date:        NewDate(2025, 1, 1),
		Description: "Rent",
		Amount:      MustAmount("100"),
		Type:        Expense,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name string
		mut  func(*TransactionDraft)
		want error
	}{
		{"zero date", func(d *TransactionDraft) { d.Date = Date{} }, ErrInvalidDate},
		{"blank description", func(d *TransactionDraft) { d.Description = "   " }, ErrEmptyDescription},
		{"zero amount", func(d *TransactionDraft) { d.Amount = MustAmount("1").Sub(MustAmount("1")) }, ErrInvalidAmount},
		{"negative amount", func(d *TransactionDraft) { d.Amount = MustAmount("5").Neg() }, ErrInvalidAmount},
		{"bad type", func(d *TransactionDraft) { d.Type = "transfer" }, ErrInvalidType},
	}
	for _, tc := range cases {
		d := good
		tc.mut(&d)
		if err := d.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestParseEntryType(t *testing.T) {
	for _, in := range []string{"income", "INCOME", " Expense "} {
		if _, err := ParseEntryType(in); err != nil {
			t.Fatalf("ParseEntryType(%q) unexpected error %v", in, err)
		}
	}
	if _, err := ParseEntryType("refund"); !errors.Is(err, ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
}

func TestTransactionSigned(t *testing.T) {
	in := Transaction{Amount: MustAmount("10"), Type: Income}
	out := Transaction{Amount: MustAmount("10"), Type: Expense}
	if !in.Signed().Equal(MustAmount("10")) {
		t.Fatalf("income should be positive, got %s", in.Signed())
	}
	if !out.Signed().Equal(MustAmount("10").Neg()) {
		t.Fatalf("expense should be negative, got %s", out.Signed())
	}
}

func TestRoleAssignable(t *testing.T) {
	if RoleOwner.IsAssignable() {
		t.Fatalf("owner must not be assignable")
	}
	if !RoleManager.IsAssignable() || !RoleMember.IsAssignable() {
		t.Fatalf("manager and member must be assignable")
	}
}

func TestStateCloneIsIndependent(t *testing.T) {
	s := State{
		Businesses: []Business{{
			ID:    "b1",
			Name:  "Shop",
			Books: []Book{{ID: "k1", Name: "Cash", Transactions: []Transaction{{ID: "t1"}}}},
			Team:  []TeamMember{{ID: "m1", Role: RoleOwner}},
		}},
		CurrentUser: &User{ID: "u1", Name: "Ana"},
	}
	c := s.Clone()
	c.Businesses[0].Books[0].Transactions[0].ID = "changed"
	c.Businesses[0].Team[0].Role = RoleMember
	c.CurrentUser.Name = "Other"

	if s.Businesses[0].Books[0].Transactions[0].ID != "t1" {
		t.Fatalf("transaction shared between clones")
	}
	if s.Businesses[0].Team[0].Role != RoleOwner {
		t.Fatalf("team shared between clones")
	}
	if s.CurrentUser.Name != "Ana" {
		t.Fatalf("user shared between clones")
	}
}

func TestCurrencyInfo(t *testing.T) {
	if !Currency("USD").IsValid() {
		t.Fatalf("USD should be supported")
	}
	if Currency("XXX").IsValid() {
		t.Fatalf("XXX should not be supported")
	}
	if Currency("XXX").Info().Code != DefaultCurrency {
		t.Fatalf("unknown currency should fall back to %s", DefaultCurrency)
	}
	if len(Currencies()) != 9 {
		t.Fatalf("expected 9 currencies, got %d", len(Currencies()))
	}
}
