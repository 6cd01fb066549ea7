package core

import (
	"errors"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"12.34", "12.34", true},
		{"12,34", "12.34", true},
		{"1,234.50", "1234.5", true},
		{" 100 ", "100", true},
		{"0.01", "0.01", true},
		{"0", "", false},
		{"0.00", "", false},
		{"-5", "", false},
		{"+5", "", false},
		{"", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"1,234", "", false},
		{"12,345", "", false},
		{"1,2345", "1.2345", true},
		{"1,23", "1.23", true},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil {
				t.Fatalf("ParseAmount(%q) unexpected error %v", tc.in, err)
			}
			if got.String() != tc.want {
				t.Fatalf("ParseAmount(%q) = %s, want %s", tc.in, got, tc.want)
			}
			continue
		}
		if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("ParseAmount(%q) expected ErrInvalidAmount, got %v", tc.in, err)
		}
	}
}
