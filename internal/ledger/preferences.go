package ledger

import (
	"fmt"

	"cashflow/internal/core"
)

func setTheme(s core.State, t core.Theme) (core.State, error) {
	if !t.IsValid() {
		return s, fmt.Errorf("%w: %q", core.ErrInvalidTheme, t)
	}
	s.Theme = t
	return s, nil
}

func setCurrency(s core.State, c core.Currency) (core.State, error) {
	if !c.IsValid() {
		return s, fmt.Errorf("%w: %q", core.ErrInvalidCurrency, c)
	}
	s.Currency = c
	return s, nil
}

func setLanguage(s core.State, l core.Language) (core.State, error) {
	if !l.IsValid() {
		return s, fmt.Errorf("%w: %q", core.ErrInvalidLanguage, l)
	}
	s.Language = l
	return s, nil
}
