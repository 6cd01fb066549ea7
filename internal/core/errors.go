package core

import "errors"

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrInvalidType      = errors.New("type must be income or expense")
	ErrEmptyName        = errors.New("empty name")
	ErrDuplicateName    = errors.New("a name with that exact spelling already exists, please choose a different name")
	ErrNotFound         = errors.New("not found")
	ErrNoCurrentUser    = errors.New("no user is signed in")
	ErrInvalidEmail     = errors.New("invalid email")
	ErrInvalidRole      = errors.New("invalid role")
	ErrOwnerRole        = errors.New("owner role cannot be assigned or revoked directly")
	ErrOwnerRemoval     = errors.New("the business owner cannot be removed")
	ErrMemberNotFound   = errors.New("no team member with that email")
	ErrInvalidCurrency  = errors.New("unsupported currency")
	ErrInvalidTheme     = errors.New("theme must be light or dark")
	ErrInvalidLanguage  = errors.New("unsupported language")
)

// IsValidation reports whether err is caused by rejected user input.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrInvalidDate, ErrInvalidAmount, ErrEmptyDescription, ErrInvalidType,
		ErrEmptyName, ErrInvalidEmail, ErrInvalidRole, ErrOwnerRole, ErrOwnerRemoval,
		ErrMemberNotFound, ErrInvalidCurrency, ErrInvalidTheme, ErrInvalidLanguage,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
