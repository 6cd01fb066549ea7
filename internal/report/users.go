package report

import (
	"cmp"
	"slices"
	"strings"

	"cashflow/internal/core"
)

// Membership is one business seat held by an aggregated user.
type Membership struct {
	BusinessID   string    `json:"businessId"`
	BusinessName string    `json:"businessName"`
	MemberID     string    `json:"memberId"`
	Role         core.Role `json:"role"`
}

// DirectoryUser is one person across every business, identified by email.
type DirectoryUser struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Email       string       `json:"email"`
	Memberships []Membership `json:"memberships"`
}

// AggregateUsers groups team members of all businesses by email
// (case-insensitive). The first membership seen supplies id, name and email.
func AggregateUsers(businesses []core.Business) []DirectoryUser {
	index := make(map[string]int)
	var users []DirectoryUser
	for _, b := range businesses {
		for _, m := range b.Team {
			key := strings.ToLower(strings.TrimSpace(m.Email))
			i, ok := index[key]
			if !ok {
				i = len(users)
				index[key] = i
				users = append(users, DirectoryUser{ID: m.ID, Name: m.Name, Email: m.Email})
			}
			users[i].Memberships = append(users[i].Memberships, Membership{
				BusinessID:   b.ID,
				BusinessName: b.Name,
				MemberID:     m.ID,
				Role:         m.Role,
			})
		}
	}
	slices.SortStableFunc(users, func(a, b DirectoryUser) int {
		return cmp.Or(
			cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)),
			cmp.Compare(strings.ToLower(a.Email), strings.ToLower(b.Email)),
		)
	})
	return users
}
