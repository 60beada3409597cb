package userstore

import (
	"cmp"
	"slices"
	"strings"
)

// ListQuery selects one page of users, newest first. Search matches email,
// username or full name case-insensitively. Nil flags match any value.
type ListQuery struct {
	Search      string
	IsActive    *bool
	IsSuperuser *bool
	Offset      int
	Limit       int
}

// Page is one slice of a listing plus the number of users matching the
// query overall.
type Page struct {
	Users []User
	Total int
}

func (q ListQuery) matches(u User) bool {
	if q.IsActive != nil && u.IsActive != *q.IsActive {
		return false
	}
	if q.IsSuperuser != nil && u.IsSuperuser != *q.IsSuperuser {
		return false
	}
	if q.Search == "" {
		return true
	}
	needle := strings.ToLower(q.Search)
	return strings.Contains(strings.ToLower(u.Email), needle) ||
		strings.Contains(strings.ToLower(u.Username), needle) ||
		strings.Contains(strings.ToLower(u.FullName), needle)
}

func newestFirst(a, b User) int {
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

func paginate(all []User, offset, limit int) []User {
	slices.SortFunc(all, newestFirst)
	if offset >= len(all) {
		return []User{}
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end]
}
