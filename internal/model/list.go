package model

import "fmt"

// ListName identifies one of the persisted address lists.
type ListName string

const (
	ListSubscribed   ListName = "subscribed"
	ListUnsubscribed ListName = "unsubscribed"
	ListFailed       ListName = "failed"
)

// AllLists is the fixed display order used by the dashboard.
var AllLists = []ListName{ListSubscribed, ListUnsubscribed, ListFailed}

// IsValid checks if the list name is one of the known lists.
func (l ListName) IsValid() bool {
	switch l {
	case ListSubscribed, ListUnsubscribed, ListFailed:
		return true
	}
	return false
}

// KeepsRepeats reports whether the list is an audit log where the same
// address may appear more than once. Membership lists hold each address once.
func (l ListName) KeepsRepeats() bool {
	return l == ListFailed
}

// Title returns the human-readable list label.
func (l ListName) Title() string {
	switch l {
	case ListSubscribed:
		return "Subscribed"
	case ListUnsubscribed:
		return "Unsubscribed"
	case ListFailed:
		return "Failed"
	}
	return string(l)
}

// ParseListName converts form input into a ListName.
func ParseListName(s string) (ListName, error) {
	l := ListName(s)
	if !l.IsValid() {
		return "", fmt.Errorf("unknown list %q", s)
	}
	return l, nil
}
