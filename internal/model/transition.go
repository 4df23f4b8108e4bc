package model

// Transition is one allowed status change. When RequiresCustodianMatch is
// set the custodian after the change must be the custodian before it.
type Transition struct {
	From                   ItemStatus
	To                     ItemStatus
	RequiresCustodianMatch bool
}

// transitions lists every allowed status change. SOLD has no outgoing
// entries: a sold item is read-only.
var transitions = []Transition{
	{StatusInStock, StatusInStock, false},
	{StatusInStock, StatusAssigned, false},
	{StatusInStock, StatusShipped, false},
	{StatusInStock, StatusSold, false},
	{StatusInStock, StatusReturned, false},

	{StatusAssigned, StatusInStock, false},
	{StatusAssigned, StatusAssigned, false},
	{StatusAssigned, StatusShipped, false},
	{StatusAssigned, StatusSold, false},
	{StatusAssigned, StatusReturned, false},

	{StatusShipped, StatusAssigned, true},
	{StatusShipped, StatusShipped, true},
	{StatusShipped, StatusSold, true},
	{StatusShipped, StatusReturned, false},
	{StatusShipped, StatusInStock, false},

	{StatusReturned, StatusInStock, false},
	{StatusReturned, StatusAssigned, false},
	{StatusReturned, StatusReturned, false},
}

// LookupTransition returns the rule for from -> to, if the change is allowed.
func LookupTransition(from, to ItemStatus) (Transition, bool) {
	for _, t := range transitions {
		if t.From == from && t.To == to {
			return t, true
		}
	}
	return Transition{}, false
}

// ReleasesCustody reports whether entering status s clears the custodian.
func ReleasesCustody(s ItemStatus) bool {
	return s == StatusInStock || s == StatusReturned
}

// BulkAssignable reports whether an item in status s may be picked up by a
// bulk assignment.
func BulkAssignable(s ItemStatus) bool {
	switch s {
	case StatusShipped, StatusSold, StatusReturned:
		return false
	}
	return true
}
