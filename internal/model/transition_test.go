package model

import "testing"

func TestLookupTransition(t *testing.T) {
	tests := []struct {
		from, to      ItemStatus
		allowed       bool
		custodianLock bool
	}{
		{StatusInStock, StatusAssigned, true, false},
		{StatusAssigned, StatusShipped, true, false},
		{StatusShipped, StatusAssigned, true, true},
		{StatusShipped, StatusSold, true, true},
		{StatusShipped, StatusReturned, true, false},
		{StatusShipped, StatusInStock, true, false},
		{StatusReturned, StatusAssigned, true, false},
		{StatusReturned, StatusShipped, false, false},
		{StatusSold, StatusInStock, false, false},
		{StatusSold, StatusReturned, false, false},
		{StatusSold, StatusSold, false, false},
	}

	for _, tt := range tests {
		tr, ok := LookupTransition(tt.from, tt.to)
		if ok != tt.allowed {
			t.Errorf("LookupTransition(%s, %s) allowed = %v, want %v", tt.from, tt.to, ok, tt.allowed)
			continue
		}
		if ok && tr.RequiresCustodianMatch != tt.custodianLock {
			t.Errorf("LookupTransition(%s, %s) custodian match = %v, want %v", tt.from, tt.to, tr.RequiresCustodianMatch, tt.custodianLock)
		}
	}
}

func TestSoldHasNoOutgoingTransitions(t *testing.T) {
	for _, tr := range transitions {
		if tr.From == StatusSold {
			t.Errorf("unexpected transition out of SOLD: %+v", tr)
		}
	}
}

func TestReleasesCustody(t *testing.T) {
	for _, s := range []ItemStatus{StatusInStock, StatusReturned} {
		if !ReleasesCustody(s) {
			t.Errorf("expected %s to release custody", s)
		}
	}
	for _, s := range []ItemStatus{StatusAssigned, StatusShipped, StatusSold} {
		if ReleasesCustody(s) {
			t.Errorf("expected %s to keep custody", s)
		}
	}
}

func TestBulkAssignable(t *testing.T) {
	want := map[ItemStatus]bool{
		StatusInStock:  true,
		StatusAssigned: true,
		StatusShipped:  false,
		StatusSold:     false,
		StatusReturned: false,
	}
	for s, expected := range want {
		if got := BulkAssignable(s); got != expected {
			t.Errorf("BulkAssignable(%s) = %v, want %v", s, got, expected)
		}
	}
}

func TestItemStatusValid(t *testing.T) {
	if !StatusSold.Valid() {
		t.Error("expected SOLD to be valid")
	}
	if ItemStatus("LOST").Valid() {
		t.Error("expected LOST to be invalid")
	}
	if ItemStatus("in_stock").Valid() {
		t.Error("statuses are case sensitive")
	}
}
