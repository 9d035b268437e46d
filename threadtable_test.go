package uthreads

import "testing"

func TestThreadTableOccupyGetVacate(t *testing.T) {
	var table threadTable
	tcb := newTCB(3, nil)

	if table.get(3) != nil {
		t.Fatalf("get() on empty slot should return nil")
	}

	table.occupy(3, tcb)
	if got := table.get(3); got != tcb {
		t.Fatalf("get(3) = %v, want the occupied tcb", got)
	}

	table.vacate(3)
	if table.get(3) != nil {
		t.Fatalf("get(3) after vacate should return nil")
	}
}

func TestThreadTableOutOfRange(t *testing.T) {
	var table threadTable
	if table.get(-1) != nil {
		t.Fatalf("get(-1) should return nil")
	}
	if table.get(MaxThreadNum) != nil {
		t.Fatalf("get(MaxThreadNum) should return nil")
	}
}
