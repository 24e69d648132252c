package reg

import (
	"reflect"
	"testing"
)

func TestSetOperations(t *testing.T) {
	t.Run("Add and Contains", func(t *testing.T) {
		s := NewVRegSet()
		s.Add(1)
		s.Add(2)

		if !s.Contains(1) || !s.Contains(2) {
			t.Error("set should contain 1 and 2")
		}
		if s.Contains(3) {
			t.Error("set should not contain 3")
		}
	})

	t.Run("Intersect", func(t *testing.T) {
		i := NewPRegSet(1, 2, 3).Intersect(NewPRegSet(2, 3, 4))
		if !reflect.DeepEqual(i.Sorted(), []PReg{2, 3}) {
			t.Errorf("intersection = %v, want {2,3}", i.Sorted())
		}
	})

	t.Run("Sorted", func(t *testing.T) {
		got := NewVRegSet(5, 1, 3).Sorted()
		want := []VReg{1, 3, 5}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("Sorted() = %v, want %v", got, want)
			}
		}
	})
}

func TestVRegString(t *testing.T) {
	if got := VReg(7).String(); got != "v7" {
		t.Errorf("String() = %q, want %q", got, "v7")
	}
}
