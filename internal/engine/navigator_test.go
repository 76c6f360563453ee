package engine

import "testing"

func TestNavigatorRejectsEmptySequence(t *testing.T) {
	if _, err := NewNavigator(nil); err != ErrNoQuestions {
		t.Fatalf("NewNavigator(nil) err = %v, want ErrNoQuestions", err)
	}
}

func TestNavigatorClampsAtBounds(t *testing.T) {
	nav, err := NewNavigator(makeQuestions(3))
	if err != nil {
		t.Fatal(err)
	}

	nav.Prev() // already at first
	if nav.Index() != 0 {
		t.Fatalf("Prev at start moved index to %d", nav.Index())
	}

	nav.Next()
	nav.Next()
	nav.Next() // clamp, not wrap
	nav.Next()
	if nav.Index() != 2 {
		t.Fatalf("Next at end moved index to %d", nav.Index())
	}
}

func TestNavigatorJumpToClamps(t *testing.T) {
	nav, err := NewNavigator(makeQuestions(5))
	if err != nil {
		t.Fatal(err)
	}

	for _, tc := range []struct{ jump, want int }{
		{3, 3},
		{0, 0},
		{-7, 0},
		{4, 4},
		{99, 4},
	} {
		nav.JumpTo(tc.jump)
		if nav.Index() != tc.want {
			t.Fatalf("JumpTo(%d) index = %d, want %d", tc.jump, nav.Index(), tc.want)
		}
	}
}

func TestNavigatorIndexStaysInBoundsUnderAnySequence(t *testing.T) {
	for n := 1; n <= 4; n++ {
		nav, err := NewNavigator(makeQuestions(n))
		if err != nil {
			t.Fatal(err)
		}
		moves := []func(){
			nav.Next, nav.Next, nav.Prev,
			func() { nav.JumpTo(n) },
			func() { nav.JumpTo(-1) },
			nav.Prev, nav.Next,
			func() { nav.JumpTo(n / 2) },
		}
		for i, move := range moves {
			move()
			if nav.Index() < 0 || nav.Index() >= n {
				t.Fatalf("n=%d move %d: index %d out of bounds", n, i, nav.Index())
			}
		}
	}
}

func TestNavigatorCurrentFollowsFocus(t *testing.T) {
	qs := makeQuestions(3)
	nav, err := NewNavigator(qs)
	if err != nil {
		t.Fatal(err)
	}

	nav.Next()
	if nav.Current().ID != qs[1].ID {
		t.Fatal("Current does not match focused question")
	}
}
