package ui

import "testing"

func TestListCursorMovement(t *testing.T) {
	l := listCursor{viewportHeight: 3}

	for range 4 {
		l.MoveDown(5)
	}
	if l.cursor != 4 || l.offset != 2 {
		t.Fatalf("cursor=%d offset=%d, want 4/2", l.cursor, l.offset)
	}
	l.MoveDown(5)
	if l.cursor != 4 {
		t.Fatalf("cursor moved past the end: %d", l.cursor)
	}

	l.JumpToTop()
	if l.cursor != 0 || l.offset != 0 {
		t.Fatalf("top: cursor=%d offset=%d", l.cursor, l.offset)
	}
	l.MoveUp()
	if l.cursor != 0 {
		t.Fatalf("cursor moved above the top: %d", l.cursor)
	}

	l.JumpToBottom(10)
	if l.cursor != 9 || l.offset != 7 {
		t.Fatalf("bottom: cursor=%d offset=%d", l.cursor, l.offset)
	}
	start, end := l.Visible(10)
	if start != 7 || end != 10 {
		t.Fatalf("visible = %d..%d", start, end)
	}
}

func TestListCursorHalfPage(t *testing.T) {
	l := listCursor{viewportHeight: 10}

	l.HalfPageDown(30)
	if l.cursor != 5 {
		t.Fatalf("cursor = %d, want 5", l.cursor)
	}
	l.HalfPageDown(7)
	if l.cursor != 6 {
		t.Fatalf("cursor = %d, want 6", l.cursor)
	}
	l.HalfPageUp()
	l.HalfPageUp()
	if l.cursor != 0 {
		t.Fatalf("cursor = %d, want 0", l.cursor)
	}
}

func TestListCursorClamp(t *testing.T) {
	l := listCursor{viewportHeight: 4, cursor: 8, offset: 5}

	l.Clamp(3)
	if l.cursor != 2 || l.offset != 2 {
		t.Fatalf("cursor=%d offset=%d, want 2/2", l.cursor, l.offset)
	}
	l.Clamp(0)
	if l.cursor != 0 || l.offset != 0 {
		t.Fatalf("empty: cursor=%d offset=%d", l.cursor, l.offset)
	}
}

func TestListCursorHandleKey(t *testing.T) {
	l := listCursor{}
	keys := DefaultKeyMap()

	if !l.HandleKey(runes("j"), keys, 3) || l.cursor != 1 {
		t.Fatalf("j should move down, cursor = %d", l.cursor)
	}
	if !l.HandleKey(runes("G"), keys, 3) || l.cursor != 2 {
		t.Fatalf("G should jump to the bottom, cursor = %d", l.cursor)
	}
	if l.HandleKey(runes("x"), keys, 3) {
		t.Fatal("x is not a movement key")
	}
}
