package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	nchess "github.com/corentings/chess/v2"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(func() { mr.Close() })
	s, err := NewStore(fmt.Sprintf("redis://%s/0", mr.Addr()), time.Hour)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sess, err := s.Create(ctx)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := s.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || got.ID != sess.ID || len(got.MovesUCI) != 0 {
		t.Fatalf("got %+v", got)
	}
}

func TestGetMissingSession(t *testing.T) {
	s := newTestStore(t)
	got, err := s.Get(context.Background(), "no-such-id")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Fatalf("got %+v", got)
	}
}

func TestPushUndoRedo(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	sess, err := s.Create(ctx)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	for _, mv := range []string{"e2e4", "e7e5"} {
		if err := s.PushMove(ctx, sess, mv); err != nil {
			t.Fatalf("PushMove: %v", err)
		}
	}

	ok, err := s.Undo(ctx, sess)
	if err != nil || !ok {
		t.Fatalf("Undo: ok=%v err=%v", ok, err)
	}
	if len(sess.MovesUCI) != 1 || len(sess.Undone) != 1 {
		t.Fatalf("after undo: %+v", sess)
	}

	ok, err = s.Redo(ctx, sess)
	if err != nil || !ok {
		t.Fatalf("Redo: ok=%v err=%v", ok, err)
	}
	if len(sess.MovesUCI) != 2 || len(sess.Undone) != 0 {
		t.Fatalf("after redo: %+v", sess)
	}

	// state survived the round trips
	got, err := s.Get(ctx, sess.ID)
	if err != nil || got == nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.MovesUCI) != 2 {
		t.Fatalf("persisted %+v", got)
	}
}

func TestUndoEmpty(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	sess, _ := s.Create(ctx)
	if ok, err := s.Undo(ctx, sess); ok || err != nil {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if ok, err := s.Redo(ctx, sess); ok || err != nil {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
}

func TestNewMoveClearsRedo(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	sess, _ := s.Create(ctx)

	_ = s.PushMove(ctx, sess, "e2e4")
	_, _ = s.Undo(ctx, sess)
	_ = s.PushMove(ctx, sess, "d2d4")

	if len(sess.Undone) != 0 {
		t.Fatalf("redo stack survived a new move: %+v", sess)
	}
}

func TestReconstruct(t *testing.T) {
	sess := &Session{MovesUCI: []string{"e2e4", "e7e5", "g1f3"}}
	game, err := Reconstruct(sess)
	if err != nil {
		t.Fatalf("Reconstruct: %v", err)
	}
	if len(game.Moves()) != 3 || game.Position().Turn() != nchess.Black {
		t.Fatalf("game state wrong after replay")
	}
}

func TestReconstructBadMove(t *testing.T) {
	sess := &Session{MovesUCI: []string{"e2e5"}}
	if _, err := Reconstruct(sess); err == nil {
		t.Fatal("expected error for illegal stored move")
	}
}
