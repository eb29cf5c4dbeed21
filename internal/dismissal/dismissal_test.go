package dismissal

import (
	"context"
	"testing"

	"github.com/listmagify/recs-engine/internal/store"
)

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(":memory:", 1, 1)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestDismissDefaultsToGlobalContext(t *testing.T) {
	ctx := context.Background()
	svc := New(setupTestStore(t))

	if err := svc.Dismiss(ctx, "A", ""); err != nil {
		t.Fatalf("dismiss: %v", err)
	}

	dismissed, err := svc.IsDismissed(ctx, "A", "")
	if err != nil {
		t.Fatalf("is_dismissed: %v", err)
	}
	if !dismissed {
		t.Fatal("expected A dismissed in global context")
	}
}

func TestGlobalDismissalDoesNotAffectPlaylistScope(t *testing.T) {
	ctx := context.Background()
	svc := New(setupTestStore(t))

	if err := svc.Dismiss(ctx, "A", "global"); err != nil {
		t.Fatalf("dismiss: %v", err)
	}

	dismissed, err := svc.IsDismissed(ctx, "A", "P1")
	if err != nil {
		t.Fatalf("is_dismissed: %v", err)
	}
	if dismissed {
		t.Fatal("playlist-scoped dismissal check should not see a global-only entry directly")
	}
}

func TestClearOneContextDoesNotAffectAnother(t *testing.T) {
	ctx := context.Background()
	svc := New(setupTestStore(t))

	if err := svc.Dismiss(ctx, "A", "global"); err != nil {
		t.Fatalf("dismiss: %v", err)
	}
	if err := svc.Dismiss(ctx, "A", "P1"); err != nil {
		t.Fatalf("dismiss: %v", err)
	}

	if err := svc.Clear(ctx, "P1"); err != nil {
		t.Fatalf("clear: %v", err)
	}

	globalDismissed, err := svc.IsDismissed(ctx, "A", "global")
	if err != nil {
		t.Fatalf("is_dismissed: %v", err)
	}
	if !globalDismissed {
		t.Fatal("expected global dismissal to survive clearing P1")
	}

	playlistDismissed, err := svc.IsDismissed(ctx, "A", "P1")
	if err != nil {
		t.Fatalf("is_dismissed: %v", err)
	}
	if playlistDismissed {
		t.Fatal("expected P1 dismissal removed after clear")
	}
}

func TestRemoveDeletesSingleDismissal(t *testing.T) {
	ctx := context.Background()
	svc := New(setupTestStore(t))

	if err := svc.Dismiss(ctx, "A", "P1"); err != nil {
		t.Fatalf("dismiss: %v", err)
	}
	if err := svc.Remove(ctx, "A", "P1"); err != nil {
		t.Fatalf("remove: %v", err)
	}

	dismissed, err := svc.IsDismissed(ctx, "A", "P1")
	if err != nil {
		t.Fatalf("is_dismissed: %v", err)
	}
	if dismissed {
		t.Fatal("expected dismissal removed")
	}
}
