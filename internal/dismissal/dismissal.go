// package dismissal manages context-scoped suppression of recommendation results.
package dismissal

import (
	"context"
	"fmt"

	"github.com/listmagify/recs-engine/internal/models"
	"github.com/listmagify/recs-engine/internal/shared"
	"github.com/listmagify/recs-engine/internal/store"
)

// Service wraps the store's dismissal operations. Dismissals from the global
// context apply additively to every query; a per-playlist dismissal never
// removes anything from the global context, and clearing one context never
// affects another.
type Service struct {
	store *store.Store
}

// New returns a dismissal Service backed by s.
func New(s *store.Store) *Service {
	return &Service{store: s}
}

// Dismiss suppresses trackID within contextID ("global" if empty).
func (svc *Service) Dismiss(ctx context.Context, trackID models.TrackID, contextID string) error {
	if contextID == "" {
		contextID = models.GlobalContext
	}
	if err := svc.store.InsertDismissal(ctx, contextID, trackID); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrStoreFailure, err)
	}
	return nil
}

// Clear removes every dismissal within contextID.
func (svc *Service) Clear(ctx context.Context, contextID string) error {
	if contextID == "" {
		contextID = models.GlobalContext
	}
	if err := svc.store.ClearContext(ctx, contextID); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrStoreFailure, err)
	}
	return nil
}

// Remove deletes a single dismissal for (contextID, trackID).
func (svc *Service) Remove(ctx context.Context, trackID models.TrackID, contextID string) error {
	if contextID == "" {
		contextID = models.GlobalContext
	}
	if err := svc.store.DeleteDismissal(ctx, contextID, trackID); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrStoreFailure, err)
	}
	return nil
}

// IsDismissed reports whether trackID is dismissed within contextID.
func (svc *Service) IsDismissed(ctx context.Context, trackID models.TrackID, contextID string) (bool, error) {
	if contextID == "" {
		contextID = models.GlobalContext
	}
	dismissed, err := svc.store.IsDismissed(ctx, contextID, trackID)
	if err != nil {
		return false, fmt.Errorf("%w: %v", shared.ErrStoreFailure, err)
	}
	return dismissed, nil
}
