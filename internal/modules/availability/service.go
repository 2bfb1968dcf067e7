// README: Availability service; providers check in and out of the offer pool.
package availability

import (
	"context"
	"log/slog"

	"fixly/internal/types"
)

type Service struct {
	store    *Store
	radiusKm float64
	logger   *slog.Logger
}

func NewService(store *Store, radiusKm float64, logger *slog.Logger) *Service {
	return &Service{store: store, radiusKm: radiusKm, logger: logger}
}

func (s *Service) SetAvailable(ctx context.Context, providerID types.ID, p types.Point) error {
	return s.store.Add(ctx, providerID, p)
}

func (s *Service) SetUnavailable(ctx context.Context, providerID types.ID) error {
	return s.store.Remove(ctx, providerID)
}

// Nearby implements booking.ProviderFinder.
func (s *Service) Nearby(ctx context.Context, p *types.Point, limit int) ([]types.ID, error) {
	return s.store.Nearby(ctx, p, s.radiusKm, limit)
}
