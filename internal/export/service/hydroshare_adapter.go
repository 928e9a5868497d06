package service

import (
	"context"

	"github.com/model-my-watershed/mmw-backend/internal/hydroshare"
)

// HydroShareProvider adapts hydroshare.Service to the ClientProvider
// interface the orchestrator consumes.
type HydroShareProvider struct {
	svc *hydroshare.Service
}

func NewHydroShareProvider(svc *hydroshare.Service) *HydroShareProvider {
	return &HydroShareProvider{svc: svc}
}

func (p *HydroShareProvider) ClientFor(ctx context.Context, userID string) (ResourceClient, error) {
	client, err := p.svc.ClientFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return client, nil
}
