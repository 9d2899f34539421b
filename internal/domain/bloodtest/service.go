package bloodtest

import (
	"context"
	"errors"

	"github.com/Stikerz/numan/internal/platform/apierr"
)

type Service struct {
	repo Repository
	labs LabChecker
}

func NewService(repo Repository, labs LabChecker) *Service {
	return &Service{repo: repo, labs: labs}
}

// ListOrders returns only the orders owned by userID.
func (s *Service) ListOrders(ctx context.Context, userID int64) ([]*Order, error) {
	orders, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []*Order{}
	}
	return orders, nil
}

// CreateOrder records a pending order for panels at labID. Panel names are
// checked before the lab, and nothing is written unless both are valid.
func (s *Service) CreateOrder(ctx context.Context, userID, labID int64, panels []string) (*Order, error) {
	set, err := ParsePanels(panels)
	if err != nil {
		return nil, err
	}

	ok, err := s.labs.Exists(ctx, labID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apierr.NotFound("Not found.")
	}

	o := &Order{
		UserID:  userID,
		LabID:   &labID,
		Results: set.PendingResults(),
	}
	if err := s.repo.Create(ctx, o); err != nil {
		if errors.Is(err, ErrLabNotFound) {
			return nil, apierr.Wrap(apierr.KindNotFound, err, "Not found.")
		}
		return nil, err
	}
	return o, nil
}
