package bloodtest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Stikerz/numan/internal/platform/apierr"
)

// -- Mock Repository --

type mockRepo struct {
	orders    []*Order
	nextID    int64
	createErr error
}

func (m *mockRepo) Create(_ context.Context, o *Order) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.nextID++
	o.ID = m.nextID
	o.Timestamp = time.Now()
	m.orders = append(m.orders, o)
	return nil
}

func (m *mockRepo) ListByUser(_ context.Context, userID int64) ([]*Order, error) {
	var out []*Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

type mockLabs struct {
	ids map[int64]bool
	err error
}

func (m *mockLabs) Exists(_ context.Context, id int64) (bool, error) {
	return m.ids[id], m.err
}

func newTestService() (*Service, *mockRepo, *mockLabs) {
	repo := &mockRepo{}
	labs := &mockLabs{ids: map[int64]bool{1: true, 2: true}}
	return NewService(repo, labs), repo, labs
}

func TestCreateOrder(t *testing.T) {
	svc, repo, _ := newTestService()
	o, err := svc.CreateOrder(context.Background(), 7, 1, []string{"HDL", "LDL", "CBC"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.ID == 0 {
		t.Error("expected id to be assigned")
	}
	if o.UserID != 7 || o.LabID == nil || *o.LabID != 1 {
		t.Errorf("unexpected owner or lab: %+v", o)
	}
	if o.Ready {
		t.Error("expected new order not to be ready")
	}
	if len(o.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(o.Results))
	}
	for _, p := range []string{"HDL", "LDL", "CBC"} {
		v, ok := o.Results[p]
		if !ok || v != nil {
			t.Errorf("expected pending result for %s", p)
		}
	}
	if len(repo.orders) != 1 {
		t.Errorf("expected 1 stored order, got %d", len(repo.orders))
	}
}

func TestCreateOrder_DuplicatePanels(t *testing.T) {
	svc, _, _ := newTestService()
	o, err := svc.CreateOrder(context.Background(), 7, 1, []string{"HDL", "HDL"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(o.Results) != 1 {
		t.Errorf("expected duplicate panels to collapse, got %v", o.Results)
	}
}

func TestCreateOrder_UnsupportedPanel(t *testing.T) {
	svc, repo, _ := newTestService()
	_, err := svc.CreateOrder(context.Background(), 7, 1, []string{"UNSUPPORTED_TEST"})
	if !apierr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(repo.orders) != 0 {
		t.Error("expected nothing to be stored")
	}
}

func TestCreateOrder_UnknownLab(t *testing.T) {
	svc, repo, _ := newTestService()
	_, err := svc.CreateOrder(context.Background(), 7, 4, []string{"HDL", "LDL", "CBC"})
	if !apierr.IsNotFound(err) {
		t.Fatalf("expected not found error, got %v", err)
	}
	if len(repo.orders) != 0 {
		t.Error("expected nothing to be stored")
	}
}

func TestCreateOrder_PanelsCheckedBeforeLab(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.CreateOrder(context.Background(), 7, 4, []string{"XYZ"})
	if !apierr.IsValidation(err) {
		t.Fatalf("expected validation error before lab lookup, got %v", err)
	}
}

func TestCreateOrder_LabRemovedConcurrently(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.createErr = ErrLabNotFound
	_, err := svc.CreateOrder(context.Background(), 7, 1, []string{"HDL"})
	if !apierr.IsNotFound(err) {
		t.Fatalf("expected not found error, got %v", err)
	}
	if !errors.Is(err, ErrLabNotFound) {
		t.Error("expected ErrLabNotFound to stay in the chain")
	}
}

func TestCreateOrder_LabCheckError(t *testing.T) {
	svc, _, labs := newTestService()
	labs.err = errors.New("connection refused")
	_, err := svc.CreateOrder(context.Background(), 7, 1, []string{"HDL"})
	if err == nil || apierr.KindOf(err) != apierr.KindInternal {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestListOrders_OnlyOwn(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	svc.CreateOrder(ctx, 7, 1, []string{"HDL"})
	svc.CreateOrder(ctx, 8, 1, []string{"LDL"})
	svc.CreateOrder(ctx, 7, 2, []string{"CBC"})

	orders, err := svc.ListOrders(ctx, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(orders))
	}
	for _, o := range orders {
		if o.UserID != 7 {
			t.Errorf("got order of user %d", o.UserID)
		}
	}
}

func TestListOrders_Empty(t *testing.T) {
	svc, _, _ := newTestService()
	orders, err := svc.ListOrders(context.Background(), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if orders == nil || len(orders) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", orders)
	}
}
