package application

import (
	"context"
	"errors"
	"testing"

	"github.com/example/facility-scheduler/internal/persistence/memory"
)

func newEquipmentService() *EquipmentService {
	return NewEquipmentService(memory.NewStore(fixedNow), sequentialIDs("eq"), nil)
}

func TestEquipmentServiceCreateAndGet(t *testing.T) {
	svc := newEquipmentService()
	ctx := context.Background()

	created, err := svc.Create(ctx, EquipmentInput{Name: "  beam chopper  "})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Name != "beam chopper" {
		t.Errorf("Expected trimmed name 'beam chopper', got '%s'", created.Name)
	}
	if created.ID == "" {
		t.Error("Expected a generated id")
	}

	fetched, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if fetched.Name != "beam chopper" {
		t.Errorf("Expected 'beam chopper', got '%s'", fetched.Name)
	}
}

func TestEquipmentServiceCreateValidation(t *testing.T) {
	svc := newEquipmentService()

	_, err := svc.Create(context.Background(), EquipmentInput{Name: "   "})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := vErr.FieldErrors["name"]; !ok {
		t.Errorf("expected 'name' field error, got %v", vErr.FieldErrors)
	}
}

func TestEquipmentServiceListAndDelete(t *testing.T) {
	svc := newEquipmentService()
	ctx := context.Background()

	for _, name := range []string{"sample changer", "cryostat"} {
		if _, err := svc.Create(ctx, EquipmentInput{Name: name}); err != nil {
			t.Fatalf("Create %q failed: %v", name, err)
		}
	}

	items, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(items) != 2 || items[0].Name != "cryostat" || items[1].Name != "sample changer" {
		t.Fatalf("expected name ordering [cryostat, sample changer], got %v", items)
	}

	if err := svc.Delete(ctx, items[0].ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := svc.Delete(ctx, items[0].ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on double delete, got %v", err)
	}
}
