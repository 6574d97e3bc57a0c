package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	appsync "github.com/tillpoint/pos/internal/application/sync"
	"github.com/tillpoint/pos/internal/domain/entity"
	infraRepo "github.com/tillpoint/pos/internal/infrastructure/repository"
)

func customerFixture() (*CustomerService, *fakeCustomerRepo, *fakePushQueue, context.Context) {
	repo := newFakeCustomerRepo()
	queue := &fakePushQueue{}
	svc := NewCustomerService(repo, queue, &fakeNotifier{})
	ctx := infraRepo.WithDevice(context.Background(), uuid.New(), uuid.New())
	return svc, repo, queue, ctx
}

func TestDeleteCustomerQueuesDeletion(t *testing.T) {
	svc, repo, queue, ctx := customerFixture()

	customer := &entity.Customer{ID: uuid.New(), Name: "Walk-in"}
	repo.customers[customer.ID] = customer

	if err := svc.DeleteCustomer(ctx, customer.ID); err != nil {
		t.Fatalf("DeleteCustomer: %v", err)
	}
	if queue.count() != 1 {
		t.Fatalf("expected 1 queued mutation, got %d", queue.count())
	}
	m := queue.entries[0]
	if m.Entity != appsync.EntityCustomer || m.Op != "delete" || m.RecordID != customer.ID {
		t.Fatalf("unexpected mutation %s/%s for %s", m.Entity, m.Op, m.RecordID)
	}
}

func TestCustomerEnqueueErrorSurfaces(t *testing.T) {
	svc, repo, queue, ctx := customerFixture()
	queue.enqueueErr = errors.New("queue table locked")

	if _, err := svc.CreateCustomer(ctx, &CustomerInput{Name: "Walk-in"}); err == nil {
		t.Fatal("CreateCustomer should surface the enqueue error")
	}

	customer := &entity.Customer{ID: uuid.New(), Name: "Walk-in"}
	repo.customers[customer.ID] = customer

	if _, err := svc.UpdateCustomer(ctx, customer.ID, &CustomerInput{Name: "Renamed"}); err == nil {
		t.Fatal("UpdateCustomer should surface the enqueue error")
	}
	if err := svc.DeleteCustomer(ctx, customer.ID); err == nil {
		t.Fatal("DeleteCustomer should surface the enqueue error")
	}
}
