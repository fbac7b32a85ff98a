package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"retail-ledger/internal/domain"
)

type mockJournal struct {
	mock.Mock
}

func (m *mockJournal) Append(ctx context.Context, t domain.Transaction) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *mockJournal) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockJournal) Close() error {
	args := m.Called()
	return args.Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishTransfer(ctx context.Context, t domain.Transaction) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *mockPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}
