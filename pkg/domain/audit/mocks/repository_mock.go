package mocks

import (
	"context"

	"github.com/NeuralTrust/BotGate/pkg/domain/audit"
	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Save(ctx context.Context, record *audit.Record) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockRepository) List(ctx context.Context, filter audit.Filter) ([]*audit.Record, error) {
	args := m.Called(ctx, filter)
	if records, ok := args.Get(0).([]*audit.Record); ok {
		return records, args.Error(1)
	}
	return nil, args.Error(1)
}
