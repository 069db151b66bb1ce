// Package mocks provides testify mock implementations of the core
// interfaces for use in unit tests.
package mocks

import (
	"context"

	"github.com/maestrohq/maestro/pkg/models"
	"github.com/stretchr/testify/mock"
)

// MockPersistence is a mock implementation of persistence.Persistence.
type MockPersistence struct {
	mock.Mock
}

func (m *MockPersistence) Graphs(ctx context.Context, workspaceID string) ([]*models.GraphDefinition, error) {
	args := m.Called(ctx, workspaceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.GraphDefinition), args.Error(1)
}

func (m *MockPersistence) GraphByID(ctx context.Context, id string) (*models.GraphDefinition, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.GraphDefinition), args.Error(1)
}

func (m *MockPersistence) SaveGraph(ctx context.Context, graph *models.GraphDefinition) error {
	args := m.Called(ctx, graph)

	return args.Error(0)
}

func (m *MockPersistence) DeleteGraph(ctx context.Context, id string) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

func (m *MockPersistence) SaveRun(ctx context.Context, run *models.RunRecord) error {
	args := m.Called(ctx, run)

	return args.Error(0)
}

func (m *MockPersistence) RunByID(ctx context.Context, id string) (*models.RunRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.RunRecord), args.Error(1)
}

func (m *MockPersistence) RunByCorrelationToken(ctx context.Context, token string) (*models.RunRecord, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.RunRecord), args.Error(1)
}

func (m *MockPersistence) RunsByGraphID(ctx context.Context, graphID string) ([]*models.RunRecord, error) {
	args := m.Called(ctx, graphID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.RunRecord), args.Error(1)
}

func (m *MockPersistence) SaveConnection(ctx context.Context, conn *models.ProviderConnection) error {
	args := m.Called(ctx, conn)

	return args.Error(0)
}

func (m *MockPersistence) ConnectionByID(ctx context.Context, id string) (*models.ProviderConnection, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.ProviderConnection), args.Error(1)
}

func (m *MockPersistence) ActiveConnection(ctx context.Context, workspaceID, provider string) (*models.ProviderConnection, error) {
	args := m.Called(ctx, workspaceID, provider)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.ProviderConnection), args.Error(1)
}

func (m *MockPersistence) Connections(ctx context.Context, workspaceID string) ([]*models.ProviderConnection, error) {
	args := m.Called(ctx, workspaceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.ProviderConnection), args.Error(1)
}

func (m *MockPersistence) DeleteConnection(ctx context.Context, id string) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

func (m *MockPersistence) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockPersistence) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
