package mocks

import (
	"context"

	"github.com/maestrohq/maestro/pkg/models"
	"github.com/stretchr/testify/mock"
)

// MockProviderAdapter is a mock implementation of protocol.ProviderAdapter
// that also implements the optional polling capability.
type MockProviderAdapter struct {
	mock.Mock

	ProviderName string
}

func (m *MockProviderAdapter) Name() string {
	if m.ProviderName != "" {
		return m.ProviderName
	}

	return "mock"
}

func (m *MockProviderAdapter) Authenticate(ctx context.Context, credentials string) (bool, error) {
	args := m.Called(ctx, credentials)

	return args.Bool(0), args.Error(1)
}

func (m *MockProviderAdapter) ListWorkflows(ctx context.Context, credentials string) ([]models.RemoteWorkflow, error) {
	args := m.Called(ctx, credentials)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]models.RemoteWorkflow), args.Error(1)
}

func (m *MockProviderAdapter) GetWorkflowPreview(ctx context.Context, credentials, workflowID string) (*models.WorkflowPreview, error) {
	args := m.Called(ctx, credentials, workflowID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.WorkflowPreview), args.Error(1)
}

func (m *MockProviderAdapter) ExecuteWorkflow(ctx context.Context, credentials, workflowID string, data map[string]any) (*models.ExecutionResult, error) {
	args := m.Called(ctx, credentials, workflowID, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.ExecutionResult), args.Error(1)
}

func (m *MockProviderAdapter) PollExecution(ctx context.Context, credentials, executionID string) (models.ExecutionStatus, error) {
	args := m.Called(ctx, credentials, executionID)

	return args.Get(0).(models.ExecutionStatus), args.Error(1)
}
