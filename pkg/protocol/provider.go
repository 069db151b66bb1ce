package protocol

import (
	"context"

	"github.com/maestrohq/maestro/pkg/models"
)

// ProviderAdapter is the uniform interface to an external automation
// back-end. Credentials are the serialized payload stored on a
// ProviderConnection; each adapter defines its own format.
//
// Listing and preview failures must propagate as descriptive errors.
// ExecuteWorkflow failures are captured in ExecutionResult instead, so
// callers normalize both shapes into one retry path.
type ProviderAdapter interface {
	// Name identifies the back-end; it must match the provider tag on
	// connections this adapter accepts.
	Name() string

	// Authenticate validates credentials with a lightweight read-only call.
	// Invalid credentials return (false, nil); transport failures return an
	// error. Callers treat both as "not authenticated".
	Authenticate(ctx context.Context, credentials string) (bool, error)

	ListWorkflows(ctx context.Context, credentials string) ([]models.RemoteWorkflow, error)
	GetWorkflowPreview(ctx context.Context, credentials, workflowID string) (*models.WorkflowPreview, error)
	ExecuteWorkflow(ctx context.Context, credentials, workflowID string, data map[string]any) (*models.ExecutionResult, error)
}

// ExecutionPoller is the optional polling capability. Back-ends that cannot
// report asynchronous execution status simply do not implement it.
type ExecutionPoller interface {
	PollExecution(ctx context.Context, credentials, executionID string) (models.ExecutionStatus, error)
}
