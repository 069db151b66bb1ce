package models

// Built-in step types dispatched by the runner. Unknown types pass data
// through unchanged rather than failing the run.
const (
	NodeTypeRemoteWebhook = "remotewebhook"
	NodeTypeLocalFlow     = "localflow"
	NodeTypeDataMapper    = "datamapper"
	NodeTypeWaitCallback  = "waitcallback"
	NodeTypeCondition     = "condition"
	NodeTypeParallel      = "parallel"
	NodeTypeErrorBoundary = "errorboundary"
)
