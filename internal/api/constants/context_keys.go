package constants

// Context keys for decoded requests
const (
	ContextKeySubmission = "submission"
)
