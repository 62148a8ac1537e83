package application

// ReviewResult is the immutable outcome of a moderator decision, carried from
// the interaction layer into the workflow.
type ReviewResult struct {
	Status     ReviewStatus
	DenyReason string
}
