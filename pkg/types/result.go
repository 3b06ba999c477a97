package types

// Issue describes one failed validation check, with expected and actual
// values embedded in the message.
type Issue struct {
	Check   string
	Message string
}

// Report is the verdict of a single validation run. Failed is true when at
// least one check recorded an issue; Issues keeps check order.
type Report struct {
	Failed bool
	Issues []Issue
}
