package common

// Process exit statuses. Configuration problems are reported before any
// update is attempted; the last two summarize a completed run.
const (
	ExitOK             = 0
	ExitConfigNotFound = 1
	ExitConfigParse    = 2
	ExitNoDomains      = 3
	ExitUpdateFailed   = 4
	ExitConnection     = 5
)
