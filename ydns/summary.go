package ydns

import (
	"fmt"
	"ydns/common"
	"ydns/ddns"

	"go.uber.org/multierr"
)

type Attempt struct {
	Domain  string
	Family  common.Family
	Outcome ddns.Outcome
}

// Summary aggregates the outcomes of one run. Every attempt is kept.
type Summary struct {
	Attempts            []Attempt
	AnyHTTPRejected     bool
	AnyConnectionFailed bool
}

func (s *Summary) add(domain string, family common.Family, out ddns.Outcome) {
	s.Attempts = append(s.Attempts, Attempt{Domain: domain, Family: family, Outcome: out})

	switch out.Kind {
	case ddns.HTTPRejected:
		s.AnyHTTPRejected = true
	case ddns.ConnectionFailed:
		s.AnyConnectionFailed = true
	}
}

// ExitCode maps the run to a process exit status. Connection failures
// always count; HTTP rejections only count when strict is set.
func (s *Summary) ExitCode(strict bool) int {
	switch {
	case s.AnyConnectionFailed:
		return common.ExitConnection
	case strict && s.AnyHTTPRejected:
		return common.ExitUpdateFailed
	default:
		return common.ExitOK
	}
}

// Err combines the errors of all failed connections, or returns nil.
func (s *Summary) Err() error {
	var err error
	for _, a := range s.Attempts {
		if a.Outcome.Kind == ddns.ConnectionFailed {
			err = multierr.Append(err, fmt.Errorf("%s (%s): %w", a.Domain, a.Family, a.Outcome.Err))
		}
	}
	return err
}
