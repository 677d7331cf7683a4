package ddns

import (
	"fmt"
	"ydns/common"
)

// Record is one configured domain with its provider issued update URLs.
// An empty URL means the family is not updated for this domain.
type Record struct {
	Domain      string
	UpdateURL   string
	UpdateURLv6 string
}

// URL returns the update URL of the given family.
func (r Record) URL(f common.Family) string {
	if f == common.IPv6 {
		return r.UpdateURLv6
	}
	return r.UpdateURL
}

// Attempts returns how many updates the record asks for.
func (r Record) Attempts() int {
	n := 0
	for _, f := range []common.Family{common.IPv4, common.IPv6} {
		if r.URL(f) != "" {
			n++
		}
	}
	return n
}

type Kind int

const (
	Success Kind = iota
	// HTTPRejected means the server answered, but not with 2xx.
	HTTPRejected
	// ConnectionFailed means no HTTP status was obtained at all.
	ConnectionFailed
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case HTTPRejected:
		return "http_rejected"
	case ConnectionFailed:
		return "connection_failed"
	default:
		return fmt.Sprintf("unknown<%d>", int(k))
	}
}

// Outcome is the result of a single update request.
type Outcome struct {
	Kind   Kind
	Status int   // set unless Kind is ConnectionFailed
	Err    error // set if Kind is ConnectionFailed
}

// Message renders the outcome the way it is shown to the user. The second
// result tells whether it belongs on stderr.
func (o Outcome) Message(domain string, f common.Family) (msg string, isError bool) {
	label := f.String()

	switch {
	case o.Kind == ConnectionFailed:
		return fmt.Sprintf("%s (%s): connection error: %v", domain, label, o.Err), true
	case o.Kind == Success:
		return fmt.Sprintf("Updated %s (%s) successfully.", domain, label), false
	case o.Status == 404:
		return fmt.Sprintf("%s (%s): update URL is invalid (404). Check your configuration.", domain, label), true
	case o.Status == 400:
		return fmt.Sprintf("%s (%s): server rejected the request (400). You may not have a public %s address.", domain, label, label), true
	default:
		return fmt.Sprintf("%s (%s): unexpected HTTP status %d.", domain, label, o.Status), true
	}
}

// Classify maps an HTTP status to an outcome.
func Classify(status int) Outcome {
	if status >= 200 && status < 300 {
		return Outcome{Kind: Success, Status: status}
	}
	return Outcome{Kind: HTTPRejected, Status: status}
}
