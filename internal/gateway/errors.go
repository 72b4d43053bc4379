// ABOUTME: Error type for unusable generative service output.
// ABOUTME: Carries the failing stage plus parse context for diagnosis.

package gateway

import (
	"fmt"
	"strings"
)

// Stages at which a GatewayError can occur.
const (
	OpRequest  = "request"
	OpExtract  = "extract"
	OpParse    = "parse"
	OpContract = "contract"
)

// GatewayError reports that no usable contacts payload could be obtained.
type GatewayError struct {
	Op       string
	Provider string
	Err      error

	// Set for parse failures.
	Length  int
	Snippet string
}

func (e *GatewayError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "gateway %s", e.Op)
	if e.Provider != "" {
		fmt.Fprintf(&b, " (%s)", e.Provider)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	if e.Op == OpParse {
		fmt.Fprintf(&b, " (response length: %d chars)", e.Length)
		if e.Snippet != "" {
			fmt.Fprintf(&b, " near: ...%s...", e.Snippet)
		}
	}
	return b.String()
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}
