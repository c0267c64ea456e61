// Package guard holds the in-process protections wrapped around login,
// code delivery and outbound collaborator calls.
package guard

import "time"

// Result is the outcome of a guard check.
type Result struct {
	Allowed    bool
	Reason     string
	Guard      string
	RetryAfter time.Duration
}

func allow() Result { return Result{Allowed: true} }
