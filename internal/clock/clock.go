// Package clock provides an injectable time source so TTL and
// grace-period logic can be exercised deterministically in tests.
package clock

import "time"

// Clock supplies the current time.  Production code uses System;
// tests substitute a fixed or stepping implementation.
type Clock interface {
	Now() time.Time
}

// System reads the wall clock in UTC.
type System struct{}

// Now returns the current UTC time.
func (System) Now() time.Time { return time.Now().UTC() }
