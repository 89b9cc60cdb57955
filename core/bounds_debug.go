//go:build lifedebug

package core

// boundsChecks enables per-access extent checks in Grid accessors.
const boundsChecks = true
