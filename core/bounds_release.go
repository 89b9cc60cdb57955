//go:build !lifedebug

package core

const boundsChecks = false
