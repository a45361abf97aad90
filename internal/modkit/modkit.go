// Package modkit provides module wiring and core deps
package modkit

// Module is the common surface for service modules
// keep this tiny so modules stay decoupled
type Module interface {
	// Name returns the module name used in logs
	Name() string

	// Ports returns a module specific port set for cross wiring
	Ports() any
}

// Builder constructs a Module from shared deps
type Builder func(Deps) Module
