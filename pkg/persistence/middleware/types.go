// Package middleware wraps a session journal with at-rest protections.
package middleware

import "github.com/aretw0/silvershell/pkg/ports"

// Middleware allows wrapping a Journal to add behavior.
type Middleware func(ports.Journal) ports.Journal

// Chain applies mws to journal so that the first middleware sees entries first.
func Chain(journal ports.Journal, mws ...Middleware) ports.Journal {
	for i := len(mws) - 1; i >= 0; i-- {
		journal = mws[i](journal)
	}
	return journal
}
