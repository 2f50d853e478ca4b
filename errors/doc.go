// Package errors provides structured error types for the bridge.
//
// Every error carries a Phase (where it happened) and a Kind (what went
// wrong), so callers can match with errors.Is against a prototype:
//
//	if errors.Is(err, &bridgeerrors.Error{Phase: bridgeerrors.PhaseRun, Kind: bridgeerrors.KindUnsupported}) {
//	    // interpreter fallback fired
//	}
//
// No operation in this layer retries; every error is the outcome of a
// single synchronous call.
package errors
