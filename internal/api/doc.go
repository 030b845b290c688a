// Package api holds the error types shared across mcphost packages.
//
// The supervisor, the aggregation gateway, the HTTP server and the CLI all
// report a missing server or tool as *NotFoundError. Callers test for it with
// IsNotFound rather than matching messages:
//
//	if api.IsNotFound(err) {
//	    writeError(w, http.StatusNotFound, err)
//	}
package api
