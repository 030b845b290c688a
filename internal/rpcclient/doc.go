// Package rpcclient implements the JSON-RPC 2.0 client side of the stdio
// transport used by tool server processes.
//
// Messages are exchanged as one JSON document per line. Each Call registers a
// buffered channel under a fresh integer id; the read loop delivers the matching
// response, error response, or ErrClientStopped once the stream ends. Lines that
// are not JSON-RPC are logged at debug level and skipped, so servers that print
// banners on stdout keep working.
package rpcclient
