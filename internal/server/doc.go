// Package server exposes the gateway over HTTP.
//
// Two transports share one mux under a configurable base path (default
// /api/v1/mcp):
//
//   - a REST surface for listing and calling tools and for managing server
//     processes (/tools, /tools/{name}/call, /servers, /server/{name}/...,
//     /skills/{name}/start);
//   - an MCP SSE transport: GET /sse opens an event stream whose first event
//     announces the /messages URL, and every JSON-RPC envelope POSTed to
//     /messages is answered on the stream.
//
// Replies on the SSE transport are broadcast through the Hub to every attached
// stream, not only to the one that sent the request. Clients match replies by
// their JSON-RPC id.
package server
