// Package api defines the request and response messages of the splittie.v1
// RPC services. Messages are plain structs carried as JSON; amounts are
// fixed-point decimal strings so no precision is lost on the wire.
package api
