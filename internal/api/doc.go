// Package api serves the gateway's HTTP surface. It reads request bodies,
// hands them to the domain package to be decoded and built into operations,
// dispatches those operations to a store.DocumentStore and encodes the
// results as relaxed Extended JSON.
//
// Errors from every layer are funneled through HandleAPIError, which maps
// them to a status code and a client-safe message and logs the redacted
// details with the request's trace ID.
package api
