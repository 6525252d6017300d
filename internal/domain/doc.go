// Package domain contains the gateway's request model: the catalogue of
// actions, the structural decoder that turns a JSON body into a RequestShape,
// and the builder that turns a shape into the arguments of a backend call.
// Nothing in this package performs I/O.
package domain
