// Package store defines the interface between the gateway and the document
// backend. The gateway builds validated operation arguments and hands them to
// a DocumentStore; implementations such as platform/mongodb translate them into
// driver calls and classify failures into the sentinel errors declared here.
package store
