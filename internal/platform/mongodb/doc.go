// Package mongodb implements store.DocumentStore on top of the official MongoDB
// Go driver.
//
// It owns client construction (pool sizing, startup ping), the translation of
// validated option documents into driver options, and the mapping of driver
// errors onto the store error taxonomy. Driver errors never leave this package
// unwrapped: every failure is classified with MapError and logged in redacted
// form before it is returned.
package mongodb
