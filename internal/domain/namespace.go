package domain

import (
	"fmt"
	"strings"
)

// MaxDatabaseNameLength is the backend's limit on database name length in bytes.
const MaxDatabaseNameLength = 64

// ValidateDatabaseName checks a database name taken from a request path.
// Names must be non-empty, at most MaxDatabaseNameLength bytes, and free of
// '$', '.' and NUL.
func ValidateDatabaseName(name string) error {
	if err := validateName("database", name); err != nil {
		return err
	}
	if strings.Contains(name, ".") {
		return buildError("database", fmt.Sprintf("database name %q must not contain '.'", name))
	}
	if len(name) > MaxDatabaseNameLength {
		return buildError("database", fmt.Sprintf("database name is longer than %d bytes", MaxDatabaseNameLength))
	}
	return nil
}

// ValidateCollectionName checks a collection name taken from a request path.
// Names must be non-empty and free of '$' and NUL.
func ValidateCollectionName(name string) error {
	return validateName("collection", name)
}

func validateName(kind, name string) error {
	switch {
	case name == "":
		return buildError(kind, kind+" name must not be empty")
	case strings.Contains(name, "$"):
		return buildError(kind, fmt.Sprintf("%s name %q must not contain '$'", kind, name))
	case strings.ContainsRune(name, 0):
		return buildError(kind, kind+" name must not contain NUL")
	}
	return nil
}
