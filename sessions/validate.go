package sessions

import (
	"strconv"

	"github.com/google/uuid"
)

// ValidateUUID checks that value is a version 4, RFC 4122 UUID in the
// hyphenated 8-4-4-4-12 form and returns it lower-cased. Braced, urn:uuid: and
// undashed spellings are rejected.
func ValidateUUID(name, value string) (string, error) {
	if len(value) != 36 {
		return "", &ArgumentError{Name: name, Value: value, Reason: "not a UUID"}
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return "", &ArgumentError{Name: name, Value: value, Reason: "not a UUID"}
	}
	if id.Version() != 4 {
		return "", &ArgumentError{Name: name, Value: value, Reason: "not a version 4 UUID"}
	}
	if id.Variant() != uuid.RFC4122 {
		return "", &ArgumentError{Name: name, Value: value, Reason: "not an RFC 4122 UUID"}
	}
	return id.String(), nil
}

func validateNonNegative(name string, v *int) error {
	if v != nil && *v < 0 {
		return &ArgumentError{Name: name, Value: strconv.Itoa(*v), Reason: "must not be negative"}
	}
	return nil
}
