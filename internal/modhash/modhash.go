// Package modhash encodes and decodes mod dependency identifiers.
//
// An identifier is the URL-safe base64 (padded) encoding of "name==version".
// It is reversible and is not a cryptographic hash.
package modhash

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// Separator joins name and version inside an identifier.
const Separator = "=="

// ErrMalformed reports an identifier that does not decode to name==version.
var ErrMalformed = errors.New("malformed mod identifier")

// DependString returns the literal string an identifier encodes.
func DependString(name, version string) string {
	return name + Separator + version
}

// Encode returns the dependency identifier for name and version.
func Encode(name, version string) string {
	return base64.URLEncoding.EncodeToString([]byte(DependString(name, version)))
}

// DecodeString reverses Encode and returns the raw name==version text.
func DecodeString(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("%w: empty identifier", ErrMalformed)
	}
	raw, err := base64.URLEncoding.DecodeString(id)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return string(raw), nil
}

// Decode reverses Encode, splitting at the first separator.
func Decode(id string) (name, version string, err error) {
	raw, err := DecodeString(id)
	if err != nil {
		return "", "", err
	}
	name, version, ok := strings.Cut(raw, Separator)
	if !ok {
		return "", "", fmt.Errorf("%w: %q has no %q separator", ErrMalformed, raw, Separator)
	}
	return name, version, nil
}
