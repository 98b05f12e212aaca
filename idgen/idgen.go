// Package idgen provides pluggable ID generation.
//
// Constructors across the module (surfaces, sessions, requests) accept a
// Generator, making the ID strategy a startup-time decision rather than a
// compile-time one.
package idgen

import (
	"crypto/rand"

	"github.com/google/uuid"
)

// Generator produces unique string identifiers.
type Generator func() string

// Default is UUIDv7 (RFC 9562): time-sortable, globally unique. The
// prefixed generators compose on top of it.
var Default Generator = UUIDv7()

// UUIDv7 returns a Generator producing RFC 9562 UUID v7 strings.
func UUIDv7() Generator {
	return func() string {
		return uuid.Must(uuid.NewV7()).String()
	}
}

// NanoID returns a Generator producing base-36 IDs of the given length.
// Shorter and cheaper than a UUID; for IDs that show up in URLs and log
// lines often enough that 36 characters is noise.
func NanoID(length int) Generator {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	return func() string {
		buf := make([]byte, length)
		if _, err := rand.Read(buf); err != nil {
			panic("idgen: crypto/rand failed: " + err.Error())
		}
		for i, b := range buf {
			buf[i] = alphabet[int(b)%len(alphabet)]
		}
		return string(buf)
	}
}

// Prefixed wraps a Generator and prepends a fixed prefix to every ID, so
// a bare identifier in a log line still names its kind: "srf_" surfaces,
// "ins_" inspection sessions, "req_" bridge requests.
func Prefixed(prefix string, gen Generator) Generator {
	return func() string {
		return prefix + gen()
	}
}
