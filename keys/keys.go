// Package keys builds deterministic cache keys from call arguments.
//
// A key is "<namespace>:<fingerprint>". The fingerprint of short primitive
// argument lists is readable ("42|alice|true"); everything else collapses into
// a SHA-256 digest of the JSON-encoded argument list.
package keys

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// MaxLiteralLen bounds the readable fingerprint form.
const MaxLiteralLen = 200

// KeyFunc maps call arguments to a fingerprint. Combine and Digest are both
// KeyFuncs; custom ones must be pure functions of their arguments.
type KeyFunc func(args ...any) string

// Fingerprinter lets an argument supply its own canonical identity.
// Implement it for values whose JSON form is not stable (e.g. sets kept in
// slices, structs holding maps with non-string keys, or types with volatile
// fields that must not affect the key).
type Fingerprinter interface {
	Fingerprint() string
}

// Combine returns the pipe-joined literal form of args when every argument is
// a primitive (string, bool or any numeric kind) and the result is at most
// MaxLiteralLen bytes. Otherwise it returns Digest(args...).
// No arguments yield "".
func Combine(args ...any) string {
	if len(args) == 0 {
		return ""
	}
	if lo.EveryBy(args, isPrimitive) {
		parts := lo.Map(args, func(a any, _ int) string { return literal(a) })
		if s := strings.Join(parts, "|"); len(s) <= MaxLiteralLen {
			return s
		}
	}
	return Digest(args...)
}

// Digest returns the hex SHA-256 of the JSON array of args.
// Fingerprinter arguments contribute their fingerprint string.
// Values encoding/json rejects (channels, functions) contribute their
// type and fmt representation instead.
func Digest(args ...any) string {
	if len(args) == 0 {
		return ""
	}
	elems := make([]json.RawMessage, len(args))
	for i, a := range args {
		elems[i] = element(a)
	}
	b, _ := json.Marshal(elems)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Join concatenates segments with ":" dropping empty ones.
func Join(segments ...string) string {
	return strings.Join(lo.Compact(segments), ":")
}

func element(a any) json.RawMessage {
	if f, ok := a.(Fingerprinter); ok {
		b, _ := json.Marshal(f.Fingerprint())
		return b
	}
	b, err := json.Marshal(a)
	if err != nil {
		b, _ = json.Marshal(fmt.Sprintf("%T(%v)", a, a))
	}
	return b
}

// isPrimitive reports whether a's kind is string, bool or numeric, so named
// types such as `type UserID int64` keep the readable form. Fingerprinters
// always go through Digest.
func isPrimitive(a any) bool {
	if _, ok := a.(Fingerprinter); ok || a == nil {
		return false
	}
	switch reflect.ValueOf(a).Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func literal(a any) string {
	rv := reflect.ValueOf(a)
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 32)
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 64)
	}
	return ""
}
