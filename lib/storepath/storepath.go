// Copyright 2026 The Nargate Authors
// SPDX-License-Identifier: Apache-2.0

// Package storepath parses request paths into a store object's content
// hash and an optional path inside the object.
package storepath

import (
	"fmt"
	"strings"
)

// HashLen is the length of a store object's content hash.
const HashLen = 32

// storePrefix is the store directory prefix accepted by the full form.
const storePrefix = "nix/store/"

// Ref identifies a stored object and, optionally, a file inside it.
type Ref struct {
	// Hash is the object's content hash, always exactly HashLen
	// characters.
	Hash string

	// Path is the slash-separated path of the requested file relative
	// to the object's root. Empty when the request targets the root
	// itself.
	Path string
}

// Parse resolves a request path into a Ref. Two grammars are tried in
// order:
//
// Full form: an optional leading "/", the literal "nix/store/", then a
// "<hash>-<name>" segment whose first 32 characters are the hash,
// optionally followed by "/" and a path inside the object.
//
// Bare form: the first 32 characters of the input are the hash,
// optionally followed by "/" and a path inside the object. Trailing
// text after the hash that does not begin with "/" is ignored.
//
// Trailing slashes on the inner path are stripped in both forms. The
// hash is not validated beyond its length; a nonsense hash surfaces
// later as a failed metadata fetch.
func Parse(request string) (Ref, error) {
	if ref, ok := parseFull(request); ok {
		return ref, nil
	}
	if ref, ok := parseBare(request); ok {
		return ref, nil
	}
	return Ref{}, fmt.Errorf("not a store path: %q", request)
}

// parseFull handles "/nix/store/<hash>-<name>[/path]". A store segment
// shorter than the hash length fails the grammar.
func parseFull(request string) (Ref, bool) {
	s, ok := strings.CutPrefix(strings.TrimPrefix(request, "/"), storePrefix)
	if !ok {
		return Ref{}, false
	}
	segment, rest, hasRest := strings.Cut(s, "/")
	if len(segment) < HashLen {
		return Ref{}, false
	}
	ref := Ref{Hash: segment[:HashLen]}
	if hasRest {
		ref.Path = strings.TrimRight(rest, "/")
	}
	return ref, true
}

// parseBare handles "<hash>[/path]".
func parseBare(request string) (Ref, bool) {
	if len(request) < HashLen {
		return Ref{}, false
	}
	ref := Ref{Hash: request[:HashLen]}
	if rest, ok := strings.CutPrefix(request[HashLen:], "/"); ok {
		ref.Path = strings.TrimRight(rest, "/")
	}
	return ref, true
}
