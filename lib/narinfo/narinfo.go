// Copyright 2026 The Nargate Authors
// SPDX-License-Identifier: Apache-2.0

// Package narinfo fetches and parses store metadata records.
//
// A metadata record (".narinfo") is a line-oriented sequence of
// "Key: Value" pairs describing one store object. Only the URL and
// Compression keys are consumed; everything else (hashes, sizes,
// references, signatures) is ignored. Records are fetched fresh per
// request and never cached.
package narinfo

import (
	"fmt"
	"strings"
)

// Info holds the two record fields the gateway consumes. The scalar
// values are copied out of the raw record eagerly; callers never hold
// on to the record text.
type Info struct {
	// URL is the archive body's location relative to the store root.
	URL string

	// Compression is the archive body's codec tag. Empty means the
	// body is not compressed.
	Compression string
}

// Parse extracts the URL and Compression fields from a raw metadata
// record. A record without a URL field is malformed, as is any line
// missing the "Key: Value" separator. A "Compression: none" line is
// normalized to the empty tag, matching what upstream caches emit for
// uncompressed bodies.
func Parse(data []byte) (Info, error) {
	var info Info
	for lineNumber, line := range strings.Split(string(data), "\n") {
		if line == "" {
			continue
		}
		key, value, found := strings.Cut(line, ": ")
		if !found {
			return Info{}, fmt.Errorf("line %d: missing %q separator", lineNumber+1, ": ")
		}
		switch key {
		case "URL":
			info.URL = value
		case "Compression":
			if value != "none" {
				info.Compression = value
			}
		}
	}
	if info.URL == "" {
		return Info{}, fmt.Errorf("record has no URL field")
	}
	return info, nil
}
