// Copyright 2026 The Nargate Authors
// SPDX-License-Identifier: Apache-2.0

package narinfo

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/nargate/nargate/lib/netutil"
)

// Fetcher retrieves metadata records from a store over HTTP. Each
// call issues a single GET; nothing is retried or cached.
type Fetcher struct {
	baseURL string
	client  *http.Client
}

// NewFetcher creates a Fetcher for the store rooted at baseURL. A nil
// client uses http.DefaultClient.
func NewFetcher(baseURL string, client *http.Client) *Fetcher {
	if baseURL == "" {
		panic("narinfo.Fetcher: baseURL is required")
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// Fetch performs a single GET of the raw metadata record for hash.
// A non-success response status is an error; the error message quotes
// the leading bytes of the response body for diagnosis. Callers parse
// the returned bytes with [Parse].
func (f *Fetcher) Fetch(ctx context.Context, hash string) ([]byte, error) {
	url := f.baseURL + "/" + hash + ".narinfo"

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", url, err)
	}

	response, err := f.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, fmt.Errorf("GET %s: status %d: %s",
			url, response.StatusCode, netutil.ErrorBody(response.Body))
	}

	data, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}
	return data, nil
}
