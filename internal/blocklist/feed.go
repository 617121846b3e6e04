// Package blocklist downloads plaintext IP range feeds.
package blocklist

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	// MaxFeedBytes caps how much of a feed body is read.
	MaxFeedBytes  = 10 << 20
	maxLineBytes  = 1 << 20
	errorBodySize = 2048
)

// ErrFeedTooLarge is returned when a feed body exceeds MaxFeedBytes. A
// truncated feed is rejected because its last entry may be cut mid-line.
var ErrFeedTooLarge = fmt.Errorf("feed exceeds %d bytes", MaxFeedBytes)

// Fetch downloads the feed at url and returns its entries as filtered by ParseLines.
func Fetch(ctx context.Context, client *http.Client, url string) ([]string, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/plain")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodySize))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	content, err := io.ReadAll(io.LimitReader(resp.Body, MaxFeedBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if len(content) > MaxFeedBytes {
		return nil, ErrFeedTooLarge
	}

	entries, err := ParseLines(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return entries, nil
}

// ParseLines returns every trimmed, non-empty line of r that does not start
// with '#'. Entries keep feed order and are not validated or deduplicated.
func ParseLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 4096), maxLineBytes)

	var entries []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		entries = append(entries, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
