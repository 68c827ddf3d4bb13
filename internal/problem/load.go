package problem

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

//go:embed problems.json
var embedded []byte

// maxBody caps how much of a remote problem list is read.
const maxBody = 4 << 20

// LoadOption configures [Load].
type LoadOption func(*loadOptions)

type loadOptions struct {
	client *http.Client
}

// WithHTTPClient sets the client used for http(s) sources.
// Default: a client with a 10 second timeout.
func WithHTTPClient(c *http.Client) LoadOption {
	return func(o *loadOptions) {
		o.client = c
	}
}

// Load reads and validates a problem list from source, which is a file path,
// an http:// or https:// URL, or empty for the embedded list.
func Load(ctx context.Context, source string, opts ...LoadOption) ([]Problem, error) {
	o := loadOptions{client: &http.Client{Timeout: 10 * time.Second}}
	for _, opt := range opts {
		opt(&o)
	}

	var (
		data []byte
		err  error
	)
	switch {
	case source == "":
		data = embedded
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		data, err = fetch(ctx, o.client, source)
	default:
		data, err = os.ReadFile(source)
		if err != nil {
			err = fmt.Errorf("problem: read %q: %w", source, err)
		}
	}
	if err != nil {
		return nil, err
	}
	return Parse(bytes.NewReader(data))
}

// Embedded returns the built-in problem list.
func Embedded() []Problem {
	problems, err := Parse(bytes.NewReader(embedded))
	if err != nil {
		panic(fmt.Sprintf("problem: embedded list is invalid: %v", err))
	}
	return problems
}

// Parse decodes a JSON array of problems from r and validates it.
func Parse(r io.Reader) ([]Problem, error) {
	var problems []Problem
	if err := json.NewDecoder(r).Decode(&problems); err != nil {
		return nil, fmt.Errorf("problem: decode: %w", err)
	}
	if err := Validate(problems); err != nil {
		return nil, err
	}
	return problems, nil
}

func fetch(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("problem: build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("problem: fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("problem: fetch %s: unexpected status %d", url, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("problem: read body: %w", err)
	}
	return data, nil
}
