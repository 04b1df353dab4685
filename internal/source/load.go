// Package source reads the static event data set: a JSON or YAML array of
// events, or an iCalendar feed, from disk or over HTTP.
package source

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"monthcal/internal/model"
)

// Format is the encoding of a source payload.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatICS  Format = "ics"
)

// Result is one load of the source.
type Result struct {
	Events []model.Event
	// Fingerprint is the sha256 of the raw payload.
	Fingerprint string
}

// Loader loads events from a file path or an http(s) URL.
type Loader struct {
	fetcher *Fetcher
}

// NewLoader returns a Loader with its own HTTP fetcher.
func NewLoader() *Loader {
	return &Loader{fetcher: NewFetcher()}
}

// Load reads and decodes the source at loc.
func (l *Loader) Load(ctx context.Context, loc string) (Result, error) {
	format, err := DetectFormat(loc)
	if err != nil {
		return Result{}, err
	}

	var body []byte
	if isRemote(loc) {
		body, _, err = l.fetcher.Fetch(ctx, loc)
	} else {
		body, err = os.ReadFile(loc)
	}
	if err != nil {
		return Result{}, err
	}

	events, err := Decode(format, loc, body)
	if err != nil {
		return Result{}, err
	}
	return Result{Events: events, Fingerprint: Fingerprint(body)}, nil
}

// Decode parses body according to format. name is only used in logs.
func Decode(format Format, name string, body []byte) ([]model.Event, error) {
	var events []model.Event
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(body, &events); err != nil {
			return nil, fmt.Errorf("decode json source: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(body, &events); err != nil {
			return nil, fmt.Errorf("decode yaml source: %w", err)
		}
	case FormatICS:
		return ParseICS(name, body)
	default:
		return nil, fmt.Errorf("unknown source format %q", format)
	}
	if events == nil {
		events = []model.Event{}
	}
	return events, nil
}

// DetectFormat picks the format from the file extension of loc.
func DetectFormat(loc string) (Format, error) {
	p := loc
	if isRemote(loc) {
		u, err := url.Parse(loc)
		if err != nil {
			return "", err
		}
		p = u.Path
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".ics", ".ical":
		return FormatICS, nil
	}
	return "", fmt.Errorf("cannot tell source format from %q", loc)
}

// Fingerprint returns the hex sha256 of body.
func Fingerprint(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

func isRemote(loc string) bool {
	return strings.HasPrefix(loc, "http://") || strings.HasPrefix(loc, "https://")
}
