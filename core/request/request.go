package request

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/RixhersAjazi/schedulemaker/core/model"
)

// ErrInvalid matches every error caused by a malformed or rejected request,
// as opposed to I/O failures.
var ErrInvalid = errors.New("invalid request")

type invalidError string

func (e invalidError) Error() string        { return string(e) }
func (e invalidError) Is(target error) bool { return target == ErrInvalid }

var (
	// ErrEmptyRequest is returned when nothing was provided to schedule.
	ErrEmptyRequest error = invalidError("cannot generate schedules because no courses or course items were provided")
	// ErrUnsupportedFormat is returned for encodings other than JSON and YAML.
	ErrUnsupportedFormat error = invalidError("unsupported request format")
	// ErrDuplicateOption is returned when a group lists the same option twice.
	ErrDuplicateOption error = invalidError("duplicate option")
	// ErrNegativeLimit is returned when limit is below zero.
	ErrNegativeLimit error = invalidError("limit must not be negative")
)

// Format names a request encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Request is a normalised search request ready for the enumerator.
type Request struct {
	Groups     []model.SlotGroup       `json:"groups"`
	Fixed      []model.FixedItem       `json:"fixed,omitempty"`
	Exclusions []model.ExclusionWindow `json:"exclusions,omitempty"`
	// Verbose asks for the conflict log to be returned with the result.
	Verbose bool `json:"verbose,omitempty"`
	// Limit caps the number of schedules; 0 defers to the server default.
	Limit int `json:"limit,omitempty"`
}

// document is the wire shape accepted from clients.
type document struct {
	Groups     []model.SlotGroup `json:"groups" yaml:"groups"`
	Fixed      []block           `json:"fixed" yaml:"fixed"`
	Exclusions []block           `json:"exclusions" yaml:"exclusions"`
	Verbose    bool              `json:"verbose" yaml:"verbose"`
	Limit      int               `json:"limit" yaml:"limit"`
}

// block describes a fixed item or exclusion either as explicit windows or as
// a set of days sharing one start and end time.
type block struct {
	ID    string             `json:"id" yaml:"id"`
	Title string             `json:"title" yaml:"title"`
	Days  []model.Day        `json:"days" yaml:"days"`
	Start model.Minutes      `json:"start" yaml:"start"`
	End   model.Minutes      `json:"end" yaml:"end"`
	Times []model.TimeWindow `json:"times" yaml:"times"`
}

func (b block) windows() []model.TimeWindow {
	out := make([]model.TimeWindow, 0, len(b.Times)+len(b.Days))
	out = append(out, b.Times...)
	for _, d := range b.Days {
		out = append(out, model.TimeWindow{Day: d, Start: b.Start, End: b.End})
	}
	return out
}

// Decode reads a request in the given format, normalises and validates it.
func Decode(r io.Reader, format Format) (*Request, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read request: %w", err)
	}
	var doc document
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&doc)
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&doc)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrInvalid, format, err)
	}
	req := doc.normalise()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

// Load reads a request file, choosing the format by extension.
func Load(path string) (*Request, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f, format)
}

func (d document) normalise() *Request {
	req := &Request{Verbose: d.Verbose, Limit: d.Limit}
	for _, g := range d.Groups {
		if len(g.Options) == 0 {
			continue
		}
		slot := len(req.Groups) + 1
		opts := make([]model.Option, len(g.Options))
		for i, o := range g.Options {
			o.Slot = slot
			opts[i] = o
		}
		req.Groups = append(req.Groups, model.SlotGroup{Name: g.Name, Options: opts})
	}
	for _, b := range d.Fixed {
		w := b.windows()
		if len(w) == 0 {
			continue
		}
		req.Fixed = append(req.Fixed, model.FixedItem{ID: b.ID, Title: b.Title, Times: w})
	}
	for _, b := range d.Exclusions {
		w := b.windows()
		if len(w) == 0 {
			continue
		}
		req.Exclusions = append(req.Exclusions, model.ExclusionWindow{Times: w})
	}
	return req
}

// Validate checks the preconditions the enumerator relies on callers to
// enforce. Malformed time windows are accepted.
func (r *Request) Validate() error {
	if len(r.Groups) == 0 && len(r.Fixed) == 0 {
		return ErrEmptyRequest
	}
	if r.Limit < 0 {
		return ErrNegativeLimit
	}
	for gi, g := range r.Groups {
		seen := make(map[string]struct{}, len(g.Options))
		for _, o := range g.Options {
			if o.ID == "" {
				continue
			}
			if _, ok := seen[o.ID]; ok {
				return fmt.Errorf("group %d: %w %q", gi+1, ErrDuplicateOption, o.ID)
			}
			seen[o.ID] = struct{}{}
		}
	}
	return nil
}
