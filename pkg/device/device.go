// ABOUTME: Audio endpoint descriptions and lookup helpers
// ABOUTME: Engine-facing discovery interface independent of any driver
package device

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when no endpoint matches a lookup
var ErrNotFound = errors.New("audio endpoint not found")

// Kind is the direction of an endpoint
type Kind int

const (
	// Playback endpoints render audio. Loopback capture also targets them.
	Playback Kind = iota + 1
	// Capture endpoints record audio, e.g. microphones
	Capture
)

func (k Kind) String() string {
	switch k {
	case Playback:
		return "playback"
	case Capture:
		return "capture"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind accepts "playback"/"output" and "capture"/"input"
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "playback", "output", "render":
		return Playback, nil
	case "capture", "input", "record":
		return Capture, nil
	default:
		return 0, fmt.Errorf("unknown endpoint kind %q (supported: playback, capture)", s)
	}
}

// Endpoint identifies one audio device
type Endpoint struct {
	ID      string
	Name    string
	Kind    Kind
	Default bool
}

func (e Endpoint) String() string {
	if e.Default {
		return fmt.Sprintf("%s [%s] (default)", e.Name, e.ID)
	}
	return fmt.Sprintf("%s [%s]", e.Name, e.ID)
}

// Enumerator lists the endpoints currently present on the system
type Enumerator interface {
	Endpoints(kind Kind) ([]Endpoint, error)
}

// Describer is implemented by sources and sinks bound to a specific endpoint
type Describer interface {
	Endpoint() Endpoint
}

// FindByName returns the first endpoint whose name contains substr,
// ignoring case
func FindByName(endpoints []Endpoint, substr string) (Endpoint, error) {
	needle := strings.ToLower(substr)
	for _, ep := range endpoints {
		if strings.Contains(strings.ToLower(ep.Name), needle) {
			return ep, nil
		}
	}
	return Endpoint{}, fmt.Errorf("%w: no device name contains %q", ErrNotFound, substr)
}

// FindByID returns the endpoint with the given ID
func FindByID(endpoints []Endpoint, id string) (Endpoint, error) {
	for _, ep := range endpoints {
		if ep.ID == id {
			return ep, nil
		}
	}
	return Endpoint{}, fmt.Errorf("%w: id %q", ErrNotFound, id)
}

// Default returns the default endpoint, or the first one if none is marked
func Default(endpoints []Endpoint) (Endpoint, error) {
	for _, ep := range endpoints {
		if ep.Default {
			return ep, nil
		}
	}
	if len(endpoints) > 0 {
		return endpoints[0], nil
	}
	return Endpoint{}, fmt.Errorf("%w: no endpoints", ErrNotFound)
}

// Present reports whether ep is still listed by enum. Endpoints without an
// ID (system default devices) are always considered present.
func Present(enum Enumerator, ep Endpoint) (bool, error) {
	if ep.ID == "" {
		return true, nil
	}
	endpoints, err := enum.Endpoints(ep.Kind)
	if err != nil {
		return false, fmt.Errorf("failed to list %s endpoints: %w", ep.Kind, err)
	}
	_, err = FindByID(endpoints, ep.ID)
	return err == nil, nil
}

// Static is an Enumerator over a fixed list
type Static []Endpoint

func (s Static) Endpoints(kind Kind) ([]Endpoint, error) {
	var out []Endpoint
	for _, ep := range s {
		if ep.Kind == kind {
			out = append(out, ep)
		}
	}
	return out, nil
}
