// ABOUTME: miniaudio-backed endpoint enumeration
// ABOUTME: Resolves endpoint IDs to malgo device IDs for capture and playback
package device

import (
	"fmt"

	"github.com/gen2brain/malgo"
)

// MalgoEnumerator lists endpoints through miniaudio. A fresh context is
// opened for each call so newly attached devices show up.
type MalgoEnumerator struct {
	Backends []malgo.Backend
}

// NewMalgoEnumerator creates an enumerator using the default backends
func NewMalgoEnumerator() *MalgoEnumerator {
	return &MalgoEnumerator{}
}

// Endpoints returns the endpoints of the given kind
func (m *MalgoEnumerator) Endpoints(kind Kind) ([]Endpoint, error) {
	ctx, err := malgo.InitContext(m.Backends, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize malgo context: %w", err)
	}
	defer func() {
		_ = ctx.Uninit()
		ctx.Free()
	}()

	infos, err := ctx.Devices(malgoType(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s devices: %w", kind, err)
	}

	endpoints := make([]Endpoint, 0, len(infos))
	for i := range infos {
		endpoints = append(endpoints, Endpoint{
			ID:      infos[i].ID.String(),
			Name:    infos[i].Name(),
			Kind:    kind,
			Default: infos[i].IsDefault != 0,
		})
	}
	return endpoints, nil
}

// LookupMalgo finds the malgo device info for an endpoint ID in an open context
func LookupMalgo(ctx malgo.Context, kind Kind, id string) (malgo.DeviceInfo, error) {
	infos, err := ctx.Devices(malgoType(kind))
	if err != nil {
		return malgo.DeviceInfo{}, fmt.Errorf("failed to list %s devices: %w", kind, err)
	}
	for _, info := range infos {
		if info.ID.String() == id {
			return info, nil
		}
	}
	return malgo.DeviceInfo{}, fmt.Errorf("%w: %s device %q", ErrNotFound, kind, id)
}

func malgoType(kind Kind) malgo.DeviceType {
	if kind == Capture {
		return malgo.Capture
	}
	return malgo.Playback
}
