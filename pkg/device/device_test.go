// ABOUTME: Tests for endpoint lookup helpers
// ABOUTME: Uses a static enumerator
package device

import (
	"errors"
	"testing"
)

var endpoints = []Endpoint{
	{ID: "01", Name: "Speakers (Realtek Audio)", Kind: Playback, Default: true},
	{ID: "02", Name: "CABLE Input (VB-Audio Virtual Cable)", Kind: Playback},
	{ID: "03", Name: "Microphone Array", Kind: Capture, Default: true},
}

func TestFindByName(t *testing.T) {
	tests := []struct {
		substr   string
		expected string
		wantErr  bool
	}{
		{"CABLE", "02", false},
		{"cable", "02", false},
		{"realtek", "01", false},
		{"Voicemeeter", "", true},
	}

	for _, tt := range tests {
		ep, err := FindByName(endpoints, tt.substr)
		if tt.wantErr {
			if !errors.Is(err, ErrNotFound) {
				t.Errorf("%q: expected ErrNotFound, got %v", tt.substr, err)
			}
			continue
		}
		if err != nil || ep.ID != tt.expected {
			t.Errorf("%q: expected %s, got %+v (err=%v)", tt.substr, tt.expected, ep, err)
		}
	}
}

func TestStaticFiltersByKind(t *testing.T) {
	playback, err := Static(endpoints).Endpoints(Playback)
	if err != nil {
		t.Fatal(err)
	}
	if len(playback) != 2 {
		t.Errorf("expected 2 playback endpoints, got %d", len(playback))
	}

	def, err := Default(playback)
	if err != nil || def.ID != "01" {
		t.Errorf("expected default 01, got %+v (err=%v)", def, err)
	}
}

func TestPresent(t *testing.T) {
	enum := Static(endpoints)

	ok, err := Present(enum, Endpoint{ID: "03", Kind: Capture})
	if err != nil || !ok {
		t.Errorf("expected endpoint 03 to be present, got %v (err=%v)", ok, err)
	}

	ok, _ = Present(enum, Endpoint{ID: "03", Kind: Playback})
	if ok {
		t.Error("endpoint 03 is not a playback device")
	}

	ok, _ = Present(enum, Endpoint{Kind: Playback})
	if !ok {
		t.Error("endpoints without an ID are always present")
	}
}

func TestParseKind(t *testing.T) {
	if k, err := ParseKind("output"); err != nil || k != Playback {
		t.Errorf("expected playback, got %v (err=%v)", k, err)
	}
	if k, err := ParseKind("Input"); err != nil || k != Capture {
		t.Errorf("expected capture, got %v (err=%v)", k, err)
	}
	if _, err := ParseKind("sideways"); err == nil {
		t.Error("expected error")
	}
}
