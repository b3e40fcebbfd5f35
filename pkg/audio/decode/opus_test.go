// ABOUTME: Tests for Ogg Opus decoder
// ABOUTME: Covers OpusHead parsing and rejection of non-Opus files
package decode

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// opusHeadPage builds the first Ogg page of an Opus stream
func opusHeadPage(magic string, channels byte) []byte {
	head := append([]byte(magic), 1, channels, 0x38, 0x01, 0x80, 0xbb, 0, 0, 0, 0, 0)

	var page bytes.Buffer
	page.WriteString("OggS")
	page.WriteByte(0)                 // version
	page.WriteByte(0x02)              // beginning of stream
	page.Write(make([]byte, 8+4+4+4)) // granule, serial, sequence, crc
	page.WriteByte(1)                 // one segment
	page.WriteByte(byte(len(head)))
	page.Write(head)
	return page.Bytes()
}

func TestOpusChannels(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		want    int
		wantErr bool
	}{
		{"mono", opusHeadPage("OpusHead", 1), 1, false},
		{"stereo", opusHeadPage("OpusHead", 2), 2, false},
		{"zero channels", opusHeadPage("OpusHead", 0), 0, true},
		{"vorbis stream", opusHeadPage("\x01vorbis\x00", 2), 0, true},
		{"no capture pattern", []byte("RIFF....WAVEfmt "), 0, true},
		{"truncated", []byte("OggS\x00"), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := opusChannels(bytes.NewReader(tt.data))
			if tt.wantErr {
				if !errors.Is(err, errNotOpus) {
					t.Fatalf("expected errNotOpus, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %d channels, got %d", tt.want, got)
			}
		})
	}
}

func TestNewOpusErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := NewOpus(filepath.Join(dir, "missing.opus")); err == nil {
		t.Error("expected error for missing file")
	}

	bogus := filepath.Join(dir, "bogus.opus")
	if err := os.WriteFile(bogus, []byte("not an ogg opus file"), 0o644); err != nil {
		t.Fatal(err)
	}
	dec, err := NewOpus(bogus)
	if !errors.Is(err, errNotOpus) {
		t.Errorf("expected errNotOpus, got %v", err)
	}
	if dec != nil {
		t.Error("expected nil decoder for invalid opus data")
	}
}

func TestOpenDispatchesOpus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voice.opus")
	if err := os.WriteFile(path, []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); !errors.Is(err, errNotOpus) {
		t.Errorf("expected Open to route .opus to the opus decoder, got %v", err)
	}
}
