// ABOUTME: Render sink tests
// ABOUTME: Verifies the read helper and keeps the package free of host audio backends
package output

import (
	"bytes"
	"errors"
	"go/build"
	"io"
	"strings"
	"testing"
	"testing/iotest"
)

var _ Sink = (*Malgo)(nil)

func TestFillAcrossShortReads(t *testing.T) {
	src := iotest.OneByteReader(bytes.NewReader([]byte{1, 2, 3, 4}))
	dst := make([]byte, 4)

	if err := Fill(dst, src); err != nil {
		t.Fatalf("Fill failed: %v", err)
	}
	if !bytes.Equal(dst, []byte{1, 2, 3, 4}) {
		t.Errorf("unexpected data %v", dst)
	}
}

func TestFillSilencesAfterEOF(t *testing.T) {
	dst := []byte{9, 9, 9, 9, 9, 9}
	err := Fill(dst, bytes.NewReader([]byte{1, 2}))

	if !errors.Is(err, io.EOF) {
		t.Errorf("expected io.EOF, got %v", err)
	}
	if !bytes.Equal(dst, []byte{1, 2, 0, 0, 0, 0}) {
		t.Errorf("expected zero-filled tail, got %v", dst)
	}
}

func TestUninitializedMalgoRefusesToPlay(t *testing.T) {
	s := NewMalgo(MalgoConfig{})
	if err := s.Play(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized, got %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Errorf("Stop on idle sink failed: %v", err)
	}
}

// The engine imports this package, so it must not pull in backends that
// need system audio headers to build.
func TestNoHostBackendImports(t *testing.T) {
	pkg, err := build.ImportDir(".", 0)
	if err != nil {
		t.Fatalf("ImportDir failed: %v", err)
	}
	for _, imp := range pkg.Imports {
		for _, banned := range []string{"ebitengine/oto", "gopxl/beep", "gordonklaus/portaudio"} {
			if strings.Contains(imp, banned) {
				t.Errorf("output imports %s; move the backend to the speakers package", imp)
			}
		}
	}
}
