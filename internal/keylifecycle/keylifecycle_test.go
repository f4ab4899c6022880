package keylifecycle

import (
	"context"
	"errors"
	"testing"

	"github.com/fleetfw/backend/internal/catalog"
)

func TestCreateLightweightKeyRejectsWrongLength(t *testing.T) {
	m := New(nil)
	_, err := m.CreateLightweightKey(context.Background(), 1, catalog.AlgorithmAESGCM128, make([]byte, 12))
	if !errors.Is(err, ErrKeyLengthWrong) {
		t.Fatalf("err = %v, want ErrKeyLengthWrong", err)
	}
}

func TestCreateLightweightKeyRejectsUnknownAlgorithm(t *testing.T) {
	m := New(nil)
	_, err := m.CreateLightweightKey(context.Background(), 1, catalog.Algorithm("Bogus"), make([]byte, 16))
	if !errors.Is(err, ErrKeyLengthWrong) {
		t.Fatalf("err = %v, want ErrKeyLengthWrong", err)
	}
}

func TestAlgorithmOfKnown(t *testing.T) {
	if _, ok := algorithmOf(catalog.AlgorithmAESGCM128); !ok {
		t.Fatal("algorithmOf(AesGcm128): want ok")
	}
	if _, ok := algorithmOf(catalog.AlgorithmAsconAEAD128); !ok {
		t.Fatal("algorithmOf(AsconAead128): want ok")
	}
	if _, ok := algorithmOf(catalog.Algorithm("nope")); ok {
		t.Fatal("algorithmOf(nope): want !ok")
	}
}
