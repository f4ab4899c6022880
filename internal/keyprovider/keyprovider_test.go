package keyprovider

import (
	"testing"

	"github.com/fleetfw/backend/internal/aead"
	"github.com/fleetfw/backend/internal/catalog"
)

func TestAlgorithmForKnown(t *testing.T) {
	cases := []struct {
		id   aead.AlgID
		want catalog.Algorithm
	}{
		{aead.AlgAESGCM128, catalog.AlgorithmAESGCM128},
		{aead.AlgAsconAEAD128, catalog.AlgorithmAsconAEAD128},
	}
	for _, tc := range cases {
		got, ok := algorithmFor(tc.id)
		if !ok || got != tc.want {
			t.Fatalf("algorithmFor(%d) = (%v,%v), want (%v,true)", tc.id, got, ok, tc.want)
		}
	}
}

func TestAlgorithmForUnknown(t *testing.T) {
	if _, ok := algorithmFor(aead.AlgID(99)); ok {
		t.Fatal("algorithmFor(99): want ok=false")
	}
}
