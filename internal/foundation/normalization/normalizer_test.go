package normalization

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type mode string

const (
	modeAlpha mode = "alpha"
	modeBeta  mode = "beta"
)

func newModes() *Normalizer[mode] {
	return NewNormalizer(map[string]mode{
		"Beta":  modeBeta,
		"alpha": modeAlpha,
		"a":     modeAlpha,
	}, modeAlpha)
}

func TestNormalizer_Normalize(t *testing.T) {
	n := newModes()

	tests := []struct {
		name  string
		input string
		want  mode
	}{
		{"exact", "alpha", modeAlpha},
		{"upper case", "BETA", modeBeta},
		{"padded", "  beta  ", modeBeta},
		{"alias", "A", modeAlpha},
		{"unknown falls back", "gamma", modeAlpha},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, n.Normalize(tt.input))
		})
	}
}

func TestNormalizer_Lookup(t *testing.T) {
	n := newModes()

	v, ok := n.Lookup(" Beta")
	require.True(t, ok)
	require.Equal(t, modeBeta, v)

	_, ok = n.Lookup("gamma")
	require.False(t, ok)
}

func TestNormalizer_Keys(t *testing.T) {
	n := newModes()
	keys := n.Keys()
	require.Equal(t, []string{"a", "alpha", "beta"}, keys)

	keys[0] = "mutated"
	require.Equal(t, "a", n.Keys()[0])
}
