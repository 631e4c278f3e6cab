package compression

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPayload() []byte {
	var buf bytes.Buffer
	for i := 0; i < 200; i++ {
		buf.WriteString(`{"icao24":"abc123","lat":52.3,"lon":4.76,"altitude":11000}`)
	}
	return buf.Bytes()
}

func TestRoundTripAllAlgorithms(t *testing.T) {
	payload := testPayload()

	for _, alg := range []Algorithm{None, Gzip, Snappy, LZ4, Zstd, S2} {
		t.Run(string(alg), func(t *testing.T) {
			comp, err := NewCompressor(&Config{Algorithm: alg, Level: Default})
			require.NoError(t, err)

			compressed, err := comp.Compress(payload)
			require.NoError(t, err)

			restored, err := comp.Decompress(compressed)
			require.NoError(t, err)
			assert.Equal(t, payload, restored)
		})
	}
}

func TestDeterministicOutput(t *testing.T) {
	payload := testPayload()

	for _, alg := range []Algorithm{Gzip, Snappy, LZ4, Zstd, S2} {
		t.Run(string(alg), func(t *testing.T) {
			comp, err := NewCompressor(&Config{Algorithm: alg, Level: Default})
			require.NoError(t, err)

			first, err := comp.Compress(payload)
			require.NoError(t, err)
			second, err := comp.Compress(payload)
			require.NoError(t, err)
			assert.Equal(t, first, second)
		})
	}
}

func TestUnsupportedAlgorithm(t *testing.T) {
	_, err := NewCompressor(&Config{Algorithm: "brotli"})
	assert.Error(t, err)

	_, err = ParseAlgorithm("brotli")
	assert.Error(t, err)
}

func TestRatio(t *testing.T) {
	assert.Equal(t, 2.0, Ratio(100, 50))
	assert.Equal(t, 1.0, Ratio(100, 0))
}
