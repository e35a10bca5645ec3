package feed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maestro/internal/schema"
)

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFixtureNormalizesScales(t *testing.T) {
	path := writeFixture(t, `{
  "batches": [
    [
      {"symbol": "BTC-USDT", "last": "42000.5", "bid": "42000.25", "ask": "42000.75", "size": "0.25"}
    ]
  ]
}`)

	f, err := NewFixture(testRegistry(t, "BTC-USDT"), path)
	require.NoError(t, err)
	require.Equal(t, 1, f.BatchCount())

	snap, err := f.CaptureData(t.Context())
	require.NoError(t, err)
	require.Len(t, snap.Data, 1)

	md := snap.Data[0]
	assert.Equal(t, schema.Price(4200050), md.Price)
	assert.Equal(t, schema.Price(4200025), md.BidPrice)
	assert.Equal(t, schema.Price(4200075), md.AskPrice)
	assert.Equal(t, schema.Quantity(250000), md.Size)
	assert.Equal(t, schema.MarketDataQuote, md.Kind)
}

func TestFixtureUnknownSymbol(t *testing.T) {
	path := writeFixture(t, `{
  "batches": [
    [
      {"symbol": "DOGE-USDT", "last": "0.1", "bid": "0.1", "ask": "0.1", "size": "1"}
    ]
  ]
}`)

	_, err := NewFixture(testRegistry(t, "BTC-USDT"), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "symbol not found")
}

func TestFixtureWrapsBatches(t *testing.T) {
	path := writeFixture(t, `{
  "batches": [
    [{"symbol": "BTC-USDT", "last": "100", "bid": "99", "ask": "101", "size": "1"}],
    [{"symbol": "BTC-USDT", "last": "200", "bid": "199", "ask": "201", "size": "1"}]
  ]
}`)

	f, err := NewFixture(testRegistry(t, "BTC-USDT"), path)
	require.NoError(t, err)

	var prices []schema.Price
	for i := 0; i < 3; i++ {
		snap, err := f.CaptureData(t.Context())
		require.NoError(t, err)
		require.Len(t, snap.Data, 1)
		prices = append(prices, snap.Data[0].Price)
	}
	assert.Equal(t, []schema.Price{10000, 20000, 10000}, prices)
}

func TestFixtureEmpty(t *testing.T) {
	path := writeFixture(t, `{"batches": []}`)

	_, err := NewFixture(testRegistry(t, "BTC-USDT"), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no batches")
}

func TestParseScaled(t *testing.T) {
	testCases := []struct {
		src     string
		scale   schema.Scale
		want    int64
		wantErr bool
	}{
		{src: "42000.5", scale: 2, want: 4200050},
		{src: "0.123456", scale: 2, want: 12},
		{src: "-1.5", scale: 2, want: -150},
		{src: "7", scale: 4, want: 70000},
		{src: "0", scale: 8, want: 0},
		{src: "10.000001", scale: 6, want: 10000001},
		{src: "", scale: 2, wantErr: true},
		{src: "-", scale: 2, wantErr: true},
		{src: "1.2.3", scale: 2, wantErr: true},
		{src: "12a", scale: 2, wantErr: true},
		{src: "9223372036854775807", scale: 2, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.src, func(t *testing.T) {
			got, err := parseScaled(tc.src, tc.scale)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
