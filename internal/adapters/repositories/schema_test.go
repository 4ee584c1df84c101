package repositories

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSeed(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "types.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadParcelTypeSeeds(t *testing.T) {
	seeds, err := LoadParcelTypeSeeds(writeSeed(t, `[{"id":1,"name":" Clothing "},{"id":3,"name":"Other"}]`))
	require.NoError(t, err)
	assert.Equal(t, []ParcelTypeSeed{{ID: 1, Name: "Clothing"}, {ID: 3, Name: "Other"}}, seeds)
}

func TestLoadParcelTypeSeedsRejectsBadRows(t *testing.T) {
	cases := map[string]string{
		"zero id":        `[{"id":0,"name":"Clothing"}]`,
		"empty name":     `[{"id":1,"name":"  "}]`,
		"duplicate name": `[{"id":1,"name":"Other"},{"id":2,"name":"Other"}]`,
		"not json":       `{`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadParcelTypeSeeds(writeSeed(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadParcelTypeSeedsShippedFile(t *testing.T) {
	seeds, err := LoadParcelTypeSeeds("../../../data/seeds/parcel_types.json")
	require.NoError(t, err)
	assert.Len(t, seeds, 3)
}
