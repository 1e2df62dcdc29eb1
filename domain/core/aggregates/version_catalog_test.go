package aggregates

import (
	"testing"

	"ponydocs/domain/core/valueobjects"
	pkgerrors "ponydocs/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func records(pairs ...string) []valueobjects.VersionRecord {
	var out []valueobjects.VersionRecord
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, valueobjects.VersionRecord{
			ShortName: pairs[i],
			Status:    valueobjects.VersionStatus(pairs[i+1]),
		})
	}
	return out
}

func TestVersionCatalog_LatestReleased(t *testing.T) {
	catalog := NewVersionCatalog("Acme", records(
		"1.0", "released",
		"2.0", "released",
		"3.0", "unreleased",
	))

	latest, err := catalog.LatestReleased()
	require.NoError(t, err)
	assert.Equal(t, "2.0", latest.ShortName)
	assert.Equal(t, "Acme", latest.Product)
	assert.Equal(t, 1, latest.OrdinalRank)
	assert.Len(t, catalog.Released(), 2)
}

func TestVersionCatalog_NoReleasedVersion(t *testing.T) {
	catalog := NewVersionCatalog("Acme", records("1.0", "preview"))

	_, err := catalog.LatestReleased()
	assert.ErrorIs(t, err, pkgerrors.ErrUnknownVersion)
}

func TestVersionCatalog_DuplicatesAndBlanks(t *testing.T) {
	catalog := NewVersionCatalog("Acme", records(
		"1.0", "released",
		"", "released",
		"1.0", "preview",
		"2.0", "unreleased",
	))

	assert.Equal(t, 2, catalog.Len())
	v, ok := catalog.Get("1.0")
	require.True(t, ok)
	assert.True(t, v.IsReleased())
	assert.False(t, catalog.IsReleased("2.0"))
	assert.True(t, catalog.Exists("2.0"))
	assert.False(t, catalog.Exists("2.0 "))
}

func TestVersionCatalog_Ordering(t *testing.T) {
	catalog := NewVersionCatalog("Acme", records(
		"1.0", "released",
		"1.5", "released",
		"2.0", "released",
	))

	earliest, err := catalog.FindEarliest([]string{"2.0", "9.9", "1.5"})
	require.NoError(t, err)
	assert.Equal(t, "1.5", earliest.ShortName)

	_, err = catalog.FindEarliest([]string{"9.9"})
	assert.Error(t, err)

	assert.Equal(t,
		[]string{"1.0", "2.0", "a", "b"},
		catalog.SortByRank([]string{"b", "2.0", "a", "1.0"}),
	)
}
