package product

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedCatalog = `[
	{"sku": "ART-1", "name": "Monsoon Print", "base_price": "100.00", "gst_percentage": "18",
	 "option_groups": {"Size": {"A4": 0, "A3": "150.00"}}, "stock": 5},
	{"sku": "ART-2", "name": "Harbour Sketch", "base_price": "2400", "gst_percentage": "12",
	 "stock": 1, "is_active": false}
]`

func TestSeedUpsertsCatalog(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	n, err := Seed(ctx, svc, strings.NewReader(seedCatalog))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	first, err := repo.FindBySKU(ctx, "ART-1")
	require.NoError(t, err)
	assert.True(t, first.IsActive)
	assert.Len(t, first.OptionGroups["Size"], 2)

	second, err := repo.FindBySKU(ctx, "ART-2")
	require.NoError(t, err)
	assert.False(t, second.IsActive)

	n, err = Seed(ctx, svc, strings.NewReader(seedCatalog))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSeedStopsOnInvalidEntry(t *testing.T) {
	svc, _ := newTestService(t)

	n, err := Seed(context.Background(), svc, strings.NewReader(`[
		{"sku": "ART-1", "name": "Fine", "base_price": "10", "gst_percentage": "18"},
		{"sku": "", "name": "Broken", "base_price": "10", "gst_percentage": "18"}
	]`))
	require.Error(t, err)
	assert.Equal(t, 1, n)
}

func TestSeedRejectsUnknownFields(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := Seed(context.Background(), svc, strings.NewReader(`[{"sku": "ART-1", "colour": "red"}]`))
	require.Error(t, err)
}
