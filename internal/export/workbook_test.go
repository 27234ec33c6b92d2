package export

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/cyclecraft/bikeshare/internal/model"
	"github.com/cyclecraft/bikeshare/internal/store"
)

func TestWrite(t *testing.T) {
	ctx := context.Background()
	rel, err := store.OpenRelational(filepath.Join(t.TempDir(), "results.sqlite"))
	require.NoError(t, err)
	defer rel.Close()

	require.NoError(t, rel.ReplaceTable(ctx, &store.Table{
		Name:    model.ResultTable(model.AgeTarget),
		Columns: []store.Column{{Name: "age_group", Type: store.TypeText}, {Name: "total_rides", Type: store.TypeInteger}},
		Rows:    [][]any{{"Under 25", int64(3)}, {"Over 50", int64(7)}},
	}))
	require.NoError(t, rel.ReplaceTable(ctx, &store.Table{
		Name:    model.SmallDataTable,
		Columns: []store.Column{{Name: "station", Type: store.TypeText}, {Name: "docks", Type: store.TypeInteger}},
		Rows:    [][]any{{"Clark St", nil}},
	}))

	var buf bytes.Buffer
	require.NoError(t, Write(ctx, rel, &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"age_target_results", "small_data"}, f.GetSheetList())

	v, err := f.GetCellValue("age_target_results", "A1")
	require.NoError(t, err)
	assert.Equal(t, "age_group", v)
	v, err = f.GetCellValue("age_target_results", "B3")
	require.NoError(t, err)
	assert.Equal(t, "7", v)
	v, err = f.GetCellValue("small_data", "B2")
	require.NoError(t, err)
	assert.Equal(t, "", v)
}

func TestWrite_NothingToExport(t *testing.T) {
	rel, err := store.OpenRelational(filepath.Join(t.TempDir(), "results.sqlite"))
	require.NoError(t, err)
	defer rel.Close()

	err = Write(context.Background(), rel, &bytes.Buffer{})
	assert.ErrorIs(t, err, store.ErrTableNotFound)
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "small_data", sheetName("small_data"))
	assert.Len(t, sheetName("popular_stations_results_with_a_long_suffix"), 31)
}
