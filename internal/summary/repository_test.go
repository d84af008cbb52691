package summary

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apperrors "attendx/internal/errors"
	"attendx/pkg/contracts/domain"
)

func TestRepository_LoadMissing(t *testing.T) {
	repo := NewRepository(filepath.Join(t.TempDir(), "summary.xlsx"), nil, nil)

	store, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, store.Weeks())
}

func TestRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "out", "summary.xlsx")
	repo := NewRepository(path, nil, nil)

	store := NewStore(nil)
	_, err := store.Ingest(fileResult("7A_v10.xlsx", tally("Alva", 1, 0, 2), tally("Bo", 0, 3, 0)))
	require.NoError(t, err)
	_, err = store.Ingest(fileResult("7A_v9.xlsx", tally("Alva", 0, 1, 0)))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, store))

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"9", "10"}, loaded.Weeks())
	assert.Equal(t, store.Rows("10"), loaded.Rows("10"))
	assert.ElementsMatch(t, store.TextStatistics(), loaded.TextStatistics())

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"v9", "v10", TextStatisticsSheet, TrendSheet}, f.GetSheetList())

	header, err := f.GetRows("v10")
	require.NoError(t, err)
	assert.Equal(t, []string{"Class", "Student", "Green", "Yellow", "Red"}, header[0])

	trend, err := f.GetRows(TrendSheet)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Week", "Green", "Yellow", "Red"},
		{"9", "0", "3", "1"},
		{"10", "0", "3", "1"},
	}, trend)
}

func TestRepository_ResaveReplacesTrend(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "summary.xlsx")
	repo := NewRepository(path, nil, nil)

	for i := 0; i < 2; i++ {
		store, err := repo.Load(ctx)
		require.NoError(t, err)
		_, err = store.Ingest(fileResult("7A_v3.xlsx", tally("Alva", 1, 0, 0)))
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, store))
	}

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("v3")
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	trend, err := f.GetRows(TrendSheet)
	require.NoError(t, err)
	assert.Len(t, trend, 2)
}

func TestRepository_SaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	repo := NewRepository(filepath.Join(dir, "summary.xlsx"), nil, nil)
	require.NoError(t, repo.Save(context.Background(), NewStore(nil)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "summary.xlsx", entries[0].Name())
}

func TestRepository_LoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("not a workbook"), 0o644))

	_, err := NewRepository(path, nil, nil).Load(context.Background())
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeStorage))
}

// writeForeignWorkbook seeds a summary that also holds sheets written by
// people: notes in Sheet1 and Notes, and a "vacation" sheet whose name
// starts with v but is not a week.
func writeForeignWorkbook(t *testing.T, path string) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	_, err := f.NewSheet("v5")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("v5", "A1", &[]interface{}{"Class", "Student", "Green", "Yellow", "Red"}))
	require.NoError(t, f.SetSheetRow("v5", "A2", &[]interface{}{"8C", "Eli", 2, "", 1}))
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "notes"))

	_, err = f.NewSheet("Notes")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Notes", "A1", "parent meeting on Friday"))

	_, err = f.NewSheet("vacation")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("vacation", "A1", &[]interface{}{"Day", "Student", "Days"}))
	require.NoError(t, f.SetSheetRow("vacation", "A2", &[]interface{}{"Mon", "Anna", "n/a"}))

	require.NoError(t, f.SaveAs(path))
}

func TestRepository_LoadIgnoresForeignSheets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.xlsx")
	writeForeignWorkbook(t, path)

	store, err := NewRepository(path, nil, nil).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"5"}, store.Weeks())
	rows := store.Rows("5")
	require.Len(t, rows, 1)
	assert.Equal(t, map[domain.Label]int{domain.LabelGreen: 2, domain.LabelYellow: 0, domain.LabelRed: 1}, rows[0].Counts)
}

func TestRepository_SaveKeepsForeignSheets(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "summary.xlsx")
	writeForeignWorkbook(t, path)
	repo := NewRepository(path, nil, nil)

	for i := 0; i < 2; i++ {
		store, err := repo.Load(ctx)
		require.NoError(t, err)
		_, err = store.Ingest(fileResult("7A_v10.xlsx", tally("Alva", 1, 0, 2)))
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, store))
	}

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.ElementsMatch(t,
		[]string{"Sheet1", "Notes", "vacation", "v5", "v10", TextStatisticsSheet, TrendSheet},
		f.GetSheetList())

	note, err := f.GetCellValue("Notes", "A1")
	require.NoError(t, err)
	assert.Equal(t, "parent meeting on Friday", note)
	note, err = f.GetCellValue("Sheet1", "A1")
	require.NoError(t, err)
	assert.Equal(t, "notes", note)

	vacation, err := f.GetRows("vacation")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Day", "Student", "Days"}, {"Mon", "Anna", "n/a"}}, vacation)

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"5", "10"}, loaded.Weeks())
	assert.Len(t, loaded.Rows("10"), 1)
}

func TestRepository_ForeignWeekSheetIsNotOverwritten(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "summary.xlsx")
	f := excelize.NewFile()
	_, err := f.NewSheet("v7")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("v7", "A1", &[]interface{}{"Date", "Note"}))
	require.NoError(t, f.SetSheetRow("v7", "A2", &[]interface{}{"2025-02-10", "sports day"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	repo := NewRepository(path, nil, nil)
	store, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, store.Weeks())

	// other weeks are saved and the foreign v7 stays as it was
	_, err = store.Ingest(fileResult("7A_v8.xlsx", tally("Alva", 1, 0, 0)))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, store))

	// week 7 would have to overwrite it
	_, err = store.Ingest(fileResult("7A_v7.xlsx", tally("Alva", 1, 0, 0)))
	require.NoError(t, err)
	err = repo.Save(ctx, store)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeStorage))

	saved, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer saved.Close()
	rows, err := saved.GetRows("v7")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Date", "Note"}, {"2025-02-10", "sports day"}}, rows)
	assert.Contains(t, saved.GetSheetList(), "v8")
}

func TestRepository_SaveRefusesCorruptWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("not a workbook"), 0o644))

	err := NewRepository(path, nil, nil).Save(context.Background(), NewStore(nil))
	require.Error(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "not a workbook", string(data))
}

func TestIsWeekSheet(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"v1", true},
		{"v10", true},
		{"v", false},
		{"vacation", false},
		{"v10b", false},
		{"V10", false},
		{"Trend", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isWeekSheet(tt.name))
		})
	}
}
