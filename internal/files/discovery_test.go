package files

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir, name string, mtime time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
	return path
}

func names(files []FileInfo) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.Name)
	}
	return out
}

func TestDiscoveryList(t *testing.T) {
	base := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		files      map[string]time.Time
		extensions []string
		skip       []string
		expected   []string
	}{
		{
			name: "spreadsheets sorted oldest first",
			files: map[string]time.Time{
				"7A_v12.xlsx": base.Add(2 * time.Minute),
				"7B_v12.XLSX": base,
				"8C_v12.xlsm": base.Add(time.Minute),
			},
			expected: []string{"7B_v12.XLSX", "8C_v12.xlsm", "7A_v12.xlsx"},
		},
		{
			name: "lock hidden and foreign files ignored",
			files: map[string]time.Time{
				"7A_v12.xlsx":           base,
				"~$7A_v12.xlsx":         base,
				".summary.xlsx.123.tmp": base,
				".hidden.xlsx":          base,
				"notes.txt":             base,
				"legacy.xls":            base,
				"7A_v12.xlsx.bak":       base,
			},
			expected: []string{"7A_v12.xlsx"},
		},
		{
			name: "equal mtimes sorted by name",
			files: map[string]time.Time{
				"b_v1.xlsx": base,
				"a_v1.xlsx": base,
			},
			expected: []string{"a_v1.xlsx", "b_v1.xlsx"},
		},
		{
			name: "custom extensions without dot",
			files: map[string]time.Time{
				"7A_v12.xlsx": base,
				"7A_v12.xlsm": base.Add(time.Second),
			},
			extensions: []string{"XLSM"},
			expected:   []string{"7A_v12.xlsm"},
		},
		{
			name: "outputs skipped by suffix",
			files: map[string]time.Time{
				"7A_v12.xlsx":             base,
				"7A_v12_with_counts.xlsx": base.Add(time.Second),
			},
			skip:     []string{"_with_counts"},
			expected: []string{"7A_v12.xlsx"},
		},
		{
			name:     "empty directory",
			files:    map[string]time.Time{},
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for name, mtime := range tt.files {
				touch(t, dir, name, mtime)
			}
			require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.xlsx"), 0o755))

			d := NewDiscovery(dir, tt.extensions...).SkipSuffix(tt.skip...)
			found, err := d.List(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.expected, names(found))

			for _, f := range found {
				assert.Equal(t, filepath.Join(dir, f.Name), f.Path)
				assert.Equal(t, int64(1), f.Size)
			}
		})
	}
}

func TestDiscoveryList_MissingDirectory(t *testing.T) {
	d := NewDiscovery(filepath.Join(t.TempDir(), "absent"))
	_, err := d.List(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDiscoveryList_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewDiscovery(t.TempDir()).List(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStat(t *testing.T) {
	dir := t.TempDir()
	mtime := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	path := touch(t, dir, "7A_v1.xlsx", mtime)

	info, err := Stat(path)
	require.NoError(t, err)
	assert.Equal(t, "7A_v1.xlsx", info.Name)
	assert.True(t, info.ModTime.Equal(mtime))

	_, err = Stat(dir)
	assert.Error(t, err)

	_, err = Stat(filepath.Join(dir, "gone.xlsx"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
