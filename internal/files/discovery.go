package files

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// DefaultExtensions are the spreadsheet formats excelize can open.
var DefaultExtensions = []string{".xlsx", ".xlsm"}

// lockPrefix marks the owner files Excel keeps next to an open workbook.
const lockPrefix = "~$"

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Discovery lists spreadsheet files in one directory.
type Discovery struct {
	dir        string
	extensions []string
	skip       []string
}

// NewDiscovery creates a discovery over dir. Without extensions it accepts
// DefaultExtensions.
func NewDiscovery(dir string, extensions ...string) *Discovery {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	lower := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		lower = append(lower, ext)
	}
	return &Discovery{dir: dir, extensions: lower}
}

// SkipSuffix excludes files whose stem ends with one of the suffixes, so a
// directory shared with outputs does not feed them back in.
func (d *Discovery) SkipSuffix(suffixes ...string) *Discovery {
	d.skip = append(d.skip, suffixes...)
	return d
}

// Dir returns the listed directory.
func (d *Discovery) Dir() string {
	return d.dir
}

// List returns the spreadsheet files of the directory, oldest first. Lock
// files and hidden files are ignored.
func (d *Discovery) List(ctx context.Context) ([]FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", d.dir, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !d.accepts(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// removed between ReadDir and Info
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(d.dir, entry.Name()),
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.SliceStable(files, func(i, j int) bool {
		if files[i].ModTime.Equal(files[j].ModTime) {
			return files[i].Name < files[j].Name
		}
		return files[i].ModTime.Before(files[j].ModTime)
	})

	return files, nil
}

func (d *Discovery) accepts(name string) bool {
	if strings.HasPrefix(name, lockPrefix) || strings.HasPrefix(name, ".") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(name))
	matched := false
	for _, want := range d.extensions {
		if ext == want {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	for _, suffix := range d.skip {
		if strings.HasSuffix(stem, suffix) {
			return false
		}
	}
	return true
}

// Stat returns the FileInfo of a single path.
func Stat(path string) (FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileInfo{}, err
	}
	if info.IsDir() {
		return FileInfo{}, fmt.Errorf("%s is a directory", path)
	}
	return FileInfo{
		Path:    path,
		Name:    info.Name(),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}
