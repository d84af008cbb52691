package attendance

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	apperrors "attendx/internal/errors"
	"attendx/pkg/contracts/domain"
)

// fileKeyPattern matches a class token followed by a numeric week token,
// e.g. "7A_v12", "9B-w3" or "klass-8c_14".
var fileKeyPattern = regexp.MustCompile(`(?i)([a-z0-9\-]+)[_\-]v?w?(\d+)`)

// ParseFileKey extracts the class and week from a file name or path. It
// returns an error wrapping ErrFilenamePattern when the name does not match.
func ParseFileKey(name string) (domain.FileKey, error) {
	base := filepath.Base(name)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	m := fileKeyPattern.FindStringSubmatch(stem)
	if m == nil {
		return domain.FileKey{}, fmt.Errorf("%w: %q", apperrors.ErrFilenamePattern, base)
	}

	week := strings.TrimLeft(m[2], "0")
	if week == "" {
		week = "0"
	}
	return domain.FileKey{Class: m[1], Week: week}, nil
}
