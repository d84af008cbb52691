package attendance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "attendx/internal/errors"
	"attendx/pkg/contracts/domain"
)

func TestParseFileKey(t *testing.T) {
	tests := []struct {
		name string
		file string
		want domain.FileKey
	}{
		{"underscore v", "7A_v12.xlsx", domain.FileKey{Class: "7A", Week: "12"}},
		{"dash w", "inbox/9B-w3.xlsx", domain.FileKey{Class: "9B", Week: "3"}},
		{"plain number", "klass-8c_14.xlsx", domain.FileKey{Class: "klass-8c", Week: "14"}},
		{"leading zeros", "7A_v09.xlsx", domain.FileKey{Class: "7A", Week: "9"}},
		{"week zero", "7A_v00.xlsx", domain.FileKey{Class: "7A", Week: "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFileKey(tt.file)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "v"+tt.want.Week, got.SheetName())
		})
	}
}

func TestParseFileKey_NoMatch(t *testing.T) {
	for _, name := range []string{"attendance.xlsx", "summary.xlsx", "7A.xlsx"} {
		_, err := ParseFileKey(name)
		assert.ErrorIs(t, err, apperrors.ErrFilenamePattern, name)
	}
}
