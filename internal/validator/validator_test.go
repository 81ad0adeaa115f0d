package validator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `yaml:"name" validate:"required"`
	Count int    `yaml:"count" validate:"gte=0,lte=10"`
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDecodeFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    sample
		wantErr string
	}{
		{
			name:    "valid",
			content: "name: shapes\ncount: 3\n",
			want:    sample{Name: "shapes", Count: 3},
		},
		{
			name:    "missing required",
			content: "count: 3\n",
			wantErr: `sample.Name fails "required"`,
		},
		{
			name:    "out of range",
			content: "name: x\ncount: 11\n",
			wantErr: `sample.Count fails "lte" (10)`,
		},
		{
			name:    "unknown key",
			content: "name: x\ncolor: red\n",
			wantErr: "field color not found",
		},
		{
			name:    "malformed",
			content: "name: [\n",
			wantErr: "failed to parse",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got sample
			err := DecodeFile(writeFile(t, tt.content), &got)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeFileMissing(t *testing.T) {
	var got sample
	err := DecodeFile(filepath.Join(t.TempDir(), "nope.yml"), &got)
	assert.ErrorContains(t, err, "failed to read file")
}

func TestFirst(t *testing.T) {
	err := Struct(sample{Count: -1})
	require.Error(t, err)

	fe, ok := First(err)
	require.True(t, ok)
	assert.Equal(t, FieldError{Namespace: "sample.Name", Tag: "required"}, fe)

	_, ok = First(assert.AnError)
	assert.False(t, ok)
	assert.Equal(t, assert.AnError, Describe(assert.AnError))
}
