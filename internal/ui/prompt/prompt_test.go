package prompt

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStdinConfirmer(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"  yes  \n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			var out bytes.Buffer
			c := NewConfirmerWithIO(strings.NewReader(tt.input), &out, true)
			assert.Equal(t, tt.want, c.Confirm("Delete", "Delete ArcDPS?"))
			assert.Contains(t, out.String(), "Delete ArcDPS? [y/N]")
		})
	}
}

func TestStdinConfirmerWithoutTerminal(t *testing.T) {
	var out bytes.Buffer
	c := NewConfirmerWithIO(strings.NewReader("y\n"), &out, false)

	assert.False(t, c.Confirm("Delete", "Delete ArcDPS?"))
	assert.Contains(t, out.String(), "--yes")
}

func TestAlways(t *testing.T) {
	assert.True(t, Always(true).Confirm("", ""))
	assert.False(t, Always(false).Confirm("", ""))
}
