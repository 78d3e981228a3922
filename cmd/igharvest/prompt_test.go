package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsk(t *testing.T) {
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
		{"sure\n", false},
		{"y", true},
	}

	for _, tt := range tests {
		var out bytes.Buffer
		got, err := ask(strings.NewReader(tt.input), &out, "Run it?")
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
		assert.Equal(t, "Run it?\nContinue? [y/N] ", out.String())
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("tty gone") }

func TestAskReadError(t *testing.T) {
	_, err := ask(failingReader{}, &bytes.Buffer{}, "Run it?")
	assert.ErrorContains(t, err, "tty gone")
}

func TestConfirmAssumeYes(t *testing.T) {
	assert.NoError(t, confirm("Run it?", true))
}
