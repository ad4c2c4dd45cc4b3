package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLastLineSkipsWarnings(t *testing.T) {
	out := []byte("DeprecationWarning: something\nloading model...\n{\"accuracy\": 0.9}\n")
	assert.Equal(t, `{"accuracy": 0.9}`, string(lastLine(out)))

	assert.Equal(t, "{}", string(lastLine(nil)))
	assert.Equal(t, "{}", string(lastLine([]byte("  \n \n"))))
}
