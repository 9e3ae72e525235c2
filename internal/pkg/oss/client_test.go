package oss

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/pdf", ContentType(".pdf"))
	assert.Equal(t, "application/pdf", ContentType(".PDF"))
	assert.Equal(t, "application/octet-stream", ContentType(".bin"))
}
