package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnect_RejectsInvalidURI(t *testing.T) {
	m, err := Connect(context.Background(), "not-a-mongo-uri", "productsdb", "product-api")

	assert.Nil(t, m)
	assert.ErrorContains(t, err, "connect mongo")
}
