package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindValidation, KindOf(Validation("bad")))
	assert.Equal(t, KindNotFound, KindOf(fmt.Errorf("lookup: %w", NotFound("gone"))))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, KindInternal, KindOf(nil))
}

func TestValidationWrap_KeepsCause(t *testing.T) {
	cause := errors.New("E11000 duplicate key")
	err := ValidationWrap("Product rejected by the store", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Product rejected by the store", err.Message)
	assert.Contains(t, err.Error(), "E11000")
}
