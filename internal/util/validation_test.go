package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type validatedInput struct {
	Slug  string `validate:"required,slug"`
	Title string `validate:"required,max=10"`
}

func TestValidateStruct(t *testing.T) {
	assert.NoError(t, ValidateStruct(validatedInput{Slug: "my-project-2", Title: "ok"}))
}

func TestValidateStructRejectsBadSlug(t *testing.T) {
	err := ValidateStruct(validatedInput{Slug: "My Project!", Title: "ok"})
	assert.Error(t, err)
}

func TestValidateStructRequiresFields(t *testing.T) {
	err := ValidateStruct(validatedInput{})
	assert.Error(t, err)
}
