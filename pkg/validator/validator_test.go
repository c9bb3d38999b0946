package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sectionInput struct {
	Key string `validate:"required,section"`
}

type eventInput struct {
	Type string `validate:"required,player_event"`
}

func TestCustomValidator_Section(t *testing.T) {
	v := New()
	assert.NoError(t, v.Validate(&sectionInput{Key: "summary"}))
	assert.Error(t, v.Validate(&sectionInput{Key: "sidebar"}))
	assert.Error(t, v.Validate(&sectionInput{}))
}

func TestCustomValidator_PlayerEvent(t *testing.T) {
	v := New()
	assert.NoError(t, v.Validate(&eventInput{Type: "timeupdate"}))
	assert.Error(t, v.Validate(&eventInput{Type: "rewind"}))
}
