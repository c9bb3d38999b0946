package validator

import (
	"github.com/go-playground/validator/v10"

	"github.com/johnquangdev/transcript-studio/internal/domain/entities"
	"github.com/johnquangdev/transcript-studio/internal/usecase/player"
)

// CustomValidator implements echo.Validator using go-playground/validator
type CustomValidator struct {
	v *validator.Validate
}

// New creates a new CustomValidator instance with the domain tags registered:
// "section" accepts a panel key and "player_event" a playback event type.
func New() *CustomValidator {
	v := validator.New()
	_ = v.RegisterValidation("section", func(fl validator.FieldLevel) bool {
		return entities.SectionKey(fl.Field().String()).IsValid()
	})
	_ = v.RegisterValidation("player_event", func(fl validator.FieldLevel) bool {
		return player.EventType(fl.Field().String()).IsValid()
	})
	return &CustomValidator{v: v}
}

// Validate performs struct validation
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.v.Struct(i)
}
