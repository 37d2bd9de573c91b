package event

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/mkundi/kampasi/core"
)

var (
	scopeTag  = "eventscope"
	scopeText = "must be one of the known audience scopes"
)

// InitValidators registers event-specific validations and their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(scopeTag, scopeValidation)
	core.RegisterCustomTranslation(validate, translator, scopeTag, scopeText)
}

func scopeValidation(fl validator.FieldLevel) bool {
	return KnownScope(fl.Field().String())
}
