package utils

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	validate.RegisterValidation("mobile10", validateMobile)
	validate.RegisterValidation("numeric_code", validateNumericCode)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func validateMobile(fl validator.FieldLevel) bool {
	return IsValidMobile(NormalizeMobile(fl.Field().String()))
}

func validateNumericCode(fl validator.FieldLevel) bool {
	code := fl.Field().String()
	return code != "" && ValidateOTP(code, len(code))
}

// ValidationErrorsToMap flattens validator errors into field -> message using json-ish field names.
func ValidationErrorsToMap(err error) map[string]string {
	result := make(map[string]string)

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		result["request"] = err.Error()
		return result
	}

	for _, fe := range verrs {
		field := strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]
		switch fe.Tag() {
		case "required":
			result[field] = field + " is required"
		case "mobile10":
			result[field] = "Please enter a valid 10-digit mobile number"
		case "numeric_code":
			result[field] = "Code must contain digits only"
		case "min":
			result[field] = field + " must be at least " + fe.Param() + " characters"
		case "oneof":
			result[field] = field + " must be one of: " + fe.Param()
		default:
			result[field] = field + " is invalid"
		}
	}

	return result
}
