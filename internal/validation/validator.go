// Package validation validates write payloads and configuration with
// go-playground/validator v10.
//
// A single validator instance is shared by the process. It registers the
// catalog specific tags:
//
//   - stacname: collection, item and asset ids (0-9, a-z, "-", "_", ".")
//   - linkrel: link relation types not generated by the API itself
//   - mediatype: a supported asset media type
//   - geoadminvariant: an alphanumeric variant of at most 15 characters
//   - multihash: a hex encoded multihash
//   - rfc3339: an RFC 3339 timestamp
//
// Field errors are reported with the external STAC key of the field, read
// from the json tag, and collected in an *apierr.ValidationError.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/multiformats/go-multihash"

	"github.com/robert-malhotra/go-stac-api/pkg/apierr"
	"github.com/robert-malhotra/go-stac-api/pkg/stac"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

var (
	namePattern    = regexp.MustCompile(`^[0-9a-z-_.]+$`)
	variantPattern = regexp.MustCompile(`^[a-zA-Z0-9]{1,15}$`)
)

// Get returns the shared validator instance.
func Get() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(fieldName)

		mustRegister("stacname", func(fl validator.FieldLevel) bool {
			return namePattern.MatchString(fl.Field().String())
		})
		mustRegister("linkrel", func(fl validator.FieldLevel) bool {
			return !stac.IsReservedRel(fl.Field().String())
		})
		mustRegister("mediatype", func(fl validator.FieldLevel) bool {
			return stac.IsMediaType(fl.Field().String())
		})
		mustRegister("geoadminvariant", func(fl validator.FieldLevel) bool {
			return variantPattern.MatchString(fl.Field().String())
		})
		mustRegister("multihash", func(fl validator.FieldLevel) bool {
			_, err := DecodeMultihash(fl.Field().String())
			return err == nil
		})
		mustRegister("rfc3339", func(fl validator.FieldLevel) bool {
			_, err := time.Parse(time.RFC3339Nano, fl.Field().String())
			return err == nil
		})
	})
	return validate
}

func mustRegister(tag string, fn validator.Func) {
	if err := validate.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: register %s: %v", tag, err))
	}
}

// fieldName reports the json name of a struct field, then its koanf name.
func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "koanf"} {
		name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

// DecodeMultihash parses a hex encoded multihash.
func DecodeMultihash(value string) (*multihash.DecodedMultihash, error) {
	mh, err := multihash.FromHexString(value)
	if err != nil {
		return nil, err
	}
	return multihash.Decode(mh)
}

// Struct validates s and returns an *apierr.ValidationError listing one
// "field: message" entry per failing field.
func Struct(s any) error {
	err := Get().Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apierr.Validation(err.Error())
	}
	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, fmt.Sprintf("%s: %s", fieldPath(fe), translate(fe)))
	}
	return apierr.Validation(messages...)
}

// fieldPath strips the root struct name from the error namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

var messages = map[string]string{
	"required":        "This field is required.",
	"url":             "Enter a valid URL.",
	"stacname":        "Invalid name, only the following characters are allowed: 0-9a-z-_.",
	"linkrel":         "Invalid rel attribute, must not be in " + strings.Join(stac.ReservedRels, ", "),
	"mediatype":       "Invalid media type.",
	"geoadminvariant": "Invalid geoadmin:variant, special characters not allowed",
	"multihash":       "Invalid multihash value",
	"rfc3339":         "Datetime has wrong format. Use one of these formats instead: YYYY-MM-DDThh:mm[:ss[.uuuuuu]][+HH:MM|-HH:MM|Z].",
}

func translate(fe validator.FieldError) string {
	if msg, ok := messages[fe.Tag()]; ok {
		return msg
	}
	switch fe.Tag() {
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "oneof":
		return fmt.Sprintf("\"%v\" is not a valid choice.", fe.Value())
	case "gte", "gtefield":
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	}
	return fmt.Sprintf("failed on the %q rule", fe.Tag())
}
