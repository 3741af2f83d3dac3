package emulator

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var validate *validator.Validate
var translator ut.Translator

func init() {
	validate = validator.New()
	var ok bool
	translator, ok = ut.New(en.New(), en.New()).GetTranslator("en")
	if !ok {
		panic("emulator: failed to get 'en' translator")
	}

	if err := en_translations.RegisterDefaultTranslations(validate, translator); err != nil {
		panic(err)
	}

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("query"), ",", 2)[0]
		if name == "-" {
			return ""
		}

		return name
	})
}

// queryInt extracts an optional integer query parameter. A missing or
// empty parameter yields nil.
func queryInt(r *http.Request, key string) (*int, error) {
	val := r.URL.Query().Get(key)
	if val == "" {
		return nil, nil
	}

	v, err := strconv.Atoi(val)
	if err != nil {
		return nil, fmt.Errorf("query param[%s] must be integer: %w", key, err)
	}

	return &v, nil
}

// queryInts fills dst from the query parameters named by its `query` tags
// and validates the result. dst must point to a struct of *int fields.
func queryInts(r *http.Request, dst any) error {
	rv := reflect.ValueOf(dst).Elem()
	rt := rv.Type()

	for i := range rt.NumField() {
		key := rt.Field(i).Tag.Get("query")
		if key == "" {
			continue
		}

		v, err := queryInt(r, key)
		if err != nil {
			return NewError(http.StatusBadRequest, err)
		}
		rv.Field(i).Set(reflect.ValueOf(v))
	}

	return check(dst)
}

// check validates val against its declared tags.
func check(val any) error {
	if err := validate.Struct(val); err != nil {
		verrors, ok := errors.AsType[validator.ValidationErrors](err)
		if !ok {
			return err
		}

		var fields FieldErrors
		for _, verror := range verrors {
			fields = append(fields, FieldError{
				Field: verror.Field(),
				Err:   verror.Translate(translator),
			})
		}
		return fields
	}

	return nil
}

// or returns *p, or def when p is nil.
func or(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}
