package shared

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"

	"github.com/go-playground/validator/v10"
)

// MaxRequestBodyBytes caps the size of a JSON request body.
const MaxRequestBodyBytes = 1 << 20

var validate = newValidator()

// newValidator registers minbytes and maxbytes, which bound a string's length
// in bytes rather than runes. Password limits are byte limits.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	must(v.RegisterValidation("minbytes", byteLength(func(n, limit int) bool { return n >= limit })))
	must(v.RegisterValidation("maxbytes", byteLength(func(n, limit int) bool { return n <= limit })))
	return v
}

func byteLength(ok func(n, limit int) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		field := fl.Field()
		if field.Kind() != reflect.String {
			return false
		}
		limit, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return ok(len(field.String()), limit)
	}
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// ErrEmptyBody is returned by DecodeJSON when the request has no body.
var ErrEmptyBody = errors.New("request body is empty")

// DecodeJSON decodes a single JSON object from the request body into v.
// Unknown fields and trailing data are rejected.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, MaxRequestBodyBytes)
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		return err
	}
	if decoder.More() {
		return fmt.Errorf("request body must contain a single JSON object")
	}
	return nil
}

// ValidateRequest runs the struct validator over v.
func ValidateRequest(v any) error {
	return validate.Struct(v)
}
