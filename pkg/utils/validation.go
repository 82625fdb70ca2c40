package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"sort"
	"strings"
	"sync"

	"hvac-backend/internal/apperr"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator. Field names in errors use the json
// tag.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// ProcessValidationErrors flattens validator errors into field -> tag.
func ProcessValidationErrors(err error) map[string]string {
	out := make(map[string]string)
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return out
	}
	for _, ve := range ves {
		ns := ve.Namespace()
		if i := strings.Index(ns, "."); i >= 0 {
			ns = ns[i+1:]
		}
		out[ns] = ve.Tag()
	}
	return out
}

// Validate runs struct tags and returns a VALIDATION_ERROR listing the
// offending fields.
func Validate(v interface{}) error {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}
	details := ProcessValidationErrors(err)
	if len(details) == 0 {
		return apperr.Wrap(apperr.CodeValidation, "invalid request", err)
	}
	fields := make([]string, 0, len(details))
	for f := range details {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	ve := apperr.Validation(fmt.Sprintf("invalid fields: %s", strings.Join(fields, ", ")))
	ve.Details = details
	return ve
}

// Tech reports carry base64 images.
const maxBodyBytes = 12 << 20

// DecodeJSON reads a bounded JSON body into dst and validates it.
func DecodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return apperr.Wrap(apperr.CodeValidation, "invalid request body", err)
	}
	return Validate(dst)
}
