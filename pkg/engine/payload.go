package engine

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// payloadValidator checks struct tags on decoded command payloads. Field
// names in its errors use the JSON names seen in config files.
var payloadValidator = newPayloadValidator()

func newPayloadValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// DecodePayload unmarshals a command payload into dst (a pointer to a
// struct), validates its `validate` tags and expands every string field
// tagged `template:"expand"` against the session's variables.
// Any failure is a configuration error.
func DecodePayload(s *Session, tag string, payload json.RawMessage, dst any) error {
	if len(bytes.TrimSpace(payload)) == 0 {
		payload = json.RawMessage("null")
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		return NewConfigurationError("payload does not match the command shape", err).
			WithTag(tag).
			WithCode(ErrCodeInvalidPayload)
	}

	if err := payloadValidator.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field()+" ("+fe.Tag()+")")
			}
			return NewConfigurationError("invalid payload fields: "+strings.Join(fields, ", "), nil).
				WithTag(tag).
				WithCode(ErrCodeInvalidPayload)
		}
		return NewConfigurationError("invalid payload", err).
			WithTag(tag).
			WithCode(ErrCodeInvalidPayload)
	}

	expandFields(s, reflect.ValueOf(dst))
	return nil
}

// expandFields walks a struct and expands tagged string fields in place.
func expandFields(s *Session, v reflect.Value) {
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return
	}

	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		fv := v.Field(i)
		if field.Tag.Get("template") == "expand" && fv.Kind() == reflect.String {
			fv.SetString(s.Expand(fv.String()))
			continue
		}
		if fv.Kind() == reflect.Struct || (fv.Kind() == reflect.Pointer && fv.Type().Elem().Kind() == reflect.Struct) {
			expandFields(s, fv)
		}
	}
}
