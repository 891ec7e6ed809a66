package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/geocoder89/fintrack/internal/domain/transaction"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// FieldError is one entry of details.fields in a 400 response. Field is the JSON name
// the client sent, never the Go field name.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message,omitempty"`
}

// BindJSON decodes and validates the body into out, answering 400 itself on failure.
func BindJSON(ctx *gin.Context, out any) bool {
	err := ctx.ShouldBindJSON(out)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		RespondBadRequest(ctx, "Request body too large", gin.H{"maxBytes": tooLarge.Limit})
		return false
	}

	RespondBadRequest(ctx, "Invalid request body", bindErrorDetails(err, out))
	return false
}

func bindErrorDetails(err error, out any) gin.H {
	var (
		invalid   validator.ValidationErrors
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)

	switch {
	case errors.As(err, &invalid):
		names := jsonNames(out)
		fields := make([]FieldError, 0, len(invalid))

		for _, fe := range invalid {
			name, ok := names[fe.StructField()]
			if !ok {
				name = fe.Field()
			}
			fields = append(fields, fieldError(name, fe.Tag(), fe.Param()))
		}
		return gin.H{"fields": fields}

	case errors.Is(err, io.EOF):
		return gin.H{"json": "empty_body"}

	// unknown type names fail while decoding, before validation runs
	case errors.Is(err, transaction.ErrInvalidType):
		return gin.H{"fields": []FieldError{fieldError("type", "oneof", "Income Expense")}}

	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return gin.H{"json": "invalid_json_syntax"}

	case errors.As(err, &typeErr):
		// encoding/json already reports the dotted JSON path
		field := strings.TrimSpace(typeErr.Field)

		return gin.H{
			"json":  "invalid_json_type",
			"field": field,
			"fields": []FieldError{{
				Field:   field,
				Rule:    "type",
				Message: "must be of type " + typeErr.Type.String(),
			}},
		}
	}

	// e.g. an amount that is not a decimal
	return gin.H{"json": "invalid_value", "reason": err.Error()}
}

func fieldError(field, rule, param string) FieldError {
	return FieldError{Field: field, Rule: rule, Param: param, Message: validationMessage(rule, param)}
}

// jsonNames maps the Go field names of a flat request struct to their json tags.
func jsonNames(v any) map[string]string {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}

	names := make(map[string]string, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)

		name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			name = sf.Name
		}
		names[sf.Name] = name
	}

	return names
}

func validationMessage(rule, param string) string {
	switch rule {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + param
	case "max":
		return "must be at most " + param
	case "gt":
		return "must be greater than " + param
	case "oneof":
		return "must be one of " + strings.ReplaceAll(param, " ", ", ")
	}

	if param != "" {
		return fmt.Sprintf("failed %s validation (%s)", rule, param)
	}
	return "failed " + rule + " validation"
}
