package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message,omitempty"`
}

// validator reports fields by their json names
func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(jsonNameFromStructField)
	}
}

func BindJSON(ctx *gin.Context, out interface{}) bool {
	err := ctx.ShouldBindJSON(out)

	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			RespondError(ctx, http.StatusRequestEntityTooLarge, "payload_too_large", "Request body is too large", nil)
			return false
		}

		RespondBadRequest(ctx, "Invalid request body", parseBindError(err, out))
		return false
	}

	return true
}

func parseBindError(err error, out interface{}) interface{} {
	var validationErrors validator.ValidationErrors

	if errors.As(err, &validationErrors) {
		rootType := baseStructType(out)
		fields := make([]FieldError, 0, len(validationErrors))

		for _, fe := range validationErrors {
			param := fe.Param()
			if isCrossFieldRule(fe.Tag()) {
				param = jsonNameOf(rootType, param)
			}

			fields = append(fields, FieldError{
				Field:   fieldPath(fe),
				Rule:    fe.Tag(),
				Param:   param,
				Message: validationMessage(fe.Tag(), param, fe.Kind()),
			})
		}
		return gin.H{"fields": fields}
	}

	var syntaxError *json.SyntaxError
	if errors.As(err, &syntaxError) {
		return gin.H{"json": "invalid_json_syntax"}
	}

	// the json field path is already made of json names
	var typeError *json.UnmarshalTypeError
	if errors.As(err, &typeError) {
		field := strings.TrimSpace(typeError.Field)

		return gin.H{
			"json":  "invalid_json_type",
			"field": field,
			"fields": []FieldError{
				{
					Field:   field,
					Rule:    "type",
					Message: fmt.Sprintf("must be of type %s", typeName(typeError.Type)),
				},
			},
		}
	}

	if errors.Is(err, io.EOF) {
		return gin.H{"json": "empty_body"}
	}

	// custom UnmarshalJSON errors (e.g. a non-numeric rating) land here
	return gin.H{"reason": err.Error()}
}

// fieldPath drops the root struct name from the namespace,
// "CreateHireRequest.services[0]" becomes "services[0]".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok && rest != "" {
		return rest
	}
	return fe.Field()
}

func isCrossFieldRule(tag string) bool {
	switch tag {
	case "required_with", "required_without", "required_with_all", "required_without_all",
		"eqfield", "nefield", "gtfield", "ltfield":
		return true
	default:
		return false
	}
}

func baseStructType(v interface{}) reflect.Type {
	t := reflect.TypeOf(v)

	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t != nil && t.Kind() == reflect.Struct {
		return t
	}

	return nil
}

// jsonNameOf maps a Go field name used as a validator param to its json name.
func jsonNameOf(root reflect.Type, goName string) string {
	if root == nil {
		return goName
	}
	sf, ok := root.FieldByName(goName)
	if !ok {
		return goName
	}
	return jsonNameFromStructField(sf)
}

func jsonNameFromStructField(sf reflect.StructField) string {
	name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return sf.Name
	}
	return name
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "unknown"
	}
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	case reflect.Int, reflect.Int64, reflect.Float64:
		return "number"
	default:
		return t.Kind().String()
	}
}

func validationMessage(rule, param string, kind reflect.Kind) string {
	switch rule {
	case "required":
		return "is required"
	case "required_without":
		return "is required when " + param + " is not provided"
	case "email":
		return "must be a valid email address"
	case "min":
		if kind == reflect.Slice || kind == reflect.Array {
			return "must contain at least " + param + " item(s)"
		}
		return "must be at least " + param
	case "max":
		return "must be at most " + param
	case "oneof":
		return "must be one of " + strings.ReplaceAll(param, " ", ", ")
	default:
		if param != "" {
			return fmt.Sprintf("failed %s validation (%s)", rule, param)
		}
		return "failed " + rule + " validation"
	}
}
