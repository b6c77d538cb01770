package session

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/maauso/mediamanip/internal/apperr"
)

// Tool arguments. Each struct is filled from the string map a shell hands to
// Dispatch: the arg tag names the key, the validate tag constrains the value.

type factorArgs struct {
	// Factor scales brightness or contrast; 1.0 is the identity.
	Factor float64 `arg:"factor" validate:"gte=0.1,lte=3"`
}

type resizeArgs struct {
	Width  int `arg:"width" validate:"gt=0"`
	Height int `arg:"height" validate:"gt=0"`
}

type destArgs struct {
	// Dest is a local path or s3:// URI.
	Dest string `arg:"dest" validate:"required"`
}

type trimArgs struct {
	// Start and End are offsets in seconds. Out of range bounds are clamped.
	Start float64 `arg:"start"`
	End   float64 `arg:"end"`
	Dest  string  `arg:"dest" validate:"required"`
}

type volumeArgs struct {
	DB   float64 `arg:"db" validate:"gte=-20,lte=20"`
	Dest string  `arg:"dest" validate:"required"`
}

type frameArgs struct {
	// Index is checked against the probed frame count by the video adapter.
	Index int    `arg:"index"`
	Dest  string `arg:"dest" validate:"required"`
}

type dirArgs struct {
	Dir string `arg:"dir" validate:"required"`
}

type replaceArgs struct {
	Find    string `arg:"find" validate:"required"`
	Replace string `arg:"replace"`
}

// bind parses args into the struct pointed to by out and validates it.
// Every failure wraps apperr.ErrInvalidArgument.
func bind(v *validator.Validate, args map[string]string, out any) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%w: bind target must be a struct pointer", apperr.ErrInvalidArgument)
	}
	rv = rv.Elem()
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		key := field.Tag.Get("arg")
		if key == "" {
			continue
		}
		raw, ok := args[key]
		if !ok {
			continue
		}
		raw = strings.TrimSpace(raw)
		fv := rv.Field(i)

		switch fv.Kind() {
		case reflect.String:
			fv.SetString(raw)
		case reflect.Int, reflect.Int64:
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return fmt.Errorf("%w: %s must be a whole number, got %q", apperr.ErrInvalidArgument, key, raw)
			}
			fv.SetInt(n)
		case reflect.Float64:
			f, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return fmt.Errorf("%w: %s must be a number, got %q", apperr.ErrInvalidArgument, key, raw)
			}
			fv.SetFloat(f)
		default:
			return fmt.Errorf("%w: unsupported argument kind %s for %s", apperr.ErrInvalidArgument, fv.Kind(), key)
		}
	}

	if err := v.Struct(out); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s", apperr.ErrInvalidArgument, describe(rt, fe))
		}
		return fmt.Errorf("%w: %w", apperr.ErrInvalidArgument, err)
	}
	return nil
}

// describe renders a validation failure using the arg key rather than the Go field name.
func describe(rt reflect.Type, fe validator.FieldError) string {
	key := fe.Field()
	if f, ok := rt.FieldByName(fe.StructField()); ok {
		if tag := f.Tag.Get("arg"); tag != "" {
			key = tag
		}
	}
	switch fe.Tag() {
	case "required":
		return key + " is required"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", key, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", key, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", key, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", key, fe.Tag())
	}
}
