// Package bind decodes and validates a submitted HTML form into a struct.
package bind

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/shashiranjanraj/carby/pkg/validate"
)

// MaxBodyBytes caps form bodies.
const MaxBodyBytes = 1 << 20

// Form parses r's urlencoded or multipart body into dest (a pointer to a
// struct with `form` tags) and runs validation.
// Returns (errs, nil) when there are validation failures.
// Returns (nil, err) when the body is malformed or too large.
//
// Checkbox fields bind to bool: "on", "true", "1" and "yes" are true and an
// absent field is false.
func Form(r *http.Request, dest interface{}) (errs map[string]string, err error) {
	if r.Body != nil {
		r.Body = http.MaxBytesReader(nil, r.Body, MaxBodyBytes)
	}
	if err := r.ParseForm(); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, fmt.Errorf("request body too large (max %d bytes)", maxErr.Limit)
		}
		return nil, fmt.Errorf("invalid form: %w", err)
	}

	if err := decode(r.PostForm, dest); err != nil {
		return nil, err
	}

	errs = validate.Struct(dest)
	if validate.HasErrors(errs) {
		return errs, nil
	}
	return nil, nil
}

func decode(values map[string][]string, dest interface{}) error {
	rv := reflect.ValueOf(dest)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("bind: dest must be a pointer to a struct, got %T", dest)
	}
	rv = rv.Elem()
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() || field.Tag.Get("form") == "-" {
			continue
		}
		name := validate.FieldName(field)
		raw := ""
		if vs, ok := values[name]; ok && len(vs) > 0 {
			raw = vs[0]
			if !hasOption(field.Tag.Get("form"), "notrim") {
				raw = strings.TrimSpace(raw)
			}
		}

		fv := rv.Field(i)
		switch fv.Kind() {
		case reflect.String:
			fv.SetString(raw)
		case reflect.Bool:
			fv.SetBool(checked(raw))
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if raw == "" {
				continue
			}
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return fmt.Errorf("bind: %s: not an integer", name)
			}
			fv.SetInt(n)
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			if raw == "" {
				continue
			}
			n, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				return fmt.Errorf("bind: %s: not a positive integer", name)
			}
			fv.SetUint(n)
		}
	}
	return nil
}

func checked(raw string) bool {
	switch strings.ToLower(raw) {
	case "on", "true", "1", "yes", "y":
		return true
	}
	return false
}

// hasOption reports whether a tag like "password,notrim" carries opt.
func hasOption(tag, opt string) bool {
	_, opts, _ := strings.Cut(tag, ",")
	for _, o := range strings.Split(opts, ",") {
		if o == opt {
			return true
		}
	}
	return false
}
