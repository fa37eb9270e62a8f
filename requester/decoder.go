package requester

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"

	"github.com/go-playground/validator/v10"
)

// Decoder decodes a successful response body into v, a pointer to the result
type Decoder interface {
	Decode(data []byte, v any) error
}

// DecoderFunc adapts a function to Decoder
type DecoderFunc func(data []byte, v any) error

func (f DecoderFunc) Decode(data []byte, v any) error {
	return f(data, v)
}

// JSONDecoder is the default decoder
type JSONDecoder struct {
	// UseNumber decodes numbers into json.Number instead of float64
	UseNumber bool
	// DisallowUnknownFields rejects objects with fields the result type lacks
	DisallowUnknownFields bool
}

func (d JSONDecoder) Decode(data []byte, v any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return errors.New("empty response body")
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	if d.UseNumber {
		dec.UseNumber()
	}
	if d.DisallowUnknownFields {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return errors.New("unexpected data after JSON value")
	}
	return nil
}

// ValidatingDecoder decodes with Decoder (JSONDecoder when nil) and then
// validates struct results against their `validate` tags
type ValidatingDecoder struct {
	Decoder  Decoder
	Validate *validator.Validate
}

func (d ValidatingDecoder) Decode(data []byte, v any) error {
	dec := d.Decoder
	if dec == nil {
		dec = JSONDecoder{}
	}
	if err := dec.Decode(data, v); err != nil {
		return err
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	check := d.Validate
	if check == nil {
		check = validate
	}
	if err := check.Struct(rv.Interface()); err != nil {
		return fmt.Errorf("response failed validation: %w", err)
	}
	return nil
}
