package common

import (
	"encoding"
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"
)

var textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()

// WeakDecodeMap decodes a generic map produced by any of the config decoders
// into output, feeding strings through encoding.TextUnmarshaler where the
// target type implements it.
func WeakDecodeMap(input, output any) error {
	config := &mapstructure.DecoderConfig{
		Metadata: nil,
		Result:   output,
		TagName:  "toml",
		DecodeHook: func(
			f reflect.Type,
			t reflect.Type,
			data interface{}) (interface{}, error) {
			if !reflect.PointerTo(t).Implements(textUnmarshalerType) {
				return data, nil
			}

			str, ok := data.(string)
			if !ok {
				if f == t {
					return data, nil
				}
				// A bare number would otherwise land in the underlying
				// integer, e.g. 5 becoming a 5ns Duration.
				return nil, fmt.Errorf("expected a string for %s, got %s %v", t, f, data)
			}

			v := reflect.New(t)
			if err := v.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(str)); err != nil {
				return nil, err
			}

			return v.Elem().Interface(), nil
		},
	}

	decoder, err := mapstructure.NewDecoder(config)
	if err != nil {
		return err
	}

	return decoder.Decode(input)
}
