package wheredoc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/wherec/internal/queryir"
)

// decodeJSON walks the token stream so object keys keep their order.
// Numbers decode as int64 or float64 when exact, else as json.Number.
func decodeJSON(data []byte) (queryir.Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	n, err := jsonValue(dec)
	if err != nil {
		return nil, jsonError(dec, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, jsonError(dec, fmt.Errorf("unexpected data after the document"))
	}
	return n, nil
}

func jsonValue(dec *json.Decoder) (queryir.Node, error) {
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("unexpected end of document")
		}
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			var fields []field
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, _ := keyTok.(string)
				v, err := jsonValue(dec)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", key, err)
				}
				fields = append(fields, field{key: key, value: v})
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return object(fields)
		case '[':
			list := queryir.List{}
			for dec.More() {
				v, err := jsonValue(dec)
				if err != nil {
					return nil, fmt.Errorf("[%d]: %w", len(list), err)
				}
				list = append(list, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return list, nil
		}
	case json.Number:
		v, err := number(string(t))
		if err != nil {
			return nil, err
		}
		return queryir.Scalar{V: v}, nil
	case string, bool, nil:
		return queryir.Scalar{V: t}, nil
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}

func jsonError(dec *json.Decoder, err error) error {
	return &Error{Format: FormatJSON, Pos: fmt.Sprintf("offset %d", dec.InputOffset()), Message: err.Error()}
}
