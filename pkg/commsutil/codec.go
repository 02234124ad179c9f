package commsutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

// EncodePayload serializes a value to JSON bytes without HTML escaping, so
// agent error text reaches COMMS subscribers unchanged.
func EncodePayload(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// DecodePayload deserializes a single JSON value into the given target.
// Numbers decoded into interface{} become json.Number so integral task
// arguments keep their exact value. Trailing data is rejected.
func DecodePayload(data []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("commsutil:codec - unexpected data after JSON value")
	}
	return nil
}
