package jsonutil

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/prebid/prebid-response-engine/errortypes"
)

// Unmarshal decodes data into v. Decoding errors are returned as errortypes.FailedToUnmarshal with
// the "json: " noise removed from the message.
func Unmarshal(data []byte, v interface{}) error {
	if err := json.Unmarshal(data, v); err != nil {
		return &errortypes.FailedToUnmarshal{Message: tryExtractErrorMessage(err)}
	}
	return nil
}

// UnmarshalValid decodes data into v, rejecting documents that are not valid json first.
func UnmarshalValid(data []byte, v interface{}) error {
	if !json.Valid(data) {
		return &errortypes.FailedToUnmarshal{Message: "invalid json"}
	}
	return Unmarshal(data, v)
}

// Marshal encodes v without escaping html characters. Creatives and urls are returned verbatim.
func Marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, &errortypes.FailedToMarshal{Message: tryExtractErrorMessage(err)}
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func tryExtractErrorMessage(err error) string {
	msg := err.Error()
	return strings.TrimPrefix(msg, "json: ")
}
