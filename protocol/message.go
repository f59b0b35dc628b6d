// Package protocol defines the wire messages a host process exchanges with
// the harness, plus the codecs that encode them.
package protocol

// InitMessage is the one-shot initialization request. Binary selects the
// archive-unpack path, in which Code carries base64-encoded archive bytes;
// otherwise Code is literal source text. Main is the handler specifier.
type InitMessage struct {
	Binary bool   `json:"binary" cbor:"binary"`
	Code   string `json:"code" cbor:"code"`
	Main   string `json:"main" cbor:"main"`
}

// InitResult acknowledges a successful initialization.
type InitResult struct {
	OK bool `json:"ok" cbor:"ok"`
}

// RunMessage carries one invocation input, opaque to the harness.
type RunMessage struct {
	Value any `json:"value" cbor:"value"`
}
