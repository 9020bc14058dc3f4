package nowpayments

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// VerifyIPN checks the x-nowpayments-sig header against the raw IPN
// body. The provider signs an HMAC-SHA512 over the JSON payload with
// keys sorted recursively, so verification must reproduce that exact
// canonical form before computing the digest. Comparison is constant
// time.
func (c *Client) VerifyIPN(rawPayload []byte, signatureHeader string) bool {
	sig := strings.TrimSpace(signatureHeader)
	if sig == "" || c.IPNSecret == "" {
		return false
	}

	expected, err := hex.DecodeString(strings.ToLower(sig))
	if err != nil {
		return false
	}

	canonical, err := canonicalJSON(rawPayload)
	if err != nil {
		return false
	}

	mac := hmac.New(sha512.New, []byte(c.IPNSecret))
	mac.Write(canonical)
	return hmac.Equal(mac.Sum(nil), expected)
}

// canonicalJSON re-serializes a JSON object with recursively sorted
// keys. json.Number keeps numeric literals byte-identical to the wire
// form; encoding/json already emits map keys in sorted order at every
// nesting level.
func canonicalJSON(raw []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var payload map[string]interface{}
	if err := dec.Decode(&payload); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
