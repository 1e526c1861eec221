// Package signature implements the keyed-hash scheme the payment provider
// uses to authenticate webhook notifications. A payload is canonicalized by
// flattening nested values into bracketed keys, sorting the flat keys
// lexicographically and joining them as key=value pairs with "&"; the digest
// is an HMAC-SHA256 over the UTF-8 bytes of that string.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// SignatureField is excluded from canonicalization: the digest signs
// everything else in the payload.
const SignatureField = "signature"

// Format controls how non-string scalars are rendered before signing. The
// tokens are provider-specific, so they are injected rather than hard-coded.
type Format struct {
	TrueToken  string
	FalseToken string
}

// DefaultFormat matches the provider's documented defaults.
func DefaultFormat() Format {
	return Format{TrueToken: "1", FalseToken: "0"}
}

type Signer struct {
	secret []byte
	format Format
}

func New(secret string, format Format) *Signer {
	if format.TrueToken == "" {
		format.TrueToken = "1"
	}
	if format.FalseToken == "" {
		format.FalseToken = "0"
	}
	return &Signer{secret: []byte(secret), format: format}
}

// Sign returns the lowercase hex digest over the canonical form of payload.
func (s *Signer) Sign(payload map[string]interface{}) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(s.Canonicalize(payload)))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify recomputes the digest and compares it against providedHex in
// constant time. It returns false, never an error, on a missing or malformed
// digest: an unverifiable notification is an invalid one.
func (s *Signer) Verify(payload map[string]interface{}, providedHex string) bool {
	if providedHex == "" {
		return false
	}
	provided, err := hex.DecodeString(strings.ToLower(strings.TrimSpace(providedHex)))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(s.Canonicalize(payload)))
	return hmac.Equal(provided, mac.Sum(nil))
}

type pair struct {
	key   string
	value string
}

// Canonicalize produces the deterministic string the digest is computed over.
// Structurally identical payloads canonicalize identically regardless of
// field insertion order. Sorting happens on the flat keys alone, before the
// "=" is attached: sorting joined "key=value" strings would misorder a key
// that is a strict prefix of another ("a" vs "a0").
func (s *Signer) Canonicalize(payload map[string]interface{}) string {
	pairs := make([]pair, 0, len(payload))
	for key, value := range payload {
		if key == SignatureField {
			continue
		}
		pairs = s.flatten(pairs, key, value)
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].key < pairs[j].key })

	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = p.key + "=" + p.value
	}
	return strings.Join(parts, "&")
}

func (s *Signer) flatten(pairs []pair, key string, value interface{}) []pair {
	switch v := value.(type) {
	case map[string]interface{}:
		for subKey, subValue := range v {
			pairs = s.flatten(pairs, key+"["+subKey+"]", subValue)
		}
	case []interface{}:
		for i, item := range v {
			pairs = s.flatten(pairs, key+"["+strconv.Itoa(i)+"]", item)
		}
	default:
		pairs = append(pairs, pair{key: key, value: s.stringify(v)})
	}
	return pairs
}

func (s *Signer) stringify(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if v {
			return s.format.TrueToken
		}
		return s.format.FalseToken
	case json.Number:
		return v.String()
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}
