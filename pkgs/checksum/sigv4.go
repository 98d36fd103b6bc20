package checksum

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Algorithm is the signature algorithm identifier placed in the string to sign
// and in the Authorization header.
const Algorithm = "AWS4-HMAC-SHA256"

const amzDateLayoutLen = len("20060102T150405Z")

// SignOptions describes the request being signed. Zero values fall back to a
// GET with an empty payload against the "cn" region of the "vod" service.
type SignOptions struct {
	Method  string
	Payload string
	Region  string
	Service string
}

func (o SignOptions) withDefaults() SignOptions {
	if o.Method == "" {
		o.Method = "GET"
	}
	if o.Region == "" {
		o.Region = "cn"
	}
	if o.Service == "" {
		o.Service = "vod"
	}
	return o
}

// DeriveSigningKey runs the four-stage HMAC chain that turns a secret key into
// the per-day, per-region, per-service signing key.
func DeriveSigningKey(secret, date, region, service string) []byte {
	kDate := HMACSHA256([]byte("AWS4"+secret), date)
	kRegion := HMACSHA256(kDate, region)
	kService := HMACSHA256(kRegion, service)
	return HMACSHA256(kService, "aws4_request")
}

// CanonicalRequest builds the canonical request string for a request against
// the root URI. Header names are lower-cased and values trimmed before sorting.
// It also returns the semicolon-joined list of signed header names.
func CanonicalRequest(method, canonicalQuery string, headers map[string]string, payload string) (string, string) {
	type entry struct{ key, value string }
	entries := make([]entry, 0, len(headers))
	for k, v := range headers {
		entries = append(entries, entry{key: strings.ToLower(k), value: strings.TrimSpace(v)})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

	var block strings.Builder
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		block.WriteString(e.key)
		block.WriteByte(':')
		block.WriteString(e.value)
		block.WriteByte('\n')
		names = append(names, e.key)
	}
	signed := strings.Join(names, ";")

	request := strings.Join([]string{
		method,
		"/",
		canonicalQuery,
		block.String(),
		signed,
		SHA256Hex(payload),
	}, "\n")
	return request, signed
}

// SignRequest returns the hex signature for a request. headers must contain
// the x-amz-date value; its first eight characters form the credential date.
func SignRequest(secretKey, canonicalQuery string, headers map[string]string, opts SignOptions) (string, error) {
	opts = opts.withDefaults()

	amzDate := lookupHeader(headers, "x-amz-date")
	if amzDate == "" {
		return "", errors.New("sign request: missing x-amz-date header")
	}
	if len(amzDate) != amzDateLayoutLen {
		return "", fmt.Errorf("sign request: malformed x-amz-date %q", amzDate)
	}
	date := amzDate[:8]

	canonical, _ := CanonicalRequest(opts.Method, canonicalQuery, headers, opts.Payload)
	scope := CredentialScope(date, opts.Region, opts.Service)
	stringToSign := strings.Join([]string{Algorithm, amzDate, scope, SHA256Hex(canonical)}, "\n")

	key := DeriveSigningKey(secretKey, date, opts.Region, opts.Service)
	return HMACSHA256Hex(key, stringToSign), nil
}

// CredentialScope formats date/region/service/aws4_request.
func CredentialScope(date, region, service string) string {
	return fmt.Sprintf("%s/%s/%s/aws4_request", date, region, service)
}

// AuthorizationHeader assembles the Authorization header value.
func AuthorizationHeader(accessKey, date, region, service, signedHeaders, signature string) string {
	return fmt.Sprintf("%s Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		Algorithm, accessKey, CredentialScope(date, region, service), signedHeaders, signature)
}

func lookupHeader(headers map[string]string, name string) string {
	if v, ok := headers[name]; ok {
		return strings.TrimSpace(v)
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
