// Package sharecode converts ShareInfo values to and from share codes.
//
// Two textual forms exist:
//
//	long:  mf1.<base64url(url)>.<base64url(key)>.<size>
//	short: mfs.<20 lowercase hex digits>
//
// Base64url is RFC 4648 without padding, so fields never contain the "."
// separator. The size is an unsigned decimal. A short code is the first 10
// bytes of a BLAKE3 keyed hash of the long form; it carries no data and has
// to be expanded through a ShortIndex or a Resolver before it can be decoded.
package sharecode

import (
	"encoding/base64"
	"encoding/hex"
	"strconv"
	"strings"
)

const (
	longPrefix  = "mf1"
	shortPrefix = "mfs"
	separator   = "."

	// shortRefBytes is the number of hash bytes kept in a short code.
	shortRefBytes = 10
)

var b64 = base64.RawURLEncoding.Strict()

// EncodeLong returns the self-contained long form of info.
func EncodeLong(info ShareInfo) string {
	var b strings.Builder
	b.WriteString(longPrefix)
	b.WriteString(separator)
	b.WriteString(b64.EncodeToString([]byte(info.URL)))
	b.WriteString(separator)
	b.WriteString(b64.EncodeToString([]byte(info.Key)))
	b.WriteString(separator)
	b.WriteString(strconv.FormatUint(info.FileSize, 10))
	return b.String()
}

// ShortRef returns the short code for a long-form code. It does not validate
// longCode; callers hash whatever they intend to publish.
func ShortRef(longCode string) string {
	sum := keyedHash(shortDomainKey, []byte(longCode))
	return shortPrefix + separator + hex.EncodeToString(sum[:shortRefBytes])
}

// IsShort reports whether code looks like a short code. It does not check
// that the reference is well formed.
func IsShort(code string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(code)), shortPrefix+separator)
}

// ParseLong decodes a long-form code without consulting any index.
func ParseLong(code string) (ShareInfo, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return ShareInfo{}, parseErr(code, "empty code", nil)
	}
	return parseLong(code, trimmed)
}

func parseLong(raw, code string) (ShareInfo, error) {
	// The base64 decoder skips line breaks, so they are refused up front.
	if strings.ContainsAny(code, "\r\n") {
		return ShareInfo{}, parseErr(raw, "line break inside code", nil)
	}
	fields := strings.Split(code, separator)
	if fields[0] != longPrefix {
		return ShareInfo{}, parseErr(raw, "unknown code prefix", nil)
	}
	if len(fields) != 4 {
		return ShareInfo{}, parseErr(raw, "expected url, key and size fields", nil)
	}

	url, err := b64.DecodeString(fields[1])
	if err != nil {
		return ShareInfo{}, parseErr(raw, "malformed url field", err)
	}
	if len(url) == 0 {
		return ShareInfo{}, parseErr(raw, "missing url", nil)
	}

	key, err := b64.DecodeString(fields[2])
	if err != nil {
		return ShareInfo{}, parseErr(raw, "malformed key field", err)
	}
	if len(key) == 0 {
		return ShareInfo{}, parseErr(raw, "missing key", nil)
	}

	size, err := strconv.ParseUint(fields[3], 10, 64)
	if err != nil {
		return ShareInfo{}, parseErr(raw, "size is not a number", err)
	}

	return ShareInfo{URL: string(url), Key: string(key), FileSize: size}, nil
}

// parseShortRef validates a short code and returns it in canonical
// lowercase form.
func parseShortRef(raw, code string) (string, error) {
	ref := strings.ToLower(code)
	digits, ok := strings.CutPrefix(ref, shortPrefix+separator)
	if !ok {
		return "", parseErr(raw, "unknown code prefix", nil)
	}
	if len(digits) != 2*shortRefBytes {
		return "", parseErr(raw, "short code reference has wrong length", nil)
	}
	if _, err := hex.DecodeString(digits); err != nil {
		return "", parseErr(raw, "short code reference is not hex", err)
	}
	return ref, nil
}

// Resolver expands short codes that are not in the local index. It returns
// "" with a nil error when ref is unknown.
type Resolver interface {
	ExpandShortCode(ref string) (string, error)
}

// Codec encodes and decodes share codes. The zero value is not usable; call
// NewCodec. A Codec is safe for concurrent use.
type Codec struct {
	index    *ShortIndex
	resolver Resolver
}

// NewCodec creates a Codec. resolver may be nil, in which case only short
// codes produced by this Codec (or added to its index) can be decoded.
func NewCodec(resolver Resolver) *Codec {
	return &Codec{index: NewShortIndex(), resolver: resolver}
}

// Index returns the codec's short code index.
func (c *Codec) Index() *ShortIndex {
	return c.index
}

// Encode returns the share code for info. With short set, it returns the
// short form and remembers its expansion in the index.
func (c *Codec) Encode(info ShareInfo, short bool) string {
	long := EncodeLong(info)
	if !short {
		return long
	}
	return c.index.Add(long)
}

// Decode parses either form. Every failure is a *ParseError.
func (c *Codec) Decode(code string) (ShareInfo, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return ShareInfo{}, parseErr(code, "empty code", nil)
	}

	prefix, _, _ := strings.Cut(trimmed, separator)
	if !strings.EqualFold(prefix, shortPrefix) {
		return parseLong(code, trimmed)
	}

	ref, err := parseShortRef(code, trimmed)
	if err != nil {
		return ShareInfo{}, err
	}
	long, err := c.expand(code, ref)
	if err != nil {
		return ShareInfo{}, err
	}
	info, err := parseLong(code, long)
	if err != nil {
		return ShareInfo{}, err
	}
	c.index.Add(long)
	return info, nil
}

func (c *Codec) expand(raw, ref string) (string, error) {
	long, err := c.index.Lookup(ref)
	if err != nil {
		return "", parseErr(raw, "ambiguous short code", err)
	}
	if long == "" && c.resolver != nil {
		long, err = c.resolver.ExpandShortCode(ref)
		if err != nil {
			return "", parseErr(raw, "expanding short code", err)
		}
	}
	if long == "" {
		return "", parseErr(raw, "unknown short code", nil)
	}
	if ShortRef(long) != ref {
		return "", parseErr(raw, "short code expansion does not match", nil)
	}
	return long, nil
}
