package sharecode

import (
	"errors"
	"strings"
	"testing"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		info ShareInfo
	}{
		{name: "simple", info: ShareInfo{URL: "https://host.example/blob/1", Key: "secret", FileSize: 1024}},
		{name: "zero size", info: ShareInfo{URL: "https://host.example/empty", Key: "k", FileSize: 0}},
		{name: "max size", info: ShareInfo{URL: "u", Key: "k", FileSize: ^uint64(0)}},
		{name: "separators in fields", info: ShareInfo{URL: "https://a.b.c/x?y=1.2", Key: "a.b.c", FileSize: 7}},
		{name: "unicode", info: ShareInfo{URL: "https://例え.jp/文件", Key: "密钥", FileSize: 42}},
		{name: "binary key", info: ShareInfo{URL: "u", Key: "\x00\xff\x01", FileSize: 3}},
	}

	codec := NewCodec(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, short := range []bool{false, true} {
				code := codec.Encode(tt.info, short)
				got, err := codec.Decode(code)
				if err != nil {
					t.Fatalf("Decode(Encode(short=%v)) error = %v", short, err)
				}
				if got != tt.info {
					t.Errorf("Decode(Encode(short=%v)) = %+v, want %+v", short, got, tt.info)
				}
			}
		})
	}
}

func TestDecode_ReencodeIsIdempotent(t *testing.T) {
	codec := NewCodec(nil)
	info := ShareInfo{URL: "https://host.example/blob", Key: "k1", FileSize: 99}

	first, err := codec.Decode(EncodeLong(info))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	second, err := codec.Decode(EncodeLong(first))
	if err != nil {
		t.Fatalf("Decode() second pass error = %v", err)
	}
	if first != second {
		t.Errorf("second decode = %+v, want %+v", second, first)
	}
	if EncodeLong(first) != EncodeLong(info) {
		t.Errorf("re-encoded code differs: %q vs %q", EncodeLong(first), EncodeLong(info))
	}
}

func TestDecode_RejectsMalformed(t *testing.T) {
	valid := EncodeLong(ShareInfo{URL: "https://host.example/blob", Key: "k", FileSize: 10})
	fields := strings.Split(valid, ".")

	tests := []struct {
		name string
		code string
	}{
		{name: "empty", code: ""},
		{name: "whitespace", code: " \t\n"},
		{name: "garbage", code: "not-a-valid-code"},
		{name: "garbled", code: "garbled"},
		{name: "missing size", code: strings.Join(fields[:3], ".")},
		{name: "extra field", code: valid + ".5"},
		{name: "non-numeric size", code: strings.Join([]string{fields[0], fields[1], fields[2], "12ab"}, ".")},
		{name: "negative size", code: strings.Join([]string{fields[0], fields[1], fields[2], "-1"}, ".")},
		{name: "signed size", code: strings.Join([]string{fields[0], fields[1], fields[2], "+1"}, ".")},
		{name: "empty size", code: strings.Join([]string{fields[0], fields[1], fields[2], ""}, ".")},
		{name: "empty url", code: strings.Join([]string{fields[0], "", fields[2], fields[3]}, ".")},
		{name: "empty key", code: strings.Join([]string{fields[0], fields[1], "", fields[3]}, ".")},
		{name: "bad base64", code: strings.Join([]string{fields[0], "!!!", fields[2], fields[3]}, ".")},
		{name: "newline in url", code: strings.Join([]string{fields[0], fields[1][:2] + "\n" + fields[1][2:], fields[2], fields[3]}, ".")},
		{name: "carriage return in key", code: strings.Join([]string{fields[0], fields[1], "\r" + fields[2], fields[3]}, ".")},
		{name: "wrong version", code: strings.Join([]string{"mf2", fields[1], fields[2], fields[3]}, ".")},
		{name: "short without ref", code: "mfs."},
		{name: "short truncated", code: "mfs.0123456789"},
		{name: "short too long", code: "mfs.0123456789abcdef012345"},
		{name: "short not hex", code: "mfs.zzzzzzzzzzzzzzzzzzzz"},
		{name: "short unknown", code: "mfs.0123456789abcdef0123"},
	}

	codec := NewCodec(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Decode(tt.code)
			if err == nil {
				t.Fatalf("Decode(%q) expected error, got nil", tt.code)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("Decode(%q) error = %T, want *ParseError", tt.code, err)
			}
			if pe.Code != tt.code {
				t.Errorf("ParseError.Code = %q, want %q", pe.Code, tt.code)
			}
		})
	}
}

func TestParseError_DoesNotLeakKey(t *testing.T) {
	code := EncodeLong(ShareInfo{URL: "u", Key: "topsecret", FileSize: 1})
	code = code[:strings.LastIndex(code, ".")] + ".x"

	_, err := ParseLong(code)
	if err == nil {
		t.Fatal("ParseLong() expected error")
	}
	if strings.Contains(err.Error(), code) {
		t.Errorf("error message %q contains the raw code", err.Error())
	}
}

func TestDecode_TrimsWhitespace(t *testing.T) {
	info := ShareInfo{URL: "u", Key: "k", FileSize: 5}
	codec := NewCodec(nil)

	got, err := codec.Decode("  " + EncodeLong(info) + "\n")
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got != info {
		t.Errorf("Decode() = %+v, want %+v", got, info)
	}
}

type stubResolver struct {
	codes map[string]string
	err   error
	calls int
}

func (r *stubResolver) ExpandShortCode(ref string) (string, error) {
	r.calls++
	if r.err != nil {
		return "", r.err
	}
	return r.codes[ref], nil
}

func TestDecode_ShortCodeThroughResolver(t *testing.T) {
	info := ShareInfo{URL: "https://host.example/a", Key: "k", FileSize: 12}
	long := EncodeLong(info)
	ref := ShortRef(long)

	resolver := &stubResolver{codes: map[string]string{ref: long}}
	codec := NewCodec(resolver)

	got, err := codec.Decode(ref)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got != info {
		t.Errorf("Decode() = %+v, want %+v", got, info)
	}

	// The expansion is cached, so the resolver is not asked again.
	if _, err := codec.Decode(strings.ToUpper(ref)); err != nil {
		t.Fatalf("Decode() upper-case error = %v", err)
	}
	if resolver.calls != 1 {
		t.Errorf("resolver calls = %d, want 1", resolver.calls)
	}
}

func TestDecode_ShortCodeResolverFailures(t *testing.T) {
	long := EncodeLong(ShareInfo{URL: "u", Key: "k", FileSize: 1})
	ref := ShortRef(long)
	other := EncodeLong(ShareInfo{URL: "other", Key: "k", FileSize: 1})

	tests := []struct {
		name     string
		resolver *stubResolver
	}{
		{name: "resolver error", resolver: &stubResolver{err: errors.New("offline")}},
		{name: "unknown ref", resolver: &stubResolver{codes: map[string]string{}}},
		{name: "mismatched expansion", resolver: &stubResolver{codes: map[string]string{ref: other}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCodec(tt.resolver).Decode(ref)
			if !IsParseError(err) {
				t.Errorf("Decode() error = %v, want ParseError", err)
			}
		})
	}
}

func TestShortRef_Format(t *testing.T) {
	ref := ShortRef(EncodeLong(ShareInfo{URL: "u", Key: "k"}))
	if !strings.HasPrefix(ref, "mfs.") {
		t.Errorf("ShortRef() = %q, want mfs. prefix", ref)
	}
	if len(ref) != len("mfs.")+20 {
		t.Errorf("len(ShortRef()) = %d, want %d", len(ref), len("mfs.")+20)
	}
	if !IsShort(ref) || IsShort(EncodeLong(ShareInfo{URL: "u", Key: "k"})) {
		t.Error("IsShort() misclassified codes")
	}
}

func TestShareInfo_Identity(t *testing.T) {
	a := ShareInfo{URL: "u", Key: "k", FileSize: 1}
	b := ShareInfo{URL: "u", Key: "k", FileSize: 2}
	c := ShareInfo{URL: "u", Key: "other", FileSize: 1}

	if !a.SameBlob(b) {
		t.Error("SameBlob() = false for equal url/key, want true")
	}
	if a.SameBlob(c) {
		t.Error("SameBlob() = true for different keys, want false")
	}
	if a.Fingerprint() == c.Fingerprint() {
		t.Error("Fingerprint() equal for different infos")
	}
	if len(a.Fingerprint()) != 64 {
		t.Errorf("len(Fingerprint()) = %d, want 64", len(a.Fingerprint()))
	}
}

func TestShortIndex_Collision(t *testing.T) {
	idx := NewShortIndex()
	long := EncodeLong(ShareInfo{URL: "u", Key: "k"})
	ref := idx.Add(long)
	idx.Add(long)

	if idx.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", idx.Len())
	}
	got, err := idx.Lookup(ref)
	if err != nil || got != long {
		t.Fatalf("Lookup() = %q, %v; want %q, nil", got, err, long)
	}

	// Force a collision by inserting under the same ref directly.
	idx.entries[ref] = append(idx.entries[ref], "mf1.eA.eA.0")
	if _, err := idx.Lookup(ref); err == nil {
		t.Error("Lookup() expected collision error")
	}
}
