package codec

import (
	"bytes"
	"testing"
)

type sample struct {
	Name  string `cbor:"name"`
	Size  int64  `cbor:"size"`
	Items []int  `cbor:"items"`
}

func TestMarshal_Deterministic(t *testing.T) {
	m1 := map[string]int{"b": 2, "a": 1, "c": 3}
	m2 := map[string]int{"c": 3, "a": 1, "b": 2}

	d1, err := Marshal(m1)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	d2, err := Marshal(m2)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !bytes.Equal(d1, d2) {
		t.Errorf("Marshal() not deterministic: %x vs %x", d1, d2)
	}
}

func TestStreamRoundTrip(t *testing.T) {
	in := sample{Name: "list.mix_list", Size: 42, Items: []int{1, 2, 3}}

	var buf bytes.Buffer
	if err := NewEncoder(&buf).Encode(in); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	var out sample
	if err := NewDecoder(&buf).Decode(&out); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if out.Name != in.Name || out.Size != in.Size || len(out.Items) != 3 {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
}

func TestUnmarshal_IgnoresUnknownFields(t *testing.T) {
	data, err := Marshal(map[string]any{"name": "x", "size": 1, "extra": true})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var out sample
	if err := Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if out.Name != "x" || out.Size != 1 {
		t.Errorf("Unmarshal() = %+v", out)
	}
}
