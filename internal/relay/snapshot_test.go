package relay

import (
	"errors"
	"testing"
)

func TestDecodeSnapshotRoundTrip(t *testing.T) {
	in := `{"gamemode":"soccar","ball_phys":{"pos":[0,0,100],"vel":[1.5e3,-0.25,92.75]},"cars":[],"note":"<a&b>"}`
	snap := mustSnapshot(t, in)
	out, err := snap.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	// keys are re-emitted in sorted order, numbers and text verbatim
	want := `{"ball_phys":{"pos":[0,0,100],"vel":[1.5e3,-0.25,92.75]},"cars":[],"gamemode":"soccar","note":"<a&b>"}`
	if string(out) != want {
		t.Fatalf("Encode() = %s\nwant       %s", out, want)
	}
}

func TestDecodeSnapshotAcceptsAnyJSONValue(t *testing.T) {
	for _, in := range []string{`null`, `true`, `42`, `"text"`, `[1,2]`, "  {\"a\":1}\n"} {
		if _, err := DecodeSnapshot([]byte(in)); err != nil {
			t.Errorf("DecodeSnapshot(%q): %v", in, err)
		}
	}
}

func TestDecodeSnapshotRejectsMalformed(t *testing.T) {
	cases := map[string][]byte{
		"not json":  []byte("not json"),
		"truncated": []byte(`{"ball_phys":{"pos":[0,0`),
		"empty":     {},
		"trailing":  []byte(`{"a":1} {"b":2}`),
		"bad utf8":  {'"', 0xff, 0xfe, '"'},
	}
	for name, in := range cases {
		if _, err := DecodeSnapshot(in); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
	if _, err := DecodeSnapshot([]byte{'"', 0xff, '"'}); !errors.Is(err, ErrInvalidUTF8) {
		t.Errorf("expected ErrInvalidUTF8, got %v", err)
	}
	if _, err := DecodeSnapshot([]byte(`1 2`)); !errors.Is(err, ErrTrailingData) {
		t.Errorf("expected ErrTrailingData, got %v", err)
	}
}
