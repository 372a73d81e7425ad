package binary

import (
	"bytes"
	"errors"
	"io"
	"runtime"
	"strings"
	"testing"
)

func TestReaderReadByte(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03}
	r := NewReader(bytes.NewReader(data))

	for i, want := range data {
		if r.Position() != i {
			t.Errorf("position before read %d: got %d, want %d", i, r.Position(), i)
		}
		b, err := r.ReadByte()
		if err != nil {
			t.Fatalf("ReadByte %d: %v", i, err)
		}
		if b != want {
			t.Errorf("ReadByte %d: got 0x%02x, want 0x%02x", i, b, want)
		}
	}

	if r.Position() != 3 {
		t.Errorf("final position: got %d, want 3", r.Position())
	}

	_, err := r.ReadByte()
	if !errors.Is(err, io.EOF) {
		t.Errorf("expected EOF, got %v", err)
	}
}

func TestReaderReadBytes(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	r := FromBytes(data)

	got, err := r.ReadBytes(3)
	if err != nil {
		t.Fatalf("ReadBytes: %v", err)
	}
	if !bytes.Equal(got, []byte{0x01, 0x02, 0x03}) {
		t.Errorf("ReadBytes: got %v, want [1 2 3]", got)
	}
	if r.Position() != 3 {
		t.Errorf("position: got %d, want 3", r.Position())
	}

	_, err = r.ReadBytes(10)
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("expected unexpected EOF, got %v", err)
	}
}

func TestReaderBigEndian(t *testing.T) {
	r := FromBytes([]byte{
		0xCA, 0xFE, 0xBA, 0xBE, // u4
		0x00, 0x41, // u2
		0xFF,       // s1
		0xFF, 0xFE, // s2
		0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x02, // u8
	})

	u4, err := r.ReadU4()
	if err != nil || u4 != 0xCAFEBABE {
		t.Fatalf("ReadU4 = 0x%x, %v", u4, err)
	}
	u2, err := r.ReadU2()
	if err != nil || u2 != 0x41 {
		t.Fatalf("ReadU2 = %d, %v", u2, err)
	}
	s1, err := r.ReadS1()
	if err != nil || s1 != -1 {
		t.Fatalf("ReadS1 = %d, %v", s1, err)
	}
	s2, err := r.ReadS2()
	if err != nil || s2 != -2 {
		t.Fatalf("ReadS2 = %d, %v", s2, err)
	}
	u8, err := r.ReadU8()
	if err != nil || u8 != 0x0000000100000002 {
		t.Fatalf("ReadU8 = 0x%x, %v", u8, err)
	}
}

func TestReaderReset(t *testing.T) {
	r := FromBytes([]byte{0x00, 0x07})
	if _, err := r.ReadU2(); err != nil {
		t.Fatal(err)
	}
	if err := r.Reset(1); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	b, err := r.ReadU1()
	if err != nil || b != 7 {
		t.Errorf("after reset: got %d, %v", b, err)
	}

	plain := NewReader(&byteReader{data: []byte{1}})
	if err := plain.Reset(0); err == nil {
		t.Error("expected Reset to fail on a non-seekable reader")
	}
}

func TestWriterRoundTrip(t *testing.T) {
	w := NewWriter()
	w.WriteU4(0xCAFEBABE)
	w.WriteU2(0xBEEF)
	w.WriteU1(0x7F)
	w.WriteU8(1 << 40)
	w.WriteBytes([]byte("ab"))

	if w.Len() != 4+2+1+8+2 {
		t.Fatalf("Len = %d", w.Len())
	}

	r := FromBytes(w.Bytes())
	if v, _ := r.ReadU4(); v != 0xCAFEBABE {
		t.Errorf("u4 = 0x%x", v)
	}
	if v, _ := r.ReadU2(); v != 0xBEEF {
		t.Errorf("u2 = 0x%x", v)
	}
	if v, _ := r.ReadU1(); v != 0x7F {
		t.Errorf("u1 = 0x%x", v)
	}
	if v, _ := r.ReadU8(); v != 1<<40 {
		t.Errorf("u8 = 0x%x", v)
	}
	rest, err := r.ReadRemaining()
	if err != nil || string(rest) != "ab" {
		t.Errorf("remaining = %q, %v", rest, err)
	}
}

func TestWriterPatch(t *testing.T) {
	w := NewWriter()
	w.WriteU2(0)
	w.WriteU4(0)
	w.PatchU2(0, 0x1234)
	w.PatchU4(2, 0xDEADBEEF)

	want := []byte{0x12, 0x34, 0xDE, 0xAD, 0xBE, 0xEF}
	if !bytes.Equal(w.Bytes(), want) {
		t.Errorf("patched = % x, want % x", w.Bytes(), want)
	}
}

func TestParseError(t *testing.T) {
	r := FromBytes([]byte{1, 2})
	_, _ = r.ReadU1()
	err := r.WrapError("constant pool", io.ErrUnexpectedEOF)

	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if pe.Position != 1 || pe.Section != "constant pool" {
		t.Errorf("got position %d section %q", pe.Position, pe.Section)
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("ParseError should unwrap to the cause")
	}
}

func TestReadBytesForgedLength(t *testing.T) {
	tests := []struct {
		name string
		r    *Reader
	}{
		{"bytes reader", FromBytes([]byte{1, 2, 3})},
		{"byte reader", NewReader(&byteReader{data: []byte{1, 2, 3}})},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var before, after runtime.MemStats
			runtime.ReadMemStats(&before)
			_, err := tc.r.ReadBytes(0x7FFFFFF0)
			runtime.ReadMemStats(&after)

			if !errors.Is(err, io.ErrUnexpectedEOF) {
				t.Errorf("err = %v, want unexpected EOF", err)
			}
			if delta := after.TotalAlloc - before.TotalAlloc; delta > 1<<20 {
				t.Errorf("allocated %d bytes for a 3-byte input", delta)
			}
		})
	}
}

func TestWrapErrorOnce(t *testing.T) {
	r := FromBytes([]byte{1})
	_, err := r.ReadU2()
	err = r.WrapError("attributes", err)

	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if pe.Section != "attributes" {
		t.Errorf("section = %q", pe.Section)
	}
	if n := strings.Count(err.Error(), "position"); n != 1 {
		t.Errorf("position reported %d times: %v", n, err)
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("cause lost")
	}
	if again := r.WrapError("class", err); again != err || pe.Section != "attributes" {
		t.Errorf("rewrapping changed the error: %v", again)
	}
}

type byteReader struct {
	data []byte
	pos  int
}

func (b *byteReader) ReadByte() (byte, error) {
	if b.pos >= len(b.data) {
		return 0, io.EOF
	}
	c := b.data[b.pos]
	b.pos++
	return c, nil
}
