package constantpool

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	cferrors "github.com/wippyai/classfile/errors"
)

// EncodedLen returns the length of s in modified UTF-8.
func EncodedLen(s string) int {
	n := 0
	for _, r := range s {
		switch {
		case r == 0:
			n += 2
		case r < 0x80:
			n++
		case r < 0x800:
			n += 2
		case r < 0x10000:
			n += 3
		default:
			n += 6
		}
	}
	return n
}

// EncodeModifiedUTF8 encodes s the way the class file format stores strings:
// NUL takes two bytes and supplementary characters become surrogate pairs.
func EncodeModifiedUTF8(s string) []byte {
	out := make([]byte, 0, EncodedLen(s))
	for _, r := range s {
		switch {
		case r == 0:
			out = append(out, 0xC0, 0x80)
		case r < 0x80:
			out = append(out, byte(r))
		case r < 0x800:
			out = append(out, 0xC0|byte(r>>6), 0x80|byte(r&0x3F))
		case r < 0x10000:
			out = appendThree(out, r)
		default:
			hi, lo := utf16.EncodeRune(r)
			out = appendThree(out, hi)
			out = appendThree(out, lo)
		}
	}
	return out
}

func appendThree(out []byte, r rune) []byte {
	return append(out, 0xE0|byte(r>>12), 0x80|byte((r>>6)&0x3F), 0x80|byte(r&0x3F))
}

// DecodeModifiedUTF8 decodes a modified UTF-8 byte sequence.
func DecodeModifiedUTF8(data []byte) (string, error) {
	var b strings.Builder
	b.Grow(len(data))
	var pending rune = -1
	flush := func() {
		if pending >= 0 {
			b.WriteRune(utf8.RuneError)
			pending = -1
		}
	}
	for i := 0; i < len(data); {
		c := data[i]
		var r rune
		switch {
		case c < 0x80 && c != 0:
			r = rune(c)
			i++
		case c&0xE0 == 0xC0:
			if i+1 >= len(data) || data[i+1]&0xC0 != 0x80 {
				return "", malformed(i)
			}
			r = rune(c&0x1F)<<6 | rune(data[i+1]&0x3F)
			i += 2
		case c&0xF0 == 0xE0:
			if i+2 >= len(data) || data[i+1]&0xC0 != 0x80 || data[i+2]&0xC0 != 0x80 {
				return "", malformed(i)
			}
			r = rune(c&0x0F)<<12 | rune(data[i+1]&0x3F)<<6 | rune(data[i+2]&0x3F)
			i += 3
		default:
			return "", malformed(i)
		}
		if utf16.IsSurrogate(r) {
			if r < 0xDC00 {
				flush()
				pending = r
				continue
			}
			if pending >= 0 {
				b.WriteRune(utf16.DecodeRune(pending, r))
				pending = -1
				continue
			}
		}
		flush()
		b.WriteRune(r)
	}
	flush()
	return b.String(), nil
}

func malformed(pos int) error {
	return cferrors.New(cferrors.PhaseDecode, cferrors.KindInvalidData).
		Path("Utf8").
		Value(pos).
		Detail("malformed modified UTF-8 at byte %d", pos).
		Build()
}
