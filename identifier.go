package ldapcodec

import "io"

// Long-form tag extension marker: low 5 bits of the first identifier octet
// all set to 1 means "the tag number follows in base-128 extension octets".
const longFormTagMarker = 0b00011111

// berReadLongTag reads the base-128 tag number extension that follows an
// identifier octet whose low 5 bits are all set (TagNumber() == 31).
// Each extension octet carries 7 bits of the tag with the continuation bit
// (0x80) set on all but the last octet.
func berReadLongTag(r io.Reader) (uint32, error) {
	var tag uint32
	first := true
	for {
		b, err := readByte(r)
		if err != nil {
			return 0, err
		}
		if first {
			// A leading extension octet of 0x80 carries no tag bits at all,
			// which is a non-minimal (and thus invalid) encoding.
			if b == 0x80 {
				return 0, ErrInvalidLongTag
			}
			first = false
		}
		// Reject tags that would overflow a 31-bit signed range before they do.
		if tag > 0x7fffffff>>7 {
			return 0, ErrInvalidLongTag.WithInfo("tag too large", tag)
		}
		tag = (tag << 7) | uint32(b&0x7f)
		if b&0x80 == 0 {
			break
		}
	}
	return tag, nil
}

// berEncodeLongTag returns the base-128 extension octets encoding tag,
// continuation bits set on all but the last octet.
func berEncodeLongTag(tag uint32) []byte {
	// 5 septets is enough for any value that fits in uint32.
	var tmp [5]byte
	n := 0
	tmp[n] = byte(tag & 0x7f)
	n++
	tag >>= 7
	for tag > 0 {
		tmp[n] = byte(tag & 0x7f)
		n++
		tag >>= 7
	}
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		b := tmp[n-1-i]
		if i < n-1 {
			b |= 0x80
		}
		out[i] = b
	}
	return out
}

// BerEncodeIdentifierExt returns the BER identifier octets for an arbitrary
// tag number, using long (extension) form when tag >= 31. LDAP messages
// never need a tag this large; this exists so the tag/length codec is a
// faithful general-purpose implementation and not just a special case for
// the application tags LDAP happens to use.
func BerEncodeIdentifierExt(class uint8, constructed bool, tag uint32) []byte {
	first := class & 0b11000000
	if constructed {
		first |= 0b00100000
	}
	if tag < longFormTagMarker {
		return []byte{first | byte(tag)}
	}
	return append([]byte{first | longFormTagMarker}, berEncodeLongTag(tag)...)
}

// BerReadIdentifierExt reads a BER identifier of arbitrary tag number,
// returning the class, constructed flag, and tag. It is the generalization
// of BerReadElement's identifier parsing to tags >= 31 (encoded in long
// form); see BerEncodeIdentifierExt.
func BerReadIdentifierExt(r io.Reader) (class uint8, constructed bool, tag uint32, err error) {
	b, err := readByte(r)
	if err != nil {
		return
	}
	class = b & 0b11000000
	constructed = b&0b00100000 != 0
	tagnum := b & 0b00011111
	if tagnum != longFormTagMarker {
		tag = uint32(tagnum)
		return
	}
	tag, err = berReadLongTag(r)
	return
}
