package tlv8

// maxFragment is the largest value an 8-bit length field can describe.
const maxFragment = 255

// Encode serializes a container to wire bytes.
//
// Values longer than 255 bytes are split into consecutive fragments carrying
// the same type code. Each non-final fragment is exactly 255 bytes; the final
// fragment is shorter, or zero-length when the value length is an exact
// multiple of 255, so the decoder can tell where the value ends.
func Encode(c Container) []byte {
	var out []byte
	for _, item := range c {
		out = appendItem(out, item)
	}
	return out
}

func appendItem(out []byte, item Item) []byte {
	value := item.Value
	for len(value) >= maxFragment {
		out = append(out, byte(item.Type), maxFragment)
		out = append(out, value[:maxFragment]...)
		value = value[maxFragment:]
	}
	out = append(out, byte(item.Type), byte(len(value)))
	out = append(out, value...)
	return out
}

// Decode parses wire bytes into a mapping from type code to value.
//
// Repeated type codes are concatenated in order, which reassembles values
// that were fragmented across multiple 255-byte items. Decode fails with
// ErrTruncated when the input ends inside an item's declared value or on a
// dangling type byte with no length.
func Decode(data []byte) (map[byte][]byte, error) {
	decoded := make(map[byte][]byte)
	for i := 0; i < len(data); {
		if i+2 > len(data) {
			return nil, ErrTruncated
		}
		typ := data[i]
		length := int(data[i+1])
		i += 2
		if i+length > len(data) {
			return nil, ErrTruncated
		}
		decoded[typ] = append(decoded[typ], data[i:i+length]...)
		i += length
	}
	return decoded, nil
}
