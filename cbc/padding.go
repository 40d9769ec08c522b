package cbc

import "bytes"

// Pad appends PKCS#7 padding. A full block of padding is added when the input is already aligned.
func Pad(src []byte, blockSize int) []byte {
	padding := blockSize - len(src)%blockSize
	padtext := bytes.Repeat([]byte{byte(padding)}, padding)

	out := make([]byte, 0, len(src)+padding)
	out = append(out, src...)
	return append(out, padtext...)
}

// RemovePadding checks and strips PKCS#7 padding: the last k bytes must all be k, with 1 <= k <= blockSize.
func RemovePadding(src []byte, blockSize int) ([]byte, error) {
	l := len(src)
	if l == 0 {
		return nil, ErrInvalidPadding
	}

	k := int(src[l-1])
	if k == 0 || k > blockSize || k > l {
		return nil, ErrInvalidPadding
	}

	for _, b := range src[l-k:] {
		if int(b) != k {
			return nil, ErrInvalidPadding
		}
	}

	return src[:l-k], nil
}
