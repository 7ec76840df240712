package util

import (
	"fmt"

	"github.com/vmihailenco/msgpack"

	"github.com/relindex/bptreeidx/storage/disk"
)

// ToByteSlice serializes obj into a zero-padded, page-sized buffer. This is
// the on-disk encoding for every fixed-layout node and header this module
// writes: deterministic given the same input, and always exactly PAGE_SIZE
// bytes so it can be copied straight into a frame.
func ToByteSlice[T any](obj T) ([]byte, error) {
	res := make([]byte, disk.PAGE_SIZE)

	data, err := msgpack.Marshal(obj)
	if err != nil {
		return nil, err
	}
	if len(data) > disk.PAGE_SIZE {
		return nil, fmt.Errorf("encoded value is %d bytes, exceeds page size %d", len(data), disk.PAGE_SIZE)
	}
	copy(res, data)

	return res, nil
}

// ToStruct decodes a page-sized buffer produced by ToByteSlice back into T.
func ToStruct[T any](data []byte) (T, error) {
	var res T

	if err := msgpack.Unmarshal(data, &res); err != nil {
		return res, err
	}

	return res, nil
}
