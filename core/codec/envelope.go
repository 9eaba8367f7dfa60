package codec

import (
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	tagField   = "instanceTag"
	eventField = "event"
)

// Wrap puts an encoded event into a scoped envelope:
//
//	{"instanceTag": 42, "event": {...}}
func Wrap(tag uint32, event []byte) ([]byte, error) {
	out, err := sjson.SetBytes([]byte(`{}`), tagField, tag)
	if err != nil {
		return nil, err
	}
	return sjson.SetRawBytes(out, eventField, event)
}

// Unwrap splits a scoped envelope into its tag and encoded event.
func Unwrap(data []byte) (tag uint32, event []byte, err error) {
	if !gjson.ValidBytes(data) {
		return 0, nil, fmt.Errorf("%w: invalid envelope", ErrNotAnEvent)
	}
	res := gjson.GetManyBytes(data, tagField, eventField)
	if res[0].Type != gjson.Number || !res[1].IsObject() {
		return 0, nil, fmt.Errorf("%w: invalid envelope", ErrNotAnEvent)
	}
	// tags are plain uint32 literals; anything else could alias the local tag
	n, err := strconv.ParseUint(res[0].Raw, 10, 32)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: invalid instance tag %s", ErrNotAnEvent, res[0].Raw)
	}
	return uint32(n), []byte(res[1].Raw), nil
}
