package bus

import (
	"math/rand/v2"
	"sync"
)

var (
	instanceOnce sync.Once
	instanceTag  uint32
)

// InstanceTag returns a random tag that stays the same for the lifetime of
// the process. It is never zero.
func InstanceTag() uint32 {
	instanceOnce.Do(func() {
		instanceTag = rand.Uint32N(1_000_000) + 1
	})
	return instanceTag
}
