package content

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInFlight_BeginDone(t *testing.T) {
	f := NewInFlight()
	assert.False(t, f.Busy("alice"))

	done1 := f.Begin("alice")
	done2 := f.Begin("alice")
	assert.True(t, f.Busy("alice"))
	assert.False(t, f.Busy("bob"))

	done1()
	done1() // second call is a no-op
	assert.True(t, f.Busy("alice"), "one upload still running")

	done2()
	assert.False(t, f.Busy("alice"))
}

func TestInFlight_Concurrent(t *testing.T) {
	f := NewInFlight()
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			done := f.Begin("alice")
			_ = f.Busy("alice")
			done()
		}()
	}
	wg.Wait()
	assert.False(t, f.Busy("alice"))
}
