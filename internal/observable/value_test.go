package observable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueSetNotifiesOnChange(t *testing.T) {
	v := New(0)
	var got []int
	v.Subscribe(func(n int) { got = append(got, n) })

	assert.True(t, v.Set(1))
	assert.False(t, v.Set(1))
	assert.True(t, v.Set(3))

	assert.Equal(t, []int{1, 3}, got)
	assert.Equal(t, 3, v.Get())
}

func TestValueObserversCalledInOrder(t *testing.T) {
	v := New("")
	var order []string
	v.Subscribe(func(string) { order = append(order, "first") })
	v.Subscribe(func(string) { order = append(order, "second") })

	v.Set("x")
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestValueUnsubscribe(t *testing.T) {
	v := New(0)
	calls := 0
	unsubscribe := v.Subscribe(func(int) { calls++ })

	v.Set(1)
	unsubscribe()
	unsubscribe()
	v.Set(2)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, v.Observers())
}

func TestValueUnsubscribeInsideCallback(t *testing.T) {
	v := New(0)
	var secondCalls int
	var unsubscribeSecond func()
	v.Subscribe(func(int) { unsubscribeSecond() })
	unsubscribeSecond = v.Subscribe(func(int) { secondCalls++ })

	v.Set(1)
	v.Set(2)

	assert.Equal(t, 0, secondCalls)
	assert.Equal(t, 1, v.Observers())
}

func TestValueSubscribeInsideCallback(t *testing.T) {
	v := New(0)
	var late []int
	subscribed := false
	v.Subscribe(func(int) {
		if subscribed {
			return
		}
		subscribed = true
		v.Subscribe(func(n int) { late = append(late, n) })
	})

	v.Set(1)
	require.Empty(t, late)
	v.Set(2)
	assert.Equal(t, []int{2}, late)
}

func TestValueStoreThenNotify(t *testing.T) {
	v := New(0)
	var got []int
	v.Subscribe(func(n int) { got = append(got, n) })

	assert.True(t, v.Store(5))
	assert.False(t, v.Store(5))
	assert.Empty(t, got)
	assert.Equal(t, 5, v.Get())

	v.Notify()
	assert.Equal(t, []int{5}, got)
}

func TestValueNilObserverIgnored(t *testing.T) {
	v := New(0)
	unsubscribe := v.Subscribe(nil)
	unsubscribe()
	assert.True(t, v.Set(1))
	assert.Equal(t, 0, v.Observers())
}
