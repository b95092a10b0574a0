package services

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type greeter struct{ greeting string }

func TestContainer_RegisterResolve(t *testing.T) {
	c := NewContainer()
	g := &greeter{greeting: "hello"}

	require.NoError(t, c.Register("greeter", g))

	svc, err := c.Resolve("greeter")
	require.NoError(t, err)
	assert.Same(t, g, svc)

	typed, err := Resolve[*greeter](c, "greeter")
	require.NoError(t, err)
	assert.Equal(t, "hello", typed.greeting)
}

func TestContainer_Errors(t *testing.T) {
	c := NewContainer()
	require.NoError(t, c.Register("greeter", &greeter{}))

	tests := []struct {
		name string
		run  func() error
		want error
	}{
		{
			name: "empty name",
			run:  func() error { return c.Register("", &greeter{}) },
			want: ErrInvalidService,
		},
		{
			name: "nil value",
			run:  func() error { return c.Register("nothing", nil) },
			want: ErrInvalidService,
		},
		{
			name: "duplicate",
			run:  func() error { return c.Register("greeter", &greeter{}) },
			want: ErrDuplicateService,
		},
		{
			name: "unknown",
			run: func() error {
				_, err := c.Resolve("missing")
				return err
			},
			want: ErrServiceNotFound,
		},
		{
			name: "wrong type",
			run: func() error {
				_, err := Resolve[string](c, "greeter")
				return err
			},
			want: ErrServiceType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.run(), tt.want)
		})
	}
	assert.Equal(t, 1, c.Len())
}

func TestContainer_Names(t *testing.T) {
	c := NewContainer()
	require.NoError(t, c.Register("zeta", 1))
	require.NoError(t, c.Register("alpha", 2))

	assert.Equal(t, []string{"alpha", "zeta"}, c.Names())
	assert.Empty(t, NewContainer().Names())
}

func TestContainer_ConcurrentRegister(t *testing.T) {
	c := NewContainer()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			_ = c.Register(fmt.Sprintf("svc-%d", id), id)
			_, _ = c.Resolve(fmt.Sprintf("svc-%d", id))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, c.Len())
}
