package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	t.Run("register and get", func(t *testing.T) {
		reg := NewRegistry()
		require.NoError(t, reg.Register(MustBuild(Config{Type: "user"})))

		s, ok := reg.Get("user")
		require.True(t, ok)
		assert.Equal(t, "user", s.Type())

		_, ok = reg.Get("post")
		assert.False(t, ok)
	})

	t.Run("lookup by path segment", func(t *testing.T) {
		reg := NewRegistry()
		require.NoError(t, reg.Register(MustBuild(Config{Type: "user", Path: "people"})))

		s, ok := reg.GetByPath("people")
		require.True(t, ok)
		assert.Equal(t, "user", s.Type())

		_, ok = reg.GetByPath("user")
		assert.False(t, ok)
	})

	t.Run("duplicate type rejected", func(t *testing.T) {
		reg := NewRegistry()
		require.NoError(t, reg.Register(MustBuild(Config{Type: "user"})))
		err := reg.Register(MustBuild(Config{Type: "user", Path: "other"}))
		assert.Error(t, err)
	})

	t.Run("duplicate path rejected", func(t *testing.T) {
		reg := NewRegistry()
		require.NoError(t, reg.Register(MustBuild(Config{Type: "user", Path: "people"})))
		err := reg.Register(MustBuild(Config{Type: "person", Path: "people"}))
		assert.Error(t, err)
	})

	t.Run("list is sorted by type", func(t *testing.T) {
		reg := NewRegistry()
		reg.MustRegister(MustBuild(Config{Type: "post"}))
		reg.MustRegister(MustBuild(Config{Type: "comment"}))
		reg.MustRegister(MustBuild(Config{Type: "user"}))

		var types []string
		for _, s := range reg.List() {
			types = append(types, s.Type())
		}
		assert.Equal(t, []string{"comment", "post", "user"}, types)
	})
}

func TestVerify(t *testing.T) {
	t.Run("all targets registered", func(t *testing.T) {
		reg := NewRegistry()
		reg.MustRegister(MustBuild(Config{
			Type:          "user",
			Relationships: []Relationship{{Name: "posts", Many: true, TargetView: "post"}},
		}))
		reg.MustRegister(MustBuild(Config{Type: "post"}))
		assert.NoError(t, reg.Verify())
	})

	t.Run("dangling target fails", func(t *testing.T) {
		reg := NewRegistry()
		reg.MustRegister(MustBuild(Config{
			Type:          "user",
			Relationships: []Relationship{{Name: "posts", Many: true, TargetView: "post"}},
		}))
		assert.Error(t, reg.Verify())
	})
}
