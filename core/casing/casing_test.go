package casing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStyle(t *testing.T) {
	t.Run("accepts known styles", func(t *testing.T) {
		for _, name := range []string{"camelize", "dasherize", "underscore"} {
			s, err := ParseStyle(name)
			require.NoError(t, err)
			assert.Equal(t, Style(name), s)
		}
	})

	t.Run("empty string means default", func(t *testing.T) {
		s, err := ParseStyle("")
		require.NoError(t, err)
		assert.Equal(t, Default, s)
	})

	t.Run("rejects unknown style", func(t *testing.T) {
		_, err := ParseStyle("kebab")
		assert.Error(t, err)
	})
}

func TestEncode(t *testing.T) {
	cases := []struct {
		style Style
		in    string
		want  string
	}{
		{Camelize, "user_name", "userName"},
		{Camelize, "created_at_time", "createdAtTime"},
		{Camelize, "name", "name"},
		{Dasherize, "user_name", "user-name"},
		{Dasherize, "name", "name"},
		{Underscore, "user_name", "user_name"},
		{Underscore, "name", "name"},
	}
	for _, c := range cases {
		t.Run(string(c.style)+"/"+c.in, func(t *testing.T) {
			assert.Equal(t, c.want, c.style.Encode(c.in))
		})
	}
}

func TestDecode(t *testing.T) {
	cases := []struct {
		style Style
		in    string
		want  string
	}{
		{Camelize, "userName", "user_name"},
		{Camelize, "createdAtTime", "created_at_time"},
		{Camelize, "name", "name"},
		{Dasherize, "user-name", "user_name"},
		{Underscore, "user_name", "user_name"},
	}
	for _, c := range cases {
		t.Run(string(c.style)+"/"+c.in, func(t *testing.T) {
			assert.Equal(t, c.want, c.style.Decode(c.in))
		})
	}
}

func TestEncodeDecodeInverse(t *testing.T) {
	tokens := []string{"name", "user_name", "created_at", "a_b_c", "long_field_name_here"}
	for _, style := range []Style{Camelize, Dasherize, Underscore} {
		for _, token := range tokens {
			t.Run(string(style)+"/"+token, func(t *testing.T) {
				assert.Equal(t, token, style.Decode(style.Encode(token)))
			})
		}
	}
}
