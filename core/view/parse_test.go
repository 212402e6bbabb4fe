package view

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("full definition", func(t *testing.T) {
		s, err := Parse([]byte(`
type: user
attributes:
  - name: username
  - name: password_hash
    serialize: false
  - name: created_at
    deserialize: false
relationships:
  - name: posts
    many: true
    view: post
`))
		require.NoError(t, err)
		assert.Equal(t, "user", s.Type())
		assert.Len(t, s.Attributes(), 3)
		assert.False(t, s.IsSerializable("password_hash"))
		assert.True(t, s.IsDeserializable("password_hash"))
		assert.False(t, s.IsDeserializable("created_at"))

		rel, ok := s.Relationship("posts")
		require.True(t, ok)
		assert.True(t, rel.Many)
		assert.Equal(t, "post", rel.TargetView)
	})

	t.Run("declaration order survives", func(t *testing.T) {
		s, err := Parse([]byte(`
type: user
attributes:
  - name: zeta
  - name: alpha
  - name: mid
`))
		require.NoError(t, err)
		var names []string
		for _, a := range s.Attributes() {
			names = append(names, a.Name)
		}
		assert.Equal(t, []string{"zeta", "alpha", "mid"}, names)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := Parse([]byte(`type: [`))
		assert.Error(t, err)
	})

	t.Run("invalid definition", func(t *testing.T) {
		_, err := Parse([]byte(`attributes: [{name: x}]`))
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	})
}

func TestParseDir(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}

	write("user.yaml", "type: user\nrelationships:\n  - name: posts\n    many: true\n    view: post\n")
	write("post.yml", "type: post\nrelationships:\n  - name: author\n    view: user\n")
	write("notes.txt", "not a view")

	t.Run("parses yaml and yml, skips others", func(t *testing.T) {
		views, err := ParseDir(dir)
		require.NoError(t, err)
		assert.Len(t, views, 2)
	})

	t.Run("recurses into subdirectories", func(t *testing.T) {
		sub := filepath.Join(dir, "extra")
		require.NoError(t, os.Mkdir(sub, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(sub, "tag.yaml"), []byte("type: tag\n"), 0o644))

		views, err := ParseDir(dir)
		require.NoError(t, err)
		assert.Len(t, views, 3)
	})

	t.Run("LoadDir registers and verifies", func(t *testing.T) {
		reg := NewRegistry()
		require.NoError(t, LoadDir(dir, reg))

		s, ok := reg.Get("user")
		require.True(t, ok)
		target, err := s.RelatedView("posts")
		require.NoError(t, err)
		assert.Equal(t, "post", target.Type())
	})

	t.Run("LoadDir fails on dangling target", func(t *testing.T) {
		bad := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(bad, "a.yaml"),
			[]byte("type: a\nrelationships:\n  - name: b\n    view: b\n"), 0o644))

		err := LoadDir(bad, NewRegistry())
		assert.Error(t, err)
	})

	t.Run("missing directory", func(t *testing.T) {
		_, err := ParseDir(filepath.Join(dir, "nope"))
		assert.Error(t, err)
	})
}
