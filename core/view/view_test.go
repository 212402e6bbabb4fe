package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	t.Run("minimal config", func(t *testing.T) {
		s, err := Build(Config{Type: "user"})
		require.NoError(t, err)
		assert.Equal(t, "user", s.Type())
		assert.Equal(t, "id", s.IDField())
		assert.Equal(t, "user", s.Path())
	})

	t.Run("path and id field overrides", func(t *testing.T) {
		s, err := Build(Config{Type: "user", IDField: "uuid", Path: "people"})
		require.NoError(t, err)
		assert.Equal(t, "uuid", s.IDField())
		assert.Equal(t, "people", s.Path())
	})

	t.Run("missing type", func(t *testing.T) {
		_, err := Build(Config{})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Problems, "type is required")
	})

	t.Run("rejects id and type as attributes", func(t *testing.T) {
		_, err := Build(Config{
			Type: "user",
			Attributes: []Attribute{
				{Name: "id"},
				{Name: "type"},
			},
		})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Len(t, verr.Problems, 2)
	})

	t.Run("rejects duplicate attribute", func(t *testing.T) {
		_, err := Build(Config{
			Type: "user",
			Attributes: []Attribute{
				{Name: "name"},
				{Name: "name"},
			},
		})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("rejects name shared by attribute and relationship", func(t *testing.T) {
		_, err := Build(Config{
			Type:          "user",
			Attributes:    []Attribute{{Name: "posts"}},
			Relationships: []Relationship{{Name: "posts", TargetView: "post"}},
		})
		require.Error(t, err)
	})

	t.Run("relationship needs a target view", func(t *testing.T) {
		_, err := Build(Config{
			Type:          "user",
			Relationships: []Relationship{{Name: "posts"}},
		})
		require.Error(t, err)
	})

	t.Run("collects every problem at once", func(t *testing.T) {
		_, err := Build(Config{
			Attributes:    []Attribute{{Name: "id"}},
			Relationships: []Relationship{{Name: "posts"}},
		})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.GreaterOrEqual(t, len(verr.Problems), 3)
	})
}

func TestRules(t *testing.T) {
	t.Run("zero value is always", func(t *testing.T) {
		var r Rule
		assert.True(t, r.Enabled())
		got := r.Apply("name", map[string]any{"name": "Ada"}, nil)
		assert.Equal(t, "Ada", got)
	})

	t.Run("never disables the field", func(t *testing.T) {
		assert.False(t, Never().Enabled())
	})

	t.Run("transform computes the value", func(t *testing.T) {
		r := Transform(func(res map[string]any, ctx *Context) any {
			return res["first"].(string) + " " + res["last"].(string)
		})
		require.True(t, r.Enabled())
		got := r.Apply("full_name", map[string]any{"first": "Ada", "last": "Lovelace"}, nil)
		assert.Equal(t, "Ada Lovelace", got)
	})

	t.Run("transform receives the context", func(t *testing.T) {
		r := Transform(func(res map[string]any, ctx *Context) any {
			return ctx.Values["suffix"]
		})
		ctx := &Context{Values: map[string]any{"suffix": "!"}}
		assert.Equal(t, "!", r.Apply("x", nil, ctx))
	})
}

func TestSchemaQueries(t *testing.T) {
	s := MustBuild(Config{
		Type: "user",
		Attributes: []Attribute{
			{Name: "name"},
			{Name: "password_hash", Serialize: Never()},
			{Name: "created_at", Deserialize: Never()},
		},
		Relationships: []Relationship{
			{Name: "posts", Many: true, TargetView: "post"},
		},
	})

	t.Run("IsSerializable", func(t *testing.T) {
		assert.True(t, s.IsSerializable("name"))
		assert.False(t, s.IsSerializable("password_hash"))
		assert.False(t, s.IsSerializable("unknown"))
	})

	t.Run("IsDeserializable", func(t *testing.T) {
		assert.True(t, s.IsDeserializable("name"))
		assert.True(t, s.IsDeserializable("password_hash"))
		assert.False(t, s.IsDeserializable("created_at"))
	})

	t.Run("Relationship lookup", func(t *testing.T) {
		rel, ok := s.Relationship("posts")
		require.True(t, ok)
		assert.True(t, rel.Many)
		assert.Equal(t, "post", rel.TargetView)

		_, ok = s.Relationship("nope")
		assert.False(t, ok)
	})
}

func TestResolveID(t *testing.T) {
	s := MustBuild(Config{Type: "user"})

	t.Run("string id", func(t *testing.T) {
		id, err := s.ResolveID(map[string]any{"id": "abc"})
		require.NoError(t, err)
		assert.Equal(t, "abc", id)
	})

	t.Run("numeric ids become strings", func(t *testing.T) {
		for _, v := range []any{42, int64(42), float64(42)} {
			id, err := s.ResolveID(map[string]any{"id": v})
			require.NoError(t, err)
			assert.Equal(t, "42", id)
		}
	})

	t.Run("missing id is an error", func(t *testing.T) {
		_, err := s.ResolveID(map[string]any{"name": "Ada"})
		assert.Error(t, err)
	})

	t.Run("empty id is an error", func(t *testing.T) {
		_, err := s.ResolveID(map[string]any{"id": ""})
		assert.Error(t, err)
	})

	t.Run("custom id field", func(t *testing.T) {
		s := MustBuild(Config{Type: "user", IDField: "uuid"})
		id, err := s.ResolveID(map[string]any{"uuid": "u-1", "id": "ignored"})
		require.NoError(t, err)
		assert.Equal(t, "u-1", id)
	})
}

func TestRelatedView(t *testing.T) {
	reg := NewRegistry()
	user := MustBuild(Config{
		Type:          "user",
		Relationships: []Relationship{{Name: "posts", Many: true, TargetView: "post"}},
	})
	post := MustBuild(Config{
		Type:          "post",
		Relationships: []Relationship{{Name: "author", TargetView: "user"}},
	})
	reg.MustRegister(user)
	reg.MustRegister(post)

	t.Run("resolves registered target", func(t *testing.T) {
		target, err := user.RelatedView("posts")
		require.NoError(t, err)
		assert.Equal(t, "post", target.Type())
	})

	t.Run("mutual recursion resolves both ways", func(t *testing.T) {
		target, err := post.RelatedView("author")
		require.NoError(t, err)
		assert.Equal(t, "user", target.Type())
	})

	t.Run("unknown relationship", func(t *testing.T) {
		_, err := user.RelatedView("nope")
		assert.Error(t, err)
	})

	t.Run("unregistered schema cannot resolve", func(t *testing.T) {
		lone := MustBuild(Config{
			Type:          "orphan",
			Relationships: []Relationship{{Name: "posts", TargetView: "post"}},
		})
		_, err := lone.RelatedView("posts")
		assert.Error(t, err)
	})

	t.Run("RelationshipForType reverse lookup", func(t *testing.T) {
		rel, ok := user.RelationshipForType("post")
		require.True(t, ok)
		assert.Equal(t, "posts", rel.Name)

		_, ok = user.RelationshipForType("comment")
		assert.False(t, ok)
	})
}
