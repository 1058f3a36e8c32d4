package rtdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanPath(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"products", "products", false},
		{"/products/P1/", "products/P1", false},
		{" shipping/US ", "shipping/US", false},
		{"", "", true},
		{"///", "", true},
		{"a//b", "", true},
		{"user.name", "", true},
		{"price$", "", true},
		{"tags#1", "", true},
		{"arr[0]", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := CleanPath(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPath)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPathHelpers(t *testing.T) {
	assert.Equal(t, "products/P1/price", Join("products", "/P1/", "price"))
	assert.Equal(t, "products/P1", Parent("products/P1/price"))
	assert.Equal(t, "", Parent("products"))
	assert.Equal(t, "products", Root("products/P1/price"))

	assert.True(t, IsAncestorOrSelf("products", "products/P1"))
	assert.True(t, IsAncestorOrSelf("products", "products"))
	assert.False(t, IsAncestorOrSelf("products/P1", "products"))
	assert.False(t, IsAncestorOrSelf("product", "products"), "前缀相同但不是同一段")

	assert.True(t, Related("products/P1", "products"))
	assert.False(t, Related("products", "brands"))
}

func TestNormalize(t *testing.T) {
	type item struct {
		Name  string         `json:"name"`
		Tags  []string       `json:"tags"`
		Meta  map[string]any `json:"meta"`
		Price float64        `json:"price"`
	}

	v, err := Normalize(item{Name: "x", Meta: map[string]any{"a": nil}, Price: 2})
	assert.NoError(t, err)
	// 空数组、空对象与 nil 字段都不会被存储
	assert.Equal(t, map[string]any{"name": "x", "price": float64(2)}, v)

	v, err = Normalize(map[string]any{})
	assert.NoError(t, err)
	assert.Nil(t, v)

	_, err = Normalize(map[string]any{"ch": make(chan int)})
	assert.ErrorIs(t, err, ErrInvalidData)
}

func TestSnapshotHelpers(t *testing.T) {
	snap := Snapshot{Path: "shipping", Value: map[string]any{
		"US": map[string]any{"name": "United States", "states": []any{"CA", "NY"}},
		"CA": map[string]any{"name": "Canada"},
	}}

	assert.Equal(t, []string{"CA", "US"}, snap.Keys())
	assert.Equal(t, "United States", snap.Child("US/name").Value)
	assert.Equal(t, "NY", snap.Child("US/states/1").Value)
	assert.Equal(t, "shipping/US/name", snap.Child("US/name").Path)
	assert.False(t, snap.Child("MX").Exists())

	var out struct {
		Name string `json:"name"`
	}
	assert.NoError(t, snap.Child("CA").Decode(&out))
	assert.Equal(t, "Canada", out.Name)

	next := Snapshot{Path: "shipping", Value: map[string]any{
		"US": map[string]any{"name": "USA"},
		"MX": map[string]any{"name": "Mexico"},
	}}
	c := Diff(snap, next)
	assert.Equal(t, []string{"MX"}, c.Added)
	assert.Equal(t, []string{"US"}, c.Changed)
	assert.Equal(t, []string{"CA"}, c.Removed)
	assert.True(t, Diff(next, next).Empty())
}
