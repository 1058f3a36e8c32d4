package service

import (
	"errors"
	"shop_admin_v1_202610/internal/api/dto"
	"shop_admin_v1_202610/internal/model"
	"shop_admin_v1_202610/internal/repository"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Home Decor", "home-decor"},
		{"  Kids & Baby  ", "kids-baby"},
		{"T-Shirts--2026", "t-shirts-2026"},
		{"家居", ""},
		{"Café 42", "caf-42"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in), tt.in)
	}
}

func TestCategoryService_CreateRegistersSlug(t *testing.T) {
	env := newTestEnv(t)
	svc := NewCategoryService(env.db, env.ops, nil)

	cat, err := svc.CreateCategory(env.ctx, &dto.CategoryReq{Name: "Home Decor"})
	require.NoError(t, err)
	assert.Equal(t, "home-decor", cat.Slug)
	assert.Equal(t, cat.ID, env.value(t, "categorySlugs/home-decor"))

	_, err = svc.CreateCategory(env.ctx, &dto.CategoryReq{Name: "Home decor 2", Slug: "home-decor"})
	var ve *model.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Problems, "slug home-decor 已被使用")

	_, err = svc.CreateCategory(env.ctx, &dto.CategoryReq{Name: "家居"})
	assert.True(t, errors.As(err, &ve), "无法生成 slug 时必须手动填写")
}

func TestCategoryService_SubCategories(t *testing.T) {
	env := newTestEnv(t)
	svc := NewCategoryService(env.db, env.ops, nil)

	cat, err := svc.CreateCategory(env.ctx, &dto.CategoryReq{Name: "Home Decor"})
	require.NoError(t, err)

	cat, err = svc.AddSubCategory(env.ctx, cat.ID, &dto.SubCategoryReq{Name: "Lamps"})
	require.NoError(t, err)
	require.Len(t, cat.SubCategories, 1)
	assert.Equal(t, cat.ID, env.value(t, "categorySlugs/lamps"))

	got, sub, err := svc.GetBySlug(env.ctx, "lamps")
	require.NoError(t, err)
	assert.Equal(t, cat.ID, got.ID)
	require.NotNil(t, sub)
	assert.Equal(t, "Lamps", sub.Name)

	// 子分类 slug 与父分类冲突
	_, err = svc.AddSubCategory(env.ctx, cat.ID, &dto.SubCategoryReq{Name: "Decor", Slug: "home-decor"})
	var ve *model.ValidationError
	assert.True(t, errors.As(err, &ve))

	cat, err = svc.RemoveSubCategory(env.ctx, cat.ID, "lamps")
	require.NoError(t, err)
	assert.Empty(t, cat.SubCategories)
	assert.Nil(t, env.value(t, "categorySlugs/lamps"))

	stored, err := svc.GetCategory(env.ctx, cat.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.SubCategories)

	_, err = svc.RemoveSubCategory(env.ctx, cat.ID, "lamps")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, _, err = svc.GetBySlug(env.ctx, "lamps")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCategoryService_UpdateMovesSlug(t *testing.T) {
	env := newTestEnv(t)
	svc := NewCategoryService(env.db, env.ops, nil)

	cat, err := svc.CreateCategory(env.ctx, &dto.CategoryReq{Name: "Home Decor"})
	require.NoError(t, err)

	updated, err := svc.UpdateCategory(env.ctx, cat.ID, &dto.CategoryReq{Name: "Decor", Slug: "decor", Description: "d"})
	require.NoError(t, err)
	assert.Equal(t, "decor", updated.Slug)
	assert.Nil(t, env.value(t, "categorySlugs/home-decor"))
	assert.Equal(t, cat.ID, env.value(t, "categorySlugs/decor"))

	stored, err := svc.GetCategory(env.ctx, cat.ID)
	require.NoError(t, err)
	assert.Equal(t, "Decor", stored.Name)
	assert.Equal(t, cat.CreatedAt, stored.CreatedAt)
}

func TestCategoryService_DeleteStripsProducts(t *testing.T) {
	env := newTestEnv(t)
	svc := NewCategoryService(env.db, env.ops, nil)

	cat, err := svc.CreateCategory(env.ctx, &dto.CategoryReq{Name: "Home Decor"})
	require.NoError(t, err)
	_, err = svc.AddSubCategory(env.ctx, cat.ID, &dto.SubCategoryReq{Name: "Lamps"})
	require.NoError(t, err)

	product := func(categories ...any) map[string]any {
		return map[string]any{
			"vendorId": "v1", "name": "P", "slug": "p", "shortDescription": "s", "sku": "S1",
			"price": 10, "stockQuantity": 1, "inventoryType": "simple", "categories": categories,
		}
	}
	env.seed(t, "products/p1", product(cat.ID, "other"))
	env.seed(t, "products/p2", product(cat.ID))
	env.seed(t, "products/p3", product("other"))

	require.NoError(t, svc.DeleteCategory(env.ctx, cat.ID))

	assert.Nil(t, env.value(t, "categories/"+cat.ID))
	assert.Nil(t, env.value(t, "categorySlugs/home-decor"))
	assert.Nil(t, env.value(t, "categorySlugs/lamps"))
	assert.Equal(t, []any{"other"}, env.value(t, "products/p1/categories"))
	assert.Nil(t, env.value(t, "products/p2/categories"))
	assert.Equal(t, []any{"other"}, env.value(t, "products/p3/categories"))

	assert.ErrorIs(t, svc.DeleteCategory(env.ctx, cat.ID), repository.ErrNotFound)
}

func TestCategoryService_RebuildSlugIndex(t *testing.T) {
	env := newTestEnv(t)
	svc := NewCategoryService(env.db, env.ops, nil)

	env.seed(t, "categories/a", map[string]any{
		"name": "A", "slug": "alpha",
		"subCategories": []any{map[string]any{"name": "Shared", "slug": "shared"}},
	})
	env.seed(t, "categories/b", map[string]any{"name": "B", "slug": "shared"})

	count, conflicts, err := svc.RebuildSlugIndex(env.ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, []string{"shared"}, conflicts)
	assert.Equal(t, map[string]any{"alpha": "a", "shared": "a"}, env.value(t, "categorySlugs"))
}
