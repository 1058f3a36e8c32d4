package service

import (
	"errors"
	"os"
	"path/filepath"
	"shop_admin_v1_202610/internal/api/dto"
	"shop_admin_v1_202610/internal/model"
	"shop_admin_v1_202610/internal/repository"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProductEnv(t *testing.T) (*testEnv, *ProductService, string) {
	t.Helper()
	env := newTestEnv(t)
	storage, dir := newLocalStorageService(t)
	svc := NewProductService(env.db, env.ops, model.NewSchemaValidator(), storage, nil)
	env.seed(t, "vendors/v1", map[string]any{"name": "Acme", "storeName": "Acme Store", "email": "v1@example.com"})
	env.seed(t, "vendors/v2", map[string]any{"name": "Beta", "email": "v2@example.com"})
	return env, svc, dir
}

func productReq(vendor, name, sku string) *dto.ProductReq {
	return &dto.ProductReq{
		VendorID:         vendor,
		Name:             name,
		ShortDescription: "short",
		SKU:              sku,
		Price:            20,
		StockQuantity:    3,
	}
}

func TestProductService_CreateDefaults(t *testing.T) {
	env, svc, _ := newProductEnv(t)

	p, err := svc.CreateProduct(env.ctx, productReq("v1", "Linen Shirt", "LS-1"))
	require.NoError(t, err)
	assert.Equal(t, "linen-shirt", p.Slug)
	assert.Equal(t, model.InventorySimple, p.InventoryType)
	assert.Equal(t, "draft", p.Status)
	assert.NotZero(t, p.CreatedAt)

	stored, err := svc.GetProduct(env.ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "LS-1", stored.SKU)
}

func TestProductService_CreateRejectsInvalid(t *testing.T) {
	env, svc, _ := newProductEnv(t)
	var ve *model.ValidationError

	_, err := svc.CreateProduct(env.ctx, productReq("v404", "Shirt", "S-1"))
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Problems, "所属商家不存在")

	req := productReq("v1", "Shirt", "S-1")
	req.InventoryType = model.InventoryVariable
	_, err = svc.CreateProduct(env.ctx, req)
	assert.True(t, errors.As(err, &ve), "规格商品缺少规格组合")

	req.VariableOptions = []model.VariableOption{{Size: "M", Price: 20, Stock: 2}}
	p, err := svc.CreateProduct(env.ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 2, p.TotalStock())
}

func TestProductService_ListFilters(t *testing.T) {
	env, svc, _ := newProductEnv(t)

	a := productReq("v1", "Linen Shirt", "LS-1")
	a.Categories = []string{"c1"}
	_, err := svc.CreateProduct(env.ctx, a)
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)

	b := productReq("v2", "Wool Hat", "WH-1")
	b.Categories = []string{"c2"}
	b.Status = "published"
	_, err = svc.CreateProduct(env.ctx, b)
	require.NoError(t, err)

	all, err := svc.ListProducts(env.ctx, &dto.ProductListReq{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Wool Hat", all[0].Name, "最新的在前")

	byVendor, err := svc.ListProducts(env.ctx, &dto.ProductListReq{VendorID: "v1"})
	require.NoError(t, err)
	require.Len(t, byVendor, 1)
	assert.Equal(t, "Linen Shirt", byVendor[0].Name)

	byCategory, err := svc.ListProducts(env.ctx, &dto.ProductListReq{CategoryID: "c2"})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)

	byKeyword, err := svc.ListProducts(env.ctx, &dto.ProductListReq{Keyword: "ls-"})
	require.NoError(t, err)
	require.Len(t, byKeyword, 1)
	assert.Equal(t, "Linen Shirt", byKeyword[0].Name)

	published, err := svc.ListProducts(env.ctx, &dto.ProductListReq{Status: "published"})
	require.NoError(t, err)
	assert.Len(t, published, 1)
}

func TestProductService_Detail(t *testing.T) {
	env, svc, _ := newProductEnv(t)
	env.seed(t, "categories/c1", map[string]any{"name": "Shirts", "slug": "shirts"})
	env.seed(t, "brands/b1", map[string]any{"name": "Linenco"})
	env.seed(t, "tags/t1", map[string]any{"name": "summer"})

	req := productReq("v1", "Linen Shirt", "LS-1")
	req.Categories = []string{"c1", "gone"}
	req.Brands = []string{"b1"}
	req.Tags = []string{"t1"}
	req.SalePrice = 15
	p, err := svc.CreateProduct(env.ctx, req)
	require.NoError(t, err)

	detail, err := svc.ProductDetail(env.ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Store", detail.VendorName)
	assert.Equal(t, []dto.NamedRef{{ID: "c1", Name: "Shirts"}, {ID: "gone"}}, detail.CategoryRefs)
	assert.Equal(t, []dto.NamedRef{{ID: "b1", Name: "Linenco"}}, detail.BrandRefs)
	assert.Equal(t, []dto.NamedRef{{ID: "t1", Name: "summer"}}, detail.TagRefs)
	assert.Equal(t, 15.0, detail.EffectivePrice)
	assert.Equal(t, 3, detail.TotalStock)

	_, err = svc.ProductDetail(env.ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestProductService_UpdateIsPartial(t *testing.T) {
	env, svc, _ := newProductEnv(t)
	p, err := svc.CreateProduct(env.ctx, productReq("v1", "Linen Shirt", "LS-1"))
	require.NoError(t, err)

	price := 25.5
	empty := []string{}
	updated, err := svc.UpdateProduct(env.ctx, p.ID, &dto.UpdateProductReq{Price: &price, Tags: &empty})
	require.NoError(t, err)
	assert.Equal(t, 25.5, updated.Price)

	stored, err := svc.GetProduct(env.ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 25.5, stored.Price)
	assert.Equal(t, "Linen Shirt", stored.Name)
	assert.Equal(t, p.CreatedAt, stored.CreatedAt)

	variable := model.InventoryVariable
	_, err = svc.UpdateProduct(env.ctx, p.ID, &dto.UpdateProductReq{InventoryType: &variable})
	var ve *model.ValidationError
	assert.True(t, errors.As(err, &ve), "切换为规格商品时必须带上规格组合")

	_, err = svc.UpdateProduct(env.ctx, "missing", &dto.UpdateProductReq{Price: &price})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestProductService_Images(t *testing.T) {
	env, svc, dir := newProductEnv(t)
	p, err := svc.CreateProduct(env.ctx, productReq("v1", "Linen Shirt", "LS-1"))
	require.NoError(t, err)

	p, err = svc.AddImage(env.ctx, p.ID, pngHeader, "front.png")
	require.NoError(t, err)
	require.Len(t, p.Images, 1)
	url := p.Images[0]
	file := filepath.Join(dir, filepath.FromSlash(strings.TrimPrefix(url, "/uploads/")))
	_, err = os.Stat(file)
	require.NoError(t, err)

	stored, err := svc.GetProduct(env.ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{url}, stored.Images)

	_, err = svc.AddImage(env.ctx, p.ID, []byte("not an image"), "x.png")
	assert.Error(t, err)

	_, err = svc.RemoveImage(env.ctx, p.ID, "/uploads/other.png")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	p, err = svc.RemoveImage(env.ctx, p.ID, url)
	require.NoError(t, err)
	assert.Empty(t, p.Images)
	_, err = os.Stat(file)
	assert.True(t, os.IsNotExist(err))
	assert.Nil(t, env.value(t, "products/"+p.ID+"/images"))
}

func TestProductService_DeleteRemovesImages(t *testing.T) {
	env, svc, dir := newProductEnv(t)
	p, err := svc.CreateProduct(env.ctx, productReq("v1", "Linen Shirt", "LS-1"))
	require.NoError(t, err)
	p, err = svc.AddImage(env.ctx, p.ID, pngHeader, "front.png")
	require.NoError(t, err)
	file := filepath.Join(dir, filepath.FromSlash(strings.TrimPrefix(p.Images[0], "/uploads/")))

	require.NoError(t, svc.DeleteProduct(env.ctx, p.ID))
	_, err = os.Stat(file)
	assert.True(t, os.IsNotExist(err))
	assert.ErrorIs(t, svc.DeleteProduct(env.ctx, p.ID), repository.ErrNotFound)
}

func TestProductService_StorageDisabled(t *testing.T) {
	env := newTestEnv(t)
	svc := NewProductService(env.db, env.ops, model.NewSchemaValidator(), nil, nil)
	_, err := svc.AddImage(env.ctx, "p1", pngHeader, "a.png")
	assert.ErrorIs(t, err, ErrStorageDisabled)
}
