package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validProduct() map[string]any {
	return map[string]any{
		"vendorId":         "V1",
		"name":             "T-Shirt",
		"slug":             "t-shirt",
		"shortDescription": "cotton",
		"sku":              "TS-001",
		"price":            19.9,
		"stockQuantity":    10,
		"inventoryType":    "simple",
	}
}

func problemsOf(t *testing.T, err error) []string {
	t.Helper()
	var ve *ValidationError
	require.True(t, errors.As(err, &ve), "应为 ValidationError: %v", err)
	return ve.Problems
}

func TestSchemaValidator_Record(t *testing.T) {
	v := NewSchemaValidator()

	assert.NoError(t, v.ValidateSet("products/P1", validProduct()))
	assert.NoError(t, v.ValidatePush("products", validProduct()))

	bad := validProduct()
	delete(bad, "sku")
	bad["price"] = -1
	bad["slug"] = "Bad Slug"
	problems := problemsOf(t, v.ValidateSet("products/P1", bad))
	assert.Contains(t, problems, "sku 不能为空")
	assert.Contains(t, problems, "price 不能小于 0")
	assert.Contains(t, problems, "slug 只能包含小写字母、数字和连字符")
}

func TestSchemaValidator_VariableProduct(t *testing.T) {
	v := NewSchemaValidator()

	p := validProduct()
	p["inventoryType"] = "variable"
	problems := problemsOf(t, v.ValidateSet("products/P1", p))
	assert.Contains(t, problems, "variableOptions 不能为空")

	p["variableOptions"] = []any{map[string]any{"size": "M", "price": 10, "stock": 2}}
	assert.NoError(t, v.ValidateSet("products/P1", p))

	p["variableOptions"] = []any{map[string]any{"size": "M", "price": 10, "stock": -2}}
	problems = problemsOf(t, v.ValidateSet("products/P1", p))
	assert.Contains(t, problems, "variableOptions[0].stock 不能小于 0")
}

func TestSchemaValidator_Update(t *testing.T) {
	v := NewSchemaValidator()

	// 只校验出现的字段
	assert.NoError(t, v.ValidateUpdate("products/P1", map[string]any{"price": 500}))
	assert.NoError(t, v.ValidateUpdate("products/P1", map[string]any{"description": nil}))

	problems := problemsOf(t, v.ValidateUpdate("products/P1", map[string]any{"price": -5}))
	assert.Equal(t, []string{"price 不能小于 0"}, problems)

	problems = problemsOf(t, v.ValidateUpdate("products/P1", map[string]any{"name": nil}))
	assert.Equal(t, []string{"name 为必填字段，不能删除"}, problems)

	problems = problemsOf(t, v.ValidateUpdate("products/P1", map[string]any{"colour": "red"}))
	assert.Equal(t, []string{"未知字段: colour"}, problems)

	problems = problemsOf(t, v.ValidateUpdate("products/P1", map[string]any{"price": "abc"}))
	require.Len(t, problems, 1)
	assert.Contains(t, problems[0], "字段类型错误")

	// 嵌套结构体在部分校验时也会检查
	problems = problemsOf(t, v.ValidateUpdate("categories/C1", map[string]any{
		"subCategories": []any{map[string]any{"name": "", "slug": "ok"}},
	}))
	assert.Equal(t, []string{"subCategories[0].name 不能为空"}, problems)

	// 集合级别的 update：每个 key 都是一条路径
	assert.NoError(t, v.ValidateUpdate("products", map[string]any{"P1/price": 1, "P2/stockQuantity": 3}))
}

func TestSchemaValidator_FieldPath(t *testing.T) {
	v := NewSchemaValidator()
	assert.NoError(t, v.ValidateSet("products/P1/price", 12))
	assert.Error(t, v.ValidateSet("products/P1/price", -1))
	assert.NoError(t, v.ValidateSet("products/P1/images/0", "a.png"))
}

func TestSchemaValidator_UnknownCollection(t *testing.T) {
	v := NewSchemaValidator()
	for _, err := range []error{
		v.ValidateSet("secrets/x", map[string]any{"a": 1}),
		v.ValidatePush("secrets", map[string]any{"a": 1}),
		v.ValidateRemove("secrets/x"),
		v.ValidateSet("shipping/US", map[string]any{"a": 1}),
	} {
		problems := problemsOf(t, err)
		require.Len(t, problems, 1)
		assert.Contains(t, problems[0], "未知集合")
	}
}

func TestSchemaValidator_CategorySlugIndex(t *testing.T) {
	v := NewSchemaValidator()
	assert.NoError(t, v.ValidateSet("categorySlugs/mens-shoes", "C1"))
	assert.NoError(t, v.ValidateSet("categorySlugs/mens-shoes", nil))
	assert.Error(t, v.ValidateSet("categorySlugs/mens-shoes", ""))
	assert.Error(t, v.ValidateSet("categorySlugs/Mens Shoes", "C1"))
	assert.Error(t, v.ValidatePush("categorySlugs", "C1"))
	assert.Error(t, v.ValidateSet("categorySlugs/a/b", "C1"))
}

func TestSchemaValidator_Shipping(t *testing.T) {
	v := NewSchemaValidator()
	assert.NoError(t, v.ValidateSet("cities/X", map[string]any{
		"name": "Atlanta", "stateId": "S1", "countryId": "C1", "defaultPrice": 0,
	}))
	problems := problemsOf(t, v.ValidateSet("cities/X", map[string]any{
		"name": "Atlanta", "stateId": "S1", "defaultPrice": -1,
	}))
	assert.ElementsMatch(t, []string{"countryId 不能为空", "defaultPrice 不能小于 0"}, problems)
}

func TestUserVendorRequiresVendorID(t *testing.T) {
	v := NewSchemaValidator()
	u := map[string]any{"name": "a", "email": "a@b.com", "role": "vendor"}
	problems := problemsOf(t, v.ValidateSet("users/U1", u))
	assert.Equal(t, []string{"vendorId 不能为空"}, problems)

	u["vendorId"] = "V1"
	assert.NoError(t, v.ValidateSet("users/U1", u))
}

func TestIsExpired(t *testing.T) {
	now := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	s := &Session{ExpiresAt: now.Add(SessionTTL).UnixMilli()}

	assert.False(t, IsExpired(s, now))
	assert.False(t, IsExpired(s, now.Add(SessionTTL-time.Millisecond)))
	assert.True(t, IsExpired(s, now.Add(SessionTTL)))
	assert.True(t, IsExpired(nil, now))
}

func TestProductTotalStock(t *testing.T) {
	p := Product{InventoryType: InventorySimple, StockQuantity: 4}
	assert.Equal(t, 4, p.TotalStock())

	p = Product{InventoryType: InventoryVariable, StockQuantity: 99, VariableOptions: []VariableOption{{Stock: 1}, {Stock: 2}}}
	assert.Equal(t, 3, p.TotalStock())
}
