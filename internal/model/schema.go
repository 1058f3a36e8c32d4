package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// 集合名
const (
	ColProducts      = "products"
	ColCategories    = "categories"
	ColCategorySlugs = "categorySlugs" // slug -> 分类 id 索引
	ColBrands        = "brands"
	ColTags          = "tags"
	ColAttributes    = "attributes"
	ColVendors       = "vendors"
	ColUsers         = "users"
	ColRoles         = "roles"
	ColFAQs          = "faqs"
	ColTestimonials  = "testimonials"
	ColCoupons       = "coupons"
	ColTaxes         = "taxes"
	ColOrders        = "orders"
	ColCountries     = "countries"
	ColStates        = "states"
	ColCities        = "cities"

	// ColLegacyShipping 旧版嵌套运费数据，只作为一次性导入来源，不接受写入
	ColLegacyShipping = "shipping"
)

// Schema 集合的写入约束
// New 为 nil 表示索引集合，每个子节点是非空字符串
type Schema struct {
	Collection string
	New        func() any
}

var schemas = map[string]Schema{
	ColProducts:      {ColProducts, func() any { return &Product{} }},
	ColCategories:    {ColCategories, func() any { return &Category{} }},
	ColCategorySlugs: {ColCategorySlugs, nil},
	ColBrands:        {ColBrands, func() any { return &Brand{} }},
	ColTags:          {ColTags, func() any { return &Tag{} }},
	ColAttributes:    {ColAttributes, func() any { return &Attribute{} }},
	ColVendors:       {ColVendors, func() any { return &Vendor{} }},
	ColUsers:         {ColUsers, func() any { return &User{} }},
	ColRoles:         {ColRoles, func() any { return &Role{} }},
	ColFAQs:          {ColFAQs, func() any { return &FAQ{} }},
	ColTestimonials:  {ColTestimonials, func() any { return &Testimonial{} }},
	ColCoupons:       {ColCoupons, func() any { return &Coupon{} }},
	ColTaxes:         {ColTaxes, func() any { return &Tax{} }},
	ColOrders:        {ColOrders, func() any { return &Order{} }},
	ColCountries:     {ColCountries, func() any { return &Country{} }},
	ColStates:        {ColStates, func() any { return &State{} }},
	ColCities:        {ColCities, func() any { return &City{} }},
}

// LookupSchema 查找集合约束
func LookupSchema(collection string) (Schema, bool) {
	s, ok := schemas[collection]
	return s, ok
}

// Collections 所有可写集合，按名称排序
func Collections() []string {
	out := make([]string, 0, len(schemas))
	for name := range schemas {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// IsSlug 小写字母、数字，用连字符分隔
func IsSlug(s string) bool {
	return slugPattern.MatchString(s)
}

type fieldInfo struct {
	name     string // Go 字段名，StructPartial 使用
	required bool
	nested   bool // 字段本身或元素是结构体
	embedded bool
}

// SchemaValidator 在写入边界按集合约束校验数据
type SchemaValidator struct {
	validate *validator.Validate
	fields   map[reflect.Type]map[string]fieldInfo
}

// NewSchemaValidator 创建校验器并注册自定义规则
func NewSchemaValidator() *SchemaValidator {
	v := validator.New()
	// 错误信息里使用 json 字段名
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return IsSlug(fl.Field().String())
	})
	v.RegisterStructValidation(validateProduct, Product{})

	s := &SchemaValidator{validate: v, fields: make(map[reflect.Type]map[string]fieldInfo)}
	for _, schema := range schemas {
		if schema.New != nil {
			t := reflect.TypeOf(schema.New()).Elem()
			s.fields[t] = collectFields(t, false)
		}
	}
	return s
}

func collectFields(t reflect.Type, embedded bool) map[string]fieldInfo {
	out := make(map[string]fieldInfo)
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			for k, v := range collectFields(f.Type, true) {
				out[k] = v
			}
			continue
		}
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			continue
		}
		ft := f.Type
		if ft.Kind() == reflect.Slice || ft.Kind() == reflect.Ptr {
			ft = ft.Elem()
		}
		tags := strings.Split(f.Tag.Get("validate"), ",")
		required := false
		for _, tag := range tags {
			if tag == "required" {
				required = true
			}
		}
		out[name] = fieldInfo{
			name:     f.Name,
			required: required,
			nested:   ft.Kind() == reflect.Struct,
			embedded: embedded,
		}
	}
	return out
}

// validateProduct 规格商品至少需要一个规格组合（空数组也算缺失）
func validateProduct(sl validator.StructLevel) {
	p := sl.Current().Interface().(Product)
	if p.InventoryType == InventoryVariable && len(p.VariableOptions) == 0 {
		sl.ReportError(p.VariableOptions, "variableOptions", "VariableOptions", "required", "")
	}
}

// ==================== 写入校验 ====================

// ValidateSet 校验覆盖写入；value 为 nil 表示删除
func (s *SchemaValidator) ValidateSet(path string, value any) error {
	var problems []string
	s.checkSet(path, value, &problems)
	return NewValidationError(problems)
}

// ValidatePush 校验在 path 下新增一条记录
func (s *SchemaValidator) ValidatePush(path string, value any) error {
	segs := splitPath(path)
	schema, problems := s.lookup(segs)
	if len(problems) > 0 {
		return NewValidationError(problems)
	}
	if len(segs) == 1 {
		if schema.New == nil {
			return NewValidationError([]string{fmt.Sprintf("%s 不支持自动生成 key", schema.Collection)})
		}
		s.checkRecord(schema, value, &problems)
		return NewValidationError(problems)
	}
	// 往记录内部的列表追加
	s.checkSet(path, value, &problems)
	return NewValidationError(problems)
}

// ValidateUpdate 校验字段合并
func (s *SchemaValidator) ValidateUpdate(path string, fields map[string]any) error {
	segs := splitPath(path)
	schema, problems := s.lookup(segs)
	if len(problems) > 0 {
		return NewValidationError(problems)
	}
	if len(segs) == 2 && schema.New != nil {
		s.checkPartial(schema, fields, &problems)
		return NewValidationError(problems)
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		s.checkSet(path+"/"+k, fields[k], &problems)
	}
	return NewValidationError(problems)
}

// ValidateRemove 只要求集合已注册
func (s *SchemaValidator) ValidateRemove(path string) error {
	_, problems := s.lookup(splitPath(path))
	return NewValidationError(problems)
}

// Validate 校验单个结构体（服务层在组装数据后使用）
func (s *SchemaValidator) Validate(v any) error {
	return NewValidationError(s.translate(s.validate.Struct(v), ""))
}

func (s *SchemaValidator) lookup(segs []string) (Schema, []string) {
	if len(segs) == 0 {
		return Schema{}, []string{"不允许写入根节点"}
	}
	schema, ok := LookupSchema(segs[0])
	if !ok {
		return Schema{}, []string{fmt.Sprintf("未知集合: %s", segs[0])}
	}
	return schema, nil
}

func (s *SchemaValidator) checkSet(path string, value any, problems *[]string) {
	segs := splitPath(path)
	schema, ps := s.lookup(segs)
	if len(ps) > 0 {
		*problems = append(*problems, ps...)
		return
	}
	if value == nil {
		return
	}

	switch {
	case len(segs) == 1:
		children, ok := value.(map[string]any)
		if !ok {
			if err := remarshal(value, &children); err != nil {
				*problems = append(*problems, fmt.Sprintf("%s 必须是以 id 为 key 的对象", schema.Collection))
				return
			}
		}
		keys := make([]string, 0, len(children))
		for k := range children {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			s.checkSet(schema.Collection+"/"+k, children[k], problems)
		}
	case len(segs) == 2:
		if schema.New == nil {
			s.checkIndexEntry(schema, segs[1], value, problems)
			return
		}
		s.checkRecord(schema, value, problems)
	default:
		if schema.New == nil {
			*problems = append(*problems, fmt.Sprintf("%s 只能写入字符串值", schema.Collection))
			return
		}
		s.checkPartial(schema, map[string]any{strings.Join(segs[2:], "/"): value}, problems)
	}
}

func (s *SchemaValidator) checkIndexEntry(schema Schema, key string, value any, problems *[]string) {
	if schema.Collection == ColCategorySlugs && !IsSlug(key) {
		*problems = append(*problems, fmt.Sprintf("slug %q 格式不正确", key))
	}
	str, ok := value.(string)
	if !ok || strings.TrimSpace(str) == "" {
		*problems = append(*problems, fmt.Sprintf("%s/%s 必须是非空字符串", schema.Collection, key))
	}
}

func (s *SchemaValidator) checkRecord(schema Schema, value any, problems *[]string) {
	rec := schema.New()
	if err := remarshal(value, rec); err != nil {
		*problems = append(*problems, "字段类型错误: "+jsonProblem(err))
		return
	}
	*problems = append(*problems, s.translate(s.validate.Struct(rec), "")...)
}

// checkPartial 只校验出现的字段；带 "/" 的字段路径只检查顶层字段是否存在
func (s *SchemaValidator) checkPartial(schema Schema, fields map[string]any, problems *[]string) {
	rec := schema.New()
	infos := s.fields[reflect.TypeOf(rec).Elem()]

	plain := make(map[string]any, len(fields))
	var names []string
	var nested []string
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := fields[k]
		top := strings.SplitN(k, "/", 2)[0]
		info, ok := infos[top]
		if !ok {
			*problems = append(*problems, fmt.Sprintf("未知字段: %s", top))
			continue
		}
		if strings.Contains(k, "/") {
			continue
		}
		if v == nil {
			if info.required {
				*problems = append(*problems, fmt.Sprintf("%s 为必填字段，不能删除", k))
			}
			continue
		}
		plain[k] = v
		if !info.embedded {
			names = append(names, info.name)
		}
		if info.nested {
			nested = append(nested, info.name)
		}
	}
	if len(plain) == 0 {
		return
	}

	if err := remarshal(plain, rec); err != nil {
		*problems = append(*problems, "字段类型错误: "+jsonProblem(err))
		return
	}
	if len(names) > 0 {
		*problems = append(*problems, s.translate(s.validate.StructPartial(rec, names...), "")...)
	}

	// StructPartial 不会深入嵌套结构体，单独校验
	rv := reflect.ValueOf(rec).Elem()
	for _, name := range nested {
		fv := rv.FieldByName(name)
		switch fv.Kind() {
		case reflect.Struct:
			*problems = append(*problems, s.translate(s.validate.Struct(fv.Addr().Interface()), jsonName(rv.Type(), name))...)
		case reflect.Slice:
			for i := 0; i < fv.Len(); i++ {
				elem := fv.Index(i)
				if elem.Kind() == reflect.Struct {
					prefix := fmt.Sprintf("%s[%d]", jsonName(rv.Type(), name), i)
					*problems = append(*problems, s.translate(s.validate.Struct(elem.Addr().Interface()), prefix)...)
				}
			}
		}
	}
}

// ==================== 错误信息 ====================

func (s *SchemaValidator) translate(err error, prefix string) []string {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		// 去掉最外层结构体名
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		if prefix != "" {
			field = prefix + "." + field
		}
		out = append(out, describe(field, fe))
	}
	return out
}

func describe(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return fmt.Sprintf("%s 不能为空", field)
	case "email":
		return fmt.Sprintf("%s 邮箱格式不正确", field)
	case "oneof":
		return fmt.Sprintf("%s 必须是 [%s] 之一", field, fe.Param())
	case "gte", "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s 至少需要 %s 项", field, fe.Param())
		}
		return fmt.Sprintf("%s 不能小于 %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s 必须大于 %s", field, fe.Param())
	case "lte", "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s 长度不能超过 %s", field, fe.Param())
		}
		return fmt.Sprintf("%s 不能大于 %s", field, fe.Param())
	case "slug":
		return fmt.Sprintf("%s 只能包含小写字母、数字和连字符", field)
	case "alphanum":
		return fmt.Sprintf("%s 只能包含字母和数字", field)
	default:
		return fmt.Sprintf("%s 校验失败 (%s)", field, fe.Tag())
	}
}

func jsonProblem(err error) string {
	var te *json.UnmarshalTypeError
	if errors.As(err, &te) {
		return fmt.Sprintf("%s 应为 %s", te.Field, te.Type.String())
	}
	return err.Error()
}

func jsonName(t reflect.Type, goName string) string {
	f, ok := t.FieldByName(goName)
	if !ok {
		return goName
	}
	if name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]; name != "" {
		return name
	}
	return goName
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func remarshal(in, out any) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
