package service

import (
	"context"
	"encoding/json"
	"fmt"
	"shop_admin_v1_202610/internal/model"
	"shop_admin_v1_202610/internal/repository"
	"strings"

	"go.uber.org/zap"
)

// CatalogService 结构简单的基础资料集合（品牌、标签、属性、FAQ、评价、优惠券、税率、角色、商家）
type CatalogService[T any, P repository.RecordPtr[T]] struct {
	repo      *repository.CollectionRepository[T, P]
	validator *model.SchemaValidator
	unique    []uniqueField[P]
	guards    []func(ctx context.Context, id string) error
	logger    *zap.Logger
}

type uniqueField[P any] struct {
	label string
	key   func(P) string
}

// CatalogOption 集合的附加约束
type CatalogOption[T any, P repository.RecordPtr[T]] func(*CatalogService[T, P])

// WithUnique key 返回值（忽略大小写）在集合内唯一，空值不参与比较
func WithUnique[T any, P repository.RecordPtr[T]](label string, key func(P) string) CatalogOption[T, P] {
	return func(s *CatalogService[T, P]) {
		s.unique = append(s.unique, uniqueField[P]{label: label, key: key})
	}
}

// WithDeleteGuard 删除前检查，返回错误时拒绝删除
func WithDeleteGuard[T any, P repository.RecordPtr[T]](guard func(ctx context.Context, id string) error) CatalogOption[T, P] {
	return func(s *CatalogService[T, P]) {
		s.guards = append(s.guards, guard)
	}
}

func NewCatalogService[T any, P repository.RecordPtr[T]](collection string, reader repository.Reader, writer repository.Mutator, validator *model.SchemaValidator, logger *zap.Logger, opts ...CatalogOption[T, P]) *CatalogService[T, P] {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &CatalogService[T, P]{
		repo:      repository.NewCollectionRepository[T, P](collection, reader, writer),
		validator: validator,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *CatalogService[T, P]) Collection() string {
	return s.repo.Collection()
}

// List 最新的在前
func (s *CatalogService[T, P]) List(ctx context.Context) ([]P, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	repository.SortByCreatedDesc(list)
	return list, nil
}

func (s *CatalogService[T, P]) Get(ctx context.Context, id string) (P, error) {
	return s.repo.Get(ctx, id)
}

func (s *CatalogService[T, P]) Create(ctx context.Context, rec P) (P, error) {
	rec.SetID("")
	if err := s.validator.Validate(rec); err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, "", rec); err != nil {
		return nil, err
	}
	if _, err := s.repo.Create(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Update 合并字段后按完整记录校验，只写入 fields 中的字段
func (s *CatalogService[T, P]) Update(ctx context.Context, id string, fields map[string]any) (P, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	delete(fields, "id")
	delete(fields, "createdAt")
	delete(fields, "updatedAt")
	if len(fields) == 0 {
		return rec, nil
	}

	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, rec); err != nil {
		return nil, model.NewValidationError([]string{"字段类型错误: " + err.Error()})
	}
	rec.SetID(id)
	if err := s.validator.Validate(rec); err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, id, rec); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, id, fields); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *CatalogService[T, P]) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	for _, guard := range s.guards {
		if err := guard(ctx, id); err != nil {
			return err
		}
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("[Catalog] 删除记录", zap.String("collection", s.repo.Collection()), zap.String("id", id))
	return nil
}

func (s *CatalogService[T, P]) checkUnique(ctx context.Context, selfID string, rec P) error {
	if len(s.unique) == 0 {
		return nil
	}
	list, err := s.repo.List(ctx)
	if err != nil {
		return err
	}
	var problems []string
	for _, u := range s.unique {
		want := strings.TrimSpace(u.key(rec))
		if want == "" {
			continue
		}
		for _, other := range list {
			if other.GetID() != selfID && strings.EqualFold(strings.TrimSpace(u.key(other)), want) {
				problems = append(problems, fmt.Sprintf("%s %s 已存在", u.label, want))
				break
			}
		}
	}
	return model.NewValidationError(problems)
}

// ==================== 各集合的约束 ====================

// Catalogs 后台基础资料集合
type Catalogs struct {
	Brands       *CatalogService[model.Brand, *model.Brand]
	Tags         *CatalogService[model.Tag, *model.Tag]
	Attributes   *CatalogService[model.Attribute, *model.Attribute]
	FAQs         *CatalogService[model.FAQ, *model.FAQ]
	Testimonials *CatalogService[model.Testimonial, *model.Testimonial]
	Coupons      *CatalogService[model.Coupon, *model.Coupon]
	Taxes        *CatalogService[model.Tax, *model.Tax]
	Roles        *CatalogService[model.Role, *model.Role]
	Vendors      *CatalogService[model.Vendor, *model.Vendor]
}

// NewCatalogs 创建全部基础资料服务
// 仍被商品或商家账号引用的商家不能删除
func NewCatalogs(reader repository.Reader, writer repository.Mutator, validator *model.SchemaValidator, logger *zap.Logger) *Catalogs {
	products := repository.NewCollectionRepository[model.Product, *model.Product](model.ColProducts, reader, writer)
	users := repository.NewCollectionRepository[model.User, *model.User](model.ColUsers, reader, writer)

	vendorInUse := func(ctx context.Context, id string) error {
		list, err := products.List(ctx)
		if err != nil {
			return err
		}
		for _, p := range list {
			if p.VendorID == id {
				return model.NewValidationError([]string{"该商家仍有商品，不能删除"})
			}
		}
		accounts, err := users.List(ctx)
		if err != nil {
			return err
		}
		for _, u := range accounts {
			if u.VendorID == id {
				return model.NewValidationError([]string{"该商家仍关联用户账号，不能删除"})
			}
		}
		return nil
	}

	return &Catalogs{
		Brands: NewCatalogService[model.Brand, *model.Brand](model.ColBrands, reader, writer, validator, logger,
			WithUnique[model.Brand, *model.Brand]("品牌", func(b *model.Brand) string { return b.Name })),
		Tags: NewCatalogService[model.Tag, *model.Tag](model.ColTags, reader, writer, validator, logger,
			WithUnique[model.Tag, *model.Tag]("标签", func(t *model.Tag) string { return t.Name })),
		Attributes: NewCatalogService[model.Attribute, *model.Attribute](model.ColAttributes, reader, writer, validator, logger,
			WithUnique[model.Attribute, *model.Attribute]("属性", func(a *model.Attribute) string { return a.Name })),
		FAQs:         NewCatalogService[model.FAQ, *model.FAQ](model.ColFAQs, reader, writer, validator, logger),
		Testimonials: NewCatalogService[model.Testimonial, *model.Testimonial](model.ColTestimonials, reader, writer, validator, logger),
		Coupons: NewCatalogService[model.Coupon, *model.Coupon](model.ColCoupons, reader, writer, validator, logger,
			WithUnique[model.Coupon, *model.Coupon]("优惠码", func(c *model.Coupon) string { return c.Code })),
		Taxes: NewCatalogService[model.Tax, *model.Tax](model.ColTaxes, reader, writer, validator, logger),
		Roles: NewCatalogService[model.Role, *model.Role](model.ColRoles, reader, writer, validator, logger,
			WithUnique[model.Role, *model.Role]("角色", func(r *model.Role) string { return r.Name })),
		Vendors: NewCatalogService[model.Vendor, *model.Vendor](model.ColVendors, reader, writer, validator, logger,
			WithUnique[model.Vendor, *model.Vendor]("商家邮箱", func(v *model.Vendor) string { return v.Email }),
			WithDeleteGuard[model.Vendor, *model.Vendor](vendorInUse)),
	}
}
