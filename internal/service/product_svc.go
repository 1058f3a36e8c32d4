package service

import (
	"context"
	"errors"
	"fmt"
	"shop_admin_v1_202610/internal/api/dto"
	"shop_admin_v1_202610/internal/model"
	"shop_admin_v1_202610/internal/repository"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrStorageDisabled 未配置图片存储
var ErrStorageDisabled = errors.New("未配置图片存储")

// ProductService 商品管理
type ProductService struct {
	products   *repository.CollectionRepository[model.Product, *model.Product]
	categories *repository.CollectionRepository[model.Category, *model.Category]
	brands     *repository.CollectionRepository[model.Brand, *model.Brand]
	tags       *repository.CollectionRepository[model.Tag, *model.Tag]
	vendors    *repository.CollectionRepository[model.Vendor, *model.Vendor]
	storage    *StorageService
	validator  *model.SchemaValidator
	logger     *zap.Logger
}

// NewProductService storage 可以为 nil，此时图片接口返回 ErrStorageDisabled
func NewProductService(reader repository.Reader, writer repository.Mutator, validator *model.SchemaValidator, storage *StorageService, logger *zap.Logger) *ProductService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductService{
		products:   repository.NewCollectionRepository[model.Product, *model.Product](model.ColProducts, reader, writer),
		categories: repository.NewCollectionRepository[model.Category, *model.Category](model.ColCategories, reader, writer),
		brands:     repository.NewCollectionRepository[model.Brand, *model.Brand](model.ColBrands, reader, writer),
		tags:       repository.NewCollectionRepository[model.Tag, *model.Tag](model.ColTags, reader, writer),
		vendors:    repository.NewCollectionRepository[model.Vendor, *model.Vendor](model.ColVendors, reader, writer),
		storage:    storage,
		validator:  validator,
		logger:     logger,
	}
}

// ==================== 查询 ====================

// ListProducts 最新的在前
func (s *ProductService) ListProducts(ctx context.Context, req *dto.ProductListReq) ([]*model.Product, error) {
	list, err := s.products.List(ctx)
	if err != nil {
		return nil, err
	}
	repository.SortByCreatedDesc(list)
	if req == nil {
		return list, nil
	}

	keyword := strings.ToLower(strings.TrimSpace(req.Keyword))
	out := list[:0]
	for _, p := range list {
		if req.VendorID != "" && p.VendorID != req.VendorID {
			continue
		}
		if req.CategoryID != "" && !containsString(p.Categories, req.CategoryID) {
			continue
		}
		if req.Status != "" && p.Status != req.Status {
			continue
		}
		if keyword != "" && !strings.Contains(strings.ToLower(p.Name), keyword) && !strings.Contains(strings.ToLower(p.SKU), keyword) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *ProductService) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	return s.products.Get(ctx, id)
}

// ProductDetail 并发读取关联集合，把 id 解析为名称
func (s *ProductService) ProductDetail(ctx context.Context, id string) (*dto.ProductDetailResp, error) {
	p, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := &dto.ProductDetailResp{
		Product:        p,
		TotalStock:     p.TotalStock(),
		EffectivePrice: effectivePrice(p),
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		list, err := s.categories.List(gctx)
		if err != nil {
			return err
		}
		names := make(map[string]string, len(list))
		for _, c := range list {
			names[c.ID] = c.Name
		}
		resp.CategoryRefs = resolveRefs(p.Categories, names)
		return nil
	})
	g.Go(func() error {
		list, err := s.brands.List(gctx)
		if err != nil {
			return err
		}
		names := make(map[string]string, len(list))
		for _, b := range list {
			names[b.ID] = b.Name
		}
		resp.BrandRefs = resolveRefs(p.Brands, names)
		return nil
	})
	g.Go(func() error {
		list, err := s.tags.List(gctx)
		if err != nil {
			return err
		}
		names := make(map[string]string, len(list))
		for _, t := range list {
			names[t.ID] = t.Name
		}
		resp.TagRefs = resolveRefs(p.Tags, names)
		return nil
	})
	g.Go(func() error {
		vendor, err := s.vendors.Get(gctx, p.VendorID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		resp.VendorName = vendor.Name
		if vendor.StoreName != "" {
			resp.VendorName = vendor.StoreName
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return resp, nil
}

// ==================== 写入 ====================

func (s *ProductService) CreateProduct(ctx context.Context, req *dto.ProductReq) (*model.Product, error) {
	p := &model.Product{
		VendorID:         strings.TrimSpace(req.VendorID),
		Name:             strings.TrimSpace(req.Name),
		Slug:             pickSlug(req.Slug, req.Name),
		ShortDescription: strings.TrimSpace(req.ShortDescription),
		Description:      req.Description,
		SKU:              strings.TrimSpace(req.SKU),
		Price:            req.Price,
		SalePrice:        req.SalePrice,
		StockQuantity:    req.StockQuantity,
		Categories:       req.Categories,
		Brands:           req.Brands,
		Tags:             req.Tags,
		Images:           req.Images,
		InventoryType:    req.InventoryType,
		VariableOptions:  req.VariableOptions,
		Status:           req.Status,
	}
	if p.InventoryType == "" {
		p.InventoryType = model.InventorySimple
	}
	if p.Status == "" {
		p.Status = "draft"
	}
	if err := s.checkProduct(ctx, p); err != nil {
		return nil, err
	}
	if _, err := s.products.Create(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("[Product] 创建商品", zap.String("product_id", p.ID), zap.String("vendor_id", p.VendorID))
	return p, nil
}

// UpdateProduct 只写入请求中出现的字段，但按合并后的完整记录校验
func (s *ProductService) UpdateProduct(ctx context.Context, id string, req *dto.UpdateProductReq) (*model.Product, error) {
	p, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	setString := func(key string, src *string, dst *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
			fields[key] = *dst
		}
	}
	setString("vendorId", req.VendorID, &p.VendorID)
	setString("name", req.Name, &p.Name)
	setString("slug", req.Slug, &p.Slug)
	setString("shortDescription", req.ShortDescription, &p.ShortDescription)
	setString("description", req.Description, &p.Description)
	setString("sku", req.SKU, &p.SKU)
	setString("inventoryType", req.InventoryType, &p.InventoryType)
	setString("status", req.Status, &p.Status)
	if req.Price != nil {
		p.Price = *req.Price
		fields["price"] = p.Price
	}
	if req.SalePrice != nil {
		p.SalePrice = *req.SalePrice
		fields["salePrice"] = p.SalePrice
	}
	if req.StockQuantity != nil {
		p.StockQuantity = *req.StockQuantity
		fields["stockQuantity"] = p.StockQuantity
	}
	if req.Categories != nil {
		p.Categories = *req.Categories
		fields["categories"] = listOrNil(p.Categories)
	}
	if req.Brands != nil {
		p.Brands = *req.Brands
		fields["brands"] = listOrNil(p.Brands)
	}
	if req.Tags != nil {
		p.Tags = *req.Tags
		fields["tags"] = listOrNil(p.Tags)
	}
	if req.VariableOptions != nil {
		p.VariableOptions = *req.VariableOptions
		if len(p.VariableOptions) == 0 {
			fields["variableOptions"] = nil
		} else {
			fields["variableOptions"] = p.VariableOptions
		}
	}
	if len(fields) == 0 {
		return p, nil
	}

	if err := s.checkProduct(ctx, p); err != nil {
		return nil, err
	}
	if err := s.products.Update(ctx, id, fields); err != nil {
		return nil, err
	}
	return p, nil
}

// DeleteProduct 删除记录后清理已上传的图片，清理失败只记录日志
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	p, err := s.products.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	for _, url := range p.Images {
		s.dropImage(ctx, id, url)
	}
	return nil
}

// ==================== 图片 ====================

// AddImage 上传图片并追加到 images
func (s *ProductService) AddImage(ctx context.Context, id string, data []byte, filename string) (*model.Product, error) {
	if s.storage == nil {
		return nil, ErrStorageDisabled
	}
	p, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	url, err := s.storage.UploadImage(ctx, data, filename)
	if err != nil {
		return nil, err
	}
	return s.appendImage(ctx, p, url)
}

// AddImageFromURL 下载外部图片后保存到自有存储
func (s *ProductService) AddImageFromURL(ctx context.Context, id, sourceURL string) (*model.Product, error) {
	if s.storage == nil {
		return nil, ErrStorageDisabled
	}
	p, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	url, err := s.storage.UploadImageFromURL(ctx, sourceURL)
	if err != nil {
		return nil, err
	}
	return s.appendImage(ctx, p, url)
}

// RemoveImage 从 images 中移除并删除存储中的文件
func (s *ProductService) RemoveImage(ctx context.Context, id, url string) (*model.Product, error) {
	p, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !containsString(p.Images, url) {
		return nil, fmt.Errorf("图片: %w", repository.ErrNotFound)
	}
	p.Images = removeString(p.Images, url)
	if err := s.products.Update(ctx, id, map[string]any{"images": listOrNil(p.Images)}); err != nil {
		return nil, err
	}
	s.dropImage(ctx, id, url)
	return p, nil
}

func (s *ProductService) appendImage(ctx context.Context, p *model.Product, url string) (*model.Product, error) {
	images := append(append([]string{}, p.Images...), url)
	if err := s.products.Update(ctx, p.ID, map[string]any{"images": images}); err != nil {
		// 记录没写进去，刚上传的文件不再有引用
		s.dropImage(ctx, p.ID, url)
		return nil, err
	}
	p.Images = images
	return p, nil
}

func (s *ProductService) dropImage(ctx context.Context, productID, url string) {
	if s.storage == nil {
		return
	}
	if err := s.storage.Delete(ctx, url); err != nil {
		s.logger.Warn("[Product] 删除图片失败", zap.String("product_id", productID), zap.String("url", url), zap.Error(err))
	}
}

// ==================== 辅助方法 ====================

// checkProduct 结构校验，商家必须存在
func (s *ProductService) checkProduct(ctx context.Context, p *model.Product) error {
	if err := s.validator.Validate(p); err != nil {
		return err
	}
	ok, err := s.vendors.Exists(ctx, p.VendorID)
	if err != nil {
		return err
	}
	if !ok {
		return model.NewValidationError([]string{"所属商家不存在"})
	}
	return nil
}

// effectivePrice 有促销价时取促销价
func effectivePrice(p *model.Product) float64 {
	if p.SalePrice > 0 && p.SalePrice < p.Price {
		return p.SalePrice
	}
	return p.Price
}

func resolveRefs(ids []string, names map[string]string) []dto.NamedRef {
	out := make([]dto.NamedRef, 0, len(ids))
	for _, id := range ids {
		out = append(out, dto.NamedRef{ID: id, Name: names[id]})
	}
	return out
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// listOrNil 空列表写入 nil，对应删除该字段
func listOrNil(list []string) any {
	if len(list) == 0 {
		return nil
	}
	return list
}
