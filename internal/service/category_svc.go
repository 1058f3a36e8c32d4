package service

import (
	"context"
	"fmt"
	"shop_admin_v1_202610/internal/api/dto"
	"shop_admin_v1_202610/internal/model"
	"shop_admin_v1_202610/internal/repository"
	"shop_admin_v1_202610/pkg/rtdb"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// CategoryService 分类与子分类
// categorySlugs 索引保存 slug -> 分类 id，分类自身和子分类的 slug 都登记在内，全局唯一
type CategoryService struct {
	categories *repository.CollectionRepository[model.Category, *model.Category]
	products   *repository.CollectionRepository[model.Product, *model.Product]
	reader     repository.Reader
	writer     repository.Mutator
	keys       rtdb.KeyGenerator
	logger     *zap.Logger
}

func NewCategoryService(reader repository.Reader, writer repository.Mutator, logger *zap.Logger) *CategoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CategoryService{
		categories: repository.NewCollectionRepository[model.Category, *model.Category](model.ColCategories, reader, writer),
		products:   repository.NewCollectionRepository[model.Product, *model.Product](model.ColProducts, reader, writer),
		reader:     reader,
		writer:     writer,
		keys:       rtdb.NewKeyGenerator(),
		logger:     logger,
	}
}

// Slugify 名称转 slug：小写字母和数字保留，其余连续字符折叠为一个连字符
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// ==================== 查询 ====================

// ListCategories 按名称排序
func (s *CategoryService) ListCategories(ctx context.Context) ([]*model.Category, error) {
	list, err := s.categories.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool { return normalizeName(list[i].Name) < normalizeName(list[j].Name) })
	return list, nil
}

func (s *CategoryService) GetCategory(ctx context.Context, id string) (*model.Category, error) {
	return s.categories.Get(ctx, id)
}

// GetBySlug 通过索引查找分类；slug 属于子分类时同时返回该子分类
func (s *CategoryService) GetBySlug(ctx context.Context, slug string) (*model.Category, *model.SubCategory, error) {
	owner, ok, err := s.slugOwner(ctx, slug)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, repository.ErrNotFound
	}
	cat, err := s.categories.Get(ctx, owner)
	if err != nil {
		return nil, nil, err
	}
	if cat.Slug == slug {
		return cat, nil, nil
	}
	for i := range cat.SubCategories {
		if cat.SubCategories[i].Slug == slug {
			return cat, &cat.SubCategories[i], nil
		}
	}
	// 索引与记录不一致
	return nil, nil, repository.ErrNotFound
}

// ==================== 分类 ====================

// CreateCategory 分类记录和 slug 索引一次批量写入
func (s *CategoryService) CreateCategory(ctx context.Context, req *dto.CategoryReq) (*model.Category, error) {
	cat := &model.Category{
		Name:        strings.TrimSpace(req.Name),
		Slug:        pickSlug(req.Slug, req.Name),
		Description: req.Description,
		Image:       req.Image,
	}
	if err := s.checkSlugFree(ctx, cat.Slug); err != nil {
		return nil, err
	}

	id := s.keys.NewKey()
	cat.Touch(model.NowMillis(), true)
	values, err := s.categories.Values(cat)
	if err != nil {
		return nil, err
	}
	updates := map[string]any{
		s.categories.Path(id): values,
		slugPath(cat.Slug):    id,
	}
	if _, err := s.writer.Batch(ctx, updates); err != nil {
		return nil, err
	}
	cat.SetID(id)
	return cat, nil
}

// UpdateCategory 修改基本信息，slug 变化时同步索引；子分类不变
func (s *CategoryService) UpdateCategory(ctx context.Context, id string, req *dto.CategoryReq) (*model.Category, error) {
	cat, err := s.categories.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	oldSlug := cat.Slug
	cat.Name = strings.TrimSpace(req.Name)
	cat.Slug = pickSlug(req.Slug, req.Name)
	cat.Description = req.Description
	cat.Image = req.Image

	updates := map[string]any{}
	if cat.Slug != oldSlug {
		if err := s.checkSlugFree(ctx, cat.Slug); err != nil {
			return nil, err
		}
		if model.IsSlug(oldSlug) {
			updates[slugPath(oldSlug)] = nil
		}
	}
	if model.IsSlug(cat.Slug) {
		updates[slugPath(cat.Slug)] = id
	}
	if err := s.putRecord(ctx, cat, updates); err != nil {
		return nil, err
	}
	return cat, nil
}

// DeleteCategory 删除分类及其全部 slug，并从商品的 categories 中移除该 id
func (s *CategoryService) DeleteCategory(ctx context.Context, id string) error {
	cat, err := s.categories.Get(ctx, id)
	if err != nil {
		return err
	}
	products, err := s.products.List(ctx)
	if err != nil {
		return err
	}

	updates := map[string]any{s.categories.Path(id): nil}
	for _, slug := range categorySlugs(cat) {
		if model.IsSlug(slug) {
			updates[slugPath(slug)] = nil
		}
	}
	for _, p := range products {
		kept := removeString(p.Categories, id)
		if len(kept) == len(p.Categories) {
			continue
		}
		if len(kept) == 0 {
			updates[s.products.Path(p.ID)+"/categories"] = nil
		} else {
			updates[s.products.Path(p.ID)+"/categories"] = kept
		}
	}
	if _, err := s.writer.Batch(ctx, updates); err != nil {
		return err
	}
	s.logger.Info("[Category] 删除分类", zap.String("category_id", id), zap.Int("paths", len(updates)))
	return nil
}

// ==================== 子分类 ====================

// AddSubCategory 重写父分类记录并登记 slug（一次批量写入）
func (s *CategoryService) AddSubCategory(ctx context.Context, id string, req *dto.SubCategoryReq) (*model.Category, error) {
	cat, err := s.categories.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	sub := model.SubCategory{Name: strings.TrimSpace(req.Name), Slug: pickSlug(req.Slug, req.Name)}
	if err := s.checkSlugFree(ctx, sub.Slug); err != nil {
		return nil, err
	}
	for _, existing := range categorySlugs(cat) {
		if existing == sub.Slug {
			return nil, slugTaken(sub.Slug)
		}
	}

	cat.SubCategories = append(cat.SubCategories, sub)
	if err := s.putRecord(ctx, cat, map[string]any{slugPath(sub.Slug): id}); err != nil {
		return nil, err
	}
	return cat, nil
}

// RemoveSubCategory 按 slug 移除子分类
func (s *CategoryService) RemoveSubCategory(ctx context.Context, id, slug string) (*model.Category, error) {
	cat, err := s.categories.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	idx := -1
	for i, sub := range cat.SubCategories {
		if sub.Slug == slug {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("子分类 %s: %w", slug, repository.ErrNotFound)
	}

	cat.SubCategories = append(cat.SubCategories[:idx:idx], cat.SubCategories[idx+1:]...)
	updates := map[string]any{}
	if model.IsSlug(slug) {
		updates[slugPath(slug)] = nil
	}
	if err := s.putRecord(ctx, cat, updates); err != nil {
		return nil, err
	}
	return cat, nil
}

// ==================== 索引维护 ====================

// RebuildSlugIndex 按分类记录重建 categorySlugs，返回登记数和冲突的 slug
// 按 id 顺序先到先得
func (s *CategoryService) RebuildSlugIndex(ctx context.Context) (int, []string, error) {
	list, err := s.categories.List(ctx)
	if err != nil {
		return 0, nil, err
	}
	index := map[string]any{}
	var conflicts []string
	for _, cat := range list {
		for _, slug := range categorySlugs(cat) {
			if !model.IsSlug(slug) {
				conflicts = append(conflicts, slug)
				continue
			}
			if _, dup := index[slug]; dup {
				conflicts = append(conflicts, slug)
				continue
			}
			index[slug] = cat.ID
		}
	}

	var value any = index
	if len(index) == 0 {
		value = nil
	}
	if _, err := s.writer.Batch(ctx, map[string]any{model.ColCategorySlugs: value}); err != nil {
		return 0, nil, err
	}
	if len(conflicts) > 0 {
		s.logger.Warn("[Category] slug 冲突", zap.Strings("slugs", conflicts))
	}
	return len(index), conflicts, nil
}

// ==================== 辅助方法 ====================

// putRecord 整条重写分类记录，和 extra 中的索引变更放在同一批次
func (s *CategoryService) putRecord(ctx context.Context, cat *model.Category, extra map[string]any) error {
	cat.Touch(model.NowMillis(), false)
	values, err := s.categories.Values(cat)
	if err != nil {
		return err
	}
	updates := map[string]any{s.categories.Path(cat.ID): values}
	for k, v := range extra {
		updates[k] = v
	}
	_, err = s.writer.Batch(ctx, updates)
	return err
}

func (s *CategoryService) slugOwner(ctx context.Context, slug string) (string, bool, error) {
	if !model.IsSlug(slug) {
		return "", false, nil
	}
	snap, err := s.reader.Get(ctx, slugPath(slug))
	if err != nil {
		return "", false, err
	}
	owner, _ := snap.Value.(string)
	return owner, owner != "", nil
}

// checkSlugFree 检查格式并确认索引中未被占用
func (s *CategoryService) checkSlugFree(ctx context.Context, slug string) error {
	if !model.IsSlug(slug) {
		return model.NewValidationError([]string{fmt.Sprintf("slug %q 格式不正确，只能包含小写字母、数字和连字符", slug)})
	}
	if _, ok, err := s.slugOwner(ctx, slug); err != nil {
		return err
	} else if ok {
		return slugTaken(slug)
	}
	return nil
}

func slugTaken(slug string) error {
	return model.NewValidationError([]string{fmt.Sprintf("slug %s 已被使用", slug)})
}

func slugPath(slug string) string {
	return model.ColCategorySlugs + "/" + slug
}

func pickSlug(slug, name string) string {
	if slug = strings.TrimSpace(slug); slug != "" {
		return slug
	}
	return Slugify(name)
}

func categorySlugs(cat *model.Category) []string {
	out := make([]string, 0, len(cat.SubCategories)+1)
	if cat.Slug != "" {
		out = append(out, cat.Slug)
	}
	for _, sub := range cat.SubCategories {
		if sub.Slug != "" {
			out = append(out, sub.Slug)
		}
	}
	return out
}

func removeString(list []string, v string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}
