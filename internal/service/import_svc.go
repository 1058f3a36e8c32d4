package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"shop_admin_v1_202610/internal/api/dto"
	"shop_admin_v1_202610/internal/model"
	"shop_admin_v1_202610/internal/repository"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// ImportRequiredColumns 商品 CSV 必须包含的列
var ImportRequiredColumns = []string{
	"vendorId", "name", "slug", "shortDescription", "sku", "price", "stockQuantity", "categoryId",
}

// ErrImportHeader 表头缺失或缺少必需列，整个文件不处理
var ErrImportHeader = errors.New("CSV 表头不正确")

// ImportService 商品 CSV 批量导入
type ImportService struct {
	products  *repository.CollectionRepository[model.Product, *model.Product]
	validator *model.SchemaValidator
	logger    *zap.Logger
}

func NewImportService(reader repository.Reader, writer repository.Mutator, validator *model.SchemaValidator, logger *zap.Logger) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{
		products:  repository.NewCollectionRepository[model.Product, *model.Product](model.ColProducts, reader, writer),
		validator: validator,
		logger:    logger,
	}
}

// ImportProducts 逐行创建商品
// 错误信息中的行号为文件行号：表头是第 1 行，第一条数据是第 2 行
func (s *ImportService) ImportProducts(ctx context.Context, r io.Reader) (*dto.ImportResp, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: 文件为空", ErrImportHeader)
		}
		return nil, fmt.Errorf("%w: %v", ErrImportHeader, err)
	}
	columns, err := indexColumns(header)
	if err != nil {
		return nil, err
	}

	resp := &dto.ImportResp{Errors: []string{}}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// 单行格式错误不影响后续行
			line := 0
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				line = pe.StartLine
			}
			resp.Failed++
			resp.Errors = append(resp.Errors, fmt.Sprintf("第 %d 行: 格式错误: %v", line, err))
			continue
		}
		if isBlankRecord(record) {
			continue
		}
		// 按文件中的物理行号报告，空行和引号内换行都计入
		row, _ := reader.FieldPos(0)

		id, err := s.importRow(ctx, columns, record)
		if err != nil {
			resp.Failed++
			resp.Errors = append(resp.Errors, fmt.Sprintf("第 %d 行: %s", row, rowProblem(err)))
			continue
		}
		resp.Created++
		resp.CreatedIDs = append(resp.CreatedIDs, id)
	}

	s.logger.Info("[Import] 商品导入完成",
		zap.Int("created", resp.Created),
		zap.Int("failed", resp.Failed))
	return resp, nil
}

func (s *ImportService) importRow(ctx context.Context, columns map[string]int, record []string) (string, error) {
	get := func(col string) string {
		i, ok := columns[strings.ToLower(col)]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var problems []string
	for _, col := range ImportRequiredColumns {
		if get(col) == "" {
			problems = append(problems, col+" 不能为空")
		}
	}
	if len(problems) > 0 {
		return "", model.NewValidationError(problems)
	}

	price, err := strconv.ParseFloat(get("price"), 64)
	if err != nil {
		problems = append(problems, "price 不是有效数字")
	}
	stock, err := strconv.Atoi(get("stockQuantity"))
	if err != nil {
		problems = append(problems, "stockQuantity 不是有效整数")
	}
	var salePrice float64
	if v := get("salePrice"); v != "" {
		if salePrice, err = strconv.ParseFloat(v, 64); err != nil {
			problems = append(problems, "salePrice 不是有效数字")
		}
	}
	if len(problems) > 0 {
		return "", model.NewValidationError(problems)
	}

	product := &model.Product{
		VendorID:         get("vendorId"),
		Name:             get("name"),
		Slug:             get("slug"),
		ShortDescription: get("shortDescription"),
		Description:      get("description"),
		SKU:              get("sku"),
		Price:            price,
		SalePrice:        salePrice,
		StockQuantity:    stock,
		Categories:       []string{get("categoryId")},
		Brands:           splitList(get("brandId")),
		Tags:             splitList(get("tags")),
		Images:           splitList(get("images")),
		InventoryType:    model.InventorySimple,
		Status:           "published",
	}
	if err := s.validator.Validate(product); err != nil {
		return "", err
	}
	return s.products.Create(ctx, product)
}

// indexColumns 表头名忽略大小写，允许多余的列
func indexColumns(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := columns[name]; !dup && name != "" {
			columns[name] = i
		}
	}
	var missing []string
	for _, col := range ImportRequiredColumns {
		if _, ok := columns[strings.ToLower(col)]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: 缺少列 %s", ErrImportHeader, strings.Join(missing, ", "))
	}
	return columns, nil
}

func isBlankRecord(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// splitList 多个值用 | 或 ; 分隔
func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.FieldsFunc(v, func(r rune) bool { return r == '|' || r == ';' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func rowProblem(err error) string {
	var ve *model.ValidationError
	if errors.As(err, &ve) {
		return strings.Join(ve.Problems, "; ")
	}
	return err.Error()
}
