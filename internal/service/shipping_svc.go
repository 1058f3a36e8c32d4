package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"shop_admin_v1_202610/internal/api/dto"
	"shop_admin_v1_202610/internal/model"
	"shop_admin_v1_202610/internal/repository"
	"shop_admin_v1_202610/pkg/rtdb"
	"sort"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// ==================== 名称查找（纯函数） ====================

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func sameName(a, b string) bool {
	return normalizeName(a) == normalizeName(b)
}

// FindCountryByName 按名称查找国家，忽略大小写，重名时返回第一个
func FindCountryByName(countries []*model.Country, name string) (*model.Country, bool) {
	for _, c := range countries {
		if c != nil && sameName(c.Name, name) {
			return c, true
		}
	}
	return nil, false
}

// FindStateByName 只在 countryID 下查找，避免不同国家的同名州互相误匹配
func FindStateByName(states []*model.State, countryID, name string) (*model.State, bool) {
	for _, s := range states {
		if s != nil && s.CountryID == countryID && sameName(s.Name, name) {
			return s, true
		}
	}
	return nil, false
}

// FindCityByName 只在 stateID 下查找
func FindCityByName(cities []*model.City, stateID, name string) (*model.City, bool) {
	for _, c := range cities {
		if c != nil && c.StateID == stateID && sameName(c.Name, name) {
			return c, true
		}
	}
	return nil, false
}

// GetShippingPrice 逐级解析国家/州/城市，返回城市的默认运费
// 任一级找不到返回 (0, false)
func GetShippingPrice(countries []*model.Country, states []*model.State, cities []*model.City, countryName, stateName, cityName string) (float64, bool) {
	country, ok := FindCountryByName(countries, countryName)
	if !ok {
		return 0, false
	}
	state, ok := FindStateByName(states, country.ID, stateName)
	if !ok {
		return 0, false
	}
	city, ok := FindCityByName(cities, state.ID, cityName)
	if !ok {
		return 0, false
	}
	return city.DefaultPrice, true
}

// GroupShippingRulesByLocation 旧版平铺规则转为 国家 -> 州 -> 城市 -> 运费
// 重复的 (国家, 州, 城市) 以后出现的为准
func GroupShippingRulesByLocation(rules []model.LegacyShippingRule) model.LegacyShippingTree {
	tree := make(model.LegacyShippingTree)
	for _, r := range rules {
		states, ok := tree[r.Country]
		if !ok {
			states = make(map[string]map[string]float64)
			tree[r.Country] = states
		}
		cities, ok := states[r.State]
		if !ok {
			cities = make(map[string]float64)
			states[r.State] = cities
		}
		cities[r.City] = r.Price
	}
	return tree
}

// ==================== 表单校验（纯函数） ====================

// ValidateCountryForm 返回空列表表示通过
func ValidateCountryForm(c *model.Country) []string {
	var problems []string
	if strings.TrimSpace(c.Name) == "" {
		problems = append(problems, "国家名称不能为空")
	}
	return problems
}

func ValidateStateForm(s *model.State) []string {
	var problems []string
	if strings.TrimSpace(s.Name) == "" {
		problems = append(problems, "州/省名称不能为空")
	}
	if strings.TrimSpace(s.CountryID) == "" {
		problems = append(problems, "请选择所属国家")
	}
	return problems
}

func ValidateCityForm(c *model.City) []string {
	var problems []string
	if strings.TrimSpace(c.Name) == "" {
		problems = append(problems, "城市名称不能为空")
	}
	if strings.TrimSpace(c.StateID) == "" {
		problems = append(problems, "请选择所属州/省")
	}
	if c.DefaultPrice < 0 || math.IsNaN(c.DefaultPrice) {
		problems = append(problems, "运费不能小于 0")
	}
	return problems
}

// ==================== GeoIndex ====================

// GeoIndex 名称 -> id 的只读索引
// 订阅 countries/states/cities 三个集合，任一快照变化时整体重建
type GeoIndex struct {
	countries *rtdb.Binding[[]*model.Country]
	states    *rtdb.Binding[[]*model.State]
	cities    *rtdb.Binding[[]*model.City]

	mu         sync.RWMutex
	countryIDs map[string]string      // 名称 -> 国家 id
	stateIDs   map[string]string      // 国家 id + 名称 -> 州 id
	cityIndex  map[string]*model.City // 州 id + 名称 -> 城市
	err        error
}

// NewGeoIndex 创建索引并订阅三个集合
func NewGeoIndex(db *rtdb.Database) (*GeoIndex, error) {
	g := &GeoIndex{}
	var err error

	g.countries, err = rtdb.Bind[[]*model.Country](db, model.ColCountries, repository.DecodeList[model.Country, *model.Country])
	if err != nil {
		return nil, err
	}
	g.states, err = rtdb.Bind[[]*model.State](db, model.ColStates, repository.DecodeList[model.State, *model.State])
	if err != nil {
		g.Close()
		return nil, err
	}
	g.cities, err = rtdb.Bind[[]*model.City](db, model.ColCities, repository.DecodeList[model.City, *model.City])
	if err != nil {
		g.Close()
		return nil, err
	}

	g.countries.OnChange(func(rtdb.State[[]*model.Country]) { g.rebuild() })
	g.states.OnChange(func(rtdb.State[[]*model.State]) { g.rebuild() })
	g.cities.OnChange(func(rtdb.State[[]*model.City]) { g.rebuild() })
	// 注册回调之前可能已经收到首个快照
	g.rebuild()
	return g, nil
}

// Wait 等待三个集合的首个快照
func (g *GeoIndex) Wait(ctx context.Context) error {
	if err := g.countries.Wait(ctx); err != nil {
		return err
	}
	if err := g.states.Wait(ctx); err != nil {
		return err
	}
	return g.cities.Wait(ctx)
}

// Close 释放订阅
func (g *GeoIndex) Close() {
	if g.countries != nil {
		g.countries.Close()
	}
	if g.states != nil {
		g.states.Close()
	}
	if g.cities != nil {
		g.cities.Close()
	}
}

// Price 按名称查运费
func (g *GeoIndex) Price(countryName, stateName, cityName string) (float64, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	countryID, ok := g.countryIDs[normalizeName(countryName)]
	if !ok {
		return 0, false
	}
	stateID, ok := g.stateIDs[scopedKey(countryID, stateName)]
	if !ok {
		return 0, false
	}
	city, ok := g.cityIndex[scopedKey(stateID, cityName)]
	if !ok {
		return 0, false
	}
	return city.DefaultPrice, true
}

// Err 最近一次订阅错误
func (g *GeoIndex) Err() error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.err
}

// rebuild 全程持有写锁，后一次重建总是读到最新的三个状态
func (g *GeoIndex) rebuild() {
	g.mu.Lock()
	defer g.mu.Unlock()

	cs, ss, ci := g.countries.State(), g.states.State(), g.cities.State()

	countryIDs := make(map[string]string, len(cs.Data))
	for _, c := range cs.Data {
		k := normalizeName(c.Name)
		if _, dup := countryIDs[k]; !dup {
			countryIDs[k] = c.ID
		}
	}
	stateIDs := make(map[string]string, len(ss.Data))
	for _, s := range ss.Data {
		k := scopedKey(s.CountryID, s.Name)
		if _, dup := stateIDs[k]; !dup {
			stateIDs[k] = s.ID
		}
	}
	cityIndex := make(map[string]*model.City, len(ci.Data))
	for _, c := range ci.Data {
		k := scopedKey(c.StateID, c.Name)
		if _, dup := cityIndex[k]; !dup {
			cityIndex[k] = c
		}
	}

	var err error
	for _, e := range []error{cs.Err, ss.Err, ci.Err} {
		if e != nil {
			err = e
			break
		}
	}

	g.countryIDs = countryIDs
	g.stateIDs = stateIDs
	g.cityIndex = cityIndex
	g.err = err
}

func scopedKey(parentID, name string) string {
	return parentID + "\x00" + normalizeName(name)
}

// ==================== ShippingService ====================

// ShippingService 运费地理层级的增删改
// 保证 State.countryId 指向存在的国家，City.countryId 始终与所属州一致
type ShippingService struct {
	countries *repository.CollectionRepository[model.Country, *model.Country]
	states    *repository.CollectionRepository[model.State, *model.State]
	cities    *repository.CollectionRepository[model.City, *model.City]
	reader    repository.Reader
	writer    repository.Mutator
	geo       *GeoIndex
	keys      rtdb.KeyGenerator
	logger    *zap.Logger
}

// NewShippingService geo 为 nil 时运费查询直接读取三个集合
func NewShippingService(reader repository.Reader, writer repository.Mutator, geo *GeoIndex, logger *zap.Logger) *ShippingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShippingService{
		countries: repository.NewCollectionRepository[model.Country, *model.Country](model.ColCountries, reader, writer),
		states:    repository.NewCollectionRepository[model.State, *model.State](model.ColStates, reader, writer),
		cities:    repository.NewCollectionRepository[model.City, *model.City](model.ColCities, reader, writer),
		reader:    reader,
		writer:    writer,
		geo:       geo,
		keys:      rtdb.NewKeyGenerator(),
		logger:    logger,
	}
}

// ==================== 查询 ====================

// ListCountries 按名称排序
func (s *ShippingService) ListCountries(ctx context.Context) ([]*model.Country, error) {
	list, err := s.countries.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool { return normalizeName(list[i].Name) < normalizeName(list[j].Name) })
	return list, nil
}

// ListStates countryID 为空时返回全部
func (s *ShippingService) ListStates(ctx context.Context, countryID string) ([]*model.State, error) {
	list, err := s.states.List(ctx)
	if err != nil {
		return nil, err
	}
	out := list[:0]
	for _, st := range list {
		if countryID == "" || st.CountryID == countryID {
			out = append(out, st)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return normalizeName(out[i].Name) < normalizeName(out[j].Name) })
	return out, nil
}

// ListCities stateID 为空时返回全部
func (s *ShippingService) ListCities(ctx context.Context, stateID string) ([]*model.City, error) {
	list, err := s.cities.List(ctx)
	if err != nil {
		return nil, err
	}
	out := list[:0]
	for _, c := range list {
		if stateID == "" || c.StateID == stateID {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return normalizeName(out[i].Name) < normalizeName(out[j].Name) })
	return out, nil
}

// QuotePrice 按名称查询城市运费
func (s *ShippingService) QuotePrice(ctx context.Context, countryName, stateName, cityName string) (float64, bool, error) {
	if s.geo != nil {
		if err := s.geo.Wait(ctx); err != nil {
			return 0, false, err
		}
		price, ok := s.geo.Price(countryName, stateName, cityName)
		return price, ok, nil
	}

	countries, states, cities, err := s.loadAll(ctx)
	if err != nil {
		return 0, false, err
	}
	price, ok := GetShippingPrice(countries, states, cities, countryName, stateName, cityName)
	return price, ok, nil
}

// ==================== 国家 ====================

func (s *ShippingService) CreateCountry(ctx context.Context, req *dto.CountryReq) (*model.Country, error) {
	country := &model.Country{Name: strings.TrimSpace(req.Name), Code: strings.TrimSpace(req.Code)}
	if err := model.NewValidationError(ValidateCountryForm(country)); err != nil {
		return nil, err
	}
	list, err := s.countries.List(ctx)
	if err != nil {
		return nil, err
	}
	if _, dup := FindCountryByName(list, country.Name); dup {
		return nil, model.NewValidationError([]string{fmt.Sprintf("国家 %s 已存在", country.Name)})
	}
	if _, err := s.countries.Create(ctx, country); err != nil {
		return nil, err
	}
	return country, nil
}

func (s *ShippingService) UpdateCountry(ctx context.Context, id string, req *dto.CountryReq) (*model.Country, error) {
	country, err := s.countries.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	country.Name = strings.TrimSpace(req.Name)
	country.Code = strings.TrimSpace(req.Code)
	if err := model.NewValidationError(ValidateCountryForm(country)); err != nil {
		return nil, err
	}
	list, err := s.countries.List(ctx)
	if err != nil {
		return nil, err
	}
	if other, dup := FindCountryByName(list, country.Name); dup && other.ID != id {
		return nil, model.NewValidationError([]string{fmt.Sprintf("国家 %s 已存在", country.Name)})
	}
	if err := s.countries.Update(ctx, id, map[string]any{"name": country.Name, "code": country.Code}); err != nil {
		return nil, err
	}
	return country, nil
}

// DeleteCountry 同时删除该国家下的州和城市（一次批量写入）
func (s *ShippingService) DeleteCountry(ctx context.Context, id string) error {
	if _, err := s.countries.Get(ctx, id); err != nil {
		return err
	}
	states, err := s.states.List(ctx)
	if err != nil {
		return err
	}
	cities, err := s.cities.List(ctx)
	if err != nil {
		return err
	}

	updates := map[string]any{s.countries.Path(id): nil}
	for _, st := range states {
		if st.CountryID == id {
			updates[s.states.Path(st.ID)] = nil
		}
	}
	for _, c := range cities {
		if c.CountryID == id {
			updates[s.cities.Path(c.ID)] = nil
		}
	}
	if _, err := s.writer.Batch(ctx, updates); err != nil {
		return err
	}
	s.logger.Info("[Shipping] 删除国家", zap.String("country_id", id), zap.Int("paths", len(updates)))
	return nil
}

// ==================== 州/省 ====================

func (s *ShippingService) CreateState(ctx context.Context, req *dto.StateReq) (*model.State, error) {
	state := &model.State{Name: strings.TrimSpace(req.Name), CountryID: strings.TrimSpace(req.CountryID)}
	if err := model.NewValidationError(ValidateStateForm(state)); err != nil {
		return nil, err
	}
	if err := s.checkStateParent(ctx, "", state); err != nil {
		return nil, err
	}
	if _, err := s.states.Create(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

// UpdateState 修改所属国家时，同一批次内改写该州下所有城市的 countryId
func (s *ShippingService) UpdateState(ctx context.Context, id string, req *dto.StateReq) (*model.State, error) {
	state, err := s.states.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	oldCountry := state.CountryID
	state.Name = strings.TrimSpace(req.Name)
	state.CountryID = strings.TrimSpace(req.CountryID)
	if err := model.NewValidationError(ValidateStateForm(state)); err != nil {
		return nil, err
	}
	if err := s.checkStateParent(ctx, id, state); err != nil {
		return nil, err
	}

	if oldCountry == state.CountryID {
		err := s.states.Update(ctx, id, map[string]any{"name": state.Name, "countryId": state.CountryID})
		return state, err
	}

	cities, err := s.cities.List(ctx)
	if err != nil {
		return nil, err
	}
	state.Touch(model.NowMillis(), false)
	value, err := s.states.Values(state)
	if err != nil {
		return nil, err
	}
	updates := map[string]any{s.states.Path(id): value}
	moved := 0
	for _, c := range cities {
		if c.StateID == id {
			updates[s.cities.Path(c.ID)+"/countryId"] = state.CountryID
			moved++
		}
	}
	if _, err := s.writer.Batch(ctx, updates); err != nil {
		return nil, err
	}
	s.logger.Info("[Shipping] 州/省变更所属国家",
		zap.String("state_id", id),
		zap.String("from", oldCountry),
		zap.String("to", state.CountryID),
		zap.Int("cities", moved))
	return state, nil
}

// DeleteState 同时删除该州下的城市
func (s *ShippingService) DeleteState(ctx context.Context, id string) error {
	if _, err := s.states.Get(ctx, id); err != nil {
		return err
	}
	cities, err := s.cities.List(ctx)
	if err != nil {
		return err
	}
	updates := map[string]any{s.states.Path(id): nil}
	for _, c := range cities {
		if c.StateID == id {
			updates[s.cities.Path(c.ID)] = nil
		}
	}
	_, err = s.writer.Batch(ctx, updates)
	return err
}

func (s *ShippingService) checkStateParent(ctx context.Context, selfID string, state *model.State) error {
	ok, err := s.countries.Exists(ctx, state.CountryID)
	if err != nil {
		return err
	}
	if !ok {
		return model.NewValidationError([]string{"所属国家不存在"})
	}
	list, err := s.states.List(ctx)
	if err != nil {
		return err
	}
	if other, dup := FindStateByName(list, state.CountryID, state.Name); dup && other.ID != selfID {
		return model.NewValidationError([]string{fmt.Sprintf("州/省 %s 已存在", state.Name)})
	}
	return nil
}

// ==================== 城市 ====================

func (s *ShippingService) CreateCity(ctx context.Context, req *dto.CityReq) (*model.City, error) {
	city := &model.City{
		Name:         strings.TrimSpace(req.Name),
		StateID:      strings.TrimSpace(req.StateID),
		DefaultPrice: req.DefaultPrice,
	}
	if err := s.prepareCity(ctx, "", city); err != nil {
		return nil, err
	}
	if _, err := s.cities.Create(ctx, city); err != nil {
		return nil, err
	}
	return city, nil
}

func (s *ShippingService) UpdateCity(ctx context.Context, id string, req *dto.CityReq) (*model.City, error) {
	city, err := s.cities.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	city.Name = strings.TrimSpace(req.Name)
	city.StateID = strings.TrimSpace(req.StateID)
	city.DefaultPrice = req.DefaultPrice
	if err := s.prepareCity(ctx, id, city); err != nil {
		return nil, err
	}
	err = s.cities.Update(ctx, id, map[string]any{
		"name":         city.Name,
		"stateId":      city.StateID,
		"countryId":    city.CountryID,
		"defaultPrice": city.DefaultPrice,
	})
	if err != nil {
		return nil, err
	}
	return city, nil
}

func (s *ShippingService) DeleteCity(ctx context.Context, id string) error {
	return s.cities.Delete(ctx, id)
}

// prepareCity 校验表单并从所属州推导 countryId
func (s *ShippingService) prepareCity(ctx context.Context, selfID string, city *model.City) error {
	if err := model.NewValidationError(ValidateCityForm(city)); err != nil {
		return err
	}
	state, err := s.states.Get(ctx, city.StateID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.NewValidationError([]string{"所属州/省不存在"})
	}
	if err != nil {
		return err
	}
	city.CountryID = state.CountryID

	list, err := s.cities.List(ctx)
	if err != nil {
		return err
	}
	if other, dup := FindCityByName(list, city.StateID, city.Name); dup && other.ID != selfID {
		return model.NewValidationError([]string{fmt.Sprintf("城市 %s 已存在", city.Name)})
	}
	return nil
}

// ==================== 旧版数据导入 ====================

// ImportLegacy 把 shipping 下的旧版数据一次性导入 countries/states/cities
// 支持两种旧格式：按名称嵌套的 {国家: {州: {城市: 运费}}}，以及带 country/state/city 字段的平铺规则
// 已存在的同名记录复用其 id，城市运费以旧数据为准；全部改动在一次批量写入中完成
func (s *ShippingService) ImportLegacy(ctx context.Context) (*dto.LegacyImportResp, error) {
	snap, err := s.reader.Get(ctx, model.ColLegacyShipping)
	if err != nil {
		return nil, err
	}
	tree, skipped := parseLegacyShipping(snap)
	resp, err := s.importTree(ctx, tree)
	if err != nil {
		return nil, err
	}
	resp.Skipped += skipped
	return resp, nil
}

// ImportLegacyRules 导入平铺规则
func (s *ShippingService) ImportLegacyRules(ctx context.Context, rules []model.LegacyShippingRule) (*dto.LegacyImportResp, error) {
	return s.importTree(ctx, GroupShippingRulesByLocation(rules))
}

func (s *ShippingService) importTree(ctx context.Context, tree model.LegacyShippingTree) (*dto.LegacyImportResp, error) {
	countries, states, cities, err := s.loadAll(ctx)
	if err != nil {
		return nil, err
	}

	resp := &dto.LegacyImportResp{}
	updates := make(map[string]any)
	now := model.NowMillis()

	put := func(path string, rec model.Record, values func() (map[string]any, error)) error {
		rec.Touch(now, true)
		v, err := values()
		if err != nil {
			return err
		}
		updates[path] = v
		return nil
	}

	for _, countryName := range sortedKeys(tree) {
		if strings.TrimSpace(countryName) == "" {
			resp.Skipped++
			continue
		}
		country, ok := FindCountryByName(countries, countryName)
		if !ok {
			country = &model.Country{Name: strings.TrimSpace(countryName)}
			country.SetID(s.keys.NewKey())
			if err := put(s.countries.Path(country.ID), country, func() (map[string]any, error) { return s.countries.Values(country) }); err != nil {
				return nil, err
			}
			countries = append(countries, country)
			resp.CountriesCreated++
		}

		for _, stateName := range sortedKeys(tree[countryName]) {
			if strings.TrimSpace(stateName) == "" {
				resp.Skipped++
				continue
			}
			state, ok := FindStateByName(states, country.ID, stateName)
			if !ok {
				state = &model.State{Name: strings.TrimSpace(stateName), CountryID: country.ID}
				state.SetID(s.keys.NewKey())
				if err := put(s.states.Path(state.ID), state, func() (map[string]any, error) { return s.states.Values(state) }); err != nil {
					return nil, err
				}
				states = append(states, state)
				resp.StatesCreated++
			}

			prices := tree[countryName][stateName]
			for _, cityName := range sortedKeys(prices) {
				price := prices[cityName]
				if strings.TrimSpace(cityName) == "" || price < 0 {
					resp.Skipped++
					continue
				}
				if city, ok := FindCityByName(cities, state.ID, cityName); ok {
					if city.DefaultPrice == price {
						continue
					}
					path := s.cities.Path(city.ID)
					// 本次导入新建的城市直接改写待写入的整条记录，避免批量路径重叠
					if queued, ok := updates[path].(map[string]any); ok {
						queued["defaultPrice"] = price
					} else {
						if _, seen := updates[path+"/defaultPrice"]; !seen {
							resp.CitiesUpdated++
						}
						updates[path+"/defaultPrice"] = price
					}
					city.DefaultPrice = price
					continue
				}
				city := &model.City{
					Name:         strings.TrimSpace(cityName),
					StateID:      state.ID,
					CountryID:    country.ID,
					DefaultPrice: price,
				}
				city.SetID(s.keys.NewKey())
				if err := put(s.cities.Path(city.ID), city, func() (map[string]any, error) { return s.cities.Values(city) }); err != nil {
					return nil, err
				}
				cities = append(cities, city)
				resp.CitiesCreated++
			}
		}
	}

	if len(updates) == 0 {
		return resp, nil
	}
	if _, err := s.writer.Batch(ctx, updates); err != nil {
		return nil, err
	}
	s.logger.Info("[Shipping] 旧版运费数据导入完成",
		zap.Int("countries", resp.CountriesCreated),
		zap.Int("states", resp.StatesCreated),
		zap.Int("cities", resp.CitiesCreated),
		zap.Int("updated", resp.CitiesUpdated),
		zap.Int("skipped", resp.Skipped))
	return resp, nil
}

func (s *ShippingService) loadAll(ctx context.Context) ([]*model.Country, []*model.State, []*model.City, error) {
	countries, err := s.countries.List(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	states, err := s.states.List(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	cities, err := s.cities.List(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	return countries, states, cities, nil
}

// parseLegacyShipping 解析旧版 shipping 子树，无法识别的叶子计入 skipped
func parseLegacyShipping(snap rtdb.Snapshot) (model.LegacyShippingTree, int) {
	tree := make(model.LegacyShippingTree)
	var rules []model.LegacyShippingRule
	skipped := 0

	for _, key := range snap.Keys() {
		node, ok := snap.Child(key).Value.(map[string]any)
		if !ok {
			skipped++
			continue
		}
		// 平铺规则
		if country, ok := node["country"].(string); ok {
			state, _ := node["state"].(string)
			city, _ := node["city"].(string)
			price, ok := legacyPrice(node["price"])
			if !ok {
				skipped++
				continue
			}
			rules = append(rules, model.LegacyShippingRule{Country: country, State: state, City: city, Price: price})
			continue
		}
		// 嵌套结构，key 即国家名称
		for stateName, rawCities := range node {
			cityMap, ok := rawCities.(map[string]any)
			if !ok {
				skipped++
				continue
			}
			for cityName, raw := range cityMap {
				price, ok := legacyPrice(raw)
				if !ok {
					skipped++
					continue
				}
				rules = append(rules, model.LegacyShippingRule{Country: key, State: stateName, City: cityName, Price: price})
			}
		}
	}

	for country, states := range GroupShippingRulesByLocation(rules) {
		tree[country] = states
	}
	return tree, skipped
}

// legacyPrice 叶子可能是数字、数字字符串或 {price} / {defaultPrice} 对象
func legacyPrice(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int64:
		return float64(t), true
	case int:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	case map[string]any:
		if p, ok := t["defaultPrice"]; ok {
			return legacyPrice(p)
		}
		if p, ok := t["price"]; ok {
			return legacyPrice(p)
		}
	}
	return 0, false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
