package controller

import (
	"net/http"
	"shop_admin_v1_202610/internal/middleware"
	"shop_admin_v1_202610/internal/model"
	"shop_admin_v1_202610/internal/service"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupShippingRoutes(env *ctlEnv) {
	ctl := NewShippingController(service.NewShippingService(env.db, env.ops, nil, nil))
	g := env.router.Group("/api/v1/shipping")
	g.GET("/quote", ctl.Quote)
	g.GET("/countries", ctl.ListCountries)
	g.POST("/countries", ctl.CreateCountry)
	g.PUT("/countries/:id", ctl.UpdateCountry)
	g.DELETE("/countries/:id", ctl.DeleteCountry)
	g.GET("/states", ctl.ListStates)
	g.POST("/states", ctl.CreateState)
	g.DELETE("/states/:id", ctl.DeleteState)
	g.GET("/cities", ctl.ListCities)
	g.POST("/cities", ctl.CreateCity)
	g.PUT("/cities/:id", ctl.UpdateCity)
	g.POST("/import-legacy",
		middleware.CooldownRateLimit(middleware.LimitLegacyImport, "", 0),
		ctl.ImportLegacy,
	)
}

func TestShippingController_Hierarchy(t *testing.T) {
	env := newCtlEnv(t)
	setupShippingRoutes(env)

	w, resp := env.do(t, http.MethodPost, "/api/v1/shipping/countries", map[string]any{"name": "United States", "code": "US"})
	assertStatus(t, http.StatusCreated, w)
	countryID := dataOf(resp)["id"].(string)

	w, resp = env.do(t, http.MethodPost, "/api/v1/shipping/states", map[string]any{"name": "Georgia", "countryId": countryID})
	assertStatus(t, http.StatusCreated, w)
	stateID := dataOf(resp)["id"].(string)

	w, resp = env.do(t, http.MethodPost, "/api/v1/shipping/cities", map[string]any{"name": "Atlanta", "stateId": stateID, "defaultPrice": 9.5})
	assertStatus(t, http.StatusCreated, w)
	city := dataOf(resp)
	assert.Equal(t, countryID, city["countryId"], "国家由州推导")

	w, resp = env.do(t, http.MethodGet, "/api/v1/shipping/quote?country=united%20states&state=georgia&city=ATLANTA", nil)
	assertStatus(t, http.StatusOK, w)
	assert.Equal(t, true, dataOf(resp)["found"])
	assert.Equal(t, 9.5, dataOf(resp)["price"])

	w, resp = env.do(t, http.MethodGet, "/api/v1/shipping/quote?country=United%20States&state=Georgia&city=Savannah", nil)
	assertStatus(t, http.StatusOK, w)
	assert.Equal(t, false, dataOf(resp)["found"])

	w, _ = env.do(t, http.MethodGet, "/api/v1/shipping/quote?country=US", nil)
	assertStatus(t, http.StatusBadRequest, w)

	// 引用不存在的州
	w, _ = env.do(t, http.MethodPost, "/api/v1/shipping/cities", map[string]any{"name": "Nowhere", "stateId": "missing", "defaultPrice": 1})
	assertStatus(t, http.StatusBadRequest, w)

	// 删除国家连同州和城市
	w, _ = env.do(t, http.MethodDelete, "/api/v1/shipping/countries/"+countryID, nil)
	assertStatus(t, http.StatusOK, w)
	assert.Nil(t, env.value(t, "states/"+stateID))
	assert.Nil(t, env.value(t, "cities/"+city["id"].(string)))
}

func TestShippingController_ImportLegacy(t *testing.T) {
	env := newCtlEnvAs(t, model.SessionUser{ID: "legacy-importer", Role: model.RoleAdmin})
	setupShippingRoutes(env)
	t.Cleanup(func() {
		middleware.GetLimiter().Reset(middleware.UserLimitKey(middleware.LimitLegacyImport, "", "legacy-importer"))
	})
	env.seed(t, "shipping", map[string]any{
		"Canada": map[string]any{"Ontario": map[string]any{"Toronto": 12.5}},
	})

	w, resp := env.do(t, http.MethodPost, "/api/v1/shipping/import-legacy", nil)
	assertStatus(t, http.StatusOK, w)
	assert.EqualValues(t, 1, dataOf(resp)["countriesCreated"])
	assert.EqualValues(t, 1, dataOf(resp)["citiesCreated"])

	w, resp = env.do(t, http.MethodGet, "/api/v1/shipping/cities", nil)
	assertStatus(t, http.StatusOK, w)
	list := dataOf(resp)["list"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, "Toronto", list[0].(map[string]any)["name"])

	w, _ = env.do(t, http.MethodPost, "/api/v1/shipping/import-legacy", nil)
	assertStatus(t, http.StatusTooManyRequests, w)
}
