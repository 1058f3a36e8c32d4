package router

import (
	"shop_admin_v1_202610/internal/controller"
	"shop_admin_v1_202610/internal/middleware"
	"shop_admin_v1_202610/internal/model"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// CatalogRoutes 基础资料控制器
type CatalogRoutes interface {
	Register(group *gin.RouterGroup)
}

// Controllers 控制器集合
type Controllers struct {
	Auth      *controller.AuthController
	User      *controller.UserController
	Product   *controller.ProductController
	Category  *controller.CategoryController
	Order     *controller.OrderController
	Shipping  *controller.ShippingController
	Dashboard *controller.DashboardController
	Import    *controller.ImportController
	Email     *controller.EmailController
	Operation *controller.OperationController
	Live      *controller.LiveController

	// 路径名 -> 控制器，如 "brands"
	Catalogs map[string]CatalogRoutes
}

// Options 路由依赖
type Options struct {
	Auth   middleware.SessionAuthenticator
	Logger *zap.Logger

	// 本地图片存储时对外暴露的目录
	UploadDir string
	UploadURL string
}

// SetupRouter 注册所有路由
func SetupRouter(ctls *Controllers, opts Options) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(middleware.RequestLogger(logger), middleware.Recovery(logger))

	// Swagger 文档，swag init 生成 docs 后访问 /swagger/index.html
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	if opts.UploadDir != "" && opts.UploadURL != "" {
		r.Static(opts.UploadURL, opts.UploadDir)
	}

	api := r.Group("/api/v1")

	// -------- 无需登录 --------
	api.POST("/auth/login", ctls.Auth.Login)

	authed := api.Group("")
	authed.Use(middleware.SessionAuth(opts.Auth), middleware.AuditContext())
	{
		authed.POST("/auth/logout", ctls.Auth.Logout)
		authed.GET("/auth/me", ctls.Auth.Me)

		// 商家只能看自己的看板
		authed.GET("/dashboard/vendor",
			middleware.RequireRole(model.RoleAdmin, model.RoleVendor),
			ctls.Dashboard.VendorStats,
		)
	}

	// -------- 管理员 --------
	admin := authed.Group("")
	admin.Use(middleware.RequireRole(model.RoleAdmin))
	{
		admin.GET("/dashboard/stats", ctls.Dashboard.Stats)

		users := admin.Group("/users")
		{
			users.GET("", ctls.User.ListUsers)
			users.POST("", ctls.User.CreateUser)
			users.GET("/:id", ctls.User.GetUser)
			users.PATCH("/:id", ctls.User.UpdateUser)
			users.PUT("/:id/password", ctls.User.ResetPassword)
			users.DELETE("/:id", ctls.User.DeleteUser)
		}

		products := admin.Group("/products")
		{
			products.GET("", ctls.Product.GetProducts)
			products.POST("", ctls.Product.CreateProduct)
			products.GET("/:id", ctls.Product.GetProduct)
			products.PATCH("/:id", ctls.Product.UpdateProduct)
			products.DELETE("/:id", ctls.Product.DeleteProduct)
			products.POST("/:id/images", ctls.Product.UploadImage)
			products.POST("/:id/images/url", ctls.Product.ImportImageURL)
			products.DELETE("/:id/images", ctls.Product.DeleteImage)
		}

		categories := admin.Group("/categories")
		{
			categories.GET("", ctls.Category.List)
			categories.POST("", ctls.Category.Create)
			categories.GET("/slug/:slug", ctls.Category.GetBySlug)
			categories.POST("/slug-index/rebuild", ctls.Category.RebuildSlugIndex)
			categories.GET("/:id", ctls.Category.Get)
			categories.PUT("/:id", ctls.Category.Update)
			categories.DELETE("/:id", ctls.Category.Delete)
			categories.POST("/:id/subcategories", ctls.Category.AddSubCategory)
			categories.DELETE("/:id/subcategories/:slug", ctls.Category.RemoveSubCategory)
		}

		for name, ctl := range ctls.Catalogs {
			ctl.Register(admin.Group("/" + name))
		}

		orders := admin.Group("/orders")
		{
			orders.GET("", ctls.Order.List)
			orders.GET("/:id", ctls.Order.GetByID)
			orders.PATCH("/:id/status", ctls.Order.UpdateStatus)
		}

		shipping := admin.Group("/shipping")
		{
			shipping.GET("/quote", ctls.Shipping.Quote)

			shipping.GET("/countries", ctls.Shipping.ListCountries)
			shipping.POST("/countries", ctls.Shipping.CreateCountry)
			shipping.PUT("/countries/:id", ctls.Shipping.UpdateCountry)
			shipping.DELETE("/countries/:id", ctls.Shipping.DeleteCountry)

			shipping.GET("/states", ctls.Shipping.ListStates)
			shipping.POST("/states", ctls.Shipping.CreateState)
			shipping.PUT("/states/:id", ctls.Shipping.UpdateState)
			shipping.DELETE("/states/:id", ctls.Shipping.DeleteState)

			shipping.GET("/cities", ctls.Shipping.ListCities)
			shipping.POST("/cities", ctls.Shipping.CreateCity)
			shipping.PUT("/cities/:id", ctls.Shipping.UpdateCity)
			shipping.DELETE("/cities/:id", ctls.Shipping.DeleteCity)

			shipping.POST("/import-legacy",
				middleware.CooldownRateLimit(middleware.LimitLegacyImport, "", 0),
				ctls.Shipping.ImportLegacy,
			)
		}

		admin.POST("/import/products",
			middleware.CooldownRateLimit(middleware.LimitCSVImport, "", 0),
			ctls.Import.ImportProducts,
		)

		admin.POST("/emails/:kind",
			middleware.CooldownRateLimit(middleware.LimitEmail, "kind", 0),
			ctls.Email.Send,
		)

		operations := admin.Group("/operations")
		{
			operations.GET("", ctls.Operation.Recent)
			operations.GET("/in-flight", ctls.Operation.InFlight)
			operations.GET("/:id", ctls.Operation.Get)
		}

		admin.GET("/live/*path", ctls.Live.Stream)
	}

	return r
}
