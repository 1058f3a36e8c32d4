package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"shop_admin_v1_202610/config"
	"shop_admin_v1_202610/internal/controller"
	"shop_admin_v1_202610/internal/middleware"
	"shop_admin_v1_202610/internal/model"
	"shop_admin_v1_202610/internal/router"
	"shop_admin_v1_202610/internal/service"
	"shop_admin_v1_202610/internal/task"
	"shop_admin_v1_202610/pkg/database"
	"shop_admin_v1_202610/pkg/logger"
	"shop_admin_v1_202610/pkg/rtdb"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// @title Shop Admin API
// @version 1.0
// @description 多商家电商后台管理接口
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Encoding:    cfg.Log.Encoding,
		Development: cfg.Log.Development,
		File:        cfg.Log.File,
		MaxSizeMB:   cfg.Log.MaxSizeMB,
		MaxBackups:  cfg.Log.MaxBackups,
		MaxAgeDays:  cfg.Log.MaxAgeDays,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// 1. 初始化存储
	db, err := initDatabase(cfg, log)
	if err != nil {
		log.Fatal("存储初始化失败", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}

	// 2. 初始化依赖
	deps, err := initDependencies(cfg, db, log)
	if err != nil {
		log.Fatal("依赖初始化失败", zap.Error(err))
	}

	// 3. 启动定时任务
	tasks := initTasks(cfg, db, log)

	// 4. 初始化路由
	gin.SetMode(cfg.Server.GinMode)
	opts := router.Options{Auth: deps.Services.Auth, Logger: log}
	if cfg.Storage.Provider == "local" {
		opts.UploadDir = cfg.Storage.LocalDir
		opts.UploadURL = cfg.Storage.LocalURL
	}
	r := router.SetupRouter(deps.Controllers, opts)

	// 5. 启动服务
	startServer(cfg, r, log)

	// 6. 释放资源
	tasks.Stop()
	deps.Close()
	if err := db.Close(); err != nil {
		log.Warn("关闭存储失败", zap.Error(err))
	}
	log.Info("服务已退出")
}

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	Controllers *router.Controllers
	Services    *Services
}

// Services 服务集合
type Services struct {
	Operations *service.OperationService
	Catalogs   *service.Catalogs
	Category   *service.CategoryService
	Product    *service.ProductService
	Order      *service.OrderService
	Email      *service.EmailService
	Shipping   *service.ShippingService
	Geo        *service.GeoIndex
	Dashboard  *service.DashboardService
	Import     *service.ImportService
	User       *service.UserService
	Auth       *service.AuthService
}

// Close 停止服务内部的后台 goroutine
func (d *Dependencies) Close() {
	if d.Services.Geo != nil {
		d.Services.Geo.Close()
	}
	d.Services.Auth.Stop()
	d.Services.Operations.Stop()
}

// ==================== 初始化函数 ====================

// initDatabase 按 STORE_DRIVER 选择存储后端
func initDatabase(cfg *config.Config, log *zap.Logger) (*rtdb.Database, error) {
	var backend rtdb.Backend
	switch cfg.Store.Driver {
	case "memory":
		backend = rtdb.NewMemoryBackend()
	case "sqlite", "postgres":
		gdb, err := database.InitDB(database.Options{
			Driver: cfg.Store.Driver,
			DSN:    cfg.Store.DSN,
			Debug:  cfg.Log.Development,
			Logger: log,
		})
		if err != nil {
			return nil, err
		}
		sqlBackend, err := rtdb.NewSQLBackend(gdb)
		if err != nil {
			return nil, err
		}
		backend = sqlBackend
	case "firebase":
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		fb, err := rtdb.NewFirebaseBackend(ctx, rtdb.FirebaseConfig{
			ProjectID:       cfg.Firebase.ProjectID,
			DatabaseURL:     cfg.Firebase.DatabaseURL,
			CredentialsPath: cfg.Firebase.CredentialsPath,
		})
		if err != nil {
			return nil, err
		}
		backend = fb
	case "rest":
		backend = rtdb.NewRESTBackend(rtdb.RESTConfig{
			BaseURL:   cfg.Firebase.RestURL,
			Namespace: cfg.Firebase.Namespace,
			AuthToken: cfg.Firebase.AuthToken,
			Timeout:   15 * time.Second,
		})
	default:
		return nil, fmt.Errorf("不支持的存储驱动: %s", cfg.Store.Driver)
	}

	log.Info("存储已就绪", zap.String("driver", cfg.Store.Driver))
	return rtdb.New(backend, rtdb.WithLogger(log)), nil
}

// initDependencies 初始化所有依赖
func initDependencies(cfg *config.Config, db *rtdb.Database, log *zap.Logger) (*Dependencies, error) {
	validator := model.NewSchemaValidator()
	ops := service.NewOperationService(db, validator, log)

	// -------- 存储 & 邮件 --------
	storageSvc := initStorageService(cfg, log)
	smtp := service.SMTPSettings{
		Host:      cfg.SMTP.Host,
		Port:      cfg.SMTP.Port,
		Username:  cfg.SMTP.Username,
		Password:  cfg.SMTP.Password,
		FromName:  cfg.SMTP.FromName,
		FromEmail: cfg.SMTP.FromEmail,
	}
	sender := service.NewSMTPSender(smtp)
	if sender == nil {
		log.Warn("未配置 SMTP_HOST，邮件发送不可用")
	}

	// 运费查询索引订阅 countries/states/cities
	geo, err := service.NewGeoIndex(db)
	if err != nil {
		log.Warn("运费索引初始化失败，查询将直接读取存储", zap.Error(err))
	}

	// -------- 业务服务 --------
	services := &Services{
		Operations: ops,
		Geo:        geo,
		Email:      service.NewEmailService(smtp, sender, log),
	}
	services.Catalogs = service.NewCatalogs(db, ops, validator, log)
	services.Category = service.NewCategoryService(db, ops, log)
	services.Product = service.NewProductService(db, ops, validator, storageSvc, log)
	services.Order = service.NewOrderService(db, ops, services.Email, log)
	services.Shipping = service.NewShippingService(db, ops, geo, log)
	services.Dashboard = service.NewDashboardService(db, ops)
	services.Import = service.NewImportService(db, ops, validator, log)
	services.User = service.NewUserService(db, ops, validator)
	services.Auth = service.NewAuthService(services.User, cfg.Session.TTL, log)

	// -------- 会话 --------
	middleware.SetJWTConfig(&middleware.JWTConfig{
		SecretKey: cfg.Session.Secret,
		Issuer:    cfg.Session.Issuer,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	created, err := services.Auth.BootstrapAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password, cfg.Admin.Name)
	if err != nil {
		return nil, fmt.Errorf("创建初始管理员失败: %w", err)
	}
	if created {
		log.Info("已创建初始管理员", zap.String("email", cfg.Admin.Email))
	}

	return &Dependencies{
		Controllers: initControllers(db, services),
		Services:    services,
	}, nil
}

// initStorageService 初始化图片存储，失败时图片上传不可用
func initStorageService(cfg *config.Config, log *zap.Logger) *service.StorageService {
	provider, err := service.NewStorageProvider(&service.StorageConfig{
		Provider:  cfg.Storage.Provider,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Endpoint:  cfg.Storage.Endpoint,
		CDNDomain: cfg.Storage.CDNDomain,
		BasePath:  cfg.Storage.BasePath,
		LocalDir:  cfg.Storage.LocalDir,
		LocalURL:  cfg.Storage.LocalURL,
	})
	if err != nil {
		log.Warn("存储服务初始化失败，图片上传不可用", zap.Error(err))
		return nil
	}
	return service.NewStorageService(provider)
}

// initControllers 初始化所有控制器
func initControllers(db *rtdb.Database, svc *Services) *router.Controllers {
	return &router.Controllers{
		Auth:      controller.NewAuthController(svc.Auth, svc.User),
		User:      controller.NewUserController(svc.User),
		Product:   controller.NewProductController(svc.Product),
		Category:  controller.NewCategoryController(svc.Category),
		Order:     controller.NewOrderController(svc.Order),
		Shipping:  controller.NewShippingController(svc.Shipping),
		Dashboard: controller.NewDashboardController(svc.Dashboard),
		Import:    controller.NewImportController(svc.Import),
		Email:     controller.NewEmailController(svc.Email),
		Operation: controller.NewOperationController(svc.Operations),
		Live:      controller.NewLiveController(db),
		Catalogs: map[string]router.CatalogRoutes{
			"brands":       controller.NewCatalogController(svc.Catalogs.Brands),
			"tags":         controller.NewCatalogController(svc.Catalogs.Tags),
			"attributes":   controller.NewCatalogController(svc.Catalogs.Attributes),
			"faqs":         controller.NewCatalogController(svc.Catalogs.FAQs),
			"testimonials": controller.NewCatalogController(svc.Catalogs.Testimonials),
			"coupons":      controller.NewCatalogController(svc.Catalogs.Coupons),
			"taxes":        controller.NewCatalogController(svc.Catalogs.Taxes),
			"roles":        controller.NewCatalogController(svc.Catalogs.Roles),
			"vendors":      controller.NewCatalogController(svc.Catalogs.Vendors),
		},
	}
}

// ==================== 定时任务 ====================

// initTasks 远程存储才需要定时拉取外部变更
func initTasks(cfg *config.Config, db *rtdb.Database, log *zap.Logger) *task.TaskManager {
	tm := task.NewTaskManager(&task.TaskManagerDeps{
		Store:  db,
		Logger: log,
	}, &task.TaskManagerConfig{
		RefreshEnabled: cfg.IsRemoteStore(),
		RefreshSpec:    cfg.Store.RefreshSpec,
	})
	if err := tm.Start(); err != nil {
		log.Fatal("定时任务启动失败", zap.Error(err))
	}
	return tm
}

// ==================== 服务启动 ====================

// startServer 启动服务，收到退出信号后优雅关闭
func startServer(cfg *config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	// 异步启动服务
	go func() {
		log.Info("服务启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("服务启动失败", zap.Error(err))
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("正在关闭服务...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// SSE 长连接在 Shutdown 超时后被强制断开
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("服务强制关闭", zap.Error(err))
	}
}
