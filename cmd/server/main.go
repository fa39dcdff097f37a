package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"go-pos-console/internal/ai"
	"go-pos-console/internal/backend"
	"go-pos-console/internal/config"
	"go-pos-console/internal/database"
	"go-pos-console/internal/events"
	"go-pos-console/internal/handlers"
	"go-pos-console/internal/middleware"
	"go-pos-console/internal/pos"
	"go-pos-console/internal/realtime"
	"go-pos-console/internal/returns"
	"go-pos-console/internal/session"
	"go-pos-console/internal/storage"
	"go-pos-console/internal/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-co-op/gocron"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()

	store, err := openStore(cfg)
	if err != nil {
		log.Fatal("Storage failed to open:", err)
	}

	// --- Backend client and session ---
	deviceID := utils.TerminalID()
	api := backend.New(cfg.BackendURL, backend.WithDeviceID(deviceID))
	mgr := session.NewManager(api, store)
	api.UseTokenSource(mgr.AccessToken)

	workspace := pos.NewWorkspace()
	returnSvc := returns.NewService(api)

	// --- Realtime push ---
	hub := realtime.NewHub(api, cfg.SearchDebounce)
	go hub.Run()
	defer hub.Stop()
	mgr.Subscribe(func(s session.State) { hub.Publish("session", s) })
	workspace.Subscribe(func(s pos.Snapshot) { hub.Publish("tickets", s) })

	// Restore after subscribing so open windows see loading end.
	restoreCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	mgr.Restore(restoreCtx)
	cancel()

	// --- Background profile sync ---
	s := gocron.NewScheduler(time.Local)
	s.SingletonModeAll()
	if _, err := s.Every(cfg.ProfileSync).WaitForSchedule().Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		mgr.RefreshProfile(ctx)
	}); err != nil {
		log.Println("⚠️ Profile sync not scheduled:", err)
	}
	s.StartAsync()
	defer s.Stop()

	publisher := events.New(cfg.RabbitMQURL)
	if publisher == nil {
		log.Println("📭 RABBITMQ_URL not set, sale events are not published")
	}
	defer publisher.Close()
	assistant := ai.New(cfg.GeminiAPIKey, api)

	r := gin.Default()

	middleware.InitMetrics(prometheus.DefaultRegisterer)
	r.Use(middleware.PrometheusMiddleware())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.AllowedOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	h := &handlers.Handler{
		Session:           mgr,
		Workspace:         workspace,
		Returns:           returnSvc,
		Backend:           api,
		Events:            publisher,
		Assistant:         assistant,
		Hub:               hub,
		ShopName:          cfg.ShopName,
		DeviceID:          deviceID,
		AllowRegistration: cfg.AllowRegistration,
	}
	// 5 login attempts a minute per IP
	h.Routes(r, middleware.NewRateLimiter(5, 5))

	if cfg.AllowRegistration {
		log.Println("⚠️ WARNING: Registration route is OPEN. Disable this in production!")
	} else {
		log.Println("🔒 Registration route is safely DISABLED.")
	}

	// --- Serve the front end ---
	r.Static("/assets", "./web/assets")
	r.StaticFile("/vite.svg", "./web/vite.svg")

	// SPA Catch-All: /pos, /admin, /login all load index.html
	r.NoRoute(func(c *gin.Context) {
		c.File("./web/index.html")
	})

	log.Printf("🚀 Console %s starting on :%s (backend %s)", deviceID, cfg.Port, cfg.BackendURL)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Server failed to start:", err)
	}
}

// openStore picks the token storage named by STORAGE_DRIVER.
func openStore(cfg config.Config) (storage.Store, error) {
	switch cfg.StorageDriver {
	case "memory":
		log.Println("🧠 Tokens kept in memory; sign-in will not survive a restart")
		return storage.NewMemoryStore(), nil

	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
		}
		log.Println("✅ Token storage: redis", cfg.RedisAddr)
		return storage.NewRedisStore(rdb), nil

	case "sqlite", "mysql":
		db, err := database.Connect(cfg.StorageDriver, cfg.DBDSN)
		if err != nil {
			return nil, err
		}
		return storage.NewGormStore(db)

	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}
}
