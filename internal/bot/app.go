package bot

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/keyshop/config"
	"github.com/m3rciful/keyshop/core/bootstrap"
	"github.com/m3rciful/keyshop/core/logger"
	tg "github.com/m3rciful/keyshop/core/telegram"
	tghelpers "github.com/m3rciful/keyshop/core/telegram/helpers"
	"github.com/m3rciful/keyshop/core/telegram/router"
	"github.com/m3rciful/keyshop/core/telegram/state"
	"github.com/m3rciful/keyshop/internal/dialog"
	"github.com/m3rciful/keyshop/internal/service"
	"github.com/m3rciful/keyshop/internal/storage"
	"log/slog"
)

// App wires storage, services, dialogs and Telegram routing together.
type App struct {
	cfg *config.Config

	catalog *service.CatalogService
	cart    *service.CartService
	keys    *service.KeyService
	orders  *service.OrderService

	fsm state.Manager
	reg *tg.Registry

	productForm *dialog.Engine
	keyForm     *dialog.Engine

	sweeper *service.ExpirySweeper
}

// New bootstraps infrastructure and builds the application.
func New(cfg *config.Config) (*App, error) {
	res, err := bootstrap.Run(bootstrap.Options{
		Config:   cfg.CoreConfig(),
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}

	store := storage.New(res.DB)

	app := &App{
		cfg:     cfg,
		catalog: service.NewCatalogService(store),
		cart:    service.NewCartService(store),
		keys:    service.NewKeyService(store),
		orders:  service.NewOrderService(store),
		reg:     tg.NewRegistry(),
	}

	app.fsm, err = buildStateManager(cfg)
	if err != nil {
		return nil, err
	}

	app.productForm = dialog.NewEngine(app.fsm, app.buildProductForm())
	app.keyForm = dialog.NewEngine(app.fsm, app.buildKeyForm())

	app.registerCommands()
	app.registerUserCallbacks()
	app.registerAdminCallbacks()
	app.registerFSMHandlers()

	return app, nil
}

func buildStateManager(cfg *config.Config) (state.Manager, error) {
	if cfg.Redis.Addr == "" {
		logger.TG.Info("fsm.store", slog.String("kind", "memory"))
		return state.NewMemoryManager(), nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	mgr, err := state.NewRedisManager(state.RedisOptions{
		Client: client,
		TTL:    cfg.Redis.StateTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("redis state manager: %w", err)
	}
	logger.TG.Info("fsm.store",
		slog.String("kind", "redis"),
		slog.String("addr", cfg.Redis.Addr),
	)
	return mgr, nil
}

func (a *App) isAdmin(userID int64) bool {
	return a.cfg.Core.Telegram.IsAdmin(userID)
}

// TelegramRunOptions assembles the bot runtime configuration.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	core := a.cfg.CoreConfig()

	onLimited := func(c tele.Context) error {
		return c.Respond(&tele.CallbackResponse{Text: txtRateLimited})
	}

	routes := router.CommandRoutes(a.reg, router.CommandRouteOptions{
		AdminIDs: core.Telegram.AdminIDs,
		OnAdminReject: func(c tele.Context) error {
			return tghelpers.SendText(c, txtAdminOnly)
		},
	})
	routes = append(routes, router.TextRoutes(a.fsm, a.reg, router.TextOptions{
		UnknownText: func(c tele.Context) error {
			return tghelpers.SendMD(c, txtUnknownInput, mainMenuMarkup())
		},
	})...)
	routes = append(routes, router.CallbackRoute(a.reg, router.CallbackOptions{}))

	return tg.RunOptions{
		Config:      core,
		Registry:    a.reg,
		Middlewares: tg.DefaultMiddlewares(core, onLimited),
		Routes:      routes,
		OnStart: func(ctx context.Context, rt tg.Runtime) error {
			a.sweeper = service.NewExpirySweeper(a.keys, botNotifier{bot: rt.Bot}, a.cfg.Shop.ExpirySweepSpec)
			return a.sweeper.Start(ctx)
		},
		OnStop: func(ctx context.Context, rt tg.Runtime) error {
			if a.sweeper != nil {
				a.sweeper.Stop()
			}
			return nil
		},
	}, nil
}

// botNotifier delivers service-layer notices straight through the bot,
// outside any update context.
type botNotifier struct {
	bot *tele.Bot
}

func (n botNotifier) NotifyUser(_ context.Context, userID int64, text string) error {
	_, err := n.bot.Send(&tele.User{ID: userID}, text)
	return err
}
