package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/talkincode/bakeshop/config"
	"github.com/talkincode/bakeshop/internal/adminapi"
	"github.com/talkincode/bakeshop/internal/app"
	"github.com/talkincode/bakeshop/internal/availability"
	"github.com/talkincode/bakeshop/internal/catalog"
	"github.com/talkincode/bakeshop/internal/notify"
	"github.com/talkincode/bakeshop/internal/ordering"
	"github.com/talkincode/bakeshop/internal/shopapi"
	"github.com/talkincode/bakeshop/internal/webserver"

	"github.com/asaskevich/EventBus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	h        = flag.Bool("h", false, "help usage")
	showVer  = flag.Bool("v", false, "show version")
	confFile = flag.String("c", "bakeshop.yml", "config file")
	initDb   = flag.Bool("initdb", false, "drop and recreate the database tables")

	gitCommit string
	buildTime string
)

func printVersion() {
	fmt.Printf("bakeshop commit=%s build=%s\n", gitCommit, buildTime)
}

func main() {
	flag.Parse()
	if *h {
		flag.Usage()
		os.Exit(0)
	}
	if *showVer {
		printVersion()
		os.Exit(0)
	}

	cfg := config.LoadConfig(*confFile)

	application := app.NewApplication(cfg)
	application.Init(cfg)
	defer application.Release()

	if *initDb {
		application.InitDb()
		return
	}

	bus := EventBus.New()

	ledger := ordering.NewGormLedger(application.DB())
	catalogRepo := catalog.NewGormRepository(application.DB())
	dateRepo := availability.NewGormRepository(application.DB())
	orderService := ordering.NewService(ledger, catalogRepo, dateRepo, bus)

	mailer, err := notify.NewService(cfg.Smtp, application)
	if err != nil {
		zap.L().Fatal("mailer init failed", zap.Error(err))
	}
	defer mailer.Release()
	if err := mailer.Subscribe(bus); err != nil {
		zap.L().Fatal("mailer subscribe failed", zap.Error(err))
	}

	adminapi.Init()
	shopapi.Init(orderService, cfg.UploadsDir())
	server := webserver.Init(application)

	g, ctx := errgroup.WithContext(context.Background())

	g.Go(func() error {
		return server.Start()
	})

	g.Go(func() error {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		select {
		case s := <-sig:
			zap.L().Info("received shutdown signal", zap.String("signal", s.String()))
			return fmt.Errorf("shutdown: %s", s)
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	if err := g.Wait(); err != nil {
		zap.L().Info("bakeshop stopped", zap.Error(err))
	}
}
