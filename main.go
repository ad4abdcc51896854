package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"git.sr.ht/~rockorager/vaxis"
	"git.sr.ht/~rockorager/vaxis/vxfw"
	"github.com/deevus/livefrag/app"
	"github.com/deevus/livefrag/charts"
	"github.com/deevus/livefrag/clock"
	"github.com/deevus/livefrag/config"
	"github.com/deevus/livefrag/hotreload"
	"github.com/deevus/livefrag/internal"
	"github.com/deevus/livefrag/page"
	"github.com/deevus/livefrag/svgchart"
	"github.com/deevus/livefrag/views"
	"github.com/deevus/livefrag/widgets"
	"golang.org/x/sync/errgroup"
)

var version = "dev"

func main() {
	configFlag := flag.String("config", config.DefaultPath(), "path to config file")
	serveFlag := flag.Bool("serve", false, "serve the hot-reload endpoint and watch files for changes")
	headlessFlag := flag.Bool("headless", false, "run the page without a terminal, writing charts as SVG")
	versionFlag := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Println(version)
		return
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if cfg.LogFile != "" {
		f, err := openLog(cfg.LogFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		log.SetOutput(f)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case *serveFlag:
		err = serve(ctx, cfg)
	case *headlessFlag:
		err = headless(ctx, cfg)
	default:
		err = runTUI(ctx, cfg)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func openLog(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}

func notifierURL(cfg *config.Config) string {
	return hotreload.EndpointURL(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
}

// serve runs the hot-reload endpoint, bumping its version whenever a watched
// file changes.
func serve(ctx context.Context, cfg *config.Config) error {
	srv := hotreload.NewServer(log.Default())
	mux := http.NewServeMux()
	mux.Handle(hotreload.Path, srv)
	httpSrv := &http.Server{Addr: cfg.Server.Addr(), Handler: mux}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("[Hot Reloader] listening on %s (version %s)", httpSrv.Addr, srv.Version())
		if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if len(cfg.Server.Watch) > 0 {
		w := hotreload.NewWatcher(cfg.Server.Watch, func() {
			log.Printf("[Hot Reloader] files changed, new version %s", srv.Bump())
		}, hotreload.WithDebounce(cfg.Server.Debounce()))
		g.Go(func() error {
			return w.Watch(ctx)
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		if err := srv.Shutdown(); err != nil {
			log.Printf("[Hot Reloader] closing clients: %v", err)
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newCharter(cfg *config.Config, clk clock.Clock) charts.Charter {
	if cfg.Charts.Renderer == config.RendererSVG {
		return svgchart.Charter{Dir: cfg.Charts.SVGDir}
	}
	return widgets.TermCharter{Clock: clk}
}

// runTUI runs the page in the terminal. Timer callbacks are dispatched onto
// the vaxis event loop.
func runTUI(ctx context.Context, cfg *config.Config) error {
	vxApp, err := vxfw.NewApp(vaxis.Options{})
	if err != nil {
		return err
	}

	clk := clock.Real{Dispatch: func(fn func()) {
		vxApp.PostEvent(views.Dispatch{Fn: fn})
	}}
	root := app.New(app.Params{
		Services:    internal.NewServices(newCharter(cfg, clk), nil, clk),
		NotifierURL: notifierURL(cfg),
		BaseDelay:   cfg.HotReload.BaseDelay(),
	})
	root.SetPostEvent(vxApp.PostEvent)
	root.StartHotReload(ctx)
	defer root.Stop()

	return vxApp.Run(root)
}

// headless runs the page on an in-process loop and writes its charts as SVG.
func headless(ctx context.Context, cfg *config.Config) error {
	loop := internal.NewLoop(64)
	clk := clock.Real{Dispatch: loop.Post}
	svc := internal.NewServices(svgchart.Charter{Dir: cfg.Charts.SVGDir}, nil, clk)
	pg := page.New(page.Params{Charter: svc.Charter, Clock: svc.Clock})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return loop.Run(ctx)
	})
	loop.Post(func() {
		pg.StartWorkout(page.Workout{Name: "Workout", Start: clk.Now()})
		log.Printf("[page] writing charts to %s", cfg.Charts.SVGDir)
	})
	g.Go(func() error {
		return hotreload.Supervise(ctx, hotreload.NotifierParams{
			URL:       notifierURL(cfg),
			Dialer:    svc.Dialer,
			BaseDelay: cfg.HotReload.BaseDelay(),
			Reload: func() {
				loop.Post(pg.Reload)
			},
		}, nil)
	})
	return g.Wait()
}
