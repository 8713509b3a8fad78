package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"watcher/browser"
	"watcher/config"
	"watcher/eventbus"
	"watcher/identity"
	"watcher/monitor"
	"watcher/progress"
	"watcher/runner"
	"watcher/session"
	"watcher/tasks"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML config file")
		mode       = flag.String("mode", "", "Run mode: all, some or login (menu when empty)")
		count      = flag.Int("count", 0, "Number of unwatched videos for -mode some")
		engine     = flag.String("browser", "", "Browser engine: playwright or rod")
		headless   = flag.Bool("headless", false, "Run the browser headless")
		statusAddr = flag.String("status", "", "Status server listen addr (disabled when empty)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "browser":
			cfg.Browser.Engine = *engine
		case "headless":
			cfg.Browser.Headless = *headless
		case "status":
			cfg.Status.Addr = *statusAddr
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ Invalid config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stdin := bufio.NewReader(os.Stdin)
	ch, fromFlags, err := choiceFromFlags(*mode, *count)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	if fromFlags && ch.login {
		if err := login(ctx, cfg, stdin); err != nil {
			log.Fatalf("❌ Login failed: %v", err)
		}
		return
	}

	channel, err := identity.Load(cfg.IdentityPath)
	if err != nil {
		log.Fatalf("❌ Channel identity not loaded: %v", err)
	}
	store, closeStore, err := openStore(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to open progress store: %v", err)
	}
	defer closeStore()
	queue, err := store.Load(ctx)
	if err != nil {
		if errors.Is(err, progress.ErrNotFound) {
			log.Printf("❌ Queue not found: %v", err)
			return
		}
		log.Fatalf("❌ Failed to load queue: %v", err)
	}

	if !fromFlags {
		if ch, err = promptMenu(ctx, stdin, os.Stdout); err != nil {
			if ctx.Err() != nil {
				log.Printf("⚠️  Interrupted")
				return
			}
			log.Printf("❌ %v", err)
			return
		}
		if ch.login {
			if err := login(ctx, cfg, stdin); err != nil {
				log.Fatalf("❌ Login failed: %v", err)
			}
			return
		}
	}

	if err := watch(ctx, cfg, channel, store, queue, ch.sel); err != nil {
		if errors.Is(err, context.Canceled) {
			log.Printf("⚠️  Interrupted, progress saved")
			return
		}
		log.Fatalf("❌ Run failed: %v", err)
	}
}

// openStore wires the configured backend. With Redis the JSON file seeds the key on
// first use and receives a copy of every save.
func openStore(cfg config.Config) (progress.Store, func(), error) {
	var exporter progress.Exporter
	if cfg.ExportPath != "" {
		exporter = progress.NewXLSXExporter(cfg.ExportPath)
	}
	file := progress.NewFileStore(cfg.QueuePath, exporter)
	if cfg.Store.Backend != config.BackendRedis {
		return file, func() {}, nil
	}

	opt, err := redis.ParseURL(cfg.Store.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	rs := progress.NewRedisStore(rdb, cfg.Store.RedisKey)
	rs.Seed = progress.NewFileStore(cfg.QueuePath, nil)
	rs.Mirror = rs.Seed
	rs.Exporter = exporter
	log.Printf("✅ Using Redis progress store at %s (key %s)", opt.Addr, cfg.Store.RedisKey)
	return rs, func() { _ = rdb.Close() }, nil
}

// openEvents connects to NATS when configured; otherwise events are dropped.
func openEvents(cfg config.Config) (eventbus.Publisher, func()) {
	if cfg.Events.NATSURL == "" {
		return eventbus.NopBus{}, func() {}
	}
	bus, err := eventbus.NewNATSBus(eventbus.NATSConfig{URL: cfg.Events.NATSURL, Subject: cfg.Events.Subject})
	if err != nil {
		log.Printf("⚠️  NATS unavailable at %s, events disabled: %v", cfg.Events.NATSURL, err)
		return eventbus.NopBus{}, func() {}
	}
	log.Printf("✅ Publishing events to %s", cfg.Events.NATSURL)
	return bus, func() { _ = bus.Close() }
}

func watch(ctx context.Context, cfg config.Config, channel string, store progress.Store, queue []tasks.VideoTask, sel tasks.Selection) error {
	bus, closeBus := openEvents(cfg)
	defer closeBus()

	sess, err := browser.Open(ctx, cfg.LaunchOptions())
	if err != nil {
		return fmt.Errorf("launch browser: %w", err)
	}
	defer sess.Close()

	logger := session.StdLogger{}
	driver := session.NewDriver(sess.Page(), channel, cfg.SessionOptions(), logger)
	r := runner.New(store, driver, runner.WithPublisher(bus), runner.WithLogger(logger))

	if cfg.Status.Addr != "" {
		srv := monitor.NewServer(r, r.RunID())
		go func() {
			if err := srv.ListenAndServe(ctx, cfg.Status.Addr); err != nil {
				log.Printf("⚠️  Status server stopped: %v", err)
			}
		}()
	}

	_, err = r.Run(ctx, queue, sel)
	return err
}

// login opens the persistent profile in a visible window so the operator can sign in.
func login(ctx context.Context, cfg config.Config, stdin *bufio.Reader) error {
	opts := cfg.LaunchOptions()
	opts.Headless = false
	sess, err := browser.Open(ctx, opts)
	if err != nil {
		return fmt.Errorf("launch browser: %w", err)
	}
	defer sess.Close()

	if err := sess.Page().Goto(ctx, cfg.LoginURL); err != nil {
		return fmt.Errorf("open %s: %w", cfg.LoginURL, err)
	}
	log.Printf("🔐 Log in using the browser window")
	fmt.Print("Press Enter when you are done...")
	if _, err := readLine(ctx, stdin); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
