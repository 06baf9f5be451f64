package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gdamore/tcell/v2"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// logger is the process-wide structured logger. Screens own the terminal,
// so everything goes to the log file, never stderr.
var logger = zap.NewNop().Sugar()

func main() {
	configDir := flag.String("config", ".", "directory holding coredefender.cfg.json")
	debug := flag.Bool("debug", false, "log at debug level")
	flag.Parse()

	// .env is optional and only used for COREDEFENDER_* overrides
	_ = godotenv.Load()

	cfg, err := LoadConfig(*configDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	closeLog, err := initLogger(cfg.LogFile, *debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, "cannot open log file:", err)
		os.Exit(1)
	}
	defer closeLog()

	if err := run(cfg); err != nil {
		logger.Errorw("fatal", "err", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg *Config) error {
	db, err := OpenDB(filepath.Join(cfg.DataDir, "coredefender.db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	screen.EnableMouse()

	// The terminal must be restored even on panic, or the shell is left
	// in raw mode.
	defer func() {
		if r := recover(); r != nil {
			screen.Fini()
			panic(r)
		}
		screen.Fini()
	}()

	api := NewAPIClient(cfg.APIBaseURL)
	app := NewApp(screen, cfg, db, api)

	logger.Infow("client starting", "api", cfg.APIBaseURL, "ws", cfg.WSURL, "fps", cfg.FPS)
	return app.Run()
}

// initLogger points the global logger at the configured file. Returns the
// flush function for deferred cleanup.
func initLogger(path string, debug bool) (func(), error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}

	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(f), level)

	l := zap.New(core)
	logger = l.Sugar()
	return func() {
		_ = l.Sync()
		_ = f.Close()
	}, nil
}
