// ABOUTME: Entry point for the taskboard orchestration daemon
// ABOUTME: Runs the board engine and heartbeat scheduler over a SQLite store

package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/fatih/color"

	"github.com/2389/taskboard/internal/board"
	"github.com/2389/taskboard/internal/config"
	"github.com/2389/taskboard/internal/heartbeat"
	"github.com/2389/taskboard/internal/notify"
	"github.com/2389/taskboard/internal/store"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
 _            _    _                         _
| |_ __ _ ___| | _| |__   ___   __ _ _ __ __| |
| __/ _' / __| |/ / '_ \ / _ \ / _' | '__/ _' |
| || (_| \__ \   <| |_) | (_) | (_| | | | (_| |
 \__\__,_|___/_|\_\_.__/ \___/ \__,_|_|  \__,_|
`

// getConfigPath returns the path to the taskboard config file.
// Priority: TASKBOARD_CONFIG env var > XDG_CONFIG_HOME/taskboard/config.yaml > ~/.config/taskboard/config.yaml
func getConfigPath() string {
	if envPath := os.Getenv("TASKBOARD_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "taskboard", "config.yaml")
}

// getDataPath returns the path to the taskboard data directory.
// Priority: XDG_DATA_HOME/taskboard > ~/.local/share/taskboard
func getDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "taskboard")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: taskboardd <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve   Start the board daemon")
		fmt.Println("  init    Create a new config file interactively")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:    %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("Database:  %s\n", cfg.Database.Path)
	green.Print("    ▶ ")
	fmt.Printf("Heartbeat: %s\n", heartbeatInterval(cfg))
	fmt.Println()

	logger.Info("starting taskboardd",
		"config", configPath,
		"database", cfg.Database.Path,
		"heartbeat_interval", heartbeatInterval(cfg),
	)

	s, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer s.Close()

	dispatcher := notify.NewDispatcher(s, logger)
	svc := board.NewService(s, dispatcher, logger)
	scheduler := heartbeat.NewScheduler(s, cfg.Heartbeat.Interval, logger)

	// The transport layer subscribes here; until one is wired in, summaries
	// with pending work are surfaced in the log.
	scheduler.Start(func(ws heartbeat.WorkSummary) {
		if ws.UnreadNotifications == 0 && ws.AssignedOpenTasks == 0 {
			return
		}
		logger.Info("agent heartbeat",
			"agent", ws.AgentName,
			"status", ws.Status,
			"unread", ws.UnreadNotifications,
			"open_tasks", ws.AssignedOpenTasks,
			"activity_delta", ws.RecentActivity,
		)
	})
	defer scheduler.Stop()

	if stats, err := svc.Stats(ctx); err == nil {
		logger.Info("board loaded", "tasks", stats.TotalTasks, "agents", stats.TotalAgents)
	}

	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}

func heartbeatInterval(cfg *config.Config) string {
	if cfg.Heartbeat.Interval <= 0 {
		return heartbeat.DefaultInterval.String()
	}
	return cfg.Heartbeat.Interval.String()
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = &colorHandler{
			level: level,
		}
	}

	return slog.New(handler)
}

// colorHandler provides colorized log output with thread-safe writes.
type colorHandler struct {
	mu     sync.Mutex
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf strings.Builder

	buf.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))

	switch r.Level {
	case slog.LevelDebug:
		buf.WriteString(color.MagentaString("DBG "))
	case slog.LevelInfo:
		buf.WriteString(color.CyanString("INF "))
	case slog.LevelWarn:
		buf.WriteString(color.YellowString("WRN "))
	case slog.LevelError:
		buf.WriteString(color.New(color.FgRed, color.Bold).Sprint("ERR "))
	default:
		buf.WriteString("??? ")
	}

	buf.WriteString(r.Message)

	// Handler-level attrs first (from WithAttrs), then record attrs
	for _, a := range h.attrs {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
	}
	r.Attrs(func(a slog.Attr) bool {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
		return true
	})

	buf.WriteString("\n")
	fmt.Print(buf.String())
	return nil
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	newAttrs = append(newAttrs, attrs...)
	return &colorHandler{
		level:  h.level,
		attrs:  newAttrs,
		groups: h.groups,
	}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	newGroups := make([]string, len(h.groups), len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups = append(newGroups, name)
	return &colorHandler{
		level:  h.level,
		attrs:  h.attrs,
		groups: newGroups,
	}
}

func runInit() error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("taskboard configuration setup")
	fmt.Println("=============================")
	fmt.Println()

	defaultConfigPath := getConfigPath()
	defaultDataPath := getDataPath()
	defaultDbPath := filepath.Join(defaultDataPath, "board.db")

	outputFile := prompt(reader, "Config file path", defaultConfigPath)

	if _, err := os.Stat(outputFile); err == nil {
		overwrite := prompt(reader, "File exists. Overwrite?", "no")
		if strings.ToLower(overwrite) != "yes" && strings.ToLower(overwrite) != "y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	fmt.Println("\n--- Database Configuration ---")
	dbPath := prompt(reader, "SQLite database path", defaultDbPath)

	fmt.Println("\n--- Heartbeat Configuration ---")
	interval := prompt(reader, "Heartbeat interval", "30s")

	fmt.Println("\n--- Logging Configuration ---")
	logLevel := prompt(reader, "Log level (debug/info/warn/error)", "info")
	logFormat := prompt(reader, "Log format (text/json)", "text")

	var cfg strings.Builder
	cfg.WriteString("# taskboard configuration\n")
	cfg.WriteString("# Generated by taskboardd init\n\n")

	cfg.WriteString("database:\n")
	cfg.WriteString(fmt.Sprintf("  path: \"%s\"\n", dbPath))
	cfg.WriteString("\n")

	cfg.WriteString("heartbeat:\n")
	cfg.WriteString(fmt.Sprintf("  interval: \"%s\"\n", interval))
	cfg.WriteString("\n")

	cfg.WriteString("logging:\n")
	cfg.WriteString(fmt.Sprintf("  level: \"%s\"\n", logLevel))
	cfg.WriteString(fmt.Sprintf("  format: \"%s\"\n", logFormat))

	configDir := filepath.Dir(outputFile)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(outputFile, []byte(cfg.String()), 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	dataDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	fmt.Printf("\nConfig written to %s\n", outputFile)
	fmt.Printf("Data directory: %s\n", dataDir)
	fmt.Println("\nTo start the daemon:")
	fmt.Printf("  taskboardd serve\n")

	return nil
}

func prompt(reader *bufio.Reader, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", question, defaultVal)
	} else {
		fmt.Printf("%s: ", question)
	}

	input, err := reader.ReadString('\n')
	if err != nil {
		// On EOF or error, return default
		fmt.Println()
		return defaultVal
	}
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultVal
	}
	return input
}
