// ABOUTME: Admin CLI for inspecting a taskboard database
// ABOUTME: Reads the store directly for standup, stats, agent, and task views

package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/2389/taskboard/internal/board"
	"github.com/2389/taskboard/internal/config"
	"github.com/2389/taskboard/internal/notify"
	"github.com/2389/taskboard/internal/store"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		printUsage()
		return
	}

	svc, closeStore, err := openBoard()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer closeStore()

	ctx := context.Background()
	switch cmd {
	case "standup":
		err = cmdStandup(ctx, svc, args)
	case "stats":
		err = cmdStats(ctx, svc)
	case "agents":
		err = cmdAgents(ctx, svc)
	case "tasks":
		err = cmdTasks(ctx, svc, args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: board-admin <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  standup [--since DUR]   Print the standup report (default window 24h)")
	fmt.Println("  stats                   Board counts by status and priority")
	fmt.Println("  agents                  List registered agents")
	fmt.Println("  tasks [--status S]      List tasks, optionally filtered by status")
	fmt.Println()
	fmt.Println("The database path comes from the taskboardd config (TASKBOARD_CONFIG)")
	fmt.Println("or the TASKBOARD_DB environment variable.")
}

// openBoard resolves the database path and builds a read-mostly board
// service over it. TASKBOARD_DB short-circuits config loading for one-off
// inspection of an arbitrary database file.
func openBoard() (*board.Service, func(), error) {
	dbPath := os.Getenv("TASKBOARD_DB")
	if dbPath == "" {
		cfg, err := config.Load(configPath())
		if err != nil {
			return nil, nil, fmt.Errorf("loading config (set TASKBOARD_DB to skip): %w", err)
		}
		dbPath = cfg.Database.Path
	}

	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}

	svc := board.NewService(s, notify.NewDispatcher(s, nil), nil)
	return svc, func() { _ = s.Close() }, nil
}

func configPath() string {
	if envPath := os.Getenv("TASKBOARD_CONFIG"); envPath != "" {
		return envPath
	}
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml"
		}
		configDir = homeDir + "/.config"
	}
	return configDir + "/taskboard/config.yaml"
}

func cmdStandup(ctx context.Context, svc *board.Service, args []string) error {
	window := 24 * time.Hour
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "--since":
			if i+1 >= len(args) {
				return fmt.Errorf("--since requires a duration")
			}
			d, err := time.ParseDuration(args[i+1])
			if err != nil {
				return fmt.Errorf("parsing --since: %w", err)
			}
			window = d
			i++
		case strings.HasPrefix(args[i], "--since="):
			d, err := time.ParseDuration(strings.TrimPrefix(args[i], "--since="))
			if err != nil {
				return fmt.Errorf("parsing --since: %w", err)
			}
			window = d
		default:
			return fmt.Errorf("unknown flag: %s", args[i])
		}
	}

	report, err := svc.Standup(ctx, time.Now().UTC().Add(-window))
	if err != nil {
		return err
	}
	fmt.Print(report.Markdown())
	return nil
}

func cmdStats(ctx context.Context, svc *board.Service) error {
	stats, err := svc.Stats(ctx)
	if err != nil {
		return err
	}

	cyan := color.New(color.FgCyan)
	cyan.Printf("Tasks: %d\n", stats.TotalTasks)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, status := range []string{
		store.TaskStatusInbox, store.TaskStatusAssigned, store.TaskStatusInProgress,
		store.TaskStatusReview, store.TaskStatusBlocked, store.TaskStatusDone,
	} {
		if n := stats.TasksByStatus[status]; n > 0 {
			fmt.Fprintf(w, "  %s\t%d\n", status, n)
		}
	}
	w.Flush()

	fmt.Println()
	cyan.Println("By priority:")
	w = tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, p := range []string{store.PriorityUrgent, store.PriorityHigh, store.PriorityMedium, store.PriorityLow} {
		if n := stats.TasksByPriority[p]; n > 0 {
			fmt.Fprintf(w, "  %s\t%d\n", p, n)
		}
	}
	w.Flush()

	fmt.Println()
	cyan.Printf("Agents: %d\n", stats.TotalAgents)
	w = tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for status, n := range stats.AgentsByStatus {
		fmt.Fprintf(w, "  %s\t%d\n", status, n)
	}
	return w.Flush()
}

func cmdAgents(ctx context.Context, svc *board.Service) error {
	agents, err := svc.ListAgents(ctx)
	if err != nil {
		return err
	}
	if len(agents) == 0 {
		fmt.Println("No agents registered.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tLEVEL\tSTATUS\tLAST HEARTBEAT\tCURRENT TASK")
	for _, a := range agents {
		heartbeat := "never"
		if a.LastHeartbeat != nil {
			heartbeat = a.LastHeartbeat.Local().Format("2006-01-02 15:04:05")
		}
		task := a.CurrentTaskID
		if task == "" {
			task = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", a.Name, a.Level, colorStatus(a.Status), heartbeat, task)
	}
	return w.Flush()
}

func cmdTasks(ctx context.Context, svc *board.Service, args []string) error {
	var filter store.TaskFilter
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "--status":
			if i+1 >= len(args) {
				return fmt.Errorf("--status requires a value")
			}
			filter.Status = args[i+1]
			i++
		case strings.HasPrefix(args[i], "--status="):
			filter.Status = strings.TrimPrefix(args[i], "--status=")
		default:
			return fmt.Errorf("unknown flag: %s", args[i])
		}
	}
	if filter.Status != "" && !store.ValidTaskStatus(filter.Status) {
		return fmt.Errorf("unknown status: %s", filter.Status)
	}

	tasks, err := svc.ListTasks(ctx, filter)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		fmt.Println("No tasks.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TITLE\tSTATUS\tPRIORITY\tASSIGNEES\tDUE")
	for _, t := range tasks {
		due := "-"
		if t.DueDate != nil {
			due = t.DueDate.Format("2006-01-02")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", t.Title, t.Status, t.Priority, len(t.AssigneeIDs), due)
	}
	return w.Flush()
}

func colorStatus(status string) string {
	switch status {
	case store.AgentStatusActive:
		return color.GreenString(status)
	case store.AgentStatusIdle:
		return status
	case store.AgentStatusBlocked:
		return color.YellowString(status)
	case store.AgentStatusOffline:
		return color.HiBlackString(status)
	default:
		return status
	}
}
