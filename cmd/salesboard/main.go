// ABOUTME: Entry point for the salesboard dashboard server
// ABOUTME: Provides serve, migrate, adduser, and health subcommands

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/2389/salesboard/internal/auth"
	"github.com/2389/salesboard/internal/config"
	"github.com/2389/salesboard/internal/sales"
	"github.com/2389/salesboard/internal/server"
	"github.com/2389/salesboard/internal/store"
)

// Version is set at build time.
var version = "dev"

const banner = `
            _           _                         _
  ___  __ _| | ___  ___| |__   ___   __ _ _ __ __| |
 / __|/ _' | |/ _ \/ __| '_ \ / _ \ / _' | '__/ _' |
 \__ \ (_| | |  __/\__ \ |_) | (_) | (_| | | | (_| |
 |___/\__,_|_|\___||___/_.__/ \___/ \__,_|_|  \__,_|
`

// getConfigPath returns the path to the config file.
// Priority: SALESBOARD_CONFIG env var > XDG_CONFIG_HOME/salesboard/config.yaml > ~/.config/salesboard/config.yaml
func getConfigPath() string {
	if envPath := os.Getenv("SALESBOARD_CONFIG"); envPath != "" {
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

	return filepath.Join(configDir, "salesboard", "config.yaml")
}

// loadConfig reads the config file, or runs on defaults plus environment
// variables when there is none.
func loadConfig() (*config.Config, string, error) {
	path := getConfigPath()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		cfg, err := config.FromEnv()
		if err != nil {
			return nil, "", fmt.Errorf("loading config from environment: %w", err)
		}
		return cfg, "(defaults)", nil
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", fmt.Errorf("loading config: %w", err)
	}
	return cfg, path, nil
}

func usage() {
	fmt.Println("Usage: salesboard <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve                                Start the dashboard server (SIGHUP reloads the dataset)")
	fmt.Println("  migrate                              Create or upgrade the database schema")
	fmt.Println("  adduser --email EMAIL --username U   Create an account (password read from the terminal)")
	fmt.Println("  health [--http]                      Check the database and dataset, or a running server")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "migrate":
		err = runMigrate(ctx)
	case "adduser":
		err = runAddUser(ctx, os.Args[2:])
	case "health":
		err = runHealth(ctx, os.Args[2:])
	case "help", "-h", "--help":
		usage()
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
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, configPath, err := loadConfig()
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Logging)

	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	green.Print("    ▶ ")
	fmt.Printf("Config:    %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:      http://%s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Database:  %s", cfg.Database.Driver)
	if cfg.Database.Driver == store.DriverSQLite {
		gray.Printf(" (%s)", cfg.Database.Path)
	}
	fmt.Println()
	green.Print("    ▶ ")
	fmt.Printf("Data:      %s\n", cfg.Data.SalesCSV)
	if cfg.Auth.RestoreLatestSession {
		yellow.Println("    ! restore_latest_session is on: single-user mode")
	}
	fmt.Println()

	logger.Info("starting salesboard",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
		"db_driver", cfg.Database.Driver,
	)

	srv, err := server.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return srv.Run(ctx)
}

// runMigrate opens the store, which brings the schema up to date.
func runMigrate(ctx context.Context) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := store.Open(ctx, cfg.Database.Driver, cfg.Database.Location())
	if err != nil {
		return fmt.Errorf("migrating %s database: %w", cfg.Database.Driver, err)
	}
	defer st.Close()

	color.New(color.FgGreen).Print("✓ ")
	fmt.Printf("%s schema is up to date\n", cfg.Database.Driver)
	return nil
}

// addUserArgs holds the parsed adduser flags.
type addUserArgs struct {
	Email    string
	Username string
}

// parseAddUserArgs supports both "--flag value" and "--flag=value" formats.
func parseAddUserArgs(args []string) (addUserArgs, error) {
	var out addUserArgs
	for i := 0; i < len(args); i++ {
		arg := args[i]
		var name, value string
		switch {
		case strings.HasPrefix(arg, "--") && strings.Contains(arg, "="):
			name, value, _ = strings.Cut(strings.TrimPrefix(arg, "--"), "=")
		case strings.HasPrefix(arg, "--"):
			name = strings.TrimPrefix(arg, "--")
			if i+1 >= len(args) {
				return out, fmt.Errorf("--%s requires a value", name)
			}
			value = args[i+1]
			i++
		default:
			return out, fmt.Errorf("unexpected argument: %s", arg)
		}

		switch name {
		case "email":
			out.Email = value
		case "username":
			out.Username = value
		default:
			return out, fmt.Errorf("unknown flag: --%s", name)
		}
	}

	if strings.TrimSpace(out.Email) == "" {
		return out, fmt.Errorf("--email flag is required")
	}
	if strings.TrimSpace(out.Username) == "" {
		return out, fmt.Errorf("--username flag is required")
	}
	return out, nil
}

// readPassword reads a password without echo when stdin is a terminal,
// and a single line otherwise.
func readPassword(prompt string, in *os.File, reader *bufio.Reader) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	if term.IsTerminal(int(in.Fd())) {
		b, err := term.ReadPassword(int(in.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(b), nil
	}

	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func runAddUser(ctx context.Context, rawArgs []string) error {
	args, err := parseAddUserArgs(rawArgs)
	if err != nil {
		return err
	}

	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.Logging)

	reader := bufio.NewReader(os.Stdin)
	password, err := readPassword("Password: ", os.Stdin, reader)
	if err != nil {
		return err
	}
	confirm, err := readPassword("Confirm password: ", os.Stdin, reader)
	if err != nil {
		return err
	}
	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	st, err := store.Open(ctx, cfg.Database.Driver, cfg.Database.Location())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer st.Close()

	svc := auth.NewService(st, st, server.AuthOptions(cfg, logger))
	user, err := svc.SignUp(ctx, args.Email, args.Username, password)
	if err != nil {
		return fmt.Errorf("creating user: %w", err)
	}

	color.New(color.FgGreen).Print("✓ ")
	fmt.Printf("created user %d (%s)\n", user.ID, user.Email)
	return nil
}

// runHealth checks the database and dataset directly, or with --http asks
// a running server's readiness endpoint.
func runHealth(ctx context.Context, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	if len(args) > 0 && args[0] == "--http" {
		return checkHTTP(ctx, cfg)
	}

	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	st, err := store.Open(ctx, cfg.Database.Driver, cfg.Database.Location())
	if err != nil {
		red.Print("✗ ")
		fmt.Printf("database (%s): %v\n", cfg.Database.Driver, err)
		return fmt.Errorf("unhealthy")
	}
	defer st.Close()

	if err := st.Ping(ctx); err != nil {
		red.Print("✗ ")
		fmt.Printf("database (%s): %v\n", cfg.Database.Driver, err)
		return fmt.Errorf("unhealthy")
	}
	green.Print("✓ ")
	fmt.Printf("database (%s) reachable\n", cfg.Database.Driver)

	src, err := sales.SourceFor(ctx, cfg.Data.SalesCSV, cfg.Data.S3)
	if err == nil {
		var ds *sales.Dataset
		ds, err = sales.Load(ctx, src)
		if err == nil {
			green.Print("✓ ")
			fmt.Printf("dataset %s: %d sales\n", ds.Source, ds.Len())
			return nil
		}
	}
	red.Print("✗ ")
	fmt.Printf("dataset %s: %v\n", cfg.Data.SalesCSV, err)
	return fmt.Errorf("unhealthy")
}

func checkHTTP(ctx context.Context, cfg *config.Config) error {
	url := fmt.Sprintf("http://%s/ready", cfg.Server.HTTPAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d: %s", resp.StatusCode, body)
	}

	fmt.Println(string(body))
	return nil
}
