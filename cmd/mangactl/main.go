package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/tendant/manga-content/pkg/mangacontent"
	"github.com/tendant/manga-content/pkg/mangacontent/config"
	repopg "github.com/tendant/manga-content/pkg/mangacontent/repo/postgres"
)

const usage = `Manga Content CLI

Operator tool for the manga content database.

USAGE:
  mangactl <command> [options]

COMMANDS:
  migrate       Apply database migrations
  create-user   Register an account
  token         Issue a bearer token for an account
  list          List manga with optional filtering
  stats         Count manga by moderation status

ENVIRONMENT VARIABLES:
  DATABASE_URL      PostgreSQL connection string (required except for token)
  DB_SCHEMA         PostgreSQL schema name (default: manga)
  JWT_SECRET        Token signing secret (token command)
  TOKEN_TTL         Token lifetime (default: 24h)

  Configuration can be loaded from a .env file in the current directory.

EXAMPLES:
  mangactl migrate
  mangactl create-user --email=mod@example.com --password=secret --role=moderator
  mangactl token --email=mod@example.com --password=secret
  mangactl list --status=pending
  mangactl list --owner-id=550e8400-e29b-41d4-a716-446655440000 --json
  mangactl stats --json

OPTIONS:
  --email=<email>       Account email (create-user, token)
  --password=<secret>   Account password (create-user, token)
  --role=<role>         user, moderator or admin (create-user, default: user)
  --status=<status>     pending, approved or rejected (list)
  --owner-id=<uuid>     Filter by owner (list)
  --json                Output as JSON
`

type options struct {
	email    string
	password string
	role     mangacontent.Role
	filter   mangacontent.ListFilter
	json     bool
}

func main() {
	// Load .env file if it exists (silently ignore if not found)
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(1)
	}

	command := os.Args[1]
	if command == "help" || command == "--help" || command == "-h" {
		fmt.Print(usage)
		os.Exit(0)
	}

	opts, err := parseOptions(os.Args[2:])
	if err != nil {
		log.Fatalf("Invalid options: %v", err)
	}

	cfg, err := config.Load(config.WithEnv())
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	switch command {
	case "migrate":
		handleMigrate(ctx, cfg)
	case "create-user":
		handleCreateUser(ctx, cfg, opts)
	case "token":
		handleToken(ctx, cfg, opts)
	case "list":
		handleList(ctx, cfg, opts)
	case "stats":
		handleStats(ctx, cfg, opts)
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		fmt.Print(usage)
		os.Exit(1)
	}
}

func parseOptions(args []string) (options, error) {
	opts := options{role: mangacontent.RoleUser}

	for _, arg := range args {
		if arg == "--json" {
			opts.json = true
			continue
		}

		key, value := parseFlag(arg)
		switch key {
		case "email":
			opts.email = value
		case "password":
			opts.password = value
		case "role":
			role, err := parseRole(value)
			if err != nil {
				return options{}, err
			}
			opts.role = role
		case "status":
			status, err := mangacontent.ParseStatus(value)
			if err != nil {
				return options{}, err
			}
			opts.filter.Status = &status
		case "owner-id":
			id, err := uuid.Parse(value)
			if err != nil {
				return options{}, fmt.Errorf("invalid owner-id %q: %w", value, err)
			}
			opts.filter.OwnerID = &id
		case "":
			return options{}, fmt.Errorf("unexpected argument %q", arg)
		}
	}

	return opts, nil
}

func parseFlag(arg string) (string, string) {
	if !strings.HasPrefix(arg, "--") {
		return "", ""
	}
	key, value, found := strings.Cut(arg[2:], "=")
	if !found {
		return key, "true"
	}
	return key, value
}

func parseRole(s string) (mangacontent.Role, error) {
	switch role := mangacontent.Role(strings.ToLower(s)); role {
	case mangacontent.RoleUser, mangacontent.RoleModerator, mangacontent.RoleAdmin:
		return role, nil
	default:
		return "", fmt.Errorf("unknown role %q (use user, moderator or admin)", s)
	}
}

func requirePostgres(cfg *config.ServerConfig) {
	if !cfg.UsesPostgres() {
		log.Fatalf("DATABASE_URL must point to PostgreSQL for this command")
	}
}

func handleMigrate(ctx context.Context, cfg *config.ServerConfig) {
	requirePostgres(cfg)
	if err := repopg.Migrate(ctx, cfg.DatabaseURL, cfg.DBSchema); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	fmt.Printf("Schema %q is up to date\n", cfg.DBSchema)
}

func handleCreateUser(ctx context.Context, cfg *config.ServerConfig, opts options) {
	requirePostgres(cfg)
	if opts.email == "" || opts.password == "" {
		log.Fatalf("--email and --password are required")
	}

	pool, err := cfg.BuildPool(ctx)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	identity, err := repopg.NewDirectory(pool).AddUser(ctx, opts.email, opts.password, opts.role)
	if err != nil {
		log.Fatalf("Failed to create user: %v", err)
	}

	if opts.json {
		printJSON(identity)
		return
	}
	fmt.Printf("Created %s %s (%s)\n", identity.Role, opts.email, identity.ID)
}

func handleToken(ctx context.Context, cfg *config.ServerConfig, opts options) {
	if opts.email == "" || opts.password == "" {
		log.Fatalf("--email and --password are required")
	}

	rt, err := cfg.Build(ctx, nil)
	if err != nil {
		log.Fatalf("Failed to build runtime: %v", err)
	}
	defer rt.Close()

	identity, token, expiresAt, err := rt.Auth.Login(ctx, opts.email, opts.password)
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}

	if opts.json {
		printJSON(map[string]interface{}{
			"token":     token,
			"expiresAt": expiresAt,
			"user":      identity,
		})
		return
	}
	fmt.Println(token)
}

func handleList(ctx context.Context, cfg *config.ServerConfig, opts options) {
	items := listManga(ctx, cfg, opts.filter)

	if opts.json {
		printJSON(items)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tTITLE\tOWNER\tSTATUS\tFILES\tCOVER\tCREATED\n")
	for _, m := range items {
		cover := "-"
		if m.Cover != nil {
			cover = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			m.ID.String()[:8]+"...",
			truncate(m.Title, 30),
			m.OwnerID.String()[:8]+"...",
			m.Status,
			len(m.Files),
			cover,
			m.CreatedAt.Format("2006-01-02 15:04:05"),
		)
	}
	w.Flush()

	fmt.Printf("\nTotal: %d\n", len(items))
}

type statistics struct {
	Total    int                         `json:"total"`
	ByStatus map[mangacontent.Status]int `json:"byStatus"`
	Files    int                         `json:"files"`
	Bytes    int64                       `json:"bytes"`
	Oldest   *time.Time                  `json:"oldest,omitempty"`
	Newest   *time.Time                  `json:"newest,omitempty"`
}

func handleStats(ctx context.Context, cfg *config.ServerConfig, opts options) {
	stats := computeStatistics(listManga(ctx, cfg, opts.filter))

	if opts.json {
		printJSON(stats)
		return
	}

	fmt.Println("=== Manga Statistics ===")
	fmt.Printf("\nTotal Count: %d\n", stats.Total)
	fmt.Println("\nBy Status:")
	for _, status := range []mangacontent.Status{mangacontent.StatusPending, mangacontent.StatusApproved, mangacontent.StatusRejected} {
		fmt.Printf("  %-10s: %d\n", status, stats.ByStatus[status])
	}
	fmt.Printf("\nFiles: %d (%d bytes)\n", stats.Files, stats.Bytes)
	if stats.Oldest != nil && stats.Newest != nil {
		fmt.Println("\nTime Range:")
		fmt.Printf("  Oldest: %s\n", stats.Oldest.Format(time.RFC3339))
		fmt.Printf("  Newest: %s\n", stats.Newest.Format(time.RFC3339))
	}
}

func computeStatistics(items []*mangacontent.Manga) statistics {
	stats := statistics{ByStatus: map[mangacontent.Status]int{}}
	for _, m := range items {
		stats.Total++
		stats.ByStatus[m.Status]++
		for _, f := range m.Files {
			stats.Files++
			stats.Bytes += f.Size
		}
		created := m.CreatedAt
		if stats.Oldest == nil || created.Before(*stats.Oldest) {
			stats.Oldest = &created
		}
		if stats.Newest == nil || created.After(*stats.Newest) {
			stats.Newest = &created
		}
	}
	return stats
}

func listManga(ctx context.Context, cfg *config.ServerConfig, filter mangacontent.ListFilter) []*mangacontent.Manga {
	requirePostgres(cfg)

	pool, err := cfg.BuildPool(ctx)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	items, err := repopg.NewWithPool(pool).ListManga(ctx, filter)
	if err != nil {
		log.Fatalf("Failed to list manga: %v", err)
	}
	return items
}

func printJSON(v interface{}) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(data))
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
