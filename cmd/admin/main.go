package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/tendant/community-content/pkg/communitycontent"
	"github.com/tendant/community-content/pkg/communitycontent/config"
	"github.com/tendant/community-content/pkg/communitycontent/moderation"
)

const usage = `Community Content Admin CLI

An operator tool that talks to the content store directly.

USAGE:
  admin <command> [arguments] [options]

COMMANDS:
  stats                 Per-kind totals and pending counts
  contributors          Content count per contributor, joined with the roster
  pending               Items waiting for review
  list                  Items in every state
  approve <id>          Approve a pending item
  reject <id>           Delete a pending item
  delete <id>           Delete an item in any state
  token <email>         Print a signed token for email

ENVIRONMENT VARIABLES:
  DATABASE_URL      'memory' (default) or a PostgreSQL connection string
  DB_SCHEMA         PostgreSQL schema name (default: community)
  JWT_SECRET        Token signing secret (required)
  OPERATOR_EMAIL    Operator recorded on moderation events (default: cli@localhost)

  Configuration can be loaded from a .env file in the current directory.
  Command line environment variables override .env file values.

EXAMPLES:
  admin pending
  admin list --state=approved --kind=project --limit=20
  admin approve 550e8400-e29b-41d4-a716-446655440000
  admin token root@example.com --operator --ttl=2h
  admin contributors --json

OPTIONS:
  --state=<pending|approved>   Filter list by state
  --kind=<note|project>        Filter list by kind
  --author=<email>             Filter list by author
  --limit=<n>                  Maximum results (list only, default: all)
  --offset=<n>                 Pagination offset (list only, default: 0)
  --operator                   Issue an operator token (token only)
  --ttl=<duration>             Token lifetime (token only, default: 24h)
  --json                       Output as JSON
`

type options struct {
	positional []string
	flags      map[string]string
	json       bool
}

func main() {
	// Load .env file if it exists (silently ignore if not found)
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Print(usage, "\n")
		os.Exit(1)
	}

	command := os.Args[1]
	if command == "help" || command == "--help" || command == "-h" {
		fmt.Print(usage, "\n")
		os.Exit(0)
	}

	cfg, err := config.Load(config.WithEnv())
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	svcs, err := cfg.BuildServices(ctx)
	if err != nil {
		log.Fatalf("Failed to build services: %v", err)
	}
	defer svcs.Close()

	// Direct store access is operator access
	operator := communitycontent.NewOperator(getEnv("OPERATOR_EMAIL", "cli@localhost"))
	opts := parseArgs(os.Args[2:])

	switch command {
	case "stats":
		handleStats(ctx, svcs, operator, opts)
	case "contributors":
		handleContributors(ctx, svcs, operator, opts)
	case "pending":
		handlePending(ctx, svcs, operator, opts)
	case "list":
		handleList(ctx, svcs, operator, opts)
	case "approve":
		handleApprove(ctx, svcs, operator, opts)
	case "reject":
		handleRemove(ctx, svcs, operator, opts, true)
	case "delete":
		handleRemove(ctx, svcs, operator, opts, false)
	case "token":
		handleToken(svcs, opts)
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		fmt.Print(usage, "\n")
		os.Exit(1)
	}
}

func parseArgs(args []string) options {
	opts := options{flags: map[string]string{}}
	for _, arg := range args {
		if arg == "--json" {
			opts.json = true
			continue
		}
		key, value := parseFlag(arg)
		if key == "" {
			opts.positional = append(opts.positional, arg)
			continue
		}
		opts.flags[key] = value
	}
	return opts
}

func parseFlag(arg string) (string, string) {
	if len(arg) > 2 && arg[:2] == "--" {
		arg = arg[2:]
		for i, c := range arg {
			if c == '=' {
				return arg[:i], arg[i+1:]
			}
		}
		return arg, "true"
	}
	return "", ""
}

func itemArg(opts options) uuid.UUID {
	if len(opts.positional) != 1 {
		log.Fatalf("Expected exactly one item id")
	}
	id, err := uuid.Parse(opts.positional[0])
	if err != nil {
		log.Fatalf("Invalid item id %q: %v", opts.positional[0], err)
	}
	return id
}

func printJSON(v interface{}) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(data))
}

func handleStats(ctx context.Context, svcs *config.Services, operator communitycontent.Principal, opts options) {
	s, err := svcs.Stats.ComputeStats(ctx, operator)
	if err != nil {
		log.Fatalf("Failed to compute statistics: %v", err)
	}

	if opts.json {
		printJSON(s)
		return
	}

	fmt.Println("=== Content Statistics ===")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "\nKIND\tTOTAL\tPENDING\n")
	for _, k := range communitycontent.Kinds {
		fmt.Fprintf(w, "%s\t%d\t%d\n", k, s.TotalByKind[k], s.PendingByKind[k])
	}
	w.Flush()

	fmt.Printf("\nContributors: %d\n", s.TotalContributors)
	fmt.Printf("Computed at: %s\n", s.ComputedAt.Format(time.RFC3339))
}

func handleContributors(ctx context.Context, svcs *config.Services, operator communitycontent.Principal, opts options) {
	rows, err := svcs.Stats.ComputeContributorCounts(ctx, operator)
	if err != nil {
		log.Fatalf("Failed to compute contributor counts: %v", err)
	}

	if opts.json {
		printJSON(rows)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "EMAIL\tNAME\tCOUNT\tREGISTERED\n")
	for _, row := range rows {
		registered := "-"
		if row.RegisteredAt != nil {
			registered = row.RegisteredAt.Format("2006-01-02")
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", row.Email, truncate(row.DisplayName, 24), row.Count, registered)
	}
	w.Flush()
}

func handlePending(ctx context.Context, svcs *config.Services, operator communitycontent.Principal, opts options) {
	items, err := svcs.Moderation.ListPending(ctx, operator)
	if err != nil {
		log.Fatalf("Failed to list pending items: %v", err)
	}

	if opts.json {
		printJSON(items)
		return
	}
	printItems(items)
	fmt.Printf("\nPending: %d\n", len(items))
}

func handleList(ctx context.Context, svcs *config.Services, operator communitycontent.Principal, opts options) {
	var listOpts []moderation.ListItemsOption
	if v, ok := opts.flags["state"]; ok {
		listOpts = append(listOpts, moderation.WithState(communitycontent.ApprovalState(v)))
	}
	if v, ok := opts.flags["kind"]; ok {
		listOpts = append(listOpts, moderation.WithKind(communitycontent.NormalizeKind(v)))
	}
	if v, ok := opts.flags["author"]; ok {
		listOpts = append(listOpts, moderation.WithAuthor(communitycontent.NormalizeEmail(v)))
	}
	limit, offset := 0, 0
	if v, ok := opts.flags["limit"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	if v, ok := opts.flags["offset"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			offset = n
		}
	}
	listOpts = append(listOpts, moderation.WithPagination(limit, offset))

	resp, err := svcs.Moderation.ListAll(ctx, operator, moderation.NewListItemsRequest(listOpts...))
	if err != nil {
		log.Fatalf("Failed to list items: %v", err)
	}

	if opts.json {
		printJSON(resp)
		return
	}
	printItems(resp.Items)

	fmt.Printf("\nTotal: %d", len(resp.Items))
	if resp.HasMore {
		fmt.Printf(" (has more, use --offset=%d to continue)", resp.Offset+resp.Limit)
	}
	fmt.Println()
}

func printItems(items []*communitycontent.Item) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tKIND\tSTATE\tTITLE\tAUTHOR\tCREATED\n")
	for _, item := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			item.ID.String(),
			item.Kind,
			item.State(),
			truncate(item.Title, 30),
			item.AuthorEmail,
			item.CreatedAt.Format("2006-01-02 15:04:05"),
		)
	}
	w.Flush()
}

func handleApprove(ctx context.Context, svcs *config.Services, operator communitycontent.Principal, opts options) {
	item, err := svcs.Moderation.Approve(ctx, operator, itemArg(opts))
	if err != nil {
		log.Fatalf("Failed to approve item: %v", err)
	}
	if opts.json {
		printJSON(item)
		return
	}
	fmt.Printf("Approved %s (%s)\n", item.ID, item.Title)
}

func handleRemove(ctx context.Context, svcs *config.Services, operator communitycontent.Principal, opts options, pendingOnly bool) {
	id := itemArg(opts)
	var err error
	if pendingOnly {
		err = svcs.Moderation.Reject(ctx, operator, id)
	} else {
		err = svcs.Moderation.Delete(ctx, operator, id)
	}
	if err != nil {
		log.Fatalf("Failed to remove item: %v", err)
	}
	if opts.json {
		printJSON(map[string]interface{}{"id": id, "deleted": true})
		return
	}
	fmt.Printf("Deleted %s\n", id)
}

func handleToken(svcs *config.Services, opts options) {
	if len(opts.positional) != 1 {
		log.Fatalf("Expected exactly one email")
	}
	ttl := 24 * time.Hour
	if v, ok := opts.flags["ttl"]; ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			log.Fatalf("Invalid ttl %q: %v", v, err)
		}
		ttl = d
	}
	_, isOperator := opts.flags["operator"]

	token, err := svcs.Gate.IssueToken(opts.positional[0], isOperator, ttl)
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}
	if opts.json {
		printJSON(map[string]interface{}{"token": token, "operator": isOperator, "expires_in": ttl.String()})
		return
	}
	fmt.Println(token)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
