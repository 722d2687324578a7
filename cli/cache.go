package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/server/cache"
	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/server/cache/ttl"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the local cache",
}

// withManager opens the cache manager for one-shot commands.
func withManager(cmd *cobra.Command, fn func(ctx context.Context, m *cache.Manager) error) error {
	cfg := loadConfig()
	logger, err := cliLogger(cfg)
	if err != nil {
		return err
	}

	m, err := cache.NewManager(&cfg.Cache, logger)
	if err != nil {
		return err
	}
	defer m.Shutdown(context.Background())

	return fn(cmd.Context(), m)
}

func boolCell(valid bool) string {
	if valid {
		return pterm.Green("valid")
	}
	return pterm.Red("stale")
}

var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show cache freshness per scope",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(cmd, func(ctx context.Context, m *cache.Manager) error {
			report, err := m.Status(ctx)
			if err != nil {
				return err
			}

			rows := pterm.TableData{
				{"Scope", "Count", "State", "Expires"},
				{"solutions", strconv.FormatInt(report.Solutions.Count, 10), boolCell(report.Solutions.IsValid), report.Solutions.ExpiresAt},
				{"tables", strconv.FormatInt(report.Tables.Count, 10), boolCell(report.Tables.IsValid), report.Tables.ExpiresAt},
				{"members", strconv.FormatInt(report.Members.Count, 10), boolCell(report.Members.IsValid), report.Members.ExpiresAt},
				{"teams", strconv.FormatInt(report.Teams.Count, 10), boolCell(report.Teams.IsValid), report.Teams.ExpiresAt},
			}
			for _, rec := range report.Records {
				rows = append(rows, []string{
					"records/" + rec.TableID,
					strconv.FormatInt(rec.Count, 10),
					boolCell(rec.IsValid),
					rec.ExpiresAt,
				})
			}

			return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
		})
	},
}

var (
	refreshResource string
	refreshTable    string
	refreshSolution string
)

var cacheRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Invalidate a cache scope",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(cmd, func(ctx context.Context, m *cache.Manager) error {
			var scope ttl.Scope
			var id string
			switch refreshResource {
			case "solutions":
				scope = ttl.ScopeSolutions
			case "tables":
				scope, id = ttl.ScopeTableList, refreshSolution
			case "records":
				if refreshTable == "" {
					return fmt.Errorf("--table is required for records")
				}
				scope, id = ttl.ScopeRecords, refreshTable
			case "members":
				scope = ttl.ScopeMembers
			case "teams":
				scope = ttl.ScopeTeams
			default:
				return fmt.Errorf("unknown resource %q", refreshResource)
			}

			if err := m.Invalidate(ctx, scope, id); err != nil {
				return err
			}
			pterm.Success.Printfln("invalidated %s", refreshResource)
			return nil
		})
	},
}

var warmCount int

var cacheWarmCmd = &cobra.Command{
	Use:   "warm [table-id ...]",
	Short: "Show which tables a warm-up would target",
	Long: `Resolves the warm-up selection: the given table ids, or the most
active tables by historical hit count when none are given. The running
server performs the actual pre-fetch via the warm_cache tool.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(cmd, func(ctx context.Context, m *cache.Manager) error {
			spec := ttl.WarmSpec{TableIDs: args, Auto: len(args) == 0}
			ids, err := m.WarmSelection(ctx, spec, warmCount)
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				pterm.Info.Println("no tables selected (no hit history yet)")
				return nil
			}
			for _, id := range ids {
				pterm.Println(id)
			}
			return nil
		})
	},
}

var ttlCmd = &cobra.Command{
	Use:   "ttl",
	Short: "Read and write per-table TTLs",
}

var ttlGetCmd = &cobra.Command{
	Use:   "get <table-id>",
	Short: "Show the effective TTL for a table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(cmd, func(ctx context.Context, m *cache.Manager) error {
			d, err := m.GetTTL(ctx, args[0])
			if err != nil {
				return err
			}
			pterm.Printfln("%s: %s", args[0], d)
			return nil
		})
	},
}

var (
	ttlMutationLevel string
	ttlNotes         string
)

var ttlSetCmd = &cobra.Command{
	Use:   "set <table-id> <seconds>",
	Short: "Configure the TTL for a table",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		seconds, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("seconds must be an integer: %w", err)
		}
		return withManager(cmd, func(ctx context.Context, m *cache.Manager) error {
			if err := m.SetTTL(ctx, args[0], time.Duration(seconds)*time.Second, ttlMutationLevel, ttlNotes); err != nil {
				return err
			}
			pterm.Success.Printfln("ttl for %s set to %ds", args[0], seconds)
			return nil
		})
	},
}

func init() {
	cacheRefreshCmd.Flags().StringVar(&refreshResource, "resource", "records", "scope to invalidate (solutions, tables, records, members, teams)")
	cacheRefreshCmd.Flags().StringVar(&refreshTable, "table", "", "table id (records)")
	cacheRefreshCmd.Flags().StringVar(&refreshSolution, "solution", "", "solution id (tables)")

	cacheWarmCmd.Flags().IntVarP(&warmCount, "count", "n", 5, "number of tables for auto selection")

	ttlSetCmd.Flags().StringVar(&ttlMutationLevel, "mutation-level", "", "mutation level label")
	ttlSetCmd.Flags().StringVar(&ttlNotes, "notes", "", "free-form notes")

	ttlCmd.AddCommand(ttlGetCmd, ttlSetCmd)
	cacheCmd.AddCommand(cacheStatusCmd, cacheRefreshCmd, cacheWarmCmd, ttlCmd)
	rootCmd.AddCommand(cacheCmd)
}
