package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/oraclevm/oracle-vm/internal/config"
	"github.com/oraclevm/oracle-vm/internal/db"
)

const defaultRecentPrices = 10

// RecentPricesCmd prints the most recent published aggregates, newest first:
//
//	./oracle-vm recent-prices 5 --config config.yml
func RecentPricesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recent-prices [limit]",
		Short: "Prints the most recent aggregated prices",
		Args:  cobra.MaximumNArgs(1),
		RunE:  recentPrices,
	}

	return cmd
}

func recentPrices(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	limit := int64(defaultRecentPrices)
	if len(args) == 1 {
		n, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || n <= 0 {
			return fmt.Errorf("limit must be a positive integer, got %q", args[0])
		}
		limit = n
	}

	dbClient, err := openDb(cmd)
	if err != nil {
		return err
	}
	defer dbClient.Disconnect(ctx)

	docs, err := dbClient.GetRecentAggregatedPrices(ctx, limit)
	if err != nil {
		return err
	}
	return printJSON(cmd, docs)
}

// GetProofCmd prints a stored settlement proof by its id,
// kind:settlement_id:height.
func GetProofCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get-proof [id]",
		Short: "Prints a stored settlement proof",
		Args:  cobra.ExactArgs(1),
		RunE:  getProof,
	}

	return cmd
}

func getProof(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	dbClient, err := openDb(cmd)
	if err != nil {
		return err
	}
	defer dbClient.Disconnect(ctx)

	doc, err := dbClient.GetSettlementProof(ctx, args[0])
	if err != nil {
		if db.IsNotFoundError(err) {
			return fmt.Errorf("no settlement proof with id %q", args[0])
		}
		return err
	}
	return printJSON(cmd, doc)
}

func openDb(cmd *cobra.Command) (*db.Database, error) {
	cfg, err := config.New(GetConfigPath())
	if err != nil {
		return nil, err
	}
	return db.New(cmd.Context(), cfg.Db)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
