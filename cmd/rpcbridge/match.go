package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/eth2030/rpcbridge/geth"
	"github.com/eth2030/rpcbridge/log"
	"github.com/eth2030/rpcbridge/rpc"
)

func matchCmd(a *app) *cobra.Command {
	var (
		receipts bool
		pretty   bool
	)

	cmd := &cobra.Command{
		Use:   "match <filter-file> [logs-file]",
		Short: "Select the logs an eth_getLogs filter would return",
		Long: `Match reads a filter in the node's JSON form and a JSON array of logs, from
logs-file or stdin, and writes the logs the filter selects in input order.

With --receipts the input is an array of receipts. Receipts whose logsBloom
cannot hold a match are skipped without looking at their logs.

Numeric block bounds are applied to each log's block number. Tag bounds
depend on the chain head and are treated as open.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("pretty") {
				pretty = a.cfg.Output.Pretty
			}
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read filter: %w", err)
			}
			var f rpc.Filter
			if err := json.Unmarshal(raw, &f); err != nil {
				return geth.DecodeError(err)
			}
			input, err := readInput(a.stdin, args[1:])
			if err != nil {
				return err
			}

			m := &matcher{filter: &f, logger: a.logger.Module("match")}
			var out []*rpc.Log
			if receipts {
				out, err = m.matchReceipts(input)
			} else {
				out, err = m.matchLogs(input)
			}
			if err != nil {
				return err
			}
			return writeJSON(a.stdout, out, pretty)
		},
	}

	cmd.Flags().BoolVar(&receipts, "receipts", false, "input is a JSON array of receipts")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "indent JSON output")
	return cmd
}

// matcher applies one filter to logs and receipts.
type matcher struct {
	filter *rpc.Filter
	logger *log.Logger
}

func (m *matcher) matches(l *rpc.Log) bool {
	return l != nil && m.filter.MatchesBlock(l) && m.filter.MatchesLog(l)
}

func (m *matcher) matchLogs(input []byte) ([]*rpc.Log, error) {
	var logs []*rpc.Log
	if err := json.Unmarshal(input, &logs); err != nil {
		return nil, fmt.Errorf("%w: logs must be a JSON array: %v", geth.ErrMalformedInput, err)
	}
	out := []*rpc.Log{}
	for _, l := range logs {
		if m.matches(l) {
			out = append(out, l)
		}
	}
	m.logger.Info("logs matched", "logs", len(logs), "matched", len(out))
	return out, nil
}

func (m *matcher) matchReceipts(input []byte) ([]*rpc.Log, error) {
	var receipts []*rpc.Receipt
	if err := json.Unmarshal(input, &receipts); err != nil {
		return nil, fmt.Errorf("%w: receipts must be a JSON array: %v", geth.ErrMalformedInput, err)
	}
	out := []*rpc.Log{}
	var skipped int
	for _, r := range receipts {
		if r == nil {
			continue
		}
		if !m.filter.MatchesBloom(r.LogsBloom) {
			skipped++
			continue
		}
		for _, l := range r.Logs {
			if m.matches(l) {
				out = append(out, l)
			}
		}
	}
	m.logger.Info("receipts matched", "receipts", len(receipts), "skipped", skipped, "matched", len(out))
	return out, nil
}
