package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/eth2030/rpcbridge/geth"
	"github.com/eth2030/rpcbridge/log"
	"github.com/eth2030/rpcbridge/metrics"
	"github.com/eth2030/rpcbridge/rpc"
)

func convertCmd(a *app) *cobra.Command {
	var (
		direction string
		batch     bool
		workers   int
		pretty    bool
		stats     bool
	)

	cmd := &cobra.Command{
		Use:   "convert <entity> [file]",
		Short: "Convert one JSON record or a batch of them",
		Long: fmt.Sprintf(`Convert reads a JSON record from file, or stdin when no file is given,
and writes the converted record to stdout.

With --batch the input is a JSON array and the output is an array of
JSON-RPC responses in input order, one per element, with the element's
index as id. Failed elements carry a JSON-RPC error naming the field.

Entities: %s`, strings.Join(geth.Entities(), ", ")),
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			codec, ok := geth.LookupCodec(args[0])
			if !ok {
				return fmt.Errorf("unknown entity %q (known: %s)", args[0], strings.Join(geth.Entities(), ", "))
			}
			dir, err := geth.ParseDirection(direction)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("workers") {
				workers = a.cfg.Batch.Workers
			}
			if !cmd.Flags().Changed("pretty") {
				pretty = a.cfg.Output.Pretty
			}
			if workers < 1 {
				return fmt.Errorf("--workers must be at least 1, got %d", workers)
			}

			input, err := readInput(a.stdin, args[1:])
			if err != nil {
				return err
			}
			c := &converter{
				codec:    codec,
				dir:      dir,
				registry: metrics.DefaultRegistry,
				logger:   a.logger.Conversion(codec.Entity, string(dir)),
			}

			var out any
			var convErr error
			if batch {
				var responses []*rpc.Response
				if responses, convErr = c.convertBatch(cmd.Context(), input, workers); responses != nil {
					out = responses
				}
			} else {
				out, convErr = c.convertOne(input)
			}
			if out != nil {
				if err := writeJSON(a.stdout, out, pretty); err != nil {
					return err
				}
			}
			if stats {
				printStats(a.stderr, metrics.DefaultRegistry)
			}
			return convErr
		},
	}

	cmd.Flags().StringVarP(&direction, "direction", "d", string(geth.ToGeth), "to-geth or from-geth")
	cmd.Flags().BoolVar(&batch, "batch", false, "input is a JSON array of records")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent conversions in batch mode (default from config)")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "indent JSON output")
	cmd.Flags().BoolVar(&stats, "stats", false, "print conversion metrics to stderr")
	return cmd
}

// readInput reads the named file, or r when no file is named or the name
// is "-".
func readInput(r io.Reader, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return data, nil
}

func writeJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// converter runs one codec in one direction and records every conversion
// in the registry.
type converter struct {
	codec    geth.Codec
	dir      geth.Direction
	registry *metrics.Registry
	logger   *log.Logger
}

func (c *converter) convert(input []byte) (any, error) {
	done := metrics.StartConversion(c.registry, c.codec.Entity, string(c.dir))
	out, err := c.codec.Convert(c.dir, input)
	if err != nil {
		done(geth.KindOf(err))
		return nil, err
	}
	done("")
	return out, nil
}

func (c *converter) convertOne(input []byte) (any, error) {
	out, err := c.convert(input)
	if err != nil {
		c.logger.Warn("conversion failed", "err", err)
		return nil, err
	}
	return out, nil
}

// convertBatch converts every element of a JSON array with at most workers
// conversions in flight. Element failures become error responses; the
// returned error reports how many failed.
func (c *converter) convertBatch(ctx context.Context, input []byte, workers int) ([]*rpc.Response, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(input, &items); err != nil {
		return nil, fmt.Errorf("%w: batch input must be a JSON array: %v", geth.ErrMalformedInput, err)
	}

	responses := make([]*rpc.Response, len(items))
	failed := make([]bool, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			id := json.RawMessage(strconv.Itoa(i))
			out, err := c.convert(item)
			if err != nil {
				resp := rpc.ConversionErrorResponse(id, err, c.codec.Inbound(c.dir))
				c.logger.Warn("conversion failed", "index", i, "code", resp.Error.Code, "reason", geth.KindOf(err), "err", err)
				responses[i] = resp
				failed[i] = true
				return nil
			}
			responses[i] = rpc.SuccessResponse(id, out)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var nfailed int
	for _, f := range failed {
		if f {
			nfailed++
		}
	}
	c.logger.Info("batch converted", "items", len(items), "failed", nfailed, "workers", workers)
	if nfailed > 0 {
		return responses, fmt.Errorf("%d of %d conversions failed", nfailed, len(items))
	}
	return responses, nil
}
