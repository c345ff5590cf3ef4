package main

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-mvc/pkg/binding"
	"github.com/goliatone/go-mvc/pkg/openapi"
)

func newParamsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "params <openapi-file|url> [operation-id]",
		Short: "List the binding parameters an OpenAPI document declares",
		Long: `Params loads an OpenAPI document and prints, per operation, the
parameters a controller would bind: where each is read from, its Go type,
its constraints, and whether failures are recorded (opt-in) or raised.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := parseSource(args[0])
			if err != nil {
				return err
			}
			data, err := openapi.NewLoader().Load(cmd.Context(), src)
			if err != nil {
				return err
			}
			ops, err := openapi.Operations(cmd.Context(), data)
			if err != nil {
				return err
			}

			ids := make([]string, 0, len(ops))
			if len(args) == 2 {
				if _, ok := ops[args[1]]; !ok {
					return fmt.Errorf("params: operation %q not found", args[1])
				}
				ids = append(ids, args[1])
			} else {
				for id := range ops {
					ids = append(ids, id)
				}
				sort.Strings(ids)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "OPERATION\tPARAM\tSOURCE\tTYPE\tCONSTRAINTS\tMODE")
			for _, id := range ids {
				for _, p := range ops[id].Params {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", id, p.Name, sourceLabel(p.Source), p.Type, constraintLabel(p), modeLabel(p))
				}
			}
			return w.Flush()
		},
	}
}

func parseSource(raw string) (openapi.Source, error) {
	path := strings.TrimSpace(raw)
	if path == "" {
		return openapi.Source{}, fmt.Errorf("params: source is required")
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return openapi.SourceFromURL(path)
	}
	return openapi.SourceFromFile(path), nil
}

func sourceLabel(source binding.Source) string {
	if source == binding.SourceAny {
		return "any"
	}
	return string(source)
}

func constraintLabel(p binding.Param) string {
	names := make([]string, 0, len(p.Constraints))
	for _, c := range p.Constraints {
		names = append(names, c.Name())
	}
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ",")
}

func modeLabel(p binding.Param) string {
	if p.OptIn {
		return "opt-in"
	}
	return "opt-out"
}
