package main

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/tools/go/ssa"

	"github.com/guardlib/guards"
	"github.com/guardlib/guards/log"
)

type blockFacts struct {
	Block int      `json:"block"`
	Lt    []string `json:"lt,omitempty"`
	Eq    []string `json:"eq,omitempty"`
}

type condReport struct {
	Cond   string       `json:"cond"`
	Blocks []blockFacts `json:"blocks"`
}

type funcReport struct {
	Function string       `json:"function"`
	Conds    []condReport `json:"conditions"`
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		funcFilter string
		jsonOut    bool
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:   "guards [packages]",
		Short: "Report guard-condition facts for Go packages",
		Long: `guards loads the given packages (or .go files), builds SSA, and reports,
for every branch condition, the linear comparison facts that hold
unconditionally inside the blocks the condition controls.`,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := defaultConfig()
			if configPath != "" {
				c, err := loadConfig(configPath)
				if err != nil {
					return err
				}
				cfg = c
			}
			if cmd.Flags().Changed("func") {
				cfg.FuncFilter = funcFilter
			}
			if cmd.Flags().Changed("json") {
				cfg.JSON = jsonOut
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			log.SetLevelByName(cfg.LogLevel)

			filter, err := regexp.Compile(cfg.FuncFilter)
			if err != nil {
				return errors.Wrap(err, "invalid function filter")
			}

			_, pkgs, err := guards.LoadPackages(args...)
			if err != nil {
				return err
			}

			reports := analyze(pkgs, filter)
			return emit(cmd.OutOrStdout(), reports, cfg.JSON)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file")
	cmd.Flags().StringVar(&funcFilter, "func", "", "only analyze functions matching this regexp")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit the report as JSON")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, error, disabled)")
	return cmd
}

func analyze(pkgs []*ssa.Package, filter *regexp.Regexp) []funcReport {
	var reports []funcReport
	for _, fn := range guards.SourceFunctions(pkgs) {
		if len(fn.Blocks) == 0 || !filter.MatchString(fn.String()) {
			continue
		}
		log.Debug.Printf("analyzing %s", fn)
		a := guards.NewAnalysis(fn)
		var conds []condReport
		for _, cond := range a.Conditions() {
			cr := condReport{Cond: cond.Name()}
			for _, b := range fn.Blocks {
				bf := blockFacts{Block: b.Index}
				for _, f := range a.EnsuredLtFacts(cond, b) {
					bf.Lt = append(bf.Lt, fmt.Sprintf("(%s < %s + %d)=%v", f.Left.Name(), f.Right.Name(), f.K, f.IsLt))
				}
				for _, f := range a.EnsuredEqFacts(cond, b) {
					bf.Eq = append(bf.Eq, fmt.Sprintf("(%s == %s + %d)=%v", f.Left.Name(), f.Right.Name(), f.K, f.AreEqual))
				}
				if len(bf.Lt) > 0 || len(bf.Eq) > 0 {
					cr.Blocks = append(cr.Blocks, bf)
				}
			}
			if len(cr.Blocks) > 0 {
				conds = append(conds, cr)
			}
		}
		if len(conds) > 0 {
			reports = append(reports, funcReport{Function: fn.String(), Conds: conds})
		}
	}
	return reports
}

func emit(w io.Writer, reports []funcReport, jsonOut bool) error {
	if jsonOut {
		data, err := json.MarshalIndent(reports, "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to encode report")
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}
	for _, fr := range reports {
		fmt.Fprintf(w, "%s\n", fr.Function)
		for _, cr := range fr.Conds {
			fmt.Fprintf(w, "  cond %s\n", cr.Cond)
			for _, bf := range cr.Blocks {
				fmt.Fprintf(w, "    block %d\n", bf.Block)
				for _, s := range bf.Lt {
					fmt.Fprintf(w, "      %s\n", s)
				}
				for _, s := range bf.Eq {
					fmt.Fprintf(w, "      %s\n", s)
				}
			}
		}
	}
	return nil
}
