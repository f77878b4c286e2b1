package main

import (
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/sells-group/lead-scorer/internal/export"
	"github.com/sells-group/lead-scorer/internal/model"
	"github.com/sells-group/lead-scorer/internal/query"
	"github.com/sells-group/lead-scorer/internal/scorer"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score leads from a file, URL, or the store",
	Long: `Score every lead from a source against the configured weights and the
given ICP preferences, then print them hottest first.

Examples:
  # Score a local CSV, Hot and Warm only
  score --source leads.csv --min-score 40

  # Target Texas SaaS companies with $5M-$20M revenue
  score --source leads.json --industries SaaS --states TX --rev-min 5000000 --rev-max 20000000

  # Export imported leads to a spreadsheet and record the run
  score --source store --format xlsx --output hot.xlsx --save`,
	RunE: runScore,
}

func init() {
	addScoreFlags(scoreCmd.Flags())
	rootCmd.AddCommand(scoreCmd)
}

func addScoreFlags(f *pflag.FlagSet) {
	f.String("source", "", "lead source: file path, URL, or \"store\" (default from config)")
	f.Int("min-score", 0, "drop leads scoring below this value (0-100)")
	f.String("prefs", "", "ICP preferences as JSON, e.g. '{\"industries\":[\"SaaS\"]}'")
	f.StringSlice("industries", nil, "preferred industries (overrides --prefs)")
	f.StringSlice("countries", nil, "preferred countries (overrides --prefs)")
	f.StringSlice("states", nil, "preferred states (overrides --prefs)")
	f.Float64("rev-min", 0, "preferred minimum revenue in USD (overrides --prefs)")
	f.Float64("rev-max", 0, "preferred maximum revenue in USD (overrides --prefs)")
	f.Bool("explain", false, "include per-factor breakdown (json output)")
	f.String("format", "table", "output format: table, csv, json, xlsx")
	f.String("output", "", "write results to this file instead of stdout")
	f.Bool("save", false, "record the run in the configured store")
}

func runScore(cmd *cobra.Command, _ []string) (err error) {
	ctx := cmd.Context()
	f := cmd.Flags()

	format, err := export.ParseFormat(mustString(f, "format"))
	if err != nil {
		return err
	}
	req, err := buildRequest(f)
	if err != nil {
		return err
	}
	if err := cfg.Validate("score"); err != nil {
		return err
	}

	source := mustString(f, "source")
	if source == "" {
		source = cfg.Source.URI
	}
	if source == "" {
		return eris.New("score: --source is required (or set source.uri)")
	}

	engine, _, err := newEngine(cfg)
	if err != nil {
		return err
	}
	provider, st, err := leadProvider(ctx, cfg, source)
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close() //nolint:errcheck
	}

	leads, err := provider.Leads(ctx)
	if err != nil {
		return eris.Wrap(err, "score: load leads")
	}

	results, err := engine.Run(ctx, leads, req)
	if err != nil {
		return err
	}

	out, closeOut, err := openOutput(mustString(f, "output"))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeOut(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err := export.Write(out, format, results); err != nil {
		return err
	}
	if err := export.WriteSummary(os.Stderr, results); err != nil {
		return err
	}

	save, _ := f.GetBool("save")
	if !save {
		return nil
	}
	if st == nil {
		if st, err = initStore(ctx); err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
	}
	run := &model.ScoreRun{
		WeightsHash: scorer.ConfigHash(engine.Weights()),
		Prefs:       req.Prefs,
		MinScore:    req.Floor(),
	}
	if err := st.SaveRun(ctx, run, results); err != nil {
		return eris.Wrap(err, "score: save run")
	}
	zap.L().Info("score run saved", zap.String("run_id", run.ID), zap.Int("leads", run.LeadCount))
	return nil
}

// buildRequest assembles a query.Request from flags. Individual preference
// flags override the matching keys of --prefs.
func buildRequest(f *pflag.FlagSet) (*query.Request, error) {
	req := &query.Request{Sort: query.SortScoreDesc}

	if f.Changed("min-score") {
		n, _ := f.GetInt("min-score")
		req.MinScore = &n
	}
	req.Explain, _ = f.GetBool("explain")

	if raw := strings.TrimSpace(mustString(f, "prefs")); raw != "" {
		prefs, errs := query.ParsePrefs([]byte(raw))
		if len(errs) > 0 {
			return nil, &query.ValidationError{Fields: errs}
		}
		req.Prefs = prefs
	}

	overlay := func(apply func(p *model.ICPPrefs)) {
		if req.Prefs == nil {
			req.Prefs = &model.ICPPrefs{}
		}
		apply(req.Prefs)
	}
	if f.Changed("industries") {
		v, _ := f.GetStringSlice("industries")
		overlay(func(p *model.ICPPrefs) { p.Industries = v })
	}
	if f.Changed("countries") {
		v, _ := f.GetStringSlice("countries")
		overlay(func(p *model.ICPPrefs) { p.Countries = v })
	}
	if f.Changed("states") {
		v, _ := f.GetStringSlice("states")
		overlay(func(p *model.ICPPrefs) { p.States = v })
	}
	if f.Changed("rev-min") {
		v, _ := f.GetFloat64("rev-min")
		overlay(func(p *model.ICPPrefs) { p.RevMin = &v })
	}
	if f.Changed("rev-max") {
		v, _ := f.GetFloat64("rev-max")
		overlay(func(p *model.ICPPrefs) { p.RevMax = &v })
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

func openOutput(path string) (io.Writer, func() error, error) {
	if path == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "score: create %s", path)
	}
	return file, func() error {
		return eris.Wrapf(file.Close(), "score: close %s", path)
	}, nil
}

func mustString(f *pflag.FlagSet, name string) string {
	v, _ := f.GetString(name)
	return v
}
