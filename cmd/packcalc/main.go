// Command packcalc computes a pack plan for a single order from the command line.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kingpin/v2"

	"github.com/eugenenazirov/pack-fulfillment/internal/calculator"
	"github.com/eugenenazirov/pack-fulfillment/internal/config"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

type options struct {
	packs      string
	order      int
	format     string
	timeout    time.Duration
	maxHorizon int
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "packcalc: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	opts, err := parseArgs(args)
	if err != nil {
		return err
	}

	sizes, err := config.ParsePackSizes(opts.packs)
	if err != nil {
		return fmt.Errorf("parse --packs: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	calc := calculator.New(calculator.WithMaxHorizon(opts.maxHorizon))
	result, err := calc.CalculatePacks(ctx, opts.order, sizes)
	if err != nil {
		return err
	}

	switch opts.format {
	case formatJSON:
		return writeJSON(stdout, result)
	default:
		return writeTable(stdout, result)
	}
}

func parseArgs(args []string) (options, error) {
	var opts options

	app := kingpin.New("packcalc", "Compute the fewest packs that fulfil an order")
	app.Flag("packs", "Comma-separated pack sizes").Default("250,500,1000,2000,5000").StringVar(&opts.packs)
	app.Flag("order", "Number of items ordered").Required().IntVar(&opts.order)
	app.Flag("format", "Output format").Default(formatTable).EnumVar(&opts.format, formatTable, formatJSON)
	app.Flag("timeout", "Maximum time to spend on the calculation").Default("30s").DurationVar(&opts.timeout)
	app.Flag("max-horizon", "Largest search horizon the calculator may allocate").
		Default(strconv.Itoa(calculator.DefaultMaxHorizon)).IntVar(&opts.maxHorizon)

	if _, err := app.Parse(args); err != nil {
		return options{}, err
	}
	return opts, nil
}

func writeJSON(w io.Writer, result calculator.Result) error {
	packs := make(map[string]int, len(result.Plan))
	for _, size := range result.Plan.Sizes() {
		packs[strconv.Itoa(size)] = result.Plan[size]
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(packs)
}

func writeTable(w io.Writer, result calculator.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PACK\tQUANTITY")
	sizes := result.Plan.Sizes()
	for i := len(sizes) - 1; i >= 0; i-- {
		fmt.Fprintf(tw, "%d\t%d\n", sizes[i], result.Plan[sizes[i]])
	}
	fmt.Fprintf(tw, "\nitems shipped\t%d\n", result.TotalItems)
	fmt.Fprintf(tw, "packs shipped\t%d\n", result.TotalPacks)
	fmt.Fprintf(tw, "excess\t%d\n", result.Excess)
	return tw.Flush()
}
