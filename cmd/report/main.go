// Command report prints the sales profitability report for a date range as
// indented JSON, reading the same database the server uses.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/xiumachile/billpro/internal/config"
	"github.com/xiumachile/billpro/internal/db"
	"github.com/xiumachile/billpro/internal/logger"
	"github.com/xiumachile/billpro/internal/report"
	"github.com/xiumachile/billpro/internal/sales"
	"github.com/xiumachile/billpro/internal/store"
)

type options struct {
	dbPath   string
	from     string
	to       string
	preset   string
	seller   int64
	category int64
	timezone string
}

func main() {
	cfg := config.Load()

	opts := options{}
	flag.StringVar(&opts.dbPath, "db", cfg.DBPath, "SQLite database path")
	flag.StringVar(&opts.from, "from", "", "first day, YYYY-MM-DD")
	flag.StringVar(&opts.to, "to", "", "last day, YYYY-MM-DD")
	flag.StringVar(&opts.preset, "preset", "", "hoy, ayer, semana or mes (overrides -from/-to)")
	flag.Int64Var(&opts.seller, "seller", 0, "only orders of this seller ID")
	flag.Int64Var(&opts.category, "category", 0, "only lines of this category ID")
	flag.StringVar(&opts.timezone, "tz", cfg.ReportTimezone, "IANA time zone orders are bucketed in")
	flag.Parse()

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: "text", Environment: cfg.Env}).WithComponent("report")

	if err := run(context.Background(), opts, log, os.Stdout, time.Now()); err != nil {
		fmt.Fprintf(os.Stderr, "report: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, log *logger.Logger, out io.Writer, now time.Time) error {
	loc, err := location(opts.timezone)
	if err != nil {
		return err
	}
	rng, err := opts.dateRange(now, loc)
	if err != nil {
		return err
	}

	database, err := db.Open(opts.dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	st := store.New(database, log)
	cat, err := st.LoadCatalog(ctx)
	if err != nil {
		return err
	}
	orders, err := st.ListOrders(ctx, store.OrderQuery{From: rng.From, To: rng.To, Statuses: sales.ReportableStatuses})
	if err != nil {
		return err
	}

	res := report.Build(cat, orders, rng, opts.filters())
	log.Debug("report built", "orders", res.OrderCount, "catalog_version", cat.Version())

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(res)
}

func (o options) dateRange(now time.Time, loc *time.Location) (report.DateRange, error) {
	switch {
	case o.preset != "":
		return report.Preset(o.preset, now, loc)
	case o.from == "" && o.to == "":
		return report.Preset("hoy", now, loc)
	case o.to == "":
		return report.ParseRange(o.from, o.from, loc)
	}
	return report.ParseRange(o.from, o.to, loc)
}

func (o options) filters() report.Filters {
	var f report.Filters
	if o.seller > 0 {
		f.SellerID = &o.seller
	}
	if o.category > 0 {
		f.CategoryID = &o.category
	}
	return f
}

func location(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load time zone: %w", err)
	}
	return loc, nil
}
