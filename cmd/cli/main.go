package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/gurudharsan/weighease/internal/billing"
	"github.com/gurudharsan/weighease/internal/config"
	"github.com/gurudharsan/weighease/internal/logger"
	"github.com/gurudharsan/weighease/internal/projection"
	"github.com/gurudharsan/weighease/internal/session"
	"github.com/gurudharsan/weighease/internal/store"
	"github.com/gurudharsan/weighease/internal/store/mongostore"
	"github.com/gurudharsan/weighease/internal/weighbridge"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "list":
		runList(log)
	case "add":
		runAdd(log)
	case "bill":
		runBill(log)
	case "delete":
		runDelete(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("WeighEase CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  list      List weighbridge entries, optionally filtered")
	fmt.Println("  add       Record a new weighbridge entry")
	fmt.Println("  bill      Calculate a bill for an entry")
	fmt.Println("  delete    Delete an entry by serial")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// openStore connects to the configured Mongo deployment. The CLI is
// useless without a persistent store, so a missing URI is fatal.
func openStore(ctx context.Context, log zerolog.Logger) (*mongostore.Store, config.AppConfig) {
	cfg := config.Load()
	if cfg.MongoURI == "" {
		log.Fatal().Msg("MONGO_URI is required")
	}

	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	st, err := mongostore.Connect(connectCtx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to entry store")
	}
	return st, cfg
}

// newController wires the projection and selection controller the same
// way an interactive frontend would.
func newController(st store.EntryStore, cfg config.AppConfig, log zerolog.Logger) *session.Controller {
	return session.NewController(st, projection.New(st), cfg.FilterDebounce, log)
}

func runList(log zerolog.Logger) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	from := fs.String("from", "", "Start date (YYYY-MM-DD)")
	to := fs.String("to", "", "End date (YYYY-MM-DD), inclusive")
	party := fs.String("party", "", "Party name substring (case-insensitive)")
	fs.Parse(os.Args[2:])

	ctx := context.Background()
	ctx = logger.WithContext(ctx, log)

	st, cfg := openStore(ctx, log)
	defer st.Close(ctx)

	ctrl := newController(st, cfg, log)
	if err := ctrl.Refresh(ctx, store.BuildFilter(*from, *to, *party)); err != nil {
		log.Fatal().Err(err).Msg("Failed to load entries")
	}

	rows := ctrl.Projection().Rows()
	fmt.Printf("\n=== Weighbridge Entries (%d) ===\n", len(rows))
	for _, r := range rows {
		fmt.Printf("\n%s  %s\n", r.Serial, r.Date)
		fmt.Printf("   Party:      %s\n", r.PartyName)
		fmt.Printf("   Truck:      %s  (%s bags)\n", r.TruckNumber, r.NumBags)
		fmt.Printf("   Weights:    gross %s / empty %s / net %s kg\n", r.GrossWeight, r.EmptyWeight, r.NetWeight)
		fmt.Printf("   Drying:     %s (%s)\n", r.Drying, r.DryingWeight)
		if r.Rate != "" {
			fmt.Printf("   Billed:     Rs.%s/kg = Rs.%s\n", r.Rate, r.TotalAmount)
		}
	}
	fmt.Println()
}

func runAdd(log zerolog.Logger) {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	sno := fs.String("sno", "", "Serial number")
	party := fs.String("party", "", "Party name")
	truck := fs.String("truck", "", "Truck number, e.g. KA01AB1234")
	bags := fs.String("bags", "", "Number of bags")
	gross := fs.String("gross", "", "Gross weight (kg)")
	empty := fs.String("empty", "", "Truck empty weight (kg)")
	drying := fs.Bool("drying", false, "Load gone for drying")
	dryingWeight := fs.String("drying-weight", "", "Drying weight (kg), required with -drying")
	fs.Parse(os.Args[2:])

	ctx := context.Background()
	ctx = logger.WithContext(ctx, log)

	entry, err := weighbridge.NewEntry(weighbridge.Input{
		Serial:       *sno,
		PartyName:    *party,
		TruckNumber:  *truck,
		NumBags:      *bags,
		GrossWeight:  *gross,
		EmptyWeight:  *empty,
		IsDrying:     *drying,
		DryingWeight: *dryingWeight,
	}, time.Now)
	if err != nil {
		log.Fatal().Err(err).Msg("Validation failed")
	}

	st, _ := openStore(ctx, log)
	defer st.Close(ctx)

	if err := st.Insert(ctx, entry); err != nil {
		log.Fatal().Err(err).Msg("Failed to insert entry")
	}

	fmt.Printf("Recorded entry %s: net weight %.2f kg\n", entry.Serial, entry.NetWeight)
}

func runBill(log zerolog.Logger) {
	fs := flag.NewFlagSet("bill", flag.ExitOnError)
	sno := fs.String("sno", "", "Serial number of the entry to bill")
	rate := fs.String("rate", "", "Rate per kg (Rs)")
	persist := fs.Bool("persist", false, "Save the rate and total back to the store")
	fs.Parse(os.Args[2:])

	if *sno == "" {
		log.Fatal().Msg("Error: --sno is required")
	}

	ctx := context.Background()
	ctx = logger.WithContext(ctx, log)

	st, cfg := openStore(ctx, log)
	defer st.Close(ctx)

	ctrl := newController(st, cfg, log)
	if err := ctrl.Refresh(ctx, store.Filter{}); err != nil {
		log.Fatal().Err(err).Msg("Failed to load entries")
	}

	index := -1
	for i, r := range ctrl.Projection().Rows() {
		if r.Serial == *sno {
			index = i
			break
		}
	}
	if index < 0 {
		log.Fatal().Str("sno", *sno).Msg("Entry not found")
	}

	if err := ctrl.Select(index); err != nil {
		log.Fatal().Err(err).Msg("Failed to select entry")
	}

	buf, _ := ctrl.Selection()
	buf.Rate = *rate

	rateVal, total, err := ctrl.Calculate()
	if err != nil {
		log.Fatal().Err(err).Msg("Calculation failed")
	}

	bill := billing.Bill{
		Serial:    buf.Serial(),
		Date:      time.Now().Format("02-01-2006"),
		PartyName: buf.PartyName,
		NetWeight: billing.ParseAmount(buf.NetWeight),
		Rate:      rateVal,
		Total:     total,
	}
	fmt.Print(bill.Text())

	if *persist {
		outcome, err := ctrl.PersistBilling(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to persist bill")
		}
		fmt.Printf("Persist result: %s\n", outcome)
	}
}

func runDelete(log zerolog.Logger) {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	sno := fs.String("sno", "", "Serial number of the entry to delete")
	fs.Parse(os.Args[2:])

	if *sno == "" {
		log.Fatal().Msg("Error: --sno is required")
	}

	ctx := context.Background()
	ctx = logger.WithContext(ctx, log)

	st, _ := openStore(ctx, log)
	defer st.Close(ctx)

	deleted, err := st.Delete(ctx, *sno)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to delete entry")
	}

	if deleted == 0 {
		fmt.Printf("No entry with serial %s\n", *sno)
		return
	}
	fmt.Printf("Deleted entry %s\n", *sno)
}
