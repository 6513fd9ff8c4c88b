// planty-admin is a maintenance CLI for poking at the care database without
// going through the daemon: list plants, inspect the calendar, force a
// synchronization pass.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/leafcare/planty/internal/care"
	"github.com/leafcare/planty/internal/config"
	"github.com/leafcare/planty/internal/store"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: planty-admin <command>\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  plants          list all plants\n")
		fmt.Fprintf(os.Stderr, "  attention       list plants needing attention\n")
		fmt.Fprintf(os.Stderr, "  tasks <date>    list tasks for YYYY-MM-DD\n")
		fmt.Fprintf(os.Stderr, "  sync            run a calendar synchronization pass\n")
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()
	cfg, err := config.Load(os.Getenv("PLANTY_CONFIG"))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer st.Close()

	ctx := context.Background()

	switch flag.Arg(0) {
	case "plants":
		listPlants(ctx, st, false)
	case "attention":
		listPlants(ctx, st, true)
	case "tasks":
		if flag.NArg() < 2 {
			log.Fatal("tasks requires a date (YYYY-MM-DD)")
		}
		listTasks(ctx, st, flag.Arg(1))
	case "sync":
		care.NewSynchronizer(st).Sync(ctx)
		fmt.Println("synchronization pass complete")
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func listPlants(ctx context.Context, st *store.Store, attentionOnly bool) {
	var plants []*store.Plant
	var err error
	if attentionOnly {
		plants, err = st.NeedsAttentionPlants(ctx)
	} else {
		plants, err = st.ListPlants(ctx)
	}
	if err != nil {
		log.Fatalf("list plants: %v", err)
	}

	for _, p := range plants {
		reasons := "-"
		if p.AttentionReasons != nil {
			reasons = *p.AttentionReasons
		}
		fmt.Printf("%4d  %-20s  %-25s  water %d-%dd  pesticide %d-%dd  attention: %s\n",
			p.ID, p.Nickname, p.OfficialName,
			p.WateringCycleMin, p.WateringCycleMax,
			p.PesticideCycleMin, p.PesticideCycleMax, reasons)
	}
	fmt.Printf("%d plant(s)\n", len(plants))
}

func listTasks(ctx context.Context, st *store.Store, dateStr string) {
	t, err := time.ParseInLocation("2006-01-02", dateStr, time.Local)
	if err != nil {
		log.Fatalf("invalid date %q: %v", dateStr, err)
	}

	tasks, err := st.TasksForDate(ctx, t.UnixMilli())
	if err != nil {
		log.Fatalf("list tasks: %v", err)
	}

	for _, task := range tasks {
		state := " "
		if task.Completed {
			state = "x"
		}
		fmt.Printf("[%s] %4d  %-10s  %s\n", state, task.ID, task.Type, task.Title)
	}
	fmt.Printf("%d task(s) on %s\n", len(tasks), dateStr)
}
