package main

import (
	"fmt"
	"time"

	"github.com/poiesic/qamatch/core"
	"github.com/poiesic/qamatch/memory"
	"github.com/urfave/cli/v2"
)

func memoryCommand() *cli.Command {
	return &cli.Command{
		Name:  "memory",
		Usage: "Manage reminders, birthdays, tasks and events",
		Subcommands: []*cli.Command{
			{
				Name:   "add",
				Usage:  "Store a new entry",
				Action: memoryAddAction,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "type",
						Aliases:  []string{"t"},
						Usage:    "reminder, birthday, task or event",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "description",
						Aliases:  []string{"m"},
						Required: true,
					},
					&cli.StringFlag{
						Name:     "at",
						Usage:    "When it happens, dd/mm/yyyy [hh:mm] or yyyy-mm-dd [hh:mm]",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "annual",
						Usage: "Repeat every year",
					},
					&cli.StringFlag{
						Name:    "priority",
						Aliases: []string{"p"},
						Usage:   "low, medium or high",
						Value:   "medium",
					},
					&cli.StringSliceFlag{
						Name:  "tag",
						Usage: "Tag the entry (repeatable)",
					},
				},
			},
			{
				Name:   "list",
				Usage:  "List entries by schedule",
				Action: memoryListAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "type", Aliases: []string{"t"}},
					&cli.StringFlag{Name: "tag"},
				},
			},
			{
				Name:   "upcoming",
				Usage:  "Show entries occurring soon",
				Action: memoryUpcomingAction,
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:    "window",
						Aliases: []string{"w"},
						Usage:   "How far ahead to look (overrides memory.alert_window)",
					},
				},
			},
			{
				Name:   "export",
				Usage:  "Write every entry to stdout",
				Action: memoryExportAction,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "csv or json",
						Value:   memory.FormatCSV,
					},
				},
			},
			{
				Name:      "rm",
				Usage:     "Delete entries",
				ArgsUsage: "<id>...",
				Action:    memoryRemoveAction,
			},
		},
	}
}

func openMemoryStore(c *cli.Context) (*memory.Store, func(), time.Duration, error) {
	db, cfg, err := openDatabase(c)
	if err != nil {
		return nil, nil, 0, err
	}
	s, err := db.NewMemoryStore()
	if err != nil {
		db.Close()
		return nil, nil, 0, err
	}
	return s, func() { db.Close() }, cfg.Memory.AlertWindow, nil
}

func memoryAddAction(c *cli.Context) error {
	typ, err := core.ParseMemoryType(c.String("type"))
	if err != nil {
		return err
	}
	priority, err := core.ParsePriority(c.String("priority"))
	if err != nil {
		return err
	}
	at, err := memory.ParseSchedule(c.String("at"), time.Local)
	if err != nil {
		return err
	}

	s, closeDB, _, err := openMemoryStore(c)
	if err != nil {
		return err
	}
	defer closeDB()

	entry, err := s.Create(c.Context, &core.MemoryEntry{
		Type:        typ,
		Description: c.String("description"),
		ScheduledAt: at,
		Annual:      c.Bool("annual"),
		Priority:    priority,
		Tags:        c.StringSlice("tag"),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(outWriter(c), "stored #%d\n", entry.Id)
	return nil
}

func memoryListAction(c *cli.Context) error {
	var filter memory.Filter
	if c.IsSet("type") {
		typ, err := core.ParseMemoryType(c.String("type"))
		if err != nil {
			return err
		}
		filter.Type = typ
	}
	filter.Tag = c.String("tag")
	filter.Text = c.String("search")

	s, closeDB, _, err := openMemoryStore(c)
	if err != nil {
		return err
	}
	defer closeDB()

	entries, err := s.List(c.Context, filter)
	if err != nil {
		return err
	}
	out := outWriter(c)
	occurrences := make([]memory.Occurrence, 0, len(entries))
	for _, e := range entries {
		occurrences = append(occurrences, memory.Occurrence{Entry: e, At: e.ScheduledAt.In(time.Local)})
	}
	fmt.Fprint(out, memory.Alerts(occurrences))
	fmt.Fprintf(out, "%d entries\n", len(entries))
	return nil
}

func memoryUpcomingAction(c *cli.Context) error {
	s, closeDB, window, err := openMemoryStore(c)
	if err != nil {
		return err
	}
	defer closeDB()

	if c.IsSet("window") {
		window = c.Duration("window")
	}
	upcoming, err := s.Upcoming(c.Context, window)
	if err != nil {
		return err
	}
	out := outWriter(c)
	if len(upcoming) == 0 {
		fmt.Fprintln(out, "nothing upcoming")
		return nil
	}
	for i := range upcoming {
		upcoming[i].At = upcoming[i].At.In(time.Local)
	}
	fmt.Fprint(out, memory.Alerts(upcoming))
	return nil
}

func memoryExportAction(c *cli.Context) error {
	s, closeDB, _, err := openMemoryStore(c)
	if err != nil {
		return err
	}
	defer closeDB()

	return s.Export(c.Context, outWriter(c), c.String("format"))
}

func memoryRemoveAction(c *cli.Context) error {
	ids, err := parseIDs(c.Args().Slice())
	if err != nil {
		return err
	}
	s, closeDB, _, err := openMemoryStore(c)
	if err != nil {
		return err
	}
	defer closeDB()

	if err := s.Delete(c.Context, ids...); err != nil {
		return err
	}
	fmt.Fprintf(outWriter(c), "deleted %d entries\n", len(ids))
	return nil
}
