package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/poiesic/qamatch/core"
	"github.com/poiesic/qamatch/review"
	"github.com/poiesic/qamatch/storage"
	"github.com/urfave/cli/v2"
)

func reviewCommand() *cli.Command {
	return &cli.Command{
		Name:  "review",
		Usage: "Manage proposed question/answer pairs awaiting review",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List queued items, oldest first",
				Action: reviewListAction,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "approved",
						Usage: "Only items flagged approved (--approved=false for unflagged)",
					},
					&cli.StringFlag{
						Name:  "source",
						Usage: "Only items from this source",
					},
				},
			},
			{
				Name:   "add",
				Usage:  "Queue a proposed pair",
				Action: reviewAddAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "question", Aliases: []string{"q"}, Required: true},
					&cli.StringFlag{Name: "answer", Aliases: []string{"a"}, Required: true},
					&cli.StringFlag{Name: "source", Usage: "Where the proposal came from", Value: "cli"},
				},
			},
			{
				Name:      "approve",
				Usage:     "Promote an item into the corpus",
				ArgsUsage: "<id>",
				Action:    reviewApproveAction,
				Flags: []cli.Flag{
					&cli.Uint64Flag{
						Name:  "answer-id",
						Usage: "Link the question to this existing answer instead of the proposed one",
					},
				},
			},
			{
				Name:      "reject",
				Usage:     "Discard items without touching the corpus",
				ArgsUsage: "<id>...",
				Action:    reviewRejectAction,
			},
			{
				Name:   "promote",
				Usage:  "Promote every item flagged approved",
				Action: reviewPromoteAction,
			},
		},
	}
}

func openReviewQueue(c *cli.Context) (*review.Queue, func(), error) {
	db, _, err := openDatabase(c)
	if err != nil {
		return nil, nil, err
	}
	q, err := db.NewReviewQueue()
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return q, func() { db.Close() }, nil
}

func parseIDs(args []string) ([]core.ID, error) {
	if len(args) == 0 {
		return nil, errors.New("at least one id is required")
	}
	ids := make([]core.ID, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseUint(arg, 10, 64)
		if err != nil || id == 0 {
			return nil, fmt.Errorf("invalid id %q", arg)
		}
		ids = append(ids, core.ID(id))
	}
	return ids, nil
}

func reviewListAction(c *cli.Context) error {
	q, closeDB, err := openReviewQueue(c)
	if err != nil {
		return err
	}
	defer closeDB()

	filter := storage.ReviewFilter{Source: c.String("source")}
	if c.IsSet("approved") {
		approved := c.Bool("approved")
		filter.Approved = &approved
	}
	items, err := q.List(c.Context, filter)
	if err != nil {
		return err
	}

	out := outWriter(c)
	fmt.Fprintf(out, "%d items\n", len(items))
	for _, item := range items {
		mark := " "
		if item.Approved {
			mark = "✓"
		}
		fmt.Fprintf(out, "[%s] #%d (%s) Q: %s\n      A: %s\n", mark, item.Id, item.Source, item.Question, item.Answer)
	}
	return nil
}

func reviewAddAction(c *cli.Context) error {
	q, closeDB, err := openReviewQueue(c)
	if err != nil {
		return err
	}
	defer closeDB()

	added, err := q.Submit(c.Context, &core.PendingReview{
		Question: c.String("question"),
		Answer:   c.String("answer"),
		Source:   c.String("source"),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(outWriter(c), "queued #%d\n", added[0].Id)
	return nil
}

func reviewApproveAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("exactly one id is required")
	}
	ids, err := parseIDs(c.Args().Slice())
	if err != nil {
		return err
	}
	q, closeDB, err := openReviewQueue(c)
	if err != nil {
		return err
	}
	defer closeDB()

	pair, err := q.Approve(c.Context, ids[0], core.ID(c.Uint64("answer-id")))
	if err != nil {
		return err
	}
	fmt.Fprintf(outWriter(c), "promoted #%d as question #%d answer #%d\n", ids[0], pair.Question.Id, pair.Answer.Id)
	return nil
}

func reviewRejectAction(c *cli.Context) error {
	ids, err := parseIDs(c.Args().Slice())
	if err != nil {
		return err
	}
	q, closeDB, err := openReviewQueue(c)
	if err != nil {
		return err
	}
	defer closeDB()

	if err := q.Reject(c.Context, ids...); err != nil {
		return err
	}
	fmt.Fprintf(outWriter(c), "rejected %d items\n", len(ids))
	return nil
}

func reviewPromoteAction(c *cli.Context) error {
	q, closeDB, err := openReviewQueue(c)
	if err != nil {
		return err
	}
	defer closeDB()

	promoted, err := q.PromoteApproved(c.Context)
	out := outWriter(c)
	for _, pair := range promoted {
		fmt.Fprintf(out, "promoted question #%d answer #%d\n", pair.Question.Id, pair.Answer.Id)
	}
	fmt.Fprintf(out, "%d promoted\n", len(promoted))
	return err
}
