package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/poiesic/qamatch/search"
	"github.com/urfave/cli/v2"
)

func askCommand() *cli.Command {
	return &cli.Command{
		Name:      "ask",
		Usage:     "Answer a question from the corpus",
		ArgsUsage: "<question>",
		Action:    askAction,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "explain",
				Aliases: []string{"e"},
				Usage:   "Print scores and the candidates considered",
			},
		},
	}
}

func askAction(c *cli.Context) error {
	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return errors.New("a question is required")
	}

	db, cfg, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	svc, err := db.NewQueryService(c.Context, cfg.SearchOptions()...)
	if err != nil {
		return err
	}
	defer svc.Close()

	out := outWriter(c)
	var resp *search.Response
	if c.Bool("explain") {
		resp, err = svc.AskWithMonitor(c.Context, search.Request{QueryText: question}, &explainMonitor{w: out})
	} else {
		resp, err = svc.Ask(c.Context, search.Request{QueryText: question})
	}
	if err != nil {
		return err
	}

	if !resp.Matched() {
		fmt.Fprintln(out, "no match")
		return nil
	}
	fmt.Fprintln(out, resp.AnswerText)
	if c.Bool("explain") {
		fmt.Fprintf(out, "question #%d answer #%d score %.3f (lexical %.3f, semantic %.3f) exact=%t degraded=%t\n",
			resp.QuestionId, resp.AnswerId, resp.Score, resp.Lexical, resp.Semantic, resp.Exact, resp.Degraded)
	}
	return nil
}

// explainMonitor writes the intermediate steps of a query.
type explainMonitor struct {
	w io.Writer
}

var _ search.SearchMonitor = (*explainMonitor)(nil)

func (m *explainMonitor) Start(query string) {
	fmt.Fprintf(m.w, "query: %q\n", query)
}

func (m *explainMonitor) AfterNormalization(normalized string, keywords []string) {
	fmt.Fprintf(m.w, "normalized: %q keywords: %v\n", normalized, keywords)
}

func (m *explainMonitor) EmbeddingDegraded(err error) {
	fmt.Fprintf(m.w, "embedding unavailable, lexical only: %v\n", err)
}

func (m *explainMonitor) AfterScoring(candidates []search.Candidate) {
	fmt.Fprintf(m.w, "%d candidates\n", len(candidates))
	for i, cand := range candidates {
		fmt.Fprintf(m.w, "%d: question #%d [%0.3f] lexical %0.3f semantic %0.3f\n",
			i, cand.QuestionId, cand.Combined, cand.Lexical, cand.Semantic)
	}
}

func (m *explainMonitor) Finish(_ *search.Response) {}
