package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/linnington/esheets-assets/internal/discovery"
	"github.com/linnington/esheets-assets/internal/dom"
	"github.com/linnington/esheets-assets/internal/service"
)

func newDiscoverCmd(a *app) *cobra.Command {
	var (
		worksheetID string
		watch       bool
		url         string
		controlURL  string
	)

	cmd := &cobra.Command{
		Use:   "discover [page.html]",
		Short: "Find the score readout on a page",
		Long: `discover locates the score readout on an HTML file, or on a live page
when --url is given. With --worksheet the score found is recorded for that
worksheet; with --watch every later change is recorded until interrupted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 0) == (url == "") {
				return errors.New("pass exactly one of a page file or --url")
			}
			if watch && worksheetID == "" {
				return errors.New("--watch requires --worksheet")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			page, closePage, err := a.openPage(ctx, args, url, controlURL, watch)
			if err != nil {
				return err
			}
			defer closePage()

			if !watch {
				cand, ok := a.finder().Find(page)
				if !ok {
					return errors.New("no score readout found")
				}
				if worksheetID != "" {
					s := a.session()
					s.Init(service.InitConfig{WorksheetID: worksheetID})
					s.ReportScore(float64(cand.Pair.Score), float64(cand.Pair.Max))
				}
				return writeCandidate(cmd, cand)
			}

			s := a.session()
			s.Init(service.InitConfig{WorksheetID: worksheetID})
			cand, sub, ok := s.AttachPage(page)
			if !ok {
				return errors.New("no score readout found")
			}
			defer sub.Unsubscribe()
			if err := writeCandidate(cmd, cand); err != nil {
				return err
			}

			a.logger.Info("watching score", zap.String("worksheet_id", worksheetID), zap.String("text", cand.Text))
			<-ctx.Done()
			return nil
		},
	}

	cmd.Flags().StringVarP(&worksheetID, "worksheet", "w", "", "Record the score for this worksheet")
	cmd.Flags().BoolVar(&watch, "watch", false, "Keep recording score changes until interrupted")
	cmd.Flags().StringVar(&url, "url", "", "Open a live page instead of a file")
	cmd.Flags().StringVar(&controlURL, "control-url", "", "DevTools URL of a running browser (default: launch one)")
	return cmd
}

func (a *app) finder() *discovery.Finder {
	f := discovery.NewFinder()
	f.MaxDenominator = a.cfg.MaxDenominator
	f.MaxElements = a.cfg.MaxElements
	return f
}

// openPage returns the page to search and a function releasing it.
func (a *app) openPage(ctx context.Context, args []string, url, controlURL string, watch bool) (dom.Page, func(), error) {
	if url != "" {
		page, err := dom.OpenRodPage(ctx, controlURL, url, a.cfg.PollInterval)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open %s: %w", url, err)
		}
		return page, func() {
			if err := page.Close(); err != nil {
				a.logger.Warn("failed to close page", zap.Error(err))
			}
		}, nil
	}

	if watch {
		doc, watcher, err := dom.WatchFile(ctx, args[0], func(err error) {
			a.logger.Warn("failed to reload page", zap.String("path", args[0]), zap.Error(err))
		})
		if err != nil {
			return nil, nil, err
		}
		return doc, watcher.Stop, nil
	}

	f, err := os.Open(args[0])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open page: %w", err)
	}
	defer f.Close()
	doc, err := dom.Parse(f)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse page: %w", err)
	}
	return doc, func() {}, nil
}

func writeCandidate(cmd *cobra.Command, c discovery.Candidate) error {
	return writeJSON(cmd.OutOrStdout(), struct {
		Score    int     `json:"score"`
		Max      int     `json:"max"`
		Percent  float64 `json:"percent"`
		Text     string  `json:"text"`
		Selector string  `json:"selector,omitempty"`
	}{c.Pair.Score, c.Pair.Max, c.Pair.Percent(), c.Text, c.Selector})
}
