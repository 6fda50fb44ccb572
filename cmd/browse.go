package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/okian/frbviewer/internal/adapters/http/client"
	"github.com/okian/frbviewer/internal/app"
	"github.com/okian/frbviewer/internal/domain/filter"
	"github.com/okian/frbviewer/internal/domain/model"
	"github.com/okian/frbviewer/internal/domain/view"
	"github.com/okian/frbviewer/pkg/logger"
)

const maxListedEvents = 20

type browseFlags struct {
	server   string
	source   string
	idFilter string
	minTop1  float64
	minSum2  float64
	minPox   float64
	maxPox   float64
	maxMag   float64
	mode     string
	pageSize int
	page     int
	all      bool
	yes      bool
	event    string
	grid     string
	lightbox int
	steps    int
	plot     bool
	plotX    string
	plotY    string
}

func browseCmd() *cobra.Command {
	f := &browseFlags{}
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Drive a headless browsing session against a viewer server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBrowse(cmd, f)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.server, "server", "", "viewer server base URL (overrides client.base_url)")
	fl.StringVar(&f.source, "source", "", "switch the server to this data source first")
	fl.StringVar(&f.idFilter, "id", "", "keep events whose id contains this text")
	fl.Float64Var(&f.minTop1, "min-top1", 0, "minimum top1 P(O|x)")
	fl.Float64Var(&f.minSum2, "min-sum-top2", 0, "minimum sum of the top two P(O|x)")
	fl.Float64Var(&f.minPox, "min-pox", 0, "minimum candidate P(O|x)")
	fl.Float64Var(&f.maxPox, "max-pox", 0, "maximum candidate P(O|x)")
	fl.Float64Var(&f.maxMag, "max-mag", 0, "maximum candidate magnitude")
	fl.StringVar(&f.mode, "mode", "", "per-event candidates: top1, top2, top5 or all")
	fl.IntVar(&f.pageSize, "page-size", 0, "candidate page size (snapped to a preset)")
	fl.IntVar(&f.page, "page", 0, "1-based candidate page to show")
	fl.BoolVar(&f.all, "all", false, "load every candidate row for the mode")
	fl.BoolVarP(&f.yes, "yes", "y", false, "confirm large bulk loads without asking")
	fl.StringVar(&f.event, "event", "", "select one event's images")
	fl.StringVar(&f.grid, "grid", "", "grid mode over filtered events (path-all, host-all, path-main, ...)")
	fl.IntVar(&f.lightbox, "lightbox", -1, "open the lightbox at this gallery index")
	fl.IntVar(&f.steps, "steps", 0, "lightbox steps: positive moves next, negative moves prev")
	fl.BoolVar(&f.plot, "plot", false, "project the filtered candidates")
	fl.StringVar(&f.plotX, "plot-x", "", "plot x column (default: magnitude)")
	fl.StringVar(&f.plotY, "plot-y", "", "plot y column (default: probability)")
	return cmd
}

func runBrowse(cmd *cobra.Command, f *browseFlags) error {
	ctx := cmd.Context()
	cfg, log, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	actions, err := f.actions(cmd)
	if err != nil {
		return err
	}

	base := cfg.Client.BaseURL
	if f.server != "" {
		base = f.server
	}
	backend, err := client.New(base,
		client.WithTimeout(cfg.Client.Timeout),
		client.WithBasicAuth(cfg.User, cfg.Password),
		client.WithLogger(log),
	)
	if err != nil {
		return err
	}

	ctrl := app.NewController(backend,
		app.WithLogger(log),
		app.WithQueueSize(cfg.Client.QueueSize),
		app.WithPageSize(cfg.Client.PageSize),
		app.WithBatchSize(cfg.Client.BatchSize),
		app.WithConfirmAbove(cfg.Client.ConfirmAbove),
		app.WithConfirmer(confirmer(cmd.InOrStdin(), cmd.ErrOrStderr(), f.yes)),
	)
	ctrl.Start(ctx)
	defer func() { _ = ctrl.Shutdown(context.WithoutCancel(ctx)) }()

	for _, a := range actions {
		if err := ctrl.Dispatch(ctx, a); err != nil {
			return err
		}
		if err := ctrl.WaitIdle(ctx); err != nil {
			return err
		}
	}

	report(cmd.OutOrStdout(), ctrl.Snapshot(), f.plot || f.plotX != "" || f.plotY != "")
	return nil
}

// actions translates the flags into the session's action sequence.
func (f *browseFlags) actions(cmd *cobra.Command) ([]app.Action, error) {
	changed := cmd.Flags().Changed
	optional := func(name string, v float64) *float64 {
		if !changed(name) {
			return nil
		}
		return &v
	}

	out := []app.Action{app.Init{}}
	if f.source != "" {
		out = append(out, app.SwitchSource{Name: f.source})
	}
	if f.mode != "" {
		mode, err := model.ParsePerEventMode(f.mode)
		if err != nil {
			return nil, err
		}
		out = append(out, app.SetPerEventMode{Mode: mode})
	}
	if f.pageSize > 0 {
		out = append(out, app.SetPageSize{Size: f.pageSize})
	}
	if f.page > 1 {
		out = append(out, app.GoToPage{Page: f.page})
	}
	if f.all {
		out = append(out, app.LoadAllCandidates{})
	}
	out = append(out,
		app.SetEventFilter{Params: filter.EventParams{
			IDSubstring:     f.idFilter,
			MinTop1Score:    optional("min-top1", f.minTop1),
			MinSumTop2Score: optional("min-sum-top2", f.minSum2),
		}},
		app.SetCandidateCuts{Cuts: filter.CandidateCuts{
			MinProbability: optional("min-pox", f.minPox),
			MaxProbability: optional("max-pox", f.maxPox),
			MaxMagnitude:   optional("max-mag", f.maxMag),
		}},
	)

	switch {
	case f.event != "" && f.grid != "":
		return nil, fmt.Errorf("--event and --grid are exclusive")
	case f.event != "":
		out = append(out, app.SelectEvent{ID: f.event})
	case f.grid != "":
		mode, err := view.ParseGridMode(f.grid)
		if err != nil {
			return nil, err
		}
		out = append(out, app.SelectGrid{Mode: mode})
	}
	if f.lightbox >= 0 {
		out = append(out, app.OpenLightbox{Index: f.lightbox})
		for i := 0; i < f.steps; i++ {
			out = append(out, app.LightboxNext{})
		}
		for i := 0; i > f.steps; i-- {
			out = append(out, app.LightboxPrev{})
		}
	}
	if f.plot || f.plotX != "" || f.plotY != "" {
		out = append(out, app.RequestPlot{X: f.plotX, Y: f.plotY})
	}
	return out, nil
}

// confirmer asks on the terminal before large bulk loads.
func confirmer(in io.Reader, out io.Writer, yes bool) func(context.Context, int) bool {
	reader := bufio.NewReader(in)
	return func(_ context.Context, total int) bool {
		if yes {
			return true
		}
		fmt.Fprintf(out, "Load all %d candidate rows? [y/N] ", total)
		line, _ := reader.ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		default:
			return false
		}
	}
}

func report(w io.Writer, s app.State, withPlot bool) {
	fmt.Fprintf(w, "Source:     %s (%s)\n", orDash(s.Source), s.SourceStatus.Text)
	fmt.Fprintf(w, "Events:     %d of %d shown (%s)\n", len(s.FilteredEvents), len(s.Index.Events), s.IndexStatus.Text)
	fmt.Fprintf(w, "Candidates: %d after cuts, mode %s, page %d/%d (%s)\n",
		len(s.FilteredCandidates), s.Candidates.Mode,
		s.Candidates.Cursor.CurrentPage(), s.Candidates.Cursor.TotalPages(),
		s.CandidateStatus.Text)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\nFRB\tDATE\tTOP1_POX\tSUM_TOP2\tN\tIMAGES")
	for i, ev := range s.FilteredEvents {
		if i == maxListedEvents {
			fmt.Fprintf(tw, "... %d more\t\t\t\t\t\n", len(s.FilteredEvents)-i)
			break
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n",
			ev.ID, strOrDash(ev.Date), floatOrDash(ev.Metrics.Top1Score),
			floatOrDash(ev.Metrics.SumTop2Score), intOrDash(ev.Metrics.CandidateCount), len(ev.Images))
	}
	_ = tw.Flush()

	fmt.Fprintf(w, "\nSelection:  %s", s.Selection.Kind)
	switch s.Selection.Kind {
	case view.SingleEventSelected:
		fmt.Fprintf(w, " %s", s.Selection.Event.ID)
	case view.GridView:
		fmt.Fprintf(w, " %s", s.Selection.Mode)
	}
	fmt.Fprintf(w, ", %d images\n", len(s.Gallery))
	if s.Placeholder {
		fmt.Fprintln(w, "  (no images for this selection)")
	}
	for _, img := range s.Gallery {
		fmt.Fprintf(w, "  %-22s %s\n", img.Kind, img.RelPath)
	}
	if s.Lightbox != nil {
		cur := s.Lightbox.Current()
		fmt.Fprintf(w, "Lightbox:   %d/%d %s\n", s.Lightbox.Index+1, len(s.Lightbox.Images), cur.RelPath)
	}

	if withPlot {
		fmt.Fprintf(w, "Plot:       %s vs %s, %d points\n", orDash(s.Axes.Y), orDash(s.Axes.X), len(s.Points))
		if s.PlotWarning != "" {
			fmt.Fprintf(w, "  %s\n", s.PlotWarning)
		}
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func strOrDash(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func floatOrDash(f *float64) string {
	if f == nil {
		return "-"
	}
	return fmt.Sprintf("%.3f", *f)
}

func intOrDash(n *int) string {
	if n == nil {
		return "-"
	}
	return fmt.Sprint(*n)
}
