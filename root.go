package main

import (
	"context"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/nikolaydubina/bag-treemap/bagtreemap"
	"github.com/nikolaydubina/bag-treemap/logging"
	"github.com/nikolaydubina/bag-treemap/treemap"
	"github.com/nikolaydubina/bag-treemap/treemap/layout"
	"github.com/nikolaydubina/bag-treemap/treemap/render"
)

const (
	formatSVG    = "svg"
	formatHTML   = "html"
	formatCSV    = "csv"
	formatTopics = "topics"

	colorHue  = "hue"
	colorHeat = "heat"
	colorNone = "none"
)

var grey = color.RGBA{128, 128, 128, 255}

type options struct {
	output   string
	format   string
	width    float64
	height   float64
	tiling   string
	color    string
	palette  string
	exclude  []string
	minShare float64
	collapse bool
	fromCSV  bool
	show     bool
	showAddr string
	trace    bool
	logLevel string
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "bag-treemap <input_bag>",
		Short: "Treemap of disk usage of topics in ROS 2 bag",
		Long: `Reads every message of ROS 2 bag, sums payload bytes per topic and
draws treemap where topics are nested by their slash delimited namespaces.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		logging.InitLogger()
		if opts.logLevel != "" && !logging.SetLogLevel(opts.logLevel) {
			return fmt.Errorf("unknown log level(%s)", opts.logLevel)
		}
		if opts.trace {
			tracer.Start(
				tracer.WithServiceName(serviceName),
				tracer.WithSamplingRules([]tracer.SamplingRule{tracer.RateRule(1)}),
			)
			defer tracer.Stop()
		}
		return run(cmd.Context(), cmd.OutOrStdout(), opts, args[0])
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.output, "output", "o", "", "output file, stdout when empty")
	flags.StringVar(&opts.format, "format", formatSVG, "output format: svg, html, csv (hierarchy) or topics (per topic table)")
	flags.Float64VarP(&opts.width, "width", "W", 1024, "width of treemap")
	flags.Float64VarP(&opts.height, "height", "H", 768, "height of treemap")
	flags.StringVar(&opts.tiling, "tiling", string(layout.TilingSquarify), fmt.Sprintf("tiling of boxes: %v", layout.Tilings()))
	flags.StringVar(&opts.color, "color", colorHue, "box colors: hue (by namespace), heat (by average message size) or none")
	flags.StringVar(&opts.palette, "palette", "RdYlGn", fmt.Sprintf("palette of heat colors: %v", render.Palettes()))
	flags.StringArrayVar(&opts.exclude, "exclude", nil, "skip topics matching pattern and topics under matching namespace, can be repeated")
	flags.Float64Var(&opts.minShare, "min-share", 0, "fold sibling topics smaller than this share of total into one box")
	flags.BoolVar(&opts.collapse, "collapse", false, "collapse namespaces with single child into one box")
	flags.BoolVar(&opts.fromCSV, "from-csv", false, "input is topic table written with --format topics instead of bag")
	flags.BoolVar(&opts.show, "show", false, "serve html page once on local address and wait until it is opened")
	flags.StringVar(&opts.showAddr, "show-addr", "127.0.0.1:0", "address for --show")
	flags.BoolVar(&opts.trace, "trace", false, "send traces to Datadog agent")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")

	cmd.AddCommand(newVersionCmd())
	return cmd
}

func run(ctx context.Context, stdout io.Writer, opts options, input string) (err error) {
	span, ctx := tracer.StartSpanFromContext(ctx, "bag-treemap.run", tracer.ResourceName(opts.format))
	defer func() { span.Finish(tracer.WithError(err)) }()

	if err := validateOptions(opts); err != nil {
		return err
	}
	if err := bagtreemap.CheckBagPath(input); err != nil {
		return err
	}

	stats, err := readStats(ctx, input, opts.fromCSV)
	if err != nil {
		return err
	}

	sizes, err := bagtreemap.ExcludeTopics(ctx, bagtreemap.TopicSizes(stats), opts.exclude)
	if err != nil {
		return err
	}
	logStats(stats, sizes)

	var page []byte
	var nodes []bagtreemap.HierarchyNode

	if opts.format == formatTopics {
		page, err = topicsTable(ctx, stats, sizes)
	} else {
		aggregator := bagtreemap.Aggregate(sizes)
		if aggregator.Saturated() {
			logging.Logger.Warn("total size does not fit into 64 bits, sizes are capped")
		}
		nodes = aggregator.Nodes()
		logging.Logger.Debug("aggregated", "nodes", aggregator.Len())

		switch opts.format {
		case formatCSV:
			page, err = hierarchyTable(ctx, nodes)
		case formatHTML:
			page, err = drawTreemap(ctx, opts, stats, nodes, render.HTMLRenderer{Title: serviceName + ": " + filepath.Base(input)})
		default:
			page, err = drawTreemap(ctx, opts, stats, nodes, render.SVGRenderer{})
		}
	}
	if err != nil {
		return err
	}

	if opts.show {
		if opts.output != "" {
			if err := os.WriteFile(opts.output, page, 0o644); err != nil {
				return fmt.Errorf("can not write output: %w", err)
			}
		}
		return show(ctx, opts.showAddr, page, contentType(opts.format), nodes)
	}

	return writeOutput(stdout, opts.output, page)
}

func validateOptions(opts options) error {
	switch opts.format {
	case formatSVG, formatHTML, formatCSV, formatTopics:
	default:
		return fmt.Errorf("unknown format(%s)", opts.format)
	}
	switch opts.color {
	case colorHue, colorHeat, colorNone:
	default:
		return fmt.Errorf("unknown color(%s)", opts.color)
	}
	if _, err := layout.ParseTiling(opts.tiling); err != nil {
		return err
	}
	if opts.width <= 0 || opts.height <= 0 {
		return fmt.Errorf("width(%v) and height(%v) should be positive", opts.width, opts.height)
	}
	if opts.minShare < 0 || opts.minShare >= 1 {
		return fmt.Errorf("min share(%v) should be in [0, 1)", opts.minShare)
	}
	return nil
}

func readStats(ctx context.Context, input string, fromCSV bool) (map[string]bagtreemap.TopicStats, error) {
	if !fromCSV {
		return bagtreemap.CollectFromBag(ctx, input)
	}

	f, err := os.Open(input)
	if err != nil {
		return nil, fmt.Errorf("can not open topic table: %w", err)
	}
	defer f.Close()

	return bagtreemap.ParseTopicStats(ctx, f)
}

func logStats(stats map[string]bagtreemap.TopicStats, sizes map[string]uint64) {
	total := bagtreemap.TotalStats(stats)
	logging.Logger.Info("collected",
		"topics", len(stats),
		"messages", humanize.Comma(int64(total.Messages)),
		"size", humanize.IBytes(total.Bytes),
	)
	if excluded := len(stats) - len(sizes); excluded > 0 {
		logging.Logger.Info("excluded", "topics", excluded)
	}
}

func topicsTable(ctx context.Context, stats map[string]bagtreemap.TopicStats, sizes map[string]uint64) ([]byte, error) {
	kept := make(map[string]bagtreemap.TopicStats, len(sizes))
	for topic := range sizes {
		kept[topic] = stats[topic]
	}

	var b strings.Builder
	if err := bagtreemap.WriteTopicStats(ctx, &b, kept); err != nil {
		return nil, fmt.Errorf("can not write topics: %w", err)
	}
	return []byte(b.String()), nil
}

func hierarchyTable(ctx context.Context, nodes []bagtreemap.HierarchyNode) ([]byte, error) {
	var b strings.Builder
	if err := bagtreemap.WriteHierarchyCSV(ctx, &b, nodes); err != nil {
		return nil, fmt.Errorf("can not write hierarchy: %w", err)
	}
	return []byte(b.String()), nil
}

type renderer interface {
	Render(ctx context.Context, root render.UIBox, w, h float64) []byte
}

func drawTreemap(ctx context.Context, opts options, stats map[string]bagtreemap.TopicStats, nodes []bagtreemap.HierarchyNode, r renderer) ([]byte, error) {
	if len(nodes) == 0 {
		logging.Logger.Warn("no messages, treemap is empty")
		return r.Render(ctx, render.UIBox{IsInvisible: true, IsRoot: true}, opts.width, opts.height), nil
	}

	tree, err := bagtreemap.TreemapFromHierarchy(ctx, nodes)
	if err != nil {
		return nil, fmt.Errorf("can not build tree: %w", err)
	}

	treemap.SumSizeImputer{}.ImputeSize(ctx, *tree)

	var colorer render.Colorer
	switch opts.color {
	case colorHeat:
		bagtreemap.ImputeTopicHeat(ctx, tree, stats)
		treemap.WeightedHeatImputer{}.ImputeHeat(ctx, *tree)
		if !tree.HasHeat(ctx) {
			logging.Logger.Warn("all topics have same average message size, heat is flat")
		}
		tree.NormalizeHeat(ctx)

		palette, ok := render.GetPalette(ctx, opts.palette)
		if !ok {
			return nil, fmt.Errorf("unknown palette(%s)", opts.palette)
		}
		colorer = render.HeatColorer{Palette: palette}
	case colorNone:
		colorer = render.NoneColorer{}
	}

	bagtreemap.AggregateSmallTopicsFilter(ctx, tree, opts.minShare)
	if opts.collapse {
		treemap.CollapseLongPaths(ctx, tree)
	}

	if colorer == nil {
		colorer = render.NewTreeHueColorer(ctx, *tree)
	}

	tiling, err := layout.ParseTiling(opts.tiling)
	if err != nil {
		return nil, err
	}

	uiBuilder := render.UITreeMapBuilder{
		Colorer:     colorer,
		BorderColor: grey,
		Tiling:      tiling,
	}
	spec := uiBuilder.NewUITreeMap(ctx, *tree, opts.width, opts.height, 4, 4, 16)
	return r.Render(ctx, spec, opts.width, opts.height), nil
}

func contentType(format string) string {
	switch format {
	case formatSVG:
		return "image/svg+xml"
	case formatCSV, formatTopics:
		return "text/csv; charset=utf-8"
	default:
		return "text/html; charset=utf-8"
	}
}

func writeOutput(stdout io.Writer, output string, page []byte) error {
	if output == "" {
		_, err := stdout.Write(page)
		return err
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("can not create output: %w", err)
	}
	if _, err := f.Write(page); err != nil {
		f.Close()
		return fmt.Errorf("can not write output: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("can not write output: %w", err)
	}
	logging.Logger.Info("written", "file", output, "size", humanize.IBytes(uint64(len(page))))
	return nil
}
