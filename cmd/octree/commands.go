package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"github.com/yosuke-furukawa/json5/encoding/json5"

	"go.viam.com/octree/logging"
	"go.viam.com/octree/octree"
	"go.viam.com/octree/pointcloud"
	"go.viam.com/octree/spatialmath"
)

type octreeApp struct {
	logger logging.Logger
	// cfg is nil unless --config was given, in which case it fixes the tree volume.
	cfg         *octree.Config
	containment octree.ContainmentPolicy
}

func (a *octreeApp) before(c *cli.Context) error {
	switch {
	case c.Bool(flagQuiet):
		a.logger = logging.NewBlankLogger("cli")
	case a.logger == nil && c.Bool(flagDebug):
		a.logger = logging.NewDebugLogger("cli")
	case a.logger == nil:
		a.logger = logging.NewLogger("cli")
	}
	if c.Bool(flagDebug) {
		a.logger.SetLevel(logging.DEBUG)
	}
	if c.IsSet(flagLogLevel) {
		level, err := logging.LevelFromString(c.String(flagLogLevel))
		if err != nil {
			return err
		}
		a.logger.SetLevel(level)
	}

	policy, err := octree.ParseContainment(c.String(flagContainment))
	if err != nil {
		return err
	}
	a.containment = policy

	if path := c.String(flagConfig); path != "" {
		cfg, err := readConfig(path)
		if err != nil {
			return err
		}
		a.cfg = cfg
	}
	return nil
}

// readConfig reads and validates a JSON5 tree config.
func readConfig(path string) (*octree.Config, error) {
	//nolint:gosec
	raw, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read config %q", path)
	}
	var cfg octree.Config
	if err := json5.Unmarshal(raw, &cfg); err != nil {
		return nil, errors.Wrapf(err, "cannot parse config %q", path)
	}
	if err := cfg.Validate(path); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// buildTree indexes the points in a tree described by the config, or sized to the points' bounds
// when there is none. Options given here are applied last.
func (a *octreeApp) buildTree(points []pointcloud.PointAndData, opts ...octree.Option) (*octree.Tree[pointcloud.Data], error) {
	if a.cfg == nil {
		return pointcloud.Index(points, a.logger, append([]octree.Option{octree.WithContainment(a.containment)}, opts...)...), nil
	}

	policy, err := octree.ParseContainment(a.cfg.Containment)
	if err != nil {
		return nil, err
	}
	tree := octree.New[pointcloud.Data](
		spatialmath.NewVector(a.cfg.Origin[0], a.cfg.Origin[1], a.cfg.Origin[2]),
		spatialmath.NewVector(a.cfg.Extent[0], a.cfg.Extent[1], a.cfg.Extent[2]),
		a.logger,
		append([]octree.Option{octree.WithAccuracy(a.cfg.Accuracy), octree.WithContainment(policy)}, opts...)...,
	)
	for _, p := range points {
		tree.Add(p.P, p.D)
	}
	if dropped := len(points) - tree.Size(); dropped > 0 {
		a.logger.Warnw("points were not stored by the configured tree", "dropped", dropped)
	}
	return tree, nil
}

// loadTree reads the cloud named by the first argument and indexes it.
func (a *octreeApp) loadTree(c *cli.Context, opts ...octree.Option) (*octree.Tree[pointcloud.Data], error) {
	points, err := a.readPoints(c)
	if err != nil {
		return nil, err
	}
	return a.buildTree(points, opts...)
}

func (a *octreeApp) readPoints(c *cli.Context) ([]pointcloud.PointAndData, error) {
	fn := c.Args().First()
	if fn == "" {
		return nil, errors.New("a point cloud file is required")
	}
	return pointcloud.ReadFile(fn, a.logger)
}

// queryPoint parses the x, y and z arguments following the file name.
func queryPoint(c *cli.Context) (spatialmath.Vector, error) {
	if c.Args().Len() != 4 {
		return spatialmath.Vector{}, errors.Errorf("expected <file> <x> <y> <z>, got %d arguments", c.Args().Len())
	}
	var xyz [3]float64
	for i := range xyz {
		arg := c.Args().Get(i + 1)
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return spatialmath.Vector{}, errors.Wrapf(err, "invalid coordinate %q", arg)
		}
		xyz[i] = v
	}
	return spatialmath.NewVector(xyz[0], xyz[1], xyz[2]), nil
}

func formatData(d pointcloud.Data) string {
	if d == nil {
		return ""
	}
	var out string
	if d.HasColor() {
		r, g, b := d.RGB255()
		out = fmt.Sprintf("rgb(%d, %d, %d)", r, g, b)
	}
	if d.HasValue() {
		if out != "" {
			out += " "
		}
		out += fmt.Sprintf("value=%d", d.Value())
	}
	return out
}

func (a *octreeApp) dedupeAction(c *cli.Context) error {
	if c.Args().Len() != 2 {
		return errors.New("expected <in> <out>")
	}
	points, err := pointcloud.ReadFile(c.Args().Get(0), a.logger)
	if err != nil {
		return err
	}
	kept := pointcloud.Dedupe(points, c.Float64(flagAccuracy), a.logger)
	if err := pointcloud.WriteFile(kept, c.Args().Get(1)); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "kept %d of %d points\n", len(kept), len(points))
	return nil
}

func (a *octreeApp) nearestAction(c *cli.Context) error {
	p, err := queryPoint(c)
	if err != nil {
		return err
	}
	tree, err := a.loadTree(c)
	if err != nil {
		return err
	}
	entry, ok := tree.FindNearestEntry(p, octree.NearestOptions{
		MaxDist: c.Float64(flagMaxDist),
		NotSelf: c.Bool(flagNotSelf),
	})
	if !ok {
		fmt.Fprintln(c.App.Writer, "no point found")
		return nil
	}
	fmt.Fprintf(c.App.Writer, "%v distance=%g %s\n", entry.Point, entry.Point.Distance(p), formatData(entry.Data))
	return nil
}

func (a *octreeApp) hasAction(c *cli.Context) error {
	p, err := queryPoint(c)
	if err != nil {
		return err
	}
	var opts []octree.Option
	if c.IsSet(flagAccuracy) {
		opts = append(opts, octree.WithAccuracy(c.Float64(flagAccuracy)))
	}
	tree, err := a.loadTree(c, opts...)
	if err != nil {
		return err
	}
	if match, ok := tree.Has(p); ok {
		fmt.Fprintf(c.App.Writer, "found %v\n", match)
		return nil
	}
	fmt.Fprintln(c.App.Writer, "not found")
	return nil
}

func (a *octreeApp) nearbyAction(c *cli.Context) error {
	p, err := queryPoint(c)
	if err != nil {
		return err
	}
	tree, err := a.loadTree(c)
	if err != nil {
		return err
	}
	for _, e := range tree.FindNearbyEntries(p, c.Float64(flagRadius)) {
		fmt.Fprintf(c.App.Writer, "%v distance=%g %s\n", e.Point, e.Point.Distance(p), formatData(e.Data))
	}
	return nil
}

func (a *octreeApp) levelsAction(c *cli.Context) error {
	tree, err := a.loadTree(c)
	if err != nil {
		return err
	}
	t := table.NewWriter()
	t.SetOutputMirror(c.App.Writer)
	t.AppendHeader(table.Row{"#", "Origin", "Size", "Points"})
	for i, cell := range tree.CellsAtLevel(c.Int(flagLevel)) {
		t.AppendRow(table.Row{i, cell.Origin(), cell.Size(), len(cell.Entries())})
	}
	t.AppendFooter(table.Row{"", "", "stored", tree.Size()})
	t.Render()
	return nil
}

func (a *octreeApp) spacingAction(c *cli.Context) error {
	tree, err := a.loadTree(c)
	if err != nil {
		return err
	}
	summary, err := spacing(tree)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "points=%d mean=%g median=%g max=%g\n", tree.Size(), summary.mean, summary.median, summary.max)
	return nil
}

type spacingSummary struct {
	mean, median, max float64
}

// spacing summarizes the distance from every stored point to its nearest distinct neighbour.
func spacing(tree *octree.Tree[pointcloud.Data]) (spacingSummary, error) {
	var distances stats.Float64Data
	tree.Iterate(func(p spatialmath.Vector, _ pointcloud.Data) bool {
		if neighbour, ok := tree.FindNearestPoint(p, octree.NearestOptions{NotSelf: true}); ok {
			distances = append(distances, neighbour.Distance(p))
		}
		return true
	})

	var summary spacingSummary
	var err error
	if summary.mean, err = distances.Mean(); err != nil {
		return spacingSummary{}, errors.Wrap(err, "need at least two distinct points")
	}
	if summary.median, err = distances.Median(); err != nil {
		return spacingSummary{}, err
	}
	if summary.max, err = distances.Max(); err != nil {
		return spacingSummary{}, err
	}
	return summary, nil
}
