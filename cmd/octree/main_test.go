package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"

	"go.viam.com/octree/logging"
	"go.viam.com/octree/octree"
	"go.viam.com/octree/pointcloud"
	"go.viam.com/octree/spatialmath"
)

func writeCloud(t *testing.T, positions ...spatialmath.Vector) string {
	t.Helper()
	points := make([]pointcloud.PointAndData, len(positions))
	for i, p := range positions {
		points[i] = pointcloud.PointAndData{P: p, D: pointcloud.NewBasicData()}
	}
	fn := filepath.Join(t.TempDir(), "cloud.pcd")
	test.That(t, pointcloud.WriteFile(points, fn), test.ShouldBeNil)
	return fn
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp(logging.NewTestLogger(t))
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(append([]string{"octree"}, args...))
	return out.String(), err
}

func sampleCloud(t *testing.T) string {
	return writeCloud(t,
		spatialmath.NewVector(0, 0, 0),
		spatialmath.NewVector(1, 0, 0),
		spatialmath.NewVector(0, 2, 0),
		spatialmath.NewVector(5, 5, 5),
	)
}

func TestNearestCommand(t *testing.T) {
	fn := sampleCloud(t)

	out, err := runApp(t, "nearest", fn, "1", "0", "0.5")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "(1, 0, 0) distance=0.5")

	out, err = runApp(t, "nearest", "--not-self", fn, "0", "0", "0")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "(1, 0, 0) distance=1")

	out, err = runApp(t, "nearest", "--max-dist", "0.25", fn, "3", "3", "3")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "no point found")

	t.Run("bad arguments", func(t *testing.T) {
		_, err := runApp(t, "nearest", fn, "a", "0", "0")
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "invalid coordinate")

		_, err = runApp(t, "nearest", fn, "0", "0")
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "expected <file> <x> <y> <z>")
	})
}

func TestHasCommand(t *testing.T) {
	fn := sampleCloud(t)

	out, err := runApp(t, "has", fn, "0", "0", "0")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "found (0, 0, 0)")

	out, err = runApp(t, "has", fn, "0.1", "0", "0")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "not found")

	out, err = runApp(t, "has", "--accuracy", "0.2", fn, "0.1", "0", "0")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "found (0, 0, 0)")
}

func TestNearbyCommand(t *testing.T) {
	fn := sampleCloud(t)

	out, err := runApp(t, "nearby", "--radius", "1.5", fn, "0", "0", "0")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "(0, 0, 0) distance=0")
	test.That(t, out, test.ShouldContainSubstring, "(1, 0, 0) distance=1")
	test.That(t, out, test.ShouldNotContainSubstring, "(0, 2, 0)")

	_, err = runApp(t, "nearby", fn, "0", "0", "0")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestLevelsCommand(t *testing.T) {
	out, err := runApp(t, "levels", "--level", "1", sampleCloud(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "ORIGIN")
	test.That(t, out, test.ShouldContainSubstring, "STORED")

	_, err = runApp(t, "levels")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "point cloud file is required")
}

func TestSpacing(t *testing.T) {
	logger := logging.NewTestLogger(t)
	points := []pointcloud.PointAndData{
		{P: spatialmath.NewVector(0, 0, 0)},
		{P: spatialmath.NewVector(1, 0, 0)},
		{P: spatialmath.NewVector(0, 2, 0)},
	}
	tree := pointcloud.Index(points, logger, octree.WithContainment(octree.RegionContainment{}))

	summary, err := spacing(tree)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, summary.mean, test.ShouldAlmostEqual, 4.0/3.0)
	test.That(t, summary.median, test.ShouldEqual, 1.0)
	test.That(t, summary.max, test.ShouldEqual, 2.0)

	single := pointcloud.Index(points[:1], logger)
	_, err = spacing(single)
	test.That(t, err, test.ShouldNotBeNil)

	out, err := runApp(t, "spacing", writeCloud(t, spatialmath.NewVector(0, 0, 0), spatialmath.NewVector(0, 0, 3)))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "points=2 mean=3 median=3 max=3")
}

func TestDedupeCommand(t *testing.T) {
	in := writeCloud(t,
		spatialmath.NewVector(0, 0, 0),
		spatialmath.NewVector(0.0005, 0, 0),
		spatialmath.NewVector(1, 1, 1),
	)
	outFile := filepath.Join(t.TempDir(), "deduped.pcd")

	out, err := runApp(t, "dedupe", in, outFile)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "kept 2 of 3 points")

	points, err := pointcloud.ReadFile(outFile, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pointcloud.Positions(points), test.ShouldResemble, []spatialmath.Vector{
		spatialmath.NewVector(0, 0, 0),
		spatialmath.NewVector(1, 1, 1),
	})

	_, err = runApp(t, "dedupe", in)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestConfigFlag(t *testing.T) {
	dir := t.TempDir()
	fn := sampleCloud(t)

	cfgPath := filepath.Join(dir, "tree.json5")
	test.That(t, os.WriteFile(cfgPath, []byte(`{
		// a cube around the sample cloud
		origin: [-10, -10, -10],
		extent: [20, 20, 20],
		containment: "region",
	}`), 0o600), test.ShouldBeNil)

	out, err := runApp(t, "--config", cfgPath, "nearest", fn, "1", "0", "0.5")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "(1, 0, 0) distance=0.5")

	cfg, err := readConfig(cfgPath)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Extent, test.ShouldResemble, [3]float64{20, 20, 20})

	t.Run("invalid config", func(t *testing.T) {
		badPath := filepath.Join(dir, "bad.json5")
		test.That(t, os.WriteFile(badPath, []byte(`{origin: [0, 0, 0]}`), 0o600), test.ShouldBeNil)
		_, err := runApp(t, "--config", badPath, "nearest", fn, "0", "0", "0")
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "extent")

		_, err = readConfig(filepath.Join(dir, "missing.json5"))
		test.That(t, err, test.ShouldNotBeNil)
	})

	t.Run("unknown containment", func(t *testing.T) {
		_, err := runApp(t, "--containment", "sphere", "nearest", fn, "0", "0", "0")
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "unknown containment policy")
	})
}

func TestLoggingFlags(t *testing.T) {
	in := sampleCloud(t)

	run := func(t *testing.T, flags ...string) (int, error) {
		t.Helper()
		logger, logs := logging.NewObservedTestLogger(t)
		app := newApp(logger)
		app.Writer = &bytes.Buffer{}
		args := append(append([]string{"octree"}, flags...), "dedupe", in, filepath.Join(t.TempDir(), "out.pcd"))
		err := app.Run(args)
		return logs.FilterMessage("deduplicated point cloud").Len(), err
	}

	count, err := run(t)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, count, test.ShouldEqual, 1)

	count, err = run(t, "--log-level", "warn")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, count, test.ShouldEqual, 0)

	count, err = run(t, "--quiet")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, count, test.ShouldEqual, 0)

	_, err = run(t, "--log-level", "loud")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unknown log level")
}
