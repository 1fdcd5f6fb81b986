// Package main is a command line tool for indexing and querying point cloud files with an octree.
package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"go.viam.com/octree/logging"
)

const (
	flagConfig      = "config"
	flagDebug       = "debug"
	flagAccuracy    = "accuracy"
	flagMaxDist     = "max-dist"
	flagNotSelf     = "not-self"
	flagRadius      = "radius"
	flagLevel       = "level"
	flagContainment = "containment"
	flagLogLevel    = "log-level"
	flagQuiet       = "quiet"
)

func main() {
	if err := newApp(nil).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// newApp builds the CLI. A nil logger is replaced by a stdout logger once flags are parsed.
func newApp(logger logging.Logger) *cli.App {
	a := &octreeApp{logger: logger}
	return &cli.App{
		Name:  "octree",
		Usage: "index and query point cloud files",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "load the tree volume, accuracy and containment from a JSON5 `FILE`",
			},
			&cli.StringFlag{
				Name:  flagContainment,
				Value: "region",
				Usage: "containment policy used when no config is given (reference or region)",
			},
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
			&cli.StringFlag{
				Name:  flagLogLevel,
				Usage: "minimum log level (debug, info, warn or error)",
			},
			&cli.BoolFlag{
				Name:  flagQuiet,
				Usage: "discard all logs",
			},
		},
		Before: a.before,
		Commands: []*cli.Command{
			{
				Name:      "dedupe",
				Usage:     "remove points closer than an accuracy to an earlier point",
				ArgsUsage: "<in> <out>",
				Flags: []cli.Flag{
					&cli.Float64Flag{Name: flagAccuracy, Value: 0.001, Usage: "distance under which points are duplicates"},
				},
				Action: a.dedupeAction,
			},
			{
				Name:      "nearest",
				Usage:     "print the point closest to a query point",
				ArgsUsage: "<file> <x> <y> <z>",
				Flags: []cli.Flag{
					&cli.Float64Flag{Name: flagMaxDist, Usage: "ignore points at or beyond this distance; 0 is unbounded"},
					&cli.BoolFlag{Name: flagNotSelf, Usage: "ignore points equal to the query point"},
				},
				Action: a.nearestAction,
			},
			{
				Name:      "has",
				Usage:     "report whether a point within accuracy of the query point is stored",
				ArgsUsage: "<file> <x> <y> <z>",
				Flags: []cli.Flag{
					&cli.Float64Flag{Name: flagAccuracy, Usage: "match tolerance; overrides the config accuracy"},
				},
				Action: a.hasAction,
			},
			{
				Name:      "nearby",
				Usage:     "print every point within a radius of a query point",
				ArgsUsage: "<file> <x> <y> <z>",
				Flags: []cli.Flag{
					&cli.Float64Flag{Name: flagRadius, Required: true, Usage: "search radius"},
				},
				Action: a.nearbyAction,
			},
			{
				Name:      "levels",
				Usage:     "print the filled cells at a tree level",
				ArgsUsage: "<file>",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: flagLevel, Usage: "tree level, 0 is the root"},
				},
				Action: a.levelsAction,
			},
			{
				Name:      "spacing",
				Usage:     "summarize the distance from every point to its nearest neighbour",
				ArgsUsage: "<file>",
				Action:    a.spacingAction,
			},
		},
	}
}
