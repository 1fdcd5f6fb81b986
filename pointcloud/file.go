package pointcloud

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/octree/logging"
)

// ReadFile returns the points read in from the given .pcd or .las file.
func ReadFile(fn string, logger logging.Logger) ([]PointAndData, error) {
	switch filepath.Ext(fn) {
	case ".las":
		return ReadLASFile(fn, logger)
	case ".pcd":
		f, err := os.Open(filepath.Clean(fn))
		if err != nil {
			return nil, err
		}
		points, err := ReadPCD(f)
		return points, multierr.Combine(err, f.Close())
	default:
		return nil, errors.Errorf("do not know how to read file %q", fn)
	}
}

// WriteFile writes the points to the given .pcd (ascii) or .las file.
func WriteFile(points []PointAndData, fn string) error {
	switch filepath.Ext(fn) {
	case ".las":
		return WriteLASFile(points, fn)
	case ".pcd":
		f, err := os.Create(filepath.Clean(fn))
		if err != nil {
			return err
		}
		return multierr.Combine(WritePCD(f, points, PCDAscii), f.Close())
	default:
		return errors.Errorf("do not know how to write file %q", fn)
	}
}
