package octree

import (
	"github.com/pkg/errors"
	"go.viam.com/utils"

	"go.viam.com/octree/logging"
	"go.viam.com/octree/spatialmath"
)

// Config describes a tree in serialized form.
type Config struct {
	Origin      [3]float64 `json:"origin"`
	Extent      [3]float64 `json:"extent"`
	Accuracy    float64    `json:"accuracy,omitempty"`
	Containment string     `json:"containment,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	if cfg.Extent == [3]float64{} {
		return utils.NewConfigValidationFieldRequiredError(path, "extent")
	}
	for _, e := range cfg.Extent {
		if e <= 0 {
			return utils.NewConfigValidationError(path, errors.Errorf("extent components must be positive, got %v", cfg.Extent))
		}
	}
	if cfg.Accuracy < 0 {
		return utils.NewConfigValidationError(path, errors.Errorf("accuracy cannot be negative, got %v", cfg.Accuracy))
	}
	if _, err := ParseContainment(cfg.Containment); err != nil {
		return utils.NewConfigValidationError(path, err)
	}
	return nil
}

// NewFromConfig validates cfg and creates an empty tree from it.
func NewFromConfig[T any](cfg Config, logger logging.Logger) (*Tree[T], error) {
	if err := cfg.Validate("octree"); err != nil {
		return nil, err
	}
	policy, err := ParseContainment(cfg.Containment)
	if err != nil {
		return nil, err
	}
	return New[T](
		spatialmath.NewVector(cfg.Origin[0], cfg.Origin[1], cfg.Origin[2]),
		spatialmath.NewVector(cfg.Extent[0], cfg.Extent[1], cfg.Extent[2]),
		logger,
		WithAccuracy(cfg.Accuracy),
		WithContainment(policy),
	), nil
}
