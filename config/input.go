package config

import (
	"fmt"

	"github.com/kilianp07/podplan/core/dataset"
	"github.com/kilianp07/podplan/core/logger"
	"github.com/kilianp07/podplan/core/model"
)

// Reference instance of the original study.
const (
	DefaultMethod       = "MC"
	DefaultDistrict     = "KADIKÖY"
	DefaultNodeCount    = 950
	DefaultPODCount     = 173
	DefaultSupplyOrigin = 1
)

// InputConfig locates the per-scenario input tables.
type InputConfig struct {
	BaseDir      string `json:"base_dir"`
	Method       string `json:"method"`
	District     string `json:"district"`
	NodeCount    int    `json:"node_count"`
	PODCount     int    `json:"pod_count"`
	SupplyOrigin int    `json:"supply_origin"`
	IDColumn     string `json:"id_column"`
	// Path templates; see dataset.Layout for the placeholders.
	NodePattern string `json:"node_pattern"`
	V0Pattern   string `json:"v0_pattern"`
	VPattern    string `json:"v_pattern"`
}

// SetDefaults applies the reference instance.
func (c *InputConfig) SetDefaults() {
	if c.BaseDir == "" {
		c.BaseDir = "."
	}
	if c.Method == "" {
		c.Method = DefaultMethod
	}
	if c.District == "" {
		c.District = DefaultDistrict
	}
	if c.NodeCount == 0 {
		c.NodeCount = DefaultNodeCount
	}
	if c.PODCount == 0 {
		c.PODCount = min(DefaultPODCount, c.NodeCount)
	}
	if c.SupplyOrigin == 0 {
		c.SupplyOrigin = DefaultSupplyOrigin
	}
}

// Validate checks the instance dimensions.
func (c InputConfig) Validate() error {
	switch {
	case c.Method == "":
		return fmt.Errorf("%w: input.method is required", model.ErrConfig)
	case c.District == "":
		return fmt.Errorf("%w: input.district is required", model.ErrConfig)
	case c.NodeCount < 1:
		return fmt.Errorf("%w: input.node_count must be positive, got %d", model.ErrConfig, c.NodeCount)
	case c.PODCount < 1 || c.PODCount > c.NodeCount:
		return fmt.Errorf("%w: input.pod_count must be within [1,%d], got %d", model.ErrConfig, c.NodeCount, c.PODCount)
	case c.SupplyOrigin < 1 || c.SupplyOrigin > c.PODCount:
		return fmt.Errorf("%w: input.supply_origin must be a candidate POD, got %d", model.ErrConfig, c.SupplyOrigin)
	}
	return nil
}

// Layout returns the path templates of the input tables.
func (c InputConfig) Layout() dataset.Layout {
	return dataset.Layout{
		BaseDir:     c.BaseDir,
		Method:      c.Method,
		District:    c.District,
		NodePattern: c.NodePattern,
		V0Pattern:   c.V0Pattern,
		VPattern:    c.VPattern,
	}.WithDefaults()
}

// Loader returns a dataset loader for the configured instance.
func (c InputConfig) Loader(log logger.Logger) *dataset.Loader {
	return &dataset.Loader{
		Layout:       c.Layout(),
		NodeCount:    c.NodeCount,
		PODCount:     c.PODCount,
		SupplyOrigin: model.PODID(c.SupplyOrigin),
		IDColumn:     c.IDColumn,
		Log:          log,
	}
}
