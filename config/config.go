// Copyright (C) 2026 dof engine contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package config loads the single root options struct the engine is
// started with: worker pool size plus the broadphase, solver and
// physics sub-configs. It is read once at startup and handed to
// downstream modules by value so no module can mutate another's copy
// mid-tick.
package config

import (
	"fmt"

	yamlv2 "gopkg.in/yaml.v2"
	"sigs.k8s.io/yaml"
)

// Broadphase mirrors grid.Config's field set in the shape spec.md §6
// names them: origin, cell size, cell count, padding.
type Broadphase struct {
	OriginX    float64 `json:"originX"`
	OriginY    float64 `json:"originY"`
	CellSizeX  float64 `json:"cellSizeX"`
	CellSizeY  float64 `json:"cellSizeY"`
	CellCountX int     `json:"cellCountX"`
	CellCountY int     `json:"cellCountY"`
	Padding    float64 `json:"padding"`
}

// Solver holds the PGS iteration bounds.
type Solver struct {
	MaxIterations int     `json:"maxIterations"`
	MaxLambda     float64 `json:"maxLambda"`
}

// Physics holds the per-tick integration tunables.
type Physics struct {
	LinearDragMultiplier  float64 `json:"linearDragMultiplier"`
	AngularDragMultiplier float64 `json:"angularDragMultiplier"`
	FrictionCoeff         float64 `json:"frictionCoeff"`
	SolveIterations       int     `json:"solveIterations"`
}

// Config is the canonical options struct of spec.md §6. It is the
// single source of truth: the legacy two-shape PhysicsConfig format is
// only ever decoded into this struct by LoadLegacy, never carried as a
// second live type.
type Config struct {
	WorkerCount int        `json:"workerCount"`
	Broadphase  Broadphase `json:"broadphase"`
	Solver      Solver     `json:"solver"`
	Physics     Physics    `json:"physics"`
}

// Default returns the engine's baked-in defaults: a single-cell,
// single-worker configuration safe to run before any real world bounds
// are known. Callers overlay their own values with Load/LoadLegacy.
func Default() Config {
	return Config{
		WorkerCount: 1,
		Broadphase: Broadphase{
			CellSizeX:  1,
			CellSizeY:  1,
			CellCountX: 1,
			CellCountY: 1,
		},
		Solver: Solver{
			MaxIterations: 8,
			MaxLambda:     1e-3,
		},
		Physics: Physics{
			LinearDragMultiplier:  1,
			AngularDragMultiplier: 1,
			FrictionCoeff:         0,
			SolveIterations:       1,
		},
	}
}

// Load decodes the canonical configuration format (JSON or YAML — the
// two are interchangeable for this shape) via sigs.k8s.io/yaml.
func Load(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// legacyPhysicsConfig is the older two-shape PhysicsConfig format
// (spec.md §9's "two copies of PhysicsConfig" open question): drag and
// friction lived directly on the root alongside a flat broadphase
// block, and iteration count was named "iterations" rather than
// "solveIterations". LoadLegacy exists purely as a compatibility
// adapter into Config; nothing downstream ever sees this shape.
type legacyPhysicsConfig struct {
	Workers     int     `yaml:"workers"`
	OriginX     float64 `yaml:"originX"`
	OriginY     float64 `yaml:"originY"`
	CellSize    float64 `yaml:"cellSize"`
	CellCountX  int     `yaml:"cellCountX"`
	CellCountY  int     `yaml:"cellCountY"`
	Padding     float64 `yaml:"padding"`
	Iterations  int     `yaml:"iterations"`
	MaxLambda   float64 `yaml:"maxLambda"`
	LinearDrag  float64 `yaml:"linearDrag"`
	AngularDrag float64 `yaml:"angularDrag"`
	Friction    float64 `yaml:"friction"`
}

// LoadLegacy decodes the deprecated flat PhysicsConfig shape via
// gopkg.in/yaml.v2 and adapts it into the canonical Config. Square
// cell sizes in the legacy format map to equal X/Y in Broadphase.
func LoadLegacy(data []byte) (Config, error) {
	var legacy legacyPhysicsConfig
	if err := yamlv2.Unmarshal(data, &legacy); err != nil {
		return Config{}, fmt.Errorf("config: decode legacy: %w", err)
	}
	cfg := Default()
	cfg.WorkerCount = legacy.Workers
	cfg.Broadphase = Broadphase{
		OriginX:    legacy.OriginX,
		OriginY:    legacy.OriginY,
		CellSizeX:  legacy.CellSize,
		CellSizeY:  legacy.CellSize,
		CellCountX: legacy.CellCountX,
		CellCountY: legacy.CellCountY,
		Padding:    legacy.Padding,
	}
	cfg.Solver = Solver{
		MaxIterations: legacy.Iterations,
		MaxLambda:     legacy.MaxLambda,
	}
	cfg.Physics = Physics{
		LinearDragMultiplier:  legacy.LinearDrag,
		AngularDragMultiplier: legacy.AngularDrag,
		FrictionCoeff:         legacy.Friction,
		SolveIterations:       legacy.Iterations,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects shapes that cannot back a running engine: a worker
// pool or grid with zero extent, or solver bounds that could never
// terminate.
func (c Config) Validate() error {
	if c.WorkerCount < 1 {
		return fmt.Errorf("config: workerCount must be >= 1, got %d", c.WorkerCount)
	}
	if c.Broadphase.CellCountX < 1 || c.Broadphase.CellCountY < 1 {
		return fmt.Errorf("config: broadphase cell counts must be >= 1")
	}
	if c.Broadphase.CellSizeX <= 0 || c.Broadphase.CellSizeY <= 0 {
		return fmt.Errorf("config: broadphase cell sizes must be > 0")
	}
	if c.Solver.MaxIterations < 1 {
		return fmt.Errorf("config: solver maxIterations must be >= 1, got %d", c.Solver.MaxIterations)
	}
	return nil
}
