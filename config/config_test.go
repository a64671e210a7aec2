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

package config

import "testing"

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default() should validate, got %v", err)
	}
}

func TestLoadYAML(t *testing.T) {
	data := []byte(`
workerCount: 4
broadphase:
  originX: -10
  originY: -10
  cellSizeX: 2
  cellSizeY: 2
  cellCountX: 10
  cellCountY: 10
  padding: 0.1
solver:
  maxIterations: 16
  maxLambda: 0.0001
physics:
  linearDragMultiplier: 0.98
  angularDragMultiplier: 0.95
  frictionCoeff: 0.3
  solveIterations: 4
`)
	cfg, err := Load(data)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.WorkerCount != 4 {
		t.Fatalf("workerCount = %d, want 4", cfg.WorkerCount)
	}
	if cfg.Broadphase.CellCountX != 10 || cfg.Broadphase.CellCountY != 10 {
		t.Fatalf("broadphase cell counts = %+v, want 10x10", cfg.Broadphase)
	}
	if cfg.Solver.MaxIterations != 16 {
		t.Fatalf("solver.maxIterations = %d, want 16", cfg.Solver.MaxIterations)
	}
	if cfg.Physics.SolveIterations != 4 {
		t.Fatalf("physics.solveIterations = %d, want 4", cfg.Physics.SolveIterations)
	}
}

func TestLoadJSON(t *testing.T) {
	data := []byte(`{"workerCount":2,"broadphase":{"cellSizeX":1,"cellSizeY":1,"cellCountX":4,"cellCountY":4},"solver":{"maxIterations":8,"maxLambda":0.001},"physics":{"solveIterations":1}}`)
	cfg, err := Load(data)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.WorkerCount != 2 {
		t.Fatalf("workerCount = %d, want 2", cfg.WorkerCount)
	}
}

func TestLoadRejectsZeroWorkerCount(t *testing.T) {
	data := []byte(`{"workerCount":0,"broadphase":{"cellSizeX":1,"cellSizeY":1,"cellCountX":1,"cellCountY":1},"solver":{"maxIterations":1}}`)
	if _, err := Load(data); err == nil {
		t.Fatalf("expected an error for workerCount=0")
	}
}

func TestLoadLegacyAdaptsToCanonicalShape(t *testing.T) {
	data := []byte(`
workers: 3
originX: 0
originY: 0
cellSize: 5
cellCountX: 8
cellCountY: 8
padding: 0.25
iterations: 12
maxLambda: 0.001
linearDrag: 0.9
angularDrag: 0.9
friction: 0.5
`)
	cfg, err := LoadLegacy(data)
	if err != nil {
		t.Fatalf("LoadLegacy: %v", err)
	}
	if cfg.WorkerCount != 3 {
		t.Fatalf("workerCount = %d, want 3", cfg.WorkerCount)
	}
	if cfg.Broadphase.CellSizeX != 5 || cfg.Broadphase.CellSizeY != 5 {
		t.Fatalf("legacy cellSize should map to both axes, got %+v", cfg.Broadphase)
	}
	if cfg.Solver.MaxIterations != 12 {
		t.Fatalf("solver.maxIterations = %d, want 12 (from legacy iterations)", cfg.Solver.MaxIterations)
	}
	if cfg.Physics.SolveIterations != 12 {
		t.Fatalf("physics.solveIterations = %d, want 12 (from legacy iterations)", cfg.Physics.SolveIterations)
	}
}

func TestLoadLegacyRejectsEmptyGrid(t *testing.T) {
	data := []byte(`
workers: 1
cellSize: 0
cellCountX: 1
cellCountY: 1
iterations: 1
`)
	if _, err := LoadLegacy(data); err == nil {
		t.Fatalf("expected an error for zero cell size")
	}
}
