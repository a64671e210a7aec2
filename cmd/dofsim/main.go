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

// Command dofsim drives a table database and a physics World through a
// fixed number of ticks, for manual smoke-testing and benchmarking of
// the engine outside of any embedding host.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"

	"github.com/dofsim/engine/config"
	"github.com/dofsim/engine/physics"
	"github.com/dofsim/engine/physics/narrowphase"
	"github.com/dofsim/engine/refs"
	"github.com/dofsim/engine/scheduler"
	"github.com/dofsim/engine/table"
	"github.com/dofsim/engine/transform"
)

var (
	dashConfig  string
	dashLegacy  bool
	dashTicks   int
	dashDT      float64
	dashBodies  int
	dashWorkers int
)

func init() {
	flag.StringVar(&dashConfig, "config", "", "path to a config file (YAML or JSON); empty uses config.Default()")
	flag.BoolVar(&dashLegacy, "legacy-config", false, "parse -config with the legacy flat PhysicsConfig shape")
	flag.IntVar(&dashTicks, "ticks", 120, "number of ticks to run")
	flag.Float64Var(&dashDT, "dt", 1.0/60.0, "fixed timestep per tick, in seconds")
	flag.IntVar(&dashBodies, "bodies", 16, "number of demo circle bodies to spawn in a falling column")
	flag.IntVar(&dashWorkers, "workers", 0, "scheduler worker count (0 defaults to config.WorkerCount)")
}

func exitf(f string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, f, args...)
	fmt.Fprintln(os.Stderr)
	os.Exit(1)
}

func loadConfig() config.Config {
	if dashConfig == "" {
		return config.Default()
	}
	data, err := os.ReadFile(dashConfig)
	if err != nil {
		exitf("reading %s: %s", dashConfig, err)
	}
	var cfg config.Config
	if dashLegacy {
		cfg, err = config.LoadLegacy(data)
	} else {
		cfg, err = config.Load(data)
	}
	if err != nil {
		exitf("loading %s: %s", dashConfig, err)
	}
	return cfg
}

// spawnColumn creates n circle bodies stacked vertically, each free to
// fall under whatever gravity a caller's own gameplay code applies to
// Velocity — this demo leaves Velocity at zero and simply exercises
// mass refresh, transform propagation, broadphase and narrowphase
// against a column of touching circles.
func spawnColumn(db *table.Database, id refs.TableID, n int, radius, density float64) {
	tbl, _ := db.Table(id)
	shapeKey := table.DenseKey[physics.Shape]()
	densityKey := table.DenseKey[physics.Density]()
	localKey := table.DenseKey[transform.Local]()

	for i := 0; i < n; i++ {
		ref, err := db.AddElement(id)
		if err != nil {
			exitf("spawning body %d: %s", i, err)
		}
		loc, _ := db.Resolver().TryUnpack(ref)

		row, _ := tbl.Row(shapeKey)
		row.(*table.DenseRow[physics.Shape]).At(loc.Index).Local = narrowphase.Shape{
			Kind: narrowphase.KindCircle, Radius: radius,
		}
		drow, _ := tbl.Row(densityKey)
		drow.(*table.DenseRow[physics.Density]).At(loc.Index).Value = density

		lrow, _ := tbl.Row(localKey)
		local := lrow.(*table.DenseRow[transform.Local]).At(loc.Index)
		local.Value = transform.Identity
		local.Value.SetPos2(0, float64(i)*radius*2)
	}
}

func main() {
	flag.Parse()
	cfg := loadConfig()
	if dashWorkers > 0 {
		cfg.WorkerCount = dashWorkers
	}

	resolver := refs.New()
	db := table.NewDatabase(resolver)
	schema := table.NewSchema(0, physics.BodySchema()...)
	bodies := db.Register(schema)

	spawnColumn(db, bodies, dashBodies, 0.5, 1.0)

	world := physics.NewWorld(db, cfg)
	sched := scheduler.New(cfg.WorkerCount, db)

	log.Printf("dofsim: %d bodies, %d ticks at dt=%v, %d workers", dashBodies, dashTicks, dashDT, cfg.WorkerCount)
	for tick := 0; tick < dashTicks; tick++ {
		graph, err := scheduler.Build(world.Nodes(dashDT))
		if err != nil {
			exitf("tick %d: building graph: %s", tick, err)
		}
		if err := sched.Run(graph); err != nil {
			exitf("tick %d: %s", tick, err)
		}
		if tick%30 == 0 {
			logSample(db, bodies)
		}
	}
	logSample(db, bodies)
}

func logSample(db *table.Database, id refs.TableID) {
	tbl, ok := db.Table(id)
	if !ok || tbl.Len() == 0 {
		return
	}
	row, ok := tbl.Row(table.DenseKey[transform.World]())
	if !ok {
		return
	}
	worlds := row.(*table.DenseRow[transform.World])
	x, y := worlds.At(0).Value.Pos2()
	if math.IsNaN(x) || math.IsNaN(y) {
		log.Printf("body 0 position is NaN, something has gone wrong")
		return
	}
	log.Printf("body 0 world position = (%.4f, %.4f)", x, y)
}
