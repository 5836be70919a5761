// graphdump builds the road graph for a map and prints its statistics:
// node and edge counts, bridge corridors, and tile coverage. Useful when
// authoring maps to verify the network extracts the way the designer
// intended.
//
// Usage:
//
//	go run ./cmd/graphdump -config config/server.toml [-map 1] [-edges]
//	go run ./cmd/graphdump -ascii level.txt
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"github.com/chasedown/server/internal/config"
	"github.com/chasedown/server/internal/data"
	"github.com/chasedown/server/internal/nav"
)

func main() {
	cfgPath := flag.String("config", "config/server.toml", "server config path")
	mapID := flag.Int("map", 0, "map id (default: config server.map_id)")
	asciiPath := flag.String("ascii", "", "load an ASCII level file instead of CSV maps")
	dumpEdges := flag.Bool("edges", false, "list every undirected edge")
	flag.Parse()

	if err := run(*cfgPath, *mapID, *asciiPath, *dumpEdges); err != nil {
		fmt.Fprintf(os.Stderr, "graphdump: %v\n", err)
		os.Exit(1)
	}
}

func run(cfgPath string, mapID int, asciiPath string, dumpEdges bool) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		// ASCII mode works without a config file.
		if asciiPath == "" {
			return err
		}
		cfg = config.Defaults()
	}

	var m *data.TileMap
	if asciiPath != "" {
		m, err = loadAscii(asciiPath)
		if err != nil {
			return err
		}
	} else {
		maps, err := data.LoadMaps(cfg.Data.MapList, cfg.Data.TileDir)
		if err != nil {
			return err
		}
		id := int16(mapID)
		if id == 0 {
			id = cfg.Server.MapID
		}
		m = maps.Get(id)
		if m == nil {
			return fmt.Errorf("map %d not found", id)
		}
	}

	g := nav.BuildGraph(m, nav.BuildConfig{
		RoadClass:       cfg.Nav.RoadClass,
		BridgeNodeLimit: cfg.Nav.BridgeNodeLimit,
	})

	bridges := 0
	totalCost := 0.0
	for i := range g.UndirEdges {
		if g.UndirEdges[i].IsBridge {
			bridges++
		}
		totalCost += g.UndirEdges[i].Cost
	}

	fmt.Printf("map:             %dx%d tiles (size %.0f)\n", m.Width(), m.Height(), m.TileSize())
	fmt.Printf("nodes:           %d\n", len(g.Nodes))
	fmt.Printf("directed edges:  %d\n", len(g.DirEdges))
	fmt.Printf("corridors:       %d\n", len(g.UndirEdges))
	fmt.Printf("bridges:         %d\n", bridges)
	fmt.Printf("total road cost: %.0f tiles\n", totalCost)

	if dumpEdges {
		fmt.Println()
		for i := range g.UndirEdges {
			e := &g.UndirEdges[i]
			u, v := &g.Nodes[e.U], &g.Nodes[e.V]
			tag := ""
			if e.IsBridge {
				tag = "  BRIDGE"
			}
			fmt.Printf("edge %3d  (%d,%d) -> (%d,%d)  cost %.0f%s\n",
				i, u.TX, u.TY, v.TX, v.TY, e.Cost, tag)
		}
	}
	return nil
}

func loadAscii(path string) (*data.TileMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rows []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if line != "" {
			rows = append(rows, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty level file %s", path)
	}
	return data.FromStrings(rows, 32), nil
}
