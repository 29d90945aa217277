package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"time"

	"github.com/velara/skirmish/internal/board"
	"github.com/velara/skirmish/internal/engine"
	"github.com/velara/skirmish/internal/storage"
)

var (
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	depth      = flag.Int("depth", 8, "search benchmark depth")
	hashMB     = flag.Int("hash", 64, "transposition table size in MB")
	threads    = flag.Int("threads", 1, "search worker count")
	runPerft   = flag.Bool("perft", true, "run the perft validation suite")
	runSearch  = flag.Bool("search", true, "run the search benchmark")
	noStore    = flag.Bool("nostore", false, "do not record the session in the local database")
	storeDir   = flag.String("storedir", "", "database directory (default: the per-OS data dir)")
)

// perftSuite holds positions with known node counts; a mismatch means
// the move generator is broken.
var perftSuite = []struct {
	name  string
	fen   string
	depth int
	want  uint64
}{
	{"start position", board.StartFEN, 5, 4865609},
	{"kiwipete", "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -", 4, 4085603},
	{"rook endgame", "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - -", 5, 674624},
	{"en passant pin", "8/8/8/8/k2Pp2R/8/8/4K3 b - d3 0 1", 2, 94},
}

var searchSuite = []struct {
	name string
	fen  string
}{
	{"start position", board.StartFEN},
	{"kiwipete", "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -"},
	{"italian middlegame", "r1bq1rk1/pppp1ppp/2n2n2/2b1p3/2B1P3/2PP1N2/PP3PPP/RNBQ1RK1 b - - 0 6"},
	{"rook endgame", "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - -"},
}

func main() {
	flag.Parse()

	// CPU profiling via flag or environment variable.
	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
		log.Printf("CPU profiling enabled, writing to %s", profilePath)
	}

	session := storage.NewSession("bench")
	failed := false

	if *runPerft {
		nodes, ok := perftBench()
		session.Nodes += nodes
		session.Positions += len(perftSuite)
		failed = !ok
	}
	if *runSearch && !failed {
		session.Nodes += searchBench()
		session.Positions += len(searchSuite)
	}

	session.FinishedAt = time.Now()
	session.Notes = fmt.Sprintf("perft=%v search=%v depth=%d threads=%d",
		*runPerft, *runSearch, *depth, *threads)
	if !*noStore {
		saveSession(session)
	}

	if failed {
		os.Exit(1)
	}
}

func perftBench() (uint64, bool) {
	fmt.Println("perft validation")
	ok := true
	var total uint64
	suiteStart := time.Now()

	for _, c := range perftSuite {
		pos, err := board.ParseFEN(c.fen)
		if err != nil {
			log.Fatalf("parse %s: %v", c.name, err)
		}

		start := time.Now()
		nodes := engine.Perft(pos, c.depth)
		elapsed := time.Since(start)
		total += nodes

		status := "ok"
		if nodes != c.want {
			status = fmt.Sprintf("FAIL want %d", c.want)
			ok = false
		}
		fmt.Printf("  %-16s depth %d  %11d nodes  %7.2fs  %10.0f nps  %s\n",
			c.name, c.depth, nodes, elapsed.Seconds(), nps(nodes, elapsed), status)
	}

	elapsed := time.Since(suiteStart)
	fmt.Printf("  Nodes: %d  Time: %.2fs  NPS: %.0f\n",
		total, elapsed.Seconds(), nps(total, elapsed))
	return total, ok
}

func searchBench() uint64 {
	fmt.Printf("\nsearch benchmark (depth %d)\n", *depth)
	eng := engine.NewEngine(*hashMB)
	var total uint64
	suiteStart := time.Now()

	for _, c := range searchSuite {
		pos, err := board.ParseFEN(c.fen)
		if err != nil {
			log.Fatalf("parse %s: %v", c.name, err)
		}

		eng.Clear()
		res, err := eng.Search(context.Background(), pos,
			engine.Limits{Depth: *depth, Threads: *threads})
		if err != nil {
			log.Fatalf("search %s: %v", c.name, err)
		}
		total += res.Nodes

		fmt.Printf("  %-18s best %-6s score %-9s %11d nodes  %6.2fs\n",
			c.name, res.Move, engine.ScoreToString(res.Score),
			res.Nodes, res.Time.Seconds())
	}

	elapsed := time.Since(suiteStart)
	fmt.Printf("  Nodes: %d  Time: %.2fs  NPS: %.0f\n",
		total, elapsed.Seconds(), nps(total, elapsed))
	return total
}

func nps(nodes uint64, elapsed time.Duration) float64 {
	sec := elapsed.Seconds()
	if sec <= 0 {
		return 0
	}
	return float64(nodes) / sec
}

func saveSession(rec *storage.SessionRecord) {
	var (
		st  *storage.Store
		err error
	)
	if *storeDir != "" {
		st, err = storage.Open(*storeDir)
	} else {
		st, err = storage.OpenDefault()
	}
	if err != nil {
		log.Printf("session not recorded: %v", err)
		return
	}
	defer st.Close()

	if err := st.SaveSession(rec); err != nil {
		log.Printf("session not recorded: %v", err)
		return
	}
	fmt.Printf("\nsession %s recorded\n", rec.ID)
}
