package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/gops/agent"
	"github.com/viant/dbdb"
	"github.com/viant/dbdb/config"
	"github.com/viant/dbdb/series"
	"github.com/viant/dbdb/vantage"
	"github.com/viant/dbdb/vantage/catalog"
)

func main() {
	startGops()
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "generate":
		generateCmd(os.Args[2:])
	case "build":
		buildCmd(os.Args[2:])
	case "query":
		queryCmd(os.Args[2:])
	case "get":
		getCmd(os.Args[2:])
	case "set":
		setCmd(os.Args[2:])
	case "delete":
		deleteCmd(os.Args[2:])
	case "dump":
		dumpCmd(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: dbdb <command> [options]")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  generate  Write synthetic time series")
	fmt.Fprintln(os.Stderr, "  build     Select vantage points and build their stores")
	fmt.Fprintln(os.Stderr, "  query     Find the series most similar to a given one")
	fmt.Fprintln(os.Stderr, "  get       Read a key from a store")
	fmt.Fprintln(os.Stderr, "  set       Write a key to a store")
	fmt.Fprintln(os.Stderr, "  delete    Remove a key from a store")
	fmt.Fprintln(os.Stderr, "  dump      List a store in key order")
}

// indexFlags are shared by build and query; zero values keep the config setting.
type indexFlags struct {
	configPath   *string
	dataDir      *string
	itemsURL     *string
	include      *string
	exclude      *string
	distance     *string
	kernelMult   *float64
	radiusFactor *float64
	lockTimeout  *time.Duration
}

func registerIndexFlags(flags *flag.FlagSet) *indexFlags {
	return &indexFlags{
		configPath:   flags.String("config", "", "config yaml (optional)"),
		dataDir:      flags.String("data", "", "directory holding vantage stores and catalog"),
		itemsURL:     flags.String("items", "", "location of series files (path or afs URL)"),
		include:      flags.String("include", "", "comma-separated item name include patterns"),
		exclude:      flags.String("exclude", "", "comma-separated item name exclude patterns"),
		distance:     flags.String("distance", "", "distance: kcorr|euclidean"),
		kernelMult:   flags.Float64("mult", 0, "kernel multiplier for kcorr"),
		radiusFactor: flags.Float64("radius-factor", 0, "search radius as a multiple of the best vantage distance"),
		lockTimeout:  flags.Duration("lock-timeout", 0, "bound on store lock waits (0 waits indefinitely)"),
	}
}

func (f *indexFlags) resolve() *config.Config {
	cfg := &config.Config{}
	if *f.configPath != "" {
		loaded, err := config.Load(*f.configPath)
		if err != nil {
			log.Fatalf("config: %v", err)
		}
		cfg = loaded
	}
	if *f.dataDir != "" {
		// a catalog derived from the config data dir follows the override
		if cfg.Catalog == filepath.Join(cfg.DataDir, config.DefaultCatalogName) {
			cfg.Catalog = ""
		}
		cfg.DataDir = *f.dataDir
	}
	if *f.itemsURL != "" {
		cfg.ItemsURL = *f.itemsURL
	}
	if *f.include != "" {
		cfg.Include = parseCSV(*f.include)
	}
	if *f.exclude != "" {
		cfg.Exclude = parseCSV(*f.exclude)
	}
	if *f.distance != "" {
		cfg.Distance = *f.distance
	}
	if *f.kernelMult != 0 {
		cfg.KernelMult = *f.kernelMult
	}
	if *f.radiusFactor != 0 {
		cfg.RadiusFactor = *f.radiusFactor
	}
	if *f.lockTimeout != 0 {
		cfg.LockTimeout = *f.lockTimeout
	}
	if err := cfg.Init(); err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

func parseCSV(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func newLoader(cfg *config.Config) *series.Loader {
	loader, err := series.NewLoader(cfg.ItemsURL, series.WithFilter(&series.Filter{Include: cfg.Include, Exclude: cfg.Exclude}))
	if err != nil {
		log.Fatalf("items: %v", err)
	}
	return loader
}

func dbOptions(cfg *config.Config) []dbdb.Option {
	var opts []dbdb.Option
	if cfg.LockTimeout > 0 {
		opts = append(opts, dbdb.WithLockTimeout(cfg.LockTimeout))
	}
	if cfg.Sync {
		opts = append(opts, dbdb.WithSync(true))
	}
	if cfg.NodeCache > 0 {
		opts = append(opts, dbdb.WithNodeCache(cfg.NodeCache))
	}
	return opts
}

func newIndex(cfg *config.Config, registry *vantage.Registry, loader *series.Loader) *vantage.Index[*series.Series] {
	distance, err := series.NewDistance(cfg.Distance, cfg.KernelMult)
	if err != nil {
		log.Fatalf("distance: %v", err)
	}
	return vantage.New[*series.Series](registry, loader, vantage.Distance[*series.Series](distance),
		vantage.WithRadiusFactor(cfg.RadiusFactor),
		vantage.WithDBOptions(dbOptions(cfg)...),
		vantage.WithLogf(log.Printf),
	)
}

func newRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func generateCmd(args []string) {
	flags := flag.NewFlagSet("generate", flag.ExitOnError)
	out := flags.String("out", ".", "destination of series files (path or afs URL)")
	count := flags.Int("n", 1000, "number of series")
	mean := flags.Float64("m", 0.5, "bump mean")
	std := flags.Float64("s", 0.1, "bump standard deviation")
	noise := flags.Float64("j", 0.01, "noise scale")
	seed := flags.Uint64("seed", 0, "random seed (0 uses the clock)")
	flags.Parse(args)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	loader, err := series.NewLoader(*out)
	if err != nil {
		log.Fatalf("generate: %v", err)
	}
	rnd := newRand(*seed)
	for i := 1; i <= *count; i++ {
		if err := ctx.Err(); err != nil {
			log.Fatalf("generate: %v", err)
		}
		s := series.Generate(rnd, "ts_"+strconv.Itoa(i)+series.Extension, *mean, *std, *noise)
		if _, err := loader.Save(ctx, s); err != nil {
			log.Fatalf("generate: %v", err)
		}
	}
	log.Printf("generate: wrote %d series to %s", *count, loader.BaseURL())
}

func buildCmd(args []string) {
	flags := flag.NewFlagSet("build", flag.ExitOnError)
	index := registerIndexFlags(flags)
	vantageCount := flags.Int("vp", 0, "number of vantage points")
	seed := flags.Uint64("seed", 0, "random seed (0 uses the clock)")
	flags.Parse(args)

	cfg := index.resolve()
	if *vantageCount > 0 {
		cfg.VantageCount = *vantageCount
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	loader := newLoader(cfg)
	ids, err := loader.List(ctx)
	if err != nil {
		log.Fatalf("build: list %s: %v", loader.BaseURL(), err)
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatalf("build: %v", err)
	}
	registry, err := vantage.SelectVantagePoints(ids, cfg.VantageCount, newRand(cfg.Seed), cfg.DataDir)
	if err != nil {
		log.Fatalf("build: %v", err)
	}
	started := time.Now()
	idx := newIndex(cfg, registry, loader)
	if err := idx.Build(ctx, ids); err != nil {
		log.Fatalf("build: %v", err)
	}

	cat, err := catalog.Open(ctx, cfg.Catalog)
	if err != nil {
		log.Fatalf("catalog: %v", err)
	}
	defer func() { _ = cat.Close() }()
	build, err := cat.Save(ctx, idx.Registry(), catalog.Build{
		Items:        len(ids),
		Distance:     cfg.Distance,
		RadiusFactor: cfg.RadiusFactor,
	})
	if err != nil {
		log.Fatalf("catalog: %v", err)
	}
	log.Printf("build: id=%s items=%d vantage=%d elapsed=%s", build.ID, build.Items, registry.Len(), time.Since(started).Round(time.Millisecond))
}

func queryCmd(args []string) {
	flags := flag.NewFlagSet("query", flag.ExitOnError)
	index := registerIndexFlags(flags)
	item := flags.String("item", "", "id of an indexed series to search with")
	file := flags.String("file", "", "path of a series file to search with")
	k := flags.Int("k", 0, "number of results")
	buildID := flags.String("build", "", "catalog build id (default latest)")
	flags.Parse(args)

	if (*item == "") == (*file == "") {
		flags.Usage()
		os.Exit(2)
	}
	cfg := index.resolve()
	if *k > 0 {
		cfg.K = *k
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cat, err := catalog.Open(ctx, cfg.Catalog)
	if err != nil {
		log.Fatalf("catalog: %v", err)
	}
	defer func() { _ = cat.Close() }()
	var build *catalog.Build
	var registry *vantage.Registry
	if *buildID != "" {
		build, registry, err = cat.Load(ctx, *buildID)
	} else {
		build, registry, err = cat.Latest(ctx)
	}
	if err != nil {
		log.Fatalf("catalog: %v", err)
	}
	if *index.distance == "" && build.Distance != "" {
		cfg.Distance = build.Distance
	}

	loader := newLoader(cfg)
	var query *series.Series
	if *file != "" {
		fileLoader, err := series.NewLoader(filepath.Dir(*file))
		if err != nil {
			log.Fatalf("query: %v", err)
		}
		query, err = fileLoader.Load(ctx, filepath.Base(*file))
		if err != nil {
			log.Fatalf("query: %v", err)
		}
	} else if query, err = loader.Load(ctx, *item); err != nil {
		log.Fatalf("query: %v", err)
	}

	matches, stats, err := newIndex(cfg, registry, loader).QueryWithStats(ctx, query, cfg.K)
	if err != nil {
		log.Fatalf("query: %v", err)
	}
	log.Printf("query: build=%s vantage=%s best=%.6f radius=%.6f visited=%d", build.ID, stats.Vantage.ItemID, stats.BestDistance, stats.Radius, stats.Visited)
	for i, match := range matches {
		fmt.Printf("%d\t%s\t%.6f\n", i+1, match.ItemID, match.Distance)
	}
}

type storeFlags struct {
	path        *string
	lockTimeout *time.Duration
}

func registerStoreFlags(flags *flag.FlagSet) *storeFlags {
	return &storeFlags{
		path:        flags.String("db", "", "store file (required)"),
		lockTimeout: flags.Duration("lock-timeout", 0, "bound on lock waits (0 waits indefinitely)"),
	}
}

func (s *storeFlags) open(flags *flag.FlagSet, readOnly bool) *dbdb.DB {
	if *s.path == "" {
		flags.Usage()
		os.Exit(2)
	}
	opts := []dbdb.Option{dbdb.WithReadOnly(readOnly)}
	if *s.lockTimeout > 0 {
		opts = append(opts, dbdb.WithLockTimeout(*s.lockTimeout))
	}
	db, err := dbdb.Open(*s.path, opts...)
	if err != nil {
		log.Fatalf("open %s: %v", *s.path, err)
	}
	return db
}

func parseKey(value string) float64 {
	key, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		log.Fatalf("invalid key %q: %v", value, err)
	}
	return key
}

func getCmd(args []string) {
	flags := flag.NewFlagSet("get", flag.ExitOnError)
	store := registerStoreFlags(flags)
	key := flags.String("key", "", "key (required)")
	flags.Parse(args)

	db := store.open(flags, true)
	defer func() { _ = db.Close() }()
	value, err := db.Get(parseKey(*key))
	if err != nil {
		log.Fatalf("get: %v", err)
	}
	fmt.Println(string(value))
}

func setCmd(args []string) {
	flags := flag.NewFlagSet("set", flag.ExitOnError)
	store := registerStoreFlags(flags)
	key := flags.String("key", "", "key (required)")
	value := flags.String("value", "", "value")
	flags.Parse(args)

	db := store.open(flags, false)
	defer func() { _ = db.Close() }()
	if err := db.Set(parseKey(*key), []byte(*value)); err != nil {
		log.Fatalf("set: %v", err)
	}
	if err := db.Commit(); err != nil {
		log.Fatalf("commit: %v", err)
	}
}

func deleteCmd(args []string) {
	flags := flag.NewFlagSet("delete", flag.ExitOnError)
	store := registerStoreFlags(flags)
	key := flags.String("key", "", "key (required)")
	flags.Parse(args)

	db := store.open(flags, false)
	defer func() { _ = db.Close() }()
	if err := db.Delete(parseKey(*key)); err != nil {
		log.Fatalf("delete: %v", err)
	}
	if err := db.Commit(); err != nil {
		log.Fatalf("commit: %v", err)
	}
}

func dumpCmd(args []string) {
	flags := flag.NewFlagSet("dump", flag.ExitOnError)
	store := registerStoreFlags(flags)
	flags.Parse(args)

	db := store.open(flags, true)
	defer func() { _ = db.Close() }()
	count := 0
	err := db.Walk(func(key float64, value []byte) error {
		count++
		_, err := fmt.Printf("%v\t%s\n", key, value)
		return err
	})
	if err != nil {
		log.Fatalf("dump: %v", err)
	}
	log.Printf("dump: %d keys, %+v", count, db.Stats())
}

func startGops() {
	if strings.TrimSpace(os.Getenv("DBDB_GOPS")) == "0" {
		return
	}
	if err := agent.Listen(agent.Options{ShutdownCleanup: true}); err != nil {
		log.Printf("gops: %v", err)
	}
}
