package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"brainzzz/internal/config"
	"brainzzz/pkg/brainzzz"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "run":
		return runRun(ctx, args[1:], stdout, stderr)
	case "runs":
		return runRuns(ctx, args[1:], stdout)
	case "stats":
		return runStats(ctx, args[1:], stdout)
	case "champion":
		return runChampion(ctx, args[1:], stdout)
	case "config":
		return runConfig(args[1:], stdout)
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func runRun(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "optional config file (.yaml or .ini)")
	runID := fs.String("run-id", "", "explicit run id (optional)")
	seed := fs.Int64("seed", 0, "rng seed")
	generations := fs.Int("gens", 0, "generation count")
	population := fs.Int("pop", 0, "population size")
	elite := fs.Int("elite", -1, "elite size")
	workers := fs.Int("workers", 0, "evaluation workers (0 uses GOMAXPROCS)")
	fitnessGoal := fs.Float64("fitness-goal", 0, "early-stop best fitness goal (0 disables)")
	tasks := fs.String("tasks", "", "comma separated tasks: xor|sequence")
	seqLen := fs.Int("seq-len", 3, "sequence task length")
	selection := fs.String("selection", "", "parent selection: tournament|roulette|rank")
	crossover := fs.String("crossover", "", "crossover: uniform|single_point|two_point")
	adaptive := fs.Bool("adaptive", false, "adapt mutation and crossover rates to population diversity")
	storeKind := fs.String("store", "", "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "", "sqlite database path")
	outDir := fs.String("out", "", "artifacts directory")
	logLevel := fs.String("log-level", "", "log level: debug|info|warn|error")
	logFormat := fs.String("log-format", "", "log format: text|json")
	if err := fs.Parse(args); err != nil {
		return err
	}
	setFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})

	cfg, err := loadOrDefaultConfig(*configPath)
	if err != nil {
		return err
	}
	if setFlags["run-id"] {
		cfg.Run.ID = *runID
	}
	if setFlags["seed"] {
		cfg.Run.Seed = *seed
	}
	if setFlags["gens"] {
		cfg.Run.Generations = *generations
	}
	if setFlags["pop"] {
		cfg.Evolution.PopulationSize = *population
		if cfg.Evolution.EliteSize > *population && !setFlags["elite"] {
			cfg.Evolution.EliteSize = max(1, *population/5)
		}
	}
	if setFlags["elite"] {
		cfg.Evolution.EliteSize = *elite
	}
	if setFlags["workers"] {
		cfg.Run.Workers = *workers
	}
	if setFlags["fitness-goal"] {
		cfg.Run.FitnessGoal = *fitnessGoal
	}
	if setFlags["tasks"] {
		cfg.Tasks = parseTasks(*tasks, *seqLen)
	}
	if setFlags["selection"] {
		cfg.Evolution.Selection = *selection
	}
	if setFlags["crossover"] {
		cfg.Evolution.Crossover = *crossover
	}
	if setFlags["adaptive"] {
		cfg.Run.AdaptiveRates = *adaptive
	}
	if setFlags["store"] {
		cfg.Storage.Backend = *storeKind
	}
	if setFlags["db-path"] {
		cfg.Storage.SQLitePath = *dbPath
	}
	if setFlags["out"] {
		cfg.Run.OutputDir = *outDir
	}
	if setFlags["log-level"] {
		cfg.Log.Level = *logLevel
	}
	if setFlags["log-format"] {
		cfg.Log.Format = *logFormat
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := cfg.Log.Logger(stderr)
	if err != nil {
		return err
	}
	client, err := brainzzz.New(brainzzz.Options{
		StoreKind: cfg.Storage.Backend,
		DBPath:    cfg.Storage.SQLitePath,
		OutputDir: cfg.Run.OutputDir,
		Logger:    logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Run(ctx, brainzzz.RunRequest{Config: cfg})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "run completed run_id=%s tasks=%s pop=%d gens=%d seed=%d stop=%s\n",
		summary.RunID, cfg.TaskNames(), cfg.Evolution.PopulationSize, summary.GenerationsRun, cfg.Run.Seed, summary.StopReason)
	for i, best := range summary.BestByGeneration {
		fmt.Fprintf(stdout, "generation=%d best_fitness=%.6f\n", i+1, best)
	}
	fmt.Fprintf(stdout, "best_fitness=%.6f champion=%s\n", summary.FinalBestFitness, summary.ChampionID)
	fmt.Fprintf(stdout, "artifacts_dir=%s\n", filepath.Clean(summary.ArtifactsDir))
	return nil
}

// readFlags are shared by the commands that only inspect finished runs.
type readFlags struct {
	storeKind *string
	dbPath    *string
	outDir    *string
	jsonOut   *bool
}

func addReadFlags(fs *flag.FlagSet) readFlags {
	return readFlags{
		storeKind: fs.String("store", "memory", "store backend: memory|sqlite"),
		dbPath:    fs.String("db-path", "brainzzz.db", "sqlite database path"),
		outDir:    fs.String("out", "runs", "artifacts directory"),
		jsonOut:   fs.Bool("json", false, "emit JSON"),
	}
}

func (f readFlags) client() (*brainzzz.Client, error) {
	return brainzzz.New(brainzzz.Options{
		StoreKind: *f.storeKind,
		DBPath:    *f.dbPath,
		OutputDir: *f.outDir,
	})
}

func runRuns(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "max runs to list")
	rf := addReadFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	client, err := rf.client()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	items, err := client.Runs(ctx, brainzzz.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if *rf.jsonOut {
		return writeJSON(stdout, items)
	}
	if len(items) == 0 {
		fmt.Fprintln(stdout, "no runs found")
		return nil
	}
	for _, item := range items {
		fmt.Fprintf(stdout, "run_id=%s created_at=%s task=%s seed=%d pop=%d gens=%d best_fitness=%.6f\n",
			item.RunID, item.CreatedAtUTC, item.Task, item.Seed, item.Population, item.Generations, item.FinalBestFitness)
	}
	return nil
}

func runStats(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "use the most recent run")
	limit := fs.Int("limit", 0, "max generation rows to print (0 prints all)")
	rf := addReadFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := rf.client()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	summary, err := client.Stats(ctx, brainzzz.StatsRequest{RunID: *runID, Latest: *latest, Limit: *limit})
	if err != nil {
		return err
	}
	if *rf.jsonOut {
		return writeJSON(stdout, summary)
	}
	s := summary.Summary
	fmt.Fprintf(stdout, "run_id=%s generations=%d initial_best=%.6f final_best=%.6f best_ever=%.6f improvement=%.6f\n",
		summary.RunID, s.Generations, s.InitialBest, s.FinalBest, s.BestEver, s.Improvement)
	for _, g := range summary.Generations {
		fmt.Fprintf(stdout, "generation=%d best=%.6f mean=%.6f worst=%.6f mean_nodes=%.2f diversity=%.4f\n",
			g.Generation, g.BestFitness, g.MeanFitness, g.WorstFitness, g.MeanNodes, g.Diversity)
	}
	return nil
}

func runChampion(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("champion", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "use the most recent run")
	rf := addReadFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := rf.client()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	champion, err := client.Champion(ctx, brainzzz.ChampionRequest{RunID: *runID, Latest: *latest})
	if err != nil {
		return err
	}
	if *rf.jsonOut {
		return writeJSON(stdout, champion)
	}
	fmt.Fprintf(stdout, "champion=%s run_id=%s generation=%d fitness=%.6f gp=%.4f age=%d nodes=%d connections=%d\n",
		champion.ID, champion.RunID, champion.Generation, champion.Fitness, champion.GP, champion.Age,
		len(champion.Genome.Nodes), len(champion.Genome.Connections))
	return nil
}

// runConfig validates a config file, or the defaults, and writes it back out
// as YAML.
func runConfig(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	configPath := fs.String("config", "", "config file to validate (.yaml or .ini)")
	outPath := fs.String("write", "", "write the resolved config as YAML to this path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := loadOrDefaultConfig(*configPath)
	if err != nil {
		return err
	}
	if *outPath != "" {
		if err := cfg.WriteYAML(*outPath); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "config written path=%s\n", filepath.Clean(*outPath))
		return nil
	}
	enc := yaml.NewEncoder(stdout)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}

func loadOrDefaultConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default()
	}
	return config.Load(path)
}

func parseTasks(list string, seqLen int) []config.TaskConfig {
	var out []config.TaskConfig
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(strings.ToLower(name))
		if name == "" {
			continue
		}
		tc := config.TaskConfig{Name: name, Weight: 1}
		if name == "sequence" {
			tc.SequenceLength = seqLen
		}
		out = append(out, tc)
	}
	return out
}

func writeJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: brainzzzctl <run|runs|stats|champion|config> [flags]", msg)
}
