package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"zsw/internal/backup"
	"zsw/internal/batch"
	"zsw/internal/engine"
	"zsw/internal/preset"
	"zsw/internal/report"
	"zsw/internal/settings"
)

// command describes a CLI subcommand.
type command struct {
	name    string
	aliases []string
	short   string
	usage   string
	long    string
	run     func(args []string) error
}

var commands = []command{
	{
		name:    "modify",
		aliases: []string{"m"},
		short:   "Apply bad weather to every timetable in a directory",
		usage:   "zsw modify [flags] <directory>",
		long: `Modify every .trn file directly inside <directory>.

Steps, in order, each only when configured:
  traction   scale APBeschl by the friction model and -multiplier
  delay      shift the first arrival by a sampled entry delay
  dwell      stretch waits at stops by -departures-delay-factor

Before the first run a copy is kept in <directory>_zsw (see 'zsw reset').
Files that fail are reported and left untouched.

Settings are layered: defaults, then -preset or -config, then flags.
`,
		run: runModify,
	},
	{
		name:    "reset",
		aliases: []string{"r"},
		short:   "Restore a directory from its backup",
		usage:   "zsw reset <directory>",
		long: `Replace <directory> with <directory>_zsw, undoing every weather run
since the backup was taken. The backup is consumed.
`,
		run: runReset,
	},
	{
		name:  "preset",
		short: "Create or delete a named weather preset",
		usage: "zsw preset [-delete] <name>",
		long: `Prompt for weather settings and save them as ~/.zsw/presets/<name>.yaml
(ZSW_HOME overrides ~/.zsw). Empty answers keep the default.

With -delete the preset is removed instead.
`,
		run: runPreset,
	},
	{
		name:  "presets",
		short: "List saved presets",
		usage: "zsw presets",
		long:  "List the names of all saved presets.\n",
		run:   runPresets,
	},
}

func (c command) matches(name string) bool {
	if c.name == name {
		return true
	}
	for _, a := range c.aliases {
		if a == name {
			return true
		}
	}
	return false
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "zsw — bad weather for timetables\n\n")
	fmt.Fprintf(w, "Usage:\n  zsw <command> [arguments]\n\n")
	fmt.Fprintf(w, "Commands:\n")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-10s %s\n", cmd.name, cmd.short)
	}
	fmt.Fprintf(w, "\nRun 'zsw help <command>' for details on a specific command.\n")
}

func printCommandHelp(w io.Writer, name string) {
	for _, cmd := range commands {
		if cmd.matches(name) {
			fmt.Fprintf(w, "Usage: %s\n\n%s", cmd.usage, cmd.long)
			if cmd.name == "modify" {
				fmt.Fprintf(w, "\nFlags:\n")
				fs := modifyFlags(&modifyOptions{weather: settings.Default()})
				fs.SetOutput(w)
				fs.PrintDefaults()
			}
			return
		}
	}
	fmt.Fprintf(w, "zsw: unknown command %q\n\nRun 'zsw help' for usage.\n", name)
}

func dispatch(args []string) error {
	if len(args) == 0 || args[0] == "--help" || args[0] == "-h" {
		printUsage(os.Stdout)
		return nil
	}
	if args[0] == "help" {
		if len(args) >= 2 {
			printCommandHelp(os.Stdout, args[1])
		} else {
			printUsage(os.Stdout)
		}
		return nil
	}
	for _, cmd := range commands {
		if cmd.matches(args[0]) {
			return cmd.run(args[1:])
		}
	}
	return fmt.Errorf("unknown command %q\n\nRun 'zsw help' for usage.", args[0])
}

// parseInterleaved parses flags that may appear before or after positional
// arguments and returns the positionals.
func parseInterleaved(fs *flag.FlagSet, args []string) ([]string, error) {
	var pos []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			return pos, nil
		}
		pos = append(pos, args[0])
		args = args[1:]
	}
}

// ---------------------------------------------------------------------------
// modify
// ---------------------------------------------------------------------------

type modifyOptions struct {
	weather    settings.Weather
	noCopy     bool
	dryRun     bool
	reportPath string
	presetName string
	configPath string
}

func modifyFlags(o *modifyOptions) *flag.FlagSet {
	w := &o.weather
	fs := flag.NewFlagSet("modify", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	mult := settings.OptFloat{P: &w.Multiplier}
	fs.Var(mult, "multiplier", "global acceleration multiplier")
	fs.Var(mult, "m", "shorthand for -multiplier")
	fs.Float64Var(&w.Friction, "friction", w.Friction, "rail friction coefficient")
	fs.Float64Var(&w.LocNeeded, "loc-needed-friction", w.LocNeeded, "friction needed by locomotives")
	fs.Float64Var(&w.MUNeeded, "mu-needed-friction", w.MUNeeded, "friction needed by multiple units")

	fs.Var(settings.OptFloat{P: &w.DelayProbability}, "delay-probability", "probability of a burst entry delay, 0..1")
	fs.Float64Var(&w.DelayAmplitude, "delay-amplitude", w.DelayAmplitude, "burst delay amplitude, minutes")
	fs.Float64Var(&w.DelayLambda, "delay-lambda", w.DelayLambda, "burst delay lambda")
	fs.Var(settings.OptFloat{P: &w.AmbientMean}, "ambient-mean", "mean of the ambient entry delay, minutes")
	fs.Float64Var(&w.AmbientDeviation, "ambient-deviation", w.AmbientDeviation, "standard deviation of the ambient entry delay, minutes")
	fs.BoolVar(&w.DenyEarly, "deny-early", w.DenyEarly, "never make a train early")

	fs.Float64Var(&w.DeparturesFactor, "departures-delay-factor", w.DeparturesFactor, "factor applied to waits at stops")
	fs.Float64Var(&w.DeparturesMaxDelay, "departures-max-delay", w.DeparturesMaxDelay, "maximum extra wait per stop, minutes")

	fs.Var(settings.OptUint{P: &w.Seed}, "seed", "random seed (default: random)")
	fs.StringVar(&w.Extension, "ext", w.Extension, "extension of timetable files")
	fs.IntVar(&w.Jobs, "jobs", w.Jobs, "files processed concurrently")

	fs.BoolVar(&o.noCopy, "no-copy", o.noCopy, "do not create the <directory>_zsw backup")
	fs.BoolVar(&o.noCopy, "n", o.noCopy, "shorthand for -no-copy")
	fs.BoolVar(&o.dryRun, "dry-run", o.dryRun, "mutate in memory only, write nothing")
	fs.StringVar(&o.reportPath, "report", o.reportPath, "write a markdown run report to this path")
	fs.StringVar(&o.presetName, "preset", o.presetName, "start from a saved preset")
	fs.StringVar(&o.configPath, "config", o.configPath, "start from a YAML settings file")
	return fs
}

// parseModify applies the settings layers and returns the options and the
// target directory.
func parseModify(args []string) (*modifyOptions, string, error) {
	first := &modifyOptions{weather: settings.Default()}
	fs := modifyFlags(first)
	if _, err := parseInterleaved(fs, args); err != nil {
		return nil, "", fmt.Errorf("modify: %w\nusage: zsw modify [flags] <directory>", err)
	}

	base := settings.Default()
	switch {
	case first.presetName != "" && first.configPath != "":
		return nil, "", fmt.Errorf("modify: -preset and -config are mutually exclusive")
	case first.presetName != "":
		store, err := preset.Open()
		if err != nil {
			return nil, "", err
		}
		if base, err = store.Load(first.presetName); err != nil {
			return nil, "", err
		}
	case first.configPath != "":
		var err error
		if base, err = settings.Load(first.configPath); err != nil {
			return nil, "", err
		}
	}

	opts := &modifyOptions{weather: base}
	fs = modifyFlags(opts)
	pos, err := parseInterleaved(fs, args)
	if err != nil {
		return nil, "", fmt.Errorf("modify: %w", err)
	}
	if len(pos) != 1 {
		return nil, "", fmt.Errorf("usage: zsw modify [flags] <directory>")
	}
	return opts, pos[0], nil
}

func runModify(args []string) error {
	opts, dir, err := parseModify(args)
	if err != nil {
		return err
	}
	eng, err := engine.New(opts.weather)
	if err != nil {
		return fmt.Errorf("modify: %w", err)
	}
	if eng.Empty() {
		fmt.Println("nothing to do: no weather step configured")
		return nil
	}

	paths, err := batch.Eligible(dir, opts.weather.Extension)
	if err != nil {
		return err
	}

	if !opts.noCopy && !opts.dryRun {
		created, err := backup.Create(dir)
		if err != nil {
			return err
		}
		if created {
			fmt.Printf("backup → %s\n", backup.Path(dir))
		} else {
			fmt.Printf("keeping existing backup %s\n", backup.Path(dir))
		}
	}

	seed := rand.Uint64()
	if opts.weather.Seed != nil {
		seed = *opts.weather.Seed
	}
	fmt.Printf("modifying %d file(s) in %s [%s] seed=%d\n", len(paths), dir, strings.Join(eng.Steps(), ","), seed)

	r := &batch.Runner{Engine: eng, Jobs: opts.weather.Jobs, DryRun: opts.dryRun}
	sum := r.Run(paths, rand.New(rand.NewPCG(seed, seed)))

	fmt.Printf("  done: %d modified, %d failed\n", len(sum.Modified), len(sum.Failed))

	if opts.reportPath != "" {
		meta := report.Meta{Directory: dir, Steps: eng.Steps(), Seed: seed, DryRun: opts.dryRun}
		if err := report.Save(opts.reportPath, meta, sum); err != nil {
			return err
		}
		fmt.Printf("  report → %s\n", opts.reportPath)
	}
	return nil
}

// ---------------------------------------------------------------------------
// reset
// ---------------------------------------------------------------------------

func runReset(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: zsw reset <directory>")
	}
	if err := backup.Restore(args[0]); err != nil {
		fmt.Fprintf(os.Stderr, "zsw: reset: %v\n", err)
		return nil
	}
	fmt.Printf("restored %s\n", args[0])
	return nil
}

// ---------------------------------------------------------------------------
// preset / presets
// ---------------------------------------------------------------------------

func runPreset(args []string) error {
	fs := flag.NewFlagSet("preset", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	del := fs.Bool("delete", false, "remove the preset")
	pos, err := parseInterleaved(fs, args)
	if err != nil || len(pos) != 1 {
		return fmt.Errorf("usage: zsw preset [-delete] <name>")
	}
	name := pos[0]

	store, err := preset.Open()
	if err != nil {
		return err
	}
	if *del {
		if err := store.Remove(name); err != nil {
			return err
		}
		fmt.Printf("removed preset %q\n", name)
		return nil
	}

	answers, err := promptQuestions(settings.Questions())
	if err != nil {
		return fmt.Errorf("prompt: %w", err)
	}
	w, err := settings.FromAnswers(answers)
	if err != nil {
		return fmt.Errorf("preset %q: %w", name, err)
	}
	if err := store.Save(name, w); err != nil {
		return err
	}
	fmt.Printf("saved preset %q\n", name)
	return nil
}

func runPresets(args []string) error {
	store, err := preset.Open()
	if err != nil {
		return err
	}
	names, err := store.List()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Println("no presets (create one with 'zsw preset <name>')")
		return nil
	}
	for _, n := range names {
		fmt.Println(n)
	}
	return nil
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("ignoring .env: %v", err)
	}
	if err := dispatch(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}
