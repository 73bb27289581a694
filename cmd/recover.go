package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/avalontools/avalonctl/lib/auth"
	"github.com/avalontools/avalonctl/lib/device"
	"github.com/avalontools/avalonctl/lib/display"
	"github.com/avalontools/avalonctl/lib/engine"
	"github.com/avalontools/avalonctl/lib/keyspace"
	"github.com/avalontools/avalonctl/lib/mask"
	"github.com/avalontools/avalonctl/lib/wordlist"
	"github.com/avalontools/avalonctl/shared"
)

// Process exit codes. Scripts drive retries off these, so exhaustion and
// cancellation are distinguishable from configuration mistakes.
const (
	ExitFound       = 0
	ExitExhausted   = 2
	ExitConfigError = 3
	ExitCancelled   = 130
)

// errBadStrategy indicates a flag combination that selects zero or several
// attack strategies.
var errBadStrategy = errors.New("exactly one of --wordlist, --mask or --bruteforce must be given")

var recoverOpts struct { //nolint:gochecknoglobals // Cobra flag targets
	target           string
	dna              string
	wordlistSource   string
	applyRules       bool
	hybridSuffix     int
	maskPattern      string
	bruteforce       bool
	minLen           int
	maxLen           int
	charsetName      string
	workers          int
	chunkSize        uint64
	progressInterval time.Duration
}

var recoverCmd = &cobra.Command{ //nolint:gochecknoglobals // Cobra command
	Use:   "recover",
	Short: "Recover a lost web UI password",
	Long: `Recover a lost web UI password by searching candidate passwords against
the device's auth digest. The digest and board DNA are fetched from the
device when --host is given, or supplied directly with --target and --dna
for offline searches.

Exactly one attack strategy must be selected: a wordlist (optionally with
rule mutations or a digit-suffix hybrid), a mask pattern, or exhaustive
bruteforce over a character set.`,
	Example: `  avalonctl recover -H 192.168.1.100 -w rockyou.txt -r
  avalonctl recover -H 192.168.1.100 -w words.txt --hybrid 4
  avalonctl recover -t 1a2b3c4d --dna 0123456789abcdef -m 'admin?d?d?d?d'
  avalonctl recover -H 192.168.1.100 -b --min-len 1 --max-len 6 --charset digits`,
	Run: runRecover,
}

func init() { //nolint:gochecknoinits // Cobra command registration
	flags := recoverCmd.Flags()
	flags.StringVarP(&recoverOpts.target, "target", "t", "", "Auth digest to attack (8 hex chars, fetched from device when omitted)")
	flags.StringVar(&recoverOpts.dna, "dna", "", "Board DNA (fetched from device when omitted)")
	flags.StringVarP(&recoverOpts.wordlistSource, "wordlist", "w", "", "Wordlist path or URL")
	flags.BoolVarP(&recoverOpts.applyRules, "rules", "r", false, "Apply case and leetspeak mutations to wordlist entries")
	flags.IntVar(&recoverOpts.hybridSuffix, "hybrid", 0, "Append N-digit suffixes to wordlist entries")
	flags.StringVarP(&recoverOpts.maskPattern, "mask", "m", "", "Mask pattern (?l ?u ?d ?s ?a ?w and literals)")
	flags.BoolVarP(&recoverOpts.bruteforce, "bruteforce", "b", false, "Exhaustive search over a character set")
	flags.IntVar(&recoverOpts.minLen, "min-len", 1, "Minimum bruteforce candidate length")
	flags.IntVar(&recoverOpts.maxLen, "max-len", 8, "Maximum bruteforce candidate length")
	flags.StringVar(&recoverOpts.charsetName, "charset", "lower", "Bruteforce character set (lower, upper, digits, alnum, all)")
	flags.IntVarP(&recoverOpts.workers, "workers", "j", 0, "Worker count (default: physical cores)")
	flags.Uint64Var(&recoverOpts.chunkSize, "chunk-size", 0, "Candidates claimed per worker chunk")
	flags.DurationVar(&recoverOpts.progressInterval, "progress-interval", 0, "Progress report interval")

	rootCmd.AddCommand(recoverCmd)
}

func runRecover(_ *cobra.Command, _ []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	target, dna, err := resolveTarget(ctx)
	if err != nil {
		shared.Logger.Error("Cannot determine recovery target", "error", err)
		os.Exit(ExitConfigError)
	}

	// Keep the resolved values visible to the strategy helpers, which log
	// them alongside the search parameters.
	recoverOpts.target, recoverOpts.dna = target, dna

	oracle, err := auth.NewOracle(target, dna)
	if err != nil {
		shared.Logger.Error("Invalid recovery target", "error", err)
		os.Exit(ExitConfigError)
	}

	eng := engine.New(oracle, engine.Options{
		Workers:          pickWorkers(),
		ChunkSize:        pickChunkSize(),
		ProgressInterval: pickProgressInterval(),
		OnProgress:       display.SearchProgress,
	})

	result, err := runStrategy(ctx, eng, oracle)
	if err != nil {
		if errors.Is(err, errBadStrategy) || errors.Is(err, mask.ErrUnknownClass) ||
			errors.Is(err, mask.ErrDanglingPlaceholder) || errors.Is(err, mask.ErrEmptyMask) {
			shared.Logger.Error("Invalid search configuration", "error", err)
			os.Exit(ExitConfigError)
		}

		shared.Logger.Error("Search failed", "error", err)
		os.Exit(ExitConfigError)
	}

	display.SearchResult(result)

	switch result.Outcome {
	case engine.OutcomeFound:
		reportFound(ctx, result.Password, dna)
		os.Exit(ExitFound)
	case engine.OutcomeCancelled:
		os.Exit(ExitCancelled)
	case engine.OutcomeExhausted:
		os.Exit(ExitExhausted)
	}
}

// resolveTarget returns the auth digest and DNA, preferring explicit flags
// and falling back to fetching both from the device.
func resolveTarget(ctx context.Context) (target, dna string, err error) {
	if recoverOpts.target != "" && recoverOpts.dna != "" {
		return recoverOpts.target, recoverOpts.dna, nil
	}

	if hostArg == "" {
		return "", "", errors.New("need --target and --dna, or --host to fetch them from the device")
	}

	hosts, err := device.ParseHosts(hostArg)
	if err != nil {
		return "", "", err
	}

	client := device.NewClient(hosts[0], shared.State.APIPort, shared.State.Timeout)

	fetched, err := client.FetchTarget(ctx)
	if err != nil {
		return "", "", err
	}

	target = recoverOpts.target
	if target == "" {
		target = fetched.Auth
	}

	dna = recoverOpts.dna
	if dna == "" {
		dna = fetched.DNA
	}

	return target, dna, nil
}

// runStrategy builds the candidate space selected by the flags and runs the
// search over it.
func runStrategy(ctx context.Context, eng *engine.Engine, oracle *auth.Oracle) (engine.Result, error) {
	selected := 0
	for _, on := range []bool{recoverOpts.wordlistSource != "", recoverOpts.maskPattern != "", recoverOpts.bruteforce} {
		if on {
			selected++
		}
	}

	if selected != 1 {
		return engine.Result{}, errBadStrategy
	}

	switch {
	case recoverOpts.maskPattern != "":
		pattern, err := mask.Parse(recoverOpts.maskPattern)
		if err != nil {
			return engine.Result{}, err
		}

		return searchIndexed(ctx, eng, oracle, keyspace.NewMaskSpace(pattern))

	case recoverOpts.bruteforce:
		charset, err := mask.CharsetByName(recoverOpts.charsetName)
		if err != nil {
			return engine.Result{}, err
		}

		space, err := keyspace.NewBruteforceSpace(charset, recoverOpts.minLen, recoverOpts.maxLen)
		if err != nil {
			return engine.Result{}, err
		}

		return searchIndexed(ctx, eng, oracle, space)

	default:
		return runWordlistStrategy(ctx, eng, oracle)
	}
}

// runWordlistStrategy resolves the wordlist and dispatches to the plain,
// rule-mutated or hybrid attack. The hybrid attack loads the list into
// memory for O(1) addressing; the others stream it.
func runWordlistStrategy(ctx context.Context, eng *engine.Engine, oracle *auth.Oracle) (engine.Result, error) {
	path, err := wordlist.Resolve(ctx, recoverOpts.wordlistSource)
	if err != nil {
		return engine.Result{}, err
	}

	if recoverOpts.hybridSuffix > 0 {
		words, err := wordlist.Load(path)
		if err != nil {
			return engine.Result{}, err
		}

		space, err := keyspace.NewHybridSpace(words, recoverOpts.hybridSuffix)
		if err != nil {
			return engine.Result{}, err
		}

		return searchIndexed(ctx, eng, oracle, space)
	}

	f, err := wordlist.Open(path)
	if err != nil {
		return engine.Result{}, err
	}
	defer f.Close() //nolint:errcheck // Read-only file

	dict := keyspace.NewDictionaryStream(f, path)

	var stream keyspace.Stream = dict
	if recoverOpts.applyRules {
		stream = keyspace.NewMutatedStream(dict)
	}

	display.SearchStarting(stream.Label(), oracle.Target(), recoverOpts.dna, 0, pickWorkers())

	return eng.SearchStream(ctx, stream)
}

// searchIndexed logs the keyspace summary and runs the indexed search.
func searchIndexed(ctx context.Context, eng *engine.Engine, oracle *auth.Oracle, space keyspace.Indexed) (engine.Result, error) {
	display.SearchStarting(space.Label(), oracle.Target(), recoverOpts.dna, space.Size(), pickWorkers())

	return eng.SearchIndexed(ctx, space)
}

// reportFound prints the credential block and, when a host is known,
// verifies the password against the live device.
func reportFound(ctx context.Context, password, dna string) {
	creds := auth.DeriveCredentials(password, dna)
	display.Credentials(password, creds, firstHost())

	if hostArg == "" {
		return
	}

	hosts, err := device.ParseHosts(hostArg)
	if err != nil {
		return
	}

	client := device.NewClient(hosts[0], shared.State.APIPort, shared.State.Timeout)

	_, cookie, err := client.WebAuth(ctx, password)
	if err != nil {
		shared.Logger.Warn("Could not verify password against device", "host", hosts[0], "error", err)

		return
	}

	shared.Logger.Info("Password verified against device", "host", hosts[0], "cookie", cookie)
}

// firstHost returns the first configured host, or empty.
func firstHost() string {
	hosts, err := device.ParseHosts(hostArg)
	if err != nil {
		return ""
	}

	return hosts[0]
}

// pickWorkers prefers the -j flag over the configured default.
func pickWorkers() int {
	if recoverOpts.workers > 0 {
		return recoverOpts.workers
	}

	return shared.State.Workers
}

// pickChunkSize prefers the --chunk-size flag over the configured default.
func pickChunkSize() uint64 {
	if recoverOpts.chunkSize > 0 {
		return recoverOpts.chunkSize
	}

	return shared.State.ChunkSize
}

// pickProgressInterval prefers the --progress-interval flag over the
// configured default.
func pickProgressInterval() time.Duration {
	if recoverOpts.progressInterval > 0 {
		return recoverOpts.progressInterval
	}

	return shared.State.ProgressInterval
}

