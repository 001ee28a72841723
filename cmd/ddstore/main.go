package main

import (
	"context"
	_ "embed"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/term"

	"github.com/inferlab/ddstore/pkg/capability"
	"github.com/inferlab/ddstore/pkg/config"
	"github.com/inferlab/ddstore/pkg/pool"
	"github.com/inferlab/ddstore/pkg/sqlrun"
)

//go:embed README.md
var readmeMarkdown string

var bannerLines = []string{
	`       __     __     __                  `,
	`  ____/ /____/ /____/ /_ ____   _____ ___`,
	` / __  // __  // ___/ __// __ \ / ___// _ \`,
	`/ /_/ // /_/ /(__  ) /_ / /_/ // /   /  __/`,
	`\__,_/ \__,_//____/\__/ \____//_/    \___/ `,
}

func printBanner() {
	// Gradient from green to blue
	green, _ := colorful.Hex("#00C853")
	blue, _ := colorful.Hex("#2962FF")
	bgColor := lipgloss.Color("#101820")

	maxWidth := 0
	for _, line := range bannerLines {
		if len(line) > maxWidth {
			maxWidth = len(line)
		}
	}

	var lines []string
	for _, line := range bannerLines {
		var result strings.Builder
		for i, r := range line {
			t := float64(i) / float64(maxWidth-1)
			c := green.BlendLuv(blue, t)
			style := lipgloss.NewStyle().
				Foreground(lipgloss.Color(c.Hex())).
				Background(bgColor).
				Bold(true)
			result.WriteString(style.Render(string(r)))
		}
		lines = append(lines, result.String())
	}

	box := lipgloss.NewStyle().
		Background(bgColor).
		Padding(0, 2).
		Render(strings.Join(lines, "\n"))

	fmt.Println(box)
	fmt.Println()
}

var (
	// Styles for usage output
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00C853"))

	descStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	flagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#2962FF")).
			Bold(true)

	exampleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)
)

func printUsage() {
	fmt.Println(titleStyle.Render("Usage:"))
	fmt.Println("  ddstore " + flagStyle.Render("-config <file>") + " [flags]")
	fmt.Println()

	fmt.Println(titleStyle.Render("Options:"))
	flag.VisitAll(func(f *flag.Flag) {
		fmt.Printf("  %s\n", flagStyle.Render("-"+f.Name))
		fmt.Printf("      %s\n", descStyle.Render(f.Usage))
	})
	fmt.Println()

	fmt.Println(titleStyle.Render("Examples:"))
	fmt.Println(exampleStyle.Render(`  ddstore -config ddstore.json -validate`))
	fmt.Println(exampleStyle.Render(`  ddstore -config ddstore.json -c "CREATE TABLE dd_labels (id bigint);"`))
	fmt.Println(exampleStyle.Render(`  ddstore -config ddstore.json -eval "SELECT count(*) FROM dd_labels;"`))
	fmt.Println()

	fmt.Println(descStyle.Render("Run 'ddstore -help' for full documentation."))
	fmt.Println()
}

func printFullDocs() {
	// Get terminal width, default to 80 if not a terminal
	width := 80
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		width = w
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		// Fallback to raw markdown
		fmt.Println(readmeMarkdown)
		return
	}

	out, err := renderer.Render(readmeMarkdown)
	if err != nil {
		// Fallback to raw markdown
		fmt.Println(readmeMarkdown)
		return
	}

	fmt.Print(out)
}

func main() {
	configPath := flag.String("config", "", "path to ddstore.json config file")
	env := flag.String("env", "default", "database environment to target")
	command := flag.String("c", "", "SQL text to execute and exit")
	eval := flag.String("eval", "", "scalar SQL to evaluate; prints the selected TSV field")
	field := flag.Int("field", 0, "zero-based TSV field to print (used with -eval)")
	validate := flag.Bool("validate", false, "validate the config and exit")
	useDriver := flag.Bool("driver", false, "execute through the driver instead of the external program")
	jsonLogs := flag.Bool("json", false, "output logs in JSON format")
	showHelp := flag.Bool("help", false, "show full documentation")
	flag.Usage = printUsage
	flag.Parse()

	// Show full docs with -help
	if *showHelp {
		printFullDocs()
		os.Exit(0)
	}

	// Show compact usage when no config provided
	if *configPath == "" {
		printBanner()
		printUsage()
		os.Exit(1)
	}

	// Set up logger
	var handler slog.Handler
	if *jsonLogs {
		handler = slog.NewJSONHandler(os.Stderr, nil)
	} else {
		handler = slog.NewTextHandler(os.Stderr, nil)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	cfg, err := config.ReadConfigFile(*configPath)
	if err != nil {
		logger.Error("failed to read config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	secrets, err := config.NewSecretCacheFromEnv(ctx)
	if err != nil {
		logger.Error("failed to create secrets cache", "error", err)
		os.Exit(1)
	}

	if err := cfg.Validate(ctx, secrets); err != nil {
		logger.Error("config validation failed", "error", err)
		os.Exit(1)
	}
	logger.Info("config validated", "path", *configPath)

	if *validate {
		os.Exit(0)
	}

	runner, cleanup, err := buildRunner(ctx, cfg, secrets, *env, *useDriver, logger)
	if err != nil {
		logger.Error("failed to build runner", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	switch {
	case *eval != "":
		value, err := runner.EvalTSV(ctx, *eval, *field)
		if err != nil {
			logger.Error("eval failed", "error", err)
			os.Exit(1)
		}
		fmt.Println(value)

	case *command != "":
		if err := runner.RunQueries(ctx, *command); err != nil {
			logger.Error("execution failed", "error", err)
			os.Exit(1)
		}

	default:
		// Nothing to do beyond validation; report the detected variant.
		probe := capability.NewProbe(runner, logger)
		variant, err := probe.Variant(ctx)
		if err != nil {
			logger.Error("failed to detect backend variant", "error", err)
			os.Exit(1)
		}
		logger.Info("backend detected", "environment", *env, "variant", variant)
	}
}

// buildRunner picks the external-program runner unless -driver asks for
// direct execution, in which case the connection pools are created.
func buildRunner(ctx context.Context, cfg *config.Config, secrets *config.SecretCache, env string, useDriver bool, logger *slog.Logger) (sqlrun.Runner, func(), error) {
	if !useDriver {
		runner, err := sqlrun.NewProcessRunner(cfg.Executor, logger)
		if err != nil {
			return nil, nil, err
		}
		return runner, func() {}, nil
	}

	manager, err := pool.NewManager(ctx, cfg, secrets, logger)
	if err != nil {
		return nil, nil, err
	}
	return sqlrun.NewDriverRunner(manager, env, logger), manager.Close, nil
}
