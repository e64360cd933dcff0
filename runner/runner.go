package runner

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/rotisserie/eris"
	"golang.org/x/term"

	"github.com/Tpgainz/smart-business-directory/config"
)

const (
	RunModeWeb = iota + 1
	RunModeBatch
	RunModeLambda
)

var (
	ErrInvalidRunMode = eris.New("invalid run mode")
)

type Runner interface {
	Run(context.Context) error
	Close(context.Context) error
}

type Config struct {
	Concurrency              int
	EnrichConcurrency        int
	Addr                     string
	InputFile                string
	ResultsFile              string
	Limit                    int
	ExitOnInactivityDuration time.Duration
	S3Bucket                 string
	S3Prefix                 string
	ScorerFunction           string
	RunMode                  int

	// Settings are the environment-backed settings, loaded by main.
	Settings *config.Config
}

func ParseConfig() *Config {
	cfg := Config{}

	var mode string

	flag.StringVar(&mode, "mode", "web", "run mode: web, batch or lambda [default: web]")
	flag.IntVar(&cfg.Concurrency, "c", max(runtime.NumCPU()/2, 1), "sets the batch concurrency [default: half of CPU cores]")
	flag.IntVar(&cfg.EnrichConcurrency, "enrich-c", 4, "parallel enrichment calls per NAF search [default: 4]")
	flag.StringVar(&cfg.Addr, "addr", ":8080", "address the dashboard listens on [default: :8080]")
	flag.StringVar(&cfg.InputFile, "input", "", "path to the input file with queries (one per line) [default: empty]")
	flag.StringVar(&cfg.ResultsFile, "results", "results.xlsx", "path of the batch workbook [default: results.xlsx]")
	flag.IntVar(&cfg.Limit, "n", 10, "maximum companies per NAF or name query [default: 10]")
	flag.DurationVar(&cfg.ExitOnInactivityDuration, "exit-on-inactivity", time.Minute, "exit after inactivity duration (e.g., '5m')")
	flag.StringVar(&cfg.S3Bucket, "s3-bucket", "", "also upload the batch workbook to this S3 bucket")
	flag.StringVar(&cfg.S3Prefix, "s3-prefix", "", "key prefix for the S3 upload")
	flag.StringVar(&cfg.ScorerFunction, "scorer-function", "", "score through this Lambda function instead of locally")

	flag.Parse()

	if cfg.Concurrency < 1 {
		panic("Concurrency must be greater than 0")
	}

	if cfg.EnrichConcurrency < 1 {
		panic("EnrichConcurrency must be greater than 0")
	}

	if cfg.Limit < 1 {
		panic("Limit must be greater than 0")
	}

	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		mode = "lambda"
	}

	cfg.RunMode = ParseRunMode(mode)

	if cfg.RunMode == RunModeBatch && cfg.InputFile == "" {
		panic("InputFile must be provided in batch mode")
	}

	return &cfg
}

// ParseRunMode returns 0 for an unknown mode.
func ParseRunMode(mode string) int {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "web":
		return RunModeWeb
	case "batch":
		return RunModeBatch
	case "lambda":
		return RunModeLambda
	default:
		return 0
	}
}

func wrapText(text string, width int) []string {
	var lines []string

	currentLine := ""
	currentWidth := 0

	for _, r := range text {
		runeWidth := runewidth.RuneWidth(r)
		if currentWidth+runeWidth > width {
			lines = append(lines, currentLine)
			currentLine = string(r)
			currentWidth = runeWidth
		} else {
			currentLine += string(r)
			currentWidth += runeWidth
		}
	}

	if currentLine != "" {
		lines = append(lines, currentLine)
	}

	return lines
}

func banner(messages []string, width int) string {
	if width <= 0 {
		var err error

		width, _, err = term.GetSize(0)
		if err != nil {
			width = 80
		}
	}

	if width < 20 {
		width = 20
	}

	contentWidth := width - 4

	var wrappedLines []string
	for _, message := range messages {
		wrappedLines = append(wrappedLines, wrapText(message, contentWidth)...)
	}

	var builder strings.Builder

	builder.WriteString("╔" + strings.Repeat("═", width-2) + "╗\n")

	for _, line := range wrappedLines {
		lineWidth := runewidth.StringWidth(line)
		paddingRight := contentWidth - lineWidth

		if paddingRight < 0 {
			paddingRight = 0
		}

		builder.WriteString(fmt.Sprintf("║ %s%s ║\n", line, strings.Repeat(" ", paddingRight)))
	}

	builder.WriteString("╚" + strings.Repeat("═", width-2) + "╝\n")

	return builder.String()
}

func Banner() {
	message1 := "🏢 Smart Business Directory"
	message2 := "🔎 SIREN, SIRET, NAF and name lookups over INSEE Sirene and recherche-entreprises"
	message3 := "📊 Health score and company profile, exported to xlsx"

	fmt.Fprintln(os.Stderr, banner([]string{message1, message2, message3}, 0))
}
