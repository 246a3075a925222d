package main

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/pageflow"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx       context.Context
	Stdout    io.Writer
	Stderr    io.Writer
	Logger    *slog.Logger
	Resources pageflow.ResourceService
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	LogLevel  string           `default:"info" enum:"debug,info,warn,error" help:"Log level (${enum})"`
	LogFormat string           `default:"text" enum:"text,json" help:"Log format (${enum})"`
	Config    kong.ConfigFlag  `help:"Load flag values from a JSON file"`
	Version   kong.VersionFlag `help:"Print version and exit"`

	Run     RunCmd     `cmd:"" default:"withargs" help:"Fetch records and extract resources (default)"`
	History HistoryCmd `cmd:"" help:"List resources stored in a database"`
}

// dbPath returns the database path of the selected command.
func (c *CLI) dbPath(command string) string {
	switch {
	case strings.HasPrefix(command, "history"):
		return c.History.DB
	default:
		return c.Run.DB
	}
}

// RunCmd is the "run" subcommand.
type RunCmd struct {
	Input   string `short:"i" default:"urls.csv" help:"Tab-separated file of date and URL rows"`
	Sitemap string `help:"Read records from a site's sitemap instead of the input file"`
	Output  string `short:"o" default:"-" help:"Output JSON file, - for stdout"`
	DB      string `help:"Also store resources in this SQLite database"`

	ChannelSize    int           `default:"64" help:"Capacity of each queue between stages"`
	Concurrency    int           `short:"c" default:"64" help:"Maximum operations in flight per stage"`
	ParseLimit     int           `default:"0" help:"Maximum documents parsed at once (0 = number of CPUs)"`
	ConnectTimeout time.Duration `default:"10s" help:"Connection timeout"`
	Timeout        time.Duration `default:"30s" help:"Total timeout per request"`
	UserAgent      string        `default:"${user_agent}" help:"User-Agent header"`
	RPS            float64       `name:"rps" default:"0" help:"Requests per second per host (0 = unlimited)"`
	Burst          int           `default:"1" help:"Requests a host may receive back to back when --rps is set"`
	MetricsAddr    string        `help:"Serve Prometheus metrics on this address while running"`

	Extractor string `default:"goquery" enum:"goquery,trafilatura" help:"Metadata extractor (${enum})"`
	Render    bool   `help:"Render pages in headless Chrome before extraction"`
	MaxPages  int    `default:"75" help:"Pages rendered before the browser is restarted (0 = never)"`
}

// HistoryCmd is the "history" subcommand.
type HistoryCmd struct {
	DB     string `required:"" help:"SQLite database written by run --db"`
	URL    string `help:"Only show resources for this URL"`
	Limit  int    `short:"n" default:"20" help:"Maximum number of resources"`
	Offset int    `help:"Number of resources to skip"`
}
