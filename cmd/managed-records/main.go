// Command managed-records retrieves one managed page of records from a
// records store and prints the result envelope as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/HerbHall/managedrecords/internal/config"
	"github.com/HerbHall/managedrecords/internal/records"
	"github.com/HerbHall/managedrecords/internal/recordsclient"
	"go.uber.org/zap"
)

// Exit codes.
const (
	exitOK         = 0
	exitFailure    = 1
	exitValidation = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// colorList collects repeated -color flags.
type colorList []string

func (c *colorList) String() string { return strings.Join(*c, ",") }

func (c *colorList) Set(s string) error {
	*c = append(*c, s)
	return nil
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("managed-records", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to configuration file")
	baseURL := fs.String("base-url", "", "records store base URL (default from plugins.managed.base_url)")
	page := fs.Int("page", records.DefaultPage, "1-based page number")
	optionsJSON := fs.String("options", "", `raw options object, e.g. '{"page":2,"colors":["red"]}'`)
	timeout := fs.Duration("timeout", 0, "store request timeout (default from plugins.managed.timeout)")
	var colors colorList
	fs.Var(&colors, "color", "color filter, repeatable")

	if err := fs.Parse(args); err != nil {
		return exitValidation
	}

	v, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load configuration: %v\n", err)
		return exitFailure
	}
	cfg := config.New(v)

	logger, err := config.NewLogger(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "failed to create logger: %v\n", err)
		return exitFailure
	}
	defer func() { _ = logger.Sync() }()

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	var options any = map[string]any{}
	if *optionsJSON != "" {
		options, err = decodeOptions(*optionsJSON)
		if err != nil {
			fmt.Fprintf(stderr, "invalid -options: %v\n", err)
			return exitValidation
		}
	}
	if m, ok := options.(map[string]any); ok {
		if set["page"] {
			m[records.OptionPage] = *page
		}
		if set["color"] {
			m[records.OptionColors] = []string(colors)
		}
	}

	managedCfg := cfg.Sub("plugins.managed")
	managedCfg.Viper().SetDefault("base_url", recordsclient.DefaultBaseURL)
	managedCfg.Viper().SetDefault("timeout", recordsclient.DefaultTimeout)

	url := managedCfg.GetString("base_url")
	if *baseURL != "" {
		url = *baseURL
	}
	d := managedCfg.GetDuration("timeout")
	if *timeout > 0 {
		d = *timeout
	}

	client, err := recordsclient.New(url,
		recordsclient.WithTimeout(d),
		recordsclient.WithLogger(logger.Named("client")),
	)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return exitFailure
	}

	ctx, cancel := context.WithTimeout(context.Background(), d+time.Second)
	defer cancel()

	env, err := records.NewRetriever(client, logger).RetrieveRecords(ctx, options)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		if records.IsValidation(err) {
			return exitValidation
		}
		return exitFailure
	}

	logger.Debug("retrieved page", zap.Int("ids", len(env.IDs)))

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(env); err != nil {
		fmt.Fprintf(stderr, "write result: %v\n", err)
		return exitFailure
	}
	return exitOK
}

// decodeOptions parses a JSON value, keeping numbers as json.Number so the
// normalizer sees the original numeric text.
func decodeOptions(s string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
