package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hanpama/costgraph/internal/cost"
	"github.com/hanpama/costgraph/internal/eventbus"
	"github.com/hanpama/costgraph/internal/language"
	"github.com/hanpama/costgraph/internal/otel"
	"github.com/hanpama/costgraph/internal/plan"
	"github.com/hanpama/costgraph/internal/schema"
	"github.com/hanpama/costgraph/internal/server"
)

const rootUsage = `costgraph — GraphQL demand-control cost estimation

USAGE:
  costgraph <command> [flags]

COMMANDS:
  estimate         Statically estimate the cost of an operation
  actual           Compute the actual cost of an operation's response
  plan             Estimate the cost of a federated execution plan
  render           Parse a schema SDL and print its canonical form
  serve            Run the HTTP costing sidecar
  help             Show help for any command
`

const estimateUsage = `estimate FLAGS:
  -schema <file>                 Supergraph schema SDL (required)
  -query <file>                  Operation document (required)
  -requires                      Charge federation @requires selections
  -cost.default-list-size <n>    Assumed list length without @listSize (default: 100)
  -v                             Log per-field cost breakdowns
`

const actualUsage = `actual FLAGS:
  -schema <file>                 Supergraph schema SDL (required)
  -query <file>                  Operation document (required)
  -response <file>               Received response JSON (required)
  -v                             Log per-field cost breakdowns
`

const planUsage = `plan FLAGS:
  -plan <file>                   Execution plan JSON (required)
  -subgraph <Name=file>          Map subgraph name to its schema SDL. Repeatable;
                                 every subgraph the plan fetches from must be mapped.
  -cost.default-list-size <n>    Assumed list length without @listSize (default: 100)
  -v                             Log per-field cost breakdowns
`

const renderUsage = `render FLAGS:
  -schema <file>                 Schema SDL (required)

Prints the schema back in canonical SDL form with applied directives, which
checks that the file parses and shows the schema as the calculator sees it.
`

const serveUsage = `serve FLAGS:
  -schema <file>                 Supergraph schema SDL (required)
  -subgraph <Name=file>          Map subgraph name to its schema SDL. Repeatable
  -cost.default-list-size <n>    Assumed list length without @listSize (default: 100)
  -server.addr <addr>            HTTP listen address (default: :8080)
  -server.pretty                 Pretty-print JSON responses
  -server.timeout <duration>     Per-request timeout, e.g. 10s (default: 10s)
  -server.max-body-bytes <n>     Request body size limit (default: 1048576)
  -otel.endpoint <addr>          OTLP collector endpoint
  -otel.service <name>           OpenTelemetry service name (default: costgraph)
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	global := flag.NewFlagSet("costgraph", flag.ContinueOnError)
	global.SetOutput(new(bytes.Buffer)) // silence automatic output
	if err := global.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, rootUsage)
		return err
	}
	remaining := global.Args()
	if len(remaining) == 0 {
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("missing command")
	}

	cmd := remaining[0]
	cmdArgs := remaining[1:]
	switch cmd {
	case "estimate":
		return cmdEstimate(cmdArgs)
	case "actual":
		return cmdActual(cmdArgs)
	case "plan":
		return cmdPlan(cmdArgs)
	case "render":
		return cmdRender(cmdArgs)
	case "serve":
		return cmdServe(cmdArgs)
	case "help":
		return cmdHelp(cmdArgs)
	default:
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdHelp(args []string) error {
	if len(args) == 0 {
		fmt.Print(rootUsage)
		return nil
	}
	switch args[0] {
	case "estimate":
		fmt.Print(estimateUsage)
	case "actual":
		fmt.Print(actualUsage)
	case "plan":
		fmt.Print(planUsage)
	case "render":
		fmt.Print(renderUsage)
	case "serve":
		fmt.Print(serveUsage)
	default:
		return fmt.Errorf("unknown help topic %q", args[0])
	}
	return nil
}

// subgraphFlag accumulates repeatable Name=file schema mappings.
type subgraphFlag struct {
	m map[string]string
}

func (f *subgraphFlag) String() string { return "" }

func (f *subgraphFlag) Set(v string) error {
	parts := strings.SplitN(v, "=", 2)
	if len(parts) != 2 {
		return fmt.Errorf("invalid subgraph mapping %q", v)
	}
	name := strings.TrimSpace(parts[0])
	file := strings.TrimSpace(parts[1])
	if name == "" || file == "" {
		return fmt.Errorf("invalid subgraph mapping %q", v)
	}
	if f.m == nil {
		f.m = map[string]string{}
	}
	f.m[name] = file
	return nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func loadSchema(file string) (*cost.Schema, error) {
	sdl, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	base, err := schema.BuildFromSDL(string(sdl))
	if err != nil {
		return nil, fmt.Errorf("build schema %s: %w", file, err)
	}
	costSchema, err := cost.NewSchema(base)
	if err != nil {
		return nil, fmt.Errorf("cost schema %s: %w", file, err)
	}
	return costSchema, nil
}

func loadSubgraphSchemas(files map[string]string) (map[string]*cost.Schema, error) {
	if len(files) == 0 {
		return nil, nil
	}
	schemas := make(map[string]*cost.Schema, len(files))
	for name, file := range files {
		s, err := loadSchema(file)
		if err != nil {
			return nil, err
		}
		schemas[name] = s
	}
	return schemas, nil
}

func loadQuery(file string) (*language.QueryDocument, error) {
	src, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	doc, err := language.ParseQuery(string(src))
	if err != nil {
		return nil, fmt.Errorf("parse query %s: %w", file, err)
	}
	return doc, nil
}

func cmdEstimate(args []string) error {
	schemaFile := ""
	queryFile := ""
	requires := false
	listSize := cost.DefaultListSize
	verbose := false

	fs := flag.NewFlagSet("estimate", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&schemaFile, "schema", schemaFile, "Supergraph schema SDL")
	fs.StringVar(&queryFile, "query", queryFile, "Operation document")
	fs.BoolVar(&requires, "requires", requires, "Charge federation @requires selections")
	fs.IntVar(&listSize, "cost.default-list-size", listSize, "Assumed list length")
	fs.BoolVar(&verbose, "v", verbose, "Log per-field cost breakdowns")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, estimateUsage)
		return err
	}
	if schemaFile == "" || queryFile == "" {
		fmt.Fprint(os.Stderr, estimateUsage)
		return fmt.Errorf("-schema and -query are required")
	}

	logger, err := newLogger(verbose)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	supergraph, err := loadSchema(schemaFile)
	if err != nil {
		return err
	}
	doc, err := loadQuery(queryFile)
	if err != nil {
		return err
	}

	calc := cost.NewCalculator(supergraph, nil,
		cost.WithDefaultListSize(listSize),
		cost.WithLogger(logger))
	c, err := calc.Estimated(doc, requires)
	if err != nil {
		return err
	}
	fmt.Println(c)
	return nil
}

func cmdActual(args []string) error {
	schemaFile := ""
	queryFile := ""
	responseFile := ""
	verbose := false

	fs := flag.NewFlagSet("actual", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&schemaFile, "schema", schemaFile, "Supergraph schema SDL")
	fs.StringVar(&queryFile, "query", queryFile, "Operation document")
	fs.StringVar(&responseFile, "response", responseFile, "Received response JSON")
	fs.BoolVar(&verbose, "v", verbose, "Log per-field cost breakdowns")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, actualUsage)
		return err
	}
	if schemaFile == "" || queryFile == "" || responseFile == "" {
		fmt.Fprint(os.Stderr, actualUsage)
		return fmt.Errorf("-schema, -query, and -response are required")
	}

	logger, err := newLogger(verbose)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	supergraph, err := loadSchema(schemaFile)
	if err != nil {
		return err
	}
	doc, err := loadQuery(queryFile)
	if err != nil {
		return err
	}
	body, err := os.ReadFile(responseFile)
	if err != nil {
		return err
	}
	resp, err := cost.ResponseFromJSON(body)
	if err != nil {
		return fmt.Errorf("parse response %s: %w", responseFile, err)
	}

	calc := cost.NewCalculator(supergraph, nil, cost.WithLogger(logger))
	c, err := calc.Actual(doc, resp)
	if err != nil {
		return err
	}
	fmt.Println(c)
	return nil
}

func cmdPlan(args []string) error {
	planFile := ""
	listSize := cost.DefaultListSize
	verbose := false
	var subgraphs subgraphFlag

	fs := flag.NewFlagSet("plan", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&planFile, "plan", planFile, "Execution plan JSON")
	fs.Var(&subgraphs, "subgraph", "Map subgraph name to its schema SDL")
	fs.IntVar(&listSize, "cost.default-list-size", listSize, "Assumed list length")
	fs.BoolVar(&verbose, "v", verbose, "Log per-field cost breakdowns")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, planUsage)
		return err
	}
	if planFile == "" {
		fmt.Fprint(os.Stderr, planUsage)
		return fmt.Errorf("-plan is required")
	}

	logger, err := newLogger(verbose)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	subgraphSchemas, err := loadSubgraphSchemas(subgraphs.m)
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(planFile)
	if err != nil {
		return err
	}
	p, err := plan.Decode(raw)
	if err != nil {
		return fmt.Errorf("decode plan %s: %w", planFile, err)
	}
	if err := p.InitOperations(); err != nil {
		return fmt.Errorf("parse plan operations: %w", err)
	}

	calc := cost.NewCalculator(nil, subgraphSchemas,
		cost.WithDefaultListSize(listSize),
		cost.WithLogger(logger))
	c, err := calc.Planned(p)
	if err != nil {
		return err
	}
	fmt.Println(c)
	return nil
}

func cmdRender(args []string) error {
	schemaFile := ""

	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&schemaFile, "schema", schemaFile, "Schema SDL")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, renderUsage)
		return err
	}
	if schemaFile == "" {
		fmt.Fprint(os.Stderr, renderUsage)
		return fmt.Errorf("-schema is required")
	}

	sdl, err := os.ReadFile(schemaFile)
	if err != nil {
		return err
	}
	base, err := schema.BuildFromSDL(string(sdl))
	if err != nil {
		return fmt.Errorf("build schema %s: %w", schemaFile, err)
	}
	fmt.Print(schema.Render(base))
	return nil
}

func cmdServe(args []string) error {
	schemaFile := ""
	addr := ":8080"
	pretty := false
	timeout := 10 * time.Second
	maxBodyBytes := int64(1 << 20)
	listSize := cost.DefaultListSize
	otelEndpoint := ""
	otelService := "costgraph"
	var subgraphs subgraphFlag

	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&schemaFile, "schema", schemaFile, "Supergraph schema SDL")
	fs.Var(&subgraphs, "subgraph", "Map subgraph name to its schema SDL")
	fs.IntVar(&listSize, "cost.default-list-size", listSize, "Assumed list length")
	fs.StringVar(&addr, "server.addr", addr, "HTTP listen address")
	fs.BoolVar(&pretty, "server.pretty", pretty, "Pretty-print JSON responses")
	fs.DurationVar(&timeout, "server.timeout", timeout, "Per-request timeout")
	fs.Int64Var(&maxBodyBytes, "server.max-body-bytes", maxBodyBytes, "Request body size limit")
	fs.StringVar(&otelEndpoint, "otel.endpoint", otelEndpoint, "OTLP collector endpoint")
	fs.StringVar(&otelService, "otel.service", otelService, "OpenTelemetry service name")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, serveUsage)
		return err
	}
	if schemaFile == "" {
		fmt.Fprint(os.Stderr, serveUsage)
		return fmt.Errorf("-schema is required")
	}

	logger, err := newLogger(false)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	supergraph, err := loadSchema(schemaFile)
	if err != nil {
		return err
	}
	subgraphSchemas, err := loadSubgraphSchemas(subgraphs.m)
	if err != nil {
		return err
	}

	eventbus.Use(eventbus.New())
	shutdown, err := otel.Setup(otelEndpoint, otelService)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	calc := cost.NewCalculator(supergraph, subgraphSchemas,
		cost.WithDefaultListSize(listSize),
		cost.WithLogger(logger))

	sopts := []server.Option{server.WithMaxBodyBytes(maxBodyBytes)}
	if pretty {
		sopts = append(sopts, server.WithPretty())
	}
	if timeout > 0 {
		sopts = append(sopts, server.WithTimeout(timeout))
	}
	h := server.New(calc, sopts...)

	logger.Info("costing sidecar listening", zap.String("addr", addr))
	return http.ListenAndServe(addr, h)
}
