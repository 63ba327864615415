package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/duanxinyuan/json-utils/internal/application"
	"github.com/duanxinyuan/json-utils/internal/config"
	"github.com/duanxinyuan/json-utils/internal/formats"
)

var errInvalidDocument = errors.New("document is not valid JSON")

type cli struct {
	app    *kingpin.Application
	stdin  io.Reader
	stdout io.Writer

	configFile *string
	engine     *string
	indent     *string
	logLevel   *string

	serve          *kingpin.CmdClause
	port           *string
	rateLimitRPS   *float64
	rateLimitBurst *int

	flatten      *kingpin.CmdClause
	flattenFiles *[]string

	format     *kingpin.CmdClause
	formatFile *string

	validate     *kingpin.CmdClause
	validateFile *string

	convert     *kingpin.CmdClause
	convertFrom *string
	convertTo   *string
	convertFile *string

	get     *kingpin.CmdClause
	getKey  *string
	getFile *string
}

func newCLI(stdin io.Reader, stdout io.Writer) *cli {
	c := &cli{
		app:    kingpin.New("jsonutil", "JSON toolkit - validate, format, query, flatten and convert structured documents"),
		stdin:  stdin,
		stdout: stdout,
	}

	c.configFile = c.app.Flag("config", "Path to YAML configuration file").String()
	c.engine = c.app.Flag("engine", "JSON engine: fast, lenient or binding").String()
	c.indent = c.app.Flag("indent", "Indentation used for pretty output (empty keeps the configured value)").String()
	c.logLevel = c.app.Flag("log-level", "Log level: debug, info, warn or error").String()

	c.serve = c.app.Command("serve", "Run the HTTP API")
	c.port = c.serve.Flag("port", "HTTP port exposed by the service").String()
	c.rateLimitRPS = c.serve.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64()
	c.rateLimitBurst = c.serve.Flag("rate-limit-burst", "Burst capacity for rate limiter").Default("-1").Int()

	c.flatten = c.app.Command("flatten", "Merge documents left to right and print their flattened keys")
	c.flattenFiles = c.flatten.Arg("file", "Documents to merge; format is taken from the extension").Required().ExistingFiles()

	c.format = c.app.Command("format", "Pretty print a JSON document")
	c.formatFile = c.format.Arg("file", "JSON document (stdin when omitted)").String()

	c.validate = c.app.Command("validate", "Check that a document is a JSON object or array")
	c.validateFile = c.validate.Arg("file", "JSON document (stdin when omitted)").String()

	c.convert = c.app.Command("convert", "Convert a document between json, yaml, properties, csv and xml")
	c.convertFrom = c.convert.Flag("from", "Input format (defaults to the file extension, then json)").String()
	c.convertTo = c.convert.Flag("to", "Output format").Required().String()
	c.convertFile = c.convert.Arg("file", "Input document (stdin when omitted)").String()

	c.get = c.app.Command("get", "Print a top level member of a JSON object")
	c.getKey = c.get.Arg("key", "Member name").Required().String()
	c.getFile = c.get.Arg("file", "JSON document (stdin when omitted)").String()

	return c
}

func (c *cli) dispatch(command string) error {
	switch command {
	case c.serve.FullCommand():
		return c.runServe()
	case c.flatten.FullCommand():
		return c.runFlatten()
	case c.format.FullCommand():
		return c.runFormat()
	case c.validate.FullCommand():
		return c.runValidate()
	case c.convert.FullCommand():
		return c.runConvert()
	case c.get.FullCommand():
		return c.runGet()
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

// overrides collects the flags given on the command line. Empty strings and
// negative numbers mean the flag was not set.
func (c *cli) overrides() *config.CLIOverrides {
	o := &config.CLIOverrides{ConfigFile: *c.configFile}
	if *c.engine != "" {
		o.Engine = c.engine
	}
	if *c.indent != "" {
		o.Indent = c.indent
	}
	if *c.logLevel != "" {
		o.LogLevel = c.logLevel
	}
	if *c.port != "" {
		o.Port = c.port
	}
	if *c.rateLimitRPS >= 0 {
		o.RateLimitRPS = c.rateLimitRPS
	}
	if *c.rateLimitBurst >= 0 {
		o.RateLimitBurst = c.rateLimitBurst
	}
	return o
}

func (c *cli) setup() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(c.overrides())
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, logger, nil
}

func (c *cli) codec() (*formats.Codec, func(), error) {
	cfg, logger, err := c.setup()
	if err != nil {
		return nil, nil, err
	}
	codec, err := application.NewCodec(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return codec, func() { _ = logger.Sync() }, nil
}

func (c *cli) runServe() error {
	cfg, logger, err := c.setup()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	app, err := application.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	if err := app.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	shutdown(app.Server(), cfg.ShutdownGracePeriod, logger)
	return nil
}

func (c *cli) runFlatten() error {
	codec, done, err := c.codec()
	if err != nil {
		return err
	}
	defer done()

	flat, err := codec.LoadAsMap(*c.flattenFiles...)
	if err != nil {
		return err
	}
	out, err := codec.JSON().ToIndent(flat)
	if err != nil {
		return err
	}
	return c.println(out)
}

func (c *cli) runFormat() error {
	codec, done, err := c.codec()
	if err != nil {
		return err
	}
	defer done()

	data, err := c.read(*c.formatFile)
	if err != nil {
		return err
	}
	out, err := codec.JSON().Format(string(data))
	if err != nil {
		return err
	}
	return c.println(out)
}

func (c *cli) runValidate() error {
	codec, done, err := c.codec()
	if err != nil {
		return err
	}
	defer done()

	data, err := c.read(*c.validateFile)
	if err != nil {
		return err
	}
	if !codec.JSON().IsJSON(string(data)) {
		if err := c.println("invalid"); err != nil {
			return err
		}
		return errInvalidDocument
	}
	return c.println("valid")
}

func (c *cli) runConvert() error {
	codec, done, err := c.codec()
	if err != nil {
		return err
	}
	defer done()

	from, err := c.inputFormat()
	if err != nil {
		return err
	}
	to, err := formats.ParseFormat(*c.convertTo)
	if err != nil {
		return err
	}
	data, err := c.read(*c.convertFile)
	if err != nil {
		return err
	}
	out, err := codec.Convert(data, from, to)
	if err != nil {
		return err
	}
	return c.println(string(out))
}

func (c *cli) inputFormat() (formats.Format, error) {
	switch {
	case *c.convertFrom != "":
		return formats.ParseFormat(*c.convertFrom)
	case *c.convertFile != "":
		return formats.FormatFromPath(*c.convertFile)
	default:
		return formats.JSON, nil
	}
}

func (c *cli) runGet() error {
	codec, done, err := c.codec()
	if err != nil {
		return err
	}
	defer done()

	data, err := c.read(*c.getFile)
	if err != nil {
		return err
	}
	out, err := codec.JSON().GetAsString(string(data), *c.getKey)
	if err != nil {
		return err
	}
	return c.println(out)
}

// read returns the contents of path, or stdin when path is empty or "-".
func (c *cli) read(path string) ([]byte, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(c.stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func (c *cli) println(s string) error {
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	_, err := io.WriteString(c.stdout, s)
	return err
}
