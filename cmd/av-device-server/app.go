package main

import (
	"fmt"
	"io"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/Ztiany/av-device-server/internal/infra/buildinfo"
	"github.com/Ztiany/av-device-server/internal/infra/confloader"
	"github.com/Ztiany/av-device-server/internal/server/config"
)

// newApp creates the CLI application. Notices go to stdout, logs to stderr.
func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "av-device-server",
		Usage:     "serve a directory over HTTP and HTTPS",
		Version:   buildinfo.String(),
		Flags:     globalFlags(),
		Action:    serve,
		Writer:    stdout,
		ErrWriter: stderr,
		Commands: []*cli.Command{
			configCommand(),
		},
	}
}

// flagKeys maps flags onto configuration keys. A flag overrides the key
// only when it is set on the command line.
var flagKeys = map[string]string{
	"root":             "server.root",
	"http-addr":        "server.http.addr",
	"https-addr":       "server.https.addr",
	"key-file":         "tls.key",
	"cert-file":        "tls.cert",
	"hidden":           "listing.hidden",
	"rate-limit":       "server.ratelimit",
	"shutdown-timeout": "server.shutdown.timeout",
	"metrics-addr":     "metrics.addr",
	"log-level":        "log.level",
	"log-format":       "log.format",
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to a YAML configuration file",
			EnvVars: []string{"AVDS_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "root",
			Aliases: []string{"r"},
			Usage:   "Directory to serve",
			Value:   config.DefaultRoot,
		},
		&cli.StringFlag{
			Name:  "http-addr",
			Usage: "Plain-text listener address",
			Value: config.DefaultHTTPAddr,
		},
		&cli.StringFlag{
			Name:  "https-addr",
			Usage: "Encrypted listener address",
			Value: config.DefaultHTTPSAddr,
		},
		&cli.StringFlag{
			Name:  "key-file",
			Usage: "TLS private key (PEM)",
		},
		&cli.StringFlag{
			Name:  "cert-file",
			Usage: "TLS certificate (PEM)",
		},
		&cli.BoolFlag{
			Name:  "hidden",
			Usage: "Serve and list dotfiles",
		},
		&cli.IntFlag{
			Name:  "rate-limit",
			Usage: "Requests per second per client IP (0 disables)",
		},
		&cli.DurationFlag{
			Name:  "shutdown-timeout",
			Usage: "Time allowed for in-flight requests on shutdown",
			Value: config.DefaultShutdownTimeout,
		},
		&cli.StringFlag{
			Name:  "metrics-addr",
			Usage: "Admin listener address for /metrics and /health (empty disables)",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error",
			Value: config.DefaultLogLevel,
		},
		&cli.StringFlag{
			Name:  "log-format",
			Usage: "Log format: text, json",
			Value: config.DefaultLogFormat,
		},
		&cli.BoolFlag{
			Name:  "no-color",
			Usage: "Disable colored notices",
		},
	}
}

// overrides collects the flags set on the command line as dotted keys.
func overrides(c *cli.Context) map[string]any {
	values := make(map[string]any)
	for name, key := range flagKeys {
		if !c.IsSet(name) {
			continue
		}
		switch name {
		case "hidden":
			values[key] = c.Bool(name)
		case "rate-limit":
			values[key] = c.Int(name)
		case "shutdown-timeout":
			values[key] = c.Duration(name).String()
		default:
			values[key] = c.String(name)
		}
	}
	return values
}

// loadConfig builds the effective configuration: defaults, then the file,
// then AVDS_* variables, then flags.
func loadConfig(c *cli.Context) (*config.ServerConfig, error) {
	cfg := config.Default()

	opts := []confloader.Option{confloader.WithOverrides(overrides(c))}
	if path := c.String("config"); path != "" {
		opts = append(opts, confloader.WithConfigFile(path))
	}

	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Print the effective configuration as YAML",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			_, err = c.App.Writer.Write(out)
			return err
		},
	}
}
