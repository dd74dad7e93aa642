package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/root4loot/goutils/log"

	"github.com/root4loot/thumbnailer"
)

const (
	author = "@danielantonsen"
	usage  = `USAGE:
  thumbnailer [options] <url>

OUTPUT:
  -o,  --out                  output image, format from extension                (Default: out.png)
       --width                output width in pixels                             (Default: page width)
       --height               output height in pixels                            (Default: page height)
                              With both --width and --height the page is scaled to
                              cover the box and cropped from the top-left corner.
       --imprint              add the page origin below the image               (Default: false)

CONFIGURATIONS:
       --window-width         layout viewport width                              (Default: 1024)
       --window-height        layout viewport height                             (Default: 768)
       --max-width            capture viewport width limit                       (Default: 4096)
       --max-height           capture viewport height limit                      (Default: 4096)
       --timeout              capture whatever is rendered after N seconds       (Default: none)
       --noplugin             disable plugins                                    (Default: false)
       --engine               browser driver: chromedp, rod                      (Default: chromedp)
  -ua, --user-agent           specify user agent                                 (Default: browser UA)
       --ignore-cert-err      ignore certificate errors                          (Default: false)
       --disable-http2        disable HTTP2                                      (Default: false)
       --no-headless          show the browser window                            (Default: false)
       --chrome-path          browser binary                                     (Default: auto)
       --config               YAML file with default options                     (Default: $CONFIG_PATH)

       --debug                enable debug mode
       --version              display version
`
)

var errVersion = errors.New("version requested")

type cli struct {
	*thumbnailer.Runner
	TargetURL  string
	ConfigPath string
}

func NewCLI() *cli {
	return &cli{Runner: thumbnailer.NewRunner()}
}

func init() {
	log.Init("thumbnailer")
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cli := NewCLI()

	if path := thumbnailer.ConfigPath(configArg(args)); path != "" {
		options, err := thumbnailer.LoadConfig(path)
		if err != nil {
			log.Errorf("%v", err)
			return 1
		}
		cli.Runner = thumbnailer.NewRunnerWithOptions(*options)
	}

	if err := cli.parseFlags(args); err != nil {
		switch {
		case errors.Is(err, flag.ErrHelp):
			fmt.Print(usage)
			return 0
		case errors.Is(err, errVersion):
			fmt.Println("thumbnailer", thumbnailer.Version, "by", author)
			return 0
		}
		fmt.Fprintf(os.Stderr, "%v\n\n%s", err, usage)
		return 1
	}

	thumbnailer.SetLogLevel(cli.Options)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	outcome := cli.Run(ctx, cli.TargetURL)
	switch {
	case outcome.Err != nil:
		log.Errorf("%s: %v", cli.TargetURL, outcome.Err)
	case !outcome.Success:
		log.Errorf("%s: capture failed", cli.TargetURL)
	case !outcome.Written:
		log.Debugf("%s: page is empty, no image written", cli.TargetURL)
	}

	return outcome.ExitCode()
}

// parseFlags parses args into the runner options. The URL may appear before,
// between or after the flags.
func (cli *cli) parseFlags(args []string) error {
	var help, ver, headful bool

	options := cli.Options
	fs := flag.NewFlagSet("thumbnailer", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	// OUTPUT
	fs.StringVar(&options.OutputPath, "out", options.OutputPath, "")
	fs.StringVar(&options.OutputPath, "o", options.OutputPath, "")
	fs.IntVar(&options.Width, "width", options.Width, "")
	fs.IntVar(&options.Height, "height", options.Height, "")
	fs.BoolVar(&options.Imprint, "imprint", options.Imprint, "")

	// CONFIGURATIONS
	fs.IntVar(&options.WindowWidth, "window-width", options.WindowWidth, "")
	fs.IntVar(&options.WindowHeight, "window-height", options.WindowHeight, "")
	fs.IntVar(&options.MaxWidth, "max-width", options.MaxWidth, "")
	fs.IntVar(&options.MaxHeight, "max-height", options.MaxHeight, "")
	fs.Float64Var(&options.Timeout, "timeout", options.Timeout, "")
	fs.BoolVar(&options.NoPlugins, "noplugin", options.NoPlugins, "")
	fs.StringVar(&options.Engine, "engine", options.Engine, "")
	fs.StringVar(&options.UserAgent, "user-agent", options.UserAgent, "")
	fs.StringVar(&options.UserAgent, "ua", options.UserAgent, "")
	fs.BoolVar(&options.IgnoreCertificateErrors, "ignore-cert-err", options.IgnoreCertificateErrors, "")
	fs.BoolVar(&options.DisableHTTP2, "disable-http2", options.DisableHTTP2, "")
	fs.BoolVar(&headful, "no-headless", !options.Headless, "")
	fs.StringVar(&options.ChromePath, "chrome-path", options.ChromePath, "")
	fs.StringVar(&cli.ConfigPath, "config", "", "")

	fs.BoolVar(&options.Debug, "debug", options.Debug, "")
	fs.BoolVar(&help, "help", false, "")
	fs.BoolVar(&help, "h", false, "")
	fs.BoolVar(&ver, "version", false, "")

	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return err
		}
		if fs.NArg() == 0 {
			break
		}
		positional = append(positional, fs.Arg(0))
		args = fs.Args()[1:]
	}

	if help {
		return flag.ErrHelp
	}

	if ver {
		return errVersion
	}

	options.Headless = !headful

	switch len(positional) {
	case 0:
		return errors.New("missing url")
	case 1:
		cli.TargetURL = strings.TrimSpace(positional[0])
	default:
		return fmt.Errorf("unexpected arguments: %s", strings.Join(positional[1:], " "))
	}

	return nil
}

// configArg returns the value of --config in args, if present.
func configArg(args []string) string {
	for i, arg := range args {
		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if !strings.HasPrefix(arg, "-") || name != "config" {
			continue
		}
		if hasValue {
			return value
		}
		if i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}
