// Command lanshare serves a folder over the local network for upload
// and download, and prints a terminal QR code of its own address so a
// phone on the same network can open it.
package main

import (
	_ "embed"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/mdp/qrterminal/v3"

	"lanshare/internal/lanip"
	"lanshare/internal/store"
	"lanshare/internal/web"
)

//go:embed README.md
var readme string

const (
	defaultFolder = "files"
	listenPort    = 8000
	usageHeading  = "### CLI - simplified examples"
)

// Block glyphs for the half-height terminal QR code.
const (
	blackWhite = "▄"
	blackBlack = " "
	whiteBlack = "▀"
	whiteWhite = "█"
)

type config struct {
	dir   string
	debug bool
}

func parseFlags() config {
	var cfg config
	flag.BoolVar(&cfg.debug, "d", false, "verbose request logging")
	flag.BoolVar(&cfg.debug, "debug", false, "verbose request logging")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(),
			"Usage: %s [folder] [-d]\n\nShare a folder over the local network.\n\nOptions:\n",
			os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	cfg.dir = defaultFolder
	if flag.NArg() > 0 {
		cfg.dir = flag.Arg(0)
	}
	return cfg
}

func run(cfg config) error {
	level := slog.LevelInfo
	if cfg.debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	st, err := store.New(cfg.dir)
	if err != nil {
		return err
	}

	var baseURL string
	if ip, err := lanip.LocalIP(); err != nil {
		logger.Warn("could not determine LAN address, serving without QR code", "error", err)
	} else {
		baseURL = fmt.Sprintf("http://%s:%d", ip, listenPort)
	}

	srv, err := web.New(web.Config{
		Store:   st,
		BaseURL: baseURL,
		Usage:   web.FormatUsage(readme, usageHeading),
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	if baseURL != "" {
		fmt.Println(baseURL)
		printQR(baseURL)
	}
	logger.Info("serving", "dir", st.Dir(), "port", listenPort)
	return http.ListenAndServe(fmt.Sprintf(":%d", listenPort), srv.Handler())
}

func printQR(url string) {
	qrterminal.GenerateWithConfig(url, qrterminal.Config{
		Level:          qrterminal.M,
		Writer:         os.Stdout,
		HalfBlocks:     true,
		BlackChar:      blackBlack,
		WhiteBlackChar: whiteBlack,
		WhiteChar:      whiteWhite,
		BlackWhiteChar: blackWhite,
		QuietZone:      1,
	})
}

func main() {
	if err := run(parseFlags()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
