package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/go-authgate/connectgate/internal/bootstrap"
	"github.com/go-authgate/connectgate/internal/config"
	"github.com/go-authgate/connectgate/internal/providers"
	"github.com/go-authgate/connectgate/internal/version"
)

func main() {
	// Define flags
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	flag.Usage = printUsage
	flag.Parse()

	if *showVersion {
		version.PrintVersion()
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "server":
		runServer()
	case "providers":
		listProviders()
	default:
		fmt.Printf("Unknown command: %s\n\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf("Usage: %s [OPTIONS] COMMAND\n\n", os.Args[0])
	fmt.Println("OAuth2 connection manager for third-party providers")
	fmt.Println("\nCommands:")
	fmt.Println("  server       Start the ConnectGate server")
	fmt.Println("  providers    List supported providers and their environment variables")
	fmt.Println("\nOptions:")
	fmt.Println("  -v, --version    Show version information")
	fmt.Println("  -h, --help       Show this help message")
}

func runServer() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := bootstrap.Run(ctx, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "connectgate: %v\n", err)
		os.Exit(1)
	}
}

func listProviders() {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPKCE\tCLIENT ID VARIABLES\tTESTS")
	for _, d := range providers.Default().List() {
		vars := make([]string, 0, len(d.Prefixes()))
		for _, p := range d.Prefixes() {
			vars = append(vars, p+"_CLIENT_ID")
		}
		fmt.Fprintf(w, "%s\t%s\t%t\t%s\t%s\n",
			d.ID, d.Name, d.UsePKCE,
			strings.Join(vars, ", "),
			strings.Join(d.ProbeTypes(), ", "),
		)
	}
	_ = w.Flush()
}
