// Command sslident checks that the certificates presented by TLS endpoints
// identify the hosts they are served for. It dials each host, takes the
// peer's leaf certificate, and applies the RFC 2818 hostname matching rules
// at the application layer. With -watch it instead follows a local PEM
// certificate file and reports which hosts it covers as the file changes.
package main

import (
	"crypto/tls"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"golang.org/x/sync/errgroup"

	"github.com/art4/sslident"
	"github.com/art4/sslident/fswatcher"
)

var (
	matchColor    = color.New(color.FgGreen)
	mismatchColor = color.New(color.FgRed)
	infoColor     = color.New(color.FgCyan)
)

func main() {
	fold := flag.Bool("fold", false, "Compare hostnames case-insensitively (ASCII fold)")
	idnaMap := flag.Bool("idna", false, "Map hostnames through the IDNA lookup profile before comparing")
	watch := flag.String("watch", "", "Watch a PEM certificate `file` instead of dialing")
	timeout := flag.Duration("timeout", 10*time.Second, "Dial timeout")
	flag.Parse()

	hosts := flag.Args()
	if len(hosts) == 0 {
		fmt.Fprintln(os.Stderr, "usage: sslident [flags] host[:port]...")
		os.Exit(2)
	}

	var opts []sslident.Option
	if *fold {
		opts = append(opts, sslident.WithComparison(sslident.ComparisonFoldASCII))
	}
	if *idnaMap {
		opts = append(opts, sslident.WithIDNAMapping())
	}

	verifier, err := sslident.New(opts...)
	if err != nil {
		mismatchColor.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if *watch != "" {
		if err := watchCertificate(*watch, hosts, verifier); err != nil {
			mismatchColor.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	g := new(errgroup.Group)
	for _, arg := range hosts {
		arg := arg
		g.Go(func() error {
			return checkHost(arg, verifier, *timeout)
		})
	}
	if err := g.Wait(); err != nil {
		os.Exit(1)
	}
}

func checkHost(arg string, verifier *sslident.Verifier, timeout time.Duration) error {
	host, _, err := net.SplitHostPort(arg)
	if err != nil {
		host = arg
		arg = net.JoinHostPort(arg, "443")
	}

	dialer := &net.Dialer{Timeout: timeout}
	conn, err := tls.DialWithDialer(dialer, "tcp", arg, &tls.Config{
		// Chain trust is not the question here; identity is checked at the
		// application layer below.
		InsecureSkipVerify: true, // nolint: gosec
	})
	if err != nil {
		mismatchColor.Printf("%s: %v\n", host, err)
		return err
	}
	defer conn.Close()

	peers := conn.ConnectionState().PeerCertificates
	if len(peers) == 0 {
		mismatchColor.Printf("%s: no peer certificate\n", host)
		return fmt.Errorf("%s: no peer certificate", host)
	}

	leaf := peers[0]
	matched, err := verifier.Verify(host, sslident.FromX509(leaf))
	if err != nil {
		return err
	}

	if !matched {
		mismatchColor.Printf("%s: certificate does not identify host (CN=%s)\n", host, leaf.Subject.CommonName)
		return fmt.Errorf("%s: certificate does not identify host", host)
	}

	matchColor.Printf("%s: certificate identifies host\n", host)
	return nil
}

func watchCertificate(path string, hosts []string, verifier *sslident.Verifier) error {
	watcher, err := fswatcher.New(path)
	if err != nil {
		return err
	}

	monitor := sslident.NewMonitor(watcher, verifier, func(err error) {
		mismatchColor.Fprintln(os.Stderr, err)
	})
	monitor.Watch()
	defer monitor.Close() // nolint: errcheck

	infoColor.Printf("watching %s (press CTRL+C to exit)\n", path)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	covered := make(map[string]bool, len(hosts))
	report := func() {
		for _, host := range hosts {
			covers := monitor.Covers(host)
			if was, seen := covered[host]; seen && was == covers {
				continue
			}
			covered[host] = covers

			if covers {
				matchColor.Printf("%s: covered\n", host)
			} else {
				mismatchColor.Printf("%s: not covered\n", host)
			}
		}
	}

	report()
	for {
		select {
		case <-ticker.C:
			report()
		case <-sigChan:
			return nil
		}
	}
}
