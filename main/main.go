// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/contractvm/nft"
	"github.com/ava-labs/contractvm/resolver"
	"github.com/ava-labs/contractvm/sandbox"
	"github.com/ava-labs/contractvm/vmcontext"
)

const shutdownTimeout = 5 * time.Second

func main() {
	v, err := getViper(os.Args[1:])
	if err != nil {
		fmt.Printf("couldn't get config: %s\n", err)
		os.Exit(1)
	}
	// Print version and exit
	if PrintVersion(v) {
		fmt.Printf("%s@%s\n", sandbox.Name, sandbox.Version)
		os.Exit(0)
	}

	c, err := getConfig(v)
	if err != nil {
		fmt.Printf("couldn't get config: %s\n", err)
		os.Exit(1)
	}
	lvl, err := log.LvlFromString(c.logLevel)
	if err != nil {
		fmt.Printf("couldn't parse log level: %s\n", err)
		os.Exit(1)
	}
	log.Root().SetHandler(log.LvlFilterHandler(lvl, log.StreamHandler(os.Stderr, log.TerminalFormat())))

	if err := run(c); err != nil {
		log.Error("sandbox stopped", "err", err)
		os.Exit(1)
	}
}

func run(c config) error {
	registry := prometheus.NewRegistry()
	r, err := resolver.New(
		resolver.WithConfig(c.host),
		resolver.WithRegisterer(registry),
		resolver.WithLogger(log.New("module", "resolver")),
	)
	if err != nil {
		return err
	}
	defer r.Close()

	sb := sandbox.New(r, nft.Contract, nft.Receiver)
	sb.SetLogger(log.New("module", sandbox.Name))
	if c.trace {
		sb.SetTrace(os.Stdout)
	}
	genesis := make([]resolver.GenesisAccount, vmcontext.NumAccounts())
	for i := range genesis {
		genesis[i] = resolver.GenesisAccount{
			ID:      vmcontext.Accounts(i),
			Balance: vmcontext.NearTokens(c.genesisBalance),
		}
	}
	if err := sb.Genesis(genesis); err != nil {
		return err
	}

	handler, err := sb.Handler()
	if err != nil {
		return fmt.Errorf("couldn't create the %s handler: %w", sandbox.Name, err)
	}
	mux := http.NewServeMux()
	mux.Handle(sandbox.Endpoint, handler)
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:    net.JoinHostPort(c.httpHost, strconv.FormatUint(uint64(c.httpPort), 10)),
		Handler: mux,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errs := make(chan error, 1)
	go func() {
		log.Info("serving sandbox", "version", sandbox.Version, "addr", server.Addr)
		errs <- server.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down sandbox")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errs; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
