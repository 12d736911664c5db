// Command hsm-sim runs the HSM command simulator: a TCP server that
// accepts Thales-style host-command frames and answers them under a
// process-wide Local Master Key.
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/yawning/hsm-sim/crypto"
	"github.com/yawning/hsm-sim/handlers"
	"github.com/yawning/hsm-sim/session"
)

// defaultLMKHex is the fixed demo LMK used when --key is not supplied,
// matching the end-to-end scenarios' literal key value.
const defaultLMKHex = "deafbeedeafbeedeafbeedeafbeedeaf"

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		port       int
		keyHex     string
		debug      bool
		skipParity bool
		approveAll bool
		maxConns   int
	)

	cmd := &cobra.Command{
		Use:   "hsm-sim",
		Short: "Thales-style HSM host-command simulator",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), runOptions{
				port:       port,
				keyHex:     keyHex,
				debug:      debug,
				skipParity: skipParity,
				approveAll: approveAll,
				maxConns:   maxConns,
			})
		},
	}

	cmd.Flags().IntVar(&port, "port", 1500, "TCP port to listen on")
	cmd.Flags().StringVar(&keyHex, "key", defaultLMKHex, "LMK, 16 bytes as hex")
	cmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging")
	cmd.Flags().BoolVar(&skipParity, "skip-parity", false, "treat every key parity check as passing")
	cmd.Flags().BoolVar(&approveAll, "approve-all", false, "report 00 instead of parity, PVK-length, PIN-format and verification failure codes; key-decode and missing-field errors still report 01")
	cmd.Flags().IntVar(&maxConns, "max-conns", 0, "limit simultaneously accepted connections (0 = unbounded)")

	return cmd
}

type runOptions struct {
	port       int
	keyHex     string
	debug      bool
	skipParity bool
	approveAll bool
	maxConns   int
}

func run(ctx context.Context, opts runOptions) error {
	level := zerolog.InfoLevel
	if opts.debug {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	clearLMK, err := hex.DecodeString(opts.keyHex)
	if err != nil {
		return fmt.Errorf("decode --key: %w", err)
	}
	lmk, err := crypto.NewLMK(clearLMK)
	if err != nil {
		return fmt.Errorf("build LMK: %w", err)
	}

	kcv, err := lmk.CheckValue(16)
	if err != nil {
		return fmt.Errorf("compute LMK check value: %w", err)
	}
	log.Info().Str("lmk_check_value", kcv).Str("firmware_version", "0007-E000").Msg("hsm-sim starting")

	hctx := &handlers.Context{
		LMK: lmk,
		Flags: handlers.Flags{
			SkipParity: opts.skipParity,
			ApproveAll: opts.approveAll,
		},
		Log: log,
	}

	addr := fmt.Sprintf(":%d", opts.port)
	ln, err := session.Listen(ctx, addr, opts.maxConns)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	pool := session.NewPool(runtime.GOMAXPROCS(0), hctx, log)
	defer pool.Close()

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-sigCtx.Done()
		log.Info().Msg("shutting down")
		ln.Close()
	}()

	log.Info().Int("port", opts.port).Msg("listening")
	if err := session.Serve(ln, pool, log); err != nil {
		if sigCtx.Err() != nil {
			return nil
		}
		return fmt.Errorf("accept loop: %w", err)
	}
	return nil
}
