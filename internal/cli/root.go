package cli

import (
	stdcontext "context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Paintersrp/cryo/internal/config"
)

func NewRootCmd() *cobra.Command {
	root, _ := newRootCommand()
	return root
}

func newRootCommand() (*cobra.Command, *context) {
	var manifestFile string
	var addr string

	root := &cobra.Command{
		Use:   "cryo",
		Short: "Hierarchical process-group freeze coordinator",
	}

	root.PersistentFlags().
		StringVarP(&manifestFile, "file", "f", "cryo.yaml", "Path to hierarchy manifest")
	root.PersistentFlags().
		StringVar(&addr, "addr", "", "Address of a running cryo daemon")

	ctx := &context{manifestFile: &manifestFile, addr: &addr}
	root.AddCommand(newUpCmd(ctx))
	root.AddCommand(newFreezeCmd(ctx))
	root.AddCommand(newThawCmd(ctx))
	root.AddCommand(newStatusCmd(ctx))
	root.AddCommand(newTreeCmd(ctx))
	root.AddCommand(newWatchCmd(ctx))
	root.AddCommand(newUICmd(ctx))
	root.AddCommand(newConfigCmd())

	root.SilenceUsage = true
	root.SilenceErrors = true

	return root, ctx
}

// Execute runs the CLI entrypoint.
func Execute() {
	ctx, stop := signal.NotifyContext(stdcontext.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd()
	root.SetContext(ctx)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type context struct {
	manifestFile *string
	addr         *string

	mu     sync.RWMutex
	daemon *daemon
}

func (c *context) loadManifest() (*config.Manifest, error) {
	return config.Load(*c.manifestFile)
}

func (c *context) setDaemon(d *daemon) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.daemon = d
}

func (c *context) clearDaemon(d *daemon) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.daemon == d {
		c.daemon = nil
	}
}

func (c *context) currentDaemon() *daemon {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.daemon
}
