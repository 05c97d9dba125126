package rpc

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"xdao.co/support/store"
	"xdao.co/support/store/registry"
)

func init() {
	registry.MustRegister(registry.Backend{
		Name:        "grpc",
		Description: "Remote support daemon (tickets are submitted to its pool)",
		Usage:       registry.UsageCLI | registry.UsageDaemon,
		Bind: func(fs *pflag.FlagSet) registry.Opener {
			target := fs.String("grpc-target", "", "daemon address host:port (for --backend=grpc)")
			timeout := fs.Duration("grpc-timeout", 10*time.Second, "per-call timeout (for --backend=grpc)")
			maxMsg := fs.Int("grpc-max-msg-bytes", 0, "max gRPC message size in bytes; 0 uses grpc defaults")
			return func() (store.Store, func() error, error) {
				t := strings.TrimSpace(*target)
				if t == "" {
					return nil, nil, fmt.Errorf("missing --grpc-target")
				}
				c, err := Dial(t, DialOptions{MaxMsgBytes: *maxMsg})
				if err != nil {
					return nil, nil, err
				}
				c.Timeout = *timeout
				return c, c.Close, nil
			}
		},
	})
}
