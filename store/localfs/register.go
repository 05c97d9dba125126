package localfs

import (
	"fmt"

	"github.com/spf13/pflag"

	"xdao.co/support/store"
	"xdao.co/support/store/registry"
)

func init() {
	registry.MustRegister(registry.Backend{
		Name:        "localfs",
		Description: "Local filesystem ticket store (directory)",
		Usage:       registry.UsageCLI | registry.UsageDaemon,
		Bind: func(fs *pflag.FlagSet) registry.Opener {
			dir := fs.String("localfs-dir", "", "ticket directory (for --backend=localfs)")
			return func() (store.Store, func() error, error) {
				if *dir == "" {
					return nil, nil, fmt.Errorf("missing --localfs-dir")
				}
				s, err := New(*dir)
				return s, nil, err
			}
		},
	})
}
