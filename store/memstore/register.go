package memstore

import (
	"github.com/spf13/pflag"

	"xdao.co/support/store"
	"xdao.co/support/store/registry"
)

func init() {
	registry.MustRegister(registry.Backend{
		Name:        "memory",
		Description: "In-process ticket store (lost on exit)",
		Usage:       registry.UsageDaemon,
		Bind: func(*pflag.FlagSet) registry.Opener {
			return func() (store.Store, func() error, error) {
				return New(), nil, nil
			}
		},
	})
}
