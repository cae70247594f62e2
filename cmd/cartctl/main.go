package main

import (
	"os"

	"github.com/niksmo/storefront/pkg/sigctx"
)

func main() {
	ctx, cancel := sigctx.NotifyContext()
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
