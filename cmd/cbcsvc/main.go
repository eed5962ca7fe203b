// Command cbcsvc runs CompileService over gRPC: a long-lived compile server
// for callers that would rather send source over the wire than shell out to
// cbcc per invocation.
package main

import (
	"fmt"
	"net"
	"os"
	"strings"

	"google.golang.org/grpc"

	"github.com/funvibe/cbcjs/internal/cbcconfig"
	"github.com/funvibe/cbcjs/internal/cbccache"
	"github.com/funvibe/cbcjs/internal/cbcsvc"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			if os.Getenv("CBC_DEBUG") == "1" {
				panic(r)
			}
			fmt.Fprintf(os.Stderr, "internal error: %v\n", r)
			fmt.Fprintln(os.Stderr, "this is a bug, please report it")
			os.Exit(1)
		}
	}()

	addr := ":8085"
	var configPath, cachePath string
	for _, arg := range os.Args[1:] {
		switch {
		case strings.HasPrefix(arg, "-addr="):
			addr = strings.TrimPrefix(arg, "-addr=")
		case strings.HasPrefix(arg, "--addr="):
			addr = strings.TrimPrefix(arg, "--addr=")
		case strings.HasPrefix(arg, "-config="):
			configPath = strings.TrimPrefix(arg, "-config=")
		case strings.HasPrefix(arg, "--config="):
			configPath = strings.TrimPrefix(arg, "--config=")
		case strings.HasPrefix(arg, "-cache="):
			cachePath = strings.TrimPrefix(arg, "-cache=")
		case strings.HasPrefix(arg, "--cache="):
			cachePath = strings.TrimPrefix(arg, "--cache=")
		}
	}

	cfg := cbcconfig.Default()
	if configPath != "" {
		loaded, err := cbcconfig.Load(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error loading config: %s\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	var cache *cbccache.Cache
	if cachePath != "" {
		opened, err := cbccache.Open(cachePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error opening cache: %s\n", err)
			os.Exit(1)
		}
		defer opened.Close()
		cache = opened
	}

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error listening on %s: %s\n", addr, err)
		os.Exit(1)
	}

	srv := cbcsvc.NewServer(cfg, cache)
	srv.Logf = func(format string, args ...any) {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}

	gs := grpc.NewServer()
	cbcsvc.Register(gs, srv)

	fmt.Fprintf(os.Stderr, "cbcsvc listening on %s\n", addr)
	if err := gs.Serve(lis); err != nil {
		fmt.Fprintf(os.Stderr, "serve error: %s\n", err)
		os.Exit(1)
	}
}
