// Command knip runs the project-graph resolver and issue classifier
// end to end: enumerate workspaces, collect project files, run plugins,
// seed entries, build the module graph, attribute dependencies and
// binaries, and classify the six issue categories (spec.md §2).
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		log.Println("interrupted, discarding partial results")
		cancel()
	}()

	code, err := run(ctx, os.Args[1:])
	if err != nil {
		log.Printf("knip: %v", err)
		if code == 0 {
			code = 2
		}
	}
	os.Exit(code)
}
