package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	dirhash "github.com/mattkeenan/dirhash/pkg"
)

// setupSignalHandler returns a channel that is closed when SIGINT or SIGTERM arrives
func setupSignalHandler() <-chan struct{} {
	shutdown := make(chan struct{})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		fmt.Fprintf(os.Stderr, "\nReceived signal: %v\n", sig)
		signal.Stop(sigChan)
		close(shutdown)
	}()

	return shutdown
}

// exitOnShutdown terminates the process once shutdown is closed. The store is only
// replaced by rename, so the previous one survives; purge deletions are not undone.
func exitOnShutdown(shutdown <-chan struct{}) {
	<-shutdown
	fmt.Fprintf(os.Stderr, "Interrupted, %s left unchanged\n", dirhash.StoreFileName)
	os.Exit(130)
}
