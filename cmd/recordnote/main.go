package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ReliveRS/RecordNote/pkg/recordnote"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := recordnote.Main(ctx, os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}
