package main

import (
	"context"
	"log"
)

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Fatalf("datatree: %v", err)
	}
}
