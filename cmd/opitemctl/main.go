// Command opitemctl browses, submits and moderates items of an OP Item DB server.
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	holder := &appHolder{}
	ctx := context.WithValue(context.Background(), appKey{}, holder)

	err := rootCmd().ExecuteContext(ctx)
	holder.close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
