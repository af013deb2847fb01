// Command blogkb builds the blog knowledge base and answers questions about
// the blog collection.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
