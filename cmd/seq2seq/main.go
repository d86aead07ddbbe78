// Package main provides the seq2seq command line tool.
package main

import (
	"fmt"
	"log"
	"os"
)

const version = "v0.1.0-dev"

func usage() {
	fmt.Println("seq2seq - encoder-decoder Transformer")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version    Show version")
	fmt.Println("  encode     Convert text lines to token ids")
	fmt.Println("  forward    Run one forward pass over a source/target pair")
	fmt.Println("  params     List model parameters, optionally saving them")
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("seq2seq: ")

	if len(os.Args) < 2 {
		usage()
		return
	}

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "version":
		fmt.Printf("seq2seq %s\n", version)
	case "encode":
		err = runEncode(args)
	case "forward":
		err = runForward(args)
	case "params":
		err = runParams(args)
	case "help", "-h", "--help":
		usage()
	default:
		usage()
		log.Fatalf("unknown command %q", cmd)
	}
	if err != nil {
		log.Fatalf("%s: %v", os.Args[1], err)
	}
}
