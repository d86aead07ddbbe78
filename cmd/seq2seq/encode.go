package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/born-ml/seq2seq/internal/tokenizer"
)

// runEncode tokenizes every line of --input and writes one id sequence per
// line to --output, as JSON arrays or, with --text-out, space separated.
func runEncode(args []string) error {
	fs := flag.NewFlagSet("encode", flag.ExitOnError)
	input := fs.String("input", "", "Text file, one sentence per line (required)")
	output := fs.String("output", "", "Output file (required)")
	model := fs.String("model", "", "tokenizer.json, directory holding one, or tiktoken encoding (required)")
	textOut := fs.Bool("text-out", false, "Write space-separated ids instead of JSON lines")
	bosEos := fs.Bool("bos-eos", false, "Wrap every sequence in BOS and EOS")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *input == "" || *output == "" || *model == "" {
		fs.Usage()
		return errors.New("--input, --output and --model are required")
	}

	tok, err := tokenizer.Load(*model, tokenizer.WithBosEos(*bosEos))
	if err != nil {
		return err
	}

	in, err := os.Open(*input)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer in.Close()

	out, err := os.Create(*output)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}

	n, err := encodeLines(tok, in, out, *textOut)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}
	log.Printf("encoded %d lines into %s", n, *output)
	return nil
}

func encodeLines(tok tokenizer.Tokenizer, r io.Reader, w io.Writer, textOut bool) (int, error) {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	n := 0
	for scanner.Scan() {
		ids, err := tok.Encode(strings.TrimSpace(scanner.Text()))
		if err != nil {
			return n, fmt.Errorf("line %d: %w", n+1, err)
		}

		if textOut {
			err = writeIDs(bw, ids)
		} else {
			err = enc.Encode(ids)
		}
		if err != nil {
			return n, err
		}
		n++
	}
	if err := scanner.Err(); err != nil {
		return n, fmt.Errorf("failed to read input: %w", err)
	}
	return n, bw.Flush()
}

func writeIDs(w *bufio.Writer, ids []int32) error {
	for i, id := range ids {
		if i > 0 {
			if err := w.WriteByte(' '); err != nil {
				return err
			}
		}
		if _, err := w.WriteString(strconv.Itoa(int(id))); err != nil {
			return err
		}
	}
	return w.WriteByte('\n')
}
