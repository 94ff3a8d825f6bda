package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"strings"

	"github.com/goccy/go-json"
)

func collectForCLI[T any](seq iter.Seq2[*T, error], marshal func(*T) ([]byte, error)) ([][]byte, error) {
	var results [][]byte
	for value, err := range seq {
		if err != nil {
			return nil, err
		}
		data, err := marshal(value)
		if err != nil {
			return nil, err
		}
		results = append(results, data)
	}
	return results, nil
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func printJSONArray(w io.Writer, entries [][]byte) error {
	if _, err := fmt.Fprintln(w, "["); err != nil {
		return err
	}
	for i, entry := range entries {
		if i > 0 {
			if _, err := fmt.Fprintln(w, ","); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w, string(entry)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "]")
	return err
}

const interactivePageSize = 10

// printJSONArrayInteractive streams seq and asks on stderr before each
// further batch of interactivePageSize entries. Typing q stops the listing.
func printJSONArrayInteractive[T any](w io.Writer, in io.Reader, seq iter.Seq2[*T, error], marshal func(*T) ([]byte, error)) error {
	if _, err := fmt.Fprintln(w, "["); err != nil {
		return err
	}
	reader := bufio.NewReader(in)

	var iterErr error
	processed := 0
	for value, err := range seq {
		if err != nil {
			iterErr = err
			break
		}
		data, err := marshal(value)
		if err != nil {
			iterErr = err
			break
		}
		if processed > 0 {
			if _, err := fmt.Fprintln(w, ","); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w, string(data)); err != nil {
			return err
		}
		processed++

		if processed%interactivePageSize != 0 {
			continue
		}
		fmt.Fprint(os.Stderr, "Press Enter to continue, or type 'q' to quit: ")
		input, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			iterErr = err
			break
		}
		if strings.EqualFold(strings.TrimSpace(input), "q") {
			break
		}
	}

	if _, err := fmt.Fprintln(w, "]"); err != nil && iterErr == nil {
		iterErr = err
	}
	return iterErr
}

// readPayload reads a JSON document from path, or from stdin when path is
// "-".
func readPayload(path string, stdin io.Reader) (json.RawMessage, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("read payload: %s is not valid JSON", path)
	}
	return data, nil
}
