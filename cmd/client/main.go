package main

import (
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"time"
)

// -----------------------------------------------------------------------------

const dialTimeout = 5 * time.Second

// -----------------------------------------------------------------------------

func main() {
	serverAddr := flag.String("server", "127.0.0.1:8000", "command server address")
	price := flag.String("price", "", "query last known prices as of the given time")
	signalAt := flag.String("signal", "", "query trading signals as of the given time")
	add := flag.String("add", "", "start tracking a ticker")
	del := flag.String("delete", "", "stop tracking a ticker")
	reset := flag.Bool("reset", false, "refetch history for every tracked ticker")
	flag.Parse()

	line, err := buildRequest(*price, *signalAt, *add, *del, *reset)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		flag.Usage()
		os.Exit(2)
	}

	response, err := send(*serverAddr, line)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Print(response)
}

// -----------------------------------------------------------------------------

// buildRequest maps the flags onto one wire-format request line. Exactly
// one command flag must be set.
func buildRequest(price, signalAt, add, del string, reset bool) (string, error) {
	var lines []string
	if price != "" {
		lines = append(lines, "price,"+price)
	}
	if signalAt != "" {
		lines = append(lines, "signal,"+signalAt)
	}
	if add != "" {
		lines = append(lines, "add,"+add)
	}
	if del != "" {
		lines = append(lines, "delete,"+del)
	}
	if reset {
		lines = append(lines, "reset")
	}

	switch len(lines) {
	case 0:
		return "", fmt.Errorf("no command given")
	case 1:
		return lines[0] + "\n", nil
	default:
		return "", fmt.Errorf("exactly one command flag may be set")
	}
}

// -----------------------------------------------------------------------------

// send writes one request and reads the full response. The server closes
// the connection after answering, so reading to EOF is the framing.
func send(addr, line string) (string, error) {
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return "", fmt.Errorf("cannot reach server at %s: %w", addr, err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(dialTimeout))
	if _, err := conn.Write([]byte(line)); err != nil {
		return "", fmt.Errorf("write failed: %w", err)
	}
	data, err := io.ReadAll(conn)
	if err != nil {
		return "", fmt.Errorf("read failed: %w", err)
	}
	return string(data), nil
}
