// Command alarmctl is the CLI client for alarmd's command front-end:
// invoked with a command flag it issues one HTTP request and exits;
// invoked bare it prompts in a loop. Grounded in
// original_source/src/alarm/command.py and
// original_source/src/alarm/__main__.py.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"
)

// command is one supported CLI command: a single-letter mnemonic, the
// event name it queues, and its help text.
type command struct {
	letter      string
	eventName   string
	description string
}

var commands = []command{
	{"d", "DayArm", "Day arm"},
	{"q", "Quit", "Quit"},
	{"e", "Leave", "lEave"},
	{"i", "Disarm", "dIsarm"},
	{"a", "Arm", "Arm"},
}

var camelBoundary = regexp.MustCompile(`([a-z0-9])([A-Z])`)

// cliName converts an event name from CamelCase to kebab-case for use
// as a long flag, e.g. "DayArm" -> "day-arm".
func cliName(eventName string) string {
	return strings.ToLower(camelBoundary.ReplaceAllString(eventName, "${1}-${2}"))
}

func main() {
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "alarmctl: %v\n", err)
		os.Exit(1)
	}
}

func run(stdout io.Writer, args []string) error {
	fs := flag.NewFlagSet("alarmctl", flag.ContinueOnError)
	addr := fs.String("addr", "localhost:5000", "address of the alarm daemon's command front-end")
	flags := make(map[string]*bool, len(commands))
	for _, c := range commands {
		b := fs.Bool(cliName(c.eventName), false, c.description)
		flags[c.letter] = b
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	var selected *command
	for i := range commands {
		if *flags[commands[i].letter] {
			selected = &commands[i]
			break
		}
	}

	client := &http.Client{Timeout: 5 * time.Second}
	if selected != nil {
		return issueCommand(client, *addr, *selected)
	}
	return shell(stdout, client, *addr)
}

func issueCommand(client *http.Client, addr string, c command) error {
	url := fmt.Sprintf("http://%s/cmd/%s", addr, c.eventName)
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("request error: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request error: daemon returned %s", resp.Status)
	}
	return nil
}

func shellHelp(stdout io.Writer) {
	fmt.Fprintln(stdout, "Valid commands are:")
	fmt.Fprintln(stdout, "x: eXit this command line interface")
	for _, c := range commands {
		fmt.Fprintf(stdout, "%s: %s\n", c.letter, c.description)
	}
}

func shell(stdout io.Writer, client *http.Client, addr string) error {
	shellHelp(stdout)
	byLetter := make(map[string]command, len(commands))
	for _, c := range commands {
		byLetter[c.letter] = c
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Fprint(stdout, "Enter remote command: ")
		if !scanner.Scan() {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		letter := line[:1]
		if letter == "x" {
			return nil
		}
		c, ok := byLetter[letter]
		if !ok {
			shellHelp(stdout)
			continue
		}
		if err := issueCommand(client, addr, c); err != nil {
			fmt.Fprintln(stdout, err)
		}
	}
}
