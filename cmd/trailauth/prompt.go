package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// prompter reads answers line by line from the terminal.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewReader(in), out: out}
}

// ask prints label and returns the trimmed reply. EOF with no input yields "".
func (p *prompter) ask(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	line, err := p.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// askIfEmpty only prompts when value was not supplied as a flag.
func (p *prompter) askIfEmpty(value *string, label string) error {
	if *value != "" {
		return nil
	}
	answer, err := p.ask(label)
	if err != nil {
		return err
	}
	*value = answer
	return nil
}
