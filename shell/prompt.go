// Package shell holds the interactive add-macro and edit-settings prompts.
package shell

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// prompter reads answers line by line.
type prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewScanner(in), out: out}
}

func (p *prompter) printf(format string, args ...any) {
	fmt.Fprintf(p.out, format, args...)
}

// ask prints question and returns the trimmed answer. io.EOF is returned
// when input ends.
func (p *prompter) ask(question string) (string, error) {
	fmt.Fprint(p.out, question)
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(p.in.Text()), nil
}

// confirm asks a [Y/n] question; an empty answer means yes.
func (p *prompter) confirm(question string) (bool, error) {
	answer, err := p.ask(question)
	if err != nil {
		return false, err
	}
	return answer == "" || answer == "Y" || answer == "y", nil
}

// choose asks for a 1-based menu selection. ok is false when the answer is
// not a number or out of range.
func (p *prompter) choose(question string, n int) (idx int, ok bool, err error) {
	answer, err := p.ask(question)
	if err != nil {
		return 0, false, err
	}
	sel, convErr := strconv.Atoi(answer)
	if convErr != nil {
		p.printf("Exiting...\n")
		return 0, false, nil
	}
	if sel < 1 || sel > n {
		p.printf("Input out of range, exiting...\n")
		return 0, false, nil
	}
	return sel - 1, true, nil
}
