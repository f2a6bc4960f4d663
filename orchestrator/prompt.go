package orchestrator

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"moodle-scraper/moodle"
)

// PrintCourses writes the numbered course menu.
func PrintCourses(w io.Writer, courses []moodle.Course) {
	fmt.Fprintln(w, "Available Courses:")
	for i, c := range courses {
		fmt.Fprintf(w, "%d. %s - %s\n", i+1, c.ShortName, c.FullName)
	}
	fmt.Fprintln(w, "0. Download all courses")
}

// Prompt prints the menu and reads one choice from in.
func Prompt(in io.Reader, out io.Writer, courses []moodle.Course) (int, error) {
	PrintCourses(out, courses)
	fmt.Fprint(out, "Enter the number of the course you want to download (or 0 for all): ")

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return 0, errors.Wrap(err, "reading course choice")
	}

	choice, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidChoice, "%q is not a number", strings.TrimSpace(line))
	}
	return choice, nil
}
