package api

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// ConsoleUI prints every prompt and review page to Out and answers them all
// with Approve. Pages are recorded for later inspection.
type ConsoleUI struct {
	Out     io.Writer
	Approve bool

	mu    sync.Mutex
	pages []string
}

// Confirm implements signing.UI.
func (u *ConsoleUI) Confirm(ctx context.Context, message string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	u.record(message)
	u.printf("? %s [%s]\n", message, u.answer())
	return u.Approve, nil
}

// ScrollPage implements signing.UI.
func (u *ConsoleUI) ScrollPage(ctx context.Context, title, body string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	u.record(title + ": " + body)
	u.printf("  %s\n", title)
	for _, line := range strings.Split(body, "\n") {
		u.printf("    %s\n", line)
	}
	return u.Approve, nil
}

// Pages returns what was shown so far.
func (u *ConsoleUI) Pages() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.pages...)
}

func (u *ConsoleUI) record(s string) {
	u.mu.Lock()
	u.pages = append(u.pages, s)
	u.mu.Unlock()
}

func (u *ConsoleUI) answer() string {
	if u.Approve {
		return "approved"
	}
	return "rejected"
}

func (u *ConsoleUI) printf(format string, args ...any) {
	if u.Out != nil {
		fmt.Fprintf(u.Out, format, args...)
	}
}
