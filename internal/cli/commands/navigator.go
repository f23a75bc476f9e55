package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/pixelflare/studio/internal/gateway"
	"github.com/pixelflare/studio/internal/session"
)

// TerminalNavigator tracks the client's location like a browser history and
// tells the user which command leads there when a redirect happens.
type TerminalNavigator struct {
	*gateway.HistoryNavigator
	out io.Writer
}

func NewTerminalNavigator(out io.Writer) *TerminalNavigator {
	return &TerminalNavigator{HistoryNavigator: gateway.NewHistoryNavigator("/"), out: out}
}

func (n *TerminalNavigator) Navigate(path string) {
	n.HistoryNavigator.Navigate(path)

	switch {
	case strings.HasPrefix(path, gateway.LoginPath):
		fmt.Fprintln(n.out, "Your session has ended. Run 'studio login' to sign in again.")
	case path == gateway.AdminVerifyPath:
		fmt.Fprintln(n.out, "Admin verification required. Run 'studio admin verify'.")
	case path == session.DashboardPath, path == session.AdminDashboardPath:
		// Landing pages after a successful sign-in; commands print their own summary.
	default:
		fmt.Fprintf(n.out, "→ %s\n", path)
	}
}
