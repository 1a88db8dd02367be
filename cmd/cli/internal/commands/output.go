package commands

import (
	"github.com/fatih/color"

	"github.com/wolfeidau/reception/internal/models"
)

var (
	green  = color.New(color.FgGreen, color.Bold).SprintFunc()
	yellow = color.New(color.FgYellow, color.Bold).SprintFunc()
	red    = color.New(color.FgRed, color.Bold).SprintFunc()
	faint  = color.New(color.Faint).SprintFunc()
)

func statusLabel(state models.SessionState) string {
	switch state.Status {
	case models.StatusAuthenticated:
		return green("authenticated")
	case models.StatusAuthenticating:
		return yellow("authenticating")
	case models.StatusFailed:
		return red(state.String())
	default:
		return yellow("not logged in")
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
