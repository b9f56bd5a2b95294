package telegram

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var errUsage = errors.New("usage")

// commandArgs returns the whitespace separated words after the command
func commandArgs(text string) []string {
	fields := strings.Fields(text)
	if len(fields) <= 1 {
		return nil
	}
	return fields[1:]
}

// startParam returns the deep link payload of a /start message
func startParam(text string) string {
	args := commandArgs(text)
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// premiumGrant is a parsed /add_premium request
type premiumGrant struct {
	UserID int64
	Amount int
	Days   bool
}

func (g premiumGrant) String() string {
	unit := "month"
	if g.Days {
		unit = "day"
	}
	if g.Amount != 1 {
		unit += "s"
	}
	return fmt.Sprintf("%d %s", g.Amount, unit)
}

// parsePremiumArgs parses "<uid> [n] [d|day|days]". n defaults to one month.
func parsePremiumArgs(args []string) (premiumGrant, error) {
	if len(args) == 0 || len(args) > 3 {
		return premiumGrant{}, errUsage
	}

	uid, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return premiumGrant{}, fmt.Errorf("invalid user id %q", args[0])
	}

	g := premiumGrant{UserID: uid, Amount: 1}
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return premiumGrant{}, fmt.Errorf("invalid duration %q", args[1])
		}
		g.Amount = n
	}
	if len(args) > 2 {
		switch strings.ToLower(args[2]) {
		case "d", "day", "days":
			g.Days = true
		case "m", "month", "months":
		default:
			return premiumGrant{}, fmt.Errorf("unknown unit %q", args[2])
		}
	}
	if g.Amount <= 0 {
		return premiumGrant{}, errors.New("duration must be a positive number")
	}
	return g, nil
}

// parseDuration parses a quick duration button value such as "7d" or "3m"
func parseDuration(s string) (premiumGrant, error) {
	if len(s) < 2 {
		return premiumGrant{}, errUsage
	}
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n <= 0 {
		return premiumGrant{}, errUsage
	}
	switch s[len(s)-1] {
	case 'd':
		return premiumGrant{Amount: n, Days: true}, nil
	case 'm':
		return premiumGrant{Amount: n}, nil
	}
	return premiumGrant{}, errUsage
}

// parseChannelArgs parses "<channel_id> [name...]"
func parseChannelArgs(args []string) (int64, string, error) {
	if len(args) == 0 {
		return 0, "", errUsage
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("invalid channel id %q", args[0])
	}
	return id, strings.Join(args[1:], " "), nil
}

func parseUserID(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, errUsage
	}
	return strconv.ParseInt(args[0], 10, 64)
}
