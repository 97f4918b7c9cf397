package shared

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"
)

// ExpandPath resolves a leading `~` or `~name` and returns an absolute,
// cleaned path.
func ExpandPath(fpath string) (string, error) {
	if strings.HasPrefix(fpath, "~") {
		rest := fpath[1:]
		name := rest
		if idx := strings.IndexRune(rest, filepath.Separator); idx >= 0 {
			name = rest[:idx]
			rest = rest[idx:]
		} else {
			rest = ""
		}

		var home string
		if name == "" {
			dir, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			home = dir
		} else {
			usr, err := user.Lookup(name)
			if err != nil {
				return "", err
			}
			home = usr.HomeDir
		}
		fpath = home + rest
	}

	return filepath.Abs(fpath)
}

const solarYearSecs = 31556926

func TimeAgo(t *time.Time) string {
	if t == nil {
		return "never"
	}
	d := time.Since(*t)
	var metric string
	var amount int
	if d.Seconds() < 60 {
		amount = int(d.Seconds())
		metric = "second"
	} else if d.Minutes() < 60 {
		amount = int(d.Minutes())
		metric = "minute"
	} else if d.Hours() < 24 {
		amount = int(d.Hours())
		metric = "hour"
	} else if d.Seconds() < solarYearSecs {
		amount = int(d.Hours()) / 24
		metric = "day"
	} else {
		amount = int(d.Seconds()) / solarYearSecs
		metric = "year"
	}
	if amount == 1 {
		return fmt.Sprintf("%d %s ago", amount, metric)
	} else {
		return fmt.Sprintf("%d %ss ago", amount, metric)
	}
}
