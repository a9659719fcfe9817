// cmd/preflight/main.go
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/hamed0406/apicanary/internal/probe"
)

func main() {
	failed := false
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		failed = true
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }
	env := func(k string) string { return strings.TrimSpace(os.Getenv(k)) }

	endpoint := env("API_ENDPOINT")
	if endpoint == "" {
		fail("API_ENDPOINT is empty (every run will fail with a config error).")
	} else if t, err := probe.ParseTarget(endpoint); err != nil {
		fail("API_ENDPOINT invalid: " + err.Error())
	} else {
		ok(fmt.Sprintf("API_ENDPOINT=%s (host %s, port %d)", endpoint, t.Host, t.Port))
	}

	if v := env("EXPECTED_STATUS"); v != "" {
		if n, err := strconv.Atoi(v); err != nil || n < 100 || n > 599 {
			fail("EXPECTED_STATUS must be an HTTP status code, got " + strconv.Quote(v))
		}
	}

	for _, k := range []string{"PROJECT_NAME", "ENVIRONMENT"} {
		if env(k) == "" {
			warn(k + " is empty; metrics and headers will say \"unknown\".")
		}
	}

	if spec := env("SCHEDULE"); spec != "" {
		if _, err := cron.ParseStandard(spec); err != nil {
			fail("SCHEDULE invalid: " + err.Error())
		} else {
			ok("SCHEDULE=" + spec)
		}
	}

	db := env("DATABASE_URL")
	switch {
	case db == "":
		warn("DATABASE_URL empty: run history and alert state live in memory only.")
	case strings.HasPrefix(db, "postgres://"), strings.HasPrefix(db, "postgresql://"),
		strings.HasPrefix(db, "sqlite://"), strings.HasSuffix(db, ".db"):
		ok("DATABASE_URL present")
	default:
		fail("DATABASE_URL scheme not supported (postgres://, sqlite://).")
	}

	influx := []string{env("INFLUX_URL"), env("INFLUX_TOKEN"), env("INFLUX_ORG"), env("INFLUX_BUCKET")}
	set := 0
	for _, v := range influx {
		if v != "" {
			set++
		}
	}
	if set != 0 && set != len(influx) {
		fail("INFLUX_URL, INFLUX_TOKEN, INFLUX_ORG and INFLUX_BUCKET must be set together.")
	}

	if env("SLACK_WEBHOOK_URL") == "" {
		warn("SLACK_WEBHOOK_URL empty: failures will not be announced.")
	}
	if env("ADMIN_API_KEYS") == "" {
		warn("ADMIN_API_KEYS empty: anyone reaching the API can trigger runs.")
	}

	if failed {
		os.Exit(1)
	}
	ok("preflight passed")
}
