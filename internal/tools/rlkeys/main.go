// Command rlkeys lists the rate limit windows held in Redis and can reset them,
// e.g. to unblock a client IP after an incident.
//
//	go run ./internal/tools/rlkeys -scope otp -subject 203.0.113.9 -del
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "identity:rl:"

type options struct {
	scope   string
	subject string
	del     bool
	count   int64
	timeout time.Duration
}

func (o options) pattern() string {
	scope, subject := o.scope, o.subject
	if scope == "" {
		scope = "*"
	}
	if subject == "" {
		subject = "*"
	}
	return keyPrefix + scope + ":" + subject
}

func main() {
	var (
		addr = flag.String("addr", "127.0.0.1:6379", "redis address host:port")
		pass = flag.String("pass", "", "redis password")
		db   = flag.Int("db", 0, "redis db")
		o    options
	)
	flag.StringVar(&o.scope, "scope", "", "limit scope (auth, otp); empty matches all")
	flag.StringVar(&o.subject, "subject", "", "client IP; empty matches all")
	flag.BoolVar(&o.del, "del", false, "delete matched windows")
	flag.Int64Var(&o.count, "count", 200, "SCAN COUNT hint")
	flag.DurationVar(&o.timeout, "timeout", 2*time.Second, "per-command timeout")
	flag.Parse()

	rdb := goredis.NewClient(&goredis.Options{Addr: *addr, Password: *pass, DB: *db})
	defer rdb.Close()

	ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
	err := rdb.Ping(ctx).Err()
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "redis ping failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Connected: addr=%s db=%d pattern=%q\n", *addr, *db, o.pattern())
	if _, err := run(context.Background(), rdb, o, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// run prints every matching window and returns how many matched.
func run(ctx context.Context, rdb *goredis.Client, o options, out io.Writer) (int, error) {
	var cursor uint64
	total := 0

	for {
		scanCtx, cancel := context.WithTimeout(ctx, o.timeout)
		keys, next, err := rdb.Scan(scanCtx, cursor, o.pattern(), o.count).Result()
		cancel()
		if err != nil {
			return total, fmt.Errorf("SCAN error: %w", err)
		}

		for _, k := range keys {
			total++
			cmdCtx, cancel := context.WithTimeout(ctx, o.timeout)
			hits, _ := rdb.Get(cmdCtx, k).Result() // key may expire between SCAN and GET
			ttl, _ := rdb.PTTL(cmdCtx, k).Result()
			cancel()

			fmt.Fprintf(out, "%d) %s hits=%s reset_in=%s\n", total, k, hits, ttl.Round(time.Millisecond))

			if o.del {
				delCtx, cancel := context.WithTimeout(ctx, o.timeout)
				n, err := rdb.Del(delCtx, k).Result()
				cancel()
				if err != nil {
					fmt.Fprintf(out, "   DEL error: %v\n", err)
				} else {
					fmt.Fprintf(out, "   DEL ok: %d\n", n)
				}
			}
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	if total == 0 {
		fmt.Fprintln(out, "No windows matched.")
	}
	return total, nil
}
