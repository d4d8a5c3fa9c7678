package validator

import (
	"errors"
	"fmt"
	"time"

	probing "github.com/prometheus-community/pro-bing"
)

const pingTimeout = 2 * time.Second

var errNoResponse = errors.New("no response")

// checkHost resolves host and, when ping is set, sends a single unprivileged
// echo request.
func checkHost(host string, ping bool) error {
	pinger, err := probing.NewPinger(host)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", host, err)
	}
	if !ping {
		return nil
	}

	pinger.Count = 1
	pinger.Timeout = pingTimeout
	pinger.SetPrivileged(false)
	if err := pinger.Run(); err != nil {
		return fmt.Errorf("ping %s: %w", host, err)
	}
	if pinger.Statistics().PacketsRecv == 0 {
		return fmt.Errorf("ping %s: %w", host, errNoResponse)
	}
	return nil
}
