package nats

import (
	"fmt"
	"os"
	"sync"

	natsgo "github.com/nats-io/nats.go"
)

// URLEnv names the variable ConnectDefault reads the server URL from. It
// matches the daemon's flag environment.
const URLEnv = "LOANACTOR_NATS_URL"

type closeFunc = func()

// Connector dials NATS. The returned close func releases the connection.
type Connector func() (nc *natsgo.Conn, close closeFunc, err error)

// ReuseConnection shares one connection between the snapshot store and the
// event publisher. The connection is closed when the last lease is
// released and redialed on the next call. Each lease closes at most once.
func ReuseConnection(connect Connector) Connector {
	var (
		mu       sync.Mutex
		nc       *natsgo.Conn
		closeCon closeFunc
		leases   int
	)
	release := func() {
		mu.Lock()
		defer mu.Unlock()
		leases--
		if leases == 0 && closeCon != nil {
			closeCon()
			nc, closeCon = nil, nil
		}
	}
	return func() (*natsgo.Conn, closeFunc, error) {
		mu.Lock()
		defer mu.Unlock()
		if closeCon == nil {
			conn, c, err := connect()
			if err != nil {
				return nil, nil, err
			}
			nc, closeCon = conn, c
		}
		leases++
		return nc, sync.OnceFunc(release), nil
	}
}

// ConnectURL dials url as a named loanactor client.
func ConnectURL(url string) Connector {
	return func() (*natsgo.Conn, closeFunc, error) {
		nc, err := natsgo.Connect(url,
			natsgo.Name("loanactor"),
			natsgo.MaxReconnects(3),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("connect %s: %w", url, err)
		}
		return nc, nc.Close, nil
	}
}

// DefaultURL returns the URL from URLEnv, falling back to the local server.
func DefaultURL() string {
	if url := os.Getenv(URLEnv); url != "" {
		return url
	}
	return natsgo.DefaultURL
}

func ConnectDefault() Connector { return ConnectURL(DefaultURL()) }
