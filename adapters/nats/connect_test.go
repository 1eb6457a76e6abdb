package nats

import (
	"errors"
	"testing"

	natsgo "github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"
)

func TestNats_Connect(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}
	connect := ReuseConnection(NewTestContainer(t))
	nc1, disconnect1, err := connect()
	require.NoError(t, err)
	require.NotNil(t, nc1)
	require.Equal(t, "CONNECTED", nc1.Status().String())

	nc2, disconnect2, err := connect()
	require.NoError(t, err)
	require.NotNil(t, nc2)
	require.Equal(t, "CONNECTED", nc2.Status().String())

	disconnect1()
	disconnect2()

	require.Equal(t, "CLOSED", nc1.Status().String())

	nc3, _, err := connect()
	require.NoError(t, err)
	require.NotNil(t, nc3)
	require.Equal(t, "CONNECTED", nc3.Status().String())
}

func TestReuseConnection_leases(t *testing.T) {
	dials, closes := 0, 0
	connect := ReuseConnection(func() (*natsgo.Conn, closeFunc, error) {
		dials++
		return nil, func() { closes++ }, nil
	})

	_, release1, err := connect()
	require.NoError(t, err)
	_, release2, err := connect()
	require.NoError(t, err)
	require.Equal(t, 1, dials)

	release1()
	release1()
	require.Equal(t, 0, closes, "a lease releases once")
	release2()
	require.Equal(t, 1, closes)

	_, release3, err := connect()
	require.NoError(t, err)
	require.Equal(t, 2, dials)
	release3()
	require.Equal(t, 2, closes)
}

func TestReuseConnection_dial_error(t *testing.T) {
	boom := errors.New("no servers")
	connect := ReuseConnection(func() (*natsgo.Conn, closeFunc, error) { return nil, nil, boom })
	_, _, err := connect()
	require.ErrorIs(t, err, boom)
}

func TestDefaultURL(t *testing.T) {
	t.Setenv(URLEnv, "")
	require.Equal(t, natsgo.DefaultURL, DefaultURL())

	t.Setenv(URLEnv, "nats://broker:4222")
	require.Equal(t, "nats://broker:4222", DefaultURL())
}
