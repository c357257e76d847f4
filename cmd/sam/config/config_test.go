package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcaf-go/dcaf/storage"
)

func TestParseDefaults(t *testing.T) {
	c, err := Parse([]byte("storage:\n  data_dir: /tmp\n"))
	require.NoError(t, err)
	assert.Equal(t, 7000, c.Server.Port)
	assert.Equal(t, 7000, c.Server.AdminAPIPort)
	assert.Equal(t, storage.DriverSQLite, c.Storage.Driver)
	assert.Equal(t, PSKBackendGorm, c.PSK.Backend)
	assert.Equal(t, 30*time.Second, c.Protocol.SweepPeriod.Duration())
	assert.Equal(t, "INFO", c.Logging.Internal.Level)
	assert.True(t, c.API.Admin.Enabled)
}

func TestParse(t *testing.T) {
	keyFile := filepath.Join(t.TempDir(), "update.pem")
	require.NoError(t, os.WriteFile(keyFile, []byte("x"), 0o600))
	c, err := Parse(
		[]byte(`
server:
  port: 8443
  tls:
    enabled: true
    cert: /c.pem
    key: /k.pem
    client_ca: /ca.pem
storage:
  driver: postgres
  password: pw
psk:
  backend: static
  static:
    - identity: cam1
      key: secret
      peer: 10.0.0.2
api:
  admin:
    port: 9000
protocol:
  notify_servers: true
  sweep_period: 1m
update:
  key_file: ` + keyFile + `
`),
	)
	require.NoError(t, err)
	assert.Equal(t, "/ca.pem", c.Server.TLS.ClientCA)
	assert.Equal(t, 9000, c.Server.AdminAPIPort)
	assert.Contains(t, c.Storage.DSN, "dbname=dcaf")
	assert.Equal(t, time.Minute, c.Protocol.SweepPeriod.Duration())
	require.Len(t, c.PSK.Static, 1)
	assert.Equal(t, "10.0.0.2", c.PSK.Static[0].Peer)

	store, err := c.PSK.NewStore(nil)
	require.NoError(t, err)
	identity, err := store.IdentityFor("10.0.0.2")
	require.NoError(t, err)
	assert.Equal(t, "cam1", identity)
}

func TestParseInvalid(t *testing.T) {
	for name, data := range map[string]string{
		"psk backend":   "psk:\n  backend: vault\n",
		"badger dir":    "psk:\n  backend: badger\n",
		"notify scheme": "protocol:\n  notify_scheme: coap\n",
		"tls":           "server:\n  tls:\n    enabled: true\n",
		"update key":    "update:\n  key_file: /does/not/exist.pem\n",
		"log dir":       "logging:\n  internal:\n    dir: /does/not/exist\n",
		"yaml":          "server: [",
	} {
		t.Run(
			name, func(t *testing.T) {
				_, err := Parse([]byte(data))
				assert.Error(t, err)
			},
		)
	}
}
