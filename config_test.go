package pa

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigAppliesJobRetentionDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	const body = `
system:
  name: office-printers
listen:
  - ":631"
printers:
  - name: front-desk
    driver: lxd02
    device_uri: "bt://aa:bb:cc:dd:ee:ff"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "office-printers", cfg.System.Name)
	assert.Equal(t, Duration(24*time.Hour), cfg.System.JobRetention)
	require.Len(t, cfg.Printers, 1)
	assert.Equal(t, "front-desk", cfg.Printers[0].Name)
	assert.Equal(t, "lxd02", cfg.Printers[0].Driver)
}

func TestLoadConfigPreservesExplicitJobRetention(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	const body = `
system:
  name: office-printers
  job_retention: 1h
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, Duration(time.Hour), cfg.System.JobRetention)
}

func TestConfigSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := &Config{
		System: SystemConfig{Name: "office-printers", JobRetention: Duration(2 * time.Hour)},
		Listen: []string{":631"},
		DNSSD:  DNSSDConfig{Enabled: true, Backend: "zeroconf"},
		Printers: []PrinterConfig{
			{Name: "front-desk", Driver: "lxd02", DeviceURI: "bt://aa:bb:cc:dd:ee:ff"},
		},
	}
	require.NoError(t, cfg.Save(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.System.Name, loaded.System.Name)
	assert.Equal(t, cfg.System.JobRetention, loaded.System.JobRetention)
	assert.Equal(t, cfg.DNSSD, loaded.DNSSD)
	assert.Equal(t, cfg.Printers, loaded.Printers)
}
