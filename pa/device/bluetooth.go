package device

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"tinygo.org/x/bluetooth"
)

const btRetryWait = 1 * time.Second

func init() {
	Register("bt", openBluetooth)
}

// SearchParameters selects a Bluetooth peripheral by advertised name or MAC
// address (mutually exclusive).
type SearchParameters struct {
	Name       string
	MACAddress string
}

// Bluetooth is a Device backed by a BLE GATT characteristic pair: writes go
// out over the TX characteristic without waiting for a response, matching
// how thermal/receipt printers like the LX-D02 expect to be driven.
type Bluetooth struct {
	adapter *bluetooth.Adapter
	dev     bluetooth.Device
	tx      bluetooth.DeviceCharacteristic
	rx      bluetooth.DeviceCharacteristic
	uri     string
}

// DialBluetooth scans for, connects to, and discovers the TX/RX
// characteristics of a Bluetooth peripheral, retrying the connect step up
// to maxRetries times.
func DialBluetooth(ctx context.Context, adapter *bluetooth.Adapter, sp SearchParameters, txUUID, rxUUID string, maxRetries int) (*Bluetooth, error) {
	dev, err := connectWithRetries(ctx, adapter, sp, maxRetries)
	if err != nil {
		return nil, err
	}
	tx, rx, err := locateCharacteristics(dev, txUUID, rxUUID)
	if err != nil {
		return nil, fmt.Errorf("device: locate characteristics: %w", err)
	}
	return &Bluetooth{adapter: adapter, dev: dev, tx: tx, rx: rx}, nil
}

// openBluetooth implements OpenFunc for the "bt://" scheme. The URI host is
// treated as the device name to search for, with tx/rx characteristic UUIDs
// given as query parameters: bt://LX-D02?tx=...&rx=....
func openBluetooth(ctx context.Context, uri string) (Device, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("device: invalid bluetooth uri %q: %w", uri, err)
	}
	sp := SearchParameters{Name: u.Host}
	if mac := u.Query().Get("mac"); mac != "" {
		sp = SearchParameters{MACAddress: mac}
	}
	tx := u.Query().Get("tx")
	rx := u.Query().Get("rx")
	bt, err := DialBluetooth(ctx, bluetooth.DefaultAdapter, sp, tx, rx, 5)
	if err != nil {
		return nil, err
	}
	bt.uri = uri
	return bt, nil
}

func (b *Bluetooth) URI() string { return b.uri }

// Write sends all of p in one WriteWithoutResponse call; it does not split
// p into MTU-sized chunks.
func (b *Bluetooth) Write(p []byte) (int, error) {
	n, err := b.tx.WriteWithoutResponse(p)
	if err != nil {
		return n, fmt.Errorf("device: bluetooth write: %w", err)
	}
	return n, nil
}

func (b *Bluetooth) Close() error {
	if err := b.dev.Disconnect(); err != nil {
		return fmt.Errorf("device: bluetooth disconnect: %w", err)
	}
	return nil
}

// EnableNotifications forwards peripheral notifications (status, flow
// control) on the RX characteristic to fn, for drivers that need to react
// to them (retransmit/cooldown/hold signals).
func (b *Bluetooth) EnableNotifications(fn func([]byte)) error {
	return b.rx.EnableNotifications(fn)
}

func connectWithRetries(ctx context.Context, adapter *bluetooth.Adapter, sp SearchParameters, maxRetries int) (bluetooth.Device, error) {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		found, err := locateDevice(ctx, adapter, sp)
		if err != nil {
			return bluetooth.Device{}, fmt.Errorf("device: locate: %w", err)
		}
		dev, err := adapter.Connect(found.Address, bluetooth.ConnectionParams{})
		if err == nil {
			return dev, nil
		}
		lastErr = err
		slog.WarnContext(ctx, "bluetooth connect failed, retrying", "attempt", attempt+1, "error", err)
		select {
		case <-time.After(btRetryWait):
		case <-ctx.Done():
			return bluetooth.Device{}, ctx.Err()
		}
	}
	return bluetooth.Device{}, fmt.Errorf("device: connect failed after %d attempts: %w", maxRetries, lastErr)
}

func locateDevice(ctx context.Context, adapter *bluetooth.Adapter, sp SearchParameters) (bluetooth.ScanResult, error) {
	if sp.MACAddress == "" && sp.Name == "" {
		return bluetooth.ScanResult{}, fmt.Errorf("device: search parameters must specify name or mac address")
	}
	var found bluetooth.ScanResult
	err := adapter.Scan(func(a *bluetooth.Adapter, sr bluetooth.ScanResult) {
		if ctx.Err() != nil {
			_ = a.StopScan()
			return
		}
		if sr.LocalName() == sp.Name || sr.Address.String() == sp.MACAddress {
			found = sr
			_ = a.StopScan()
		}
	})
	if err != nil {
		return found, fmt.Errorf("device: scan: %w", err)
	}
	if ctx.Err() != nil {
		return found, ctx.Err()
	}
	return found, nil
}

// locateCharacteristics discovers a device's TX and RX characteristics by
// UUID string.
func locateCharacteristics(dev bluetooth.Device, txUUID, rxUUID string) (tx, rx bluetooth.DeviceCharacteristic, err error) {
	services, err := dev.DiscoverServices(nil)
	if err != nil {
		return tx, rx, fmt.Errorf("discover services: %w", err)
	}
	var txOK, rxOK bool
	for _, service := range services {
		chars, err := service.DiscoverCharacteristics(nil)
		if err != nil {
			return tx, rx, fmt.Errorf("discover characteristics for %s: %w", service.UUID().String(), err)
		}
		for _, ch := range chars {
			switch ch.UUID().String() {
			case txUUID:
				tx, txOK = ch, true
			case rxUUID:
				rx, rxOK = ch, true
			}
		}
		if txOK && rxOK {
			break
		}
	}
	if !txOK || !rxOK {
		return tx, rx, fmt.Errorf("required characteristics not found: tx=%s rx=%s", txUUID, rxUUID)
	}
	return tx, rx, nil
}
