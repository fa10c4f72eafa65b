package changer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cocoonstack/macshift/guard"
	"github.com/cocoonstack/macshift/lock/flock"
	"github.com/cocoonstack/macshift/mac"
)

// fakeLink is an in-memory link.Controller that records every call.
type fakeLink struct {
	ifaces map[string]string // name -> current address
	fail   map[string]error  // op -> error
	// afterSet overrides the address reported once SetAddress succeeded.
	afterSet *string
	calls    []string
}

func newFakeLink(name, addr string) *fakeLink {
	return &fakeLink{ifaces: map[string]string{name: addr}, fail: map[string]error{}}
}

func (f *fakeLink) Type() string { return "fake" }

func (f *fakeLink) Show(_ context.Context, iface string) (string, error) {
	f.calls = append(f.calls, "show")
	addr, ok := f.ifaces[iface]
	if !ok {
		return "", fmt.Errorf("Device %q does not exist", iface)
	}
	if addr == "" {
		return fmt.Sprintf("2: %s: <POINTOPOINT> mtu 1420\n    link/none\n", iface), nil
	}
	return fmt.Sprintf("2: %s: <BROADCAST,MULTICAST,UP> mtu 1500\n    link/ether %s brd ff:ff:ff:ff:ff:ff\n", iface, addr), nil
}

func (f *fakeLink) Down(_ context.Context, _ string) error {
	f.calls = append(f.calls, "down")
	return f.fail["down"]
}

func (f *fakeLink) SetAddress(_ context.Context, iface, addr string) error {
	f.calls = append(f.calls, "set")
	if err := f.fail["set"]; err != nil {
		return err
	}
	if f.afterSet != nil {
		addr = *f.afterSet
	}
	f.ifaces[iface] = addr
	return nil
}

func (f *fakeLink) Up(_ context.Context, _ string) error {
	f.calls = append(f.calls, "up")
	return f.fail["up"]
}

func (f *fakeLink) count(op string) int {
	n := 0
	for _, c := range f.calls {
		if c == op {
			n++
		}
	}
	return n
}

type fakeIdentity string

func (f fakeIdentity) EffectiveUID(context.Context) (string, error) { return string(f), nil }

type countingLocker struct{ locks, unlocks int }

func (l *countingLocker) Lock(context.Context) error   { l.locks++; return nil }
func (l *countingLocker) Unlock(context.Context) error { l.unlocks++; return nil }

func rootDeps(fl *fakeLink) Deps {
	return Deps{Link: fl, Identity: fakeIdentity("0"), GOOS: "linux"}
}

func lines(out *bytes.Buffer) []string {
	return strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
}

// --- end to end ---

func TestRun_RandomAddress(t *testing.T) {
	fl := newFakeLink("wlan0", "00:11:22:33:44:55")
	var out bytes.Buffer
	var generated string
	deps := rootDeps(fl)
	deps.Generate = func() string {
		generated = mac.Generate()
		return generated
	}

	res, err := Run(context.Background(), Options{Interface: "wlan0"}, deps, &out)
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.True(t, strings.HasPrefix(generated, "02:"))
	assert.Equal(t, "00:11:22:33:44:55", res.Previous)
	assert.Equal(t, generated, res.Requested)
	assert.Equal(t, generated, res.Current)
	assert.True(t, res.Verified)
	assert.Equal(t, []string{
		"Current MAC address of wlan0: 00:11:22:33:44:55",
		"Changing MAC address to: " + generated,
		"Successfully changed MAC address to: " + generated,
	}, lines(&out))
	assert.Equal(t, []string{"show", "show", "down", "set", "up", "show"}, fl.calls)
	assert.NoError(t, VerifyOutcome(res, false))
	assert.NoError(t, VerifyOutcome(res, true))
}

func TestRun_DefaultGenerator(t *testing.T) {
	fl := newFakeLink("eth0", "00:11:22:33:44:55")
	var out bytes.Buffer

	res, err := Run(context.Background(), Options{Interface: "eth0"}, rootDeps(fl), &out)
	require.NoError(t, err)
	assert.True(t, mac.IsValid(res.Requested))
	assert.True(t, strings.HasPrefix(res.Requested, "02:"))
	assert.True(t, res.Verified)
}

func TestRun_ExplicitAddressNotVerified(t *testing.T) {
	fl := newFakeLink("wlan0", "00:11:22:33:44:55")
	// the kernel normalises to lower case, so the exact comparison fails
	lower := "02:aa:bb:cc:dd:ee"
	fl.afterSet = &lower
	var out bytes.Buffer

	res, err := Run(context.Background(), Options{Interface: "wlan0", MAC: "02:AA:BB:CC:DD:EE"}, rootDeps(fl), &out)
	require.NoError(t, err)
	assert.False(t, res.Verified)
	assert.Equal(t, "02:aa:bb:cc:dd:ee", res.Current)

	got := lines(&out)
	assert.Equal(t, "Changing MAC address to: 02:AA:BB:CC:DD:EE", got[1])
	assert.Equal(t, "Failed to change MAC address.", got[len(got)-1])

	assert.NoError(t, VerifyOutcome(res, false))
	err = VerifyOutcome(res, true)
	assert.ErrorIs(t, err, ErrNotVerified)
	assert.Contains(t, err.Error(), "wlan0 reports 02:aa:bb:cc:dd:ee, want 02:AA:BB:CC:DD:EE")
}

func TestRun_PreviousAddressAbsent(t *testing.T) {
	fl := newFakeLink("wg0", "")
	var out bytes.Buffer

	res, err := Run(context.Background(), Options{Interface: "wg0", MAC: "02:1a:2b:3c:4d:5e"}, rootDeps(fl), &out)
	require.NoError(t, err)
	assert.Empty(t, res.Previous)
	assert.Equal(t, "Current MAC address of wg0: None", lines(&out)[0])
	assert.True(t, res.Verified)
}

// --- validation ---

func TestRun_InvalidInterface(t *testing.T) {
	fl := newFakeLink("wlan0", "00:11:22:33:44:55")
	var out bytes.Buffer

	res, err := Run(context.Background(), Options{Interface: "wlan9"}, rootDeps(fl), &out)
	assert.Nil(t, res)
	require.ErrorIs(t, err, ErrInvalidInterface)
	assert.Contains(t, err.Error(), "wlan9")
	assert.Empty(t, out.String())
	assert.Equal(t, []string{"show"}, fl.calls)
}

func TestRun_InvalidMAC(t *testing.T) {
	fl := newFakeLink("wlan0", "00:11:22:33:44:55")
	var out bytes.Buffer

	_, err := Run(context.Background(), Options{Interface: "wlan0", MAC: "02-1A-2B-3C-4D-5E"}, rootDeps(fl), &out)
	require.ErrorIs(t, err, ErrInvalidMAC)
	assert.Contains(t, err.Error(), "02-1A-2B-3C-4D-5E")
	assert.Equal(t, "Current MAC address of wlan0: 00:11:22:33:44:55", strings.TrimSpace(out.String()))
	assert.Zero(t, fl.count("down"))
	assert.Zero(t, fl.count("set"))
}

func TestRun_GuardFailures(t *testing.T) {
	fl := newFakeLink("wlan0", "00:11:22:33:44:55")

	deps := rootDeps(fl)
	deps.Identity = fakeIdentity("1000")
	_, err := Run(context.Background(), Options{Interface: "wlan0"}, deps, &bytes.Buffer{})
	assert.ErrorIs(t, err, guard.ErrNotRoot)

	deps = rootDeps(fl)
	deps.GOOS = "freebsd"
	_, err = Run(context.Background(), Options{Interface: "wlan0"}, deps, &bytes.Buffer{})
	assert.ErrorIs(t, err, guard.ErrUnsupportedOS)

	assert.Empty(t, fl.calls, "no link call before the guard passes")
}

// --- link sequence failures ---

func TestRun_SetAddressFailureSkipsUp(t *testing.T) {
	fl := newFakeLink("wlan0", "00:11:22:33:44:55")
	fl.fail["set"] = errors.New("RTNETLINK answers: Cannot assign requested address")
	var out bytes.Buffer

	res, err := Run(context.Background(), Options{Interface: "wlan0", MAC: "zz:zz:zz:zz:zz:zz"}, rootDeps(fl), &out)
	assert.Nil(t, res)
	require.ErrorIs(t, err, ErrCommand)
	assert.Contains(t, err.Error(), "set address")
	assert.Contains(t, err.Error(), "Cannot assign requested address")

	assert.Equal(t, 1, fl.count("down"))
	assert.Equal(t, 1, fl.count("set"))
	assert.Zero(t, fl.count("up"), "up must not run after a failed set")
	assert.Equal(t, 2, fl.count("show"), "no verification query after failure")
	assert.NotContains(t, out.String(), "Successfully")
	assert.NotContains(t, out.String(), "Failed to change")
}

func TestRun_DownFailure(t *testing.T) {
	fl := newFakeLink("eth0", "00:11:22:33:44:55")
	fl.fail["down"] = errors.New("operation not permitted")

	_, err := Run(context.Background(), Options{Interface: "eth0"}, rootDeps(fl), &bytes.Buffer{})
	require.ErrorIs(t, err, ErrCommand)
	assert.Zero(t, fl.count("set"))
	assert.Zero(t, fl.count("up"))
}

func TestRun_UpFailure(t *testing.T) {
	fl := newFakeLink("eth0", "00:11:22:33:44:55")
	fl.fail["up"] = errors.New("no carrier")

	_, err := Run(context.Background(), Options{Interface: "eth0"}, rootDeps(fl), &bytes.Buffer{})
	require.ErrorIs(t, err, ErrCommand)
	assert.Contains(t, err.Error(), "up: no carrier")
	assert.Equal(t, 2, fl.count("show"))
}

// --- locking ---

func TestRun_HoldsLock(t *testing.T) {
	fl := newFakeLink("eth0", "00:11:22:33:44:55")
	l := &countingLocker{}
	deps := rootDeps(fl)
	deps.Locker = l

	_, err := Run(context.Background(), Options{Interface: "eth0"}, deps, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 1, l.locks)
	assert.Equal(t, 1, l.unlocks)

	fl.fail["set"] = errors.New("boom")
	_, err = Run(context.Background(), Options{Interface: "eth0"}, deps, &bytes.Buffer{})
	require.Error(t, err)
	assert.Equal(t, 2, l.unlocks, "released on failure")
}

func TestRun_NoLockBeforeGuard(t *testing.T) {
	l := &countingLocker{}
	deps := rootDeps(newFakeLink("eth0", ""))
	deps.Identity = fakeIdentity("1000")
	deps.Locker = l

	_, err := Run(context.Background(), Options{Interface: "eth0"}, deps, &bytes.Buffer{})
	require.Error(t, err)
	assert.Zero(t, l.locks)
}

func TestRun_NoLockForUnknownInterface(t *testing.T) {
	l := &countingLocker{}
	deps := rootDeps(newFakeLink("eth0", "00:11:22:33:44:55"))
	deps.Locker = l

	_, err := Run(context.Background(), Options{Interface: "eth9"}, deps, &bytes.Buffer{})
	require.ErrorIs(t, err, ErrInvalidInterface)
	assert.Zero(t, l.locks)
}

func TestRun_UnknownInterfaceCreatesNoLockFile(t *testing.T) {
	root := t.TempDir()
	lockDir := filepath.Join(root, "run", "macshift")
	iface := "../../escaped"
	deps := rootDeps(newFakeLink("eth0", "00:11:22:33:44:55"))
	deps.Locker = flock.ForInterface(lockDir, iface)

	_, err := Run(context.Background(), Options{Interface: iface}, deps, &bytes.Buffer{})
	require.ErrorIs(t, err, ErrInvalidInterface)

	assert.NoFileExists(t, filepath.Join(root, "escaped.lock"))
	_, statErr := os.Stat(filepath.Join(root, "run"))
	assert.True(t, os.IsNotExist(statErr), "lock directory must not be created")
}

// --- VerifyOutcome ---

func TestVerifyOutcome(t *testing.T) {
	assert.NoError(t, VerifyOutcome(nil, true))
	assert.NoError(t, VerifyOutcome(&Result{Verified: true}, true))
	assert.NoError(t, VerifyOutcome(&Result{Verified: false}, false))

	err := VerifyOutcome(&Result{Interface: "eth0", Requested: "02:00:00:00:00:01"}, true)
	assert.ErrorIs(t, err, ErrNotVerified)
	assert.Contains(t, err.Error(), "eth0 reports no address")
}
