package pollwatcher_test

import (
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"

	"gotest.tools/v3/assert"
	"gotest.tools/v3/fs"

	"github.com/art4/sslident/internal/pkitest"
	"github.com/art4/sslident/pollwatcher"
)

func TestWatch(t *testing.T) {
	pk := pkitest.NewPrivateKey(t)

	dir := fs.NewDir(t, "test-pollwatcher",
		fs.WithFile("my.crt", "", fs.WithBytes(
			pkitest.PemEncodeCertificate(t, x509.Certificate{
				SerialNumber: big.NewInt(1),
				Subject:      pkix.Name{CommonName: "example.com"},
				DNSNames:     []string{"example.com"},
			}, pk),
		)),
	)
	defer dir.Remove()

	watcher := pollwatcher.New(dir.Join("my.crt"), 10*time.Millisecond)

	descChan, errChan := watcher.Watch()

	select {
	case descriptor := <-descChan:
		assert.Equal(t, "example.com", descriptor.Subject.CommonName)
	case err := <-errChan:
		t.Fatal(err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the initial certificate")
	}

	fs.Apply(t, dir, fs.WithFile("my.crt", "", fs.WithBytes(
		pkitest.PemEncodeCertificate(t, x509.Certificate{
			SerialNumber: big.NewInt(2),
			Subject:      pkix.Name{CommonName: "example.net"},
			DNSNames:     []string{"example.net", "www.example.net"},
		}, pk),
	)))

	select {
	case descriptor := <-descChan:
		assert.Equal(t, "example.net", descriptor.Subject.CommonName)
	case err := <-errChan:
		t.Fatal(err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the reloaded certificate")
	}

	assert.NilError(t, watcher.Close())
}

func TestCloseUnblocksPendingSend(t *testing.T) {
	pk := pkitest.NewPrivateKey(t)

	dir := fs.NewDir(t, "test-pollwatcher",
		fs.WithFile("my.crt", "", fs.WithBytes(
			pkitest.PemEncodeCertificate(t, x509.Certificate{
				SerialNumber: big.NewInt(1),
				Subject:      pkix.Name{CommonName: "example.com"},
			}, pk),
		)),
	)
	defer dir.Remove()

	watcher := pollwatcher.New(dir.Join("my.crt"), 10*time.Millisecond)

	// Never read the channels, so the initial load blocks on its send;
	// Close must still return instead of panicking on a closed channel.
	watcher.Watch()
	time.Sleep(50 * time.Millisecond)

	assert.NilError(t, watcher.Close())
}
