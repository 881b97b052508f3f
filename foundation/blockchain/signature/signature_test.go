package signature_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/ardanlabs/powledger/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	pkHexKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	from     = "0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4"
)

// =============================================================================

func Test_Signing(t *testing.T) {
	value := struct {
		Name string
	}{
		Name: "Bill",
	}

	pk, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to generate a private key: %s", err)
	}

	sig, err := signature.Sign(value, pk)
	if err != nil {
		t.Fatalf("Should be able to sign data: %s", err)
	}

	addr, err := signature.FromAddress(value, sig)
	if err != nil {
		t.Fatalf("Should be able to generate from address: %s", err)
	}

	if from != addr {
		t.Logf("got: %s", addr)
		t.Logf("exp: %s", from)
		t.Fatalf("Should get back the right address.")
	}

	if got := signature.PublicKeyToAddress(pk.PublicKey); got != from {
		t.Logf("got: %s", got)
		t.Logf("exp: %s", from)
		t.Fatalf("Should derive the right address from the public key.")
	}
}

func Test_TamperedData(t *testing.T) {
	value := struct {
		Amount uint64
	}{
		Amount: 10,
	}

	pk, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to generate a private key: %s", err)
	}

	sig, err := signature.Sign(value, pk)
	if err != nil {
		t.Fatalf("Should be able to sign data: %s", err)
	}

	value.Amount = 1000
	addr, err := signature.FromAddress(value, sig)
	if err == nil && addr == from {
		t.Fatalf("Should not recover the signer after the data changed.")
	}
}

func Test_BadSignature(t *testing.T) {
	tt := []struct {
		name string
		sig  string
	}{
		{name: "not-hex", sig: "signed"},
		{name: "short", sig: "0x0102"},
		{name: "zero", sig: "0x" + strings.Repeat("00", 64) + "1d"},
	}

	for _, tst := range tt {
		f := func(t *testing.T) {
			_, err := signature.FromAddress("data", tst.sig)
			if !errors.Is(err, signature.ErrInvalidSignature) {
				t.Logf("got: %v", err)
				t.Fatalf("Should get an invalid signature error.")
			}
		}

		t.Run(tst.name, f)
	}
}
