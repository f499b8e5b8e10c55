// Package openpgpw wraps golang.org/x/crypto/openpgp with the narrow
// surface the trust layer needs: verifying a detached signature
// against a public keyring, producing one, and importing/exporting
// ASCII-armoured keys. It keeps two keyrings apart, as gpg itself
// does: a public ring (other people's keys, used only to verify) and a
// secret ring (the user's own keys, used only to sign).
package openpgpw

import (
	"bytes"
	"fmt"
	"io"
	"io/ioutil"
	"os"

	"golang.org/x/crypto/openpgp"
	"golang.org/x/crypto/openpgp/armor"
	"golang.org/x/crypto/openpgp/errors"
)

// Status classifies the outcome of verifying one signature block.
type Status int

const (
	// Valid means the signature was made by a key present in the
	// public keyring and the payload was not tampered with.
	Valid Status = iota
	// Bad means a signing key was found but the signature did not
	// verify (payload tampered with, or wrong key used).
	Bad
	// MissingKey means no key in the public keyring matches the
	// signature's key ID; the trust layer cannot judge it without
	// first fetching the key.
	MissingKey
	// SignatureError covers any other parse/crypto failure.
	SignatureError
)

func (s Status) String() string {
	switch s {
	case Valid:
		return "valid"
	case Bad:
		return "bad"
	case MissingKey:
		return "missing-key"
	default:
		return "error"
	}
}

// Signature is the result of verifying a single signature block.
type Signature struct {
	Status      Status
	Fingerprint string // hex, uppercase; empty unless Status == Valid
	Err         error  // set when Status == SignatureError
}

// KeyNotFound is returned by operations that require a secret key the
// signing keyring does not contain.
type KeyNotFound struct {
	KeyID string
}

func (e *KeyNotFound) Error() string {
	return fmt.Sprintf("openpgpw: secret key %s not found", e.KeyID)
}

// WrongPassphrase describes a failure to decrypt a secret key's private
// material. No function in this package returns it: Sign takes no
// passphrase, and signing with an encrypted key fails with an ordinary
// wrapped error.
type WrongPassphrase struct {
	KeyID string
}

func (e *WrongPassphrase) Error() string {
	return fmt.Sprintf("openpgpw: wrong passphrase for secret key %s", e.KeyID)
}

// Verify checks every signature block in sigs against payload, using
// the public keys found in the armoured keyring at publicRingPath. A
// missing keyring file is treated as an empty keyring, not an error: a
// well-formed signature then resolves to MissingKey, and one that
// cannot be parsed to SignatureError.
func Verify(publicRingPath string, payload []byte, sigs [][]byte) ([]Signature, error) {
	keyring, err := loadKeyRing(publicRingPath)
	if err != nil {
		return nil, err
	}

	results := make([]Signature, 0, len(sigs))
	for _, sig := range sigs {
		results = append(results, verifyOne(keyring, payload, sig))
	}
	return results, nil
}

func verifyOne(keyring openpgp.EntityList, payload, sig []byte) Signature {
	entity, err := openpgp.CheckDetachedSignature(keyring, bytes.NewReader(payload), bytes.NewReader(sig))
	switch {
	case err == nil:
		return Signature{Status: Valid, Fingerprint: fingerprintOf(entity)}
	case err == errors.ErrUnknownIssuer:
		return Signature{Status: MissingKey}
	case err == errors.ErrSignatureExpired || isSignatureError(err):
		return Signature{Status: Bad}
	default:
		return Signature{Status: SignatureError, Err: fmt.Errorf("openpgpw: verifying signature: %w", err)}
	}
}

func isSignatureError(err error) bool {
	_, ok := err.(errors.SignatureError)
	return ok
}

func fingerprintOf(entity *openpgp.Entity) string {
	if entity == nil || entity.PrimaryKey == nil {
		return ""
	}
	return fmt.Sprintf("%X", entity.PrimaryKey.Fingerprint)
}

func loadKeyRing(path string) (openpgp.EntityList, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return openpgp.EntityList{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("openpgpw: opening keyring %s: %w", path, err)
	}
	defer f.Close()

	keyring, err := openpgp.ReadArmoredKeyRing(f)
	if err != nil {
		// Fall back to the unarmoured binary keyring format, which is
		// what `gpg --export` produces without `--armor`.
		if _, serr := f.Seek(0, 0); serr == nil {
			if kr, err2 := openpgp.ReadKeyRing(f); err2 == nil {
				return kr, nil
			}
		}
		return nil, fmt.Errorf("openpgpw: parsing keyring %s: %w", path, err)
	}
	return keyring, nil
}

// Sign produces a detached, binary (non-armoured) signature over
// payload using the first secret key in the armoured keyring at
// secretRingPath whose key ID matches keyID, or the first usable
// signing key when keyID is empty.
func Sign(secretRingPath, keyID string, payload []byte) ([]byte, error) {
	f, err := os.Open(secretRingPath)
	if err != nil {
		return nil, fmt.Errorf("openpgpw: opening secret keyring %s: %w", secretRingPath, err)
	}
	defer f.Close()

	keyring, err := openpgp.ReadArmoredKeyRing(f)
	if err != nil {
		return nil, fmt.Errorf("openpgpw: parsing secret keyring %s: %w", secretRingPath, err)
	}

	entity := findSigningEntity(keyring, keyID)
	if entity == nil {
		return nil, &KeyNotFound{KeyID: keyID}
	}

	var buf bytes.Buffer
	if err := openpgp.DetachSign(&buf, entity, bytes.NewReader(payload), nil); err != nil {
		return nil, fmt.Errorf("openpgpw: signing: %w", err)
	}
	return buf.Bytes(), nil
}

func findSigningEntity(keyring openpgp.EntityList, keyID string) *openpgp.Entity {
	for _, e := range keyring {
		if e.PrivateKey == nil {
			continue
		}
		if keyID == "" {
			return e
		}
		if fmt.Sprintf("%X", e.PrivateKey.Fingerprint) == keyID {
			return e
		}
		short := fmt.Sprintf("%X", e.PrivateKey.Fingerprint[len(e.PrivateKey.Fingerprint)-8:])
		if short == keyID {
			return e
		}
	}
	return nil
}

// ImportKey appends the ASCII-armoured key(s) in armored to the
// keyring file at path, creating it if necessary.
func ImportKey(path string, armored []byte) error {
	keyring, err := loadArmoredOrEmpty(path)
	if err != nil {
		return err
	}

	imported, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(armored))
	if err != nil {
		return fmt.Errorf("openpgpw: parsing imported key: %w", err)
	}
	keyring = append(keyring, imported...)

	return saveArmoredKeyRing(path, keyring)
}

func loadArmoredOrEmpty(path string) (openpgp.EntityList, error) {
	data, err := ioutil.ReadFile(path)
	if os.IsNotExist(err) {
		return openpgp.EntityList{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("openpgpw: reading keyring %s: %w", path, err)
	}
	kr, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("openpgpw: parsing keyring %s: %w", path, err)
	}
	return kr, nil
}

func saveArmoredKeyRing(path string, keyring openpgp.EntityList) error {
	var buf bytes.Buffer
	w, err := armorEncoder(&buf)
	if err != nil {
		return err
	}
	for _, e := range keyring {
		if err := e.Serialize(w); err != nil {
			return fmt.Errorf("openpgpw: serializing key: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("openpgpw: closing armour encoder: %w", err)
	}
	return ioutil.WriteFile(path, buf.Bytes(), 0600)
}

// ExportKey returns the ASCII-armoured public key material for the
// entity in the keyring at path whose full upper-case hex fingerprint
// equals keyID. A short key ID does not match.
func ExportKey(path, keyID string) ([]byte, error) {
	keyring, err := loadArmoredOrEmpty(path)
	if err != nil {
		return nil, err
	}
	for _, e := range keyring {
		if fmt.Sprintf("%X", e.PrimaryKey.Fingerprint) == keyID {
			var buf bytes.Buffer
			w, err := armorEncoder(&buf)
			if err != nil {
				return nil, err
			}
			if err := e.Serialize(w); err != nil {
				return nil, fmt.Errorf("openpgpw: serializing key: %w", err)
			}
			if err := w.Close(); err != nil {
				return nil, fmt.Errorf("openpgpw: closing armour encoder: %w", err)
			}
			return buf.Bytes(), nil
		}
	}
	return nil, &KeyNotFound{KeyID: keyID}
}

// ListSecretKeys returns the fingerprints of every secret key found in
// the armoured keyring at path.
func ListSecretKeys(path string) ([]string, error) {
	keyring, err := loadArmoredOrEmpty(path)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range keyring {
		if e.PrivateKey != nil {
			out = append(out, fmt.Sprintf("%X", e.PrivateKey.Fingerprint))
		}
	}
	return out, nil
}

func armorEncoder(buf *bytes.Buffer) (io.WriteCloser, error) {
	enc, err := armor.Encode(buf, openpgp.PublicKeyType, nil)
	if err != nil {
		return nil, fmt.Errorf("openpgpw: creating armour encoder: %w", err)
	}
	return enc, nil
}
