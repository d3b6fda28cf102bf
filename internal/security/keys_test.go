package security

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func testPEM(t *testing.T) (string, string) {
	t.Helper()
	priv, pub, err := TestKeyPEM()
	if err != nil {
		t.Fatalf("TestKeyPEM: %v", err)
	}
	return priv, pub
}

func TestLoadPEM_Inline(t *testing.T) {
	priv, _ := testPEM(t)
	b, err := LoadPEM(priv)
	if err != nil {
		t.Fatalf("LoadPEM: %v", err)
	}
	if !strings.Contains(string(b), "-----BEGIN") {
		t.Error("LoadPEM did not return PEM content")
	}
}

func TestLoadPEM_LiteralNewlines(t *testing.T) {
	_, pub := testPEM(t)
	escaped := strings.ReplaceAll(pub, "\n", `\n`)
	key, err := ParsePublicKey(escaped)
	if err != nil {
		t.Fatalf("ParsePublicKey with escaped newlines: %v", err)
	}
	if KeyAlg(key) != "ES256" {
		t.Errorf("KeyAlg = %q, want ES256", KeyAlg(key))
	}
}

func TestLoadPEM_FilePath(t *testing.T) {
	priv, _ := testPEM(t)
	path := filepath.Join(t.TempDir(), "key.pem")
	if err := os.WriteFile(path, []byte(priv), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	signer, err := ParsePrivateKey(path)
	if err != nil {
		t.Fatalf("ParsePrivateKey(path): %v", err)
	}
	if KeyAlg(signer.Public()) != "ES256" {
		t.Errorf("KeyAlg = %q, want ES256", KeyAlg(signer.Public()))
	}
}

func TestLoadPEM_Empty(t *testing.T) {
	if _, err := LoadPEM("  "); err != ErrInvalidKey {
		t.Errorf("LoadPEM(blank) err = %v, want ErrInvalidKey", err)
	}
}

func TestParseKeys_Invalid(t *testing.T) {
	bad := "-----BEGIN CERTIFICATE-----\nAAAA\n-----END CERTIFICATE-----"
	if _, err := ParsePrivateKey(bad); err == nil {
		t.Error("ParsePrivateKey should reject a non-key block")
	}
	if _, err := ParsePublicKey(bad); err == nil {
		t.Error("ParsePublicKey should reject a non-key block")
	}
	if _, err := ParsePublicKey("/does/not/exist.pem"); err == nil {
		t.Error("ParsePublicKey should fail for a missing file")
	}
}

func TestLoadProvider(t *testing.T) {
	priv, pub := testPEM(t)
	if _, err := LoadProvider("", "", "iss", "aud", time.Minute); err == nil {
		t.Fatal("LoadProvider without keys should fail")
	}

	verifier, err := LoadProvider("", pub, "iss", "aud", time.Minute)
	if err != nil {
		t.Fatalf("LoadProvider(public only): %v", err)
	}
	if _, _, err := verifier.IssueAccess("s", "u"); err != ErrNoSigningKey {
		t.Errorf("verify-only IssueAccess err = %v, want ErrNoSigningKey", err)
	}

	signer, err := LoadProvider(priv, "", "iss", "aud", time.Minute)
	if err != nil {
		t.Fatalf("LoadProvider(private only): %v", err)
	}
	token, _, err := signer.IssueAccess("s", "u")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if _, err := verifier.ValidateAccess(token); err != nil {
		t.Errorf("ValidateAccess across providers: %v", err)
	}
}

func TestKeyAlg_Unknown(t *testing.T) {
	if got := KeyAlg("not-a-key"); got != "" {
		t.Errorf("KeyAlg(string) = %q, want empty", got)
	}
}
