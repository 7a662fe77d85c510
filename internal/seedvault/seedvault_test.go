package seedvault

import "testing"

func TestEncryptDecryptRoundTrip(t *testing.T) {
	vault, err := New("unit-test-secret")
	if err != nil {
		t.Fatalf("new vault: %v", err)
	}

	phrases := []string{
		"canal piano lumber pave sorry lesson barely crane armor bubble erupt unfair",
		"",
		"single",
	}

	for _, phrase := range phrases {
		encrypted, err := vault.Encrypt(phrase)
		if err != nil {
			t.Fatalf("encrypt %q: %v", phrase, err)
		}
		decrypted, err := vault.Decrypt(encrypted)
		if err != nil {
			t.Fatalf("decrypt %q: %v", phrase, err)
		}
		if decrypted != phrase {
			t.Fatalf("round trip mismatch: got %q, want %q", decrypted, phrase)
		}
	}
}

func TestEncryptIsNonDeterministic(t *testing.T) {
	vault, _ := New("unit-test-secret")

	const phrase = "canal piano lumber pave sorry lesson barely crane armor bubble erupt unfair"
	first, err := vault.Encrypt(phrase)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	second, err := vault.Encrypt(phrase)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if first == second {
		t.Fatal("expected distinct ciphertexts for the same plaintext")
	}
}

func TestDecryptRejectsCorruptRecord(t *testing.T) {
	vault, _ := New("unit-test-secret")

	encrypted, err := vault.Encrypt("some phrase")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	cases := []string{
		"not-base64!!!",
		"c2hvcnQ=", // valid base64, too short to hold salt+nonce
		encrypted[:len(encrypted)-8] + "AAAAAAA=",
	}
	for _, corrupted := range cases {
		if _, err := vault.Decrypt(corrupted); err != ErrDecrypt {
			t.Fatalf("decrypt %q: expected ErrDecrypt, got %v", corrupted, err)
		}
	}
}

func TestDecryptWithWrongSecretFails(t *testing.T) {
	vault, _ := New("secret-one")
	other, _ := New("secret-two")

	encrypted, err := vault.Encrypt("some phrase")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if _, err := other.Decrypt(encrypted); err != ErrDecrypt {
		t.Fatalf("expected ErrDecrypt with wrong secret, got %v", err)
	}
}
