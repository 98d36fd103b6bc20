package checksum

import (
	"encoding/hex"
	"strings"
	"testing"
)

func TestCRC32Hex(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "00000000"},
		{"123456789", "cbf43926"},
		{"The quick brown fox jumps over the lazy dog", "414fa339"},
	}
	for _, tc := range cases {
		if got := CRC32Hex([]byte(tc.in)); got != tc.want {
			t.Fatalf("CRC32Hex(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestCRC32HexStable(t *testing.T) {
	data := []byte(strings.Repeat("audio", 1000))
	first := CRC32Hex(data)
	for i := 0; i < 5; i++ {
		if got := CRC32Hex(data); got != first {
			t.Fatalf("crc changed between calls: %s vs %s", got, first)
		}
	}
	if len(first) != 8 {
		t.Fatalf("expected 8 hex digits, got %q", first)
	}
}

func TestSHA256HexEmpty(t *testing.T) {
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got := SHA256Hex(""); got != want {
		t.Fatalf("SHA256Hex(\"\") = %s", got)
	}
}

func TestHMACSHA256KnownVector(t *testing.T) {
	// RFC 4231 test case 2.
	got := HMACSHA256Hex([]byte("Jefe"), "what do ya want for nothing?")
	want := "5bdcc146bf60754e6a042426089575c75a003f089d2739839dec58b964ec3843"
	if got != want {
		t.Fatalf("HMACSHA256Hex = %s, want %s", got, want)
	}
}

func TestDeriveSigningKey(t *testing.T) {
	key := DeriveSigningKey("wJalrXUtnFEMI/K7MDENG+bPxRfiCYEXAMPLEKEY", "20120215", "us-east-1", "iam")
	want := "f4780e2d9f65fa895f9c67b32ce1baf0b0d8a43505a000a1a9e090d414db404d"
	if got := hex.EncodeToString(key); got != want {
		t.Fatalf("signing key = %s, want %s", got, want)
	}
}

func TestSignRequestGetVanilla(t *testing.T) {
	headers := map[string]string{
		"Host":       "example.amazonaws.com",
		"X-Amz-Date": "20150830T123600Z",
	}
	sig, err := SignRequest("wJalrXUtnFEMI/K7MDENG+bPxRfiCYEXAMPLEKEY", "", headers, SignOptions{
		Method:  "GET",
		Region:  "us-east-1",
		Service: "service",
	})
	if err != nil {
		t.Fatalf("SignRequest: %v", err)
	}
	want := "5fa00fa31553b73ebf1942676e86291e8372ff2a2260956d9b8aae1d763fbf31"
	if sig != want {
		t.Fatalf("signature = %s, want %s", sig, want)
	}
}

func TestCanonicalRequestSortsAndTrims(t *testing.T) {
	req, signed := CanonicalRequest("GET", "a=1", map[string]string{
		"X-Amz-Security-Token": "  token ",
		"x-amz-date":           "20240101T000000Z",
	}, "")
	if signed != "x-amz-date;x-amz-security-token" {
		t.Fatalf("signed headers = %q", signed)
	}
	wantPrefix := "GET\n/\na=1\nx-amz-date:20240101T000000Z\nx-amz-security-token:token\n\n"
	if !strings.HasPrefix(req, wantPrefix) {
		t.Fatalf("canonical request prefix mismatch:\n%q", req)
	}
}

func TestSignRequestRequiresDate(t *testing.T) {
	if _, err := SignRequest("secret", "", map[string]string{"x-amz-security-token": "t"}, SignOptions{}); err == nil {
		t.Fatal("expected error without x-amz-date")
	}
	if _, err := SignRequest("secret", "", map[string]string{"x-amz-date": "2024"}, SignOptions{}); err == nil {
		t.Fatal("expected error for malformed x-amz-date")
	}
}

func TestAuthorizationHeader(t *testing.T) {
	got := AuthorizationHeader("AK", "20240101", "cn", "vod", "x-amz-date;x-amz-security-token", "abc")
	want := "AWS4-HMAC-SHA256 Credential=AK/20240101/cn/vod/aws4_request, SignedHeaders=x-amz-date;x-amz-security-token, Signature=abc"
	if got != want {
		t.Fatalf("header = %q", got)
	}
}
