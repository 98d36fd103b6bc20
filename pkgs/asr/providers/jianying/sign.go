package jianying

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/xifan2333/subcue/pkgs/checksum"
	"github.com/xifan2333/subcue/pkgs/transport"
)

const (
	DefaultSignURL = "https://asrtools-update.bkfeng.top/sign"

	appVersion  = "6.6.0"
	platform    = "4"
	signVersion = "1"

	apiUserAgent  = "Cronet/TTNetVersion:d4572e53 2024-06-12 QuicVersion:4bf243e0 2023-04-17"
	signUserAgent = "VideoCaptioner/1.0.0"
)

// Signature authorizes one API request.
type Signature struct {
	Sign       string
	DeviceTime string
}

// Signer produces the sign header for an API path.
type Signer interface {
	Sign(ctx context.Context, path, tdid string) (Signature, error)
}

// RemoteSigner asks a sign helper service for the signature.
type RemoteSigner struct {
	URL    string
	Client *transport.Client
	Clock  func() time.Time
}

type signResponse struct {
	Sign string `json:"sign"`
}

// Sign posts the path, device time and tdid to the helper and lower-cases
// the returned signature.
func (s *RemoteSigner) Sign(ctx context.Context, path, tdid string) (Signature, error) {
	deviceTime := unixString(s.Clock)
	signURL := s.URL
	if signURL == "" {
		signURL = DefaultSignURL
	}

	req, err := transport.NewJSONRequest(http.MethodPost, signURL, map[string]string{
		"url":          path,
		"current_time": deviceTime,
		"pf":           platform,
		"appvr":        appVersion,
		"tdid":         tdid,
	}, map[string]string{
		"User-Agent": signUserAgent,
		"tdid":       tdid,
		"t":          deviceTime,
	})
	if err != nil {
		return Signature{}, err
	}

	client := s.Client
	if client == nil {
		client = transport.Default
	}
	var resp signResponse
	if _, err := client.DoJSON(ctx, req, &resp); err != nil {
		return Signature{}, err
	}
	if resp.Sign == "" {
		return Signature{}, &transport.ProtocolError{Message: "no 'sign' in sign response"}
	}
	return Signature{Sign: strings.ToLower(resp.Sign), DeviceTime: deviceTime}, nil
}

// LocalSigner computes the signature in process:
// md5("9e2c|<last 7 chars of path>|4|6.6.0|<device time>|<tdid>|11ac").
type LocalSigner struct {
	Clock func() time.Time
}

// Sign never fails.
func (s *LocalSigner) Sign(_ context.Context, path, tdid string) (Signature, error) {
	deviceTime := unixString(s.Clock)
	return Signature{Sign: localSign(path, deviceTime, tdid), DeviceTime: deviceTime}, nil
}

func localSign(path, deviceTime, tdid string) string {
	tail := path
	if len(tail) > 7 {
		tail = tail[len(tail)-7:]
	}
	return checksum.MD5Hex(fmt.Sprintf("9e2c|%s|%s|%s|%s|%s|11ac", tail, platform, appVersion, deviceTime, tdid))
}

// GenerateTDID derives the device id from the last digit of the year. Odd
// years use a fixed suffix; even years use the clock in microseconds plus
// random, zero padded to 13 digits.
func GenerateTDID(now time.Time, random int64) string {
	digit := now.Year() % 10
	prefix := 390 + digit
	if digit%2 != 0 {
		return fmt.Sprintf("%d%s", prefix, "3278516897751")
	}
	return fmt.Sprintf("%d%013d", prefix, now.UnixMilli()*1000+random%1_000_000)
}

// apiHeaders are sent on every signed API request.
func apiHeaders(sig Signature, tdid string) map[string]string {
	return map[string]string{
		"User-Agent":  apiUserAgent,
		"appvr":       appVersion,
		"device-time": sig.DeviceTime,
		"pf":          platform,
		"sign":        sig.Sign,
		"sign-ver":    signVersion,
		"tdid":        tdid,
	}
}

func unixString(clock func() time.Time) string {
	if clock == nil {
		clock = time.Now
	}
	return strconv.FormatInt(clock().Unix(), 10)
}
