package httpsig

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sig "code.superseriousbusiness.org/httpsig"
)

const maxClockSkew = 10 * time.Second

// ErrSignatureInvalid/ErrMissingHeader/ErrClockSkew mirror apfed's error
// taxonomy without importing the root package, so this package stays free
// to be used standalone. apfed/inbox maps these back onto apfed.Err*.
var (
	ErrSignatureInvalid = fmt.Errorf("httpsig: signature invalid")
	ErrMissingHeader    = fmt.Errorf("httpsig: missing required header")
	ErrClockSkew        = fmt.Errorf("httpsig: clock skew exceeds tolerance")
)

// VerifyOptions configures Verify.
type VerifyOptions struct {
	// Compat relaxes the required header set to match Mastodon-style
	// signing (on any request, Digest may be absent and the signature need
	// not cover it) and disables the clock-skew check.
	Compat bool
	// Now defaults to time.Now when nil.
	Now func() time.Time
}

func (o VerifyOptions) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// Verify checks the Signature header on req against publicKeyPEM, and that
// any Digest header matches the request body. It returns the keyId string
// from the signature on success.
func Verify(req *http.Request, publicKeyPEM string, opts VerifyOptions) (keyID string, err error) {
	sigHeader := req.Header.Get("Signature")
	if sigHeader == "" {
		return "", fmt.Errorf("%w: Signature header absent", ErrMissingHeader)
	}

	if !opts.Compat {
		if req.Header.Get("Digest") == "" {
			return "", fmt.Errorf("%w: Digest header absent", ErrMissingHeader)
		}
		fields := parseSignatureFields(sigHeader)
		if !strings.Contains(fields["headers"], "digest") {
			return "", fmt.Errorf("%w: signature does not cover digest", ErrMissingHeader)
		}
	}

	if !opts.Compat {
		if err := checkClockSkew(req.Header.Get("Date"), opts.now()); err != nil {
			return "", err
		}
	}

	if digestHeader := req.Header.Get("Digest"); digestHeader != "" {
		if err := verifyDigest(req, digestHeader); err != nil {
			return "", err
		}
	}

	publicKey, err := ParsePublicKey(publicKeyPEM)
	if err != nil {
		return "", err
	}

	verifier, err := sig.NewVerifier(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	}

	if err := verifier.Verify(publicKey, sig.RSA_SHA256); err != nil {
		return "", fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	}

	return verifier.KeyId(), nil
}

// ActorFromKeyID extracts the actor URI from a keyId of the form
// "https://example.com/users/alice#main-key".
func ActorFromKeyID(keyID string) string {
	return strings.SplitN(keyID, "#", 2)[0]
}

func verifyDigest(req *http.Request, digestHeader string) error {
	if req.Body == nil {
		return nil
	}
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return fmt.Errorf("httpsig: read body for digest check: %w", err)
	}
	req.Body = io.NopCloser(strings.NewReader(string(body)))

	hash := sha256.Sum256(body)
	expected := "SHA-256=" + base64.StdEncoding.EncodeToString(hash[:])
	if !strings.EqualFold(digestHeader, expected) {
		return fmt.Errorf("%w: digest mismatch", ErrSignatureInvalid)
	}
	return nil
}

func checkClockSkew(dateHeader string, now time.Time) error {
	if dateHeader == "" {
		return fmt.Errorf("%w: Date header absent", ErrMissingHeader)
	}
	requestTime, err := http.ParseTime(dateHeader)
	if err != nil {
		return fmt.Errorf("%w: unparseable Date header: %v", ErrMissingHeader, err)
	}
	skew := now.Sub(requestTime)
	if skew < 0 {
		skew = -skew
	}
	if skew > maxClockSkew {
		return fmt.Errorf("%w: %s", ErrClockSkew, skew)
	}
	return nil
}

// parseSignatureFields does a minimal parse of the Signature header's
// comma-separated key="value" pairs, enough to inspect which headers were
// covered without depending on the signing library's internal types.
func parseSignatureFields(header string) map[string]string {
	fields := make(map[string]string)
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		eq := strings.IndexByte(part, '=')
		if eq < 0 {
			continue
		}
		key := part[:eq]
		value := strings.Trim(part[eq+1:], `"`)
		fields[key] = value
	}
	return fields
}
