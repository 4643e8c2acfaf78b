package httpsig

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"time"

	sig "code.superseriousbusiness.org/httpsig"
)

// signedHeaders is the fixed header set the signer always covers, per the
// HTTP Signatures draft profile ActivityPub servers use: the
// pseudo-header (request-target), Host, Date, and Digest.
var signedHeaders = []string{"(request-target)", "host", "date", "digest"}

// SignOptions configures Sign. Now defaults to time.Now when nil.
type SignOptions struct {
	Now func() time.Time
}

func (o SignOptions) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// Sign attaches Digest, Date, Host, and Signature headers to req, signing
// with privateKeyPEM under the given keyID (e.g.
// "https://example.com/users/alice#main-key"). The body, if any, is read
// and restored so it can still be sent.
func Sign(req *http.Request, keyID string, privateKeyPEM string, opts SignOptions) error {
	privateKey, err := ParsePrivateKey(privateKeyPEM)
	if err != nil {
		return err
	}

	var body []byte
	if req.Body != nil {
		body, err = io.ReadAll(req.Body)
		if err != nil {
			return fmt.Errorf("httpsig: read body: %w", err)
		}
		req.Body = io.NopCloser(bytes.NewReader(body))
		req.ContentLength = int64(len(body))
	}

	hash := sha256.Sum256(body)
	req.Header.Set("Digest", "SHA-256="+base64.StdEncoding.EncodeToString(hash[:]))

	if req.Header.Get("Date") == "" {
		req.Header.Set("Date", opts.now().UTC().Format(http.TimeFormat))
	}
	if req.Host == "" {
		req.Host = req.URL.Host
	}
	req.Header.Set("Host", req.Host)

	signer, _, err := sig.NewSigner([]sig.Algorithm{sig.RSA_SHA256}, sig.DigestSha256, signedHeaders, sig.Signature, 0)
	if err != nil {
		return fmt.Errorf("httpsig: create signer: %w", err)
	}
	if err := signer.SignRequest(privateKey, keyID, req, nil); err != nil {
		return fmt.Errorf("httpsig: sign request: %w", err)
	}
	return nil
}
