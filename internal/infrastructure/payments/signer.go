package payments

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/url"
	"sort"
	"strings"
)

// Signer builds gateway authentication headers.
//
// The gateway's auth endpoint predates its transactional endpoints and keeps
// an older signed-parameter convention; everything after authentication uses
// plain bearer tokens. The two schemes are deliberately separate named
// methods so they cannot be conflated at call sites.

type Signer struct {
	consumerKey    string
	consumerSecret string
}

func NewSigner(consumerKey, consumerSecret string) *Signer {
	return &Signer{consumerKey: consumerKey, consumerSecret: consumerSecret}
}

// SignedParams produces the legacy signed-parameter Authorization value:
// parameters sorted lexicographically by key, joined as key=value with "&",
// combined with the method and URL into a signature base string, HMAC-SHA1
// signed with the consumer secret, base64 encoded.
func (s *Signer) SignedParams(method, rawURL string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}
	paramString := strings.Join(pairs, "&")

	base := strings.ToUpper(method) + "&" + url.QueryEscape(rawURL) + "&" + url.QueryEscape(paramString)

	mac := hmac.New(sha1.New, []byte(s.consumerSecret+"&"))
	mac.Write([]byte(base))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Bearer produces the Authorization value for all post-authentication calls.
func Bearer(token string) string {
	return "Bearer " + token
}
