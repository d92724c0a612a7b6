package siwe

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Candidate is the raw, untrusted shape of a SIWE payload before validation.
// Pointer fields distinguish absent from empty; ChainID stays untyped because
// clients send it as either a JSON number or a numeric string.
type Candidate struct {
	Scheme         *string  `json:"scheme"`
	Domain         *string  `json:"domain"`
	Address        *string  `json:"address"`
	Statement      *string  `json:"statement"`
	URI            *string  `json:"uri"`
	Version        *string  `json:"version"`
	ChainID        any      `json:"chainId"`
	Nonce          *string  `json:"nonce"`
	IssuedAt       *string  `json:"issuedAt"`
	ExpirationTime *string  `json:"expirationTime"`
	NotBefore      *string  `json:"notBefore"`
	RequestID      *string  `json:"requestId"`
	Resources      []string `json:"resources"`
}

var noncePattern = regexp.MustCompile(`^[a-zA-Z0-9]+$`)

// Validate checks every field rule and returns either the normalized message
// or the complete set of failures. It never stops at the first error: a
// candidate violating five rules yields five FieldErrors. A missing required
// field yields exactly one "Required" error for that field and suppresses the
// field's other checks so failures do not cascade.
func Validate(c Candidate) (*Message, []FieldError) {
	return validateAt(c, time.Now().UTC())
}

func validateAt(c Candidate, now time.Time) (*Message, []FieldError) {
	var errs []FieldError
	msg := &Message{}

	fail := func(path string, kind ErrorKind, message string) {
		errs = append(errs, FieldError{Path: path, Kind: kind, Message: message})
	}

	// scheme (optional)
	if c.Scheme != nil {
		if *c.Scheme != "http" && *c.Scheme != "https" {
			fail("scheme", KindInvalidEnum, msgInvalidScheme)
		} else {
			msg.Scheme = *c.Scheme
		}
	}

	// domain (required, RFC 3986 authority, no embedded scheme)
	if c.Domain == nil {
		fail("domain", KindInvalidType, msgRequired)
	} else if !isAuthority(*c.Domain) {
		fail("domain", KindCustom, msgInvalidDomain)
	} else {
		msg.Domain = *c.Domain
	}

	// address (required, strict EIP-55)
	if c.Address == nil {
		fail("address", KindInvalidType, msgRequired)
	} else if !isChecksummedAddress(*c.Address) {
		fail("address", KindCustom, msgInvalidAddress)
	} else {
		msg.Address = *c.Address
	}

	// statement (optional, single line)
	if c.Statement != nil {
		if strings.Contains(*c.Statement, "\n") {
			fail("statement", KindCustom, msgStatementNewline)
		} else {
			msg.Statement = *c.Statement
		}
	}

	// uri (required, absolute)
	if c.URI == nil {
		fail("uri", KindInvalidType, msgRequired)
	} else if !isAbsoluteURI(*c.URI) {
		fail("uri", KindInvalidString, msgInvalidURL)
	} else {
		msg.URI = *c.URI
	}

	// version (required, literal "1")
	if c.Version == nil {
		fail("version", KindInvalidType, msgRequired)
	} else if *c.Version != "1" {
		fail("version", KindInvalidLiteral, msgInvalidVersion)
	} else {
		msg.Version = *c.Version
	}

	// chainId (required, coerced from number or numeric string)
	if c.ChainID == nil {
		fail("chainId", KindInvalidType, msgRequired)
	} else if chainID, ok := coerceChainID(c.ChainID); !ok {
		fail("chainId", KindInvalidType, msgChainIDNaN)
	} else {
		msg.ChainID = chainID
	}

	// nonce (required, alphanumeric, length >= 8; both rules run independently)
	if c.Nonce == nil {
		fail("nonce", KindInvalidType, msgRequired)
	} else {
		if !noncePattern.MatchString(*c.Nonce) {
			fail("nonce", KindInvalidString, msgNonceNotAlnum)
		}
		if len(*c.Nonce) < 8 {
			fail("nonce", KindTooSmall, msgNonceTooSmall)
		}
		msg.Nonce = *c.Nonce
	}

	// issuedAt (optional, defaults to the validation-time instant)
	var issuedAt time.Time
	issuedAtKnown := false
	if c.IssuedAt == nil {
		issuedAt = now
		issuedAtKnown = true
		msg.IssuedAt = now.Format(time.RFC3339)
	} else if ts, ok := parseDatetime(*c.IssuedAt); !ok {
		fail("issuedAt", KindInvalidString, msgInvalidDatetime)
	} else {
		issuedAt = ts
		issuedAtKnown = true
		msg.IssuedAt = *c.IssuedAt
	}

	// expirationTime (optional; both ordering checks run and may fail together)
	if c.ExpirationTime != nil {
		if exp, ok := parseDatetime(*c.ExpirationTime); !ok {
			fail("expirationTime", KindInvalidString, msgInvalidDatetime)
		} else {
			if issuedAtKnown && !exp.After(issuedAt) {
				fail("expirationTime", KindCustom, msgExpBeforeIssued)
			}
			if !exp.After(now) {
				fail("expirationTime", KindCustom, msgExpNotInFuture)
			}
			msg.ExpirationTime = *c.ExpirationTime
		}
	}

	// notBefore (optional)
	if c.NotBefore != nil {
		if _, ok := parseDatetime(*c.NotBefore); !ok {
			fail("notBefore", KindInvalidString, msgInvalidDatetime)
		} else {
			msg.NotBefore = *c.NotBefore
		}
	}

	// requestId (optional, opaque)
	if c.RequestID != nil {
		msg.RequestID = *c.RequestID
	}

	// resources (optional; violations carry the element index)
	for i, r := range c.Resources {
		if strings.Contains(r, "\n") || !isAbsoluteURI(r) {
			fail(fmt.Sprintf("resources.%d", i), KindInvalidString, msgInvalidURL)
			continue
		}
		msg.Resources = append(msg.Resources, r)
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return msg, nil
}

// isAuthority reports whether domain is a bare RFC 3986 authority
// (host, optional port, optional userinfo). Anything carrying its own
// scheme is rejected outright so "https://https://example.com" style
// duplication cannot slip through the placeholder-prefix parse.
func isAuthority(domain string) bool {
	if domain == "" || strings.Contains(domain, "://") {
		return false
	}

	u, err := url.Parse("https://" + domain)
	if err != nil {
		return false
	}
	if u.Host == "" || u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		return false
	}

	authority := u.Host
	if u.User != nil {
		authority = u.User.String() + "@" + u.Host
	}
	return authority == domain
}

// isChecksummedAddress requires the exact EIP-55 casing: lower- or
// upper-cased hex of an otherwise valid address does not pass.
func isChecksummedAddress(address string) bool {
	if !common.IsHexAddress(address) {
		return false
	}
	return common.HexToAddress(address).Hex() == address
}

func isAbsoluteURI(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.IsAbs()
}

func coerceChainID(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		if n != float64(int64(n)) {
			return 0, false
		}
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}

func parseDatetime(value string) (time.Time, bool) {
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		ts, err = time.Parse(time.RFC3339Nano, value)
		if err != nil {
			return time.Time{}, false
		}
	}
	return ts, true
}
